// Package engine is the routing engine handle. It owns a loaded dataset and
// answers route, nearest and table requests with OSRM-shaped result trees.
package engine

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/azybler/route_engine/pkg/graph"
	"github.com/azybler/route_engine/pkg/routing"
	"github.com/azybler/route_engine/pkg/storage"
)

// Engine answers routing requests over one dataset. It is safe for
// concurrent use.
type Engine struct {
	cfg     Config
	ds      *storage.Dataset
	base    *graph.Graph
	snapper *routing.Snapper
	router  routing.Router

	closeOnce sync.Once
}

// New opens the dataset named by cfg and prepares the query structures.
func New(cfg Config) (*Engine, error) {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = formatValidationError(fe)
			}
			return nil, fmt.Errorf("invalid engine config: %s", strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	var (
		ds  *storage.Dataset
		err error
	)
	if cfg.UseSharedMemory {
		ds, err = storage.Attach(cfg.StoragePath)
	} else {
		ds, err = storage.Load(cfg.StoragePath)
	}
	if err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, ds: ds, base: ds.Base}

	log.Printf("Building R-tree spatial index...")
	e.snapper = routing.NewSnapper(ds.Base)
	log.Printf("Indexed %d road segments", e.snapper.Len())

	switch cfg.Algorithm {
	case MLD:
		e.router = routing.NewDijkstraRouter(ds.Base)
	default:
		e.router = routing.NewCHRouter(ds.CH, ds.Base)
	}
	log.Printf("Engine ready: algorithm %s, metric %s", cfg.Algorithm, ds.CH.Metric)
	return e, nil
}

// Close releases a shared dataset attachment. The engine must not be used
// afterwards.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		if e.cfg.UseSharedMemory {
			storage.Release(e.cfg.StoragePath)
		}
	})
	return nil
}

// Stats returns the dataset counts.
func (e *Engine) Stats() storage.Stats {
	return e.ds.Stats()
}

// Config returns the configuration the engine was opened with.
func (e *Engine) Config() Config {
	return e.cfg
}
