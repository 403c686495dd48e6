package engine

import (
	"github.com/azybler/route_engine/pkg/routing"
)

// Config configures an Engine.
type Config struct {
	// StoragePath is the dataset file. With UseSharedMemory it is the key
	// the dataset was published under.
	StoragePath     string `validate:"required"`
	UseSharedMemory bool
	Algorithm       Algorithm `validate:"oneof=0 1"`

	// Request limits; 0 means unlimited.
	MaxLocationsRoute int `validate:"gte=0"`
	MaxLocationsTable int `validate:"gte=0"`
	MaxResultsNearest int `validate:"gte=0"`

	// DefaultRadius is the snap radius in meters for coordinates without
	// an explicit radius.
	DefaultRadius float64 `validate:"gt=0"`
}

// DefaultConfig returns the default configuration for the dataset at path.
func DefaultConfig(path string) Config {
	return Config{
		StoragePath:       path,
		Algorithm:         CH,
		MaxLocationsTable: 100,
		MaxResultsNearest: 100,
		DefaultRadius:     routing.DefaultSnapRadius,
	}
}
