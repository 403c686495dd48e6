package engine

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/azybler/route_engine/pkg/routing"
	"github.com/azybler/route_engine/pkg/value"
)

// Table computes the duration and/or distance matrix between the selected
// sources and destinations. Unreachable pairs are null.
func (e *Engine) Table(ctx context.Context, p *TableParameters) (status Status, result value.Value) {
	defer recoverResult(&status, &result)
	res, rerr := e.table(ctx, p)
	if rerr != nil {
		return rerr.result()
	}
	return StatusOk, res
}

func (e *Engine) table(ctx context.Context, p *TableParameters) (*value.Object, *requestError) {
	if p == nil {
		return nil, newRequestError(CodeInvalidOptions, "Missing table parameters")
	}
	if rerr := checkStruct(p); rerr != nil {
		return nil, rerr
	}
	n := len(p.Coordinates)
	if len(p.Radiuses) > 0 && len(p.Radiuses) != n {
		return nil, newRequestError(CodeInvalidOptions, "Number of radiuses does not match number of coordinates")
	}
	if limit := e.cfg.MaxLocationsTable; limit > 0 && n > limit {
		return nil, newRequestError(CodeTooBig, "Number of entries %d is higher than current maximum (%d)", n, limit)
	}
	srcs, rerr := tableIndices(p.Sources, n, "Source")
	if rerr != nil {
		return nil, rerr
	}
	dsts, rerr := tableIndices(p.Destinations, n, "Destination")
	if rerr != nil {
		return nil, rerr
	}
	annotations := p.Annotations
	if annotations == 0 {
		annotations = TableDuration
	}
	if rerr := ctxError(ctx.Err()); rerr != nil {
		return nil, rerr
	}

	snaps, rerr := e.snapAll(p.Coordinates, p.Radiuses, nil)
	if rerr != nil {
		return nil, rerr
	}

	durations := make([][]value.Value, len(srcs))
	distances := make([][]value.Value, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, si := range srcs {
		durations[i] = make([]value.Value, len(dsts))
		distances[i] = make([]value.Value, len(dsts))
		g.Go(func() error {
			for j, di := range dsts {
				path, err := e.router.ShortestPath(gctx, snaps[si], snaps[di])
				if errors.Is(err, routing.ErrNoRoute) {
					durations[i][j], distances[i][j] = value.Null{}, value.Null{}
					continue
				}
				if err != nil {
					return err
				}
				leg := path.Leg(e.base)
				durations[i][j] = value.Number(round1(leg.DurationSeconds))
				distances[i][j] = value.Number(round1(leg.DistanceMeters))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, routeError(err)
	}

	root := value.NewObject().Set("code", value.String(CodeOk))
	if annotations&TableDuration != 0 {
		root.Set("durations", matrix(durations))
	}
	if annotations&TableDistance != 0 {
		root.Set("distances", matrix(distances))
	}
	sources, destinations := value.NewArray(), value.NewArray()
	for _, si := range srcs {
		sources.Append(e.waypoint(snaps[si], p.GenerateHints))
	}
	for _, di := range dsts {
		destinations.Append(e.waypoint(snaps[di], p.GenerateHints))
	}
	return root.Set("sources", sources).Set("destinations", destinations), nil
}

// tableIndices resolves requested indices, defaulting to every coordinate.
func tableIndices(idx []int, n int, what string) ([]int, *requestError) {
	if len(idx) == 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, i := range idx {
		if i >= n {
			return nil, newRequestError(CodeInvalidOptions, "%s index %d is out of range", what, i)
		}
	}
	return idx, nil
}

func matrix(rows [][]value.Value) *value.Array {
	out := value.NewArray()
	for _, row := range rows {
		out.Append(value.NewArray(row...))
	}
	return out
}
