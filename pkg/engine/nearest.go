package engine

import (
	"context"

	"github.com/azybler/route_engine/pkg/value"
)

// Nearest returns the road segments closest to p.Coordinate, nearest first.
func (e *Engine) Nearest(ctx context.Context, p *NearestParameters) (status Status, result value.Value) {
	defer recoverResult(&status, &result)
	res, rerr := e.nearest(ctx, p)
	if rerr != nil {
		return rerr.result()
	}
	return StatusOk, res
}

func (e *Engine) nearest(ctx context.Context, p *NearestParameters) (*value.Object, *requestError) {
	if p == nil {
		return nil, newRequestError(CodeInvalidOptions, "Missing nearest parameters")
	}
	if rerr := checkStruct(p); rerr != nil {
		return nil, rerr
	}
	if rerr := ctxError(ctx.Err()); rerr != nil {
		return nil, rerr
	}

	n := p.Number
	if limit := e.cfg.MaxResultsNearest; limit > 0 && n > limit {
		n = limit
	}
	radius := p.Radius
	if radius == 0 {
		radius = e.cfg.DefaultRadius
	}

	found := e.snapper.Nearest(p.Coordinate.Lat, p.Coordinate.Lon, n, radius)
	if len(found) == 0 {
		return nil, newRequestError(CodeNoSegment, "Could not find a matching segment for coordinate 0")
	}

	wps := value.NewArray()
	for _, s := range found {
		wp := value.NewObject().
			Set("nodes", value.NewArray(osmNode(e.base, s.NodeU), osmNode(e.base, s.NodeV)))
		if p.GenerateHints {
			wp.Set("hint", value.String(encodeHint(s.Location)))
		}
		wps.Append(wp.
			Set("distance", value.Number(round1(s.Dist))).
			Set("name", value.String(e.base.EdgeName(s.EdgeIdx))).
			Set("location", location(s.Location)))
	}
	return value.NewObject().
		Set("code", value.String(CodeOk)).
		Set("waypoints", wps), nil
}
