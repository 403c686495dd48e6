package routing

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

// queryPoints mixes two-way and one-way segments, nodes and mid-segment spots.
var queryPoints = [][2]float64{
	{1.3000, 103.8003},
	{1.3010, 103.8012}, // one-way row
	{1.3020, 103.8027},
	{1.3005, 103.8030},
	{1.3010, 103.8024}, // one-way row
	{1.3015, 103.8000},
	{1.3010, 103.8018}, // one-way row, same segment as index 1
	{1.3000, 103.8010}, // on a node
}

func snapAll(t *testing.T, s *Snapper) []SnapResult {
	t.Helper()
	out := make([]SnapResult, len(queryPoints))
	for i, p := range queryPoints {
		res, err := s.Snap(p[0], p[1], 0)
		if err != nil {
			t.Fatalf("Snap(%v): %v", p, err)
		}
		out[i] = res
	}
	return out
}

func TestRoutersMatchBruteForce(t *testing.T) {
	n := buildNetwork(t)
	snaps := snapAll(t, NewSnapper(n.g))

	routers := map[string]Router{
		"ch":       NewCHRouter(n.chg, n.g),
		"dijkstra": NewDijkstraRouter(n.g),
	}
	for name, r := range routers {
		t.Run(name, func(t *testing.T) {
			for i, from := range snaps {
				for j, to := range snaps {
					want := bruteForceWeight(n.g, from, to)
					path, err := r.ShortestPath(context.Background(), from, to)
					if err != nil {
						t.Fatalf("%d→%d: %v", i, j, err)
					}
					if path.Weight != want {
						t.Errorf("%d→%d: weight %d, want %d", i, j, path.Weight, want)
					}
				}
			}
		})
	}
}

func TestCHOverBaseGraphView(t *testing.T) {
	// A router built from the CH graph's own base view must agree with one
	// built from the graph the hierarchy was contracted from.
	n := buildNetwork(t)
	base := n.chg.BaseGraph()
	snaps := snapAll(t, NewSnapper(base))

	a := NewCHRouter(n.chg, base)
	b := NewDijkstraRouter(n.g)
	for _, from := range snaps {
		for _, to := range snaps {
			pa, errA := a.ShortestPath(context.Background(), from, to)
			pb, errB := b.ShortestPath(context.Background(), from, to)
			if errA != nil || errB != nil {
				t.Fatalf("errors: %v, %v", errA, errB)
			}
			if pa.Weight != pb.Weight {
				t.Errorf("weights differ: %d vs %d", pa.Weight, pb.Weight)
			}
		}
	}
}

func TestOneWaySegmentIsNotReversed(t *testing.T) {
	n := buildNetwork(t)
	snaps := snapAll(t, NewSnapper(n.g))
	downstream, upstream := snaps[6], snaps[1] // same one-way segment
	if downstream.EdgeIdx != upstream.EdgeIdx {
		t.Fatalf("fixture points are on different segments")
	}

	for name, r := range map[string]Router{"ch": NewCHRouter(n.chg, n.g), "dijkstra": NewDijkstraRouter(n.g)} {
		t.Run(name, func(t *testing.T) {
			forward, err := r.ShortestPath(context.Background(), upstream, downstream)
			if err != nil {
				t.Fatal(err)
			}
			if !forward.Direct {
				t.Error("travel with the one-way direction should be direct")
			}

			back, err := r.ShortestPath(context.Background(), downstream, upstream)
			if err != nil {
				t.Fatal(err)
			}
			if back.Direct {
				t.Error("travel against the one-way direction must not be direct")
			}
			if back.Weight <= forward.Weight {
				t.Errorf("detour weight %d should exceed direct weight %d", back.Weight, forward.Weight)
			}
		})
	}
}

func TestSameSegmentTwoWay(t *testing.T) {
	n := buildNetwork(t)
	s := NewSnapper(n.g)
	a, _ := s.Snap(1.3000, 103.8002, 0)
	b, _ := s.Snap(1.3000, 103.8008, 0)

	r := NewCHRouter(n.chg, n.g)
	for _, pair := range [][2]SnapResult{{a, b}, {b, a}} {
		path, err := r.ShortestPath(context.Background(), pair[0], pair[1])
		if err != nil {
			t.Fatal(err)
		}
		if !path.Direct {
			t.Error("expected direct travel along the shared segment")
		}
		seg := n.g.Weight[a.EdgeIdx]
		want := float64(seg) * 0.6
		if math.Abs(float64(path.Weight)-want) > float64(seg)*0.02 {
			t.Errorf("weight = %d, want about %.0f", path.Weight, want)
		}
	}
}

func TestNoRouteToIsland(t *testing.T) {
	n := buildNetwork(t)
	s := NewSnapper(n.g)
	from, _ := s.Snap(1.3000, 103.8003, 0)
	to, err := s.Snap(1.4000, 103.8005, 0)
	if err != nil {
		t.Fatalf("Snap island: %v", err)
	}

	for name, r := range map[string]Router{"ch": NewCHRouter(n.chg, n.g), "dijkstra": NewDijkstraRouter(n.g)} {
		t.Run(name, func(t *testing.T) {
			if _, err := r.ShortestPath(context.Background(), from, to); !errors.Is(err, ErrNoRoute) {
				t.Errorf("err = %v, want ErrNoRoute", err)
			}
		})
	}
}

func TestCancelledContext(t *testing.T) {
	n := buildNetwork(t)
	snaps := snapAll(t, NewSnapper(n.g))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, r := range map[string]Router{"ch": NewCHRouter(n.chg, n.g), "dijkstra": NewDijkstraRouter(n.g)} {
		t.Run(name, func(t *testing.T) {
			if _, err := r.ShortestPath(ctx, snaps[0], snaps[2]); !errors.Is(err, context.Canceled) {
				t.Errorf("err = %v, want context.Canceled", err)
			}
		})
	}
}

func TestConcurrentQueries(t *testing.T) {
	n := buildNetwork(t)
	snaps := snapAll(t, NewSnapper(n.g))
	r := NewCHRouter(n.chg, n.g)

	want := make([][]uint32, len(snaps))
	for i := range snaps {
		want[i] = make([]uint32, len(snaps))
		for j := range snaps {
			want[i][j] = bruteForceWeight(n.g, snaps[i], snaps[j])
		}
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range 50 {
				i, j := (w+k)%len(snaps), (w*3+k)%len(snaps)
				path, err := r.ShortestPath(context.Background(), snaps[i], snaps[j])
				if err != nil || path.Weight != want[i][j] {
					select {
					case errs <- "mismatch":
					default:
					}
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	if len(errs) > 0 {
		t.Error("concurrent queries returned inconsistent results")
	}
}

func BenchmarkCHRouter(b *testing.B) {
	n := buildNetwork(b)
	s := NewSnapper(n.g)
	from, _ := s.Snap(1.3000, 103.8003, 0)
	to, _ := s.Snap(1.3020, 103.8027, 0)
	r := NewCHRouter(n.chg, n.g)
	for b.Loop() {
		r.ShortestPath(context.Background(), from, to)
	}
}
