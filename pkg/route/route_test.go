package route

import (
	"math/rand"
	"testing"

	"github.com/ha1tch/mimic-toolkit/pkg/geom"
)

func rectPtr(x, y, w, h float64) *geom.Rect {
	return &geom.Rect{X: x, Y: y, W: w, H: h}
}

func interiorOutside(t *testing.T, path []geom.Point, boxes ...*geom.Rect) {
	t.Helper()
	for i := 1; i < len(path)-1; i++ {
		for _, b := range boxes {
			if b.Inflate(Margin).Contains(path[i]) {
				t.Errorf("Vertex %d (%.0f,%.0f) inside endpoint box", i, path[i].X, path[i].Y)
			}
		}
	}
}

func TestRouteCollinearJog(t *testing.T) {
	src := rectPtr(100, 100, 50, 50)
	dst := rectPtr(300, 100, 50, 50)
	req := Request{
		Start:  geom.Point{X: 150, Y: 125},
		End:    geom.Point{X: 300, Y: 125},
		Source: src,
		Target: dst,
	}

	res := Route(req)
	if res.Tier != TierCollinear {
		t.Errorf("Expected collinear tier, got %s", res.Tier)
	}
	if len(res.Path) != 4 {
		t.Fatalf("Expected 4-point jog, got %d points", len(res.Path))
	}
	// Offsets up to 30 put the jog inside the source box inflated by 5
	if res.Path[1].Y != 165 {
		t.Errorf("Expected jog level 165, got %.0f", res.Path[1].Y)
	}
	interiorOutside(t, res.Path, src, dst)
}

func TestRouteCollinearVertical(t *testing.T) {
	req := Request{
		Start: geom.Point{X: 100, Y: 0},
		End:   geom.Point{X: 100, Y: 200},
	}
	res := Route(req)
	if res.Tier != TierCollinear {
		t.Errorf("Expected collinear tier, got %s", res.Tier)
	}
	if res.Path[1].X != 110 || res.Path[2].X != 110 {
		t.Errorf("Expected first jog at x=110, got %.0f/%.0f", res.Path[1].X, res.Path[2].X)
	}
}

func TestRouteUpward(t *testing.T) {
	req := Request{
		Start: geom.Point{X: 100, Y: 200},
		End:   geom.Point{X: 300, Y: 50},
	}
	res := Route(req)
	if res.Tier != TierUpward {
		t.Errorf("Expected upward tier, got %s", res.Tier)
	}
	if res.Path[1].Y != 190 {
		t.Errorf("Expected level 190 from start, got %.0f", res.Path[1].Y)
	}
}

func TestRouteElbowAvoidsObstacle(t *testing.T) {
	req := Request{
		Start:     geom.Point{X: 0, Y: 0},
		End:       geom.Point{X: 200, Y: 100},
		Obstacles: []geom.Rect{{X: -20, Y: 40, W: 40, H: 20}},
	}
	res := Route(req)
	if res.Tier != TierElbow {
		t.Errorf("Expected elbow tier, got %s", res.Tier)
	}
	want := geom.Point{X: 200, Y: 0}
	if len(res.Path) != 3 || res.Path[1] != want {
		t.Errorf("Expected horizontal-then-vertical elbow via %v, got %v", want, res.Path)
	}
}

func TestRouteOffsetL(t *testing.T) {
	// Block both elbows: one obstacle on each corner
	req := Request{
		Start: geom.Point{X: 0, Y: 0},
		End:   geom.Point{X: 200, Y: 100},
		Obstacles: []geom.Rect{
			{X: -10, Y: 90, W: 20, H: 20},
			{X: 190, Y: -10, W: 20, H: 20},
		},
	}
	res := Route(req)
	if res.Tier != TierOffsetL {
		t.Errorf("Expected offset-l tier, got %s", res.Tier)
	}
	if !geom.PathClear(res.Path, req.Obstacles, Margin) {
		t.Errorf("Offset path should clear obstacles: %v", res.Path)
	}
}

func TestRouteFallbackNeverEmpty(t *testing.T) {
	req := Request{
		Start:     geom.Point{X: 0, Y: 0},
		End:       geom.Point{X: 200, Y: 100},
		Obstacles: []geom.Rect{{X: -1000, Y: -1000, W: 3000, H: 3000}},
	}
	res := Route(req)
	if res.Tier != TierFallback {
		t.Errorf("Expected fallback tier, got %s", res.Tier)
	}
	want := []geom.Point{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 100}}
	if len(res.Path) != 3 {
		t.Fatalf("Expected 3-point fallback, got %v", res.Path)
	}
	for i := range want {
		if res.Path[i] != want[i] {
			t.Errorf("Fallback point %d: expected %v, got %v", i, want[i], res.Path[i])
		}
	}
}

func TestRouteClearanceProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 300; i++ {
		var obstacles []geom.Rect
		for j := 0; j < 4; j++ {
			obstacles = append(obstacles, geom.Rect{
				X: float64(rng.Intn(40) * 10),
				Y: float64(rng.Intn(40) * 10),
				W: 50, H: 50,
			})
		}
		req := Request{
			Start:     geom.Point{X: float64(rng.Intn(40) * 10), Y: float64(rng.Intn(40) * 10)},
			End:       geom.Point{X: float64(rng.Intn(40) * 10), Y: float64(rng.Intn(40) * 10)},
			Obstacles: obstacles,
		}
		res := Route(req)
		if len(res.Path) < 2 {
			t.Fatalf("Route %d returned %d points", i, len(res.Path))
		}
		if res.Path[0] != req.Start || res.Path[len(res.Path)-1] != req.End {
			t.Errorf("Route %d does not join its endpoints", i)
		}
		if res.Tier != TierFallback && !geom.PathClear(res.Path, obstacles, Margin) {
			t.Errorf("Route %d (%s) crosses an obstacle: %v", i, res.Tier, res.Path)
		}
	}
}

func TestRouteSelfLoop(t *testing.T) {
	own := rectPtr(100, 100, 50, 50)
	req := Request{
		Start:    geom.Point{X: 150, Y: 125}, // right-center
		End:      geom.Point{X: 125, Y: 150}, // bottom-center
		Source:   own,
		Target:   own,
		SelfLoop: true,
	}
	res := Route(req)
	if res.Tier != TierSelfLoop {
		t.Errorf("Expected self-loop tier, got %s", res.Tier)
	}
	want := []geom.Point{
		{X: 150, Y: 125}, {X: 165, Y: 125}, {X: 165, Y: 165}, {X: 125, Y: 165}, {X: 125, Y: 150},
	}
	if len(res.Path) != len(want) {
		t.Fatalf("Expected %d points, got %v", len(want), res.Path)
	}
	for i := range want {
		if res.Path[i] != want[i] {
			t.Errorf("Point %d: expected %v, got %v", i, want[i], res.Path[i])
		}
	}
	interiorOutside(t, res.Path, own)
}

func TestRouteSelfLoopOppositeSides(t *testing.T) {
	own := rectPtr(100, 100, 50, 50)
	req := Request{
		Start:    geom.Point{X: 125, Y: 100}, // top
		End:      geom.Point{X: 125, Y: 150}, // bottom
		Source:   own,
		Target:   own,
		SelfLoop: true,
	}
	res := Route(req)
	if len(res.Path) != 6 {
		t.Fatalf("Expected two corners around the box, got %v", res.Path)
	}
	interiorOutside(t, res.Path, own)
}

func TestRouteCurve(t *testing.T) {
	s, e := geom.Point{X: 0, Y: 0}, geom.Point{X: 90, Y: 0}
	res := Route(Request{Start: s, End: e, Curve: true})
	if res.Tier != TierCurve || len(res.Path) != 4 {
		t.Fatalf("Expected 4-point curve, got %s %v", res.Tier, res.Path)
	}

	controls := []geom.Point{{X: 10, Y: 50}, {X: 80, Y: 50}}
	res = Route(Request{Start: s, End: e, Curve: true, Controls: controls})
	if res.Path[1] != controls[0] || res.Path[2] != controls[1] {
		t.Errorf("User controls should be kept, got %v", res.Path)
	}
}

func TestMidpoint(t *testing.T) {
	curve := []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 100}, {X: 100, Y: 100}, {X: 100, Y: 0}}
	if m := Midpoint(curve, true); m.X != 50 || m.Y != 75 {
		t.Errorf("Curve midpoint expected (50,75), got %v", m)
	}
	elbow := []geom.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}
	if m := Midpoint(elbow, false); m.X != 100 || m.Y != 0 {
		t.Errorf("Elbow midpoint expected (100,0), got %v", m)
	}
}

func TestNearestSide(t *testing.T) {
	r := geom.Rect{X: 0, Y: 0, W: 100, H: 50}
	tests := []struct {
		p    geom.Point
		want Side
	}{
		{geom.Point{X: 50, Y: 0}, SideTop},
		{geom.Point{X: 100, Y: 25}, SideRight},
		{geom.Point{X: 50, Y: 50}, SideBottom},
		{geom.Point{X: 0, Y: 25}, SideLeft},
	}
	for _, tt := range tests {
		if got := NearestSide(r, tt.p); got != tt.want {
			t.Errorf("NearestSide(%v) expected %d, got %d", tt.p, tt.want, got)
		}
	}
}
