// Package route computes connection paths between component anchors.
//
// Orthogonal routes are found by trying a fixed sequence of candidate
// shapes and keeping the first one that clears every obstacle. The router
// never fails: when nothing clears, a plain elbow is returned.
package route

import (
	"github.com/ha1tch/mimic-toolkit/pkg/geom"
)

// Margin is the clearance kept around obstacles.
const Margin = 5.0

// Offsets is the ladder of jog distances tried by every tier.
var Offsets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120}

// Tier identifies which strategy produced a path.
type Tier int

const (
	TierCollinear Tier = iota // jog between aligned anchors
	TierUpward                // end above start
	TierElbow                 // direct L-shape
	TierOffsetL               // L-shape with an offset jog
	TierSelfLoop              // walk around the component's own box
	TierFallback              // nothing cleared
	TierCurve                 // cubic Bézier, no search
)

func (t Tier) String() string {
	switch t {
	case TierCollinear:
		return "collinear"
	case TierUpward:
		return "upward"
	case TierElbow:
		return "elbow"
	case TierOffsetL:
		return "offset-l"
	case TierSelfLoop:
		return "self-loop"
	case TierFallback:
		return "fallback"
	case TierCurve:
		return "curve"
	}
	return "unknown"
}

// Request describes one connection to route.
type Request struct {
	Start, End geom.Point

	// Source and Target are the boxes of the endpoint components, nil when
	// unknown. Interior vertices may not enter them.
	Source, Target *geom.Rect

	// Obstacles excludes the endpoint components.
	Obstacles []geom.Rect

	// SelfLoop is set when both ends sit on the same component.
	SelfLoop bool

	// Curve requests a cubic Bézier. Controls, when it holds two points,
	// overrides the seeded control points.
	Curve    bool
	Controls []geom.Point
}

// Result is a routed path plus the tier that produced it.
type Result struct {
	Path []geom.Point
	Tier Tier
}

// Bends returns the interior points of the path.
func (r Result) Bends() []geom.Point {
	if len(r.Path) <= 2 {
		return nil
	}
	out := make([]geom.Point, len(r.Path)-2)
	copy(out, r.Path[1:len(r.Path)-1])
	return out
}

// Router holds routing parameters.
type Router struct {
	Margin  float64
	Offsets []float64
}

// New returns a Router with the default margin and offset ladder.
func New() *Router {
	return &Router{Margin: Margin, Offsets: Offsets}
}

var defaultRouter = New()

// Route routes req with the default router.
func Route(req Request) Result {
	return defaultRouter.Route(req)
}

// Route computes a path for req.
func (r *Router) Route(req Request) Result {
	if req.Curve {
		return Result{Path: curvePath(req), Tier: TierCurve}
	}
	if req.SelfLoop && req.Source != nil {
		return r.selfLoop(req)
	}

	s, e := req.Start, req.End

	if s.X == e.X || s.Y == e.Y {
		if s.Y == e.Y {
			for _, off := range r.Offsets {
				for _, sign := range []float64{1, -1} {
					y := s.Y + sign*off
					c := []geom.Point{s, {X: s.X, Y: y}, {X: e.X, Y: y}, e}
					if r.accept(c, req) {
						return Result{Path: c, Tier: TierCollinear}
					}
				}
			}
		}
		if s.X == e.X {
			for _, off := range r.Offsets {
				for _, sign := range []float64{1, -1} {
					x := s.X + sign*off
					c := []geom.Point{s, {X: x, Y: s.Y}, {X: x, Y: e.Y}, e}
					if r.accept(c, req) {
						return Result{Path: c, Tier: TierCollinear}
					}
				}
			}
		}
	}

	if e.Y < s.Y {
		for _, level := range []float64{s.Y, e.Y} {
			for _, off := range r.Offsets {
				y := level - off
				c := []geom.Point{s, {X: s.X, Y: y}, {X: e.X, Y: y}, e}
				if r.accept(c, req) {
					return Result{Path: c, Tier: TierUpward}
				}
			}
		}
	}

	vh := []geom.Point{s, {X: s.X, Y: e.Y}, e}
	if r.accept(vh, req) {
		return Result{Path: vh, Tier: TierElbow}
	}
	hv := []geom.Point{s, {X: e.X, Y: s.Y}, e}
	if r.accept(hv, req) {
		return Result{Path: hv, Tier: TierElbow}
	}

	for _, off := range r.Offsets {
		for _, sign := range []float64{1, -1} {
			x := s.X + sign*off
			c := []geom.Point{s, {X: x, Y: s.Y}, {X: x, Y: e.Y}, e}
			if r.accept(c, req) {
				return Result{Path: c, Tier: TierOffsetL}
			}
		}
	}
	for _, off := range r.Offsets {
		for _, sign := range []float64{1, -1} {
			y := s.Y + sign*off
			c := []geom.Point{s, {X: s.X, Y: y}, {X: e.X, Y: y}, e}
			if r.accept(c, req) {
				return Result{Path: c, Tier: TierOffsetL}
			}
		}
	}

	return Result{Path: hv, Tier: TierFallback}
}

// accept reports whether candidate clears all obstacles and keeps its
// interior vertices out of both endpoint boxes.
func (r *Router) accept(candidate []geom.Point, req Request) bool {
	if !geom.PathClear(candidate, req.Obstacles, r.Margin) {
		return false
	}
	if req.Source == nil || req.Target == nil {
		return true
	}
	src := req.Source.Inflate(r.Margin)
	dst := req.Target.Inflate(r.Margin)
	for _, p := range candidate[1 : len(candidate)-1] {
		if src.Contains(p) || dst.Contains(p) {
			return false
		}
	}
	return true
}

// Clear reports whether every segment of path clears the obstacles of req
// with the router's margin.
func (r *Router) Clear(path []geom.Point, req Request) bool {
	return geom.PathClear(path, req.Obstacles, r.Margin)
}

func curvePath(req Request) []geom.Point {
	if len(req.Controls) == 2 {
		return []geom.Point{req.Start, req.Controls[0], req.Controls[1], req.End}
	}
	c1, c2 := geom.SeedControls(req.Start, req.End)
	return []geom.Point{req.Start, c1, c2, req.End}
}

// Sample flattens a routed path into a polyline. Curves are evaluated at
// n steps; orthogonal paths are returned as-is.
func Sample(path []geom.Point, curve bool, n int) []geom.Point {
	if !curve || len(path) != 4 {
		return path
	}
	return geom.SampleCubic(path[0], path[1], path[2], path[3], n)
}

// Midpoint returns the point halfway along a path: t=0.5 for curves, half
// the arc length otherwise.
func Midpoint(path []geom.Point, curve bool) geom.Point {
	if len(path) == 0 {
		return geom.Point{}
	}
	if curve && len(path) == 4 {
		return geom.CubicBezier(path[0], path[1], path[2], path[3], 0.5)
	}
	half := pathLength(path) / 2
	for i := 0; i+1 < len(path); i++ {
		seg := path[i].Dist(path[i+1])
		if seg >= half && seg > 0 {
			return path[i].Add(path[i+1].Sub(path[i]).Scale(half / seg))
		}
		half -= seg
	}
	return path[len(path)-1]
}
