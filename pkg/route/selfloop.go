// Self-connection routing: leave the component perpendicular to the side
// the start anchor sits on, walk around the box at a fixed distance, and
// come back in on the end anchor's side.

package route

import (
	"math"

	"github.com/ha1tch/mimic-toolkit/pkg/geom"
)

// Side of a rectangle, in clockwise order starting at the top.
type Side int

const (
	SideTop Side = iota
	SideRight
	SideBottom
	SideLeft
)

// NearestSide returns the side of r closest to p.
func NearestSide(r geom.Rect, p geom.Point) Side {
	side := SideTop
	best := math.Abs(p.Y - r.Top())
	if d := math.Abs(r.Right() - p.X); d < best {
		side, best = SideRight, d
	}
	if d := math.Abs(r.Bottom() - p.Y); d < best {
		side, best = SideBottom, d
	}
	if d := math.Abs(p.X - r.Left()); d < best {
		side = SideLeft
	}
	return side
}

// project moves p straight out onto side of box.
func project(box geom.Rect, side Side, p geom.Point) geom.Point {
	switch side {
	case SideTop:
		return geom.Point{X: p.X, Y: box.Top()}
	case SideRight:
		return geom.Point{X: box.Right(), Y: p.Y}
	case SideBottom:
		return geom.Point{X: p.X, Y: box.Bottom()}
	default:
		return geom.Point{X: box.Left(), Y: p.Y}
	}
}

// corner returns the clockwise end corner of side.
func corner(box geom.Rect, side Side) geom.Point {
	switch side {
	case SideTop:
		return geom.Point{X: box.Right(), Y: box.Top()}
	case SideRight:
		return geom.Point{X: box.Right(), Y: box.Bottom()}
	case SideBottom:
		return geom.Point{X: box.Left(), Y: box.Bottom()}
	default:
		return geom.Point{X: box.Left(), Y: box.Top()}
	}
}

// perimeterPath walks from side a to side b around box in the given
// direction.
func perimeterPath(box geom.Rect, a, b Side, clockwise bool) []geom.Point {
	var out []geom.Point
	for side := a; side != b; {
		if clockwise {
			out = append(out, corner(box, side))
			side = (side + 1) % 4
		} else {
			side = (side + 3) % 4
			out = append(out, corner(box, side))
		}
	}
	return out
}

func pathLength(path []geom.Point) float64 {
	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		total += path[i].Dist(path[i+1])
	}
	return total
}

// selfLoopCandidate builds the route at distance d from the source box.
func selfLoopCandidate(req Request, d float64) []geom.Point {
	own := *req.Source
	box := own.Inflate(d)
	sSide := NearestSide(own, req.Start)
	eSide := NearestSide(own, req.End)
	sOut := project(box, sSide, req.Start)
	eOut := project(box, eSide, req.End)

	build := func(clockwise bool) []geom.Point {
		path := []geom.Point{req.Start, sOut}
		path = append(path, perimeterPath(box, sSide, eSide, clockwise)...)
		return append(path, eOut, req.End)
	}
	if sSide == eSide {
		return []geom.Point{req.Start, sOut, eOut, req.End}
	}
	cw, ccw := build(true), build(false)
	if len(ccw) < len(cw) || (len(ccw) == len(cw) && pathLength(ccw) < pathLength(cw)) {
		return ccw
	}
	return cw
}

func (r *Router) selfLoop(req Request) Result {
	var first []geom.Point
	for _, off := range r.Offsets {
		c := selfLoopCandidate(req, r.Margin+off)
		if first == nil {
			first = c
		}
		if geom.PathClear(c, req.Obstacles, r.Margin) {
			return Result{Path: c, Tier: TierSelfLoop}
		}
	}
	if first == nil {
		first = selfLoopCandidate(req, 2*r.Margin)
	}
	return Result{Path: first, Tier: TierSelfLoop}
}
