package main

import (
	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/geom"
	"github.com/ha1tch/mimic-toolkit/pkg/route"
)

// curveSamples is the flattening resolution for curve hit tests and
// drawing.
const curveSamples = 24

// anchorAt returns the anchor nearest p within tol. Components later in
// the list are on top and win ties.
func anchorAt(s *diagram.State, p geom.Point, tol float64) (diagram.AnchorRef, bool) {
	best, found := tol, false
	var ref diagram.AnchorRef
	for i := len(s.Components) - 1; i >= 0; i-- {
		c := &s.Components[i]
		for j := range c.ConnectionPoints {
			a, _ := c.AnchorAt(j)
			if d := a.Dist(p); d <= best {
				best, found = d, true
				ref = diagram.AnchorRef{ComponentID: c.ID, Index: j}
			}
		}
		if found {
			return ref, true
		}
	}
	return ref, false
}

// componentAt returns the topmost component whose footprint contains p.
func componentAt(s *diagram.State, p geom.Point) string {
	for i := len(s.Components) - 1; i >= 0; i-- {
		if s.Components[i].Footprint().Contains(p) {
			return s.Components[i].ID
		}
	}
	return ""
}

// connectionPolyline is the drawn shape of a connection.
func connectionPolyline(c *diagram.Connection) []geom.Point {
	return route.Sample(c.Path(), c.Kind == diagram.ConnCurve, curveSamples)
}

// connectionAt returns the nearest connection within tol of p.
func connectionAt(s *diagram.State, p geom.Point, tol float64) string {
	best, id := tol, ""
	for i := range s.Connections {
		c := &s.Connections[i]
		if d := geom.DistToPolyline(p, connectionPolyline(c)); d <= best {
			best, id = d, c.ID
		}
	}
	return id
}

// bendAt returns the index of the bend of c within tol of p, or -1.
// Curves have no bends; their handle is tested with curveHandleAt.
func bendAt(c *diagram.Connection, p geom.Point, tol float64) int {
	if c.Kind == diagram.ConnCurve {
		return -1
	}
	for i, b := range c.Bends {
		if b.Dist(p) <= tol {
			return i
		}
	}
	return -1
}

// curveHandleAt reports whether p is on the midpoint handle of a curve.
func curveHandleAt(c *diagram.Connection, p geom.Point, tol float64) bool {
	if c.Kind != diagram.ConnCurve {
		return false
	}
	return route.Midpoint(c.Path(), true).Dist(p) <= tol
}

// resizeHandleAt reports whether p is on the bottom-right corner of c.
func resizeHandleAt(c *diagram.Component, p geom.Point, tol float64) bool {
	fp := c.Footprint()
	return geom.Point{X: fp.Right(), Y: fp.Bottom()}.Dist(p) <= tol
}
