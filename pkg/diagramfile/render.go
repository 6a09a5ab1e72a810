package diagramfile

import (
	"image/color"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/geom"
	"github.com/ha1tch/mimic-toolkit/pkg/route"
)

// Fallback colors when the document leaves them empty or unparsable.
const (
	defaultBackground = "white"
	defaultGrid       = "#555"
	defaultLine       = "#333"
	defaultStroke     = "black"
)

// Arrow head dimensions in canvas units.
const (
	arrowLength = 10.0
	arrowWidth  = 4.0
)

var namedColors = map[string]string{
	"white": "#ffffff",
	"black": "#000000",
	"red":   "#ff0000",
	"green": "#008000",
	"blue":  "#0000ff",
	"grey":  "#808080",
	"gray":  "#808080",
}

// parseColor resolves a CSS-ish color name or hex string.
func parseColor(s string) (colorful.Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[s]; ok {
		s = hex
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

func colorOr(s, fallback string) color.Color {
	if c, ok := parseColor(s); ok {
		return c
	}
	c, _ := parseColor(fallback)
	return c
}

// cssColor returns s if it parses, else fallback. SVG output keeps the
// document's spelling.
func cssColor(s, fallback string) string {
	if _, ok := parseColor(s); ok {
		return s
	}
	return fallback
}

func backgroundOf(s *diagram.State) string {
	return cssColor(s.BgColor, defaultBackground)
}

func gridOf(s *diagram.State) string {
	return cssColor(s.GridColor, defaultGrid)
}

// extent returns the canvas rectangle covering every component,
// connection and stroke, expanded by padding. The origin stays in view
// because documents are authored in absolute canvas coordinates; content
// left of or above it widens the rectangle on that side.
func extent(s *diagram.State, padding float64) geom.Rect {
	pts := []geom.Point{{}}
	for i := range s.Components {
		r := s.Components[i].Footprint()
		pts = append(pts, geom.Point{X: r.Left(), Y: r.Top()}, geom.Point{X: r.Right(), Y: r.Bottom()})
	}
	for i := range s.Connections {
		pts = append(pts, s.Connections[i].Path()...)
	}
	for i := range s.Strokes {
		pts = append(pts, s.Strokes[i].Points...)
	}
	r := geom.BoundsOf(pts)
	var minX, minY float64
	if r.X < 0 {
		minX = math.Floor(r.X - padding)
	}
	if r.Y < 0 {
		minY = math.Floor(r.Y - padding)
	}
	return geom.Rect{X: minX, Y: minY, W: r.Right() + padding - minX, H: r.Bottom() + padding - minY}
}

// polyline returns the drawn shape of a connection. Curves are sampled.
func polyline(c *diagram.Connection, samples int) []geom.Point {
	curve := c.Kind == diagram.ConnCurve
	return route.Sample(c.Path(), curve, samples)
}

// arrowHead returns the three corners of an arrow head pointing at tip
// along the direction from -> tip.
func arrowHead(from, tip geom.Point) [3]geom.Point {
	angle := math.Atan2(tip.Y-from.Y, tip.X-from.X)
	back := geom.Point{X: tip.X - arrowLength*math.Cos(angle), Y: tip.Y - arrowLength*math.Sin(angle)}
	nx, ny := -math.Sin(angle)*arrowWidth, math.Cos(angle)*arrowWidth
	return [3]geom.Point{
		tip,
		{X: back.X + nx, Y: back.Y + ny},
		{X: back.X - nx, Y: back.Y - ny},
	}
}

// arrowHeads returns the arrow heads a connection carries.
func arrowHeads(c *diagram.Connection, pts []geom.Point) [][3]geom.Point {
	n := len(pts)
	if n < 2 {
		return nil
	}
	var out [][3]geom.Point
	switch c.Kind {
	case diagram.ConnSingle, diagram.ConnCurve:
		out = append(out, arrowHead(lastDistinct(pts, n-1, -1), pts[n-1]))
	case diagram.ConnDouble:
		out = append(out, arrowHead(lastDistinct(pts, n-1, -1), pts[n-1]))
		out = append(out, arrowHead(lastDistinct(pts, 0, 1), pts[0]))
	}
	return out
}

// lastDistinct walks from index i in direction step and returns the first
// point that differs from pts[i].
func lastDistinct(pts []geom.Point, i, step int) geom.Point {
	for j := i + step; j >= 0 && j < len(pts); j += step {
		if pts[j] != pts[i] {
			return pts[j]
		}
	}
	return pts[i].Sub(geom.Point{X: 1})
}

// componentLabel is the caption drawn on a component.
func componentLabel(c *diagram.Component) string {
	if c.Text != "" {
		return c.Text
	}
	return c.Kind
}

// componentFill picks the fill for a component body.
func componentFill(c *diagram.Component) string {
	switch {
	case diagram.IsLine(c.Kind):
		return defaultLine
	case !c.Toggleable():
		return "#eeeeee"
	case c.On():
		return "#c8e6c9"
	default:
		return "#ffcdd2"
	}
}
