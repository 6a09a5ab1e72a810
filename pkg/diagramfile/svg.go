package diagramfile

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/geom"
)

// SVGOptions controls SVG rendering.
type SVGOptions struct {
	Padding  int    // space added around the content
	Grid     bool   // draw the background grid
	AssetDir string // when set, components are drawn as <image> from AssetDir/<type>
	Title    string // document title
	FontSize int
}

// DefaultSVGOptions returns sensible defaults.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Padding:  40,
		Grid:     true,
		FontSize: 12,
	}
}

// RenderSVG writes the diagram as an SVG document.
func RenderSVG(s *diagram.State, w io.Writer, opts SVGOptions) error {
	if opts.FontSize <= 0 {
		opts.FontSize = 12
	}
	bounds := extent(s, float64(opts.Padding))
	width, height := int(math.Ceil(bounds.W)), int(math.Ceil(bounds.H))
	minX, minY := int(bounds.X), int(bounds.Y)

	canvas := svg.New(w)
	canvas.Startview(width, height, minX, minY, width, height)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}

	canvas.Def()
	if opts.Grid {
		canvas.Pattern("grid", 0, 0, int(diagram.GridSize), int(diagram.GridSize), "user")
		canvas.Path(fmt.Sprintf("M %g 0 L 0 0 0 %g", diagram.GridSize, diagram.GridSize),
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:0.5", gridOf(s)))
		canvas.PatternEnd()
	}
	canvas.DefEnd()

	canvas.Rect(minX, minY, width, height, "fill:"+backgroundOf(s))
	if opts.Grid {
		canvas.Rect(minX, minY, width, height, "fill:url(#grid)")
	}
	if s.BackgroundImage != "" && !strings.HasPrefix(s.BackgroundImage, "data:") {
		canvas.Image(minX, minY, width, height, s.BackgroundImage, `preserveAspectRatio="none"`)
	}

	canvas.Gid("components")
	for i := range s.Components {
		svgComponent(canvas, &s.Components[i], opts)
	}
	canvas.Gend()

	canvas.Gid("connections")
	for i := range s.Connections {
		svgConnection(canvas, &s.Connections[i])
	}
	canvas.Gend()

	canvas.Gid("strokes")
	for i := range s.Strokes {
		if d := pathData(s.Strokes[i].Points); d != "" {
			canvas.Path(d, fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", defaultStroke))
		}
	}
	canvas.Gend()

	canvas.End()
	return nil
}

// GenerateSVG renders the diagram to an SVG string.
func GenerateSVG(s *diagram.State, opts SVGOptions) string {
	var buf bytes.Buffer
	_ = RenderSVG(s, &buf, opts)
	return buf.String()
}

func svgComponent(canvas *svg.SVG, c *diagram.Component, opts SVGOptions) {
	x, y := round(c.X), round(c.Y)
	w, h := round(c.Width), round(c.Height)

	canvas.Gtransform(fmt.Sprintf("rotate(%g %g %g)", c.Rotation, c.X, c.Y))
	defer canvas.Gend()

	if opts.AssetDir != "" && !diagram.IsLine(c.Kind) {
		canvas.Image(x, y, w, h, strings.TrimRight(opts.AssetDir, "/")+"/"+c.Kind, `id="`+xmlEscape(c.ID)+`"`)
	} else {
		style := "fill:" + componentFill(c)
		if !diagram.IsLine(c.Kind) {
			style += ";stroke:" + defaultLine + ";stroke-width:1"
		}
		canvas.Rect(x, y, w, h, style, `id="`+xmlEscape(c.ID)+`"`)
	}

	if !diagram.IsLine(c.Kind) {
		canvas.Text(x+w/2, y+h/2+opts.FontSize/3, componentLabel(c),
			fmt.Sprintf("text-anchor:middle;font-family:sans-serif;font-size:%dpx;fill:#333", opts.FontSize))
	}
}

func svgConnection(canvas *svg.SVG, c *diagram.Connection) {
	color := cssColor(c.Color, defaultLine)
	var d string
	if c.Kind == diagram.ConnCurve && len(c.Bends) == 2 {
		p := c.Path()
		d = fmt.Sprintf("M %g %g C %g %g %g %g %g %g", p[0].X, p[0].Y, p[1].X, p[1].Y, p[2].X, p[2].Y, p[3].X, p[3].Y)
	} else {
		d = pathData(c.Path())
	}
	canvas.Path(d, fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", color), `id="`+xmlEscape(c.ID)+`"`)

	for _, head := range arrowHeads(c, polyline(c, 32)) {
		xs := []int{round(head[0].X), round(head[1].X), round(head[2].X)}
		ys := []int{round(head[0].Y), round(head[1].Y), round(head[2].Y)}
		canvas.Polygon(xs, ys, "fill:"+color)
	}
}

func pathData(pts []geom.Point) string {
	if len(pts) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, p := range pts {
		if i == 0 {
			sb.WriteString(fmt.Sprintf("M %g %g", p.X, p.Y))
			continue
		}
		sb.WriteString(fmt.Sprintf(" L %g %g", p.X, p.Y))
	}
	return sb.String()
}

func round(v float64) int {
	return int(math.Round(v))
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
