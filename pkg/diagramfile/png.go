package diagramfile

import (
	"image"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/geom"
)

// PNGOptions configures PNG rendering.
type PNGOptions struct {
	Padding     int
	Scale       float64 // output pixels per canvas unit
	Supersample int     // render this many times larger, then downsample
	FontSize    float64
	Grid        bool
}

// DefaultPNGOptions returns sensible defaults for PNG rendering.
func DefaultPNGOptions() PNGOptions {
	return PNGOptions{
		Padding:     40,
		Scale:       1,
		Supersample: 4,
		FontSize:    12,
		Grid:        true,
	}
}

func labelFace(size float64) (font.Face, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// RenderPNG renders the diagram to PNG format.
func RenderPNG(s *diagram.State, w io.Writer, opts PNGOptions) error {
	img, err := RenderImage(s, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// RenderImage rasterises the diagram. The picture is drawn at
// Scale*Supersample and downsampled with Catmull-Rom.
func RenderImage(s *diagram.State, opts PNGOptions) (image.Image, error) {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 12
	}

	bounds := extent(s, float64(opts.Padding))
	outW := int(math.Ceil(bounds.W * opts.Scale))
	outH := int(math.Ceil(bounds.H * opts.Scale))
	k := opts.Scale * float64(opts.Supersample)

	dc := gg.NewContext(outW*opts.Supersample, outH*opts.Supersample)
	face, err := labelFace(opts.FontSize * k)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)
	dc.Scale(k, k)
	dc.Translate(-bounds.X, -bounds.Y)

	dc.SetColor(colorOr(s.BgColor, defaultBackground))
	dc.Clear()
	if opts.Grid {
		pngGrid(dc, s, bounds, k)
	}

	for i := range s.Components {
		pngComponent(dc, &s.Components[i], k)
	}
	for i := range s.Connections {
		pngConnection(dc, &s.Connections[i], k)
	}
	for i := range s.Strokes {
		pngPolyline(dc, s.Strokes[i].Points)
		dc.SetColor(colorOr(defaultStroke, defaultStroke))
		dc.SetLineWidth(2 * k)
		dc.Stroke()
	}

	large := dc.Image()
	if opts.Supersample == 1 {
		return large, nil
	}
	final := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(final, final.Bounds(), large, large.Bounds(), draw.Over, nil)
	return final, nil
}

func pngGrid(dc *gg.Context, s *diagram.State, bounds geom.Rect, k float64) {
	dc.SetColor(colorOr(s.GridColor, defaultGrid))
	dc.SetLineWidth(0.5 * k)
	right, bottom := bounds.X+bounds.W, bounds.Y+bounds.H
	for x := math.Floor(bounds.X/diagram.GridSize) * diagram.GridSize; x <= right; x += diagram.GridSize {
		dc.DrawLine(x, bounds.Y, x, bottom)
	}
	for y := math.Floor(bounds.Y/diagram.GridSize) * diagram.GridSize; y <= bottom; y += diagram.GridSize {
		dc.DrawLine(bounds.X, y, right, y)
	}
	dc.Stroke()
}

func pngComponent(dc *gg.Context, c *diagram.Component, k float64) {
	dc.Push()
	defer dc.Pop()
	dc.RotateAbout(gg.Radians(c.Rotation), c.X, c.Y)

	dc.DrawRectangle(c.X, c.Y, c.Width, c.Height)
	dc.SetColor(colorOr(componentFill(c), defaultLine))
	if diagram.IsLine(c.Kind) {
		dc.Fill()
		return
	}
	dc.FillPreserve()
	dc.SetColor(colorOr(defaultLine, defaultLine))
	dc.SetLineWidth(1 * k)
	dc.Stroke()

	center := c.Bounds().Center()
	dc.DrawStringAnchored(componentLabel(c), center.X, center.Y, 0.5, 0.5)
}

func pngConnection(dc *gg.Context, c *diagram.Connection, k float64) {
	col := colorOr(c.Color, defaultLine)
	dc.SetColor(col)
	dc.SetLineWidth(2 * k)

	if c.Kind == diagram.ConnCurve && len(c.Bends) == 2 {
		p := c.Path()
		dc.MoveTo(p[0].X, p[0].Y)
		dc.CubicTo(p[1].X, p[1].Y, p[2].X, p[2].Y, p[3].X, p[3].Y)
	} else {
		pngPolyline(dc, c.Path())
	}
	dc.Stroke()

	for _, head := range arrowHeads(c, polyline(c, 32)) {
		dc.MoveTo(head[0].X, head[0].Y)
		dc.LineTo(head[1].X, head[1].Y)
		dc.LineTo(head[2].X, head[2].Y)
		dc.ClosePath()
		dc.Fill()
	}
}

func pngPolyline(dc *gg.Context, pts []geom.Point) {
	for i, p := range pts {
		if i == 0 {
			dc.MoveTo(p.X, p.Y)
			continue
		}
		dc.LineTo(p.X, p.Y)
	}
}
