// Geometric primitives shared by the diagram model, the router and the
// renderers. Everything here is a pure function of its arguments.

package geom

import "math"

// Point represents a 2D coordinate in scene space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p * k.
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned rectangle with a top-left origin.
type Rect struct {
	X, Y float64
	W, H float64
}

// Left, Top, Right and Bottom return the rectangle edges.
func (r Rect) Left() float64   { return r.X }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Center returns the centre of the rectangle.
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

// Inflate grows the rectangle by m on every side.
func (r Rect) Inflate(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, W: r.W + 2*m, H: r.H + 2*m}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left() && p.X <= r.Right() &&
		p.Y >= r.Top() && p.Y <= r.Bottom()
}

// Overlaps reports whether two rectangles overlap. Touching edges count.
func (r Rect) Overlaps(o Rect) bool {
	if r.Right() < o.Left() || r.Left() > o.Right() ||
		r.Bottom() < o.Top() || r.Top() > o.Bottom() {
		return false
	}
	return true
}

// BoundsOf returns the smallest rectangle containing all points.
func BoundsOf(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// SegmentBounds returns the bounding box of the segment a-b.
func SegmentBounds(a, b Point) Rect {
	return BoundsOf([]Point{a, b})
}

// SegmentClear reports whether the segment a-b stays clear of obstacle
// inflated by margin. The test is on the segment's bounding box, which is
// exact for the axis-aligned segments the router produces.
func SegmentClear(a, b Point, obstacle Rect, margin float64) bool {
	return !SegmentBounds(a, b).Overlaps(obstacle.Inflate(margin))
}

// PathClear reports whether every segment of path clears every obstacle.
func PathClear(path []Point, obstacles []Rect, margin float64) bool {
	for i := 0; i+1 < len(path); i++ {
		for _, obs := range obstacles {
			if !SegmentClear(path[i], path[i+1], obs, margin) {
				return false
			}
		}
	}
	return true
}

// Snap rounds v to the nearest multiple of step. Halves round up.
func Snap(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Floor(v/step+0.5) * step
}

// SnapPoint snaps both coordinates of p.
func SnapPoint(p Point, step float64) Point {
	return Point{Snap(p.X, step), Snap(p.Y, step)}
}

// Rotate rotates p around origin by deg degrees (clockwise in screen space,
// where y grows downwards).
func Rotate(p, origin Point, deg float64) Point {
	if deg == 0 {
		return p
	}
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	dx, dy := p.X-origin.X, p.Y-origin.Y
	return Point{
		X: origin.X + dx*cos - dy*sin,
		Y: origin.Y + dx*sin + dy*cos,
	}
}

// RotatedBounds returns the axis-aligned bounds of r after rotating it by
// deg degrees around its top-left corner.
func RotatedBounds(r Rect, deg float64) Rect {
	if math.Mod(deg, 360) == 0 {
		return r
	}
	o := Point{r.X, r.Y}
	return BoundsOf([]Point{
		o,
		Rotate(Point{r.Right(), r.Y}, o, deg),
		Rotate(Point{r.Right(), r.Bottom()}, o, deg),
		Rotate(Point{r.X, r.Bottom()}, o, deg),
	})
}

// NormalizeDegrees maps deg into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
