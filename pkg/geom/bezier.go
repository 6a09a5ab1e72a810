package geom

// CubicBezier evaluates the cubic Bézier p0..p3 at parameter t.
func CubicBezier(p0, p1, p2, p3 Point, t float64) Point {
	mt := 1 - t
	mt2 := mt * mt
	mt3 := mt2 * mt
	t2 := t * t
	t3 := t2 * t

	return Point{
		X: mt3*p0.X + 3*mt2*t*p1.X + 3*mt*t2*p2.X + t3*p3.X,
		Y: mt3*p0.Y + 3*mt2*t*p1.Y + 3*mt*t2*p2.Y + t3*p3.Y,
	}
}

// SampleCubic flattens a cubic Bézier into n+1 points, endpoints included.
func SampleCubic(p0, p1, p2, p3 Point, n int) []Point {
	if n < 1 {
		n = 1
	}
	out := make([]Point, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, CubicBezier(p0, p1, p2, p3, float64(i)/float64(n)))
	}
	return out
}

// SeedControls returns default control points for a curve from s to e:
// at one and two thirds of the chord, pushed out along the chord normal
// by a quarter of its length.
func SeedControls(s, e Point) (Point, Point) {
	d := e.Sub(s)
	length := s.Dist(e)
	if length == 0 {
		return s, e
	}
	n := Point{-d.Y / length, d.X / length}.Scale(length / 4)
	c1 := s.Add(d.Scale(1.0 / 3)).Add(n)
	c2 := s.Add(d.Scale(2.0 / 3)).Add(n)
	return c1, c2
}

// DistToSegment returns the distance from p to the segment a-b.
func DistToSegment(p, a, b Point) float64 {
	d := b.Sub(a)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*d.X + (p.Y-a.Y)*d.Y) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Dist(a.Add(d.Scale(t)))
}

// DistToPolyline returns the distance from p to the nearest segment of path.
func DistToPolyline(p Point, path []Point) float64 {
	if len(path) == 1 {
		return p.Dist(path[0])
	}
	best := -1.0
	for i := 0; i+1 < len(path); i++ {
		d := DistToSegment(p, path[i], path[i+1])
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}
