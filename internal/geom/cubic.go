package geom

import (
	"slices"

	"honnef.co/go/curve"
)

// CubicBezierTuple is one cubic segment continuing from an implicit current
// point: two control points followed by the end anchor.
type CubicBezierTuple struct {
	C1  Point
	C2  Point
	End Point
}

// CubicBezier is a full cubic bezier segment.
type CubicBezier struct {
	P0 Point
	P1 Point
	P2 Point
	P3 Point
}

// Cubic completes the tuple with its start point.
func (c CubicBezierTuple) Cubic(start Point) CubicBezier {
	return CubicBezier{start, c.C1, c.C2, c.End}
}

// LineCubic returns a cubic that traces the straight line from a to b.
func LineCubic(a, b Point) CubicBezier {
	return CubicBezier{a, a.Lerp(b, 1.0/3), a.Lerp(b, 2.0/3), b}
}

// QuadCubic elevates the quadratic bezier (p0, c, p1) to an identical cubic.
func QuadCubic(p0, c, p1 Point) CubicBezier {
	return CubicBezier{
		P0: p0,
		P1: p0.Lerp(c, 2.0/3),
		P2: p1.Lerp(c, 2.0/3),
		P3: p1,
	}
}

// DegenerateCubic returns a zero-length cubic sitting at p.
func DegenerateCubic(p Point) CubicBezier {
	return CubicBezier{p, p, p, p}
}

// bez returns the curve in the form the curve package operates on.
func (c CubicBezier) bez() curve.CubicBez {
	return curve.CubicBez{
		P0: curve.Point(c.P0),
		P1: curve.Point(c.P1),
		P2: curve.Point(c.P2),
		P3: curve.Point(c.P3),
	}
}

func fromBez(b curve.CubicBez) CubicBezier {
	return CubicBezier{Point(b.P0), Point(b.P1), Point(b.P2), Point(b.P3)}
}

// Eval evaluates the curve at parameter t.
func (c CubicBezier) Eval(t float64) Point {
	return Point(c.bez().Eval(t))
}

// Subdivide splits the curve at t=0.5.
func (c CubicBezier) Subdivide() (CubicBezier, CubicBezier) {
	l, r := c.bez().Subdivide()
	return fromBez(l), fromBez(r)
}

// SplitAt splits the curve at t. Both halves retrace the original curve.
func (c CubicBezier) SplitAt(t float64) (CubicBezier, CubicBezier) {
	b := c.bez()
	left, right := fromBez(b.Subsegment(0, t)), fromBez(b.Subsegment(t, 1))
	// keep the shared anchor and the outer ends exact
	left.P0, right.P3 = c.P0, c.P3
	right.P0 = left.P3
	return left, right
}

// Subsegment returns the part of the curve between t0 and t1.
func (c CubicBezier) Subsegment(t0, t1 float64) CubicBezier {
	t0, t1 = Clamp(t0, 0, 1), Clamp(t1, 0, 1)
	if t0 <= 0 && t1 >= 1 {
		return c
	}
	if t1 <= t0 {
		return DegenerateCubic(c.Eval(t0))
	}
	return fromBez(c.bez().Subsegment(t0, t1))
}

// SplitN splits the curve into n pieces of equal parameter length.
func (c CubicBezier) SplitN(n int) []CubicBezier {
	if n <= 1 {
		return []CubicBezier{c}
	}
	out := make([]CubicBezier, n)
	for i := range n {
		out[i] = c.Subsegment(float64(i)/float64(n), float64(i+1)/float64(n))
	}
	return out
}

// Extrema returns the parameters in (0, 1) where the derivative of either
// coordinate vanishes, in increasing order.
func (c CubicBezier) Extrema() []float64 {
	ts, n := c.bez().Extrema()
	return slices.Clone(ts[:n])
}

// BoundingBox returns the tight bounding box of the curve.
func (c CubicBezier) BoundingBox() Rect {
	bb := c.bez().BoundingBox()
	return Rect{
		Min: Point{bb.MinX(), bb.MinY()},
		Max: Point{bb.MaxX(), bb.MaxY()},
	}
}

// Arclen approximates the arc length of the curve to within accuracy.
func (c CubicBezier) Arclen(accuracy float64) float64 {
	return c.bez().Arclen(accuracy)
}

// IsDegenerate reports whether all four points coincide.
func (c CubicBezier) IsDegenerate() bool {
	return c.P0.ApproxEqual(c.P1, Epsilon) &&
		c.P0.ApproxEqual(c.P2, Epsilon) &&
		c.P0.ApproxEqual(c.P3, Epsilon)
}

// Transform applies m to every control point.
func (c CubicBezier) Transform(m Matrix2D) CubicBezier {
	return CubicBezier{
		m.TransformPoint(c.P0),
		m.TransformPoint(c.P1),
		m.TransformPoint(c.P2),
		m.TransformPoint(c.P3),
	}
}
