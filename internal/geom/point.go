package geom

import "math"

// Epsilon is the tolerance used when comparing coordinates for equality,
// e.g. when deciding whether a subpath is closed.
const Epsilon = 1e-9

// Point is a 2D coordinate. It is used both as a position and as a vector.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Common direction vectors. Y grows downwards, as on a canvas.
var (
	Origin = Point{}
	Left   = Point{X: -1}
	Right  = Point{X: 1}
	Up     = Point{Y: -1}
	Down   = Point{Y: 1}
)

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Mul(f float64) Point { return Point{p.X * f, p.Y * f} }
func (p Point) Neg() Point          { return Point{-p.X, -p.Y} }
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// Hypot returns the length of p as a vector.
func (p Point) Hypot() float64 {
	return math.Hypot(p.X, p.Y)
}

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return q.Sub(p).Hypot()
}

// Lerp linearly interpolates between p (t=0) and q (t=1). Both ends are
// reproduced exactly.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{Lerp(p.X, q.X, t), Lerp(p.Y, q.Y, t)}
}

// Rotate rotates p by angle radians around about.
func (p Point) Rotate(angle float64, about Point) Point {
	sin, cos := math.Sincos(angle)
	d := p.Sub(about)
	return Point{
		X: about.X + d.X*cos - d.Y*sin,
		Y: about.Y + d.X*sin + d.Y*cos,
	}
}

// ApproxEqual reports whether p and q are within eps of each other on both axes.
func (p Point) ApproxEqual(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// Sign returns p with each component replaced by -1, 0 or 1.
func (p Point) Sign() Point {
	return Point{sign(p.X), sign(p.Y)}
}

func sign(v float64) float64 {
	switch {
	case v > Epsilon:
		return 1
	case v < -Epsilon:
		return -1
	default:
		return 0
	}
}

// Lerp linearly interpolates between two scalars, returning exactly a at
// t=0 and exactly b at t=1.
func Lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
