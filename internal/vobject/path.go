package vobject

import "github.com/inamate/motion/internal/geom"

// PathBuilder accumulates subpaths from line, quadratic, cubic and arc
// commands, converting everything to cubic segments.
type PathBuilder struct {
	subpaths []Subpath
	cur      Subpath
	start    geom.Point
	pen      geom.Point
}

// NewPathBuilder returns an empty builder with the pen at the origin.
func NewPathBuilder() *PathBuilder {
	return &PathBuilder{}
}

// Pen returns the current point.
func (b *PathBuilder) Pen() geom.Point {
	return b.pen
}

// MoveTo starts a new subpath at p.
func (b *PathBuilder) MoveTo(p geom.Point) *PathBuilder {
	b.flush()
	b.cur = Subpath{p}
	b.start, b.pen = p, p
	return b
}

func (b *PathBuilder) ensureStarted() {
	if len(b.cur) == 0 {
		b.cur = Subpath{b.pen}
		b.start = b.pen
	}
}

func (b *PathBuilder) appendCubic(c geom.CubicBezier) {
	b.ensureStarted()
	b.cur = append(b.cur, c.P1, c.P2, c.P3)
	b.pen = c.P3
}

// LineTo adds a straight segment to p.
func (b *PathBuilder) LineTo(p geom.Point) *PathBuilder {
	b.appendCubic(geom.LineCubic(b.pen, p))
	return b
}

// QuadTo adds a quadratic segment with control c, elevated to a cubic.
func (b *PathBuilder) QuadTo(c, p geom.Point) *PathBuilder {
	b.appendCubic(geom.QuadCubic(b.pen, c, p))
	return b
}

// CubicTo adds a cubic segment.
func (b *PathBuilder) CubicTo(c1, c2, p geom.Point) *PathBuilder {
	b.appendCubic(geom.CubicBezier{P0: b.pen, P1: c1, P2: c2, P3: p})
	return b
}

// ArcTo adds an SVG-style elliptical arc to p. rotation is in degrees.
func (b *PathBuilder) ArcTo(rx, ry, rotation float64, large, sweep bool, p geom.Point) *PathBuilder {
	for _, c := range geom.EndpointArcCubics(b.pen, rx, ry, rotation, large, sweep, p) {
		b.appendCubic(c)
	}
	return b
}

// Close draws a line back to the subpath start, if needed, and ends the subpath.
func (b *PathBuilder) Close() *PathBuilder {
	if len(b.cur) == 0 {
		return b
	}
	if !b.pen.ApproxEqual(b.start, geom.Epsilon) {
		b.LineTo(b.start)
	} else if len(b.cur) > 1 {
		b.cur[len(b.cur)-1] = b.start
	}
	b.flush()
	b.pen = b.start
	return b
}

func (b *PathBuilder) flush() {
	if len(b.cur) > 1 {
		b.subpaths = append(b.subpaths, b.cur)
	}
	b.cur = nil
}

// Subpaths ends the current subpath and returns everything built so far.
// Lone MoveTo points are dropped.
func (b *PathBuilder) Subpaths() []Subpath {
	b.flush()
	return b.subpaths
}

// Object returns a stroked object made of the built subpaths.
func (b *PathBuilder) Object() VectorObject {
	return FromSubpaths(b.Subpaths()...)
}
