package vobject

import (
	"math"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/style"
)

// kappa is the control point distance for a quarter circle of radius 1:
// 4 * (sqrt(2) - 1) / 3.
const kappa = 0.5522847498

// DefaultDotRadius is the radius used by Dot.
var DefaultDotRadius = 6.0

// Ellipse returns a closed ellipse centered at the origin, starting at the
// rightmost point.
func Ellipse(rx, ry float64) VectorObject {
	kx, ky := rx*kappa, ry*kappa
	return NewPathBuilder().
		MoveTo(geom.Pt(rx, 0)).
		CubicTo(geom.Pt(rx, ky), geom.Pt(kx, ry), geom.Pt(0, ry)).
		CubicTo(geom.Pt(-kx, ry), geom.Pt(-rx, ky), geom.Pt(-rx, 0)).
		CubicTo(geom.Pt(-rx, -ky), geom.Pt(-kx, -ry), geom.Pt(0, -ry)).
		CubicTo(geom.Pt(kx, -ry), geom.Pt(rx, -ky), geom.Pt(rx, 0)).
		Close().
		Object()
}

// Circle returns a circle of the given radius centered at the origin.
func Circle(radius float64) VectorObject {
	return Ellipse(radius, radius)
}

// Arc returns an open circular arc around the origin from angle start,
// sweeping by angle radians.
func Arc(radius, start, angle float64) VectorObject {
	segs := geom.ArcCubics(geom.Origin, radius, radius, 0, start, angle)
	return FromSubpaths(SubpathFromSegments(segs))
}

// Dot returns a small filled circle centered at p.
func Dot(p geom.Point, c style.Color) VectorObject {
	return Circle(DefaultDotRadius).
		MoveTo(p, false).
		SetFill(style.Solid(c), false).
		SetStrokeWidth(0, false)
}

// Polygon returns a closed polygon through vertices.
func Polygon(vertices ...geom.Point) VectorObject {
	if len(vertices) == 0 {
		return New()
	}
	b := NewPathBuilder().MoveTo(vertices[0])
	for _, v := range vertices[1:] {
		b.LineTo(v)
	}
	return b.Close().Object()
}

// Polyline returns an open path through vertices.
func Polyline(vertices ...geom.Point) VectorObject {
	if len(vertices) == 0 {
		return New()
	}
	b := NewPathBuilder().MoveTo(vertices[0])
	for _, v := range vertices[1:] {
		b.LineTo(v)
	}
	return b.Object()
}

// RegularPolygon returns an n-gon inscribed in a circle of radius around the
// origin, with its first vertex straight up.
func RegularPolygon(n int, radius float64) VectorObject {
	if n < 3 {
		return New()
	}
	vertices := make([]geom.Point, n)
	for i := range vertices {
		a := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		vertices[i] = geom.Pt(radius*math.Cos(a), radius*math.Sin(a))
	}
	return Polygon(vertices...)
}

// Rectangle returns a width x height rectangle centered at the origin.
func Rectangle(width, height float64) VectorObject {
	w, h := width/2, height/2
	return Polygon(geom.Pt(-w, -h), geom.Pt(w, -h), geom.Pt(w, h), geom.Pt(-w, h))
}

// Square returns a square centered at the origin.
func Square(side float64) VectorObject {
	return Rectangle(side, side)
}

// RoundedRectangle returns a rectangle centered at the origin whose corners
// are quarter circles of radius r.
func RoundedRectangle(width, height, r float64) VectorObject {
	w, h := width/2, height/2
	r = min(r, w, h)
	if r <= 0 {
		return Rectangle(width, height)
	}
	k := r * kappa
	return NewPathBuilder().
		MoveTo(geom.Pt(-w+r, -h)).
		LineTo(geom.Pt(w-r, -h)).
		CubicTo(geom.Pt(w-r+k, -h), geom.Pt(w, -h+r-k), geom.Pt(w, -h+r)).
		LineTo(geom.Pt(w, h-r)).
		CubicTo(geom.Pt(w, h-r+k), geom.Pt(w-r+k, h), geom.Pt(w-r, h)).
		LineTo(geom.Pt(-w+r, h)).
		CubicTo(geom.Pt(-w+r-k, h), geom.Pt(-w, h-r+k), geom.Pt(-w, h-r)).
		LineTo(geom.Pt(-w, -h+r)).
		CubicTo(geom.Pt(-w, -h+r-k), geom.Pt(-w+r-k, -h), geom.Pt(-w+r, -h)).
		Close().
		Object()
}

// Line returns a straight segment from a to b.
func Line(a, b geom.Point) VectorObject {
	return NewPathBuilder().MoveTo(a).LineTo(b).Object()
}

// DashedLine returns a group of dashes from a to b. dashLength is the length
// of one dash; ratio is the fraction of each dash period that is drawn.
func DashedLine(a, b geom.Point, dashLength, ratio float64) VectorObject {
	length := a.Dist(b)
	if length == 0 || dashLength <= 0 {
		return Group(Line(a, b))
	}
	ratio = geom.Clamp(ratio, 0, 1)
	period := dashLength / max(ratio, geom.Epsilon)
	n := max(1, int(math.Round(length/period)))
	var dashes []VectorObject
	for i := range n {
		t0 := float64(i) / float64(n)
		t1 := t0 + ratio/float64(n)
		dashes = append(dashes, Line(a.Lerp(b, t0), a.Lerp(b, t1)))
	}
	return Group(dashes...)
}

// ArrowTip returns a filled triangular tip whose point is at tip, facing
// along direction.
func ArrowTip(tip, direction geom.Point, length float64) VectorObject {
	d := direction.Hypot()
	if d == 0 {
		direction, d = geom.Right, 1
	}
	u := direction.Mul(1 / d)
	n := geom.Pt(-u.Y, u.X)
	base := tip.Sub(u.Mul(length))
	half := length / 2
	return Polygon(tip, base.Add(n.Mul(half)), base.Sub(n.Mul(half))).
		SetFill(DefaultStroke, false).
		SetStrokeWidth(0, false).
		SetName("tip")
}

// Arrow returns a group holding a shaft from a to b and a tip at b. The
// shaft stops at the tip's base.
func Arrow(a, b geom.Point, tipLength float64) VectorObject {
	dir := b.Sub(a)
	length := dir.Hypot()
	tipLength = min(tipLength, length)
	shaftEnd := b
	if length > 0 {
		shaftEnd = b.Sub(dir.Mul(tipLength / length))
	}
	shaft := Line(a, shaftEnd).SetName("shaft")
	return Group(shaft, ArrowTip(b, dir, tipLength)).SetName("arrow")
}
