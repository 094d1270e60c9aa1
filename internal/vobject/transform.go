package vobject

import (
	"github.com/inamate/motion/internal/geom"
)

// Transforms derive their parameters (centers, deltas) from the whole
// subtree, then apply the same parameters to each affected node's absolute
// points. With recursive unset only the node's own points move.

// Shift translates by d.
func (o VectorObject) Shift(d geom.Point, recursive bool) VectorObject {
	return o.ApplyMatrix(geom.Translate(d.X, d.Y), recursive)
}

// MoveTo shifts the object so that its center lands on p.
func (o VectorObject) MoveTo(p geom.Point, recursive bool) VectorObject {
	return o.Shift(p.Sub(o.Center()), recursive)
}

// MoveToAligned shifts the object so that its critical point selected by
// edge lands on p.
func (o VectorObject) MoveToAligned(p, edge geom.Point, recursive bool) VectorObject {
	edge = edge.Sign()
	return o.Shift(p.Sub(o.CriticalPoint(int(edge.X), int(edge.Y))), recursive)
}

// Scale scales by f about the center of the subtree.
func (o VectorObject) Scale(f float64, recursive bool) VectorObject {
	return o.ScaleAbout(f, o.Center(), recursive)
}

// ScaleAbout scales by f about p.
func (o VectorObject) ScaleAbout(f float64, p geom.Point, recursive bool) VectorObject {
	return o.ApplyMatrix(geom.Scale(f, f).About(p), recursive)
}

// Stretch scales each axis independently about the center.
func (o VectorObject) Stretch(fx, fy float64, recursive bool) VectorObject {
	return o.ApplyMatrix(geom.Scale(fx, fy).About(o.Center()), recursive)
}

// StretchToFit stretches the object to the given size; a zero target leaves
// that axis alone.
func (o VectorObject) StretchToFit(width, height float64, recursive bool) VectorObject {
	fx, fy := 1.0, 1.0
	if w := o.Width(); width > 0 && w > 0 {
		fx = width / w
	}
	if h := o.Height(); height > 0 && h > 0 {
		fy = height / h
	}
	return o.Stretch(fx, fy, recursive)
}

// ScaleToWidth scales uniformly until the width is w.
func (o VectorObject) ScaleToWidth(w float64, recursive bool) VectorObject {
	cur := o.Width()
	if cur == 0 {
		return o
	}
	return o.Scale(w/cur, recursive)
}

// ScaleToHeight scales uniformly until the height is h.
func (o VectorObject) ScaleToHeight(h float64, recursive bool) VectorObject {
	cur := o.Height()
	if cur == 0 {
		return o
	}
	return o.Scale(h/cur, recursive)
}

// Rotate rotates by angle radians about the center. Positive angles turn
// clockwise on screen, since y grows downwards.
func (o VectorObject) Rotate(angle float64, recursive bool) VectorObject {
	return o.RotateAbout(angle, o.Center(), recursive)
}

// RotateAbout rotates by angle radians about p.
func (o VectorObject) RotateAbout(angle float64, p geom.Point, recursive bool) VectorObject {
	return o.ApplyMatrix(geom.Rotate(angle).About(p), recursive)
}

// FlipHorizontal mirrors the object across its vertical center line.
func (o VectorObject) FlipHorizontal(recursive bool) VectorObject {
	return o.Stretch(-1, 1, recursive)
}
