package vobject

import (
	"fmt"

	"github.com/inamate/motion/internal/geom"
)

// ownBounds returns the tight bounds of the node's own segments.
func (o VectorObject) ownBounds() (geom.Rect, bool) {
	var r geom.Rect
	ok := false
	merge := func(b geom.Rect) {
		if !ok {
			r, ok = b, true
			return
		}
		r = r.Union(b)
	}
	for _, s := range o.Subpaths {
		switch {
		case len(s) == 0:
		case s.NumSegments() == 0:
			merge(geom.Rect{Min: s[0], Max: s[0]})
		default:
			for i := range s.NumSegments() {
				merge(s.Segment(i).BoundingBox())
			}
		}
	}
	return r, ok
}

// Bounds returns the merged bounding box of the subtree. ok is false when no
// node carries geometry.
func (o VectorObject) Bounds() (r geom.Rect, ok bool) {
	r, ok = o.ownBounds()
	for _, c := range o.Subobjects {
		cb, cok := c.Bounds()
		if !cok {
			continue
		}
		if !ok {
			r, ok = cb, true
			continue
		}
		r = r.Union(cb)
	}
	return r, ok
}

// BoundingBox returns the merged bounding box of the subtree, or the zero
// Rect at the origin when the subtree is empty.
func (o VectorObject) BoundingBox() geom.Rect {
	r, _ := o.Bounds()
	return r
}

// CriticalPoint returns the bounding-box point selected by keys in {-1, 0, 1}
// per axis: -1 is the left/top edge, 1 the right/bottom edge, 0 the middle.
// Keys outside that set are a programming error and panic.
func (o VectorObject) CriticalPoint(keyX, keyY int) geom.Point {
	if keyX < -1 || keyX > 1 || keyY < -1 || keyY > 1 {
		panic(fmt.Sprintf("vobject: critical point key out of range: (%d, %d)", keyX, keyY))
	}
	return o.BoundingBox().Corner(float64(keyX), float64(keyY))
}

// Center returns the bounding-box center.
func (o VectorObject) Center() geom.Point {
	return o.BoundingBox().Center()
}

func (o VectorObject) Width() float64  { return o.BoundingBox().Width() }
func (o VectorObject) Height() float64 { return o.BoundingBox().Height() }

func (o VectorObject) Left() geom.Point   { return o.CriticalPoint(-1, 0) }
func (o VectorObject) Right() geom.Point  { return o.CriticalPoint(1, 0) }
func (o VectorObject) Top() geom.Point    { return o.CriticalPoint(0, -1) }
func (o VectorObject) Bottom() geom.Point { return o.CriticalPoint(0, 1) }

// CenterOfMass returns the mean of all anchor points in the subtree, so dense
// regions pull it towards themselves. Empty objects report the origin.
func (o VectorObject) CenterOfMass() geom.Point {
	anchors := o.Anchors()
	if len(anchors) == 0 {
		return geom.Origin
	}
	var sum geom.Point
	for _, p := range anchors {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(anchors)))
}

// Points returns every point of the subtree, handles included, in pre-order.
func (o VectorObject) Points() []geom.Point {
	var out []geom.Point
	for _, n := range o.Family() {
		for _, s := range n.Subpaths {
			out = append(out, s...)
		}
	}
	return out
}

// Anchors returns every on-curve point of the subtree.
func (o VectorObject) Anchors() []geom.Point {
	var out []geom.Point
	for _, n := range o.Family() {
		for _, s := range n.Subpaths {
			out = append(out, s.Anchors()...)
		}
	}
	return out
}

// NumPoints returns the number of points on the node itself.
func (o VectorObject) NumPoints() int {
	n := 0
	for _, s := range o.Subpaths {
		n += len(s)
	}
	return n
}

// IsClosed reports whether the node has geometry and every own subpath is closed.
func (o VectorObject) IsClosed() bool {
	if !o.HasPoints() {
		return false
	}
	for _, s := range o.Subpaths {
		if len(s) > 0 && !s.IsClosed() {
			return false
		}
	}
	return true
}

// arclenAccuracy is the tolerance used for path length computations.
const arclenAccuracy = 1e-4

// OwnLength returns the arc length of the node's own subpaths.
func (o VectorObject) OwnLength() float64 {
	total := 0.0
	for _, s := range o.Subpaths {
		for i := range s.NumSegments() {
			total += s.Segment(i).Arclen(arclenAccuracy)
		}
	}
	return total
}

// Length returns the arc length of the whole subtree.
func (o VectorObject) Length() float64 {
	total := o.OwnLength()
	for _, c := range o.Subobjects {
		total += c.Length()
	}
	return total
}
