package vobject

import "github.com/inamate/motion/internal/geom"

// NextTo places o beside other along direction, buff units away. alignedEdge
// picks which edge of o lines up with the matching edge of other on the
// perpendicular axis; the zero point centers them. The result depends only
// on the bounding boxes, not on where o was before.
func (o VectorObject) NextTo(other VectorObject, direction geom.Point, buff float64, alignedEdge geom.Point, recursive bool) VectorObject {
	key := alignedEdge.Add(direction).Sign()
	target := other.BoundingBox().Corner(key.X, key.Y)
	return o.nextToPoint(target, direction, buff, alignedEdge, recursive)
}

// NextToPoint places o beside p along direction, buff units away.
func (o VectorObject) NextToPoint(p, direction geom.Point, buff float64, alignedEdge geom.Point, recursive bool) VectorObject {
	return o.nextToPoint(p, direction, buff, alignedEdge, recursive)
}

func (o VectorObject) nextToPoint(target, direction geom.Point, buff float64, alignedEdge geom.Point, recursive bool) VectorObject {
	key := alignedEdge.Sub(direction).Sign()
	from := o.BoundingBox().Corner(key.X, key.Y)
	return o.Shift(target.Sub(from).Add(direction.Mul(buff)), recursive)
}

// AlignTo shifts o along the axes selected by edge so that its edge matches
// the same edge of other.
func (o VectorObject) AlignTo(other VectorObject, edge geom.Point, recursive bool) VectorObject {
	edge = edge.Sign()
	target := other.BoundingBox().Corner(edge.X, edge.Y)
	from := o.BoundingBox().Corner(edge.X, edge.Y)
	d := target.Sub(from)
	if edge.X == 0 {
		d.X = 0
	}
	if edge.Y == 0 {
		d.Y = 0
	}
	return o.Shift(d, recursive)
}

// ArrangeSubobjects lays the children out one after another along direction
// with buff spacing, in order, and keeps the group's center where it was.
// recursive controls whether each child's own descendants move with it.
func (o VectorObject) ArrangeSubobjects(direction geom.Point, buff float64, alignedEdge geom.Point, recursive bool) VectorObject {
	if len(o.Subobjects) == 0 {
		return o
	}
	center := o.Center()
	children := make([]VectorObject, len(o.Subobjects))
	children[0] = o.Subobjects[0]
	for i := 1; i < len(children); i++ {
		children[i] = o.Subobjects[i].NextTo(children[i-1], direction, buff, alignedEdge, recursive)
	}
	o.Subobjects = children
	return o.Shift(center.Sub(o.Center()), true)
}
