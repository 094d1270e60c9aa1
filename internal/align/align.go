// Package align makes two vector object trees structurally identical and
// interpolates between them.
//
// Alignment is a pure rewrite pass: Align returns two new trees with the same
// child counts, subpath counts and segment counts at every node. Padding is
// always appended at the end of the shorter list, so aligning the same two
// inputs is reproducible.
package align

import (
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/vobject"
)

// DefaultFallback returns the point where placeholder geometry is created
// when aligning a against b: the center of whichever side has geometry, or
// the midpoint of both centers. It is symmetric in a and b.
func DefaultFallback(a, b vobject.VectorObject) geom.Point {
	ra, okA := a.Bounds()
	rb, okB := b.Bounds()
	switch {
	case okA && okB:
		return ra.Center().Lerp(rb.Center(), 0.5)
	case okA:
		return ra.Center()
	case okB:
		return rb.Center()
	default:
		return geom.Origin
	}
}

// Align aligns children and then points of a and b.
func Align(a, b vobject.VectorObject, fallback geom.Point) (vobject.VectorObject, vobject.VectorObject) {
	a, b = AlignSubobjects(a, b, fallback)
	return AlignPoints(a, b, fallback)
}

// AlignSubobjects pads the shorter child list of every node pair with
// placeholders until both trees have the same shape.
func AlignSubobjects(a, b vobject.VectorObject, fallback geom.Point) (vobject.VectorObject, vobject.VectorObject) {
	na, nb := len(a.Subobjects), len(b.Subobjects)
	if na == 0 && nb == 0 {
		return a, b
	}
	n := max(na, nb)
	ca := make([]vobject.VectorObject, n)
	cb := make([]vobject.VectorObject, n)
	for i := range n {
		switch {
		case i >= na:
			ca[i], cb[i] = Placeholder(b.Subobjects[i]), b.Subobjects[i]
		case i >= nb:
			ca[i], cb[i] = a.Subobjects[i], Placeholder(a.Subobjects[i])
		default:
			ca[i], cb[i] = a.Subobjects[i], b.Subobjects[i]
		}
		ca[i], cb[i] = AlignSubobjects(ca[i], cb[i], fallback)
	}
	a.Subobjects, b.Subobjects = ca, cb
	return a, b
}

// Placeholder returns an empty stand-in for counterpart: no geometry, no
// children, and counterpart's styling at zero opacity, so that morphing into
// counterpart fades its paint in.
func Placeholder(counterpart vobject.VectorObject) vobject.VectorObject {
	p := counterpart
	p.Subpaths = nil
	p.Subobjects = nil
	p.FillOpacity = 0
	p.StrokeOpacity = 0
	return p
}

// AlignPoints equalizes subpath and segment counts at every node pair that
// exists in both trees. Trees whose child lists differ should go through
// AlignSubobjects first; surplus children are left untouched.
func AlignPoints(a, b vobject.VectorObject, fallback geom.Point) (vobject.VectorObject, vobject.VectorObject) {
	a.Subpaths, b.Subpaths = alignSubpaths(a, b, fallback)
	n := min(len(a.Subobjects), len(b.Subobjects))
	if n == 0 {
		return a, b
	}
	ca := append([]vobject.VectorObject(nil), a.Subobjects...)
	cb := append([]vobject.VectorObject(nil), b.Subobjects...)
	for i := range n {
		ca[i], cb[i] = AlignPoints(ca[i], cb[i], fallback)
	}
	a.Subobjects, b.Subobjects = ca, cb
	return a, b
}

// ownAnchor is where padding subpaths of o are placed: the center of its own
// geometry, or fallback when it has none.
func ownAnchor(o vobject.VectorObject, fallback geom.Point) geom.Point {
	if !o.HasPoints() {
		return fallback
	}
	var r geom.Rect
	first := true
	for _, s := range o.Subpaths {
		for _, p := range s {
			if first {
				r, first = geom.Rect{Min: p, Max: p}, false
				continue
			}
			r = r.Expand(p)
		}
	}
	return r.Center()
}

func alignSubpaths(a, b vobject.VectorObject, fallback geom.Point) ([]vobject.Subpath, []vobject.Subpath) {
	na, nb := len(a.Subpaths), len(b.Subpaths)
	if na == 0 && nb == 0 {
		return a.Subpaths, b.Subpaths
	}
	n := max(na, nb)
	pa := padSubpaths(a.Subpaths, n, ownAnchor(a, fallback))
	pb := padSubpaths(b.Subpaths, n, ownAnchor(b, fallback))
	for i := range n {
		pa[i], pb[i] = alignSegments(pa[i], pb[i])
	}
	return pa, pb
}

// padSubpaths copies subpaths and appends single-point subpaths at p until
// there are n. Empty subpaths become single points at p too, and trailing
// points that do not complete a segment are dropped.
func padSubpaths(subpaths []vobject.Subpath, n int, p geom.Point) []vobject.Subpath {
	out := make([]vobject.Subpath, n)
	copy(out, subpaths)
	for i, s := range out {
		switch {
		case len(s) == 0:
			out[i] = vobject.Subpath{p}
		case (len(s)-1)%3 != 0:
			out[i] = s[:1+3*s.NumSegments()]
		}
	}
	return out
}

// alignSegments gives the subpath with fewer segments more of them by
// splitting its existing segments, so both trace the same curves as before.
func alignSegments(a, b vobject.Subpath) (vobject.Subpath, vobject.Subpath) {
	na, nb := a.NumSegments(), b.NumSegments()
	switch {
	case na == nb && len(a) == len(b):
		return a, b
	case na < nb:
		return insertSegments(a, nb), b
	default:
		return a, insertSegments(b, na)
	}
}

// insertSegments returns s split into exactly n segments. Segment i of the
// original receives one piece for every j in [0, n) with j*len/n == i, so
// extra pieces are spread evenly along the path.
func insertSegments(s vobject.Subpath, n int) vobject.Subpath {
	have := s.NumSegments()
	if have == 0 {
		p := s[0]
		out := make(vobject.Subpath, 1+3*n)
		for i := range out {
			out[i] = p
		}
		return out
	}
	counts := make([]int, have)
	for j := range n {
		counts[j*have/n]++
	}
	segs := make([]geom.CubicBezier, 0, n)
	for i, c := range counts {
		segs = append(segs, s.Segment(i).SplitN(c)...)
	}
	return vobject.SubpathFromSegments(segs)
}
