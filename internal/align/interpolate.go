package align

import (
	"cmp"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/vobject"
)

// Interpolate returns the state between aligned trees a (t=0) and b (t=1).
// Points, styles, stroke width and opacities interpolate; line cap, line
// join and fill rule switch to b's past the midpoint. Index and Name come
// from a.
//
// Node pairs that turn out not to be aligned are aligned on the spot with
// DefaultFallback, so the result is always defined.
func Interpolate(a, b vobject.VectorObject, t float64) vobject.VectorObject {
	if !sameShape(a, b) {
		a, b = Align(a, b, DefaultFallback(a, b))
	}
	return interpolate(a, b, t)
}

func interpolate(a, b vobject.VectorObject, t float64) vobject.VectorObject {
	out := a
	if len(a.Subpaths) > 0 {
		out.Subpaths = make([]vobject.Subpath, len(a.Subpaths))
		for i, sa := range a.Subpaths {
			sb := b.Subpaths[i]
			s := make(vobject.Subpath, len(sa))
			for j := range sa {
				s[j] = sa[j].Lerp(sb[j], t)
			}
			out.Subpaths[i] = s
		}
	}
	out.Fill = style.Lerp(a.Fill, b.Fill, t)
	out.Stroke = style.Lerp(a.Stroke, b.Stroke, t)
	out.StrokeWidth = geom.Lerp(a.StrokeWidth, b.StrokeWidth, t)
	out.FillOpacity = geom.Lerp(a.FillOpacity, b.FillOpacity, t)
	out.StrokeOpacity = geom.Lerp(a.StrokeOpacity, b.StrokeOpacity, t)
	out.LineCap = discrete(a.LineCap, b.LineCap, t)
	out.LineJoin = discrete(a.LineJoin, b.LineJoin, t)
	out.FillRule = discrete(a.FillRule, b.FillRule, t)
	if len(a.Subobjects) > 0 {
		out.Subobjects = make([]vobject.VectorObject, len(a.Subobjects))
		for i := range a.Subobjects {
			out.Subobjects[i] = interpolate(a.Subobjects[i], b.Subobjects[i], t)
		}
	}
	return out
}

// discrete picks a below the midpoint and b above it. At exactly 0.5 the
// larger value wins, so swapping a and b with t and 1-t gives the same pick.
func discrete[T cmp.Ordered](a, b T, t float64) T {
	switch {
	case t < 0.5:
		return a
	case t > 0.5:
		return b
	}
	return max(a, b)
}

// sameShape reports whether a and b have identical structure all the way down.
func sameShape(a, b vobject.VectorObject) bool {
	if len(a.Subpaths) != len(b.Subpaths) || len(a.Subobjects) != len(b.Subobjects) {
		return false
	}
	for i := range a.Subpaths {
		if len(a.Subpaths[i]) != len(b.Subpaths[i]) {
			return false
		}
	}
	for i := range a.Subobjects {
		if !sameShape(a.Subobjects[i], b.Subobjects[i]) {
			return false
		}
	}
	return true
}

// IsAligned reports whether a and b can be interpolated without alignment.
func IsAligned(a, b vobject.VectorObject) bool {
	return sameShape(a, b)
}
