// Package animation is a catalog of pure animation functions: each maps an
// object as it was when the animation started, plus progress t in [0, 1], to
// the object's state at that progress.
//
// Any function with the Func signature can be played; the catalog has no
// special status.
package animation

import (
	"errors"
	"fmt"
	"slices"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/vobject"
)

// ErrUnknown is returned by Lookup for unregistered names.
var ErrUnknown = errors.New("unknown animation")

// Func animates one object.
type Func func(obj vobject.VectorObject, t float64) vobject.VectorObject

// MultiFunc animates several objects together and must return exactly one
// object per input, in the same order.
type MultiFunc func(objs []vobject.VectorObject, t float64) []vobject.VectorObject

// GroupWindow returns the local progress of sub-animation i of n in a
// staggered group at overall progress t.
//
// Sub-animation i runs on [i*s, i*s+L] with s = lagRatio/n and
// L = 1 - lagRatio*(n-1)/n, so the last one ends exactly at t = 1. Local
// progress is clamped to [0, 1] and is exactly 0 at the window start.
// lagRatio 0 plays everything in unison; 1 plays strictly one after another.
func GroupWindow(i, n int, lagRatio, t float64) float64 {
	if n <= 1 {
		return t
	}
	if t >= 1 {
		return 1
	}
	lagRatio = geom.Clamp(lagRatio, 0, 1)
	if lagRatio == 0 {
		return t
	}
	fn := float64(n)
	s := lagRatio / fn
	l := 1 - lagRatio*(fn-1)/fn
	return geom.Clamp((t-float64(i)*s)/l, 0, 1)
}

// Group applies funcs to the children of obj with a staggered schedule.
// Child i gets funcs[i]; when there are fewer funcs than children the last
// one is reused. A childless object gets funcs[0] unstaggered.
func Group(lagRatio float64, funcs ...Func) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		if len(funcs) == 0 {
			return obj
		}
		n := len(obj.Subobjects)
		if n == 0 {
			return funcs[0](obj, t)
		}
		children := make([]vobject.VectorObject, n)
		for i, c := range obj.Subobjects {
			f := funcs[min(i, len(funcs)-1)]
			children[i] = f(c, GroupWindow(i, n, lagRatio, t))
		}
		obj.Subobjects = children
		return obj
	}
}

// Compose runs funcs one after another at the same t.
func Compose(funcs ...Func) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		for _, f := range funcs {
			obj = f(obj, t)
		}
		return obj
	}
}

// WithRate reshapes t before handing it to f.
func WithRate(f Func, rate func(float64) float64) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		return f(obj, rate(t))
	}
}

// Each applies f to every object at the same t.
func Each(f Func) MultiFunc {
	return func(objs []vobject.VectorObject, t float64) []vobject.VectorObject {
		out := make([]vobject.VectorObject, len(objs))
		for i, o := range objs {
			out[i] = f(o, t)
		}
		return out
	}
}

// Lagged applies f to every object with a staggered schedule.
func Lagged(lagRatio float64, f Func) MultiFunc {
	return func(objs []vobject.VectorObject, t float64) []vobject.VectorObject {
		out := make([]vobject.VectorObject, len(objs))
		for i, o := range objs {
			out[i] = f(o, GroupWindow(i, len(objs), lagRatio, t))
		}
		return out
	}
}

// Parallel applies funcs[i] to objs[i]. It returns one object per pair, so
// a count mismatch surfaces as a cardinality error in the scene.
func Parallel(funcs ...Func) MultiFunc {
	return func(objs []vobject.VectorObject, t float64) []vobject.VectorObject {
		n := min(len(funcs), len(objs))
		out := make([]vobject.VectorObject, n)
		for i := range n {
			out[i] = funcs[i](objs[i], t)
		}
		return out
	}
}

// Sequence plays funcs back to back, each for an equal share of t, on
// the same object. Sub-animation i starts from the output of i-1 at its end.
func Sequence(funcs ...Func) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		n := len(funcs)
		for i, f := range funcs {
			local := GroupWindow(i, n, 1, t)
			obj = f(obj, local)
			if local < 1 {
				break
			}
		}
		return obj
	}
}

var registry = map[string]func() Func{
	"fadeIn":             func() Func { return FadeIn(1, geom.Origin) },
	"fadeOut":            func() Func { return FadeOut(1, geom.Origin) },
	"create":             func() Func { return Create },
	"uncreate":           func() Func { return Uncreate },
	"drawStrokeThenFill": func() Func { return DrawStrokeThenFill },
	"write":              func() Func { return Write(DefaultWriteLag) },
	"growFromCenter":     func() Func { return GrowFromCenter },
	"spinningGrow":       func() Func { return SpinningGrow(DefaultSpinAngle) },
	"growArrow":          func() Func { return GrowArrowWithFinalTip },
	"showTemporarily":    func() Func { return ShowTemporarily(DefaultVisibleFraction) },
	"indicate":           func() Func { return Indicate(DefaultIndicateScale, DefaultIndicateColor) },
}

// Lookup returns a catalog animation with its default parameters.
func Lookup(name string) (Func, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return ctor(), nil
}

// Names returns the registered names, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
