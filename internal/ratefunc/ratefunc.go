// Package ratefunc holds easing curves that reshape linear progress.
//
// Standard curves satisfy f(0) == 0 and f(1) == 1 exactly. The oscillating
// and holding curves (ThereAndBack, ThereAndBackWithPause, Wiggle,
// Lingering, ExponentialDecay, NotQuiteThere) deliberately do not.
package ratefunc

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrUnknown is returned by Lookup for names that are not registered.
var ErrUnknown = errors.New("unknown rate function")

// Func maps linear progress to eased progress.
type Func func(t float64) float64

// boundary clamps the domain of standard curves and reports the exact
// value at and beyond either end.
func boundary(t float64) (float64, bool) {
	switch {
	case t <= 0:
		return 0, true
	case t >= 1:
		return 1, true
	}
	return 0, false
}

// pinned wraps f with boundary.
func pinned(f Func) Func {
	return func(t float64) float64 {
		if v, ok := boundary(t); ok {
			return v
		}
		return f(t)
	}
}

func Linear(t float64) float64 { return t }

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// SmoothWithInflection returns a logistic curve of steepness k rescaled to
// pass through (0, 0) and (1, 1). The curve flattens to Linear as k
// approaches zero.
func SmoothWithInflection(k float64) Func {
	if math.Abs(k) < 1e-6 {
		return Linear
	}
	e := Sigmoid(-k / 2)
	return pinned(func(t float64) float64 {
		v := (Sigmoid(k*(t-0.5)) - e) / (1 - 2*e)
		return math.Max(0, math.Min(1, v))
	})
}

var smooth = SmoothWithInflection(10)

// Smooth is the default scene easing: a normalized sigmoid with inflection 10.
func Smooth(t float64) float64 { return smooth(t) }

func Smoothstep(t float64) float64 {
	if v, ok := boundary(t); ok {
		return v
	}
	return 3*t*t - 2*t*t*t
}

func Smootherstep(t float64) float64 {
	if v, ok := boundary(t); ok {
		return v
	}
	return t * t * t * (10 + t*(-15+6*t))
}

func Smoothererstep(t float64) float64 {
	if v, ok := boundary(t); ok {
		return v
	}
	t4 := t * t * t * t
	return t4 * (35 + t*(-84+t*(70-20*t)))
}

// RushInto starts slowly and arrives at full speed.
func RushInto(t float64) float64 {
	if v, ok := boundary(t); ok {
		return v
	}
	return 2 * smooth(t/2)
}

// RushFrom leaves at full speed and settles slowly.
func RushFrom(t float64) float64 {
	if v, ok := boundary(t); ok {
		return v
	}
	return 2*smooth(t/2+0.5) - 1
}

// SlowInto follows a quarter circle.
func SlowInto(t float64) float64 {
	if v, ok := boundary(t); ok {
		return v
	}
	u := 1 - t
	return math.Sqrt(1 - u*u)
}

// DoubleSmooth runs Smooth twice, once per half.
func DoubleSmooth(t float64) float64 {
	if v, ok := boundary(t); ok {
		return v
	}
	if t < 0.5 {
		return 0.5 * smooth(2*t)
	}
	return 0.5 * (1 + smooth(2*t-1))
}

// RunningStart pulls back by pull before running to 1, following the
// degree-6 bezier with control values 0, 0, pull, pull, 1, 1, 1.
func RunningStart(pull float64) Func {
	ctrl := [...]float64{0, 0, pull, pull, 1, 1, 1}
	return pinned(func(t float64) float64 {
		return bernstein(ctrl[:], t)
	})
}

func bernstein(ctrl []float64, t float64) float64 {
	n := len(ctrl) - 1
	sum := 0.0
	binom := 1.0
	for k, c := range ctrl {
		if k > 0 {
			binom = binom * float64(n-k+1) / float64(k)
		}
		sum += c * binom * math.Pow(t, float64(k)) * math.Pow(1-t, float64(n-k))
	}
	return sum
}

// ThereAndBack eases up to 1 at the midpoint and back to 0.
func ThereAndBack(t float64) float64 {
	if t < 0.5 {
		return smooth(2 * t)
	}
	return smooth(2 * (1 - t))
}

// ThereAndBackWithPause is like ThereAndBack but holds at 1 for the middle
// pause fraction of the timeline.
func ThereAndBackWithPause(pause float64) Func {
	pause = clamp01(pause)
	if pause >= 1 {
		return func(float64) float64 { return 1 }
	}
	a := 2 / (1 - pause)
	return func(t float64) float64 {
		switch {
		case t < 0.5-pause/2:
			return smooth(a * t)
		case t < 0.5+pause/2:
			return 1
		default:
			return smooth(a - a*t)
		}
	}
}

// Wiggle oscillates n half-waves inside a ThereAndBack envelope and returns
// to 0.
func Wiggle(n float64) Func {
	return func(t float64) float64 {
		return ThereAndBack(t) * math.Sin(n*math.Pi*t)
	}
}

// Lingering reaches 1 at 80% of the timeline and holds.
func Lingering(t float64) float64 {
	return Squish(Linear, 0, 0.8)(t)
}

// ExponentialDecay approaches 1 asymptotically with the given half life.
func ExponentialDecay(halfLife float64) Func {
	return func(t float64) float64 {
		return 1 - math.Exp(-t/halfLife)
	}
}

// NotQuiteThere scales Smooth so that it ends at proportion.
func NotQuiteThere(proportion float64) Func {
	return func(t float64) float64 {
		return proportion * smooth(t)
	}
}

// Squish compresses f into [a, b]: before a it reports f(0), after b f(1).
func Squish(f Func, a, b float64) Func {
	return func(t float64) float64 {
		switch {
		case t < a:
			return f(0)
		case t > b || a == b:
			return f(1)
		}
		return f((t - a) / (b - a))
	}
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}

type entry struct {
	fn       Func
	standard bool
}

var registry = map[string]entry{
	"linear":                {Linear, true},
	"smooth":                {Smooth, true},
	"smoothstep":            {Smoothstep, true},
	"smootherstep":          {Smootherstep, true},
	"smoothererstep":        {Smoothererstep, true},
	"rushInto":              {RushInto, true},
	"rushFrom":              {RushFrom, true},
	"slowInto":              {SlowInto, true},
	"doubleSmooth":          {DoubleSmooth, true},
	"runningStart":          {RunningStart(-0.5), true},
	"thereAndBack":          {ThereAndBack, false},
	"thereAndBackWithPause": {ThereAndBackWithPause(1.0 / 3), false},
	"wiggle":                {Wiggle(2), false},
	"lingering":             {Lingering, false},
	"exponentialDecay":      {ExponentialDecay(0.1), false},
}

func init() {
	for name, fn := range eases {
		registry[name] = entry{fn, true}
	}
}

// Lookup returns the rate function registered under name. Parameterized
// curves are registered with their usual defaults.
func Lookup(name string) (Func, error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return e.fn, nil
}

// Names returns every registered name, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// StandardNames returns the sorted names of the boundary-preserving curves.
func StandardNames() []string {
	var out []string
	for name, e := range registry {
		if e.standard {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
