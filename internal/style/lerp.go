package style

import (
	"math"
	"slices"

	"github.com/inamate/motion/internal/geom"
)

// Lerp interpolates between two styles.
//
// Colors interpolate channel-wise. Gradients of the same kind interpolate
// their geometry and their stops, after both stop lists are resampled onto
// the union of their offsets. A flat color against a gradient is first
// promoted to a uniform gradient of the other's kind. Any other pairing
// (images, linear against radial) crossfades: a fades out over [0, 1/2)
// and b fades in over [1/2, 1].
func Lerp(a, b Style, t float64) Style {
	switch {
	case t <= 0:
		return a
	case t >= 1:
		return b
	}
	if a.Kind == KindColor && b.Kind == KindColor {
		return Solid(a.Color.Lerp(b.Color, t))
	}
	if a.Kind == KindColor && isGradient(b) {
		a = promote(a.Color, b)
	}
	if b.Kind == KindColor && isGradient(a) {
		b = promote(b.Color, a)
	}
	switch {
	case a.Kind == KindLinearGradient && b.Kind == KindLinearGradient && a.Linear != nil && b.Linear != nil:
		ga, gb := a.Linear, b.Linear
		return Style{Kind: KindLinearGradient, Linear: &LinearGradient{
			Start: ga.Start.Lerp(gb.Start, t),
			End:   ga.End.Lerp(gb.End, t),
			Stops: lerpStops(ga.Stops, gb.Stops, t),
			Alpha: geom.Lerp(ga.Alpha, gb.Alpha, t),
		}}
	case a.Kind == KindRadialGradient && b.Kind == KindRadialGradient && a.Radial != nil && b.Radial != nil:
		ga, gb := a.Radial, b.Radial
		return Style{Kind: KindRadialGradient, Radial: &RadialGradient{
			Center: ga.Center.Lerp(gb.Center, t),
			Focus:  ga.Focus.Lerp(gb.Focus, t),
			Radius: geom.Lerp(ga.Radius, gb.Radius, t),
			Stops:  lerpStops(ga.Stops, gb.Stops, t),
			Alpha:  geom.Lerp(ga.Alpha, gb.Alpha, t),
		}}
	}
	if t < 0.5 {
		return a.WithAlpha(a.Alpha() * (1 - 2*t))
	}
	return b.WithAlpha(b.Alpha() * (2*t - 1))
}

func isGradient(s Style) bool {
	return (s.Kind == KindLinearGradient && s.Linear != nil) ||
		(s.Kind == KindRadialGradient && s.Radial != nil)
}

// promote turns c into a gradient with like's geometry and stop offsets
// whose every stop is c.
func promote(c Color, like Style) Style {
	uniform := func(stops []ColorStop) []ColorStop {
		out := make([]ColorStop, len(stops))
		for i, st := range stops {
			out[i] = ColorStop{Offset: st.Offset, Color: c}
		}
		if len(out) == 0 {
			out = []ColorStop{{Offset: 0, Color: c}, {Offset: 1, Color: c}}
		}
		return out
	}
	switch like.Kind {
	case KindLinearGradient:
		g := *like.Linear
		g.Stops = uniform(g.Stops)
		g.Alpha = 1
		return Style{Kind: KindLinearGradient, Linear: &g}
	default:
		g := *like.Radial
		g.Stops = uniform(g.Stops)
		g.Alpha = 1
		return Style{Kind: KindRadialGradient, Radial: &g}
	}
}

// lerpStops resamples both stop lists onto the union of their offsets and
// interpolates each resulting pair.
func lerpStops(a, b []ColorStop, t float64) []ColorStop {
	offsets := make([]float64, 0, len(a)+len(b))
	for _, st := range a {
		offsets = append(offsets, st.Offset)
	}
	for _, st := range b {
		offsets = append(offsets, st.Offset)
	}
	slices.Sort(offsets)
	offsets = slices.CompactFunc(offsets, func(x, y float64) bool {
		return math.Abs(y-x) < geom.Epsilon
	})
	out := make([]ColorStop, len(offsets))
	for i, off := range offsets {
		out[i] = ColorStop{
			Offset: off,
			Color:  stopColor(a, off).Lerp(stopColor(b, off), t),
		}
	}
	return out
}
