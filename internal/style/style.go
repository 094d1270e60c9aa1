package style

import (
	"encoding/base64"
	"math"
	"slices"

	"github.com/inamate/motion/internal/geom"
)

// Kind selects which variant of a Style is active.
type Kind uint8

const (
	KindColor Kind = iota
	KindLinearGradient
	KindRadialGradient
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindLinearGradient:
		return "linear"
	case KindRadialGradient:
		return "radial"
	case KindImage:
		return "image"
	default:
		return "color"
	}
}

// ColorStop is one stop of a gradient. Offset is in [0, 1].
type ColorStop struct {
	Offset float64 `json:"offset"`
	Color  Color   `json:"color"`
}

// LinearGradient runs from Start to End.
type LinearGradient struct {
	Start geom.Point  `json:"start"`
	End   geom.Point  `json:"end"`
	Stops []ColorStop `json:"stops"`
	Alpha float64     `json:"alpha"`
}

// RadialGradient runs from Focus (offset 0) out to the circle of Radius around Center.
type RadialGradient struct {
	Center geom.Point  `json:"center"`
	Focus  geom.Point  `json:"focus"`
	Radius float64     `json:"radius"`
	Stops  []ColorStop `json:"stops"`
	Alpha  float64     `json:"alpha"`
}

// ImageFill paints an encoded raster image (PNG or JPEG) into Rect.
type ImageFill struct {
	Data  []byte    `json:"data"`
	Rect  geom.Rect `json:"rect"`
	Alpha float64   `json:"alpha"`
}

// Base64 returns the image data as standard base64.
func (im *ImageFill) Base64() string {
	return base64.StdEncoding.EncodeToString(im.Data)
}

// Style is a paint for a fill or stroke slot. Exactly one variant is active,
// selected by Kind; the other variant fields are ignored.
//
// Styles are treated as immutable values: gradient stop slices and image
// data may be shared between copies and must not be modified in place.
type Style struct {
	Kind   Kind            `json:"kind"`
	Color  Color           `json:"color"`
	Linear *LinearGradient `json:"linear,omitempty"`
	Radial *RadialGradient `json:"radial,omitempty"`
	Image  *ImageFill      `json:"image,omitempty"`
}

// Solid returns a flat color style.
func Solid(c Color) Style {
	return Style{Kind: KindColor, Color: c}
}

// None is a fully transparent flat style.
func None() Style {
	return Solid(Transparent)
}

// Linear returns a linear gradient style.
func Linear(start, end geom.Point, stops ...ColorStop) Style {
	return Style{Kind: KindLinearGradient, Linear: &LinearGradient{
		Start: start, End: end, Stops: sortedStops(stops), Alpha: 1,
	}}
}

// Radial returns a radial gradient style.
func Radial(center, focus geom.Point, radius float64, stops ...ColorStop) Style {
	return Style{Kind: KindRadialGradient, Radial: &RadialGradient{
		Center: center, Focus: focus, Radius: radius, Stops: sortedStops(stops), Alpha: 1,
	}}
}

// Image returns an image style placed in rect.
func Image(data []byte, rect geom.Rect) Style {
	return Style{Kind: KindImage, Image: &ImageFill{Data: data, Rect: rect, Alpha: 1}}
}

func sortedStops(stops []ColorStop) []ColorStop {
	out := slices.Clone(stops)
	slices.SortStableFunc(out, func(a, b ColorStop) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	})
	return out
}

// Alpha returns the style's own alpha, independent of object opacity.
func (s Style) Alpha() float64 {
	switch s.Kind {
	case KindLinearGradient:
		if s.Linear != nil {
			return s.Linear.Alpha
		}
	case KindRadialGradient:
		if s.Radial != nil {
			return s.Radial.Alpha
		}
	case KindImage:
		if s.Image != nil {
			return s.Image.Alpha
		}
	default:
		return s.Color.A
	}
	return 0
}

// IsVisible reports whether painting s could change any pixel.
func (s Style) IsVisible() bool {
	return s.Alpha() > 0
}

// WithAlpha returns a copy of s with its own alpha replaced.
func (s Style) WithAlpha(a float64) Style {
	switch s.Kind {
	case KindLinearGradient:
		if s.Linear != nil {
			g := *s.Linear
			g.Alpha = a
			s.Linear = &g
		}
	case KindRadialGradient:
		if s.Radial != nil {
			g := *s.Radial
			g.Alpha = a
			s.Radial = &g
		}
	case KindImage:
		if s.Image != nil {
			im := *s.Image
			im.Alpha = a
			s.Image = &im
		}
	default:
		s.Color.A = a
	}
	return s
}

// Transform maps the geometry of gradients and image placements through m,
// so that paints follow the objects they are attached to.
func (s Style) Transform(m geom.Matrix2D) Style {
	switch s.Kind {
	case KindLinearGradient:
		if s.Linear != nil {
			g := *s.Linear
			g.Start = m.TransformPoint(g.Start)
			g.End = m.TransformPoint(g.End)
			s.Linear = &g
		}
	case KindRadialGradient:
		if s.Radial != nil {
			g := *s.Radial
			g.Center = m.TransformPoint(g.Center)
			g.Focus = m.TransformPoint(g.Focus)
			g.Radius *= m.ScaleFactor()
			s.Radial = &g
		}
	case KindImage:
		if s.Image != nil {
			im := *s.Image
			im.Rect = m.TransformRect(im.Rect)
			s.Image = &im
		}
	}
	return s
}

// ColorAt samples the paint at p. Images sample as transparent; rasterizers
// draw them separately.
func (s Style) ColorAt(p geom.Point) Color {
	switch s.Kind {
	case KindLinearGradient:
		if s.Linear == nil {
			return Transparent
		}
		g := s.Linear
		d := g.End.Sub(g.Start)
		l2 := d.Dot(d)
		t := 0.0
		if l2 > 0 {
			t = p.Sub(g.Start).Dot(d) / l2
		}
		c := stopColor(g.Stops, t)
		return c.WithAlpha(c.A * g.Alpha)
	case KindRadialGradient:
		if s.Radial == nil {
			return Transparent
		}
		g := s.Radial
		t := 0.0
		if g.Radius > 0 {
			t = radialOffset(g.Focus, g.Center, g.Radius, p)
		}
		c := stopColor(g.Stops, t)
		return c.WithAlpha(c.A * g.Alpha)
	case KindImage:
		return Transparent
	default:
		return s.Color
	}
}

// radialOffset returns the gradient offset of p for a focal gradient: the
// fraction of the way from the focus to the circle edge along the ray through p.
func radialOffset(focus, center geom.Point, radius float64, p geom.Point) float64 {
	d := p.Sub(focus)
	dist := d.Hypot()
	if dist == 0 {
		return 0
	}
	dir := d.Mul(1 / dist)
	// solve |focus + s*dir - center| = radius for s > 0
	f := focus.Sub(center)
	b := f.Dot(dir)
	c := f.Dot(f) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 1
	}
	s := -b + math.Sqrt(disc)
	if s <= 0 {
		return 1
	}
	return dist / s
}

// stopColor returns the color of a sorted stop list at offset t, padding
// beyond the first and last stops.
func stopColor(stops []ColorStop, t float64) Color {
	switch {
	case len(stops) == 0:
		return Transparent
	case t <= stops[0].Offset:
		return stops[0].Color
	case t >= stops[len(stops)-1].Offset:
		return stops[len(stops)-1].Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t <= b.Offset {
			span := b.Offset - a.Offset
			if span <= 0 {
				return b.Color
			}
			return a.Color.Lerp(b.Color, (t-a.Offset)/span)
		}
	}
	return stops[len(stops)-1].Color
}

// Average returns a representative flat color for the style, used where a
// backend cannot paint gradients (e.g. a stroke fallback).
func (s Style) Average() Color {
	var stops []ColorStop
	alpha := 1.0
	switch s.Kind {
	case KindLinearGradient:
		if s.Linear != nil {
			stops, alpha = s.Linear.Stops, s.Linear.Alpha
		}
	case KindRadialGradient:
		if s.Radial != nil {
			stops, alpha = s.Radial.Stops, s.Radial.Alpha
		}
	case KindImage:
		return Transparent
	default:
		return s.Color
	}
	if len(stops) == 0 {
		return Transparent
	}
	var acc Color
	for _, st := range stops {
		acc.R += st.Color.R
		acc.G += st.Color.G
		acc.B += st.Color.B
		acc.A += st.Color.A
	}
	n := float64(len(stops))
	return Color{acc.R / n, acc.G / n, acc.B / n, acc.A / n * alpha}
}
