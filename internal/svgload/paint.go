package svgload

import (
	"math"
	"strings"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/vobject"
)

// state is the inherited presentation state at an element.
type state struct {
	fill, stroke  string
	color         string
	strokeWidth   float64
	fillOpacity   float64
	strokeOpacity float64
	opacity       float64 // product of ancestor group opacities
	fillRule      vobject.FillRule
	lineCap       vobject.LineCap
	lineJoin      vobject.LineJoin
	transform     geom.Matrix2D
}

// defaultState is the SVG initial value of every property.
func defaultState() state {
	return state{
		fill:          "black",
		stroke:        "none",
		color:         "black",
		strokeWidth:   1,
		fillOpacity:   1,
		strokeOpacity: 1,
		opacity:       1,
		fillRule:      vobject.NonZero,
		lineCap:       vobject.CapButt,
		lineJoin:      vobject.JoinMiter,
		transform:     geom.Identity(),
	}
}

// properties merges presentation attributes with the style attribute,
// which wins.
func properties(n *node) map[string]string {
	props := make(map[string]string, len(n.attrs))
	for k, v := range n.attrs {
		props[k] = strings.TrimSpace(v)
	}
	for _, decl := range strings.Split(n.attrs["style"], ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		props[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return props
}

func (s state) inherit(props map[string]string) (state, error) {
	num := func(key string, dst *float64) {
		if v, ok := props[key]; ok && v != "inherit" {
			if f, ok := length(v); ok {
				*dst = f
			}
		}
	}
	str := func(key string, dst *string) {
		if v, ok := props[key]; ok && v != "inherit" {
			*dst = v
		}
	}
	str("fill", &s.fill)
	str("stroke", &s.stroke)
	str("color", &s.color)
	num("stroke-width", &s.strokeWidth)
	num("fill-opacity", &s.fillOpacity)
	num("stroke-opacity", &s.strokeOpacity)
	if v, ok := props["opacity"]; ok {
		if f, ok := length(v); ok {
			s.opacity *= f
		}
	}
	switch props["fill-rule"] {
	case "evenodd":
		s.fillRule = vobject.EvenOdd
	case "nonzero":
		s.fillRule = vobject.NonZero
	}
	switch props["stroke-linecap"] {
	case "butt":
		s.lineCap = vobject.CapButt
	case "round":
		s.lineCap = vobject.CapRound
	case "square":
		s.lineCap = vobject.CapSquare
	}
	switch props["stroke-linejoin"] {
	case "miter", "miter-clip", "arcs":
		s.lineJoin = vobject.JoinMiter
	case "round":
		s.lineJoin = vobject.JoinRound
	case "bevel":
		s.lineJoin = vobject.JoinBevel
	}
	if t, ok := props["transform"]; ok && t != "" {
		m, err := ParseTransform(t)
		if err != nil {
			return s, err
		}
		s.transform = s.transform.Multiply(m)
	}
	return s, nil
}

// gradient converts a gradient element for a shape with the given local
// bounds.
func (l *loader) gradient(g *node, bounds geom.Rect) (style.Style, bool) {
	if g.name != "linearGradient" && g.name != "radialGradient" {
		return style.Style{}, false
	}
	attrs := l.gradientAttrs(g, 0)
	stops := l.gradientStops(g, 0)

	// Fractions map through the bounding box unless userSpaceOnUse.
	bbox := attrs["gradientUnits"] != "userSpaceOnUse"
	coord := func(key string, def float64, horizontal bool) float64 {
		v, ok := attrs[key]
		if !ok {
			return def
		}
		f, pct := fraction(v)
		if !bbox {
			if pct {
				return f * 100
			}
			return f
		}
		if horizontal {
			return bounds.Min.X + f*bounds.Width()
		}
		return bounds.Min.Y + f*bounds.Height()
	}
	corner := func(fx, fy float64) geom.Point {
		if !bbox {
			return geom.Pt(fx, fy)
		}
		return geom.Pt(bounds.Min.X+fx*bounds.Width(), bounds.Min.Y+fy*bounds.Height())
	}

	var s style.Style
	if g.name == "linearGradient" {
		start := corner(0, 0)
		end := corner(1, 0)
		start = geom.Pt(coord("x1", start.X, true), coord("y1", start.Y, false))
		end = geom.Pt(coord("x2", end.X, true), coord("y2", end.Y, false))
		s = style.Linear(start, end, stops...)
	} else {
		mid := corner(0.5, 0.5)
		center := geom.Pt(coord("cx", mid.X, true), coord("cy", mid.Y, false))
		focus := geom.Pt(coord("fx", center.X, true), coord("fy", center.Y, false))
		r := 0.5
		if v, ok := attrs["r"]; ok {
			r, _ = fraction(v)
		}
		if bbox {
			r *= (bounds.Width() + bounds.Height()) / 2
		}
		s = style.Radial(center, focus, r, stops...)
	}
	if t, ok := attrs["gradientTransform"]; ok {
		if m, err := ParseTransform(t); err == nil {
			if bbox {
				// gradientTransform acts in bounding box units
				box := geom.Matrix2D{bounds.Width(), 0, 0, bounds.Height(), bounds.Min.X, bounds.Min.Y}
				m = box.Multiply(m).Multiply(box.Invert())
			}
			s = s.Transform(m)
		}
	}
	return s, true
}

// gradientAttrs collects geometry attributes, inheriting unset ones
// through href.
func (l *loader) gradientAttrs(g *node, depth int) map[string]string {
	out := map[string]string{}
	if ref, ok := l.ids[strings.TrimPrefix(g.attrs["href"], "#")]; ok && depth < maxUseDepth && ref != g {
		for k, v := range l.gradientAttrs(ref, depth+1) {
			out[k] = v
		}
	}
	for _, k := range []string{"x1", "y1", "x2", "y2", "cx", "cy", "r", "fx", "fy", "gradientUnits", "gradientTransform"} {
		if v, ok := g.attrs[k]; ok {
			out[k] = v
		}
	}
	return out
}

// gradientStops returns g's stops, or those of the gradient it references
// when it has none.
func (l *loader) gradientStops(g *node, depth int) []style.ColorStop {
	var stops []style.ColorStop
	last := 0.0
	for _, c := range g.children {
		if c.name != "stop" {
			continue
		}
		props := properties(c)
		off, _ := fraction(props["offset"])
		off = math.Max(last, math.Min(1, math.Max(0, off)))
		last = off
		col, err := style.ParseColor(props["stop-color"])
		if err != nil || props["stop-color"] == "" {
			col = style.Black
		}
		if v, ok := props["stop-opacity"]; ok {
			if a, ok := length(v); ok {
				col = col.WithAlpha(col.A * a)
			}
		}
		stops = append(stops, style.ColorStop{Offset: off, Color: col})
	}
	if len(stops) == 0 && depth < maxUseDepth {
		if ref, ok := l.ids[strings.TrimPrefix(g.attrs["href"], "#")]; ok && ref != g {
			return l.gradientStops(ref, depth+1)
		}
	}
	return stops
}

// fraction parses a number or percentage as a fraction.
func fraction(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	v, ok := length(s)
	if !ok {
		return 0, false
	}
	if strings.HasSuffix(s, "%") {
		return v / 100, true
	}
	return v, false
}
