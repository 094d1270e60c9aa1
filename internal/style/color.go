package style

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ErrInvalidColor is returned when a color string cannot be parsed.
var ErrInvalidColor = errors.New("invalid color")

// Color is an RGBA color with channels in [0, 255] and alpha in [0, 1].
// Channels are floats so that interpolated colors do not band.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

var (
	Black       = Color{0, 0, 0, 1}
	White       = Color{255, 255, 255, 1}
	Transparent = Color{}
)

// RGB returns an opaque color.
func RGB(r, g, b float64) Color {
	return Color{r, g, b, 1}
}

// RGBA returns a color with the given alpha.
func RGBA(r, g, b, a float64) Color {
	return Color{r, g, b, a}
}

// FromColor converts any image/color value.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{float64(n.R), float64(n.G), float64(n.B), float64(n.A) / 255}
}

// ParseColor parses hex (#rgb, #rrggbb, #rrggbbaa), CSS color names,
// rgb()/rgba() functional notation, "none" and "transparent".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "" || s == "none" || s == "transparent":
		return Transparent, nil
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(s, "rgb"):
		return parseFunctional(s)
	}
	if named, ok := colornames.Map[s]; ok {
		return FromColor(named), nil
	}
	return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// MustParseColor is like ParseColor but panics on error. It is intended for
// package-level color literals.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHex(s string) (Color, error) {
	alpha := 1.0
	switch len(s) {
	case 4: // #rgb
		s = "#" + strings.Repeat(s[1:2], 2) + strings.Repeat(s[2:3], 2) + strings.Repeat(s[3:4], 2)
	case 9: // #rrggbbaa
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		alpha = float64(a) / 255
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %v", ErrInvalidColor, err)
	}
	return Color{c.R * 255, c.G * 255, c.B * 255, alpha}, nil
}

func parseFunctional(s string) (Color, error) {
	open := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	parts := strings.FieldsFunc(s[open+1:end], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(parts) < 3 || len(parts) > 4 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	var ch [4]float64
	ch[3] = 1
	for i, p := range parts {
		percent := strings.HasSuffix(p, "%")
		v, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		switch {
		case percent && i < 3:
			v = v * 255 / 100
		case percent:
			v /= 100
		}
		ch[i] = v
	}
	return Color{ch[0], ch[1], ch[2], ch[3]}.clamped(), nil
}

func (c Color) clamped() Color {
	return Color{
		R: math.Max(0, math.Min(255, c.R)),
		G: math.Max(0, math.Min(255, c.G)),
		B: math.Max(0, math.Min(255, c.B)),
		A: math.Max(0, math.Min(1, c.A)),
	}
}

// Lerp interpolates channel-wise between c (t=0) and o (t=1).
func (c Color) Lerp(o Color, t float64) Color {
	return Color{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
		A: c.A + (o.A-c.A)*t,
	}
}

// WithAlpha returns c with alpha replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// NRGBA converts to a non-premultiplied 8-bit color, scaling alpha by opacity.
func (c Color) NRGBA(opacity float64) color.NRGBA {
	c = c.clamped()
	a := math.Max(0, math.Min(1, c.A*opacity))
	return color.NRGBA{
		R: uint8(math.Round(c.R)),
		G: uint8(math.Round(c.G)),
		B: uint8(math.Round(c.B)),
		A: uint8(math.Round(a * 255)),
	}
}

// Hex formats the color as #rrggbb, dropping alpha.
func (c Color) Hex() string {
	c = c.clamped()
	return colorful.Color{R: c.R / 255, G: c.G / 255, B: c.B / 255}.Hex()
}

// CSS formats the color as rgba() with alpha scaled by opacity.
func (c Color) CSS(opacity float64) string {
	n := c.NRGBA(opacity)
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", n.R, n.G, n.B,
		strconv.FormatFloat(float64(n.A)/255, 'f', 3, 64))
}
