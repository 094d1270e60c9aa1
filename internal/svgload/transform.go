package svgload

import (
	"fmt"
	"math"
	"strings"

	"github.com/inamate/motion/internal/geom"
)

// ParseTransform parses an SVG transform list. Functions apply right to
// left, so "translate(10) scale(2)" scales first.
func ParseTransform(s string) (geom.Matrix2D, error) {
	m := geom.Identity()
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		end := strings.IndexByte(rest, ')')
		if open < 0 || end < open {
			return m, fmt.Errorf("bad transform %q", s)
		}
		name := strings.TrimSpace(strings.Trim(rest[:open], ", \t\n"))
		args := numbers(rest[open+1 : end])
		rest = strings.TrimLeft(rest[end+1:], ", \t\n\r")

		t, err := transformFunc(name, args)
		if err != nil {
			return m, err
		}
		m = m.Multiply(t)
	}
	return m, nil
}

func transformFunc(name string, a []float64) (geom.Matrix2D, error) {
	arg := func(i int, def float64) float64 {
		if i < len(a) {
			return a[i]
		}
		return def
	}
	if len(a) == 0 {
		return geom.Identity(), fmt.Errorf("transform %s: missing arguments", name)
	}
	switch name {
	case "matrix":
		if len(a) != 6 {
			return geom.Identity(), fmt.Errorf("transform matrix: want 6 arguments, got %d", len(a))
		}
		return geom.Matrix2D{a[0], a[1], a[2], a[3], a[4], a[5]}, nil
	case "translate":
		return geom.Translate(a[0], arg(1, 0)), nil
	case "scale":
		return geom.Scale(a[0], arg(1, a[0])), nil
	case "rotate":
		r := geom.RotateDegrees(a[0])
		if len(a) >= 3 {
			r = r.About(geom.Pt(a[1], a[2]))
		}
		return r, nil
	case "skewX":
		return geom.Skew(a[0]*math.Pi/180, 0), nil
	case "skewY":
		return geom.Skew(0, a[0]*math.Pi/180), nil
	}
	return geom.Identity(), fmt.Errorf("unknown transform %q", name)
}
