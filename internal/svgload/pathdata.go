package svgload

import (
	"errors"
	"fmt"

	"github.com/tdewolff/parse/v2/strconv"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/vobject"
)

var ErrBadPath = errors.New("bad path data")

func skipCommaWhitespace(b []byte) int {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == ',' || b[i] == '\n' || b[i] == '\r' || b[i] == '\t') {
		i++
	}
	return i
}

// numbers scans a whitespace or comma separated number list, stopping at
// the first token that is not a number.
func numbers(s string) []float64 {
	b := []byte(s)
	var out []float64
	i := skipCommaWhitespace(b)
	for i < len(b) {
		v, n := strconv.ParseFloat(b[i:])
		if n == 0 {
			break
		}
		out = append(out, v)
		i += n
		i += skipCommaWhitespace(b[i:])
	}
	return out
}

// length parses a length, ignoring any unit suffix.
func length(s string) (float64, bool) {
	b := []byte(s)
	i := skipCommaWhitespace(b)
	v, n := strconv.ParseFloat(b[i:])
	return v, n > 0
}

var argCounts = map[byte]int{
	'M': 2, 'Z': 0, 'L': 2, 'H': 1, 'V': 1,
	'C': 6, 'S': 4, 'Q': 4, 'T': 2, 'A': 7,
}

// ParsePath parses SVG path data into subpaths of cubic segments.
func ParsePath(d string) ([]vobject.Subpath, error) {
	path := []byte(d)
	b := vobject.NewPathBuilder()
	i := skipCommaWhitespace(path)
	if i == len(path) {
		return nil, nil
	}
	if c := path[i]; c < 'A' || c == 'e' || c == 'E' {
		return nil, fmt.Errorf("%w: path should start with a command", ErrBadPath)
	}

	var f [7]float64
	var p0, ctrl geom.Point // current point and last control point
	prevCmd := byte('z')
	for {
		i += skipCommaWhitespace(path[i:])
		if i >= len(path) {
			break
		}

		cmd := prevCmd
		repeat := true
		c := path[i]
		isNum := c >= '0' && c <= '9' || c == '.' || c == '-' || c == '+'
		if cmd == 'z' || cmd == 'Z' || !isNum {
			cmd = c
			repeat = false
			i++
			i += skipCommaWhitespace(path[i:])
		}

		upper := cmd
		if 'a' <= cmd && cmd <= 'z' {
			upper -= 'a' - 'A'
		}
		count, ok := argCounts[upper]
		if !ok {
			return nil, fmt.Errorf("%w: unknown command '%c' at position %d", ErrBadPath, cmd, i)
		}
		for j := range count {
			if upper == 'A' && (j == 3 || j == 4) {
				// arc flags may be packed without separators
				if i < len(path) && (path[i] == '0' || path[i] == '1') {
					f[j] = float64(path[i] - '0')
					i++
				} else {
					return nil, fmt.Errorf("%w: arc flags should be 0 or 1 in command '%c' at position %d", ErrBadPath, cmd, i+1)
				}
			} else {
				v, n := strconv.ParseFloat(path[i:])
				if n == 0 {
					if repeat && j == 0 {
						return nil, fmt.Errorf("%w: unknown command '%c' at position %d", ErrBadPath, path[i], i+1)
					}
					return nil, fmt.Errorf("%w: %d numbers should follow command '%c' at position %d", ErrBadPath, count, cmd, i+1)
				}
				f[j] = v
				i += n
			}
			i += skipCommaWhitespace(path[i:])
		}

		rel := cmd >= 'a'
		abs := func(x, y float64) geom.Point {
			if rel {
				return geom.Pt(p0.X+x, p0.Y+y)
			}
			return geom.Pt(x, y)
		}

		var p1 geom.Point
		switch upper {
		case 'M':
			p1 = abs(f[0], f[1])
			b.MoveTo(p1)
			// later pairs are implicit line-tos
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'Z':
			b.Close()
			p1 = b.Pen()
		case 'L':
			p1 = abs(f[0], f[1])
			b.LineTo(p1)
		case 'H':
			p1 = geom.Pt(f[0], p0.Y)
			if rel {
				p1.X += p0.X
			}
			b.LineTo(p1)
		case 'V':
			p1 = geom.Pt(p0.X, f[0])
			if rel {
				p1.Y += p0.Y
			}
			b.LineTo(p1)
		case 'C':
			c1, c2 := abs(f[0], f[1]), abs(f[2], f[3])
			p1 = abs(f[4], f[5])
			b.CubicTo(c1, c2, p1)
			ctrl = c2
		case 'S':
			c1 := p0
			if prevCmd == 'C' || prevCmd == 'c' || prevCmd == 'S' || prevCmd == 's' {
				c1 = p0.Mul(2).Sub(ctrl)
			}
			c2 := abs(f[0], f[1])
			p1 = abs(f[2], f[3])
			b.CubicTo(c1, c2, p1)
			ctrl = c2
		case 'Q':
			q := abs(f[0], f[1])
			p1 = abs(f[2], f[3])
			b.QuadTo(q, p1)
			ctrl = q
		case 'T':
			q := p0
			if prevCmd == 'Q' || prevCmd == 'q' || prevCmd == 'T' || prevCmd == 't' {
				q = p0.Mul(2).Sub(ctrl)
			}
			p1 = abs(f[0], f[1])
			b.QuadTo(q, p1)
			ctrl = q
		case 'A':
			p1 = abs(f[5], f[6])
			b.ArcTo(f[0], f[1], f[2], f[3] == 1, f[4] == 1, p1)
		}
		prevCmd = cmd
		p0 = p1
	}
	return b.Subpaths(), nil
}
