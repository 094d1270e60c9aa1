// Package svgload converts SVG documents into vector object trees. Shapes
// become leaf objects, groups become group nodes, and unsupported elements
// are dropped with a warning.
package svgload

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/vobject"
)

var ErrNotSVG = errors.New("document has no svg root")

// maxUseDepth bounds <use> indirection.
const maxUseDepth = 16

type node struct {
	name     string
	attrs    map[string]string
	children []*node
}

// Parse reads an SVG document.
func Parse(r io.Reader) (vobject.VectorObject, error) {
	root, err := decode(r)
	if err != nil {
		return vobject.VectorObject{}, err
	}
	l := &loader{ids: map[string]*node{}}
	l.index(root)
	return l.element(root, defaultState(), 0)
}

// ParseString parses an inline SVG document.
func ParseString(s string) (vobject.VectorObject, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile parses the SVG file at path.
func ParseFile(path string) (vobject.VectorObject, error) {
	f, err := os.Open(path)
	if err != nil {
		return vobject.VectorObject{}, err
	}
	defer f.Close()
	return Parse(f)
}

func decode(r io.Reader) (*node, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charset.NewReaderLabel

	var root *node
	var stack []*node
	for {
		t, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch se := t.(type) {
		case xml.StartElement:
			n := &node{name: se.Name.Local, attrs: make(map[string]string, len(se.Attr))}
			for _, a := range se.Attr {
				n.attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if root == nil || root.name != "svg" {
		return nil, ErrNotSVG
	}
	return root, nil
}

type loader struct {
	ids map[string]*node
}

func (l *loader) index(n *node) {
	if id := n.attrs["id"]; id != "" {
		l.ids[id] = n
	}
	for _, c := range n.children {
		l.index(c)
	}
}

// element converts n and its subtree. The returned object is already in
// document coordinates.
func (l *loader) element(n *node, parent state, depth int) (vobject.VectorObject, error) {
	props := properties(n)
	if props["display"] == "none" {
		return vobject.New(), nil
	}
	st, err := parent.inherit(props)
	if err != nil {
		return vobject.VectorObject{}, err
	}

	switch n.name {
	case "svg", "g", "a", "switch":
		var children []vobject.VectorObject
		for _, c := range n.children {
			child, err := l.element(c, st, depth)
			if err != nil {
				return vobject.VectorObject{}, err
			}
			if child.HasPoints() || len(child.Subobjects) > 0 {
				children = append(children, child)
			}
		}
		g := vobject.New().SetSubobjects(children)
		return g.SetName(n.attrs["id"]), nil

	case "use":
		if depth >= maxUseDepth {
			slog.Warn("svg use nesting too deep, dropped", "href", n.attrs["href"])
			return vobject.New(), nil
		}
		ref, ok := l.ids[strings.TrimPrefix(n.attrs["href"], "#")]
		if !ok {
			slog.Warn("svg use target not found, dropped", "href", n.attrs["href"])
			return vobject.New(), nil
		}
		x, _ := length(n.attrs["x"])
		y, _ := length(n.attrs["y"])
		st.transform = st.transform.Multiply(geom.Translate(x, y))
		return l.element(ref, st, depth+1)

	case "defs", "symbol", "linearGradient", "radialGradient", "stop", "clipPath", "mask",
		"pattern", "marker", "style", "title", "desc", "metadata", "filter":
		return vobject.New(), nil
	}

	subpaths, err := shapeSubpaths(n)
	if err != nil {
		return vobject.VectorObject{}, fmt.Errorf("svg %s: %w", n.name, err)
	}
	if subpaths == nil {
		if _, known := shapes[n.name]; !known {
			slog.Warn("unsupported svg element dropped", "element", n.name)
		}
		return vobject.New(), nil
	}

	o := vobject.New().SetSubpaths(subpaths).SetName(n.attrs["id"])
	bounds, _ := o.Bounds()
	o = l.applyPaint(o, st, bounds)
	return o.ApplyMatrix(st.transform, false), nil
}

var shapes = map[string]struct{}{
	"path": {}, "rect": {}, "circle": {}, "ellipse": {}, "line": {}, "polyline": {}, "polygon": {},
}

// shapeSubpaths returns n's geometry in its own coordinates, or nil for
// empty or unsupported shapes.
func shapeSubpaths(n *node) ([]vobject.Subpath, error) {
	num := func(key string) float64 {
		v, _ := length(n.attrs[key])
		return v
	}
	switch n.name {
	case "path":
		return ParsePath(n.attrs["d"])
	case "rect":
		return rectSubpaths(num("x"), num("y"), num("width"), num("height"), n.attrs["rx"], n.attrs["ry"]), nil
	case "circle":
		r := num("r")
		if r <= 0 {
			return nil, nil
		}
		return vobject.Circle(r).Shift(geom.Pt(num("cx"), num("cy")), false).Subpaths, nil
	case "ellipse":
		rx, ry := num("rx"), num("ry")
		if rx <= 0 || ry <= 0 {
			return nil, nil
		}
		return vobject.Ellipse(rx, ry).Shift(geom.Pt(num("cx"), num("cy")), false).Subpaths, nil
	case "line":
		b := vobject.NewPathBuilder().
			MoveTo(geom.Pt(num("x1"), num("y1"))).
			LineTo(geom.Pt(num("x2"), num("y2")))
		return b.Subpaths(), nil
	case "polyline", "polygon":
		v := numbers(n.attrs["points"])
		if len(v) < 4 {
			return nil, nil
		}
		b := vobject.NewPathBuilder().MoveTo(geom.Pt(v[0], v[1]))
		for i := 2; i+1 < len(v); i += 2 {
			b.LineTo(geom.Pt(v[i], v[i+1]))
		}
		if n.name == "polygon" {
			b.Close()
		}
		return b.Subpaths(), nil
	}
	return nil, nil
}

func rectSubpaths(x, y, w, h float64, rxAttr, ryAttr string) []vobject.Subpath {
	if w <= 0 || h <= 0 {
		return nil
	}
	rx, okx := length(rxAttr)
	ry, oky := length(ryAttr)
	switch {
	case okx && !oky:
		ry = rx
	case oky && !okx:
		rx = ry
	}
	rx = max(0, min(rx, w/2))
	ry = max(0, min(ry, h/2))

	b := vobject.NewPathBuilder()
	if rx == 0 || ry == 0 {
		b.MoveTo(geom.Pt(x, y)).
			LineTo(geom.Pt(x+w, y)).
			LineTo(geom.Pt(x+w, y+h)).
			LineTo(geom.Pt(x, y+h)).
			Close()
		return b.Subpaths()
	}
	b.MoveTo(geom.Pt(x+rx, y)).
		LineTo(geom.Pt(x+w-rx, y)).
		ArcTo(rx, ry, 0, false, true, geom.Pt(x+w, y+ry)).
		LineTo(geom.Pt(x+w, y+h-ry)).
		ArcTo(rx, ry, 0, false, true, geom.Pt(x+w-rx, y+h)).
		LineTo(geom.Pt(x+rx, y+h)).
		ArcTo(rx, ry, 0, false, true, geom.Pt(x, y+h-ry)).
		LineTo(geom.Pt(x, y+ry)).
		ArcTo(rx, ry, 0, false, true, geom.Pt(x+rx, y)).
		Close()
	return b.Subpaths()
}

// applyPaint sets fill and stroke on a leaf built in local coordinates.
// bounds is the leaf's local bounding box, for objectBoundingBox gradients.
func (l *loader) applyPaint(o vobject.VectorObject, st state, bounds geom.Rect) vobject.VectorObject {
	fill := l.paint(st.fill, st.color, bounds)
	stroke := l.paint(st.stroke, st.color, bounds)

	o = o.SetFill(fill, false).
		SetStroke(stroke, false).
		SetFillOpacity(st.fillOpacity*st.opacity, false).
		SetStrokeOpacity(st.strokeOpacity*st.opacity, false).
		SetFillRule(st.fillRule, false).
		SetLineCap(st.lineCap, false).
		SetLineJoin(st.lineJoin, false)
	if stroke.IsVisible() {
		return o.SetStrokeWidth(st.strokeWidth, false)
	}
	return o.SetStrokeWidth(0, false)
}

// paint resolves a fill or stroke value. Unknown values drop to none.
func (l *loader) paint(value, current string, bounds geom.Rect) style.Style {
	value = strings.TrimSpace(value)
	switch {
	case value == "" || value == "none":
		return style.None()
	case value == "currentColor":
		value = current
	case strings.HasPrefix(value, "url("):
		id := strings.TrimSuffix(strings.TrimPrefix(value, "url("), ")")
		id = strings.Trim(strings.TrimSpace(id), `"'`)
		g, ok := l.ids[strings.TrimPrefix(id, "#")]
		if !ok {
			slog.Warn("svg paint server not found, dropped", "ref", id)
			return style.None()
		}
		s, ok := l.gradient(g, bounds)
		if !ok {
			slog.Warn("unsupported svg paint server dropped", "ref", id, "element", g.name)
			return style.None()
		}
		return s
	}
	c, err := style.ParseColor(value)
	if err != nil {
		slog.Warn("invalid svg color dropped", "value", value, "error", err)
		return style.None()
	}
	return style.Solid(c)
}
