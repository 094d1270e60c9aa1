// Package vobject implements the hierarchical vector object: subpaths of cubic
// bezier segments, nested children and fill/stroke styling.
//
// All operations are functional updates. They return a new VectorObject and
// leave the receiver unchanged; untouched subtrees may be shared between the
// old and new value, so slices reachable from a VectorObject must never be
// written in place.
package vobject

import (
	"slices"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/style"
)

// Subpath is one connected run of cubic bezier segments, stored as
// anchor, handle, handle, anchor, handle, handle, anchor...
// A valid subpath has 1+3k points. A single point is a degenerate subpath.
type Subpath []geom.Point

// NumSegments returns the number of cubic segments in s.
func (s Subpath) NumSegments() int {
	if len(s) < 4 {
		return 0
	}
	return (len(s) - 1) / 3
}

// Segment returns segment i of s.
func (s Subpath) Segment(i int) geom.CubicBezier {
	j := 3 * i
	return geom.CubicBezier{P0: s[j], P1: s[j+1], P2: s[j+2], P3: s[j+3]}
}

// Segments returns every segment of s.
func (s Subpath) Segments() []geom.CubicBezier {
	out := make([]geom.CubicBezier, s.NumSegments())
	for i := range out {
		out[i] = s.Segment(i)
	}
	return out
}

// IsClosed reports whether the first and last points coincide.
func (s Subpath) IsClosed() bool {
	return len(s) > 1 && s[0].ApproxEqual(s[len(s)-1], geom.Epsilon)
}

// Anchors returns the on-curve points of s.
func (s Subpath) Anchors() []geom.Point {
	if len(s) == 0 {
		return nil
	}
	out := make([]geom.Point, 0, s.NumSegments()+1)
	for i := 0; i < len(s); i += 3 {
		out = append(out, s[i])
	}
	return out
}

// SubpathFromSegments joins consecutive segments into one subpath. Each
// segment is assumed to start where the previous one ended.
func SubpathFromSegments(segs []geom.CubicBezier) Subpath {
	if len(segs) == 0 {
		return nil
	}
	out := make(Subpath, 0, 1+3*len(segs))
	out = append(out, segs[0].P0)
	for _, c := range segs {
		out = append(out, c.P1, c.P2, c.P3)
	}
	return out
}

// LineCap is the shape at the ends of open strokes.
type LineCap uint8

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

func (c LineCap) String() string {
	switch c {
	case CapRound:
		return "round"
	case CapSquare:
		return "square"
	default:
		return "butt"
	}
}

// LineJoin is the shape where stroke segments meet.
type LineJoin uint8

const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

func (j LineJoin) String() string {
	switch j {
	case JoinRound:
		return "round"
	case JoinBevel:
		return "bevel"
	default:
		return "miter"
	}
}

// FillRule decides which regions of self-intersecting paths are inside.
type FillRule uint8

const (
	NonZero FillRule = iota
	EvenOdd
)

func (r FillRule) String() string {
	if r == EvenOdd {
		return "evenodd"
	}
	return "nonzero"
}

// VectorObject is a styled path with children. An object with no subpaths
// and some subobjects is a pure group.
type VectorObject struct {
	Subpaths   []Subpath      `json:"subpaths,omitempty"`
	Subobjects []VectorObject `json:"subobjects,omitempty"`

	Fill          style.Style `json:"fill"`
	Stroke        style.Style `json:"stroke"`
	StrokeWidth   float64     `json:"strokeWidth"`
	LineCap       LineCap     `json:"lineCap"`
	LineJoin      LineJoin    `json:"lineJoin"`
	FillRule      FillRule    `json:"fillRule"`
	FillOpacity   float64     `json:"fillOpacity"`
	StrokeOpacity float64     `json:"strokeOpacity"`

	// Index addresses the object inside a scene.
	Index int `json:"index"`
	// Name is free-form, used for debugging and SVG ids.
	Name string `json:"name,omitempty"`
}

// Default styling for new objects.
var (
	DefaultStroke      = style.Solid(style.Black)
	DefaultStrokeWidth = 4.0
)

// New returns an empty object with full opacity, no fill and the default
// stroke color at zero width.
func New() VectorObject {
	return VectorObject{
		Fill:          style.None(),
		Stroke:        DefaultStroke,
		FillOpacity:   1,
		StrokeOpacity: 1,
		LineCap:       CapRound,
		LineJoin:      JoinRound,
	}
}

// FromSubpaths returns a stroked object with the given geometry.
func FromSubpaths(subpaths ...Subpath) VectorObject {
	o := New()
	o.Subpaths = cloneSubpaths(subpaths)
	o.StrokeWidth = DefaultStrokeWidth
	return o
}

// Group returns a pure group node owning copies of children.
func Group(children ...VectorObject) VectorObject {
	o := New()
	o.Subobjects = make([]VectorObject, len(children))
	for i, c := range children {
		o.Subobjects[i] = c.Clone()
	}
	return o
}

// Clone returns a fully independent deep copy.
func (o VectorObject) Clone() VectorObject {
	o.Subpaths = cloneSubpaths(o.Subpaths)
	if o.Subobjects != nil {
		children := make([]VectorObject, len(o.Subobjects))
		for i, c := range o.Subobjects {
			children[i] = c.Clone()
		}
		o.Subobjects = children
	}
	return o
}

func cloneSubpaths(in []Subpath) []Subpath {
	if in == nil {
		return nil
	}
	out := make([]Subpath, len(in))
	for i, s := range in {
		out[i] = slices.Clone(s)
	}
	return out
}

// HasPoints reports whether the node itself carries geometry.
func (o VectorObject) HasPoints() bool {
	for _, s := range o.Subpaths {
		if len(s) > 0 {
			return true
		}
	}
	return false
}

// IsEmpty reports whether no node in the subtree carries geometry.
func (o VectorObject) IsEmpty() bool {
	if o.HasPoints() {
		return false
	}
	for _, c := range o.Subobjects {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// mapTree applies fn to o, and to every descendant when recursive is set.
func (o VectorObject) mapTree(recursive bool, fn func(VectorObject) VectorObject) VectorObject {
	o = fn(o)
	if recursive && len(o.Subobjects) > 0 {
		children := make([]VectorObject, len(o.Subobjects))
		for i, c := range o.Subobjects {
			children[i] = c.mapTree(true, fn)
		}
		o.Subobjects = children
	}
	return o
}

// ApplyFunction maps every point through fn.
func (o VectorObject) ApplyFunction(fn func(geom.Point) geom.Point, recursive bool) VectorObject {
	return o.mapTree(recursive, func(n VectorObject) VectorObject {
		if n.Subpaths == nil {
			return n
		}
		subpaths := make([]Subpath, len(n.Subpaths))
		for i, s := range n.Subpaths {
			out := make(Subpath, len(s))
			for j, p := range s {
				out[j] = fn(p)
			}
			subpaths[i] = out
		}
		n.Subpaths = subpaths
		return n
	})
}

// ApplyMatrix maps every point and every gradient through m.
func (o VectorObject) ApplyMatrix(m geom.Matrix2D, recursive bool) VectorObject {
	o = o.ApplyFunction(m.TransformPoint, recursive)
	return o.mapTree(recursive, func(n VectorObject) VectorObject {
		n.Fill = n.Fill.Transform(m)
		n.Stroke = n.Stroke.Transform(m)
		return n
	})
}

func (o VectorObject) SetFill(s style.Style, recursive bool) VectorObject {
	return o.mapTree(recursive, func(n VectorObject) VectorObject {
		n.Fill = s
		return n
	})
}

func (o VectorObject) SetStroke(s style.Style, recursive bool) VectorObject {
	return o.mapTree(recursive, func(n VectorObject) VectorObject {
		n.Stroke = s
		return n
	})
}

// SetColor sets both fill and stroke to c.
func (o VectorObject) SetColor(c style.Color, recursive bool) VectorObject {
	return o.SetFill(style.Solid(c), recursive).SetStroke(style.Solid(c), recursive)
}

func (o VectorObject) SetFillOpacity(v float64, recursive bool) VectorObject {
	return o.mapTree(recursive, func(n VectorObject) VectorObject {
		n.FillOpacity = v
		return n
	})
}

func (o VectorObject) SetStrokeOpacity(v float64, recursive bool) VectorObject {
	return o.mapTree(recursive, func(n VectorObject) VectorObject {
		n.StrokeOpacity = v
		return n
	})
}

// SetOpacity sets fill and stroke opacity together.
func (o VectorObject) SetOpacity(v float64, recursive bool) VectorObject {
	return o.mapTree(recursive, func(n VectorObject) VectorObject {
		n.FillOpacity = v
		n.StrokeOpacity = v
		return n
	})
}

// ScaleOpacity multiplies both opacities by f.
func (o VectorObject) ScaleOpacity(f float64, recursive bool) VectorObject {
	return o.mapTree(recursive, func(n VectorObject) VectorObject {
		n.FillOpacity *= f
		n.StrokeOpacity *= f
		return n
	})
}

func (o VectorObject) SetStrokeWidth(w float64, recursive bool) VectorObject {
	return o.mapTree(recursive, func(n VectorObject) VectorObject {
		n.StrokeWidth = w
		return n
	})
}

func (o VectorObject) SetLineCap(c LineCap, recursive bool) VectorObject {
	return o.mapTree(recursive, func(n VectorObject) VectorObject {
		n.LineCap = c
		return n
	})
}

func (o VectorObject) SetLineJoin(j LineJoin, recursive bool) VectorObject {
	return o.mapTree(recursive, func(n VectorObject) VectorObject {
		n.LineJoin = j
		return n
	})
}

func (o VectorObject) SetFillRule(r FillRule, recursive bool) VectorObject {
	return o.mapTree(recursive, func(n VectorObject) VectorObject {
		n.FillRule = r
		return n
	})
}

// SetIndex sets the scene index of the node, or of every node in the subtree.
func (o VectorObject) SetIndex(i int, recursive bool) VectorObject {
	return o.mapTree(recursive, func(n VectorObject) VectorObject {
		n.Index = i
		return n
	})
}

func (o VectorObject) SetName(name string) VectorObject {
	o.Name = name
	return o
}

// SetSubpaths replaces the node's own geometry with a copy of subpaths.
func (o VectorObject) SetSubpaths(subpaths []Subpath) VectorObject {
	o.Subpaths = cloneSubpaths(subpaths)
	return o
}

// SetPoints replaces the node's own geometry with a single subpath.
func (o VectorObject) SetPoints(points []geom.Point) VectorObject {
	if len(points) == 0 {
		o.Subpaths = nil
		return o
	}
	o.Subpaths = []Subpath{slices.Clone(points)}
	return o
}

// SetSubobjects replaces the children with copies of children.
func (o VectorObject) SetSubobjects(children []VectorObject) VectorObject {
	o.Subobjects = nil
	return o.AddSubobjects(children...)
}

// AddSubobjects appends copies of children.
func (o VectorObject) AddSubobjects(children ...VectorObject) VectorObject {
	out := make([]VectorObject, 0, len(o.Subobjects)+len(children))
	out = append(out, o.Subobjects...)
	for _, c := range children {
		out = append(out, c.Clone())
	}
	o.Subobjects = out
	return o
}

// Family returns o and all its descendants in pre-order.
func (o VectorObject) Family() []VectorObject {
	out := []VectorObject{o}
	for _, c := range o.Subobjects {
		out = append(out, c.Family()...)
	}
	return out
}

// Leaves returns the descendants, o included, that carry geometry.
func (o VectorObject) Leaves() []VectorObject {
	var out []VectorObject
	for _, n := range o.Family() {
		if n.HasPoints() {
			out = append(out, n)
		}
	}
	return out
}
