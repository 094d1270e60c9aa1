package animation

import (
	"math"
	"reflect"
	"sync"

	"github.com/inamate/motion/internal/align"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/ratefunc"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/vobject"
)

// Catalog defaults used by Lookup.
var (
	DefaultWriteLag        = 0.2
	DefaultSpinAngle       = math.Pi / 2
	DefaultVisibleFraction = 0.5
	DefaultIndicateScale   = 1.2
	DefaultIndicateColor   = style.RGB(255, 255, 0)
)

// outlineWidth is the stroke width used to draw outlines of objects that
// have no stroke of their own.
const outlineWidth = 2.0

// The helpers below skip identity transforms so that animations reproduce
// their input exactly at the neutral end of their range.

func scaleAbout(o vobject.VectorObject, f float64, about geom.Point) vobject.VectorObject {
	if f == 1 {
		return o
	}
	return o.ScaleAbout(f, about, true)
}

func shift(o vobject.VectorObject, d geom.Point) vobject.VectorObject {
	if d == geom.Origin {
		return o
	}
	return o.Shift(d, true)
}

func rotateAbout(o vobject.VectorObject, angle float64, about geom.Point) vobject.VectorObject {
	if angle == 0 {
		return o
	}
	return o.RotateAbout(angle, about, true)
}

func scaleOpacity(o vobject.VectorObject, f float64) vobject.VectorObject {
	if f == 1 {
		return o
	}
	return o.ScaleOpacity(f, true)
}

// FadeIn fades the object in while it grows from scale and drifts by shift
// into its final place.
func FadeIn(scale float64, offset geom.Point) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		center := obj.Center()
		obj = scaleAbout(obj, geom.Lerp(scale, 1, t), center)
		obj = shift(obj, offset.Mul(t-1))
		return scaleOpacity(obj, t)
	}
}

// FadeOut fades the object out while it shrinks to scale and drifts by shift.
func FadeOut(scale float64, offset geom.Point) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		center := obj.Center()
		obj = scaleAbout(obj, geom.Lerp(1, scale, t), center)
		obj = shift(obj, offset.Mul(t))
		return scaleOpacity(obj, 1-t)
	}
}

// Create reveals the path from its start along its length.
func Create(obj vobject.VectorObject, t float64) vobject.VectorObject {
	return obj.Partial(0, t, true)
}

// Uncreate retracts the path back to its start.
func Uncreate(obj vobject.VectorObject, t float64) vobject.VectorObject {
	return obj.Partial(0, 1-t, true)
}

// DrawStrokeThenFill traces an outline during the first half and fades the
// fill in during the second half, while the outline settles into the
// object's own stroke.
func DrawStrokeThenFill(obj vobject.VectorObject, t float64) vobject.VectorObject {
	draw := geom.Clamp(2*t, 0, 1)
	fill := geom.Clamp(2*t-1, 0, 1)
	obj = obj.Partial(0, draw, true)
	return mapFamily(obj, func(n vobject.VectorObject) vobject.VectorObject {
		outline, width := n.Stroke, n.StrokeWidth
		if width == 0 || !outline.IsVisible() {
			outline = style.Solid(fillOutlineColor(n))
			width = outlineWidth
		}
		n.Stroke = style.Lerp(outline.WithAlpha(1), n.Stroke, fill)
		n.StrokeWidth = geom.Lerp(width, n.StrokeWidth, fill)
		n.StrokeOpacity = geom.Lerp(1, n.StrokeOpacity, fill)
		n.FillOpacity = n.FillOpacity * fill
		return n
	})
}

func fillOutlineColor(n vobject.VectorObject) style.Color {
	if n.Fill.IsVisible() {
		return n.Fill.Average().WithAlpha(1)
	}
	return vobject.DefaultStroke.Color
}

// mapFamily applies fn to every node of obj.
func mapFamily(obj vobject.VectorObject, fn func(vobject.VectorObject) vobject.VectorObject) vobject.VectorObject {
	obj = fn(obj)
	if len(obj.Subobjects) > 0 {
		children := make([]vobject.VectorObject, len(obj.Subobjects))
		for i, c := range obj.Subobjects {
			children[i] = mapFamily(c, fn)
		}
		obj.Subobjects = children
	}
	return obj
}

// Write draws the children one after another with DrawStrokeThenFill,
// overlapping according to lagRatio, so glyphs appear in reading order.
func Write(lagRatio float64) Func {
	return Group(lagRatio, DrawStrokeThenFill)
}

// Shift moves the object by d.
func Shift(d geom.Point) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		return shift(obj, d.Mul(t))
	}
}

// MoveTo moves the object's center to p.
func MoveTo(p geom.Point) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		return shift(obj, p.Sub(obj.Center()).Mul(t))
	}
}

// ScaleInPlace scales the object about its center up to factor.
func ScaleInPlace(factor float64) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		return scaleAbout(obj, geom.Lerp(1, factor, t), obj.Center())
	}
}

// Rotate turns the object about its center by angle radians.
func Rotate(angle float64) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		return rotateAbout(obj, angle*t, obj.Center())
	}
}

// GrowFromCenter scales the object up from nothing at its center.
func GrowFromCenter(obj vobject.VectorObject, t float64) vobject.VectorObject {
	return scaleAbout(obj, t, obj.Center())
}

// SpinningGrow scales the object up from nothing while rotating it from 0
// to angle about its center.
func SpinningGrow(angle float64) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		center := obj.Center()
		return rotateAbout(scaleAbout(obj, t, center), angle*t, center)
	}
}

// GrowArrowWithFinalTip grows the shaft of an arrow from its start while the
// tip, the last child, keeps its final size and rides on the shaft's end.
// Objects without children are simply created.
func GrowArrowWithFinalTip(obj vobject.VectorObject, t float64) vobject.VectorObject {
	n := len(obj.Subobjects)
	if n < 2 {
		return Create(obj, t)
	}
	children := make([]vobject.VectorObject, n)
	var end, grown geom.Point
	for i, c := range obj.Subobjects[:n-1] {
		children[i] = c.Partial(0, t, true)
		if pts := c.Points(); len(pts) > 0 {
			end = pts[len(pts)-1]
		}
		if pts := children[i].Points(); len(pts) > 0 {
			grown = pts[len(pts)-1]
		}
	}
	tip := shift(obj.Subobjects[n-1], grown.Sub(end))
	if t == 0 {
		tip = tip.SetOpacity(0, true)
	}
	children[n-1] = tip
	obj.Subobjects = children
	return obj
}

// SetFill blends every node's fill towards s.
func SetFill(s style.Style) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		return mapFamily(obj, func(n vobject.VectorObject) vobject.VectorObject {
			n.Fill = style.Lerp(n.Fill, s, t)
			return n
		})
	}
}

// SetStroke blends every node's stroke towards s.
func SetStroke(s style.Style) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		return mapFamily(obj, func(n vobject.VectorObject) vobject.VectorObject {
			n.Stroke = style.Lerp(n.Stroke, s, t)
			return n
		})
	}
}

// SetOpacity blends every node's fill and stroke opacity towards v.
func SetOpacity(v float64) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		return mapFamily(obj, func(n vobject.VectorObject) vobject.VectorObject {
			n.FillOpacity = geom.Lerp(n.FillOpacity, v, t)
			n.StrokeOpacity = geom.Lerp(n.StrokeOpacity, v, t)
			return n
		})
	}
}

// ShowTemporarily leaves the object as it is for the first visibleFraction
// of the timeline and hides it afterwards.
func ShowTemporarily(visibleFraction float64) Func {
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		if t < visibleFraction {
			return obj
		}
		return obj.ScaleOpacity(0, true)
	}
}

// Indicate briefly enlarges the object and tints it with c, then returns it
// to its original state.
func Indicate(scale float64, c style.Color) Func {
	tint := style.Solid(c)
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		k := ratefunc.ThereAndBack(t)
		obj = scaleAbout(obj, geom.Lerp(1, scale, k), obj.Center())
		return mapFamily(obj, func(n vobject.VectorObject) vobject.VectorObject {
			n.Fill = style.Lerp(n.Fill, tint.WithAlpha(n.Fill.Alpha()), k)
			n.Stroke = style.Lerp(n.Stroke, tint.WithAlpha(n.Stroke.Alpha()), k)
			return n
		})
	}
}

// MorphShape morphs the object into target. Alignments are cached per
// object index, so a frame loop that passes the same starting objects every
// frame aligns each of them once.
func MorphShape(target vobject.VectorObject, opts ...align.MorphOption) Func {
	c := &morphCache{target: target, opts: opts, entries: make(map[int]morphEntry)}
	return func(obj vobject.VectorObject, t float64) vobject.VectorObject {
		return c.morpher(obj).At(t)
	}
}

type morphEntry struct {
	source  vobject.VectorObject
	morpher *align.Morpher
}

type morphCache struct {
	target vobject.VectorObject
	opts   []align.MorphOption

	mu      sync.Mutex
	entries map[int]morphEntry // by source index
}

// morpher returns the cached morpher for obj, realigning when the object at
// that index changed.
func (c *morphCache) morpher(obj vobject.VectorObject) *align.Morpher {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[obj.Index]
	if !ok || !reflect.DeepEqual(e.source, obj) {
		e = morphEntry{source: obj.Clone(), morpher: align.NewMorpher(obj, c.target, c.opts...)}
		c.entries[obj.Index] = e
	}
	return e.morpher
}
