package align

import (
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/vobject"
)

type morphOptions struct {
	skipPointAlign bool
	fallback       *geom.Point
}

// MorphOption configures Morph and NewMorpher.
type MorphOption func(*morphOptions)

// SkipPointAlign skips the point alignment pass, for callers that already
// guarantee matching point structure. Results are identical either way.
func SkipPointAlign() MorphOption {
	return func(o *morphOptions) { o.skipPointAlign = true }
}

// WithFallback sets where placeholder geometry is created instead of
// DefaultFallback.
func WithFallback(p geom.Point) MorphOption {
	return func(o *morphOptions) { o.fallback = &p }
}

// Morph aligns a and b and returns their interpolation at t.
func Morph(a, b vobject.VectorObject, t float64, opts ...MorphOption) vobject.VectorObject {
	return NewMorpher(a, b, opts...).At(t)
}

// Morpher holds an aligned pair so a frame loop aligns only once.
type Morpher struct {
	from, to vobject.VectorObject
}

// NewMorpher aligns a and b and returns an evaluator for their morph.
func NewMorpher(a, b vobject.VectorObject, opts ...MorphOption) *Morpher {
	var o morphOptions
	for _, opt := range opts {
		opt(&o)
	}
	fallback := DefaultFallback(a, b)
	if o.fallback != nil {
		fallback = *o.fallback
	}
	a, b = AlignSubobjects(a, b, fallback)
	if !o.skipPointAlign {
		a, b = AlignPoints(a, b, fallback)
	}
	return &Morpher{from: a, to: b}
}

// From returns the aligned start tree.
func (m *Morpher) From() vobject.VectorObject { return m.from }

// To returns the aligned end tree.
func (m *Morpher) To() vobject.VectorObject { return m.to }

// At returns the morph at t.
func (m *Morpher) At(t float64) vobject.VectorObject {
	return Interpolate(m.from, m.to, t)
}
