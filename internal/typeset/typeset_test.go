package typeset

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/vobject"
)

var _ Producer = (*GlyphTypesetter)(nil)

func newTypesetter(t *testing.T, opts ...Option) *GlyphTypesetter {
	t.Helper()
	g, err := Default(opts...)
	require.NoError(t, err)
	return g
}

func TestTypesetGlyphPerChild(t *testing.T) {
	g := newTypesetter(t)
	o, err := g.Typeset(context.Background(), "Hi there")
	require.NoError(t, err)

	// the space has no outline
	require.Len(t, o.Subobjects, 7)
	assert.Equal(t, "H", o.Subobjects[0].Name)
	assert.Equal(t, "e", o.Subobjects[6].Name)
	for _, c := range o.Subobjects {
		assert.True(t, c.HasPoints())
		assert.Equal(t, style.KindColor, c.Fill.Kind)
		assert.Zero(t, c.StrokeWidth)
	}
	// glyphs advance left to right
	assert.Less(t, o.Subobjects[0].Center().X, o.Subobjects[1].Center().X)
}

func TestTypesetComposesMarks(t *testing.T) {
	g := newTypesetter(t)
	o, err := g.Typeset(context.Background(), "e\u0301")
	require.NoError(t, err)
	require.Len(t, o.Subobjects, 1)
	assert.Equal(t, "\u00e9", o.Subobjects[0].Name)
}

func TestTypesetBaselineAtOrigin(t *testing.T) {
	g := newTypesetter(t, WithSize(100))
	o, err := g.Typeset(context.Background(), "x")
	require.NoError(t, err)
	r := o.BoundingBox()
	// screen coordinates: the glyph sits above the baseline, so y < 0
	assert.InDelta(t, 0, r.Max.Y, 2)
	assert.Less(t, r.Min.Y, -30.0)
	assert.GreaterOrEqual(t, r.Min.X, -1.0)
}

func TestTypesetSizeScalesOutlines(t *testing.T) {
	small, err := newTypesetter(t, WithSize(10)).Typeset(context.Background(), "motion")
	require.NoError(t, err)
	big, err := newTypesetter(t, WithSize(40)).Typeset(context.Background(), "motion")
	require.NoError(t, err)
	assert.InDelta(t, small.Width()*4, big.Width(), 1)
	assert.InDelta(t, small.Height()*4, big.Height(), 1)
}

func TestTypesetScaleToWidth(t *testing.T) {
	o, err := newTypesetter(t).Typeset(context.Background(), "Hello world")
	require.NoError(t, err)
	o = o.ScaleToWidth(200, true)
	require.InDelta(t, 200, o.Width(), 1e-6)
	h := o.Height()

	got := o.Scale(1000.0/200, true)
	assert.InDelta(t, 1000, got.Width(), 1e-6)
	assert.InDelta(t, h*5, got.Height(), 1e-6)
}

func TestTypesetMultipleLines(t *testing.T) {
	g := newTypesetter(t, WithSize(20))
	one, err := g.Typeset(context.Background(), "a")
	require.NoError(t, err)
	two, err := g.Typeset(context.Background(), "a\na")
	require.NoError(t, err)
	require.Len(t, two.Subobjects, 2)
	dy := two.Subobjects[1].Center().Y - two.Subobjects[0].Center().Y
	assert.InDelta(t, 20*LineSpacing, dy, 1e-6)
	assert.InDelta(t, one.Subobjects[0].Center().X, two.Subobjects[1].Center().X, 1e-6)
}

func TestTypesetColor(t *testing.T) {
	red := style.RGB(255, 0, 0)
	o, err := newTypesetter(t, WithColor(red)).Typeset(context.Background(), "A")
	require.NoError(t, err)
	for _, leaf := range o.Leaves() {
		assert.Equal(t, red, leaf.Fill.Color)
	}
}

func TestTypesetErrors(t *testing.T) {
	g := newTypesetter(t)

	_, err := g.Typeset(context.Background(), "  \n ")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = g.Typeset(context.Background(), "漢")
	assert.ErrorIs(t, err, ErrMissingGlyph)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Typeset(ctx, "late")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = New([]byte("not a font"))
	assert.Error(t, err)
}

func TestTypesetConcurrent(t *testing.T) {
	g := newTypesetter(t)
	var wg sync.WaitGroup
	results := make([]vobject.VectorObject, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := g.Typeset(context.Background(), "concurrent")
			assert.NoError(t, err)
			results[i] = o
		}()
	}
	wg.Wait()
	for _, o := range results[1:] {
		assert.Equal(t, results[0].Points(), o.Points())
	}
}
