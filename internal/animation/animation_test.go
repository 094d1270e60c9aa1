package animation

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/motion/internal/align"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/vobject"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Errorf("mismatch (-want +got):\n%s", d)
	}
}

func opaqueCircle() vobject.VectorObject {
	return vobject.Circle(10).
		Shift(geom.Pt(50, 40), true).
		SetFill(style.Solid(style.RGB(0, 128, 255)), true)
}

func TestGroupWindowUnison(t *testing.T) {
	for _, tt := range []float64{0, 0.13, 0.5, 0.999, 1} {
		for i := range 5 {
			assert.Equal(t, tt, GroupWindow(i, 5, 0, tt))
		}
	}
}

func TestGroupWindowSequential(t *testing.T) {
	const n = 4
	for i := range n {
		start := float64(i) / n
		assert.Equal(t, 0.0, GroupWindow(i, n, 1, start), "window %d starts at 0", i)
		assert.Equal(t, 0.0, GroupWindow(i, n, 1, start-0.01))
		assert.Greater(t, GroupWindow(i, n, 1, start+0.01), 0.0)
		assert.InDelta(t, 1, GroupWindow(i, n, 1, start+1.0/n), 1e-12)
	}
	// no overlap: at any t at most one window is strictly inside (0, 1)
	for k := 0; k <= 200; k++ {
		tt := float64(k) / 200
		active := 0
		for i := range n {
			if v := GroupWindow(i, n, 1, tt); v > 1e-12 && v < 1-1e-12 {
				active++
			}
		}
		assert.LessOrEqual(t, active, 1, "t=%v", tt)
	}
}

func TestGroupWindowPartialLag(t *testing.T) {
	// lag 0.5, n 3: s = 1/6, L = 2/3
	assert.InDelta(t, 0.5, GroupWindow(0, 3, 0.5, 1.0/3), 1e-12)
	assert.InDelta(t, 0.25, GroupWindow(1, 3, 0.5, 1.0/3), 1e-12)
	assert.Equal(t, 0.0, GroupWindow(2, 3, 0.5, 1.0/3))
	assert.InDelta(t, 1, GroupWindow(2, 3, 0.5, 1), 1e-12)
}

func TestFadeOutRoundTrip(t *testing.T) {
	c := opaqueCircle()
	f := FadeOut(1, geom.Origin)

	first := f(c, 0)
	diff(t, c, first)

	prev := math.Inf(1)
	const steps = 30
	for i := 0; i <= steps; i++ {
		got := f(c, float64(i)/steps)
		assert.Less(t, got.FillOpacity, prev)
		prev = got.FillOpacity
		diff(t, c.Points(), got.Points())
	}
	assert.Equal(t, 0.0, prev)
}

func TestFadeInSettles(t *testing.T) {
	c := opaqueCircle()
	f := FadeIn(0.5, geom.Pt(0, 20))
	diff(t, c, f(c, 1))

	start := f(c, 0)
	assert.Zero(t, start.FillOpacity)
	assert.InDelta(t, c.Width()/2, start.Width(), 1e-9)
	diff(t, c.Center().Sub(geom.Pt(0, 20)), start.Center(), approx)
}

func TestCreateAndUncreate(t *testing.T) {
	c := opaqueCircle()
	assert.Empty(t, Create(c, 0).Subpaths)
	diff(t, c, Create(c, 1))
	diff(t, c, Uncreate(c, 0))
	assert.InDelta(t, c.Length()/2, Create(c, 0.5).Length(), 1e-3)
}

func TestDrawStrokeThenFill(t *testing.T) {
	c := opaqueCircle().SetStrokeWidth(0, true)
	diff(t, c, DrawStrokeThenFill(c, 1))

	half := DrawStrokeThenFill(c, 0.5)
	assert.Zero(t, half.FillOpacity)
	assert.Equal(t, outlineWidth, half.StrokeWidth)
	assert.InDelta(t, c.Length(), half.Length(), 1e-6)

	late := DrawStrokeThenFill(c, 0.75)
	assert.InDelta(t, 0.5, late.FillOpacity, 1e-12)
}

func TestWriteStaggersChildren(t *testing.T) {
	glyphs := vobject.Group(
		vobject.Square(10),
		vobject.Square(10).Shift(geom.Pt(20, 0), false),
		vobject.Square(10).Shift(geom.Pt(40, 0), false),
	)
	w := Write(1)
	mid := w(glyphs, 0.3)
	assert.Greater(t, mid.Subobjects[0].Length(), mid.Subobjects[1].Length())
	assert.Empty(t, mid.Subobjects[2].Subpaths)
	diff(t, glyphs, w(glyphs, 1))
}

func TestTransformAnimations(t *testing.T) {
	c := opaqueCircle()

	moved := Shift(geom.Pt(10, -4))(c, 0.5)
	diff(t, c.Center().Add(geom.Pt(5, -2)), moved.Center(), approx)

	to := MoveTo(geom.Pt(0, 0))(c, 1)
	diff(t, geom.Pt(0, 0), to.Center(), approx)

	scaled := ScaleInPlace(3)(c, 1)
	assert.InDelta(t, 3*c.Width(), scaled.Width(), 1e-9)
	diff(t, c.Center(), scaled.Center(), approx)

	sq := vobject.Rectangle(20, 10)
	turned := Rotate(math.Pi / 2)(sq, 1)
	assert.InDelta(t, 10, turned.Width(), 1e-9)

	diff(t, c, GrowFromCenter(c, 1))
	assert.InDelta(t, 0, GrowFromCenter(c, 0).Width(), 1e-12)

	spin := SpinningGrow(math.Pi)(sq, 1)
	assert.InDelta(t, 20, spin.Width(), 1e-9)
	assert.InDelta(t, 0, SpinningGrow(math.Pi)(sq, 0).Width(), 1e-12)
}

func TestStyleAnimations(t *testing.T) {
	c := opaqueCircle()
	red := style.Solid(style.RGB(255, 0, 0))

	assert.Equal(t, red, SetFill(red)(c, 1).Fill)
	assert.Equal(t, c.Fill, SetFill(red)(c, 0).Fill)
	assert.Equal(t, red, SetStroke(red)(c, 1).Stroke)

	faded := SetOpacity(0.2)(c, 0.5)
	assert.InDelta(t, 0.6, faded.FillOpacity, 1e-12)

	show := ShowTemporarily(0.4)
	diff(t, c, show(c, 0.3))
	assert.Zero(t, show(c, 0.4).FillOpacity)
	assert.Zero(t, show(c, 1).StrokeOpacity)

	ind := Indicate(1.5, style.RGB(255, 255, 0))
	diff(t, c, ind(c, 0))
	peak := ind(c, 0.5)
	assert.InDelta(t, 1.5*c.Width(), peak.Width(), 1e-6)
	assert.InDelta(t, 255, peak.Fill.Color.R, 1e-9)
	diff(t, c.Points(), ind(c, 1).Points(), approx)
}

func TestGrowArrowWithFinalTip(t *testing.T) {
	arrow := vobject.Arrow(geom.Pt(0, 0), geom.Pt(100, 0), 10)
	diff(t, arrow, GrowArrowWithFinalTip(arrow, 1))

	half := GrowArrowWithFinalTip(arrow, 0.5)
	assert.InDelta(t, 45, half.Subobjects[0].Width(), 1e-6)
	tip := half.Subobjects[1]
	assert.InDelta(t, arrow.Subobjects[1].Width(), tip.Width(), 1e-9)
	assert.InDelta(t, 55, tip.Right().X, 1e-6)
}

func TestMorphShapeBoundaries(t *testing.T) {
	a := opaqueCircle()
	b := vobject.Group(vobject.Square(8), vobject.RegularPolygon(5, 4).Shift(geom.Pt(30, 0), false))
	from, to := align.Align(a, b, align.DefaultFallback(a, b))

	m := MorphShape(b)
	diff(t, from, m(a, 0), cmpopts.EquateEmpty())
	diff(t, to, m(a, 1), cmpopts.EquateEmpty(),
		cmpopts.IgnoreFields(vobject.VectorObject{}, "Index", "Name"))
	// repeated calls are deterministic
	diff(t, m(a, 0.37), m(a, 0.37))
	diff(t, m(a, 0.37), MorphShape(b)(a, 0.37))
}

func TestMorphCacheKeepsOneAlignmentPerObject(t *testing.T) {
	target := vobject.Square(8)
	c := &morphCache{target: target, entries: make(map[int]morphEntry)}
	one := opaqueCircle().SetIndex(1, false)
	two := vobject.RegularPolygon(5, 4).SetIndex(2, false)

	m1 := c.morpher(one)
	m2 := c.morpher(two)
	assert.Same(t, m1, c.morpher(one))
	assert.Same(t, m2, c.morpher(two))
	assert.NotSame(t, m1, m2)

	moved := one.Shift(geom.Pt(1, 0), false)
	assert.NotSame(t, m1, c.morpher(moved))

	lagged := Lagged(0, MorphShape(target))
	got := lagged([]vobject.VectorObject{one, two}, 0.4)
	diff(t, align.Morph(one, target, 0.4), got[0], cmpopts.EquateEmpty())
	diff(t, align.Morph(two, target, 0.4), got[1], cmpopts.EquateEmpty())
}

func TestGroupAndCompose(t *testing.T) {
	g := vobject.Group(vobject.Square(2), vobject.Square(2))
	out := Group(0, Shift(geom.Pt(1, 0)), Shift(geom.Pt(0, 1)))(g, 1)
	diff(t, geom.Pt(1, 0), out.Subobjects[0].Center(), approx)
	diff(t, geom.Pt(0, 1), out.Subobjects[1].Center(), approx)

	both := Compose(Shift(geom.Pt(1, 0)), Shift(geom.Pt(0, 1)))(vobject.Square(2), 1)
	diff(t, geom.Pt(1, 1), both.Center(), approx)

	seq := Sequence(Shift(geom.Pt(10, 0)), Shift(geom.Pt(0, 10)))
	diff(t, geom.Pt(5, 0), seq(vobject.Square(2), 0.25).Center(), approx)
	diff(t, geom.Pt(10, 5), seq(vobject.Square(2), 0.75).Center(), approx)
}

func TestMultiFuncs(t *testing.T) {
	objs := []vobject.VectorObject{vobject.Square(2), vobject.Circle(1), vobject.Square(3)}
	assert.Len(t, Each(FadeOut(1, geom.Origin))(objs, 0.5), 3)

	lagged := Lagged(1, Shift(geom.Pt(3, 0)))(objs, 1.0/3)
	diff(t, geom.Pt(3, 0), lagged[0].Center(), approx)
	diff(t, geom.Pt(0, 0), lagged[1].Center(), approx)

	assert.Len(t, Parallel(Create)(objs, 1), 1)
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		f, err := Lookup(name)
		require.NoError(t, err, name)
		c := opaqueCircle()
		// every catalog entry is deterministic
		diff(t, f(c, 0.4), f(c, 0.4))
	}
	_, err := Lookup("teleport")
	assert.ErrorIs(t, err, ErrUnknown)
}
