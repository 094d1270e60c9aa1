package geom

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestCubicSplitRetracesCurve(t *testing.T) {
	c := CubicBezier{Pt(0, 0), Pt(1, 3), Pt(4, -2), Pt(5, 1)}
	left, right := c.SplitAt(0.3)

	for i := range 11 {
		u := float64(i) / 10
		diff(t, c.Eval(0.3*u), left.Eval(u), approx)
		diff(t, c.Eval(0.3+0.7*u), right.Eval(u), approx)
	}
}

func TestCubicSplitN(t *testing.T) {
	c := CubicBezier{Pt(0, 0), Pt(0, 10), Pt(10, 10), Pt(10, 0)}
	parts := c.SplitN(4)
	require.Len(t, parts, 4)
	for i, p := range parts {
		diff(t, c.Eval(float64(i)/4), p.P0, approx)
		diff(t, c.Eval(float64(i+1)/4), p.P3, approx)
	}
	assert.Len(t, c.SplitN(0), 1)
}

func TestCubicSubsegmentBounds(t *testing.T) {
	c := LineCubic(Pt(0, 0), Pt(10, 0))
	s := c.Subsegment(0.25, 0.75)
	diff(t, Pt(2.5, 0), s.P0, approx)
	diff(t, Pt(7.5, 0), s.P3, approx)

	assert.True(t, c.Subsegment(0.5, 0.5).IsDegenerate())
	assert.Equal(t, c, c.Subsegment(-1, 2))
}

func TestCubicBoundingBoxIsTight(t *testing.T) {
	c := CubicBezier{Pt(0, 0), Pt(0, 10), Pt(10, 10), Pt(10, 0)}
	bb := c.BoundingBox()
	assert.InDelta(t, 0, bb.Min.Y, 1e-9)
	assert.InDelta(t, 7.5, bb.Max.Y, 1e-9)
	assert.InDelta(t, 10, bb.Width(), 1e-9)
}

func TestCubicArclen(t *testing.T) {
	line := LineCubic(Pt(0, 0), Pt(3, 4))
	assert.InDelta(t, 5, line.Arclen(1e-6), 1e-6)

	// quarter circle of radius 1
	quarter := ArcCubics(Pt(0, 0), 1, 1, 0, 0, math.Pi/2)
	require.Len(t, quarter, 1)
	assert.InDelta(t, math.Pi/2, quarter[0].Arclen(1e-6), 1e-3)
}

func TestQuadCubicMatchesQuadratic(t *testing.T) {
	p0, c, p1 := Pt(0, 0), Pt(5, 10), Pt(10, 0)
	cubic := QuadCubic(p0, c, p1)
	for i := range 11 {
		u := float64(i) / 10
		mt := 1 - u
		want := p0.Mul(mt * mt).Add(c.Mul(2 * mt * u)).Add(p1.Mul(u * u))
		diff(t, want, cubic.Eval(u), approx)
	}
}

func TestEndpointArcHalfCircle(t *testing.T) {
	arc := EndpointArcCubics(Pt(-1, 0), 1, 1, 0, false, true, Pt(1, 0))
	require.Len(t, arc, 2)
	diff(t, Pt(-1, 0), arc[0].P0, approx)
	diff(t, Pt(1, 0), arc[1].P3, approx)
	mid := arc[0].P3
	assert.InDelta(t, 1, mid.Hypot(), 1e-9)
}

func TestArcCubicsQuarterTurns(t *testing.T) {
	full := ArcCubics(Pt(5, 5), 10, 10, 0, 0, 2*math.Pi)
	require.Len(t, full, 4)
	for i, c := range full {
		assert.InDelta(t, 10, c.P0.Sub(Pt(5, 5)).Hypot(), 1e-9)
		assert.InDelta(t, 10, c.Eval(0.5).Sub(Pt(5, 5)).Hypot(), 1e-3)
		if i > 0 {
			diff(t, full[i-1].P3, c.P0, approx)
		}
	}
	diff(t, full[0].P0, full[3].P3, approx)

	assert.Len(t, ArcCubics(Origin, 500, 500, 0, 0, math.Pi), 2)
	assert.Len(t, ArcCubics(Origin, 1, 1, 0, 0, -math.Pi/3), 1)

	flat := ArcCubics(Pt(1, 2), 3, 3, 0, 0.5, 0)
	require.Len(t, flat, 1)
	assert.True(t, flat[0].IsDegenerate())
}

func TestCubicExtremaSorted(t *testing.T) {
	c := CubicBezier{Pt(0, 0), Pt(10, 10), Pt(-5, 10), Pt(5, 0)}
	ts := c.Extrema()
	require.NotEmpty(t, ts)
	for i, x := range ts {
		assert.True(t, x > 0 && x < 1)
		if i > 0 {
			assert.LessOrEqual(t, ts[i-1], x)
		}
	}
}
