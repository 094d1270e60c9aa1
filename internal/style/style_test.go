package style

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/motion/internal/geom"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#ff0000", RGB(255, 0, 0)},
		{"#0f0", RGB(0, 255, 0)},
		{"#0000ff80", RGBA(0, 0, 255, 128.0/255)},
		{"rgb(10, 20, 30)", RGB(10, 20, 30)},
		{"rgba(10,20,30,0.5)", RGBA(10, 20, 30, 0.5)},
		{"rgb(100%, 0%, 0%)", RGB(255, 0, 0)},
		{"white", White},
		{"none", Transparent},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			require.NoError(t, err)
			if d := cmp.Diff(tt.want, got, approx); d != "" {
				t.Errorf("ParseColor(%q) mismatch (-want +got):\n%s", tt.in, d)
			}
		})
	}

	_, err := ParseColor("not-a-color")
	assert.ErrorIs(t, err, ErrInvalidColor)
}

func TestColorNRGBAAppliesOpacity(t *testing.T) {
	n := RGBA(255, 128, 0, 1).NRGBA(0.5)
	assert.Equal(t, uint8(255), n.R)
	assert.Equal(t, uint8(128), n.G)
	assert.Equal(t, uint8(128), n.A)
	assert.Equal(t, "#ff8000", RGB(255, 128, 0).Hex())
}

func TestLerpColors(t *testing.T) {
	got := Lerp(Solid(Black), Solid(White), 0.5)
	assert.Equal(t, KindColor, got.Kind)
	assert.InDelta(t, 127.5, got.Color.R, 1e-9)
	assert.Equal(t, Solid(White), Lerp(Solid(Black), Solid(White), 1))
	assert.Equal(t, Solid(Black), Lerp(Solid(Black), Solid(White), 0))
}

func TestLerpLinearGradientsResamplesStops(t *testing.T) {
	a := Linear(geom.Pt(0, 0), geom.Pt(10, 0),
		ColorStop{0, Black}, ColorStop{1, Black})
	b := Linear(geom.Pt(0, 0), geom.Pt(20, 0),
		ColorStop{0, White}, ColorStop{0.5, White}, ColorStop{1, White})

	got := Lerp(a, b, 0.5)
	require.Equal(t, KindLinearGradient, got.Kind)
	assert.InDelta(t, 15, got.Linear.End.X, 1e-9)
	require.Len(t, got.Linear.Stops, 3)
	for _, st := range got.Linear.Stops {
		assert.InDelta(t, 127.5, st.Color.R, 1e-9)
	}
}

func TestLerpGradientStopsUnionOffsets(t *testing.T) {
	a := Linear(geom.Pt(0, 0), geom.Pt(10, 0),
		ColorStop{0, RGB(255, 0, 0)}, ColorStop{1, RGB(0, 0, 255)})
	b := Linear(geom.Pt(0, 0), geom.Pt(10, 0),
		ColorStop{0, RGB(0, 255, 0)}, ColorStop{0.5, Black}, ColorStop{1, White})

	got := Lerp(a, b, 0.5)
	require.Equal(t, KindLinearGradient, got.Kind)
	want := []ColorStop{
		{0, RGB(127.5, 127.5, 0)},
		{0.5, RGB(63.75, 0, 63.75)},
		{1, RGB(127.5, 127.5, 255)},
	}
	if diff := cmp.Diff(want, got.Linear.Stops, approx); diff != "" {
		t.Errorf("stops mismatch (-want +got):\n%s", diff)
	}
}

func TestLerpColorPromotesToGradient(t *testing.T) {
	g := Radial(geom.Pt(0, 0), geom.Pt(0, 0), 5, ColorStop{0, White}, ColorStop{1, Black})
	got := Lerp(Solid(Black), g, 0.5)
	require.Equal(t, KindRadialGradient, got.Kind)
	assert.InDelta(t, 127.5, got.Radial.Stops[0].Color.R, 1e-9)
	assert.InDelta(t, 0, got.Radial.Stops[1].Color.R, 1e-9)
}

func TestLerpMismatchedKindsCrossfades(t *testing.T) {
	a := Linear(geom.Pt(0, 0), geom.Pt(1, 0), ColorStop{0, White}, ColorStop{1, Black})
	b := Image([]byte{1, 2, 3}, geom.R(geom.Pt(0, 0), geom.Pt(1, 1)))

	early := Lerp(a, b, 0.25)
	assert.Equal(t, KindLinearGradient, early.Kind)
	assert.InDelta(t, 0.5, early.Alpha(), 1e-9)

	late := Lerp(a, b, 0.75)
	assert.Equal(t, KindImage, late.Kind)
	assert.InDelta(t, 0.5, late.Alpha(), 1e-9)
	// the inputs are untouched
	assert.Equal(t, 1.0, a.Alpha())
	assert.Equal(t, 1.0, b.Alpha())
}

func TestColorAtLinear(t *testing.T) {
	s := Linear(geom.Pt(0, 0), geom.Pt(10, 0), ColorStop{0, Black}, ColorStop{1, White})
	if d := cmp.Diff(RGB(127.5, 127.5, 127.5), s.ColorAt(geom.Pt(5, 3)), approx); d != "" {
		t.Errorf("ColorAt mismatch (-want +got):\n%s", d)
	}
	assert.Equal(t, Black, s.ColorAt(geom.Pt(-4, 0)))
	assert.Equal(t, White, s.ColorAt(geom.Pt(40, 0)))
}

func TestColorAtRadial(t *testing.T) {
	s := Radial(geom.Pt(0, 0), geom.Pt(0, 0), 10, ColorStop{0, Black}, ColorStop{1, White})
	assert.Equal(t, Black, s.ColorAt(geom.Pt(0, 0)))
	assert.InDelta(t, 127.5, s.ColorAt(geom.Pt(0, 5)).R, 1e-9)
	assert.Equal(t, White, s.ColorAt(geom.Pt(30, 0)))
}

func TestTransformMovesGradientGeometry(t *testing.T) {
	s := Radial(geom.Pt(1, 1), geom.Pt(1, 1), 2).Transform(geom.Scale(2, 2))
	assert.Equal(t, geom.Pt(2, 2), s.Radial.Center)
	assert.InDelta(t, 4, s.Radial.Radius, 1e-9)
}
