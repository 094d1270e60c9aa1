package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/motion/internal/animation"
	"github.com/inamate/motion/internal/document"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/ratefunc"
	"github.com/inamate/motion/internal/scene"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/typeid"
	"github.com/inamate/motion/internal/typeset"
	"github.com/inamate/motion/internal/vobject"
)

type recorder struct {
	mu     sync.Mutex
	frames []scene.Frame
}

func (r *recorder) RenderFrame(_ context.Context, f scene.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

// fakeTypesetter returns one square glyph whose side is the em size.
type fakeTypesetter struct {
	size float64
	err  error
}

func (f fakeTypesetter) Typeset(_ context.Context, text string) (vobject.VectorObject, error) {
	if f.err != nil {
		return vobject.VectorObject{}, f.err
	}
	glyph := vobject.Square(f.size).Shift(geom.Pt(f.size/2, -f.size/2), false).SetName(text)
	return vobject.Group(glyph), nil
}

func fakeTypesetters(err error) TypesetterFunc {
	return func(size float64) (typeset.Producer, error) {
		return fakeTypesetter{size: size, err: err}, nil
	}
}

func newEngine(opts ...Option) *Engine {
	opts = append([]Option{WithClock(scene.OfflineClock{}), WithTypesetter(fakeTypesetters(nil))}, opts...)
	return NewEngine(opts...)
}

func script(objects []document.Object, steps ...document.Step) *document.Script {
	s := document.NewEmptyScript("script_test", "test")
	s.Settings.FPS = 10
	s.Objects = objects
	s.Steps = steps
	return s
}

func TestBuildShapesWithTransformAndStyle(t *testing.T) {
	e := newEngine()
	width := 3.0
	s := script([]document.Object{
		{
			Index:     1,
			Kind:      document.KindCircle,
			Data:      json.RawMessage(`{"radius": 25}`),
			Transform: &document.Transform{X: 100, Y: 50},
			Style:     &document.Style{Fill: "#ff0000", StrokeWidth: &width, LineCap: "butt"},
		},
		{
			Index:     2,
			Kind:      document.KindRectangle,
			Data:      json.RawMessage(`{"width": 40, "height": 20}`),
			Transform: &document.Transform{SX: 2, R: 90},
		},
		{
			Index: 3,
			Kind:  document.KindGroup,
			Children: []document.Object{
				{Index: 4, Kind: document.KindSquare, Data: json.RawMessage(`{"side": 10}`)},
				{Index: 5, Kind: document.KindPath, Data: json.RawMessage(`{"d": "M20 0 L30 0"}`)},
			},
		},
	})
	_, err := e.Load(context.Background(), s, nil)
	require.NoError(t, err)

	circle, ok := e.Object(1)
	require.True(t, ok)
	assert.InDelta(t, 100, circle.Center().X, 1e-9)
	assert.InDelta(t, 50, circle.Center().Y, 1e-9)
	assert.InDelta(t, 50, circle.Width(), 1e-9)
	assert.Equal(t, style.RGB(255, 0, 0), circle.Fill.Color)
	assert.Equal(t, 3.0, circle.StrokeWidth)
	assert.Equal(t, vobject.CapButt, circle.LineCap)
	assert.Equal(t, 1, circle.Index)

	// stretched to 80 wide, then turned upright
	rect, _ := e.Object(2)
	assert.InDelta(t, 20, rect.Width(), 1e-9)
	assert.InDelta(t, 80, rect.Height(), 1e-9)

	group, _ := e.Object(3)
	require.Len(t, group.Subobjects, 2)
	assert.Equal(t, 4, group.Subobjects[0].Index)
	assert.Equal(t, 5, group.Subobjects[1].Index)
	assert.InDelta(t, 35, group.Width(), 1e-9)
}

func TestBuildErrors(t *testing.T) {
	tests := map[string]document.Object{
		"unknown kind": {Index: 1, Kind: "hexapod"},
		"bad data":     {Index: 1, Kind: document.KindCircle, Data: json.RawMessage(`{"radius": "big"}`)},
		"bad color":    {Index: 1, Kind: document.KindCircle, Style: &document.Style{Fill: "notacolor"}},
		"bad path":     {Index: 1, Kind: document.KindPath, Data: json.RawMessage(`{"d": "M0 0 L"}`)},
		"bad svg":      {Index: 1, Kind: document.KindSVG, Data: json.RawMessage(`{"svg": "<html/>"}`)},
		"few sides":    {Index: 1, Kind: document.KindRegularPolygon, Data: json.RawMessage(`{"sides": 2}`)},
		"bad cap":      {Index: 1, Kind: document.KindCircle, Style: &document.Style{LineCap: "pointy"}},
	}
	for name, decl := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newEngine().Load(context.Background(), script([]document.Object{decl}), nil)
			assert.Error(t, err)
		})
	}
}

func TestTextIsCenteredAndSized(t *testing.T) {
	e := newEngine(WithFontSize(30))
	s := script([]document.Object{
		{Index: 1, Kind: document.KindText, Data: json.RawMessage(`{"text": "hi"}`),
			Transform: &document.Transform{X: 10, Y: 20}},
		{Index: 2, Kind: document.KindText, Data: json.RawMessage(`{"text": "big", "size": 90}`)},
	})
	_, err := e.Load(context.Background(), s, nil)
	require.NoError(t, err)

	small, _ := e.Object(1)
	assert.InDelta(t, 30, small.Width(), 1e-9)
	assert.InDelta(t, 10, small.Center().X, 1e-9)
	assert.InDelta(t, 20, small.Center().Y, 1e-9)

	big, _ := e.Object(2)
	assert.InDelta(t, 90, big.Width(), 1e-9)
}

func TestProducerFailurePropagates(t *testing.T) {
	boom := errors.New("typesetter unavailable")
	e := newEngine(WithTypesetter(fakeTypesetters(boom)))
	s := script([]document.Object{
		{Index: 1, Kind: document.KindText, Data: json.RawMessage(`{"text": "x"}`)},
	})
	_, err := e.Load(context.Background(), s, nil)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, e.Scene())
}

func TestPlayBringsObjectOnStage(t *testing.T) {
	rec := &recorder{}
	e := newEngine()
	s := script(
		[]document.Object{{Index: 1, Kind: document.KindSquare}},
		document.Step{Op: document.OpPlay, Indices: []int{1}, Animation: "fadeIn", Frames: 4},
	)
	require.NoError(t, e.Run(context.Background(), s, rec))
	require.Len(t, rec.frames, 4)
	assert.Len(t, rec.frames[0].Objects, 1)
	assert.Less(t, rec.frames[0].Objects[0].FillOpacity, 1.0)
	got, ok := e.Scene().Get(1)
	require.True(t, ok)
	assert.InDelta(t, 1, got.StrokeOpacity, 1e-9)
}

func TestMorphToDeclaredTarget(t *testing.T) {
	e := newEngine()
	s := script(
		[]document.Object{
			{Index: 1, Kind: document.KindSquare, Data: json.RawMessage(`{"side": 100}`)},
			{Index: 2, Kind: document.KindCircle, Data: json.RawMessage(`{"radius": 50}`),
				Transform: &document.Transform{X: 200}},
		},
		document.Step{Op: document.OpAdd, Indices: []int{1}},
		document.Step{Op: document.OpPlay, Indices: []int{1}, Animation: "morph",
			Params: json.RawMessage(`{"target": 2}`), Frames: 3, Rate: "linear"},
	)
	require.NoError(t, e.Run(context.Background(), s, nil))
	got, _ := e.Scene().Get(1)
	assert.InDelta(t, 200, got.Center().X, 1e-6)
	assert.InDelta(t, 100, got.Width(), 1e-6)
	// the target was never added
	_, ok := e.Scene().Get(2)
	assert.False(t, ok)
}

func TestLagRatioStaggersObjects(t *testing.T) {
	rec := &recorder{}
	e := newEngine()
	lag := 1.0
	s := script(
		[]document.Object{
			{Index: 1, Kind: document.KindSquare},
			{Index: 2, Kind: document.KindSquare, Transform: &document.Transform{X: 200}},
		},
		document.Step{Op: document.OpPlay, Indices: []int{1, 2}, Animation: "shift",
			Params: json.RawMessage(`{"shift": {"x": 0, "y": 100}}`), Frames: 4, Rate: "linear", LagRatio: &lag},
	)
	require.NoError(t, e.Run(context.Background(), s, rec))
	// halfway through, the first has finished and the second not started
	mid := rec.frames[1].Objects
	require.Len(t, mid, 2)
	assert.InDelta(t, 100, mid[0].Center().Y, 1e-9)
	assert.InDelta(t, 0, mid[1].Center().Y, 1e-9)
}

func TestStepsDriveScene(t *testing.T) {
	rec := &recorder{}
	e := newEngine()
	s := script(
		[]document.Object{{Index: 1, Kind: document.KindCircle}, {Index: 2, Kind: document.KindSquare}},
		document.Step{Op: document.OpAdd, Indices: []int{1, 2}},
		document.Step{Op: document.OpSave, Slot: 3},
		document.Step{Op: document.OpRemove, Indices: []int{1}},
		document.Step{Op: document.OpRender},
		document.Step{Op: document.OpRestore, Slot: 3},
		document.Step{Op: document.OpBackground, Background: "#000000"},
		document.Step{Op: document.OpWait, Seconds: 0.5},
		document.Step{Op: document.OpCamera, TopLeft: &document.Point{X: -10, Y: -10},
			BottomRight: &document.Point{X: 10, Y: 10}, Frames: 2},
		document.Step{Op: document.OpHold, Frames: 3},
	)
	require.NoError(t, e.Run(context.Background(), s, rec))

	// render 1 + wait 5 (offline hold) + camera 2 + hold 3
	require.Len(t, rec.frames, 11)
	assert.Len(t, rec.frames[0].Objects, 1)
	assert.Len(t, rec.frames[1].Objects, 2)
	assert.Equal(t, style.Solid(style.Black), rec.frames[1].Background)
	last := rec.frames[len(rec.frames)-1]
	assert.Equal(t, geom.Pt(-10, -10), last.TopLeft)
	assert.Equal(t, geom.Pt(10, 10), last.BottomRight)
}

func TestStepErrors(t *testing.T) {
	objects := []document.Object{{Index: 1, Kind: document.KindSquare}}
	tests := []struct {
		name string
		step document.Step
		want error
	}{
		{"unknown animation", document.Step{Op: document.OpPlay, Indices: []int{1}, Animation: "teleport"}, animation.ErrUnknown},
		{"unknown rate", document.Step{Op: document.OpPlay, Indices: []int{1}, Animation: "create", Rate: "warp"}, ratefunc.ErrUnknown},
		{"unknown index", document.Step{Op: document.OpPlay, Indices: []int{9}, Animation: "create"}, scene.ErrUnknownIndex},
		{"unsaved slot", document.Step{Op: document.OpRestore, Slot: 7}, scene.ErrUnsavedState},
		{"morph target", document.Step{Op: document.OpPlay, Indices: []int{1}, Animation: "morph",
			Params: json.RawMessage(`{"target": 5}`)}, ErrUnknownObject},
		{"missing color", document.Step{Op: document.OpPlay, Indices: []int{1}, Animation: "setFill"}, ErrBadParams},
		{"malformed params", document.Step{Op: document.OpPlay, Indices: []int{1}, Animation: "shift",
			Params: json.RawMessage(`{"shift": 3}`)}, ErrBadParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newEngine().Run(context.Background(), script(objects, tt.step), nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.ErrorIs(t, newEngine().Execute(context.Background(), document.Step{Op: document.OpRender}), ErrNotLoaded)
}

func TestImageObject(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	data, err := json.Marshal(map[string]string{"src": src})
	require.NoError(t, err)

	e := newEngine()
	s := script([]document.Object{
		{Index: 1, Kind: document.KindImage, Data: data, Transform: &document.Transform{X: 50, Y: 50, SX: 2, SY: 2}},
	})
	_, err = e.Load(context.Background(), s, nil)
	require.NoError(t, err)

	o, _ := e.Object(1)
	assert.InDelta(t, 16, o.Width(), 1e-9)
	require.Equal(t, style.KindImage, o.Fill.Kind)
	assert.Equal(t, geom.R(geom.Pt(42, 46), geom.Pt(58, 54)), o.Fill.Image.Rect)
}

func TestImageAsset(t *testing.T) {
	dir := t.TempDir()
	id := typeid.NewAssetID()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 6))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".png"), buf.Bytes(), 0o644))

	decl := []document.Object{{Index: 1, Kind: document.KindImage, Data: json.RawMessage(`{"asset": "` + id + `"}`)}}
	e := newEngine(WithAssetDir(dir))
	_, err := e.Load(context.Background(), script(decl), nil)
	require.NoError(t, err)
	o, _ := e.Object(1)
	assert.InDelta(t, 10, o.Width(), 1e-9)
	assert.InDelta(t, 6, o.Height(), 1e-9)

	_, err = newEngine().Load(context.Background(), script(decl), nil)
	assert.Error(t, err, "no asset directory")

	bad := []document.Object{{Index: 1, Kind: document.KindImage, Data: json.RawMessage(`{"asset": "../etc/passwd"}`)}}
	_, err = newEngine(WithAssetDir(dir)).Load(context.Background(), script(bad), nil)
	assert.Error(t, err)
}

func TestRunSampleScript(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(WithClock(scene.OfflineClock{}))
	require.NoError(t, e.Run(context.Background(), document.NewSampleScript(), rec))
	assert.Equal(t, e.Scene().FrameCount(), len(rec.frames))
	assert.Greater(t, len(rec.frames), 100)
	assert.Len(t, rec.frames[len(rec.frames)-1].Objects, 5)
}

func TestStopEndsRun(t *testing.T) {
	e := newEngine()
	s := script(
		[]document.Object{{Index: 1, Kind: document.KindSquare}},
		document.Step{Op: document.OpAdd, Indices: []int{1}},
		document.Step{Op: document.OpPlay, Indices: []int{1}, Animation: "create", Frames: 50},
	)
	var calls int
	r := scene.RendererFunc(func(context.Context, scene.Frame) error {
		calls++
		if calls == 3 {
			e.Stop()
		}
		return nil
	})
	err := e.Run(context.Background(), s, r)
	assert.ErrorIs(t, err, scene.ErrStopped)
	assert.Less(t, calls, 50)
}
