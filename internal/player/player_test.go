package player

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/motion/internal/document"
)

func loaded(t *testing.T) *Player {
	t.Helper()
	s := document.NewEmptyScript("script_test", "player")
	s.Settings.Width, s.Settings.Height, s.Settings.FPS = 100, 100, 10
	s.Objects = []document.Object{{
		Index: 1, Kind: document.KindSquare,
		Data:      json.RawMessage(`{"side": 20}`),
		Transform: &document.Transform{X: 50, Y: 50},
		Style:     &document.Style{Fill: "#ff0000"},
	}}
	s.Steps = []document.Step{
		{Op: document.OpAdd, Indices: []int{1}},
		{Op: document.OpHold, Frames: 3},
	}

	p := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, p.Load(context.Background(), s))
	return p
}

func TestLoadRecordsFrames(t *testing.T) {
	p := loaded(t)
	assert.Equal(t, 3, p.TotalFrames())
	assert.Equal(t, 10.0, p.FPS())
	assert.Equal(t, 0, p.Frame())
	assert.False(t, p.IsPlaying())

	var commands []map[string]any
	require.NoError(t, json.Unmarshal([]byte(p.Render()), &commands))
	require.GreaterOrEqual(t, len(commands), 2)
	assert.Equal(t, "1", commands[len(commands)-1]["objectId"])

	var s document.Script
	require.NoError(t, json.Unmarshal([]byte(p.ScriptJSON()), &s))
	assert.Equal(t, "script_test", s.ID)
}

func TestPlayheadLoopsAndClamps(t *testing.T) {
	p := loaded(t)
	p.Tick()
	assert.Equal(t, 0, p.Frame(), "paused players stay put")

	p.Play()
	p.Tick()
	p.Tick()
	assert.Equal(t, 2, p.Frame())
	p.Tick()
	assert.Equal(t, 0, p.Frame())

	p.TogglePlay()
	assert.False(t, p.IsPlaying())

	p.SetPlayhead(99)
	assert.Equal(t, 2, p.Frame())
	p.SetPlayhead(-4)
	assert.Equal(t, 0, p.Frame())
}

func TestHitTestAndSelection(t *testing.T) {
	p := loaded(t)
	assert.Equal(t, "1", p.HitTest(50, 50))
	assert.Equal(t, "", p.HitTest(5, 5))

	_, ok := p.SelectionBounds()
	assert.False(t, ok)

	p.SetSelection([]string{"1"})
	r, ok := p.SelectionBounds()
	require.True(t, ok)
	assert.InDelta(t, 40, r.Min.X, 1e-6)
	assert.InDelta(t, 40, r.Min.Y, 1e-6)
	assert.InDelta(t, 60, r.Max.X, 1e-6)
	assert.InDelta(t, 60, r.Max.Y, 1e-6)

	p.SetSelection([]string{"7"})
	_, ok = p.SelectionBounds()
	assert.False(t, ok)
}

func TestFailedLoadKeepsRecording(t *testing.T) {
	p := loaded(t)
	assert.Error(t, p.LoadJSON(context.Background(), []byte(`{`)))
	assert.Equal(t, 3, p.TotalFrames())
}

func TestEmptyPlayer(t *testing.T) {
	p := New(nil)
	assert.Equal(t, "[]", p.Render())
	assert.Equal(t, "", p.HitTest(0, 0))
	assert.Equal(t, "{}", p.ScriptJSON())
	p.Play()
	assert.False(t, p.IsPlaying())
	assert.Equal(t, "[]", p.Tick())
}
