// Package player runs a script to completion up front and then scrubs and
// plays the recorded frames, for hosts that draw commands themselves such
// as the browser canvas.
package player

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/inamate/motion/internal/document"
	"github.com/inamate/motion/internal/engine"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/render"
	"github.com/inamate/motion/internal/scene"
)

type recorded struct {
	frame    scene.Frame // header only, for the viewport
	commands []render.DrawCommand
}

// Player holds the frames of one script run and a playhead over them.
type Player struct {
	logger *slog.Logger
	opts   []engine.Option

	mu        sync.Mutex
	script    *document.Script
	frames    []recorded
	frame     int
	playing   bool
	selection []string
}

func New(logger *slog.Logger, opts ...engine.Option) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{logger: logger, opts: opts}
}

// Load runs s offline and records every frame. On error the previous
// recording is kept.
func (p *Player) Load(ctx context.Context, s *document.Script) error {
	var frames []recorded
	r := scene.RendererFunc(func(_ context.Context, f scene.Frame) error {
		commands := render.Compile(f)
		f.Objects = nil
		frames = append(frames, recorded{frame: f, commands: commands})
		return nil
	})
	opts := append([]engine.Option{engine.WithClock(scene.OfflineClock{}), engine.WithLogger(p.logger)}, p.opts...)
	if err := engine.NewEngine(opts...).Run(ctx, s, r); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.script, p.frames = s, frames
	p.frame, p.playing, p.selection = 0, false, nil
	p.logger.Info("script recorded", "script", s.ID, "frames", len(frames))
	return nil
}

// LoadJSON parses and loads a script.
func (p *Player) LoadJSON(ctx context.Context, data []byte) error {
	s, err := document.Parse(data)
	if err != nil {
		return err
	}
	return p.Load(ctx, s)
}

// SetPlayhead moves to frame, clamped to the recording.
func (p *Player) SetPlayhead(frame int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame = max(0, min(frame, len(p.frames)-1))
}

func (p *Player) Play() {
	p.mu.Lock()
	p.playing = len(p.frames) > 0
	p.mu.Unlock()
}

func (p *Player) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

func (p *Player) TogglePlay() {
	p.mu.Lock()
	p.playing = !p.playing && len(p.frames) > 0
	p.mu.Unlock()
}

// Tick advances one frame when playing, looping at the end, and returns
// the current frame's draw commands as JSON. Hosts call it once per
// display frame.
func (p *Player) Tick() string {
	p.mu.Lock()
	if p.playing {
		p.frame = (p.frame + 1) % len(p.frames)
	}
	p.mu.Unlock()
	return p.Render()
}

// Render returns the current frame's draw commands as JSON.
func (p *Player) Render() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.frames) == 0 {
		return "[]"
	}
	out, err := render.DrawCommandsToJSON(p.frames[p.frame].commands)
	if err != nil {
		p.logger.Error("encode draw commands", "frame", p.frame, "error", err)
	}
	return out
}

// HitTest returns the object id under pixel (x, y) in the current frame.
func (p *Player) HitTest(x, y float64) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.frames) == 0 {
		return ""
	}
	rec := p.frames[p.frame]
	return render.HitTest(rec.commands, rec.frame, x, y)
}

// SetSelection sets the selected object ids. An id selects its
// descendants too.
func (p *Player) SetSelection(ids []string) {
	p.mu.Lock()
	p.selection = ids
	p.mu.Unlock()
}

// SelectionBounds returns the pixel-space box around the selection in the
// current frame.
func (p *Player) SelectionBounds() (geom.Rect, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.frames) == 0 || len(p.selection) == 0 {
		return geom.Rect{}, false
	}
	rec := p.frames[p.frame]
	var (
		bounds geom.Rect
		found  bool
	)
	for _, c := range rec.commands {
		if c.ObjectID == "" || !selected(p.selection, c.ObjectID) {
			continue
		}
		if !found {
			bounds, found = c.Bounds, true
			continue
		}
		bounds = bounds.Union(c.Bounds)
	}
	if !found {
		return geom.Rect{}, false
	}
	return rec.frame.Viewport().TransformRect(bounds), true
}

func selected(ids []string, id string) bool {
	for _, s := range ids {
		if id == s || strings.HasPrefix(id, s+".") {
			return true
		}
	}
	return false
}

// Frame returns the playhead position.
func (p *Player) Frame() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) TotalFrames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

// FPS returns the frame rate of the loaded script, or 0.
func (p *Player) FPS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.script == nil {
		return 0
	}
	return p.script.Settings.FPS
}

// ScriptJSON returns the loaded script, or "{}".
func (p *Player) ScriptJSON() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.script == nil {
		return "{}"
	}
	data, err := json.Marshal(p.script)
	if err != nil {
		return "{}"
	}
	return string(data)
}
