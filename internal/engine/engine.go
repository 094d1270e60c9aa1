package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/motion/internal/document"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/scene"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/typeset"
	"github.com/inamate/motion/internal/vobject"
)

var (
	ErrUnknownObject = errors.New("unknown object")
	ErrNotLoaded     = errors.New("no script loaded")
	ErrBadParams     = errors.New("bad animation params")
)

// TypesetterFunc returns a text producer for an em size.
type TypesetterFunc func(size float64) (typeset.Producer, error)

// DefaultTypesetter sets text in Latin Modern Roman.
func DefaultTypesetter(size float64) (typeset.Producer, error) {
	return typeset.Default(typeset.WithSize(size))
}

// Engine runs scene scripts: it builds the declared objects, owns the scene
// they play on and executes the steps in order.
type Engine struct {
	newTypesetter TypesetterFunc
	fontSize      float64
	assetDir      string
	clock         scene.Clock
	logger        *slog.Logger

	mu        sync.Mutex
	producers map[float64]typeset.Producer

	script   *document.Script
	declared map[int]vobject.VectorObject
	scene    *scene.Scene
}

type Option func(*Engine)

func WithTypesetter(fn TypesetterFunc) Option {
	return func(e *Engine) { e.newTypesetter = fn }
}

// WithFontSize sets the em size for text objects that do not give one.
func WithFontSize(size float64) Option {
	return func(e *Engine) {
		if size > 0 {
			e.fontSize = size
		}
	}
}

// WithAssetDir sets where image objects find uploaded assets.
func WithAssetDir(dir string) Option {
	return func(e *Engine) { e.assetDir = dir }
}

// WithClock sets the scene clock. With scene.OfflineClock wait steps hold
// frames instead of sleeping, so exported videos keep their pauses.
func WithClock(c scene.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		newTypesetter: DefaultTypesetter,
		fontSize:      typeset.DefaultSize,
		clock:         scene.RealtimeClock{},
		logger:        slog.Default(),
		producers:     make(map[float64]typeset.Producer),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) typesetter(size float64) (typeset.Producer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.producers[size]; ok {
		return p, nil
	}
	p, err := e.newTypesetter(size)
	if err != nil {
		return nil, fmt.Errorf("typesetter: %w", err)
	}
	e.producers[size] = p
	return p, nil
}

// Load builds every declared object and creates a fresh scene rendering to
// r. Producer failures abort the load unchanged.
func (e *Engine) Load(ctx context.Context, s *document.Script, r scene.Renderer) (*scene.Scene, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	opts := []scene.Option{scene.WithClock(e.clock), scene.WithLogger(e.logger)}
	if s.Settings.Background != "" {
		c, err := style.ParseColor(s.Settings.Background)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		opts = append(opts, scene.WithBackground(style.Solid(c)))
	}
	if s.Settings.TopLeft != nil && s.Settings.BottomRight != nil {
		opts = append(opts, scene.WithCorners(point(s.Settings.TopLeft), point(s.Settings.BottomRight)))
	}

	declared := make(map[int]vobject.VectorObject, len(s.Objects))
	for _, decl := range s.Objects {
		o, err := e.build(ctx, decl)
		if err != nil {
			return nil, err
		}
		declared[decl.Index] = o
	}

	e.script = s
	e.declared = declared
	e.scene = scene.New(s.Settings.Width, s.Settings.Height, s.Settings.FPS, r, opts...)
	e.logger.Info("script loaded", "script", s.ID, "name", s.Name, "objects", len(declared), "steps", len(s.Steps))
	return e.scene, nil
}

// Run loads s and executes all of its steps.
func (e *Engine) Run(ctx context.Context, s *document.Script, r scene.Renderer) error {
	if _, err := e.Load(ctx, s, r); err != nil {
		return err
	}
	start := time.Now()
	if err := e.Execute(ctx, s.Steps...); err != nil {
		return err
	}
	e.logger.Info("script finished", "script", s.ID, "frames", e.scene.FrameCount(), "elapsed", time.Since(start))
	return nil
}

// Execute runs steps on the loaded scene, stopping at the first error.
func (e *Engine) Execute(ctx context.Context, steps ...document.Step) error {
	if e.scene == nil {
		return ErrNotLoaded
	}
	for i, st := range steps {
		if err := e.step(ctx, st); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, st.Op, err)
		}
	}
	return nil
}

func (e *Engine) step(ctx context.Context, st document.Step) error {
	sc := e.scene
	frames := st.Duration(sc.FPS())
	if frames == 0 {
		frames = sc.FramesFor(time.Second)
	}
	e.logger.Debug("step", "op", st.Op, "indices", st.Indices, "animation", st.Animation, "frames", frames)

	switch st.Op {
	case document.OpAdd:
		objs, err := e.declarations(st.Indices)
		if err != nil {
			return err
		}
		sc.Add(objs...)
		return nil

	case document.OpRemove:
		sc.Remove(st.Indices...)
		return nil

	case document.OpPlay:
		fn, err := e.resolveAnimation(st)
		if err != nil {
			return err
		}
		rf, err := rate(st.Rate)
		if err != nil {
			return err
		}
		// playing an object that is not on stage brings it in first
		for _, idx := range st.Indices {
			if _, ok := sc.Get(idx); ok {
				continue
			}
			o, ok := e.declared[idx]
			if !ok {
				return fmt.Errorf("index %d: %w", idx, scene.ErrUnknownIndex)
			}
			sc.Add(o)
		}
		return sc.Play(ctx, fn, st.Indices, frames, rf)

	case document.OpWait:
		if _, offline := e.clock.(scene.OfflineClock); offline {
			return sc.Hold(ctx, frames)
		}
		return sc.Sleep(ctx, time.Duration(float64(frames)/sc.FPS()*float64(time.Second)))

	case document.OpHold:
		return sc.Hold(ctx, frames)

	case document.OpCamera:
		rf, err := rate(st.Rate)
		if err != nil {
			return err
		}
		return sc.PlayCamera(ctx, point(st.TopLeft), point(st.BottomRight), frames, rf)

	case document.OpBackground:
		c, err := style.ParseColor(st.Background)
		if err != nil {
			return err
		}
		sc.SetBackground(style.Solid(c))
		return nil

	case document.OpSave:
		sc.SaveState(st.Slot)
		return nil

	case document.OpRestore:
		return sc.Restore(st.Slot)

	case document.OpRender:
		return sc.RenderFrame(ctx)
	}
	return fmt.Errorf("unknown op %q", st.Op)
}

func (e *Engine) declarations(indices []int) ([]vobject.VectorObject, error) {
	out := make([]vobject.VectorObject, 0, len(indices))
	for _, idx := range indices {
		o, ok := e.declared[idx]
		if !ok {
			return nil, fmt.Errorf("index %d: %w", idx, ErrUnknownObject)
		}
		out = append(out, o)
	}
	return out, nil
}

// Scene returns the scene of the loaded script, or nil.
func (e *Engine) Scene() *scene.Scene { return e.scene }

// Script returns the loaded script, or nil.
func (e *Engine) Script() *document.Script { return e.script }

// Object returns the declared object at idx as built at load time.
func (e *Engine) Object(idx int) (vobject.VectorObject, bool) {
	o, ok := e.declared[idx]
	return o, ok
}

// Stop asks a running script to return at its next frame boundary.
func (e *Engine) Stop() {
	if e.scene != nil {
		e.scene.Stop()
	}
}

// Bounds returns the bounding box of the objects on stage.
func (e *Engine) Bounds() (geom.Rect, bool) {
	if e.scene == nil {
		return geom.Rect{}, false
	}
	return vobject.Group(e.scene.Objects()...).Bounds()
}
