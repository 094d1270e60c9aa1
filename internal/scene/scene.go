// Package scene holds indexed vector objects and plays animations on them,
// one rendered frame per tick.
//
// A Scene is driven from a single goroutine: callers play animations one
// after another and must not call into the same Scene concurrently. Only
// Stop may be called from elsewhere.
package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/inamate/motion/internal/animation"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/ratefunc"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/vobject"
)

var (
	ErrUnsavedState    = errors.New("no state saved in slot")
	ErrCardinality     = errors.New("animation returned wrong number of objects")
	ErrUnknownIndex    = errors.New("unknown object index")
	ErrStopped         = errors.New("scene stopped")
	ErrBusy            = errors.New("scene is already playing")
	ErrInvalidDuration = errors.New("duration must be at least one frame")
)

// Scene is a stateful container of indexed objects with a frame scheduler.
type Scene struct {
	width, height int
	fps           float64

	order   []int
	objects map[int]vobject.VectorObject
	saved   map[int]snapshot

	background  style.Style
	topLeft     geom.Point
	bottomRight geom.Point

	renderer Renderer
	clock    Clock
	logger   *slog.Logger

	frame   int
	stopped atomic.Bool
	busy    atomic.Bool
}

type snapshot struct {
	order   []int
	objects map[int]vobject.VectorObject
}

// Option configures a Scene.
type Option func(*Scene)

// WithClock sets the frame pacing; the default is RealtimeClock.
func WithClock(c Clock) Option {
	return func(s *Scene) { s.clock = c }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scene) { s.logger = l }
}

// WithBackground sets the initial background.
func WithBackground(bg style.Style) Option {
	return func(s *Scene) { s.background = bg }
}

// WithCorners sets the initial viewport.
func WithCorners(topLeft, bottomRight geom.Point) Option {
	return func(s *Scene) { s.topLeft, s.bottomRight = topLeft, bottomRight }
}

// New creates a scene of width x height pixels at fps frames per second.
// The viewport initially maps one scene unit to one pixel.
func New(width, height int, fps float64, r Renderer, opts ...Option) *Scene {
	if r == nil {
		r = Discard
	}
	s := &Scene{
		width:       width,
		height:      height,
		fps:         fps,
		objects:     make(map[int]vobject.VectorObject),
		saved:       make(map[int]snapshot),
		background:  style.Solid(style.White),
		topLeft:     geom.Origin,
		bottomRight: geom.Pt(float64(width), float64(height)),
		renderer:    r,
		clock:       RealtimeClock{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scene) Width() int   { return s.width }
func (s *Scene) Height() int  { return s.height }
func (s *Scene) FPS() float64 { return s.fps }

// FrameInterval is the time between two frames.
func (s *Scene) FrameInterval() time.Duration {
	if s.fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / s.fps)
}

// FramesFor converts a duration to a frame count, at least one.
func (s *Scene) FramesFor(d time.Duration) int {
	return max(1, int(d.Seconds()*s.fps+0.5))
}

// Add tracks objects under their own Index. An object whose index is already
// tracked replaces it in place.
func (s *Scene) Add(objs ...vobject.VectorObject) {
	for _, o := range objs {
		if _, ok := s.objects[o.Index]; !ok {
			s.order = append(s.order, o.Index)
		}
		s.objects[o.Index] = o.Clone()
	}
}

// Insert tracks obj at paint position pos, clamped to the valid range. An
// existing object with the same index is moved.
func (s *Scene) Insert(pos int, obj vobject.VectorObject) {
	s.removeFromOrder(obj.Index)
	pos = max(0, min(pos, len(s.order)))
	s.order = slices.Insert(s.order, pos, obj.Index)
	s.objects[obj.Index] = obj.Clone()
}

// Remove drops objects. Unknown indices are ignored.
func (s *Scene) Remove(indices ...int) {
	for _, idx := range indices {
		if _, ok := s.objects[idx]; !ok {
			continue
		}
		delete(s.objects, idx)
		s.removeFromOrder(idx)
	}
}

func (s *Scene) removeFromOrder(idx int) {
	s.order = slices.DeleteFunc(s.order, func(i int) bool { return i == idx })
}

// Clear drops every object.
func (s *Scene) Clear() {
	s.order = nil
	clear(s.objects)
}

// Indices returns the tracked indices in paint order.
func (s *Scene) Indices() []int {
	return slices.Clone(s.order)
}

// Objects returns the tracked objects in paint order.
func (s *Scene) Objects() []vobject.VectorObject {
	out := make([]vobject.VectorObject, len(s.order))
	for i, idx := range s.order {
		out[i] = s.objects[idx]
	}
	return out
}

// Get returns the object tracked under idx.
func (s *Scene) Get(idx int) (vobject.VectorObject, bool) {
	o, ok := s.objects[idx]
	if !ok {
		return vobject.VectorObject{}, false
	}
	return o.Clone(), true
}

// GetObjectsFromIndices returns clones of the requested objects. Indices
// that are not tracked have no entry in the result.
func (s *Scene) GetObjectsFromIndices(indices []int) map[int]vobject.VectorObject {
	out := make(map[int]vobject.VectorObject, len(indices))
	for _, idx := range indices {
		if o, ok := s.objects[idx]; ok {
			out[idx] = o.Clone()
		}
	}
	return out
}

func (s *Scene) snapshot() snapshot {
	return snapshot{order: slices.Clone(s.order), objects: maps.Clone(s.objects)}
}

func (s *Scene) restore(snap snapshot) {
	s.order = slices.Clone(snap.order)
	s.objects = maps.Clone(snap.objects)
}

// SaveState snapshots the object set into slot, replacing what was there.
func (s *Scene) SaveState(slot int) {
	s.saved[slot] = s.snapshot()
}

// Restore rolls the object set back to slot.
func (s *Scene) Restore(slot int) error {
	snap, ok := s.saved[slot]
	if !ok {
		return fmt.Errorf("restore slot %d: %w", slot, ErrUnsavedState)
	}
	s.restore(snap)
	return nil
}

func (s *Scene) SetBackground(bg style.Style) { s.background = bg }
func (s *Scene) Background() style.Style      { return s.background }

func (s *Scene) SetTopLeftCorner(p geom.Point)     { s.topLeft = p }
func (s *Scene) SetBottomRightCorner(p geom.Point) { s.bottomRight = p }

// Corners returns the viewport corners.
func (s *Scene) Corners() (topLeft, bottomRight geom.Point) {
	return s.topLeft, s.bottomRight
}

// Stop makes the next suspension point return ErrStopped. It is safe to
// call from any goroutine.
func (s *Scene) Stop() { s.stopped.Store(true) }

// Stopped reports whether Stop was called since the last Reset.
func (s *Scene) Stopped() bool { return s.stopped.Load() }

// Reset clears the stop flag.
func (s *Scene) Reset() { s.stopped.Store(false) }

// FrameCount returns the number of frames rendered so far.
func (s *Scene) FrameCount() int { return s.frame }

func (s *Scene) currentFrame() Frame {
	return Frame{
		Number:      s.frame,
		Width:       s.width,
		Height:      s.height,
		Objects:     s.Objects(),
		Background:  s.background,
		TopLeft:     s.topLeft,
		BottomRight: s.bottomRight,
	}
}

// RenderFrame hands the current state to the renderer once.
func (s *Scene) RenderFrame(ctx context.Context) error {
	f := s.currentFrame()
	if err := s.renderer.RenderFrame(ctx, f); err != nil {
		return fmt.Errorf("render frame %d: %w", f.Number, err)
	}
	s.frame++
	return nil
}

// pace waits one frame interval after a render. After the final frame of a
// loop the wait still happens, but a stop or cancellation there no longer
// counts as interrupting the loop.
func (s *Scene) pace(ctx context.Context, d time.Duration, last bool) error {
	if last {
		_ = s.clock.Wait(ctx, d)
		return nil
	}
	return s.suspend(ctx, d)
}

// suspend is the cooperative yield point between frames.
func (s *Scene) suspend(ctx context.Context, d time.Duration) error {
	if s.Stopped() {
		return ErrStopped
	}
	if err := s.clock.Wait(ctx, d); err != nil {
		return err
	}
	if s.Stopped() {
		return ErrStopped
	}
	return nil
}

func (s *Scene) acquire() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (s *Scene) release() { s.busy.Store(false) }

// Play runs fn over frames frames. Frame i (1-based) uses progress i/frames
// shaped by rate, so the last frame sees exactly 1. fn always receives the
// objects as they were when Play started and must return one object per
// index, in order. A nil rate means ratefunc.Smooth.
//
// If fn returns the wrong number of objects Play restores the object set it
// started with and returns ErrCardinality without rendering that frame. If
// Stop is called or ctx ends, Play returns at the next frame boundary and
// keeps the last applied frame.
func (s *Scene) Play(ctx context.Context, fn animation.MultiFunc, indices []int, frames int, rate ratefunc.Func) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if frames < 1 {
		return fmt.Errorf("play %d frames: %w", frames, ErrInvalidDuration)
	}
	if rate == nil {
		rate = ratefunc.Smooth
	}
	start := make([]vobject.VectorObject, len(indices))
	for i, idx := range indices {
		o, ok := s.objects[idx]
		if !ok {
			return fmt.Errorf("play: index %d: %w", idx, ErrUnknownIndex)
		}
		start[i] = o
	}
	if s.Stopped() {
		return ErrStopped
	}
	before := s.snapshot()
	s.logger.Debug("play", "indices", indices, "frames", frames)

	interval := s.FrameInterval()
	for i := 1; i <= frames; i++ {
		t := 1.0
		if i < frames {
			t = float64(i) / float64(frames)
		}
		out := fn(start, rate(t))
		if len(out) != len(indices) {
			s.restore(before)
			return fmt.Errorf("play frame %d: got %d objects for %d indices: %w",
				i, len(out), len(indices), ErrCardinality)
		}
		for k, idx := range indices {
			o := out[k]
			o.Index = idx
			s.objects[idx] = o
		}
		if err := s.RenderFrame(ctx); err != nil {
			return err
		}
		if err := s.pace(ctx, interval, i == frames); err != nil {
			return err
		}
	}
	return nil
}

// Animate plays a single-object animation on idx.
func (s *Scene) Animate(ctx context.Context, fn animation.Func, idx int, frames int, rate ratefunc.Func) error {
	return s.Play(ctx, animation.Each(fn), []int{idx}, frames, rate)
}

// PlayCamera moves the viewport corners to topLeft and bottomRight over
// frames frames.
func (s *Scene) PlayCamera(ctx context.Context, topLeft, bottomRight geom.Point, frames int, rate ratefunc.Func) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if frames < 1 {
		return fmt.Errorf("camera %d frames: %w", frames, ErrInvalidDuration)
	}
	if rate == nil {
		rate = ratefunc.Smooth
	}
	if s.Stopped() {
		return ErrStopped
	}
	fromTL, fromBR := s.topLeft, s.bottomRight
	interval := s.FrameInterval()
	for i := 1; i <= frames; i++ {
		t := 1.0
		if i < frames {
			t = float64(i) / float64(frames)
		}
		e := rate(t)
		s.topLeft = fromTL.Lerp(topLeft, e)
		s.bottomRight = fromBR.Lerp(bottomRight, e)
		if err := s.RenderFrame(ctx); err != nil {
			return err
		}
		if err := s.pace(ctx, interval, i == frames); err != nil {
			return err
		}
	}
	return nil
}

// Sleep pauses for d and then renders one frame.
func (s *Scene) Sleep(ctx context.Context, d time.Duration) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.suspend(ctx, d); err != nil {
		return err
	}
	return s.RenderFrame(ctx)
}

// Hold renders the current state for frames frames, pacing them like Play.
// Offline targets use it where a realtime scene would Sleep.
func (s *Scene) Hold(ctx context.Context, frames int) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	interval := s.FrameInterval()
	for i := 1; i <= frames; i++ {
		if err := s.RenderFrame(ctx); err != nil {
			return err
		}
		if err := s.pace(ctx, interval, i == frames); err != nil {
			return err
		}
	}
	return nil
}
