package scene

import (
	"context"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/vobject"
)

// Frame is everything a renderer needs to paint one image.
type Frame struct {
	Number      int
	Width       int
	Height      int
	Objects     []vobject.VectorObject // paint order, back to front
	Background  style.Style
	TopLeft     geom.Point
	BottomRight geom.Point
}

// Viewport maps scene coordinates to pixels.
func (f Frame) Viewport() geom.Matrix2D {
	return geom.Viewport(f.TopLeft, f.BottomRight, float64(f.Width), float64(f.Height))
}

// Renderer paints frames. Renderers must not modify the objects they are given.
type Renderer interface {
	RenderFrame(ctx context.Context, f Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, f Frame) error

func (fn RendererFunc) RenderFrame(ctx context.Context, f Frame) error {
	return fn(ctx, f)
}

// Discard is a Renderer that drops every frame.
var Discard Renderer = RendererFunc(func(context.Context, Frame) error { return nil })
