// Package raster paints draw command buffers into RGBA images. Nonzero
// fills go through golang.org/x/image/vector, even-odd fills and all strokes
// through rasterx (even-odd on a scanx scanner), and image fills are
// resampled with x/image/draw.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math"

	"github.com/srwiley/rasterx"
	"github.com/srwiley/scanx"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	_ "golang.org/x/image/webp"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/render"
	"github.com/inamate/motion/internal/scene"
	"github.com/inamate/motion/internal/style"
)

// miterLimit matches the Canvas2D default.
const miterLimit = 10

// FrameSink receives finished frames in order.
type FrameSink interface {
	WriteFrame(ctx context.Context, number int, img *image.RGBA) error
}

// Renderer rasterizes scene frames and hands them to a sink.
type Renderer struct {
	sink   FrameSink
	logger *slog.Logger
}

// New returns a Renderer writing to sink.
func New(sink FrameSink, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{sink: sink, logger: logger}
}

func (r *Renderer) RenderFrame(ctx context.Context, f scene.Frame) error {
	img, err := Rasterize(f)
	if err != nil {
		return err
	}
	if err := r.sink.WriteFrame(ctx, f.Number, img); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	r.logger.Debug("frame rasterized", "frame", f.Number, "objects", len(f.Objects))
	return nil
}

// Rasterize compiles and paints one frame.
func Rasterize(f scene.Frame) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	if err := Paint(img, render.Compile(f)); err != nil {
		return nil, fmt.Errorf("rasterize frame %d: %w", f.Number, err)
	}
	return img, nil
}

// Paint executes commands on dst. A clip established between save and
// restore masks every later command until the matching restore.
func Paint(dst *image.RGBA, commands []render.DrawCommand) error {
	p := &painter{dst: dst, bounds: dst.Bounds()}
	for _, c := range commands {
		m := matrixOf(c.Transform)
		switch c.Op {
		case render.OpBackground:
			draw.Draw(dst, p.bounds, p.source(c.FillStyle, 1, m), image.Point{}, draw.Src)
		case render.OpSave:
			p.clips = append(p.clips, p.clip())
		case render.OpRestore:
			if n := len(p.clips); n > 0 {
				p.clips = p.clips[:n-1]
			}
		case render.OpClip:
			p.setClip(c, m)
		case render.OpPath:
			p.layered(func(target *image.RGBA) {
				if c.Fill != nil {
					p.fill(target, c, m)
				}
				if c.Stroke != nil {
					p.stroke(target, c, m)
				}
			})
		case render.OpImage:
			if err := p.image(c, m); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown draw op %q", c.Op)
		}
	}
	return nil
}

type painter struct {
	dst    *image.RGBA
	bounds image.Rectangle
	clips  []*image.Alpha // nil entries mean unclipped
}

func (p *painter) clip() *image.Alpha {
	if n := len(p.clips); n > 0 {
		return p.clips[n-1]
	}
	return nil
}

// setClip intersects the current clip with the command's path.
func (p *painter) setClip(c render.DrawCommand, m geom.Matrix2D) {
	mask := image.NewAlpha(p.bounds)
	if c.FillRule == "evenodd" {
		cover := image.NewRGBA(p.bounds)
		f := p.evenOdd(cover)
		f.SetColor(color.Opaque)
		tracePath(f, c.Path, m)
		f.Draw()
		for i := range mask.Pix {
			mask.Pix[i] = cover.Pix[4*i+3]
		}
	} else {
		z := vector.NewRasterizer(p.bounds.Dx(), p.bounds.Dy())
		vectorPath(z, c.Path, m)
		z.Draw(mask, p.bounds, image.Opaque, image.Point{})
	}
	if prev := p.clip(); prev != nil {
		for i := range mask.Pix {
			mask.Pix[i] = uint8(uint16(mask.Pix[i]) * uint16(prev.Pix[i]) / 255)
		}
	}
	if n := len(p.clips); n > 0 {
		p.clips[n-1] = mask
	} else {
		p.clips = append(p.clips, mask)
	}
}

// layered runs draw against dst directly, or against a scratch layer that is
// composited through the active clip.
func (p *painter) layered(paint func(target *image.RGBA)) {
	clip := p.clip()
	if clip == nil {
		paint(p.dst)
		return
	}
	layer := image.NewRGBA(p.bounds)
	paint(layer)
	draw.DrawMask(p.dst, p.bounds, layer, p.bounds.Min, clip, p.bounds.Min, draw.Over)
}

func (p *painter) fill(target *image.RGBA, c render.DrawCommand, m geom.Matrix2D) {
	src := p.source(c.FillStyle, c.FillOpacity, m)
	if c.FillRule == "evenodd" {
		f := p.evenOdd(target)
		f.SetColor(colorOf(src))
		tracePath(f, c.Path, m)
		f.Draw()
		return
	}
	z := vector.NewRasterizer(p.bounds.Dx(), p.bounds.Dy())
	z.DrawOp = draw.Over
	vectorPath(z, c.Path, m)
	z.Draw(target, p.bounds, src, image.Point{})
}

// evenOdd returns a filler painting over target with the even-odd rule.
// ScannerGV ignores the winding flag; the scanx scanner honours it.
func (p *painter) evenOdd(target *image.RGBA) *rasterx.Filler {
	w, h := p.bounds.Dx(), p.bounds.Dy()
	f := rasterx.NewFiller(w, h, scanx.NewScanner(scanx.NewImgSpanner(target), w, h))
	f.SetWinding(false)
	return f
}

func (p *painter) stroke(target *image.RGBA, c render.DrawCommand, m geom.Matrix2D) {
	width := c.StrokeWidth * m.ScaleFactor()
	if width <= 0 {
		return
	}
	d := rasterx.NewDasher(p.bounds.Dx(), p.bounds.Dy(), rasterx.NewScannerGV(p.bounds.Dx(), p.bounds.Dy(), target, p.bounds))
	capFn, gapFn, join := strokeStyle(c.LineCap, c.LineJoin)
	d.SetStroke(fixed.Int26_6(width*64), fixed.Int26_6(miterLimit*64), capFn, capFn, gapFn, join, nil, 0)
	d.SetColor(colorOf(p.source(c.StrokeStyle, c.StrokeOpacity, m)))
	tracePath(d, c.Path, m)
	d.Draw()
}

func strokeStyle(lineCap, lineJoin string) (rasterx.CapFunc, rasterx.GapFunc, rasterx.JoinMode) {
	capFn := rasterx.RoundCap
	switch lineCap {
	case "butt":
		capFn = rasterx.ButtCap
	case "square":
		capFn = rasterx.SquareCap
	}
	switch lineJoin {
	case "miter":
		return capFn, rasterx.FlatGap, rasterx.Miter
	case "bevel":
		return capFn, rasterx.FlatGap, rasterx.Bevel
	default:
		return capFn, rasterx.RoundGap, rasterx.Round
	}
}

// image paints an image command, scaled into its rect and masked by the clip
// and opacity.
func (p *painter) image(c render.DrawCommand, m geom.Matrix2D) error {
	if c.ImageRect == nil || c.Opacity <= 0 {
		return nil
	}
	src, _, err := image.Decode(bytes.NewReader(c.ImageData))
	if err != nil {
		return fmt.Errorf("decode image fill: %w", err)
	}
	r := m.TransformRect(*c.ImageRect)
	dr := image.Rect(
		int(math.Floor(r.Min.X)), int(math.Floor(r.Min.Y)),
		int(math.Ceil(r.Max.X)), int(math.Ceil(r.Max.Y)),
	)
	if dr.Empty() {
		return nil
	}
	layer := image.NewRGBA(p.bounds)
	xdraw.CatmullRom.Scale(layer, dr, src, src.Bounds(), xdraw.Over, nil)

	mask := p.clip()
	if c.Opacity < 1 {
		a := uint8(math.Round(c.Opacity * 255))
		faded := image.NewAlpha(p.bounds)
		for i := range faded.Pix {
			v := uint16(255)
			if mask != nil {
				v = uint16(mask.Pix[i])
			}
			faded.Pix[i] = uint8(v * uint16(a) / 255)
		}
		mask = faded
	}
	if mask == nil {
		draw.Draw(p.dst, p.bounds, layer, p.bounds.Min, draw.Over)
		return nil
	}
	draw.DrawMask(p.dst, p.bounds, layer, p.bounds.Min, mask, p.bounds.Min, draw.Over)
	return nil
}

// source returns the paint of s at the given opacity as an image in pixel
// space.
func (p *painter) source(s style.Style, opacity float64, m geom.Matrix2D) image.Image {
	if s.Kind == style.KindColor {
		return image.NewUniform(s.Color.NRGBA(opacity))
	}
	return &gradient{style: s, opacity: opacity, inverse: m.Invert()}
}

// gradient samples a style at pixel centers mapped back to scene space.
type gradient struct {
	style   style.Style
	opacity float64
	inverse geom.Matrix2D
}

func (g *gradient) ColorModel() color.Model { return color.NRGBAModel }

func (g *gradient) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

func (g *gradient) At(x, y int) color.Color {
	p := g.inverse.TransformPoint(geom.Pt(float64(x)+0.5, float64(y)+0.5))
	return g.style.ColorAt(p).NRGBA(g.opacity)
}

// colorOf adapts a paint source to what rasterx accepts.
func colorOf(src image.Image) any {
	if u, ok := src.(*image.Uniform); ok {
		return u.C
	}
	return rasterx.ColorFunc(func(x, y int) color.Color { return src.At(x, y) })
}

func matrixOf(s []float64) geom.Matrix2D {
	if len(s) != 6 {
		return geom.Identity()
	}
	return geom.Matrix2D(s)
}

// vectorPath feeds commands to an x/image/vector rasterizer. Every subpath is
// closed, as fills require.
func vectorPath(z *vector.Rasterizer, path []render.PathCommand, m geom.Matrix2D) {
	open := false
	for _, pc := range path {
		switch pc.Op {
		case 'M':
			if open {
				z.ClosePath()
			}
			q := m.TransformPoint(geom.Pt(pc.Args[0], pc.Args[1]))
			z.MoveTo(float32(q.X), float32(q.Y))
			open = true
		case 'C':
			a := m.TransformPoint(geom.Pt(pc.Args[0], pc.Args[1]))
			b := m.TransformPoint(geom.Pt(pc.Args[2], pc.Args[3]))
			e := m.TransformPoint(geom.Pt(pc.Args[4], pc.Args[5]))
			z.CubeTo(float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), float32(e.X), float32(e.Y))
		case 'Z':
			z.ClosePath()
			open = false
		}
	}
	if open {
		z.ClosePath()
	}
}

// tracePath feeds commands to a rasterx adder. Subpaths stay open unless the
// command list closes them.
func tracePath(a rasterx.Adder, path []render.PathCommand, m geom.Matrix2D) {
	open := false
	pt := func(x, y float64) fixed.Point26_6 {
		q := m.TransformPoint(geom.Pt(x, y))
		return rasterx.ToFixedP(q.X, q.Y)
	}
	for _, pc := range path {
		switch pc.Op {
		case 'M':
			if open {
				a.Stop(false)
			}
			a.Start(pt(pc.Args[0], pc.Args[1]))
			open = true
		case 'C':
			a.CubeBezier(pt(pc.Args[0], pc.Args[1]), pt(pc.Args[2], pc.Args[3]), pt(pc.Args[4], pc.Args[5]))
		case 'Z':
			a.Stop(true)
			open = false
		}
	}
	if open {
		a.Stop(false)
	}
}
