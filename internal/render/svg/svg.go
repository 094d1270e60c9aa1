// Package svg writes frames as standalone SVG documents.
package svg

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/inamate/motion/internal/render"
	"github.com/inamate/motion/internal/scene"
	"github.com/inamate/motion/internal/style"
)

const namespace = "http://www.w3.org/2000/svg"

// elem is an element waiting to be encoded.
type elem struct {
	name     string
	attrs    []xml.Attr
	children []elem
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func num(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Encode writes f as an SVG document.
func Encode(w io.Writer, f scene.Frame) error {
	return EncodeCommands(w, f.Width, f.Height, render.Compile(f))
}

// EncodeCommands writes a draw command buffer as an SVG document of the
// given pixel size.
func EncodeCommands(w io.Writer, width, height int, commands []render.DrawCommand) error {
	b := &builder{}
	var transform []float64
	for _, c := range commands {
		if transform == nil && len(c.Transform) == 6 {
			transform = c.Transform
		}
		b.add(c)
	}

	root := elem{name: "svg", attrs: []xml.Attr{
		attr("xmlns", namespace),
		attr("width", strconv.Itoa(width)),
		attr("height", strconv.Itoa(height)),
		attr("viewBox", fmt.Sprintf("0 0 %d %d", width, height)),
	}}
	if len(b.defs) > 0 {
		root.children = append(root.children, elem{name: "defs", children: b.defs})
	}
	g := elem{name: "g", children: b.body}
	if transform != nil {
		parts := make([]string, 6)
		for i, v := range transform {
			parts[i] = num(v)
		}
		g.attrs = append(g.attrs, attr("transform", "matrix("+strings.Join(parts, " ")+")"))
	}
	root.children = append(root.children, g)

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.EncodeToken(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)}); err != nil {
		return err
	}
	if err := encode(enc, root); err != nil {
		return err
	}
	return enc.Flush()
}

func encode(enc *xml.Encoder, e elem) error {
	start := xml.StartElement{Name: xml.Name{Local: e.name}, Attr: e.attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range e.children {
		if err := encode(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// builder turns commands into defs and body elements. Clip state follows
// save/restore nesting.
type builder struct {
	defs  []elem
	body  []elem
	clips []string
	ids   int
}

func (b *builder) id(prefix string) string {
	b.ids++
	return prefix + strconv.Itoa(b.ids)
}

func (b *builder) clip() string {
	if n := len(b.clips); n > 0 {
		return b.clips[n-1]
	}
	return ""
}

func (b *builder) add(c render.DrawCommand) {
	switch c.Op {
	case render.OpBackground:
		r := c.Bounds
		b.body = append(b.body, elem{name: "rect", attrs: []xml.Attr{
			attr("x", num(r.Min.X)), attr("y", num(r.Min.Y)),
			attr("width", num(r.Width())), attr("height", num(r.Height())),
			attr("fill", b.paint(c.FillStyle, 1)),
		}})
	case render.OpSave:
		b.clips = append(b.clips, b.clip())
	case render.OpRestore:
		if n := len(b.clips); n > 0 {
			b.clips = b.clips[:n-1]
		}
	case render.OpClip:
		id := b.id("clip")
		cp := elem{name: "clipPath", attrs: []xml.Attr{attr("id", id)}}
		if prev := b.clip(); prev != "" {
			cp.attrs = append(cp.attrs, attr("clip-path", "url(#"+prev+")"))
		}
		cp.children = []elem{{name: "path", attrs: []xml.Attr{
			attr("d", PathData(c.Path)),
			attr("clip-rule", c.FillRule),
		}}}
		b.defs = append(b.defs, cp)
		if n := len(b.clips); n > 0 {
			b.clips[n-1] = id
		} else {
			b.clips = append(b.clips, id)
		}
	case render.OpImage:
		if c.ImageRect == nil {
			return
		}
		r := *c.ImageRect
		e := elem{name: "image", attrs: []xml.Attr{
			attr("x", num(r.Min.X)), attr("y", num(r.Min.Y)),
			attr("width", num(r.Width())), attr("height", num(r.Height())),
			attr("preserveAspectRatio", "none"),
			attr("href", DataURI(c.ImageData)),
		}}
		if c.Opacity < 1 {
			e.attrs = append(e.attrs, attr("opacity", num(c.Opacity)))
		}
		b.body = append(b.body, b.clipped(e))
	case render.OpPath:
		e := elem{name: "path", attrs: []xml.Attr{attr("d", PathData(c.Path))}}
		if c.ObjectID != "" {
			e.attrs = append(e.attrs, attr("data-object", c.ObjectID))
		}
		if c.Fill != nil {
			e.attrs = append(e.attrs,
				attr("fill", b.paint(c.FillStyle, c.FillOpacity)),
				attr("fill-rule", c.FillRule))
		} else {
			e.attrs = append(e.attrs, attr("fill", "none"))
		}
		if c.Stroke != nil {
			e.attrs = append(e.attrs,
				attr("stroke", b.paint(c.StrokeStyle, c.StrokeOpacity)),
				attr("stroke-width", num(c.StrokeWidth)),
				attr("stroke-linecap", c.LineCap),
				attr("stroke-linejoin", c.LineJoin))
		}
		b.body = append(b.body, b.clipped(e))
	}
}

func (b *builder) clipped(e elem) elem {
	if id := b.clip(); id != "" {
		e.attrs = append(e.attrs, attr("clip-path", "url(#"+id+")"))
	}
	return e
}

// paint returns an SVG paint value for s, adding a gradient to defs when
// needed. Opacity is folded into the colors.
func (b *builder) paint(s style.Style, opacity float64) string {
	stops := func(in []style.ColorStop, alpha float64) []elem {
		out := make([]elem, len(in))
		for i, st := range in {
			out[i] = elem{name: "stop", attrs: []xml.Attr{
				attr("offset", num(st.Offset)),
				attr("stop-color", st.Color.Hex()),
				attr("stop-opacity", num(st.Color.A*alpha)),
			}}
		}
		return out
	}
	switch {
	case s.Kind == style.KindLinearGradient && s.Linear != nil:
		g := s.Linear
		id := b.id("grad")
		b.defs = append(b.defs, elem{name: "linearGradient", attrs: []xml.Attr{
			attr("id", id), attr("gradientUnits", "userSpaceOnUse"),
			attr("x1", num(g.Start.X)), attr("y1", num(g.Start.Y)),
			attr("x2", num(g.End.X)), attr("y2", num(g.End.Y)),
		}, children: stops(g.Stops, g.Alpha*opacity)})
		return "url(#" + id + ")"
	case s.Kind == style.KindRadialGradient && s.Radial != nil:
		g := s.Radial
		id := b.id("grad")
		b.defs = append(b.defs, elem{name: "radialGradient", attrs: []xml.Attr{
			attr("id", id), attr("gradientUnits", "userSpaceOnUse"),
			attr("cx", num(g.Center.X)), attr("cy", num(g.Center.Y)), attr("r", num(g.Radius)),
			attr("fx", num(g.Focus.X)), attr("fy", num(g.Focus.Y)),
		}, children: stops(g.Stops, g.Alpha*opacity)})
		return "url(#" + id + ")"
	case s.Kind == style.KindColor:
		return s.Color.CSS(opacity)
	default:
		return "none"
	}
}

// PathData formats path commands as SVG path data.
func PathData(path []render.PathCommand) string {
	var sb strings.Builder
	for _, pc := range path {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(pc.Op)
		for i, a := range pc.Args {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(num(a))
		}
	}
	return sb.String()
}

// DataURI embeds encoded image bytes.
func DataURI(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Dir is a renderer writing frame_NNNN.svg files.
type Dir struct {
	dir    string
	logger *slog.Logger
}

// NewDir creates dir if needed.
func NewDir(dir string, logger *slog.Logger) (*Dir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dir{dir: dir, logger: logger}, nil
}

// Path returns the file a frame number is written to.
func (d *Dir) Path(number int) string {
	return filepath.Join(d.dir, fmt.Sprintf("frame_%04d.svg", number))
}

func (d *Dir) RenderFrame(ctx context.Context, f scene.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return fmt.Errorf("encode svg frame %d: %w", f.Number, err)
	}
	if err := os.WriteFile(d.Path(f.Number), buf.Bytes(), 0o644); err != nil {
		return err
	}
	d.logger.Debug("svg frame written", "frame", f.Number)
	return nil
}

// Latest is a renderer keeping only the most recent document.
type Latest struct {
	mu  sync.RWMutex
	doc []byte
}

func (l *Latest) RenderFrame(_ context.Context, f scene.Frame) error {
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return fmt.Errorf("encode svg frame %d: %w", f.Number, err)
	}
	l.mu.Lock()
	l.doc = buf.Bytes()
	l.mu.Unlock()
	return nil
}

// Bytes returns the latest document, or nil before the first frame.
func (l *Latest) Bytes() []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.doc
}
