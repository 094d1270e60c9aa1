// Package render turns scene frames into draw command buffers that paint
// backends execute. Commands are in painter's order (back to front) and
// carry scene-space geometry plus the viewport matrix that maps it to pixels.
package render

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/scene"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/vobject"
)

// Draw command operations.
const (
	OpBackground = "background"
	OpPath       = "path"
	OpImage      = "image"
	OpSave       = "save"
	OpClip       = "clip"
	OpRestore    = "restore"
)

// DrawCommand is a single drawing operation. Consumers execute the list in
// order on a Canvas2D-like context.
type DrawCommand struct {
	Op            string        `json:"op"`
	ObjectID      string        `json:"objectId,omitempty"` // for hit correlation
	Transform     []float64     `json:"transform,omitempty"`
	Path          []PathCommand `json:"path,omitempty"`
	Fill          *Paint        `json:"fill,omitempty"`
	Stroke        *Paint        `json:"stroke,omitempty"`
	FillRule      string        `json:"fillRule,omitempty"`
	StrokeWidth   float64       `json:"strokeWidth,omitempty"`
	LineCap       string        `json:"lineCap,omitempty"`
	LineJoin      string        `json:"lineJoin,omitempty"`
	FillOpacity   float64       `json:"fillOpacity,omitempty"`
	StrokeOpacity float64       `json:"strokeOpacity,omitempty"`

	// Image ops: encoded image data placed into ImageRect.
	ImageData []byte     `json:"imageData,omitempty"`
	ImageRect *geom.Rect `json:"imageRect,omitempty"`
	Opacity   float64    `json:"opacity,omitempty"`

	// The source styles, for backends that paint natively.
	FillStyle   style.Style `json:"-"`
	StrokeStyle style.Style `json:"-"`
	// Bounds is the scene-space bounding box of Path.
	Bounds geom.Rect `json:"-"`
}

// PathCommand is one path segment: M (move), C (cubic) or Z (close).
// It marshals in Canvas2D order: ["M", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand struct {
	Op   byte
	Args []float64
}

func (c PathCommand) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, 1+len(c.Args))
	out = append(out, string(c.Op))
	for _, a := range c.Args {
		out = append(out, a)
	}
	return json.Marshal(out)
}

func (c *PathCommand) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("empty path command")
	}
	var op string
	if err := json.Unmarshal(raw[0], &op); err != nil || len(op) != 1 {
		return fmt.Errorf("bad path op %s", raw[0])
	}
	c.Op = op[0]
	c.Args = nil
	if len(raw) == 1 {
		return nil
	}
	c.Args = make([]float64, len(raw)-1)
	for i, r := range raw[1:] {
		if err := json.Unmarshal(r, &c.Args[i]); err != nil {
			return fmt.Errorf("path %c arg %d: %w", c.Op, i, err)
		}
	}
	return nil
}

// Paint is the JSON form of a style.Style.
type Paint struct {
	Kind   string     `json:"kind"`
	Color  string     `json:"color,omitempty"`
	Start  geom.Point `json:"start,omitzero"`
	End    geom.Point `json:"end,omitzero"`
	Center geom.Point `json:"center,omitzero"`
	Focus  geom.Point `json:"focus,omitzero"`
	Radius float64    `json:"radius,omitempty"`
	Stops  []Stop     `json:"stops,omitempty"`
}

// Stop is a gradient stop with its alpha folded into a CSS color.
type Stop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// NewPaint converts s; alpha composes the style's own alpha with the
// object's opacity.
func NewPaint(s style.Style, opacity float64) *Paint {
	stops := func(in []style.ColorStop, alpha float64) []Stop {
		out := make([]Stop, len(in))
		for i, st := range in {
			out[i] = Stop{Offset: st.Offset, Color: st.Color.CSS(alpha)}
		}
		return out
	}
	switch s.Kind {
	case style.KindLinearGradient:
		g := s.Linear
		return &Paint{Kind: "linear", Start: g.Start, End: g.End, Stops: stops(g.Stops, g.Alpha*opacity)}
	case style.KindRadialGradient:
		g := s.Radial
		return &Paint{Kind: "radial", Center: g.Center, Focus: g.Focus, Radius: g.Radius, Stops: stops(g.Stops, g.Alpha*opacity)}
	case style.KindImage:
		return &Paint{Kind: "image"}
	default:
		return &Paint{Kind: "color", Color: s.Color.CSS(opacity)}
	}
}

// PathCommands converts subpaths to path commands. Closed subpaths end with Z.
func PathCommands(subpaths []vobject.Subpath) []PathCommand {
	var out []PathCommand
	for _, s := range subpaths {
		if len(s) == 0 {
			continue
		}
		out = append(out, PathCommand{Op: 'M', Args: []float64{s[0].X, s[0].Y}})
		for i := range s.NumSegments() {
			c := s.Segment(i)
			out = append(out, PathCommand{Op: 'C', Args: []float64{c.P1.X, c.P1.Y, c.P2.X, c.P2.Y, c.P3.X, c.P3.Y}})
		}
		if s.IsClosed() {
			out = append(out, PathCommand{Op: 'Z'})
		}
	}
	return out
}

// Compile generates the draw command buffer for a frame.
func Compile(f scene.Frame) []DrawCommand {
	transform := f.Viewport().ToSlice()
	commands := []DrawCommand{{
		Op:        OpBackground,
		Transform: transform,
		Fill:      NewPaint(f.Background, 1),
		FillStyle: f.Background,
		Bounds:    geom.R(f.TopLeft, f.BottomRight),
	}}
	for _, o := range f.Objects {
		compileNode(o, strconv.Itoa(o.Index), transform, &commands)
	}
	return commands
}

// compileNode emits commands for a node and then its children.
func compileNode(o vobject.VectorObject, id string, transform []float64, commands *[]DrawCommand) {
	if o.HasPoints() {
		compilePath(o, id, transform, commands)
	}
	for i, c := range o.Subobjects {
		compileNode(c, id+"."+strconv.Itoa(i), transform, commands)
	}
}

func compilePath(o vobject.VectorObject, id string, transform []float64, commands *[]DrawCommand) {
	fillVisible := o.FillOpacity > 0 && o.Fill.IsVisible()
	strokeVisible := o.StrokeOpacity > 0 && o.StrokeWidth > 0 && o.Stroke.IsVisible()
	if !fillVisible && !strokeVisible {
		return
	}
	path := PathCommands(o.Subpaths)
	bounds, _ := o.Bounds()

	if fillVisible && o.Fill.Kind == style.KindImage {
		im := o.Fill.Image
		rect := im.Rect
		*commands = append(*commands,
			DrawCommand{Op: OpSave},
			DrawCommand{Op: OpClip, Transform: transform, Path: path, FillRule: o.FillRule.String()},
			DrawCommand{
				Op:        OpImage,
				ObjectID:  id,
				Transform: transform,
				ImageData: im.Data,
				ImageRect: &rect,
				Opacity:   im.Alpha * o.FillOpacity,
				Bounds:    rect,
			},
			DrawCommand{Op: OpRestore},
		)
		fillVisible = false
		if !strokeVisible {
			return
		}
	}

	cmd := DrawCommand{
		Op:        OpPath,
		ObjectID:  id,
		Transform: transform,
		Path:      path,
		Bounds:    bounds,
	}
	if fillVisible {
		cmd.Fill = NewPaint(o.Fill, o.FillOpacity)
		cmd.FillStyle = o.Fill
		cmd.FillOpacity = o.FillOpacity
		cmd.FillRule = o.FillRule.String()
	}
	if strokeVisible {
		cmd.Stroke = NewPaint(o.Stroke, o.StrokeOpacity)
		cmd.StrokeStyle = o.Stroke
		cmd.StrokeOpacity = o.StrokeOpacity
		cmd.StrokeWidth = o.StrokeWidth
		cmd.LineCap = o.LineCap.String()
		cmd.LineJoin = o.LineJoin.String()
	}
	*commands = append(*commands, cmd)
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// HitTest returns the ID of the topmost painted node whose bounds contain
// the pixel (x, y), or "" when nothing is hit.
func HitTest(commands []DrawCommand, f scene.Frame, x, y float64) string {
	p := f.Viewport().Invert().TransformPoint(geom.Pt(x, y))
	for i := len(commands) - 1; i >= 0; i-- {
		c := commands[i]
		if c.ObjectID == "" || (c.Op != OpPath && c.Op != OpImage) {
			continue
		}
		if c.Bounds.Contains(p) {
			return c.ObjectID
		}
	}
	return ""
}
