package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/inamate/motion/internal/document"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/svgload"
	"github.com/inamate/motion/internal/typeid"
	"github.com/inamate/motion/internal/vobject"
)

var ErrUnknownKind = errors.New("unknown object kind")

// objectData holds the parameters of every object kind. Angles are in
// degrees.
type objectData struct {
	Radius       float64          `json:"radius"`
	Side         float64          `json:"side"`
	Width        float64          `json:"width"`
	Height       float64          `json:"height"`
	RX           float64          `json:"rx"`
	RY           float64          `json:"ry"`
	CornerRadius float64          `json:"cornerRadius"`
	Sides        int              `json:"sides"`
	Start        float64          `json:"start"`
	Angle        float64          `json:"angle"`
	Points       []document.Point `json:"points"`
	From         document.Point   `json:"from"`
	To           document.Point   `json:"to"`
	DashLength   float64          `json:"dashLength"`
	DashRatio    float64          `json:"dashRatio"`
	Color        string           `json:"color"`
	D            string           `json:"d"`
	Text         string           `json:"text"`
	Size         float64          `json:"size"`
	SVG          string           `json:"svg"`
	File         string           `json:"file"`
	Asset        string           `json:"asset"`
	Src          string           `json:"src"`
}

// build turns a declaration into an object, including its children, with
// transform and style applied. Text and SVG objects are centered on the
// origin before the transform so X and Y place their center.
func (e *Engine) build(ctx context.Context, decl document.Object) (vobject.VectorObject, error) {
	var data objectData
	if len(decl.Data) > 0 {
		if err := json.Unmarshal(decl.Data, &data); err != nil {
			return vobject.VectorObject{}, fmt.Errorf("object %d data: %w", decl.Index, err)
		}
	}

	obj, err := e.buildKind(ctx, decl, data)
	if err != nil {
		return vobject.VectorObject{}, fmt.Errorf("object %d (%s): %w", decl.Index, decl.Kind, err)
	}

	if decl.Style != nil {
		obj, err = applyStyle(obj, *decl.Style)
		if err != nil {
			return vobject.VectorObject{}, fmt.Errorf("object %d style: %w", decl.Index, err)
		}
	}
	if decl.Transform != nil {
		obj = obj.ApplyMatrix(transformMatrix(*decl.Transform), true)
	}
	if decl.Name != "" {
		obj = obj.SetName(decl.Name)
	}
	return obj.SetIndex(decl.Index, false), nil
}

func (e *Engine) buildKind(ctx context.Context, decl document.Object, d objectData) (vobject.VectorObject, error) {
	switch decl.Kind {
	case document.KindGroup:
		children := make([]vobject.VectorObject, 0, len(decl.Children))
		for _, c := range decl.Children {
			child, err := e.build(ctx, c)
			if err != nil {
				return vobject.VectorObject{}, err
			}
			children = append(children, child)
		}
		return vobject.Group(children...), nil
	case document.KindCircle:
		return vobject.Circle(positive(d.Radius, 50)), nil
	case document.KindEllipse:
		return vobject.Ellipse(positive(d.RX, 50), positive(d.RY, 30)), nil
	case document.KindArc:
		return vobject.Arc(positive(d.Radius, 50), radians(d.Start), radians(nonZero(d.Angle, 90))), nil
	case document.KindDot:
		c := style.White
		if d.Color != "" {
			var err error
			if c, err = style.ParseColor(d.Color); err != nil {
				return vobject.VectorObject{}, err
			}
		}
		return vobject.Dot(geom.Origin, c), nil
	case document.KindSquare:
		return vobject.Square(positive(d.Side, 100)), nil
	case document.KindRectangle:
		return vobject.Rectangle(positive(d.Width, 160), positive(d.Height, 100)), nil
	case document.KindRoundedRectangle:
		return vobject.RoundedRectangle(positive(d.Width, 160), positive(d.Height, 100), positive(d.CornerRadius, 12)), nil
	case document.KindRegularPolygon:
		n := d.Sides
		if n == 0 {
			n = 6
		}
		if n < 3 {
			return vobject.VectorObject{}, fmt.Errorf("regular polygon needs at least 3 sides, got %d", n)
		}
		return vobject.RegularPolygon(n, positive(d.Radius, 50)), nil
	case document.KindPolygon, document.KindPolyline:
		if len(d.Points) < 2 {
			return vobject.VectorObject{}, fmt.Errorf("%s needs at least 2 points", decl.Kind)
		}
		pts := make([]geom.Point, len(d.Points))
		for i, p := range d.Points {
			pts[i] = geom.Pt(p.X, p.Y)
		}
		if decl.Kind == document.KindPolygon {
			return vobject.Polygon(pts...), nil
		}
		return vobject.Polyline(pts...), nil
	case document.KindLine:
		return vobject.Line(geom.Pt(d.From.X, d.From.Y), geom.Pt(d.To.X, d.To.Y)), nil
	case document.KindDashedLine:
		return vobject.DashedLine(geom.Pt(d.From.X, d.From.Y), geom.Pt(d.To.X, d.To.Y),
			positive(d.DashLength, 10), positive(d.DashRatio, 0.5)), nil
	case document.KindPath:
		subpaths, err := svgload.ParsePath(d.D)
		if err != nil {
			return vobject.VectorObject{}, err
		}
		return vobject.FromSubpaths(subpaths...), nil
	case document.KindText:
		producer, err := e.typesetter(positive(d.Size, e.fontSize))
		if err != nil {
			return vobject.VectorObject{}, err
		}
		o, err := producer.Typeset(ctx, d.Text)
		if err != nil {
			return vobject.VectorObject{}, err
		}
		return o.MoveTo(geom.Origin, true), nil
	case document.KindSVG:
		var (
			o   vobject.VectorObject
			err error
		)
		if d.File != "" {
			o, err = svgload.ParseFile(d.File)
		} else {
			o, err = svgload.ParseString(d.SVG)
		}
		if err != nil {
			return vobject.VectorObject{}, err
		}
		return o.MoveTo(geom.Origin, true), nil
	case document.KindImage:
		if d.Asset != "" {
			path, err := e.assetPath(d.Asset)
			if err != nil {
				return vobject.VectorObject{}, err
			}
			d.File = path
		}
		return imageObject(d)
	}
	return vobject.VectorObject{}, fmt.Errorf("%w: %q", ErrUnknownKind, decl.Kind)
}

// assetPath resolves an uploaded asset id to its stored file.
func (e *Engine) assetPath(id string) (string, error) {
	if e.assetDir == "" {
		return "", fmt.Errorf("asset %q: no asset directory configured", id)
	}
	if err := typeid.Validate(id, typeid.PrefixAsset); err != nil {
		return "", err
	}
	return filepath.Join(e.assetDir, id+".png"), nil
}

// imageObject builds a rectangle filled with the image. The size defaults
// to the image's pixel size.
func imageObject(d objectData) (vobject.VectorObject, error) {
	var (
		raw []byte
		err error
	)
	switch {
	case d.File != "":
		raw, err = os.ReadFile(d.File)
	case strings.HasPrefix(d.Src, "data:"):
		_, payload, _ := strings.Cut(d.Src, ",")
		raw, err = base64.StdEncoding.DecodeString(payload)
	default:
		raw, err = base64.StdEncoding.DecodeString(d.Src)
	}
	if err != nil {
		return vobject.VectorObject{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return vobject.VectorObject{}, fmt.Errorf("decode image: %w", err)
	}
	w := positive(d.Width, float64(cfg.Width))
	h := positive(d.Height, float64(cfg.Height))
	rect := geom.R(geom.Pt(-w/2, -h/2), geom.Pt(w/2, h/2))
	return vobject.Rectangle(w, h).
		SetFill(style.Image(raw, rect), false).
		SetStrokeWidth(0, false), nil
}

func applyStyle(o vobject.VectorObject, s document.Style) (vobject.VectorObject, error) {
	if s.Fill != "" {
		c, err := style.ParseColor(s.Fill)
		if err != nil {
			return o, err
		}
		o = o.SetFill(style.Solid(c), true)
	}
	if s.Stroke != "" {
		c, err := style.ParseColor(s.Stroke)
		if err != nil {
			return o, err
		}
		o = o.SetStroke(style.Solid(c), true)
	}
	if s.StrokeWidth != nil {
		o = o.SetStrokeWidth(*s.StrokeWidth, true)
	}
	if s.Opacity != nil {
		o = o.SetOpacity(*s.Opacity, true)
	}
	switch s.FillRule {
	case "":
	case vobject.EvenOdd.String():
		o = o.SetFillRule(vobject.EvenOdd, true)
	case vobject.NonZero.String():
		o = o.SetFillRule(vobject.NonZero, true)
	default:
		return o, fmt.Errorf("unknown fill rule %q", s.FillRule)
	}
	if s.LineCap != "" {
		c, ok := lineCaps[s.LineCap]
		if !ok {
			return o, fmt.Errorf("unknown line cap %q", s.LineCap)
		}
		o = o.SetLineCap(c, true)
	}
	if s.LineJoin != "" {
		j, ok := lineJoins[s.LineJoin]
		if !ok {
			return o, fmt.Errorf("unknown line join %q", s.LineJoin)
		}
		o = o.SetLineJoin(j, true)
	}
	return o, nil
}

var lineCaps = map[string]vobject.LineCap{
	vobject.CapButt.String():   vobject.CapButt,
	vobject.CapRound.String():  vobject.CapRound,
	vobject.CapSquare.String(): vobject.CapSquare,
}

var lineJoins = map[string]vobject.LineJoin{
	vobject.JoinMiter.String(): vobject.JoinMiter,
	vobject.JoinRound.String(): vobject.JoinRound,
	vobject.JoinBevel.String(): vobject.JoinBevel,
}

func transformMatrix(t document.Transform) geom.Matrix2D {
	return geom.FromTransform(t.X, t.Y, nonZero(t.SX, 1), nonZero(t.SY, 1), t.R, t.AX, t.AY)
}

func positive(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func nonZero(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
