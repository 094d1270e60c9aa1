package engine

import (
	"encoding/json"
	"fmt"

	"github.com/inamate/motion/internal/align"
	"github.com/inamate/motion/internal/animation"
	"github.com/inamate/motion/internal/document"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/ratefunc"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/vobject"
)

// animationParams holds the parameters of every parameterised animation.
// Angles are in degrees.
type animationParams struct {
	Scale           *float64        `json:"scale"`
	Shift           *document.Point `json:"shift"`
	To              *document.Point `json:"to"`
	Degrees         *float64        `json:"degrees"`
	Factor          *float64        `json:"factor"`
	Color           string          `json:"color"`
	Opacity         *float64        `json:"opacity"`
	Target          *int            `json:"target"`
	LagRatio        *float64        `json:"lagRatio"`
	VisibleFraction *float64        `json:"visibleFraction"`
	SkipPointAlign  bool            `json:"skipPointAlign"`
}

// resolveAnimation turns a play step into a function over its objects.
// Names without parameters fall through to the animation catalog.
func (e *Engine) resolveAnimation(st document.Step) (animation.MultiFunc, error) {
	var p animationParams
	if len(st.Params) > 0 {
		if err := json.Unmarshal(st.Params, &p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadParams, st.Animation, err)
		}
	}

	fn, err := e.single(st.Animation, p)
	if err != nil {
		return nil, err
	}
	if st.LagRatio != nil {
		return animation.Lagged(*st.LagRatio, fn), nil
	}
	return animation.Each(fn), nil
}

func (e *Engine) single(name string, p animationParams) (animation.Func, error) {
	switch name {
	case "fadeIn", "fadeOut":
		scale := 1.0
		if p.Scale != nil {
			scale = *p.Scale
		}
		if name == "fadeIn" {
			return animation.FadeIn(scale, point(p.Shift)), nil
		}
		return animation.FadeOut(scale, point(p.Shift)), nil
	case "shift":
		if p.Shift == nil {
			return nil, fmt.Errorf("%w: shift needs a shift vector", ErrBadParams)
		}
		return animation.Shift(point(p.Shift)), nil
	case "moveTo":
		if p.To == nil {
			return nil, fmt.Errorf("%w: moveTo needs a target point", ErrBadParams)
		}
		return animation.MoveTo(point(p.To)), nil
	case "rotate":
		return animation.Rotate(radians(orDefault(p.Degrees, 90))), nil
	case "spinningGrow":
		angle := animation.DefaultSpinAngle
		if p.Degrees != nil {
			angle = radians(*p.Degrees)
		}
		return animation.SpinningGrow(angle), nil
	case "scaleInPlace":
		return animation.ScaleInPlace(orDefault(p.Factor, 2)), nil
	case "write":
		return animation.Write(orDefault(p.LagRatio, animation.DefaultWriteLag)), nil
	case "showTemporarily":
		return animation.ShowTemporarily(orDefault(p.VisibleFraction, animation.DefaultVisibleFraction)), nil
	case "setFill", "setStroke", "indicate":
		c := animation.DefaultIndicateColor
		if p.Color != "" {
			var err error
			if c, err = style.ParseColor(p.Color); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrBadParams, name, err)
			}
		} else if name != "indicate" {
			return nil, fmt.Errorf("%w: %s needs a color", ErrBadParams, name)
		}
		switch name {
		case "setFill":
			return animation.SetFill(style.Solid(c)), nil
		case "setStroke":
			return animation.SetStroke(style.Solid(c)), nil
		}
		return animation.Indicate(orDefault(p.Scale, animation.DefaultIndicateScale), c), nil
	case "setOpacity":
		if p.Opacity == nil {
			return nil, fmt.Errorf("%w: setOpacity needs an opacity", ErrBadParams)
		}
		return animation.SetOpacity(*p.Opacity), nil
	case "morph":
		if p.Target == nil {
			return nil, fmt.Errorf("%w: morph needs a target index", ErrBadParams)
		}
		target, ok := e.lookup(*p.Target)
		if !ok {
			return nil, fmt.Errorf("morph target %d: %w", *p.Target, ErrUnknownObject)
		}
		var opts []align.MorphOption
		if p.SkipPointAlign {
			opts = append(opts, align.SkipPointAlign())
		}
		return animation.MorphShape(target, opts...), nil
	}
	return animation.Lookup(name)
}

// lookup returns the live object at idx, or its declaration when it is not
// in the scene.
func (e *Engine) lookup(idx int) (vobject.VectorObject, bool) {
	if e.scene != nil {
		if o, ok := e.scene.Get(idx); ok {
			return o, true
		}
	}
	o, ok := e.declared[idx]
	return o, ok
}

func rate(name string) (ratefunc.Func, error) {
	if name == "" {
		return nil, nil
	}
	return ratefunc.Lookup(name)
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func point(p *document.Point) geom.Point {
	if p == nil {
		return geom.Origin
	}
	return geom.Pt(p.X, p.Y)
}
