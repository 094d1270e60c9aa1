package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var ErrInvalidScript = errors.New("invalid script")

// Script is a declarative animation: scene settings, the objects it uses
// and the steps that play them.
type Script struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Version  int      `json:"version"`
	Settings Settings `json:"settings"`
	Objects  []Object `json:"objects"`
	Steps    []Step   `json:"steps"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Settings struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	FPS         float64 `json:"fps"`
	Background  string  `json:"background"`
	TopLeft     *Point  `json:"topLeft,omitempty"`
	BottomRight *Point  `json:"bottomRight,omitempty"`
}

type ObjectKind string

const (
	KindGroup            ObjectKind = "group"
	KindCircle           ObjectKind = "circle"
	KindEllipse          ObjectKind = "ellipse"
	KindArc              ObjectKind = "arc"
	KindDot              ObjectKind = "dot"
	KindSquare           ObjectKind = "square"
	KindRectangle        ObjectKind = "rectangle"
	KindRoundedRectangle ObjectKind = "roundedRectangle"
	KindRegularPolygon   ObjectKind = "regularPolygon"
	KindPolygon          ObjectKind = "polygon"
	KindPolyline         ObjectKind = "polyline"
	KindLine             ObjectKind = "line"
	KindDashedLine       ObjectKind = "dashedLine"
	KindPath             ObjectKind = "path"
	KindText             ObjectKind = "text"
	KindSVG              ObjectKind = "svg"
	KindImage            ObjectKind = "image"
)

// Transform places an object after it is built: scale and rotate about the
// anchor (AX, AY) in object space, then translate by (X, Y). Zero scales
// mean 1.
type Transform struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	SX float64 `json:"sx"`
	SY float64 `json:"sy"`
	R  float64 `json:"r"`
	AX float64 `json:"ax"`
	AY float64 `json:"ay"`
}

// Style overrides the built object's styling. Empty colors and nil numbers
// keep the object's own value.
type Style struct {
	Fill        string   `json:"fill,omitempty"`
	Stroke      string   `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
	FillRule    string   `json:"fillRule,omitempty"`
	LineCap     string   `json:"lineCap,omitempty"`
	LineJoin    string   `json:"lineJoin,omitempty"`
}

// Object declares one scene object. Data carries the kind's parameters,
// for example {"radius": 50} for a circle or {"text": "Hello"} for text.
type Object struct {
	Index     int             `json:"index"`
	Name      string          `json:"name,omitempty"`
	Kind      ObjectKind      `json:"kind"`
	Data      json.RawMessage `json:"data,omitempty"`
	Transform *Transform      `json:"transform,omitempty"`
	Style     *Style          `json:"style,omitempty"`
	Children  []Object        `json:"children,omitempty"`
}

type StepOp string

const (
	OpAdd        StepOp = "add"
	OpRemove     StepOp = "remove"
	OpPlay       StepOp = "play"
	OpWait       StepOp = "wait"
	OpHold       StepOp = "hold"
	OpCamera     StepOp = "camera"
	OpBackground StepOp = "background"
	OpSave       StepOp = "save"
	OpRestore    StepOp = "restore"
	OpRender     StepOp = "render"
)

// Step is one instruction. Durations are given either in frames or in
// seconds; frames wins when both are set.
type Step struct {
	Op      StepOp `json:"op"`
	Indices []int  `json:"indices,omitempty"`

	Animation string          `json:"animation,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Rate      string          `json:"rate,omitempty"`
	LagRatio  *float64        `json:"lagRatio,omitempty"`

	Frames  int     `json:"frames,omitempty"`
	Seconds float64 `json:"seconds,omitempty"`

	Slot        int    `json:"slot,omitempty"`
	TopLeft     *Point `json:"topLeft,omitempty"`
	BottomRight *Point `json:"bottomRight,omitempty"`
	Background  string `json:"background,omitempty"`
}

// NewEmptyScript creates a script with default settings and no objects.
func NewEmptyScript(id, name string) *Script {
	return &Script{
		ID:      id,
		Name:    name,
		Version: 1,
		Settings: Settings{
			Width:      1280,
			Height:     720,
			FPS:        30,
			Background: "#1a1a2e",
		},
		Objects: []Object{},
		Steps:   []Step{},
	}
}

// Decode reads a JSON script and validates it.
func Decode(r io.Reader) (*Script, error) {
	var s Script
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Parse decodes a JSON script held in memory.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks structure only: settings, unique object indices, known
// step ops and references to declared objects. Parameters are checked when
// the script runs.
func (s *Script) Validate() error {
	if s.Settings.Width <= 0 || s.Settings.Height <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidScript, s.Settings.Width, s.Settings.Height)
	}
	if s.Settings.FPS <= 0 {
		return fmt.Errorf("%w: fps %v", ErrInvalidScript, s.Settings.FPS)
	}

	declared := make(map[int]bool, len(s.Objects))
	for _, o := range s.Objects {
		if declared[o.Index] {
			return fmt.Errorf("%w: duplicate object index %d", ErrInvalidScript, o.Index)
		}
		declared[o.Index] = true
		if err := o.validate(); err != nil {
			return err
		}
	}

	for i, st := range s.Steps {
		switch st.Op {
		case OpAdd, OpRemove, OpPlay:
			if len(st.Indices) == 0 {
				return fmt.Errorf("%w: step %d (%s) needs indices", ErrInvalidScript, i, st.Op)
			}
		case OpWait, OpHold, OpSave, OpRestore, OpRender:
		case OpCamera:
			if st.TopLeft == nil || st.BottomRight == nil {
				return fmt.Errorf("%w: step %d (camera) needs topLeft and bottomRight", ErrInvalidScript, i)
			}
		case OpBackground:
			if st.Background == "" {
				return fmt.Errorf("%w: step %d (background) needs a color", ErrInvalidScript, i)
			}
		default:
			return fmt.Errorf("%w: step %d has unknown op %q", ErrInvalidScript, i, st.Op)
		}
		if st.Op == OpPlay && st.Animation == "" {
			return fmt.Errorf("%w: step %d (play) needs an animation", ErrInvalidScript, i)
		}
		if st.Op == OpAdd {
			for _, idx := range st.Indices {
				if !declared[idx] {
					return fmt.Errorf("%w: step %d adds undeclared object %d", ErrInvalidScript, i, idx)
				}
			}
		}
	}
	return nil
}

func (o Object) validate() error {
	if o.Kind == "" {
		return fmt.Errorf("%w: object %d has no kind", ErrInvalidScript, o.Index)
	}
	if o.Kind != KindGroup && len(o.Children) > 0 {
		return fmt.Errorf("%w: object %d of kind %s cannot have children", ErrInvalidScript, o.Index, o.Kind)
	}
	for _, c := range o.Children {
		if err := c.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Duration returns the step length in frames at fps, or 0 when unset.
func (st Step) Duration(fps float64) int {
	if st.Frames > 0 {
		return st.Frames
	}
	if st.Seconds > 0 {
		return max(1, int(st.Seconds*fps+0.5))
	}
	return 0
}
