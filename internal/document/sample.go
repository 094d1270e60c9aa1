package document

import (
	"encoding/json"

	"github.com/inamate/motion/internal/typeid"
)

const sampleLogo = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
  <path d="M10 90 L50 10 L90 90 Z" fill="#53d769" stroke="#2d6a4f" stroke-width="4"/>
  <circle cx="50" cy="62" r="14" fill="#1a1a2e"/>
</svg>`

func f64(v float64) *float64 { return &v }

// NewSampleScript returns a short demo that exercises shapes, text, SVG
// ingestion, morphing and camera moves.
func NewSampleScript() *Script {
	s := NewEmptyScript(typeid.NewScriptID(), "Sample")
	logo, _ := json.Marshal(map[string]string{"svg": sampleLogo})

	s.Objects = []Object{
		{
			Index:     1,
			Name:      "title",
			Kind:      KindText,
			Data:      json.RawMessage(`{"text": "motion", "size": 96}`),
			Transform: &Transform{X: 640, Y: 140},
			Style:     &Style{Fill: "#ffffff"},
		},
		{
			Index:     2,
			Name:      "square",
			Kind:      KindSquare,
			Data:      json.RawMessage(`{"side": 200}`),
			Transform: &Transform{X: 340, Y: 400, R: 15},
			Style:     &Style{Fill: "#e94560", Stroke: "#ffffff", StrokeWidth: f64(4)},
		},
		{
			Index:     3,
			Name:      "circle",
			Kind:      KindCircle,
			Data:      json.RawMessage(`{"radius": 110}`),
			Transform: &Transform{X: 940, Y: 400},
			Style:     &Style{Fill: "#0f3460", Stroke: "#16213e", StrokeWidth: f64(6)},
		},
		{
			Index:     4,
			Name:      "logo",
			Kind:      KindSVG,
			Data:      logo,
			Transform: &Transform{X: 640, Y: 560, SX: 1.5, SY: 1.5},
		},
		{
			Index: 5,
			Name:  "spinner",
			Kind:  KindGroup,
			Children: []Object{
				{
					Index:     6,
					Kind:      KindRectangle,
					Data:      json.RawMessage(`{"width": 60, "height": 100}`),
					Transform: &Transform{X: -30},
					Style:     &Style{Fill: "#f5a623"},
				},
				{
					Index:     7,
					Kind:      KindEllipse,
					Data:      json.RawMessage(`{"rx": 40, "ry": 25}`),
					Transform: &Transform{X: 40},
					Style:     &Style{Fill: "#7b68ee"},
				},
			},
			Transform: &Transform{X: 1100, Y: 620},
		},
	}

	s.Steps = []Step{
		{Op: OpPlay, Indices: []int{1}, Animation: "write", Seconds: 1.5},
		{Op: OpAdd, Indices: []int{2, 3}},
		{Op: OpPlay, Indices: []int{2, 3}, Animation: "create", Seconds: 1, LagRatio: f64(0.3)},
		{Op: OpSave, Slot: 1},
		{Op: OpPlay, Indices: []int{2}, Animation: "morph", Params: json.RawMessage(`{"target": 3}`), Seconds: 1.5, Rate: "smooth"},
		{Op: OpPlay, Indices: []int{3}, Animation: "indicate", Seconds: 1, Rate: "linear"},
		{Op: OpWait, Seconds: 0.5},
		{Op: OpRestore, Slot: 1},
		{Op: OpRender},
		{Op: OpPlay, Indices: []int{4}, Animation: "fadeIn", Params: json.RawMessage(`{"scale": 0.5, "shift": {"x": 0, "y": 40}}`), Seconds: 1},
		{Op: OpPlay, Indices: []int{5}, Animation: "spinningGrow", Seconds: 1},
		{Op: OpPlay, Indices: []int{5}, Animation: "rotate", Params: json.RawMessage(`{"degrees": 360}`), Seconds: 2, Rate: "linear"},
		{Op: OpCamera, TopLeft: &Point{X: 160, Y: 90}, BottomRight: &Point{X: 1120, Y: 630}, Seconds: 1},
		{Op: OpPlay, Indices: []int{1, 2, 3, 4, 5}, Animation: "fadeOut", Seconds: 1, LagRatio: f64(0.1)},
		{Op: OpHold, Frames: 15},
	}
	return s
}
