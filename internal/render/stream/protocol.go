package stream

import (
	"encoding/json"

	"github.com/inamate/motion/internal/render"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Viewers
	TypeViewers = "viewers"

	// Frames
	TypeFrame = "frame"

	// Hit testing
	TypeHit       = "hit"
	TypeHitResult = "hit.result"
)

type WelcomePayload struct {
	ClientID string `json:"clientId"`
}

type ViewersPayload struct {
	Count int `json:"count"`
}

// FramePayload carries one frame's draw commands.
type FramePayload struct {
	Number   int                  `json:"number"`
	Width    int                  `json:"width"`
	Height   int                  `json:"height"`
	Commands []render.DrawCommand `json:"commands"`
}

// HitPayload is a pixel position in the latest frame.
type HitPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type HitResultPayload struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ObjectID string  `json:"objectId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
