package stream

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// ServeSession upgrades the request and pumps frames for sessionID until
// the viewer disconnects.
func (h *Hub) ServeSession(w http.ResponseWriter, r *http.Request, sessionID string, originPatterns []string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		h.logger.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h, conn, sessionID, uuid.New().String())

	h.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
