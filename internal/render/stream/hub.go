// Package stream is a live preview renderer: frames are compiled to draw
// commands and broadcast as JSON to every websocket viewer of a session.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/inamate/motion/internal/render"
	"github.com/inamate/motion/internal/scene"
)

type session struct {
	id      string
	clients map[string]*Client // clientID -> client
	seq     int64

	// Latest frame, replayed to viewers that join mid-animation.
	frame    scene.Frame
	commands []render.DrawCommand
	message  []byte
}

func newSession(id string) *session {
	return &session{id: id, clients: make(map[string]*Client)}
}

type Hub struct {
	mu         sync.RWMutex
	sessions   map[string]*session // sessionID -> session
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sessions:   make(map[string]*session),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations until ctx is done. Remaining clients are
// disconnected on exit.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.mu.Lock()
		for _, s := range h.sessions {
			for _, c := range s.clients {
				close(c.send)
			}
			s.clients = map[string]*Client{}
		}
		h.mu.Unlock()
	}()
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	s, ok := h.sessions[client.SessionID]
	if !ok {
		s = newSession(client.SessionID)
		h.sessions[client.SessionID] = s
	}
	s.clients[client.ClientID] = client
	latest := s.message
	count := len(s.clients)
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{ClientID: client.ClientID})
	client.Send(&Message{Type: TypeWelcome, SessionID: client.SessionID, Payload: welcome})

	// Send the current frame to the new viewer
	if latest != nil {
		client.sendRaw(latest)
	}
	h.broadcastViewers(client.SessionID, count)

	h.logger.Info("viewer joined", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	s, ok := h.sessions[client.SessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := s.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(s.clients, client.ClientID)
	close(client.send)
	count := len(s.clients)

	if count == 0 && s.message == nil {
		delete(h.sessions, client.SessionID)
	}
	h.mu.Unlock()

	h.broadcastViewers(client.SessionID, count)

	h.logger.Info("viewer left", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeHit:
		h.handleHit(sender, msg)
	default:
		h.logger.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		payload, _ := json.Marshal(ErrorPayload{Message: "unknown message type: " + msg.Type})
		h.reply(sender, &Message{Type: TypeError, Payload: payload})
	}
}

// handleHit answers with the topmost object under a pixel of the latest frame.
func (h *Hub) handleHit(sender *Client, msg *Message) {
	var hit HitPayload
	if err := json.Unmarshal(msg.Payload, &hit); err != nil {
		h.logger.Warn("invalid hit payload", "error", err)
		return
	}

	h.mu.RLock()
	s, ok := h.sessions[sender.SessionID]
	var id string
	if ok && s.commands != nil {
		id = render.HitTest(s.commands, s.frame, hit.X, hit.Y)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(HitResultPayload{X: hit.X, Y: hit.Y, ObjectID: id})
	h.reply(sender, &Message{Type: TypeHitResult, SessionID: sender.SessionID, Payload: payload})
}

// reply queues msg for c from a read pump. Send channels are closed under the
// write lock when clients leave the map, so a client still registered under
// the read lock has an open channel.
func (h *Hub) reply(c *Client, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if s, ok := h.sessions[c.SessionID]; !ok || s.clients[c.ClientID] != c {
		return
	}
	c.sendRaw(data)
}

func (h *Hub) broadcastViewers(sessionID string, count int) {
	payload, _ := json.Marshal(ViewersPayload{Count: count})
	data, err := json.Marshal(&Message{Type: TypeViewers, SessionID: sessionID, Payload: payload})
	if err != nil {
		h.logger.Error("marshal viewers", "error", err)
		return
	}
	h.broadcast(sessionID, data)
}

// broadcast sends under the read lock so no client channel is closed
// mid-send.
func (h *Hub) broadcast(sessionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	for _, c := range s.clients {
		c.sendRaw(data)
	}
}

// Publish compiles f and sends it to the session's viewers.
func (h *Hub) Publish(sessionID string, f scene.Frame) error {
	commands := render.Compile(f)

	h.mu.Lock()
	s, ok := h.sessions[sessionID]
	if !ok {
		s = newSession(sessionID)
		h.sessions[sessionID] = s
	}
	s.seq++
	payload, err := json.Marshal(FramePayload{Number: f.Number, Width: f.Width, Height: f.Height, Commands: commands})
	if err != nil {
		h.mu.Unlock()
		return err
	}
	data, err := json.Marshal(&Message{Type: TypeFrame, SessionID: sessionID, Seq: s.seq, Payload: payload})
	if err != nil {
		h.mu.Unlock()
		return err
	}
	s.frame, s.commands, s.message = f, commands, data
	h.mu.Unlock()

	h.broadcast(sessionID, data)
	return nil
}

// Forget drops a session's retained frame. Connected viewers stay.
func (h *Hub) Forget(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	if len(s.clients) == 0 {
		delete(h.sessions, sessionID)
		return
	}
	s.frame, s.commands, s.message = scene.Frame{}, nil, nil
}

// Viewers reports how many clients watch a session.
func (h *Hub) Viewers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if s, ok := h.sessions[sessionID]; ok {
		return len(s.clients)
	}
	return 0
}

// Renderer returns a scene renderer publishing to sessionID.
func (h *Hub) Renderer(sessionID string) scene.Renderer {
	return scene.RendererFunc(func(_ context.Context, f scene.Frame) error {
		return h.Publish(sessionID, f)
	})
}
