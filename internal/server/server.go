// Package server is the HTTP surface of the motion server: offline renders
// returned as files and live sessions streamed to websocket viewers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"

	"github.com/inamate/motion/internal/animation"
	"github.com/inamate/motion/internal/config"
	"github.com/inamate/motion/internal/document"
	"github.com/inamate/motion/internal/engine"
	"github.com/inamate/motion/internal/ratefunc"
	"github.com/inamate/motion/internal/render/stream"
	"github.com/inamate/motion/internal/scene"
	"github.com/inamate/motion/internal/svgload"
	"github.com/inamate/motion/internal/typeid"
	"github.com/inamate/motion/internal/typeset"
)

// Server owns the live sessions and the stream hub they publish to.
type Server struct {
	cfg    *config.Config
	hub    *stream.Hub
	logger *slog.Logger

	// base outlives requests; sessions run under it until deleted.
	base   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	id     string
	engine *engine.Engine
	cancel context.CancelFunc
	done   chan struct{}
	frames atomic.Int64
	err    error // set before done is closed
}

// SessionInfo is the JSON view of a session.
type SessionInfo struct {
	ID        string `json:"id"`
	WebSocket string `json:"websocket"`
	Running   bool   `json:"running"`
	Frames    int64  `json:"frames"`
	Viewers   int    `json:"viewers"`
	Error     string `json:"error,omitempty"`
}

func New(cfg *config.Config, hub *stream.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		hub:      hub,
		logger:   logger,
		base:     ctx,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}
}

// Routes returns the router with middleware applied.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	r.Use(Recovery(s.logger))
	r.Use(Logger(s.logger))
	r.Use(CORS(s.cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	r.PathPrefix("/assets/").Handler(s.Assets()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sample", s.Sample).Methods("GET")
	api.HandleFunc("/assets", s.UploadAsset).Methods("POST", "OPTIONS")
	api.HandleFunc("/render", s.Render).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions", s.CreateSession).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}", s.GetSession).Methods("GET")
	api.HandleFunc("/sessions/{sessionId}", s.DeleteSession).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/ws", s.Watch).Methods("GET")

	return r
}

// Sample handles GET /api/sample.
func (s *Server) Sample(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, document.NewSampleScript())
}

// CreateSession handles POST /api/sessions. The script is loaded before
// responding so build errors come back as 400; the steps then play in real
// time to the session's viewers.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	script, ok := s.decodeScript(w, r)
	if !ok {
		return
	}

	id := typeid.NewSessionID()
	logger := s.logger.With("session", id)
	sess := &session{id: id, done: make(chan struct{})}
	sess.engine = s.newEngine(scene.RealtimeClock{}, logger)

	ctx, cancel := context.WithCancel(s.base)
	sess.cancel = cancel
	publish := s.hub.Renderer(id)
	renderer := scene.RendererFunc(func(ctx context.Context, f scene.Frame) error {
		sess.frames.Add(1)
		return publish.RenderFrame(ctx, f)
	})
	if _, err := sess.engine.Load(ctx, script, renderer); err != nil {
		cancel()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	go func() {
		defer close(sess.done)
		err := sess.engine.Execute(ctx, script.Steps...)
		if err != nil && !errors.Is(err, scene.ErrStopped) && !errors.Is(err, context.Canceled) {
			logger.Error("session failed", "error", err)
			sess.err = err
			return
		}
		logger.Info("session finished", "frames", sess.frames.Load())
	}()

	logger.Info("session started", "script", script.ID)
	writeJSON(w, http.StatusCreated, s.info(sess))
}

// GetSession handles GET /api/sessions/{sessionId}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.info(sess))
}

// DeleteSession handles DELETE /api/sessions/{sessionId}: the script is
// stopped and the retained frame dropped.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()

	s.stop(sess)
	s.hub.Forget(sess.id)
	w.WriteHeader(http.StatusNoContent)
}

// Watch handles GET /api/sessions/{sessionId}/ws.
func (s *Server) Watch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.hub.ServeSession(w, r, sess.id, s.cfg.Origins())
}

// Shutdown stops every running session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.engine.Stop()
		select {
		case <-sess.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := mux.Vars(r)["sessionId"]
	if err := typeid.Validate(id, typeid.PrefixSession); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

func (s *Server) stop(sess *session) {
	sess.engine.Stop()
	sess.cancel()
	<-sess.done
}

func (s *Server) info(sess *session) SessionInfo {
	info := SessionInfo{
		ID:        sess.id,
		WebSocket: "/api/sessions/" + sess.id + "/ws",
		Running:   true,
		Frames:    sess.frames.Load(),
		Viewers:   s.hub.Viewers(sess.id),
	}
	select {
	case <-sess.done:
		info.Running = false
		if sess.err != nil {
			info.Error = sess.err.Error()
		}
	default:
	}
	return info
}

func (s *Server) newEngine(clock scene.Clock, logger *slog.Logger) *engine.Engine {
	return engine.NewEngine(
		engine.WithClock(clock),
		engine.WithLogger(logger),
		engine.WithFontSize(s.cfg.FontSize),
		engine.WithAssetDir(s.cfg.AssetDir),
	)
}

// isScriptError reports whether err comes from the script itself rather
// than from rendering.
func isScriptError(err error) bool {
	for _, target := range []error{
		document.ErrInvalidScript,
		engine.ErrUnknownObject,
		engine.ErrUnknownKind,
		engine.ErrBadParams,
		animation.ErrUnknown,
		ratefunc.ErrUnknown,
		scene.ErrUnknownIndex,
		scene.ErrUnsavedState,
		scene.ErrCardinality,
		svgload.ErrBadPath,
		svgload.ErrNotSVG,
		typeset.ErrEmptyText,
		typeset.ErrMissingGlyph,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
