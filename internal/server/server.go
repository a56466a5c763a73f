// Package server exposes the pipeline over HTTP: a WebSocket endpoint
// that streams emitted IntentPackets to subscribers, a health check, and
// a Prometheus scrape endpoint.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/serhatskywalker/talkytalk/internal/adapter"
	"github.com/serhatskywalker/talkytalk/internal/packet"
	"github.com/serhatskywalker/talkytalk/internal/pipeline"
)

// upgrader permits cross-origin connections; talkytalk runs as an
// internal processing service behind a trusted gateway, not a
// browser-facing origin boundary.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server wires a Pipeline to HTTP: each /stream connection gets its own
// session ID and subscribes to the broadcaster for that session's
// packets.
type Server struct {
	log         *slog.Logger
	broadcaster *adapter.WebSocketBroadcaster
	httpServer  *http.Server
	ready       atomic.Bool
	startTime   time.Time
}

// New constructs a Server listening on addr. A nil logger falls back to
// slog.Default().
func New(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	s := &Server{
		log:         logger,
		broadcaster: adapter.NewWebSocketBroadcaster(logger),
		startTime:   time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.handleStream)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// Broadcaster returns the server's packet broadcaster, so callers can
// wire Pipeline.OnPacket(func(p *packet.IntentPacket) { srv.Broadcaster().Broadcast(sessionID, p) }).
func (s *Server) Broadcaster() *adapter.WebSocketBroadcaster { return s.broadcaster }

// SetReady marks the server ready or not-ready for /healthz, letting
// callers gate traffic until the pipeline has fully initialized.
func (s *Server) SetReady(ready bool) { s.ready.Store(ready) }

// ListenAndServe blocks serving HTTP until ctx is cancelled or the server
// errors, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	if !s.ready.Load() {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"ready":   s.ready.Load(),
		"uptime":  time.Since(s.startTime).String(),
	})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s.broadcaster.Subscribe(sessionID, conn)
	defer s.broadcaster.Unsubscribe(sessionID, conn)
	s.log.Info("stream connected", "session_id", sessionID)

	// Drain and discard incoming control frames until the client
	// disconnects; this connection is output-only.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.log.Info("stream disconnected", "session_id", sessionID, "error", err)
			return
		}
	}
}

// EmitToSession returns a pipeline.Callback that broadcasts every emitted
// packet to sessionID's subscribers.
func EmitToSession(s *Server, sessionID string) pipeline.Callback {
	return func(p *packet.IntentPacket) {
		s.broadcaster.Broadcast(sessionID, p)
	}
}
