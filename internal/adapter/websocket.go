package adapter

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/serhatskywalker/talkytalk/internal/packet"
)

// writeTimeout bounds how long a single broadcast write may block before
// the connection is considered dead.
const writeTimeout = 10 * time.Second

// WebSocketBroadcaster fans IntentPackets out to every subscribed
// WebSocket connection for a session, removing connections whose writes
// fail.
type WebSocketBroadcaster struct {
	mu          sync.RWMutex
	connections map[string]map[*websocket.Conn]struct{}
	logger      *slog.Logger
}

// NewWebSocketBroadcaster constructs an empty broadcaster.
func NewWebSocketBroadcaster(logger *slog.Logger) *WebSocketBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketBroadcaster{
		connections: make(map[string]map[*websocket.Conn]struct{}),
		logger:      logger,
	}
}

// Name returns "websocket".
func (b *WebSocketBroadcaster) Name() string { return "websocket" }

// Subscribe registers conn as a recipient of packets for sessionID.
func (b *WebSocketBroadcaster) Subscribe(sessionID string, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connections[sessionID] == nil {
		b.connections[sessionID] = make(map[*websocket.Conn]struct{})
	}
	b.connections[sessionID][conn] = struct{}{}
}

// Unsubscribe removes conn from sessionID's recipient set.
func (b *WebSocketBroadcaster) Unsubscribe(sessionID string, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if conns, ok := b.connections[sessionID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(b.connections, sessionID)
		}
	}
}

// SubscriberCount returns the number of connections currently subscribed
// to sessionID.
func (b *WebSocketBroadcaster) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.connections[sessionID])
}

// Broadcast marshals p to JSON and sends it to every connection subscribed
// to sessionID, unsubscribing any connection whose write fails.
func (b *WebSocketBroadcaster) Broadcast(sessionID string, p *packet.IntentPacket) {
	data, err := json.Marshal(p.ToDict())
	if err != nil {
		b.logger.Error("marshal intent packet for broadcast", "error", err, "session_id", sessionID)
		return
	}

	b.mu.RLock()
	conns, ok := b.connections[sessionID]
	if !ok || len(conns) == 0 {
		b.mu.RUnlock()
		return
	}
	targets := make([]*websocket.Conn, 0, len(conns))
	for conn := range conns {
		targets = append(targets, conn)
	}
	b.mu.RUnlock()

	for _, conn := range targets {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			b.logger.Warn("broadcast write failed, dropping connection", "error", err, "session_id", sessionID)
			b.Unsubscribe(sessionID, conn)
		}
	}
}

// Transform satisfies Adapter[struct{}] by broadcasting to the session
// named "default"; callers that manage multiple sessions should call
// Broadcast directly instead.
func (b *WebSocketBroadcaster) Transform(p *packet.IntentPacket) (struct{}, error) {
	b.Broadcast("default", p)
	return struct{}{}, nil
}
