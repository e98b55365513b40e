// Package monitor exposes a read-only live feed of session events over
// websocket. Clients connect to /ws and receive every session.output,
// session.sent and session.ended event as a JSON envelope.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"answerback/cli/internal/protocol"
)

const clientWriteTimeout = 500 * time.Millisecond

// Hub fans session events out to connected websocket clients. It
// implements the session event sink; with no clients connected every
// emit is a cheap no-op.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
	seq     atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{clients: map[*websocket.Conn]struct{}{}}
}

// HandleWS upgrades the request and keeps the connection registered
// until the client goes away. Inbound frames are read and discarded;
// the feed is one-way.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

// Emit broadcasts one event to every connected client. Slow clients are
// bounded by a short write timeout; a failed write is dropped rather
// than stalling the session.
func (h *Hub) Emit(op string, payload map[string]any) {
	h.mu.RLock()
	if len(h.clients) == 0 {
		h.mu.RUnlock()
		return
	}
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	evt := protocol.Message{
		ID:      fmt.Sprintf("evt_%d", h.seq.Add(1)),
		Type:    "event",
		Op:      op,
		Payload: protocol.MustRaw(payload),
	}
	msg, err := json.Marshal(evt)
	if err != nil {
		return
	}

	for _, c := range clients {
		ctx, cancel := context.WithTimeout(context.Background(), clientWriteTimeout)
		_ = c.Write(ctx, websocket.MessageText, msg)
		cancel()
	}
}

// ClientCount reports the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
