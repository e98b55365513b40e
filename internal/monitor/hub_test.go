package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"answerback/cli/internal/protocol"
)

func TestHub_BroadcastsToConnectedClient(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitForClients(t, hub, 1)
	hub.Emit("session.sent", map[string]any{"response": "y"})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("bad frame: %v", err)
	}
	if msg.Op != "session.sent" || msg.Type != "event" {
		t.Fatalf("unexpected frame: %+v", msg)
	}
	if !strings.HasPrefix(msg.ID, "evt_") {
		t.Fatalf("unexpected event id: %q", msg.ID)
	}
}

func TestHub_EmitWithoutClientsIsNoOp(t *testing.T) {
	hub := NewHub()
	hub.Emit("session.output", map[string]any{"data": "x"})
	if hub.ClientCount() != 0 {
		t.Fatalf("unexpected clients: %d", hub.ClientCount())
	}
}

func TestHub_ClientRemovedOnDisconnect(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	waitForClients(t, hub, 1)
	_ = conn.Close(websocket.StatusNormalClosure, "")
	waitForClients(t, hub, 0)
}

func httpHandler(hub *Hub) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	return mux
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d (now %d)", want, hub.ClientCount())
}
