package protocol

import (
	"encoding/json"
	"testing"
)

func TestMessage_RoundTrip(t *testing.T) {
	raw := []byte(`{"id":"evt_1","type":"event","op":"session.sent","payload":{"response":"yes"}}`)
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if msg.Op != "session.sent" || msg.Type != "event" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if string(MustRaw(map[string]any{"a": 1})) != `{"a":1}` {
		t.Fatalf("MustRaw mismatch")
	}
}
