package transcript

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "answerback.db")
	gdb, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = Close(gdb) })
	st, err := NewStore(gdb)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return st
}

func TestStore_SessionLifecycle(t *testing.T) {
	st := openTestStore(t)

	id, err := st.BeginSession("apt-get install foo")
	if err != nil {
		t.Fatalf("begin session: %v", err)
	}
	if id == "" {
		t.Fatalf("expected session id")
	}

	if err := st.RecordExchange(id, 1, "Continue? [Y/n] ", "y"); err != nil {
		t.Fatalf("record exchange: %v", err)
	}
	if err := st.RecordExchange(id, 2, "password: ", "hunter2"); err != nil {
		t.Fatalf("record exchange: %v", err)
	}
	if err := st.EndSession(id, "completed"); err != nil {
		t.Fatalf("end session: %v", err)
	}

	entries, err := st.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 session, got %d", len(entries))
	}
	got := entries[0]
	if got.SessionID != id || got.Reason != "completed" || got.Exchanges != 2 {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if got.Started.Unix() <= 0 || got.Ended.Unix() <= 0 {
		t.Fatalf("expected unix-second timestamps: %+v", got)
	}

	exchanges, err := st.Exchanges(id)
	if err != nil {
		t.Fatalf("exchanges: %v", err)
	}
	if len(exchanges) != 2 || exchanges[0].Response != "y" || exchanges[1].Seq != 2 {
		t.Fatalf("unexpected exchanges: %+v", exchanges)
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	st := openTestStore(t)
	for _, cmd := range []string{"first", "second"} {
		if _, err := st.BeginSession(cmd); err != nil {
			t.Fatalf("begin %s: %v", cmd, err)
		}
	}
	entries, err := st.List(1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("limit not honored: %d", len(entries))
	}
}

func TestStore_GuardsAgainstMisuse(t *testing.T) {
	var st *Store
	if _, err := st.BeginSession("x"); err == nil {
		t.Fatalf("nil store should error")
	}
	real := openTestStore(t)
	if err := real.RecordExchange("", 1, "p", "r"); err == nil {
		t.Fatalf("empty session id should error")
	}
}

func TestRecorder_TracksSeqAndReason(t *testing.T) {
	st := openTestStore(t)
	id, err := st.BeginSession("echo")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	rec := NewRecorder(st, id, testLogger())
	rec.Emit("session.output", map[string]any{"data": "ignored"})
	rec.Emit("session.sent", map[string]any{"prompt": "p1", "response": "r1"})
	rec.Emit("session.sent", map[string]any{"prompt": "p2", "response": "r2"})
	rec.Emit("session.ended", map[string]any{"reason": "aborted"})

	exchanges, err := st.Exchanges(id)
	if err != nil {
		t.Fatalf("exchanges: %v", err)
	}
	if len(exchanges) != 2 || exchanges[1].Seq != 2 {
		t.Fatalf("unexpected exchanges: %+v", exchanges)
	}
	entries, err := st.List(1)
	if err != nil || len(entries) != 1 {
		t.Fatalf("list: %v %v", entries, err)
	}
	if entries[0].Reason != "aborted" {
		t.Fatalf("reason not stamped: %+v", entries[0])
	}
}
