package transcript

import (
	"log/slog"
	"sync/atomic"
)

// Recorder adapts a Store to the session event feed: it counts sent
// responses and stamps the terminal reason. Storage errors are logged
// and dropped; recording must never interfere with the run.
type Recorder struct {
	store     *Store
	sessionID string
	logger    *slog.Logger
	seq       atomic.Int64
}

func NewRecorder(store *Store, sessionID string, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, sessionID: sessionID, logger: logger}
}

func (r *Recorder) Emit(op string, payload map[string]any) {
	switch op {
	case "session.sent":
		prompt, _ := payload["prompt"].(string)
		response, _ := payload["response"].(string)
		seq := int(r.seq.Add(1))
		if err := r.store.RecordExchange(r.sessionID, seq, prompt, response); err != nil {
			r.logger.Warn("record exchange failed", "session_id", r.sessionID, "seq", seq, "err", err)
		}
	case "session.ended":
		reason, _ := payload["reason"].(string)
		if err := r.store.EndSession(r.sessionID, reason); err != nil {
			r.logger.Warn("end session failed", "session_id", r.sessionID, "err", err)
		}
	}
}
