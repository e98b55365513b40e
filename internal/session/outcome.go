package session

import "sync"

// Reason is the single terminal reason a run reports to its caller.
type Reason string

const (
	// ReasonCompleted: the child's stdout ended naturally.
	ReasonCompleted Reason = "completed"
	// ReasonAborted: an Abort rule fired or the caller cancelled the run.
	ReasonAborted Reason = "aborted"
	// ReasonTimeout: no activity and no sent response for longer than the
	// configured timeout.
	ReasonTimeout Reason = "timeout"
	// ReasonError: a matcher/responder evaluation failed or a worker died
	// unexpectedly.
	ReasonError Reason = "error"
)

// Outcome is what Run returns besides an error. Every run converges on
// exactly one reason.
type Outcome struct {
	Reason Reason
}

// runState records the first terminal reason observed; later writers
// lose, so abort/timeout/error never overwrite each other.
type runState struct {
	mu     sync.Mutex
	reason Reason
}

func (st *runState) set(r Reason) {
	st.mu.Lock()
	if st.reason == "" {
		st.reason = r
	}
	st.mu.Unlock()
}

func (st *runState) get() Reason {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.reason
}
