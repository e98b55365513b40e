package rules

import "fmt"

// ActionKind tags the outcome of resolving a rule against a read window.
type ActionKind int

const (
	// ActionNone consumes the rule without touching stdin or the window.
	// Produced only by an empty-literal default when nothing matched.
	ActionNone ActionKind = iota
	// ActionSend writes Text plus a line terminator to stdin.
	ActionSend
	ActionWait
	ActionSkip
	ActionAbort
)

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionSend:
		return "send"
	case ActionWait:
		return "wait"
	case ActionSkip:
		return "skip"
	case ActionAbort:
		return "abort"
	}
	return "unknown"
}

// Action is the fully resolved decision for one quiescence tick.
type Action struct {
	Kind ActionKind
	Text string
}

// Resolve scans the rule's entries in insertion order and resolves the
// first matching responder against the window; first-match-wins, never
// best-match. When no entry matches, the rule's default responder is
// resolved instead, except that an empty-literal default becomes
// ActionNone rather than sending a bare line terminator.
//
// Predicate and compute errors are fatal to the run: they are returned
// unretried and the caller is expected to cancel the session.
func Resolve(rule *Rule, window string) (Action, error) {
	for i, e := range rule.entries {
		ok, err := e.matcher.Match(window)
		if err != nil {
			return Action{}, fmt.Errorf("rule entry %d: matcher: %w", i, err)
		}
		if ok {
			return resolveResponder(e.responder, window)
		}
	}
	if rule.def.IsEmptyLiteral() {
		return Action{Kind: ActionNone}, nil
	}
	return resolveResponder(rule.def, window)
}

func resolveResponder(r Responder, window string) (Action, error) {
	switch r.kind {
	case responderLiteral:
		return Action{Kind: ActionSend, Text: r.text}, nil
	case responderComputed:
		text, err := r.compute(window)
		if err != nil {
			return Action{}, fmt.Errorf("computed response: %w", err)
		}
		return Action{Kind: ActionSend, Text: text}, nil
	case responderControl:
		switch r.control {
		case Wait:
			return Action{Kind: ActionWait}, nil
		case Skip:
			return Action{Kind: ActionSkip}, nil
		case Abort:
			return Action{Kind: ActionAbort}, nil
		}
	}
	return Action{}, fmt.Errorf("unresolvable responder kind %d", r.kind)
}
