// Package rules holds the decision model for automated prompt responses:
// matchers over accumulated child output, responder values, and the
// session rule queue with repeat bookkeeping.
package rules

import (
	"regexp"
	"strings"
)

// Control is a responder action that steers the session instead of
// producing text for stdin.
type Control int

const (
	// Wait defers the decision and re-examines the same rule on the next
	// quiescence tick.
	Wait Control = iota
	// Skip consumes the rule and moves on to the next candidate without
	// writing anything.
	Skip
	// Abort terminates the whole session.
	Abort
)

func (c Control) String() string {
	switch c {
	case Wait:
		return "wait"
	case Skip:
		return "skip"
	case Abort:
		return "abort"
	}
	return "unknown"
}

// PredicateFunc gates a responder entry on the current read window.
type PredicateFunc func(window string) (bool, error)

// ComputeFunc derives response text from the current read window.
type ComputeFunc func(window string) (string, error)

type matcherKind int

const (
	matcherPattern matcherKind = iota
	matcherPredicate
	matcherLine
)

// Matcher decides whether a responder entry applies to the read window.
type Matcher struct {
	kind matcherKind
	re   *regexp.Regexp
	pred PredicateFunc
	line string
}

// Pattern matches when the window matches the regular expression.
// The pattern is compiled once; an invalid pattern panics.
func Pattern(pattern string) Matcher {
	return Regexp(regexp.MustCompile(pattern))
}

// Regexp matches when the window matches the compiled expression.
func Regexp(re *regexp.Regexp) Matcher {
	return Matcher{kind: matcherPattern, re: re}
}

// When matches when the predicate reports true. The predicate's result is
// only a gate: the responder paired with it supplies the reply.
func When(pred PredicateFunc) Matcher {
	return Matcher{kind: matcherPredicate, pred: pred}
}

// LastLine matches when the window's last non-empty line equals s exactly.
// Lines are split on "\n"; a trailing "\r" and lines that are blank after
// that are skipped, so a prompt followed by a newline still matches.
func LastLine(s string) Matcher {
	return Matcher{kind: matcherLine, line: s}
}

// Match evaluates the matcher against the read window. Predicate errors
// are fatal to the run and propagate unchanged.
func (m Matcher) Match(window string) (bool, error) {
	switch m.kind {
	case matcherPattern:
		return m.re.MatchString(window), nil
	case matcherPredicate:
		return m.pred(window)
	case matcherLine:
		return lastNonEmptyLine(window) == m.line, nil
	}
	return false, nil
}

func lastNonEmptyLine(window string) string {
	lines := strings.Split(window, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSuffix(lines[i], "\r")
		if line != "" {
			return line
		}
	}
	return ""
}

type responderKind int

const (
	responderLiteral responderKind = iota
	responderComputed
	responderControl
)

// Responder is the value paired with a matcher: literal text, computed
// text, or a control action.
type Responder struct {
	kind    responderKind
	text    string
	compute ComputeFunc
	control Control
}

// Reply answers with literal text.
func Reply(text string) Responder {
	return Responder{kind: responderLiteral, text: text}
}

// Compute answers with text derived from the full read window.
func Compute(f ComputeFunc) Responder {
	return Responder{kind: responderComputed, compute: f}
}

// Do answers with a control action.
func Do(c Control) Responder {
	return Responder{kind: responderControl, control: c}
}

// IsEmptyLiteral reports whether the responder is the zero literal, the
// implicit default for rules built without an explicit Default option.
func (r Responder) IsEmptyLiteral() bool {
	return r.kind == responderLiteral && r.text == ""
}

type entry struct {
	matcher   Matcher
	responder Responder
}

// RepeatForever marks a rule that is never removed from the queue.
const RepeatForever = -1

// Rule is an ordered list of matcher/responder entries plus a default
// responder and a repeat budget. Rules are immutable once registered;
// repeat is only mutated on session copies inside a Queue.
type Rule struct {
	entries []entry
	def     Responder
	repeat  int
}

// Option configures a Rule built by New.
type Option func(*Rule)

// On appends a matcher/responder entry. Entries are tried in the order
// they were added; the first match wins.
func On(m Matcher, r Responder) Option {
	return func(rule *Rule) {
		rule.entries = append(rule.entries, entry{matcher: m, responder: r})
	}
}

// Default sets the responder used when no entry matches. Without this
// option the default is the empty literal, which consumes the rule
// without writing anything.
func Default(r Responder) Option {
	return func(rule *Rule) {
		rule.def = r
	}
}

// Repeat grants the rule n additional uses beyond the first. Negative
// values mean RepeatForever.
func Repeat(n int) Option {
	return func(rule *Rule) {
		if n < 0 {
			n = RepeatForever
		}
		rule.repeat = n
	}
}

// Forever keeps the rule eligible for the entire session.
func Forever() Option {
	return Repeat(RepeatForever)
}

// New builds a Rule from named options. The zero rule has no entries, an
// empty-literal default and a repeat budget of 0 (a single use).
func New(opts ...Option) *Rule {
	rule := &Rule{def: Reply("")}
	for _, opt := range opts {
		opt(rule)
	}
	return rule
}

// Remaining reports the repeat budget left on this rule copy.
func (r *Rule) Remaining() int {
	return r.repeat
}

func (r *Rule) clone() *Rule {
	// Entries and default are immutable; only repeat is per-copy state.
	return &Rule{entries: r.entries, def: r.def, repeat: r.repeat}
}
