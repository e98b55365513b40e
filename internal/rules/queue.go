package rules

// Queue is the per-session rule queue. It is seeded with copies of the
// configured rules so registered rules are never mutated, and it only
// ever shrinks: a requeue replaces the front entry with a repeat-reset
// copy of itself, never adding entries.
//
// Queue is not safe for concurrent use; the responder loop is its only
// caller.
type Queue struct {
	items []*Rule
}

// NewQueue copies the configured rule list into a fresh session queue.
func NewQueue(configured []*Rule) *Queue {
	items := make([]*Rule, 0, len(configured))
	for _, rule := range configured {
		items = append(items, rule.clone())
	}
	return &Queue{items: items}
}

// PeekNext returns the front rule, or nil when the queue is empty.
// Callers treat nil as "no decision this tick".
func (q *Queue) PeekNext() *Rule {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// Advance applies repeat bookkeeping after the engine decided an action
// for the front rule.
//
// A Wait result replaces the front with a copy granted exactly one
// further use: it is examined once more, and unless it Waits again it is
// then removed. Wait never compounds and never consumes repeat budget.
//
// Any other result consumes one use: an exhausted rule is removed, an
// unbounded rule stays untouched, and otherwise the budget is
// decremented in place with the rule kept at the front. A rule built
// with Repeat(n) therefore fires up to n+1 times.
func (q *Queue) Advance(resultIsWait bool) {
	if len(q.items) == 0 {
		return
	}
	front := q.items[0]
	if resultIsWait {
		lastUse := front.clone()
		lastUse.repeat = 0
		q.items[0] = lastUse
		return
	}
	switch {
	case front.repeat == RepeatForever:
	case front.repeat <= 0:
		q.items = q.items[1:]
	default:
		front.repeat--
	}
}

// Len reports the number of rules still eligible this session.
func (q *Queue) Len() int {
	return len(q.items)
}
