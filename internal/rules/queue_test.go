package rules

import "testing"

func TestQueue_SeededWithCopies(t *testing.T) {
	configured := New(On(Pattern("a"), Reply("a")), Repeat(2))
	q := NewQueue([]*Rule{configured})

	q.Advance(false)
	if configured.Remaining() != 2 {
		t.Fatalf("configured rule mutated: remaining=%d", configured.Remaining())
	}
	if q.PeekNext().Remaining() != 1 {
		t.Fatalf("session copy should decrement, remaining=%d", q.PeekNext().Remaining())
	}
}

func TestQueue_RepeatNFiresNPlusOneTimes(t *testing.T) {
	q := NewQueue([]*Rule{New(Repeat(2))})
	uses := 0
	for q.PeekNext() != nil {
		uses++
		q.Advance(false)
		if uses > 10 {
			t.Fatalf("rule never removed")
		}
	}
	if uses != 3 {
		t.Fatalf("repeat=2 should allow 3 uses, got %d", uses)
	}
}

func TestQueue_ExhaustedRuleRemovedPreservingOrder(t *testing.T) {
	first := New(On(Pattern("one"), Reply("1")))
	second := New(On(Pattern("two"), Reply("2")))
	third := New(On(Pattern("three"), Reply("3")))
	q := NewQueue([]*Rule{first, second, third})

	q.Advance(false)
	if q.Len() != 2 {
		t.Fatalf("expected front removal, len=%d", q.Len())
	}
	act, err := Resolve(q.PeekNext(), "two")
	if err != nil || act.Text != "2" {
		t.Fatalf("relative priority not preserved: %+v err=%v", act, err)
	}
}

func TestQueue_ForeverRuleNeverRemoved(t *testing.T) {
	q := NewQueue([]*Rule{New(Forever())})
	for i := 0; i < 50; i++ {
		if q.PeekNext() == nil {
			t.Fatalf("unbounded rule removed after %d uses", i)
		}
		q.Advance(false)
	}
	if q.Len() != 1 {
		t.Fatalf("unbounded rule should survive, len=%d", q.Len())
	}
}

func TestQueue_WaitGrantsExactlyOneFurtherUse(t *testing.T) {
	q := NewQueue([]*Rule{New(Repeat(5))})

	q.Advance(true)
	if got := q.PeekNext().Remaining(); got != 0 {
		t.Fatalf("wait should force one-further-use, remaining=%d", got)
	}

	// Waiting again must refresh, not compound.
	q.Advance(true)
	if got := q.PeekNext().Remaining(); got != 0 {
		t.Fatalf("repeated wait should not compound, remaining=%d", got)
	}

	// The single further use consumes the rule.
	q.Advance(false)
	if q.Len() != 0 {
		t.Fatalf("rule should be removed after its post-wait use, len=%d", q.Len())
	}
}

func TestQueue_NeverGrows(t *testing.T) {
	q := NewQueue([]*Rule{New(Repeat(1)), New()})
	max := q.Len()
	for i := 0; i < 20 && q.PeekNext() != nil; i++ {
		if i%2 == 0 {
			q.Advance(true)
		} else {
			q.Advance(false)
		}
		if q.Len() > max {
			t.Fatalf("queue grew to %d entries", q.Len())
		}
	}
}

func TestQueue_PeekEmptyReturnsNil(t *testing.T) {
	q := NewQueue(nil)
	if q.PeekNext() != nil {
		t.Fatalf("empty queue should peek nil")
	}
	q.Advance(false) // must not panic
}
