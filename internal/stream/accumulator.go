// Package stream collects child-process output into drainable buffers.
package stream

import (
	"strings"
	"sync"
)

// Accumulator is an append-only text buffer shared between one collector
// goroutine and one consumer. Append and Drain are mutex-guarded so a
// drain never observes a torn write. When stderr is merged into stdout,
// both collectors append to the same accumulator.
type Accumulator struct {
	mu  sync.Mutex
	buf strings.Builder
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds a chunk to the buffer. It never blocks on the consumer and
// never drops data.
func (a *Accumulator) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	a.mu.Lock()
	a.buf.Write(chunk)
	a.mu.Unlock()
}

// Drain atomically returns the buffered text and resets the buffer.
// Returns "" when nothing is pending.
func (a *Accumulator) Drain() string {
	a.mu.Lock()
	out := a.buf.String()
	a.buf.Reset()
	a.mu.Unlock()
	return out
}

// Len reports the number of pending bytes.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	n := a.buf.Len()
	a.mu.Unlock()
	return n
}
