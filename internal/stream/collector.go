package stream

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const readChunkSize = 4096

// Collector pumps one readable stream into an accumulator. It runs as an
// independent goroutine, blocks on reads, and terminates when the stream
// signals end-of-input. Cancellation is cooperative: closing the
// underlying stream unblocks the read, and a close arriving through the
// shutdown path counts as a clean end rather than an error.
type Collector struct {
	name string
	r    io.Reader
	acc  *Accumulator
	done chan struct{}
}

func NewCollector(name string, r io.Reader, acc *Accumulator) *Collector {
	return &Collector{name: name, r: r, acc: acc, done: make(chan struct{})}
}

// Run reads until EOF or an unexpected error, appending every chunk to
// the accumulator. The done channel closes on return, marking the
// collector not-alive.
func (c *Collector) Run() error {
	defer close(c.done)
	buf := make([]byte, readChunkSize)
	for {
		n, err := c.r.Read(buf)
		if n > 0 {
			c.acc.Append(buf[:n])
		}
		if err != nil {
			if isStreamEnd(err) {
				return nil
			}
			return fmt.Errorf("%s: read: %w", c.name, err)
		}
	}
}

// Done closes when the collector has stopped reading.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

func isStreamEnd(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed)
}
