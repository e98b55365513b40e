package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

type workerJob struct {
	name    string
	primary bool
	run     func(context.Context) error
}

type namedCloser struct {
	name string
	c    io.Closer
}

// supervisor runs the collector and responder goroutines and funnels
// every termination cause into one cancellation path. A job returning a
// non-nil error, the primary job finishing, or the parent context being
// cancelled all release the session's streams; closing the readers is
// what unblocks collectors stuck in a blocking Read, so cancellation
// stays cooperative.
type supervisor struct {
	jobs    []workerJob
	closers []namedCloser
	logger  *slog.Logger

	closeOnce sync.Once
	closeMu   sync.Mutex
	closeErr  error
}

func newSupervisor(logger *slog.Logger) *supervisor {
	return &supervisor{logger: logger}
}

func (s *supervisor) addJob(name string, run func(context.Context) error) {
	s.jobs = append(s.jobs, workerJob{name: name, run: run})
}

// addPrimaryJob marks the job whose natural completion ends the whole
// run. Non-primary jobs finishing cleanly (a collector hitting EOF) do
// not tear the session down on their own.
func (s *supervisor) addPrimaryJob(name string, run func(context.Context) error) {
	s.jobs = append(s.jobs, workerJob{name: name, primary: true, run: run})
}

func (s *supervisor) addCloser(name string, c io.Closer) {
	if c == nil {
		return
	}
	s.closers = append(s.closers, namedCloser{name: name, c: c})
}

func (s *supervisor) release() {
	s.closeOnce.Do(func() {
		for _, nc := range s.closers {
			if err := nc.c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
				s.logger.Warn("close stream failed", "stream", nc.name, "err", err)
				s.closeMu.Lock()
				s.closeErr = errors.Join(s.closeErr, fmt.Errorf("close %s: %w", nc.name, err))
				s.closeMu.Unlock()
			}
		}
	})
}

func (s *supervisor) startAndWait(parent context.Context) error {
	runCtx, cancel := context.WithCancel(parent)
	defer cancel()

	errCh := make(chan error, len(s.jobs))
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		job := job
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := job.run(runCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("%s: %w", job.name, err)
				cancel()
				s.release()
				return
			}
			if job.primary {
				cancel()
				s.release()
			}
		}()
	}

	// Parent cancellation must also unblock reads.
	releaseDone := make(chan struct{})
	go func() {
		defer close(releaseDone)
		<-runCtx.Done()
		s.release()
	}()

	wg.Wait()
	cancel()
	<-releaseDone

	var runErr error
	select {
	case runErr = <-errCh:
	default:
	}

	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return errors.Join(runErr, s.closeErr)
}
