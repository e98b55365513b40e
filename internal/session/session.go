// Package session drives one automated run against an interactive child
// process: it polls collected output, detects quiescence, consults the
// rule queue and writes responses to the child's stdin.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"answerback/cli/internal/rules"
	"answerback/cli/internal/stream"
)

// Config controls timing and echo behavior for a run.
type Config struct {
	// MergeStderr routes stderr into the same accumulator as stdout.
	MergeStderr bool
	// PromptDelay is how long output must stay quiet before the window is
	// treated as a prompt. Default 1s.
	PromptDelay time.Duration
	// Timeout bounds the time since the last activity or sent response.
	// Default 120s.
	Timeout time.Duration
	// PollInterval is the responder's idle sleep between ticks. Default
	// 100ms.
	PollInterval time.Duration
	// Verbose echoes child output to the session's output writer.
	Verbose bool
	// Debug traces per-tick decisions through the logger.
	Debug bool
}

const (
	defaultPromptDelay  = time.Second
	defaultTimeout      = 120 * time.Second
	defaultPollInterval = 100 * time.Millisecond
)

// DefaultConfig returns the documented defaults: stderr separate, 1s
// prompt delay, 120s timeout, verbose on, debug off.
func DefaultConfig() Config {
	return Config{
		PromptDelay:  defaultPromptDelay,
		Timeout:      defaultTimeout,
		PollInterval: defaultPollInterval,
		Verbose:      true,
	}
}

func (c Config) withDefaults() Config {
	if c.PromptDelay <= 0 {
		c.PromptDelay = defaultPromptDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	return c
}

// EventSink receives session events: "session.output" with drained child
// text, "session.sent" with the prompt window and the written response,
// and "session.ended" with the terminal reason.
type EventSink interface {
	Emit(op string, payload map[string]any)
}

// MultiSink fans one event out to several sinks.
type MultiSink []EventSink

func (m MultiSink) Emit(op string, payload map[string]any) {
	for _, sink := range m {
		if sink != nil {
			sink.Emit(op, payload)
		}
	}
}

// Session holds the configured rule list and run options. One Session
// value drives one run at a time; the rule list itself is never mutated
// by a run.
type Session struct {
	cfg        Config
	logger     *slog.Logger
	sink       EventSink
	out        io.Writer
	onComplete func(trailing string)

	mu    sync.Mutex
	rules []*rules.Rule
}

// Option configures a Session created by New.
type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithSink attaches an event sink (monitor hub, transcript recorder).
func WithSink(sink EventSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithOutput sets the verbose echo destination. Default os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Session) { s.out = w }
}

// WithCompletion registers a hook receiving the trailing output drained
// after the child's stdout ended.
func WithCompletion(fn func(trailing string)) Option {
	return func(s *Session) { s.onComplete = fn }
}

func New(cfg Config, opts ...Option) *Session {
	s := &Session{cfg: cfg, out: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return s
}

// AddRule appends a rule to the session's ordered rule list. Rules are
// tried front-first each quiescence tick.
func (s *Session) AddRule(rule *rules.Rule) {
	if rule == nil {
		return
	}
	s.mu.Lock()
	s.rules = append(s.rules, rule)
	s.mu.Unlock()
}

// AddRules appends several rules preserving their order.
func (s *Session) AddRules(list ...*rules.Rule) {
	for _, rule := range list {
		s.AddRule(rule)
	}
}

func (s *Session) snapshotRules() []*rules.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*rules.Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Run drives one session against already-open child streams. It blocks
// until the child's stdout ends, an Abort rule fires, the timeout
// elapses, or an evaluation fails. All three streams are closed before
// Run returns, and exactly one terminal reason is reported.
func (s *Session) Run(ctx context.Context, stdout, stderr io.ReadCloser, stdin io.WriteCloser) (Outcome, error) {
	cfg := s.cfg.withDefaults()

	outAcc := stream.NewAccumulator()
	errAcc := outAcc
	if !cfg.MergeStderr {
		errAcc = stream.NewAccumulator()
	}
	outCol := stream.NewCollector("stdout", stdout, outAcc)
	errCol := stream.NewCollector("stderr", stderr, errAcc)
	queue := rules.NewQueue(s.snapshotRules())
	st := &runState{}

	sup := newSupervisor(s.logger)
	sup.addJob("stdout-collector", func(context.Context) error { return outCol.Run() })
	sup.addJob("stderr-collector", func(context.Context) error { return errCol.Run() })
	sup.addPrimaryJob("responder", func(runCtx context.Context) error {
		return s.respond(runCtx, cfg, queue, outCol, outAcc, stdin, st)
	})
	sup.addCloser("stdout", stdout)
	sup.addCloser("stderr", stderr)
	sup.addCloser("stdin", stdin)

	err := sup.startAndWait(ctx)
	if err != nil {
		st.set(ReasonError)
	} else if ctx.Err() != nil {
		// External cancellation counts as an abort, not a failure.
		st.set(ReasonAborted)
	}
	reason := st.get()
	if reason == "" {
		reason = ReasonCompleted
	}

	s.emit("session.ended", map[string]any{"reason": string(reason)})
	s.logger.Info("session ended", "reason", string(reason), "rules_left", queue.Len())
	return Outcome{Reason: reason}, err
}

// respond is the orchestrating poll loop. Each tick drains stdout's
// accumulator; fresh text resets the activity clock and grows the read
// window, quiet past PromptDelay consults the rule queue, and the
// aggregate timeout is checked on every branch.
func (s *Session) respond(
	ctx context.Context,
	cfg Config,
	queue *rules.Queue,
	col *stream.Collector,
	acc *stream.Accumulator,
	stdin io.Writer,
	st *runState,
) error {
	window := ""
	t0 := time.Now()

loop:
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-col.Done():
			break loop
		default:
		}

		now := time.Now()
		idleSleep := true

		if chunk := acc.Drain(); chunk != "" {
			t0 = now
			window += chunk
			s.echoOutput(cfg, chunk)
		} else if now.Sub(t0) > cfg.PromptDelay {
			if front := queue.PeekNext(); front != nil {
				action, err := rules.Resolve(front, window)
				if err != nil {
					return err
				}
				if cfg.Debug {
					s.logger.Debug("quiescence decision",
						"action", action.Kind.String(),
						"window_lines", lineCount(window),
						"window_preview", preview(window, 240),
						"rules_left", queue.Len(),
					)
				}
				switch action.Kind {
				case rules.ActionSkip:
					queue.Advance(false)
					// Progress to the next candidate without the idle
					// sleep; the timeout check below still runs.
					idleSleep = false
				case rules.ActionWait:
					queue.Advance(true)
					t0 = now
				case rules.ActionAbort:
					st.set(ReasonAborted)
					s.logger.Info("abort rule fired")
					return nil
				case rules.ActionSend:
					queue.Advance(false)
					if err := s.send(stdin, action.Text, window); err != nil {
						return err
					}
					window = ""
					t0 = time.Now()
				case rules.ActionNone:
					queue.Advance(false)
				}
			}
		}

		if time.Since(t0) > cfg.Timeout {
			st.set(ReasonTimeout)
			s.logger.Warn("session timed out", "timeout", cfg.Timeout.String())
			return nil
		}

		if idleSleep {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.PollInterval):
			}
		}
	}

	// Final drain so trailing output is never lost.
	trailing := acc.Drain()
	if trailing != "" {
		s.echoOutput(cfg, trailing)
	}
	if s.onComplete != nil {
		s.onComplete(trailing)
	}
	st.set(ReasonCompleted)
	return nil
}

func (s *Session) send(stdin io.Writer, text, window string) error {
	if _, err := io.WriteString(stdin, text+"\n"); err != nil {
		return fmt.Errorf("write stdin: %w", err)
	}
	s.emit("session.sent", map[string]any{
		"prompt":   window,
		"response": text,
	})
	s.logger.Debug("response sent", "response", preview(text, 240))
	return nil
}

func (s *Session) echoOutput(cfg Config, chunk string) {
	if cfg.Verbose && s.out != nil {
		_, _ = io.WriteString(s.out, chunk)
	}
	s.emit("session.output", map[string]any{"data": chunk})
	if cfg.Debug {
		s.logger.Debug("child output", "bytes", len(chunk), "preview", preview(chunk, 240))
	}
}

func (s *Session) emit(op string, payload map[string]any) {
	if s.sink != nil {
		s.sink.Emit(op, payload)
	}
}
