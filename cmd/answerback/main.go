package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"answerback/cli/internal/command"
	"answerback/cli/internal/config"
	"answerback/cli/internal/logging"
	"answerback/cli/internal/monitor"
	"answerback/cli/internal/script"
	"answerback/cli/internal/session"
	"answerback/cli/internal/transcript"
)

var version = "dev"

func main() {
	app := command.BuildApp(command.Deps{
		LoadConfig:     config.LoadConfig,
		RunSession:     runSession,
		ListTranscript: listTranscript,
	})
	app.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "answerback:", err)
		os.Exit(1)
	}
}

func runSession(ctx context.Context, cfg config.Config, opts command.RunOptions) error {
	logger := logging.NewLogger(logging.Options{
		Level:     cfg.LogLevel,
		Debug:     cfg.Debug,
		Component: "answerback",
	})

	ruleList, err := script.Load(opts.ScriptPath)
	if err != nil {
		return err
	}

	var sinks session.MultiSink

	if cfg.TranscriptPath != "" {
		gdb, err := transcript.Open(cfg.TranscriptPath)
		if err != nil {
			return fmt.Errorf("open transcript db: %w", err)
		}
		defer func() { _ = transcript.Close(gdb) }()
		store, err := transcript.NewStore(gdb)
		if err != nil {
			return err
		}
		sessionID, err := store.BeginSession(strings.Join(opts.Command, " "))
		if err != nil {
			return fmt.Errorf("begin transcript session: %w", err)
		}
		logger.Info("recording transcript", "session_id", sessionID, "db", cfg.TranscriptPath)
		sinks = append(sinks, transcript.NewRecorder(store, sessionID, logger))
	}

	monCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	if cfg.MonitorAddr != "" {
		hub := monitor.NewHub()
		sinks = append(sinks, hub)
		go func() {
			if err := monitor.Serve(monCtx, cfg.MonitorAddr, hub, logger); err != nil {
				logger.Error("monitor server failed", "err", err)
			}
		}()
	}

	child := exec.Command(opts.Command[0], opts.Command[1:]...)
	stdout, err := child.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := child.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	stdin, err := child.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := child.Start(); err != nil {
		return fmt.Errorf("start %s: %w", opts.Command[0], err)
	}

	sessOpts := []session.Option{session.WithLogger(logger)}
	if len(sinks) > 0 {
		sessOpts = append(sessOpts, session.WithSink(sinks))
	}
	sess := session.New(session.Config{
		MergeStderr:  cfg.MergeStderr,
		PromptDelay:  cfg.PromptDelay,
		Timeout:      cfg.Timeout,
		PollInterval: cfg.PollInterval,
		Verbose:      cfg.Verbose,
		Debug:        cfg.Debug,
	}, sessOpts...)
	sess.AddRules(ruleList...)

	outcome, runErr := sess.Run(ctx, stdout, stderr, stdin)

	// On anything but a natural end the child may still be running.
	if outcome.Reason != session.ReasonCompleted && child.Process != nil {
		_ = child.Process.Kill()
	}
	if waitErr := child.Wait(); waitErr != nil {
		logger.Debug("child exited", "err", waitErr)
	}

	if runErr != nil {
		return fmt.Errorf("session failed: %w", runErr)
	}
	logger.Info("run finished", "reason", string(outcome.Reason))
	return nil
}

func listTranscript(_ context.Context, cfg config.Config, limit int) error {
	gdb, err := transcript.Open(cfg.TranscriptPath)
	if err != nil {
		return fmt.Errorf("open transcript db: %w", err)
	}
	defer func() { _ = transcript.Close(gdb) }()
	store, err := transcript.NewStore(gdb)
	if err != nil {
		return err
	}
	entries, err := store.List(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no recorded sessions")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %-10s  %2d exchanges  %s  %s\n",
			e.Started.Format("2006-01-02 15:04:05"),
			e.Reason,
			e.Exchanges,
			e.SessionID,
			e.Command,
		)
	}
	return nil
}
