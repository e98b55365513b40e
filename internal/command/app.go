// Package command wires the CLI surface. Runners are injected so tests
// can drive the app without spawning processes or touching SQLite.
package command

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"answerback/cli/internal/config"
)

// RunOptions carries the per-invocation inputs of the run command.
type RunOptions struct {
	ScriptPath string
	Command    []string
}

type Deps struct {
	LoadConfig     func() config.Config
	RunSession     func(ctx context.Context, cfg config.Config, opts RunOptions) error
	ListTranscript func(ctx context.Context, cfg config.Config, limit int) error
}

func BuildApp(deps Deps) *cli.App {
	return &cli.App{
		Name:  "answerback",
		Usage: "answer interactive command prompts from a rule script",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run a command and answer its prompts",
				ArgsUsage: "[--] command [args...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "script",
						Aliases:  []string{"s"},
						Usage:    "TOML rule script",
						Required: true,
					},
					&cli.DurationFlag{Name: "prompt-delay", Usage: "quiet time treated as a prompt"},
					&cli.DurationFlag{Name: "timeout", Usage: "overall inactivity timeout"},
					&cli.DurationFlag{Name: "poll-interval", Usage: "responder poll interval"},
					&cli.BoolFlag{Name: "merge-stderr", Usage: "match against stderr output too"},
					&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "do not echo child output"},
					&cli.BoolFlag{Name: "debug", Usage: "trace per-tick decisions"},
					&cli.StringFlag{Name: "transcript", Usage: "record the session to this SQLite file"},
					&cli.StringFlag{Name: "monitor", Usage: "serve a live websocket event feed on this address"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return errors.New("command to run is required")
					}
					cfg := loadConfig(deps)
					applyRunFlags(c, &cfg)
					return runSession(c.Context, deps, cfg, RunOptions{
						ScriptPath: c.String("script"),
						Command:    c.Args().Slice(),
					})
				},
			},
			{
				Name:  "transcript",
				Usage: "inspect recorded sessions",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "list recent sessions",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "transcript", Usage: "SQLite transcript file"},
							&cli.IntFlag{Name: "limit", Value: 20, Usage: "maximum sessions to show"},
						},
						Action: func(c *cli.Context) error {
							cfg := loadConfig(deps)
							if c.IsSet("transcript") {
								cfg.TranscriptPath = c.String("transcript")
							}
							if cfg.TranscriptPath == "" {
								return errors.New("transcript database path is required")
							}
							return listTranscript(c.Context, deps, cfg, c.Int("limit"))
						},
					},
				},
			},
		},
	}
}

func applyRunFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("prompt-delay") {
		cfg.PromptDelay = c.Duration("prompt-delay")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("poll-interval") {
		cfg.PollInterval = c.Duration("poll-interval")
	}
	if c.IsSet("merge-stderr") {
		cfg.MergeStderr = c.Bool("merge-stderr")
	}
	if c.IsSet("quiet") {
		cfg.Verbose = !c.Bool("quiet")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("transcript") {
		cfg.TranscriptPath = c.String("transcript")
	}
	if c.IsSet("monitor") {
		cfg.MonitorAddr = c.String("monitor")
	}
}

func loadConfig(deps Deps) config.Config {
	if deps.LoadConfig != nil {
		return deps.LoadConfig()
	}
	return config.LoadConfig()
}

func runSession(ctx context.Context, deps Deps, cfg config.Config, opts RunOptions) error {
	if deps.RunSession == nil {
		return errors.New("session runner is not configured")
	}
	return deps.RunSession(ctx, cfg, opts)
}

func listTranscript(ctx context.Context, deps Deps, cfg config.Config, limit int) error {
	if deps.ListTranscript == nil {
		return errors.New("transcript lister is not configured")
	}
	return deps.ListTranscript(ctx, cfg, limit)
}
