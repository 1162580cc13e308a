package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/reviewkit/revq/internal/commands"
	"github.com/reviewkit/revq/internal/core/config"
	"github.com/reviewkit/revq/internal/core/git"
	"github.com/reviewkit/revq/internal/data/statefile"
	"github.com/reviewkit/revq/internal/printer"
	"github.com/reviewkit/revq/internal/revq"
	"github.com/reviewkit/revq/pkg/executil"
	"github.com/reviewkit/revq/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		revqApp   = &revq.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "revq",
		Usage:     "Track code review progress against a base branch",
		UsageText: "revq [global options] command [command options]",
		Description: `Revq keeps track of which hunks of a branch you have already reviewed.

Marks attach to hunk content, not line positions, so they survive
rebases, amends, and force pushes as long as the change itself is
unchanged. State is saved per repository and branch.

Run 'revq' with no arguments to see review progress for the current
branch. Run 'revq next' to jump to the first pending hunk.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("REVQ_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/revq.log)",
				Sources:     cli.EnvVars("REVQ_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("REVQ_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("REVQ_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file so stdout stays clean for piping.
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "revq.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			var (
				exec      = &executil.RealExecutor{}
				gitExec   = git.NewExecutor(cfg.GitPath, exec)
				store     = statefile.New(cfg.DataDir)
				svcLogger = log.With().Str("component", "revq").Logger()
			)

			reviews := revq.NewReviewService(gitExec, store, cfg, svcLogger)

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*revqApp = *revq.NewApp(reviews, cfg, gitExec, store)

			return printer.WithPrinter(ctx, printer.New(c.Root().Writer, os.Stderr)), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	statusCmd := commands.NewStatusCmd(flags, revqApp)

	app = statusCmd.Register(app)
	app = commands.NewShowCmd(flags, revqApp).Register(app)
	app = commands.NewMarkCmd(flags, revqApp).Register(app)
	app = commands.NewNextCmd(flags, revqApp).Register(app)
	app = commands.NewResetCmd(flags, revqApp).Register(app)
	app = commands.NewStatesCmd(flags, revqApp).Register(app)
	app = commands.NewDoctorCmd(flags, revqApp).Register(app)
	app = commands.NewConfigValidateCmd(flags, revqApp).Register(app)

	// Set status as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'revq --help' for usage", c.Args().First())
		}
		return statusCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
