package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/reviewkit/revq/internal/core/review"
	"github.com/reviewkit/revq/internal/core/styles"
	"github.com/reviewkit/revq/internal/data/statefile"
	"github.com/reviewkit/revq/internal/printer"
	"github.com/reviewkit/revq/internal/revq"
	"github.com/reviewkit/revq/pkg/iojson"
)

// StatesCmd implements the revq states command group.
type StatesCmd struct {
	flags *Flags
	app   *revq.App

	// list flags
	listJSON bool

	// delete flags
	deleteMode string
	deleteYes  bool
}

// NewStatesCmd creates a new states command.
func NewStatesCmd(flags *Flags, app *revq.App) *StatesCmd {
	return &StatesCmd{flags: flags, app: app}
}

// Register adds the states command to the application.
func (cmd *StatesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "states",
		Usage: "Manage saved review state",
		Description: `Commands for inspecting and pruning saved review sessions.

Each repository keeps at most ` + fmt.Sprint(statefile.MaxFiles) + ` session files; the least recently
used are evicted automatically when a new one is saved.`,
		Commands: []*cli.Command{
			cmd.listCmd(),
			cmd.deleteCmd(),
		},
	})

	return app
}

func (cmd *StatesCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List saved review sessions",
		UsageText: "revq states list [--json]",
		Description: `Lists every saved session across all repositories, most recently
used first. Unreadable files are flagged; run 'revq doctor --autofix'
to remove them.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.listJSON,
			},
		},
		Action: cmd.runList,
	}
}

func (cmd *StatesCmd) deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete one saved review session",
		UsageText: "revq states delete [--mode <mode>] <repo> <branch>",
		Description: `Deletes the saved state for one repository and branch. All marks
for that session are lost.

Examples:
  revq states delete acme/widgets feat/login
  revq states delete acme/widgets main --mode by-commit`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "mode",
				Aliases:     []string{"m"},
				Usage:       "review mode of the session (by-file, by-commit)",
				Value:       string(review.ModeFile),
				Destination: &cmd.deleteMode,
			},
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "skip the confirmation prompt",
				Destination: &cmd.deleteYes,
			},
		},
		Action: cmd.runDelete,
	}
}

// stateInfoOutput is the JSON output format for revq states list.
type stateInfoOutput struct {
	Repo     string `json:"repo"`
	Branch   string `json:"branch"`
	Mode     string `json:"mode"`
	LastUsed int64  `json:"lastUsed"`
	Path     string `json:"path"`
	Error    string `json:"error,omitempty"`
}

func (cmd *StatesCmd) runList(ctx context.Context, c *cli.Command) error {
	infos, err := cmd.app.States.List(ctx)
	if err != nil {
		return fmt.Errorf("list state files: %w", err)
	}

	if cmd.listJSON {
		for _, info := range infos {
			out := stateInfoOutput{
				Repo:     info.Repo,
				Branch:   info.Branch,
				Mode:     info.Mode,
				LastUsed: info.LastUsed,
				Path:     info.Path,
			}
			if info.Err != nil {
				out.Error = info.Err.Error()
			}
			if err := iojson.WriteLine(c.Root().Writer, out); err != nil {
				return err
			}
		}
		return nil
	}

	p := printer.Ctx(ctx)
	if len(infos) == 0 {
		p.Infof("No saved review sessions")
		return nil
	}

	w := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		styles.Header.Render("REPO"),
		styles.Header.Render("BRANCH"),
		styles.Header.Render("MODE"),
		styles.Header.Render("LAST USED"))
	for _, info := range infos {
		if info.Err != nil {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				info.Repo, info.Branch, info.Mode,
				styles.Warning.Render("unreadable"))
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			info.Repo, info.Branch, info.Mode, formatStamp(info.LastUsed))
	}
	return w.Flush()
}

func formatStamp(sec int64) string {
	if sec == 0 {
		return "-"
	}
	return time.Unix(sec, 0).Format("2006-01-02 15:04")
}

func (cmd *StatesCmd) runDelete(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: revq states delete <repo> <branch>")
	}

	repo := c.Args().Get(0)
	branch := c.Args().Get(1)
	mode, err := review.ParseMode(cmd.deleteMode)
	if err != nil {
		return err
	}

	p := printer.Ctx(ctx)

	if !cmd.deleteYes {
		var confirmed bool
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete saved state for %s @ %s?", repo, branch)).
			Description("All review marks for that session are lost.").
			Value(&confirmed).
			Run()
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if err != nil || !confirmed {
			p.Infof("Aborted, nothing deleted")
			return nil
		}
	}

	if err := cmd.app.States.Delete(ctx, repo, branch, mode); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}

	p.Success("Deleted saved state",
		fmt.Sprintf("%s @ %s (%s)", repo, branch, mode))
	return nil
}
