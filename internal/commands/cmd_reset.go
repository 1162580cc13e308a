package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/reviewkit/revq/internal/printer"
	"github.com/reviewkit/revq/internal/revq"
)

type ResetCmd struct {
	flags *Flags
	app   *revq.App

	session sessionFlags
}

// NewResetCmd creates the reset command.
func NewResetCmd(flags *Flags, app *revq.App) *ResetCmd {
	return &ResetCmd{flags: flags, app: app}
}

// Register adds the reset command to the application.
func (cmd *ResetCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "reset",
		Usage:     "Clear all review marks for the current branch",
		UsageText: "revq reset [options]",
		Description: `Clears every mark in the current review session. All hunks go back
to pending. The diff itself is untouched.`,
		Flags: cmd.session.cliFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return cmd.run(ctx, c)
		},
	})
	return app
}

func (cmd *ResetCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if !cmd.session.yes {
		if cmd.session.noInput {
			return fmt.Errorf("refusing to clear marks without confirmation. Pass --yes to proceed")
		}
		var confirmed bool
		err := huh.NewConfirm().
			Title("Clear all review marks for this branch?").
			Description("Every hunk goes back to pending.").
			Value(&confirmed).
			Run()
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if err != nil || !confirmed {
			p.Infof("Aborted, marks unchanged")
			return nil
		}
	}

	sess, err := openForReading(ctx, cmd.app, &cmd.session)
	if err != nil || sess == nil {
		return err
	}

	if err := sess.ResetMarks(ctx); err != nil {
		return err
	}

	p.Success("Cleared review marks",
		fmt.Sprintf("%s @ %s", sess.Repo(), sess.Branch()))

	return cmd.app.Reviews.CloseSession(ctx, sess)
}
