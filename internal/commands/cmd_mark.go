package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/reviewkit/revq/internal/core/diff"
	"github.com/reviewkit/revq/internal/core/review"
	"github.com/reviewkit/revq/internal/core/styles"
	"github.com/reviewkit/revq/internal/printer"
	"github.com/reviewkit/revq/internal/revq"
)

type MarkCmd struct {
	flags *Flags
	app   *revq.App

	session sessionFlags
}

// NewMarkCmd creates the mark and unmark commands.
func NewMarkCmd(flags *Flags, app *revq.App) *MarkCmd {
	return &MarkCmd{flags: flags, app: app}
}

// Register adds the mark and unmark commands to the application.
func (cmd *MarkCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "mark",
			Usage:     "Mark hunks as reviewed",
			UsageText: "revq mark [options] <path> [hunk...]",
			Description: `Marks the file's hunks as reviewed. With hunk numbers only those
hunks are marked; without, the whole file is.

Marks follow hunk content, not position: a marked hunk stays reviewed
after rebases and history rewrites as long as its content is unchanged.`,
			ShellComplete: EntryPathCompleter(cmd.app),
			Flags:         cmd.session.cliFlags(),
			Action: func(ctx context.Context, c *cli.Command) error {
				return cmd.run(ctx, c, true)
			},
		},
		&cli.Command{
			Name:          "unmark",
			Usage:         "Mark hunks as not reviewed",
			UsageText:     "revq unmark [options] <path> [hunk...]",
			Description:   `Reverts hunks to unreviewed. The inverse of mark.`,
			ShellComplete: EntryPathCompleter(cmd.app),
			Flags:         cmd.session.cliFlags(),
			Action: func(ctx context.Context, c *cli.Command) error {
				return cmd.run(ctx, c, false)
			},
		},
	)
	return app
}

func (cmd *MarkCmd) run(ctx context.Context, c *cli.Command, mark bool) error {
	arg := c.Args().First()
	if arg == "" {
		return fmt.Errorf("path required. Run 'revq %s --help' for usage", c.Name)
	}

	hunks, err := parseHunkArgs(c.Args().Tail())
	if err != nil {
		return err
	}

	sess, err := openForReading(ctx, cmd.app, &cmd.session)
	if err != nil || sess == nil {
		return err
	}

	if len(hunks) == 0 {
		entry, err := resolveEntry(sess, arg)
		if err != nil {
			return err
		}
		if mark {
			err = sess.MarkEntry(ctx, entry.ID())
		} else {
			err = sess.UnmarkEntry(ctx, entry.ID())
		}
		if err != nil {
			return err
		}
	}

	// Rows rebuild after every mutation, so the entry is re-resolved
	// per hunk; its row may have switched sections.
	for _, n := range hunks {
		entry, err := resolveEntry(sess, arg)
		if err != nil {
			return err
		}
		if mark {
			err = sess.MarkHunk(ctx, entry.ID(), n)
		} else {
			err = sess.UnmarkHunk(ctx, entry.ID(), n)
		}
		if err != nil {
			return err
		}
	}

	p := printer.Ctx(ctx)
	verb := "Marked"
	if !mark {
		verb = "Unmarked"
	}
	switch len(hunks) {
	case 0:
		p.Successf("%s %s", verb, arg)
	default:
		p.Successf("%s %d hunk(s) in %s", verb, len(hunks), arg)
	}

	rows, err := collectRows(ctx, sess)
	if err == nil {
		_, _, hunksTotal, hunksSeen := summarize(rows)
		p.Infof("%d/%d hunks reviewed", hunksSeen, hunksTotal)
	}

	if mark {
		printNextPending(ctx, p, sess)
	}

	return cmd.app.Reviews.CloseSession(ctx, sess)
}

// printNextPending points the reviewer at the first pending hunk after
// the one just marked, anchored to the record's cursor hint.
func printNextPending(ctx context.Context, p *printer.Printer, sess *revq.Session) {
	trav := review.NewTraverser(sess)
	pos, found, err := trav.Next(ctx, hintPosition(sess), diff.SectionUnseen)
	if err != nil || !found {
		return
	}
	e, ok := sess.Entry(pos.EntryID)
	if !ok || e.Section != diff.SectionUnseen {
		return
	}
	fmt.Fprintln(p.Out(), styles.Muted.Render(fmt.Sprintf("Next pending: %s hunk %d", e.Path, pos.Hunk)))
}

// hintPosition seeds a traversal from the record's last-touched entry,
// preferring the row in the section the reviewer addressed.
func hintPosition(sess *revq.Session) review.Position {
	section, key, ok := sess.Record().LastPosition()
	if !ok {
		return review.Position{}
	}
	pos := review.Position{Key: key}
	for _, e := range sess.Entries() {
		if e.Key != key {
			continue
		}
		pos.EntryID = e.ID()
		if e.Section == section {
			break
		}
	}
	return pos
}

func parseHunkArgs(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid hunk number %q: expected a positive integer", a)
		}
		out = append(out, n)
	}
	return out, nil
}
