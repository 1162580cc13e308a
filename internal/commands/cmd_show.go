package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/reviewkit/revq/internal/core/diff"
	"github.com/reviewkit/revq/internal/core/styles"
	"github.com/reviewkit/revq/internal/revq"
	"github.com/reviewkit/revq/pkg/iojson"
)

type ShowCmd struct {
	flags *Flags
	app   *revq.App

	session    sessionFlags
	filtered   bool
	jsonOutput bool
	gitArgs    bool
}

// NewShowCmd creates a new show command.
func NewShowCmd(flags *Flags, app *revq.App) *ShowCmd {
	return &ShowCmd{flags: flags, app: app}
}

// Register adds the show command to the application.
func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "show",
		Usage:     "Show the diff for one file of the review",
		UsageText: "revq show [options] <path>",
		Description: `Prints the reviewed file's hunks with per-hunk review markers.

The argument is a file path, a listing row id, or commit:path in
by-commit mode. With --section the diff narrows to the hunks on the
row's side of the listing, the way a split review presents them.`,
		ShellComplete: EntryPathCompleter(cmd.app),
		Flags: append(cmd.session.cliFlags(),
			&cli.BoolFlag{
				Name:        "section",
				Usage:       "show only the hunks in the row's section",
				Destination: &cmd.filtered,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "git-args",
				Usage:       "print the git invocation that reproduces this diff",
				Destination: &cmd.gitArgs,
			},
		),
		Action: cmd.run,
	})
	return app
}

func (cmd *ShowCmd) run(ctx context.Context, c *cli.Command) error {
	arg := c.Args().First()
	if arg == "" {
		return fmt.Errorf("path required. Run 'revq show --help' for usage")
	}

	sess, err := openForReading(ctx, cmd.app, &cmd.session)
	if err != nil || sess == nil {
		return err
	}

	entry, err := resolveEntry(sess, arg)
	if err != nil {
		return err
	}

	if cmd.gitArgs {
		args, err := sess.DiffArgs(entry.ID())
		if err != nil {
			return err
		}
		fmt.Fprintln(c.Root().Writer, "git "+strings.Join(args, " "))
		return cmd.app.Reviews.CloseSession(ctx, sess)
	}

	var d diff.Diff
	if cmd.filtered {
		d, err = sess.FilteredDiff(ctx, entry.ID())
	} else {
		d, err = sess.FullDiff(ctx, entry.ID())
	}
	if err != nil {
		return err
	}

	if cmd.jsonOutput {
		if err := outputDiffJSON(c, sess, entry.Key, d); err != nil {
			return err
		}
	} else {
		printDiff(c.Root().Writer, sess, entry.Key, d)
	}

	return cmd.app.Reviews.CloseSession(ctx, sess)
}

// printDiff writes a styled unified diff with per-hunk review markers.
func printDiff(out io.Writer, sess *revq.Session, entryKey string, d diff.Diff) {
	fmt.Fprintf(out, "%s  %s\n",
		styles.Title.Render(d.Path),
		styles.Muted.Render(fmt.Sprintf("%d hunks, +%d -%d", d.Stat.Hunks, d.Stat.Added, d.Stat.Removed)))

	offset := 0
	for i, h := range d.Hunks {
		lines := d.Lines[offset : offset+len(h.Lines)]
		offset += len(h.Lines)

		index := i + 1
		if len(d.OriginalIndices) > 0 {
			index = d.OriginalIndices[i]
		}

		marker := styles.Muted.Render("○")
		if i < len(d.IDs) && sess.Seen(entryKey, d.IDs[i]) {
			marker = styles.Success.Render("✓")
		}

		fmt.Fprintf(out, "\n%s %s %s\n",
			marker,
			styles.Muted.Render(fmt.Sprintf("hunk %d", index)),
			styles.DiffHunk.Render(h.Header()))

		for _, l := range lines {
			fmt.Fprintln(out, renderLine(l))
		}
	}
}

func renderLine(l diff.Line) string {
	oldNo, newNo := " ", " "
	if l.OldLine > 0 {
		oldNo = fmt.Sprintf("%d", l.OldLine)
	}
	if l.NewLine > 0 {
		newNo = fmt.Sprintf("%d", l.NewLine)
	}
	gutter := styles.Muted.Render(fmt.Sprintf("%4s %4s", oldNo, newNo))

	switch l.Op {
	case diff.OpAdd:
		return fmt.Sprintf("%s %s", gutter, styles.DiffAdd.Render("+"+l.Text))
	case diff.OpRemove:
		return fmt.Sprintf("%s %s", gutter, styles.DiffRemove.Render("-"+l.Text))
	default:
		return fmt.Sprintf("%s  %s", gutter, l.Text)
	}
}

type diffJSON struct {
	Path    string     `json:"path"`
	Section string     `json:"section,omitempty"`
	Hunks   int        `json:"hunks"`
	Added   int        `json:"added"`
	Removed int        `json:"removed"`
	Detail  []hunkJSON `json:"detail"`
}

type hunkJSON struct {
	Index  int            `json:"index"`
	ID     string         `json:"id"`
	Seen   bool           `json:"seen"`
	Header string         `json:"header"`
	Top    int            `json:"top"`
	Bottom int            `json:"bottom"`
	Lines  []diffLineJSON `json:"lines"`
}

type diffLineJSON struct {
	Op   string `json:"op"`
	Old  int    `json:"old,omitempty"`
	New  int    `json:"new,omitempty"`
	Text string `json:"text"`
}

func outputDiffJSON(c *cli.Command, sess *revq.Session, entryKey string, d diff.Diff) error {
	out := diffJSON{
		Path:    d.Path,
		Section: string(d.Section),
		Hunks:   d.Stat.Hunks,
		Added:   d.Stat.Added,
		Removed: d.Stat.Removed,
	}

	offset := 0
	for i, h := range d.Hunks {
		lines := d.Lines[offset : offset+len(h.Lines)]
		offset += len(h.Lines)

		index := i + 1
		if len(d.OriginalIndices) > 0 {
			index = d.OriginalIndices[i]
		}

		hj := hunkJSON{
			Index:  index,
			Header: h.Header(),
			Top:    h.Top,
			Bottom: h.Bottom,
		}
		if i < len(d.IDs) {
			hj.ID = string(d.IDs[i])
			hj.Seen = sess.Seen(entryKey, d.IDs[i])
		}
		for _, l := range lines {
			hj.Lines = append(hj.Lines, diffLineJSON{
				Op:   string(l.Op),
				Old:  l.OldLine,
				New:  l.NewLine,
				Text: l.Text,
			})
		}
		out.Detail = append(out.Detail, hj)
	}

	return iojson.WriteWith(c.Root().Writer, os.Stderr, out)
}
