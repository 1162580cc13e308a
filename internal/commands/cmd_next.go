package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/reviewkit/revq/internal/core/diff"
	"github.com/reviewkit/revq/internal/core/review"
	"github.com/reviewkit/revq/internal/core/styles"
	"github.com/reviewkit/revq/internal/printer"
	"github.com/reviewkit/revq/internal/revq"
	"github.com/reviewkit/revq/pkg/iojson"
)

type NextCmd struct {
	flags *Flags
	app   *revq.App

	session    sessionFlags
	seen       bool
	jsonOutput bool
}

// NewNextCmd creates the next and prev commands.
func NewNextCmd(flags *Flags, app *revq.App) *NextCmd {
	return &NextCmd{flags: flags, app: app}
}

// Register adds the next and prev commands to the application.
func (cmd *NextCmd) Register(app *cli.Command) *cli.Command {
	flags := append(cmd.session.cliFlags(),
		&cli.BoolFlag{
			Name:        "seen",
			Usage:       "step through reviewed hunks instead of pending ones",
			Destination: &cmd.seen,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "output as JSON",
			Destination: &cmd.jsonOutput,
		},
	)

	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "next",
			Usage:     "Show the next pending hunk",
			UsageText: "revq next [options] [path [hunk]]",
			Description: `Finds the first pending hunk after the given position and prints
it. Without arguments the search starts from the top of the listing;
with a path it starts at that file. When every hunk is reviewed the
nearest reviewed hunk is shown instead.`,
			ShellComplete: EntryPathCompleter(cmd.app),
			Flags:         flags,
			Action: func(ctx context.Context, c *cli.Command) error {
				return cmd.run(ctx, c, true)
			},
		},
		&cli.Command{
			Name:          "prev",
			Usage:         "Show the previous pending hunk",
			UsageText:     "revq prev [options] [path [hunk]]",
			Description:   `Like next, walking backwards from the given position.`,
			ShellComplete: EntryPathCompleter(cmd.app),
			Flags:         flags,
			Action: func(ctx context.Context, c *cli.Command) error {
				return cmd.run(ctx, c, false)
			},
		},
	)
	return app
}

func (cmd *NextCmd) run(ctx context.Context, c *cli.Command, forward bool) error {
	sess, err := openForReading(ctx, cmd.app, &cmd.session)
	if err != nil || sess == nil {
		return err
	}

	var pos review.Position
	if arg := c.Args().First(); arg != "" {
		entry, err := resolveEntry(sess, arg)
		if err != nil {
			return err
		}
		pos.EntryID = entry.ID()
		if h := c.Args().Get(1); h != "" {
			n, err := strconv.Atoi(h)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid hunk number %q: expected a positive integer", h)
			}
			pos.Hunk = n
		}
	}

	target := diff.SectionUnseen
	if cmd.seen {
		target = diff.SectionSeen
	}

	trav := review.NewTraverser(sess)
	if forward {
		pos, _, err = trav.Next(ctx, pos, target)
	} else {
		pos, _, err = trav.Prev(ctx, pos, target)
	}
	if err != nil {
		return err
	}

	p := printer.Ctx(ctx)
	if pos.EntryID == "" {
		p.Infof("Nothing to review: no changes against the base")
		return cmd.app.Reviews.CloseSession(ctx, sess)
	}

	entry, ok := sess.Entry(pos.EntryID)
	if !ok {
		return fmt.Errorf("%w: %s", review.ErrEntryNotFound, pos.EntryID)
	}
	landed := entry.Section == target

	d, err := sess.FullDiff(ctx, pos.EntryID)
	if err != nil {
		return err
	}

	if cmd.jsonOutput {
		if err := outputPositionJSON(c, sess, entry, d, pos, landed); err != nil {
			return err
		}
		return cmd.app.Reviews.CloseSession(ctx, sess)
	}

	if !landed {
		if target == diff.SectionUnseen {
			p.Successf("All hunks reviewed. Showing the nearest reviewed hunk.")
		} else {
			p.Infof("No reviewed hunks yet. Showing the nearest pending hunk.")
		}
	}
	printHunk(p.Out(), sess, entry, d, pos.Hunk)
	if entry.Section == diff.SectionUnseen {
		fmt.Fprintln(p.Out(), styles.Muted.Render(fmt.Sprintf("Mark with: revq mark %s %d", entry.Path, pos.Hunk)))
	}

	return cmd.app.Reviews.CloseSession(ctx, sess)
}

// printHunk renders a single hunk of a full diff, identified by its
// 1-based index.
func printHunk(out io.Writer, sess *revq.Session, e review.Entry, d diff.Diff, hunk int) {
	offset := 0
	for i, h := range d.Hunks {
		lines := d.Lines[offset : offset+len(h.Lines)]
		offset += len(h.Lines)
		if i+1 != hunk {
			continue
		}

		marker := styles.Muted.Render("○")
		if i < len(d.IDs) && sess.Seen(e.Key, d.IDs[i]) {
			marker = styles.Success.Render("✓")
		}

		fmt.Fprintf(out, "%s  %s\n",
			styles.Title.Render(d.Path),
			styles.Muted.Render(fmt.Sprintf("hunk %d of %d", hunk, len(d.Hunks))))
		fmt.Fprintf(out, "%s %s\n", marker, styles.DiffHunk.Render(h.Header()))
		for _, l := range lines {
			fmt.Fprintln(out, renderLine(l))
		}
		return
	}
}

type positionJSON struct {
	Path    string `json:"path"`
	Section string `json:"section"`
	Hunk    int    `json:"hunk"`
	Hunks   int    `json:"hunks"`
	ID      string `json:"id"`
	Seen    bool   `json:"seen"`
	Header  string `json:"header"`
	OnTrack bool   `json:"onTrack"`
}

func outputPositionJSON(c *cli.Command, sess *revq.Session, e review.Entry, d diff.Diff, pos review.Position, landed bool) error {
	out := positionJSON{
		Path:    e.Path,
		Section: string(e.Section),
		Hunk:    pos.Hunk,
		Hunks:   len(d.Hunks),
		OnTrack: landed,
	}
	if i := pos.Hunk - 1; i >= 0 && i < len(d.IDs) {
		out.ID = string(d.IDs[i])
		out.Seen = sess.Seen(e.Key, d.IDs[i])
	}
	if i := pos.Hunk - 1; i >= 0 && i < len(d.Hunks) {
		out.Header = d.Hunks[i].Header()
	}
	return iojson.WriteWith(c.Root().Writer, os.Stderr, out)
}
