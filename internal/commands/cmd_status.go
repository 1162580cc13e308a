package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/reviewkit/revq/internal/core/diff"
	"github.com/reviewkit/revq/internal/core/review"
	"github.com/reviewkit/revq/internal/core/styles"
	"github.com/reviewkit/revq/internal/revq"
	"github.com/reviewkit/revq/pkg/iojson"
)

type StatusCmd struct {
	flags *Flags
	app   *revq.App

	session    sessionFlags
	jsonOutput bool
}

// NewStatusCmd creates a new status command.
func NewStatusCmd(flags *Flags, app *revq.App) *StatusCmd {
	return &StatusCmd{flags: flags, app: app}
}

// Register adds the status command to the application.
func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "status",
		Usage:     "Show review progress for the current branch",
		UsageText: "revq status [options]",
		Description: `Lists every file in the review range grouped into seen and unseen
sections, with per-file hunk progress and overall totals.`,
		Flags: append(cmd.session.cliFlags(),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		),
		Action: cmd.run,
	})
	return app
}

// Run executes the status command. It backs the default action when
// revq is invoked without a subcommand.
func (cmd *StatusCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

type statusRow struct {
	entry review.Entry
	seen  int
	total int
}

// inSection is the hunk count belonging to the row's own section.
func (r statusRow) inSection() int {
	if r.entry.Section == diff.SectionSeen {
		return r.seen
	}
	return r.total - r.seen
}

func (cmd *StatusCmd) run(ctx context.Context, c *cli.Command) error {
	sess, err := openForReading(ctx, cmd.app, &cmd.session)
	if err != nil || sess == nil {
		return err
	}

	rows, err := collectRows(ctx, sess)
	if err != nil {
		return err
	}

	if cmd.jsonOutput {
		if err := cmd.outputJSON(c, sess, rows); err != nil {
			return err
		}
	} else {
		cmd.outputText(c, sess, rows)
	}

	return cmd.app.Reviews.CloseSession(ctx, sess)
}

func collectRows(ctx context.Context, sess *revq.Session) ([]statusRow, error) {
	entries := sess.Entries()
	rows := make([]statusRow, 0, len(entries))
	for _, e := range entries {
		ids, err := sess.IDs(ctx, e.ID())
		if err != nil {
			return nil, fmt.Errorf("resolve hunks for %s: %w", e.Path, err)
		}

		seen := 0
		for _, id := range ids {
			if sess.Seen(e.Key, id) {
				seen++
			}
		}
		rows = append(rows, statusRow{entry: e, seen: seen, total: len(ids)})
	}
	return rows, nil
}

// summarize folds the section rows down to unique files, so a
// partially reviewed file showing in both sections counts once.
func summarize(rows []statusRow) (files, filesSeen, hunks, hunksSeen int) {
	done := map[string]bool{}
	for _, r := range rows {
		key := r.entry.Commit.Hash + ":" + r.entry.Path
		if done[key] {
			continue
		}
		done[key] = true

		files++
		hunks += r.total
		hunksSeen += r.seen
		if r.total > 0 && r.seen == r.total {
			filesSeen++
		}
	}
	return files, filesSeen, hunks, hunksSeen
}

func (cmd *StatusCmd) outputText(c *cli.Command, sess *revq.Session, rows []statusRow) {
	out := c.Root().Writer
	byCommit := sess.Mode() == review.ModeCommit

	head := sess.Head()
	if len(head) > 7 {
		head = head[:7]
	}
	fmt.Fprintf(out, "%s %s  %s\n",
		styles.Title.Render(sess.Repo()),
		styles.Header.Render(sess.Branch()),
		styles.Muted.Render(fmt.Sprintf("%s..%s (%s)", sess.Base(), head, sess.Mode())))

	files, filesSeen, hunks, hunksSeen := summarize(rows)
	fmt.Fprintf(out, "%d/%d files reviewed, %d/%d hunks\n", filesSeen, files, hunksSeen, hunks)

	for _, section := range []diff.Section{diff.SectionUnseen, diff.SectionSeen} {
		var sectionRows []statusRow
		for _, r := range rows {
			if r.entry.Section == section {
				sectionRows = append(sectionRows, r)
			}
		}
		if len(sectionRows) == 0 {
			continue
		}

		fmt.Fprintln(out)
		header := styles.Warning.Render("UNSEEN")
		if section == diff.SectionSeen {
			header = styles.Success.Render("SEEN")
		}
		fmt.Fprintln(out, header)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, r := range sectionRows {
			if byCommit {
				fmt.Fprintf(w, "  %s\t%s\t%c\t%d/%d\n",
					r.entry.Commit.Short, r.entry.Path, r.entry.Status.Code, r.inSection(), r.total)
				continue
			}
			fmt.Fprintf(w, "  %s\t%c\t%d/%d\n",
				r.entry.Path, r.entry.Status.Code, r.inSection(), r.total)
		}
		_ = w.Flush()
	}
}

type statusJSON struct {
	Repo      string            `json:"repo"`
	Branch    string            `json:"branch"`
	Mode      string            `json:"mode"`
	Base      string            `json:"base"`
	Head      string            `json:"head"`
	Files     int               `json:"files"`
	FilesSeen int               `json:"filesSeen"`
	Hunks     int               `json:"hunks"`
	HunksSeen int               `json:"hunksSeen"`
	Entries   []statusEntryJSON `json:"entries"`
}

type statusEntryJSON struct {
	ID      string `json:"id"`
	Section string `json:"section"`
	Path    string `json:"path"`
	Commit  string `json:"commit,omitempty"`
	Subject string `json:"subject,omitempty"`
	Status  string `json:"status"`
	Hunks   int    `json:"hunks"`
	Seen    int    `json:"seen"`
}

func (cmd *StatusCmd) outputJSON(c *cli.Command, sess *revq.Session, rows []statusRow) error {
	files, filesSeen, hunks, hunksSeen := summarize(rows)

	out := statusJSON{
		Repo:      sess.Repo(),
		Branch:    sess.Branch(),
		Mode:      string(sess.Mode()),
		Base:      sess.Base(),
		Head:      sess.Head(),
		Files:     files,
		FilesSeen: filesSeen,
		Hunks:     hunks,
		HunksSeen: hunksSeen,
	}
	for _, r := range rows {
		out.Entries = append(out.Entries, statusEntryJSON{
			ID:      r.entry.ID(),
			Section: string(r.entry.Section),
			Path:    r.entry.Path,
			Commit:  r.entry.Commit.Hash,
			Subject: r.entry.Commit.Subject,
			Status:  string(r.entry.Status.Code),
			Hunks:   r.total,
			Seen:    r.seen,
		})
	}

	return iojson.WriteWith(c.Root().Writer, os.Stderr, out)
}
