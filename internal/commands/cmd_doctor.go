package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/reviewkit/revq/internal/core/doctor"
	"github.com/reviewkit/revq/internal/core/styles"
	"github.com/reviewkit/revq/internal/revq"
	"github.com/reviewkit/revq/pkg/iojson"
)

type DoctorCmd struct {
	flags   *Flags
	app     *revq.App
	format  string
	autofix bool
}

func NewDoctorCmd(flags *Flags, app *revq.App) *DoctorCmd {
	return &DoctorCmd{flags: flags, app: app}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your revq setup",
		UsageText:   "revq doctor [options]",
		Description: "Runs diagnostic checks on the git installation, the repository, and saved state.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "autofix",
				Usage:       "automatically fix issues (e.g., delete unreadable state files)",
				Destination: &cmd.autofix,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	results := cmd.app.Doctor.RunChecks(ctx, cwd, cmd.autofix)

	if cmd.format == "json" {
		return cmd.outputJSON(c, results)
	}

	return cmd.outputText(ctx, results)
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	tally := doctor.Summarize(results)

	out := struct {
		Healthy bool            `json:"healthy"`
		Summary doctor.Tally    `json:"summary"`
		Checks  []doctor.Result `json:"checks"`
	}{
		Healthy: tally.Failed == 0,
		Summary: tally,
		Checks:  results,
	}

	return iojson.WriteWith(c.Root().Writer, os.Stderr, out)
}

func (cmd *DoctorCmd) outputText(_ context.Context, results []doctor.Result) error {
	w := os.Stderr
	divider := styles.Muted.Render(strings.Repeat("─", 40))

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, styles.Title.Render("Revq Doctor"))
	_, _ = fmt.Fprintln(w, divider)
	_, _ = fmt.Fprintln(w)

	for _, result := range results {
		_, _ = fmt.Fprintln(w, styles.Header.Render(result.Name))

		for _, item := range result.Items {
			var detail string
			if item.Detail != "" {
				detail = " " + styles.Muted.Render(item.Detail)
			}

			var icon string
			switch item.Status {
			case doctor.StatusPass:
				icon = styles.Success.Render("✔")
			case doctor.StatusWarn:
				icon = styles.Warning.Render("●")
			case doctor.StatusFail:
				icon = styles.Error.Render("✘")
			}

			_, _ = fmt.Fprintf(w, "  %s %s%s\n", icon, item.Label, detail)
		}

		_, _ = fmt.Fprintln(w)
	}

	tally := doctor.Summarize(results)
	summary := fmt.Sprintf("%s  %s  %s",
		styles.Success.Render(fmt.Sprintf("%d passed", tally.Passed)),
		styles.Warning.Render(fmt.Sprintf("%d warnings", tally.Warned)),
		styles.Error.Render(fmt.Sprintf("%d failed", tally.Failed)),
	)
	_, _ = fmt.Fprintln(w, summary)

	if !cmd.autofix && tally.Fixable > 0 {
		_, _ = fmt.Fprintln(w)
		hint := styles.Muted.Render(fmt.Sprintf("Run 'revq doctor --autofix' to fix %d issue(s)", tally.Fixable))
		_, _ = fmt.Fprintln(w, hint)
	}

	if tally.Failed > 0 {
		return cli.Exit("", 1)
	}

	return nil
}
