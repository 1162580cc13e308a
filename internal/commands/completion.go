package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/reviewkit/revq/internal/revq"
)

// EntryPathCompleter returns a ShellCompleteFunc that suggests changed
// file paths as positional completions. Set this as the ShellComplete
// field on any cli.Command that accepts entry paths as arguments.
//
// When the user's last typed argument starts with "-", it falls back to
// the default flag completion behavior.
func EntryPathCompleter(app *revq.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		// Delegate to default flag completion when typing a flag
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		cwd, err := os.Getwd()
		if err != nil {
			return
		}

		// Completion must never write state, prompt, or hit the network.
		sess, err := app.Reviews.OpenSession(ctx, revq.OpenOptions{Dir: cwd, Ephemeral: true, NoFetch: true})
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		seen := make(map[string]bool)
		for _, e := range sess.Entries() {
			if seen[e.Path] {
				continue
			}
			seen[e.Path] = true
			_, _ = fmt.Fprintln(w, e.Path)
		}
	}
}
