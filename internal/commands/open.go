package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/reviewkit/revq/internal/core/diff"
	"github.com/reviewkit/revq/internal/core/review"
	"github.com/reviewkit/revq/internal/printer"
	"github.com/reviewkit/revq/internal/revq"
)

// sessionFlags are shared by every command that opens a review session.
type sessionFlags struct {
	mode       string
	base       string
	noSave     bool
	resetState bool
	yes        bool
	noInput    bool
}

func (sf *sessionFlags) cliFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "mode",
			Aliases:     []string{"m"},
			Usage:       "review mode (by-file, by-commit); defaults to config",
			Destination: &sf.mode,
		},
		&cli.StringFlag{
			Name:        "base",
			Aliases:     []string{"b"},
			Usage:       "base ref override; defaults to auto-detection",
			Destination: &sf.base,
		},
		&cli.BoolFlag{
			Name:        "no-save",
			Usage:       "do not write review state back",
			Destination: &sf.noSave,
		},
		&cli.BoolFlag{
			Name:        "reset-state",
			Usage:       "discard persisted review state before opening",
			Destination: &sf.resetState,
		},
		&cli.BoolFlag{
			Name:        "yes",
			Aliases:     []string{"y"},
			Usage:       "assume yes on prompts",
			Destination: &sf.yes,
		},
		&cli.BoolFlag{
			Name:        "no-input",
			Usage:       "never prompt; unreadable state is kept and the session is not saved",
			Destination: &sf.noInput,
		},
	}
}

// openSession opens a review session in the working directory with the
// shared flag semantics applied.
func openSession(ctx context.Context, app *revq.App, sf *sessionFlags) (*revq.Session, error) {
	var mode review.Mode
	if sf.mode != "" {
		m, err := review.ParseMode(sf.mode)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	return app.Reviews.OpenSession(ctx, revq.OpenOptions{
		Dir:        dir,
		Mode:       mode,
		Base:       sf.base,
		Ephemeral:  sf.noSave,
		ResetState: sf.resetState,
		Recover:    sf.recoverFunc(),
	})
}

// openForReading is openSession with an empty range reported as a
// friendly message instead of an error. The session is nil when there
// is nothing to review.
func openForReading(ctx context.Context, app *revq.App, sf *sessionFlags) (*revq.Session, error) {
	sess, err := openSession(ctx, app, sf)
	if errors.Is(err, review.ErrNoChanges) {
		printer.Ctx(ctx).Infof("Nothing to review: no changes against the base")
		return nil, nil
	}
	return sess, err
}

// recoverFunc maps the prompt-control flags onto the state recovery
// decision: --yes deletes unreadable state, --no-input keeps it and
// continues without saving, otherwise the user is asked.
func (sf *sessionFlags) recoverFunc() func(context.Context, error) (bool, error) {
	return func(ctx context.Context, cause error) (bool, error) {
		if sf.yes {
			return true, nil
		}
		if sf.noInput {
			return false, nil
		}

		printer.Ctx(ctx).Warnf("Review state is unreadable: %v", cause)

		var wipe bool
		err := huh.NewConfirm().
			Title("Delete the unreadable state and start fresh?").
			Description("Choosing no continues the review without saving.").
			Value(&wipe).
			Run()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return false, nil
			}
			return false, err
		}
		return wipe, nil
	}
}

// resolveEntry finds the listing row for a user-supplied argument: a
// full row id, a file path, or a (short) commit hash qualified path in
// by-commit mode. Bare paths prefer the unseen row.
func resolveEntry(sess *revq.Session, arg string) (review.Entry, error) {
	if e, ok := sess.Entry(arg); ok {
		return e, nil
	}
	for _, section := range []diff.Section{diff.SectionUnseen, diff.SectionSeen} {
		if e, ok := sess.Entry(string(section) + ":" + arg); ok {
			return e, nil
		}
	}

	for _, e := range sess.Entries() {
		if e.Path == arg {
			return e, nil
		}
		if e.Commit.Hash != "" && strings.HasSuffix(arg, ":"+e.Path) {
			hash := strings.TrimSuffix(arg, ":"+e.Path)
			if strings.HasPrefix(e.Commit.Hash, hash) {
				return e, nil
			}
		}
	}
	return review.Entry{}, fmt.Errorf("%w: %s", review.ErrEntryNotFound, arg)
}
