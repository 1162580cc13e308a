package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reviewkit/revq/internal/data/statefile"
)

// StateDirCheck verifies the state directory is writable and that the
// persisted review states inside it parse. With autofix enabled,
// unreadable state files are deleted during the run.
type StateDirCheck struct {
	store   *statefile.Store
	autofix bool
}

// NewStateDirCheck creates a new state directory check.
func NewStateDirCheck(store *statefile.Store, autofix bool) *StateDirCheck {
	return &StateDirCheck{store: store, autofix: autofix}
}

func (c *StateDirCheck) Name() string {
	return "State Directory"
}

func (c *StateDirCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}
	root := c.store.Root()

	if err := writable(root); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  root,
			Status: StatusFail,
			Detail: fmt.Sprintf("not writable: %v", err),
		})
		return result
	}
	result.Items = append(result.Items, CheckItem{
		Label:  root,
		Status: StatusPass,
	})

	infos, err := c.store.List(ctx)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "state files",
			Status: StatusFail,
			Detail: fmt.Sprintf("unreadable: %v", err),
		})
		return result
	}

	bad := 0
	for _, info := range infos {
		if info.Err != nil {
			bad++
		}
	}

	switch {
	case bad > 0 && c.autofix:
		removed, err := FixStateFiles(ctx, c.store)
		if err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  "state files",
				Status: StatusFail,
				Detail: fmt.Sprintf("fix failed: %v", err),
			})
			break
		}
		result.Items = append(result.Items, CheckItem{
			Label:  "state files",
			Status: StatusPass,
			Detail: fmt.Sprintf("removed %d unreadable", removed),
		})
	case bad > 0:
		result.Items = append(result.Items, CheckItem{
			Label:   "state files",
			Status:  StatusWarn,
			Detail:  fmt.Sprintf("%d of %d unreadable", bad, len(infos)),
			Fixable: true,
		})
	default:
		result.Items = append(result.Items, CheckItem{
			Label:  "state files",
			Status: StatusPass,
			Detail: fmt.Sprintf("%d tracked", len(infos)),
		})
	}

	return result
}

// FixStateFiles removes unreadable state files and returns how many
// were deleted.
func FixStateFiles(ctx context.Context, store *statefile.Store) (int, error) {
	infos, err := store.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, info := range infos {
		if info.Err == nil {
			continue
		}
		if err := os.Remove(info.Path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", info.Path, err)
		}
		removed++
	}
	return removed, nil
}

func writable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}
