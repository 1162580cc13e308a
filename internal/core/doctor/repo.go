package doctor

import (
	"context"
	"fmt"

	"github.com/reviewkit/revq/internal/core/git"
)

// RepoCheck verifies that the working directory is a reviewable
// repository: inside a work tree, with a resolvable HEAD and a
// detectable base branch.
type RepoCheck struct {
	g   git.Git
	dir string
}

// NewRepoCheck creates a new repository check rooted at dir.
func NewRepoCheck(g git.Git, dir string) *RepoCheck {
	return &RepoCheck{g: g, dir: dir}
}

func (c *RepoCheck) Name() string {
	return "Repository"
}

func (c *RepoCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	root, err := c.g.Root(ctx, c.dir)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "work tree",
			Status: StatusFail,
			Detail: "not inside a git repository",
		})
		return result
	}
	result.Items = append(result.Items, CheckItem{
		Label:  "work tree",
		Status: StatusPass,
		Detail: root,
	})

	if head, err := c.g.Head(ctx, c.dir); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "HEAD",
			Status: StatusFail,
			Detail: fmt.Sprintf("unresolvable: %v", err),
		})
	} else {
		short := head
		if len(short) > 12 {
			short = short[:12]
		}
		result.Items = append(result.Items, CheckItem{
			Label:  "HEAD",
			Status: StatusPass,
			Detail: short,
		})
	}

	if base, err := git.DetectBase(ctx, c.g, c.dir); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "base branch",
			Status: StatusWarn,
			Detail: "not detected; pass --base explicitly",
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "base branch",
			Status: StatusPass,
			Detail: base,
		})
	}

	return result
}
