package revq

import (
	"context"

	"github.com/reviewkit/revq/internal/core/config"
	"github.com/reviewkit/revq/internal/core/doctor"
	"github.com/reviewkit/revq/internal/core/git"
	"github.com/reviewkit/revq/internal/data/statefile"
)

// DoctorService runs health checks on the review setup.
type DoctorService struct {
	git    git.Git
	store  *statefile.Store
	config *config.Config
}

// NewDoctorService creates a new DoctorService.
func NewDoctorService(gitClient git.Git, store *statefile.Store, cfg *config.Config) *DoctorService {
	return &DoctorService{
		git:    gitClient,
		store:  store,
		config: cfg,
	}
}

// RunChecks executes all doctor checks against dir and returns results.
func (d *DoctorService) RunChecks(ctx context.Context, dir string, autofix bool) []doctor.Result {
	checks := []doctor.Check{
		doctor.NewToolsCheck(d.config.GitPath),
		doctor.NewRepoCheck(d.git, dir),
		doctor.NewStateDirCheck(d.store, autofix),
	}
	return doctor.RunAll(ctx, checks)
}
