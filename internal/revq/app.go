// Package revq wires the application services that commands consume.
// Commands take an App instead of cherry-picking raw dependencies.
package revq

import (
	"github.com/reviewkit/revq/internal/core/config"
	"github.com/reviewkit/revq/internal/core/git"
	"github.com/reviewkit/revq/internal/data/statefile"
)

// App is the central entry point for all review operations.
type App struct {
	Reviews *ReviewService
	States  *StateService
	Doctor  *DoctorService

	Config *config.Config
	Git    git.Git
	Store  *statefile.Store
}

// NewApp constructs an App from explicit dependencies.
func NewApp(reviews *ReviewService, cfg *config.Config, gitClient git.Git, store *statefile.Store) *App {
	return &App{
		Reviews: reviews,
		States:  NewStateService(store),
		Doctor:  NewDoctorService(gitClient, store, cfg),
		Config:  cfg,
		Git:     gitClient,
		Store:   store,
	}
}
