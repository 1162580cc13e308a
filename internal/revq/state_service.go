package revq

import (
	"context"

	"github.com/reviewkit/revq/internal/core/review"
	"github.com/reviewkit/revq/internal/data/statefile"
)

// StateService exposes persisted review states to commands.
type StateService struct {
	store *statefile.Store
}

// NewStateService creates a new StateService.
func NewStateService(store *statefile.Store) *StateService {
	return &StateService{store: store}
}

// List returns all persisted states, most recently used first.
// Unreadable files are included with their Err set.
func (s *StateService) List(ctx context.Context) ([]statefile.Info, error) {
	return s.store.List(ctx)
}

// Delete removes one persisted state. Missing states are not an error.
func (s *StateService) Delete(ctx context.Context, repo, branch string, mode review.Mode) error {
	return s.store.Delete(ctx, repo, branch, mode)
}
