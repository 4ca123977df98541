package visits

import (
	"context"

	"logitrack-backend/internal/models"
)

// Store is the persistence interface used by the visit tracker. The
// one-active-visit-per-coordinator invariant is enforced at this layer (a
// partial unique index in the Postgres implementation) so that racing
// check-ins from two sessions resolve to a ConflictError for the loser.
type Store interface {
	// GetBranch returns the branch or a NotFoundError.
	GetBranch(ctx context.Context, branchID string) (models.Branch, error)

	// GetActiveVisit returns the coordinator's active visit, or nil when the
	// coordinator has none.
	GetActiveVisit(ctx context.Context, coordinatorID string) (*models.Visit, error)

	// CreateVisit inserts a new active visit. Returns a ConflictError when
	// the coordinator already has an active visit.
	CreateVisit(ctx context.Context, v models.Visit) error

	// GetVisit returns a visit by ID or a NotFoundError.
	GetVisit(ctx context.Context, visitID string) (models.Visit, error)

	// CompleteVisit persists check-out fields for a visit that is still
	// active. Returns a ConflictError when the visit is no longer active.
	CompleteVisit(ctx context.Context, v models.Visit) error

	// ListVisits returns the coordinator's visits, most recent check-in
	// first, capped at limit.
	ListVisits(ctx context.Context, coordinatorID string, limit int) ([]models.Visit, error)

	// ListActiveVisits returns every coordinator's active visit (manager map).
	ListActiveVisits(ctx context.Context) ([]models.Visit, error)
}
