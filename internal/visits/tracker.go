package visits

import (
	"context"
	"math"
	"time"

	"logitrack-backend/internal/geo"
	"logitrack-backend/internal/models"

	"github.com/google/uuid"
)

// Tracker manages the visit lifecycle: check-in, active, check-out. A
// coordinator has at most one active visit; the store's uniqueness guarantee
// is the arbiter when two sessions race.
type Tracker struct {
	store             Store
	maxDistanceMeters float64
	now               func() time.Time
}

func NewTracker(store Store, maxDistanceMeters float64) *Tracker {
	if maxDistanceMeters <= 0 {
		maxDistanceMeters = geo.DefaultMaxDistanceMeters
	}
	return &Tracker{
		store:             store,
		maxDistanceMeters: maxDistanceMeters,
		now:               time.Now,
	}
}

// MaxDistanceMeters returns the configured geofence radius.
func (t *Tracker) MaxDistanceMeters() float64 { return t.maxDistanceMeters }

// CheckInInput carries everything the client submits on check-in. Confirmed
// reports that the coordinator explicitly accepted an out-of-range warning;
// the UI prompts, this component only checks the flag.
type CheckInInput struct {
	CoordinatorID string
	BranchID      string
	Latitude      *float64
	Longitude     *float64
	Notes         string
	Confirmed     bool
}

// CheckIn creates a new active visit. Distance to the branch is computed
// here, stored on the visit, and never recomputed afterward.
func (t *Tracker) CheckIn(ctx context.Context, in CheckInInput) (models.Visit, geo.Classification, error) {
	if in.Latitude == nil || in.Longitude == nil {
		return models.Visit{}, geo.Classification{}, &ValidationError{Reason: "location unavailable"}
	}
	if in.BranchID == "" {
		return models.Visit{}, geo.Classification{}, &ValidationError{Reason: "branch is required"}
	}

	if existing, err := t.store.GetActiveVisit(ctx, in.CoordinatorID); err != nil {
		return models.Visit{}, geo.Classification{}, err
	} else if existing != nil {
		return models.Visit{}, geo.Classification{}, &ConflictError{Reason: "active visit already exists"}
	}

	branch, err := t.store.GetBranch(ctx, in.BranchID)
	if err != nil {
		return models.Visit{}, geo.Classification{}, err
	}

	distance := geo.DistanceMeters(*in.Latitude, *in.Longitude, branch.Latitude, branch.Longitude)
	cls := geo.Classify(distance, t.maxDistanceMeters)
	if cls.RequiresConfirmation && !in.Confirmed {
		return models.Visit{}, geo.Classification{}, &ValidationError{Reason: "out of range, confirmation required"}
	}

	now := t.now()
	visit := models.Visit{
		ID:                     uuid.New().String(),
		CoordinatorID:          in.CoordinatorID,
		BranchID:               branch.ID,
		BranchName:             branch.Name,
		CheckInTime:            now.Unix(),
		CheckInLatitude:        *in.Latitude,
		CheckInLongitude:       *in.Longitude,
		DistanceToBranchMeters: int(math.Round(distance)),
		Status:                 models.VisitStatusActive,
		Notes:                  in.Notes,
		CreatedAt:              now.Unix(),
		UpdatedAt:              now.Unix(),
	}

	if err := t.store.CreateVisit(ctx, visit); err != nil {
		return models.Visit{}, geo.Classification{}, err
	}

	return visit, cls, nil
}

// CheckOut completes an active visit. The stored check-in distance is left
// untouched; only check-out coordinates, notes and timing change.
func (t *Tracker) CheckOut(ctx context.Context, visitID string, lat, lng *float64, notes string) (models.Visit, error) {
	visit, err := t.store.GetVisit(ctx, visitID)
	if err != nil {
		return models.Visit{}, err
	}
	if visit.Status != models.VisitStatusActive {
		return models.Visit{}, &ConflictError{Reason: "no active visit"}
	}

	now := t.now().Unix()
	visit.CheckOutTime = &now
	visit.CheckOutLatitude = lat
	visit.CheckOutLongitude = lng
	if notes != "" {
		if visit.Notes != "" {
			visit.Notes = visit.Notes + " | " + notes
		} else {
			visit.Notes = notes
		}
	}
	visit.Status = models.VisitStatusCompleted
	visit.UpdatedAt = now

	if err := t.store.CompleteVisit(ctx, visit); err != nil {
		return models.Visit{}, err
	}

	return visit, nil
}

// Visit returns a single visit by ID.
func (t *Tracker) Visit(ctx context.Context, visitID string) (models.Visit, error) {
	return t.store.GetVisit(ctx, visitID)
}

// ActiveVisit returns the coordinator's current active visit, or nil.
func (t *Tracker) ActiveVisit(ctx context.Context, coordinatorID string) (*models.Visit, error) {
	return t.store.GetActiveVisit(ctx, coordinatorID)
}

// History returns the coordinator's visits, most recent check-in first.
func (t *Tracker) History(ctx context.Context, coordinatorID string, limit int) ([]models.Visit, error) {
	if limit <= 0 {
		limit = 20
	}
	return t.store.ListVisits(ctx, coordinatorID, limit)
}

// AllActive returns every active visit for the manager map view.
func (t *Tracker) AllActive(ctx context.Context) ([]models.Visit, error) {
	return t.store.ListActiveVisits(ctx)
}
