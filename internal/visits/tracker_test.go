package visits

import (
	"context"
	"errors"
	"testing"
	"time"

	"logitrack-backend/internal/geo"
	"logitrack-backend/internal/models"
)

const (
	testBranchLat = 14.6349
	testBranchLng = -90.5069
)

func newTestTracker(t *testing.T) (*Tracker, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	store.AddBranch(models.Branch{
		ID:        "3",
		Name:      "Zona 1 Centro",
		Code:      "Z1C",
		Latitude:  testBranchLat,
		Longitude: testBranchLng,
		IsActive:  true,
	})
	return NewTracker(store, geo.DefaultMaxDistanceMeters), store
}

func ptr(f float64) *float64 { return &f }

func TestCheckInAtBranch(t *testing.T) {
	tracker, _ := newTestTracker(t)

	visit, cls, err := tracker.CheckIn(context.Background(), CheckInInput{
		CoordinatorID: "7",
		BranchID:      "3",
		Latitude:      ptr(testBranchLat),
		Longitude:     ptr(testBranchLng),
		Notes:         "routine audit",
	})
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if visit.Status != models.VisitStatusActive {
		t.Errorf("status = %s, want active", visit.Status)
	}
	if visit.DistanceToBranchMeters != 0 {
		t.Errorf("distance = %d, want 0", visit.DistanceToBranchMeters)
	}
	if cls.Tier != geo.TierWithin {
		t.Errorf("tier = %s, want within", cls.Tier)
	}

	active, err := tracker.ActiveVisit(context.Background(), "7")
	if err != nil {
		t.Fatalf("ActiveVisit: %v", err)
	}
	if active == nil || active.ID != visit.ID {
		t.Errorf("active visit = %+v, want the created visit", active)
	}
}

func TestCheckInConflictsWithActiveVisit(t *testing.T) {
	tracker, store := newTestTracker(t)
	store.AddBranch(models.Branch{ID: "4", Name: "Zona 10", Code: "Z10", Latitude: 14.60, Longitude: -90.51, IsActive: true})

	if _, _, err := tracker.CheckIn(context.Background(), CheckInInput{
		CoordinatorID: "7", BranchID: "3",
		Latitude: ptr(testBranchLat), Longitude: ptr(testBranchLng),
	}); err != nil {
		t.Fatalf("first CheckIn: %v", err)
	}

	// Second check-in fails regardless of branch or coordinates.
	_, _, err := tracker.CheckIn(context.Background(), CheckInInput{
		CoordinatorID: "7", BranchID: "4",
		Latitude: ptr(14.60), Longitude: ptr(-90.51),
		Confirmed: true,
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("second CheckIn error = %v, want ConflictError", err)
	}
}

func TestCheckInRequiresLocation(t *testing.T) {
	tracker, _ := newTestTracker(t)

	_, _, err := tracker.CheckIn(context.Background(), CheckInInput{
		CoordinatorID: "7", BranchID: "3",
		Latitude: nil, Longitude: ptr(testBranchLng),
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("CheckIn without GPS error = %v, want ValidationError", err)
	}

	// No visit may exist after the failed attempt.
	active, err := tracker.ActiveVisit(context.Background(), "7")
	if err != nil {
		t.Fatalf("ActiveVisit: %v", err)
	}
	if active != nil {
		t.Errorf("active visit = %+v, want none", active)
	}
}

func TestCheckInUnknownBranch(t *testing.T) {
	tracker, _ := newTestTracker(t)

	_, _, err := tracker.CheckIn(context.Background(), CheckInInput{
		CoordinatorID: "7", BranchID: "nope",
		Latitude: ptr(testBranchLat), Longitude: ptr(testBranchLng),
	})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("CheckIn unknown branch error = %v, want NotFoundError", err)
	}
}

func TestOutOfRangeCheckInNeedsConfirmation(t *testing.T) {
	tracker, _ := newTestTracker(t)

	// 0.0009 degrees of latitude is roughly 100 meters.
	lat := ptr(testBranchLat + 0.0009)
	lng := ptr(testBranchLng)

	_, _, err := tracker.CheckIn(context.Background(), CheckInInput{
		CoordinatorID: "7", BranchID: "3",
		Latitude: lat, Longitude: lng,
		Confirmed: false,
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("unconfirmed out-of-range error = %v, want ValidationError", err)
	}
	if active, _ := tracker.ActiveVisit(context.Background(), "7"); active != nil {
		t.Fatalf("visit created despite declined confirmation: %+v", active)
	}

	visit, cls, err := tracker.CheckIn(context.Background(), CheckInInput{
		CoordinatorID: "7", BranchID: "3",
		Latitude: lat, Longitude: lng,
		Confirmed: true,
	})
	if err != nil {
		t.Fatalf("confirmed out-of-range CheckIn: %v", err)
	}
	if cls.Tier != geo.TierOutOfRange {
		t.Errorf("tier = %s, want out_of_range", cls.Tier)
	}
	if visit.DistanceToBranchMeters != 100 {
		t.Errorf("distance = %d, want 100", visit.DistanceToBranchMeters)
	}
}

func TestCheckOutDuration(t *testing.T) {
	tracker, _ := newTestTracker(t)

	start := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return start }

	visit, _, err := tracker.CheckIn(context.Background(), CheckInInput{
		CoordinatorID: "7", BranchID: "3",
		Latitude: ptr(testBranchLat), Longitude: ptr(testBranchLng),
	})
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	tracker.now = func() time.Time { return start.Add(47 * time.Minute) }

	completed, err := tracker.CheckOut(context.Background(), visit.ID, ptr(testBranchLat), ptr(testBranchLng), "done")
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if d := completed.DurationMinutes(); d == nil || *d != 47 {
		t.Errorf("duration = %v, want 47", d)
	}
}

func TestCheckOutNonActiveVisit(t *testing.T) {
	tracker, _ := newTestTracker(t)

	visit, _, err := tracker.CheckIn(context.Background(), CheckInInput{
		CoordinatorID: "7", BranchID: "3",
		Latitude: ptr(testBranchLat), Longitude: ptr(testBranchLng),
	})
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if _, err := tracker.CheckOut(context.Background(), visit.ID, nil, nil, ""); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	_, err = tracker.CheckOut(context.Background(), visit.ID, nil, nil, "")
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("double CheckOut error = %v, want ConflictError", err)
	}

	_, err = tracker.CheckOut(context.Background(), "missing", nil, nil, "")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("CheckOut on unknown visit error = %v, want NotFoundError", err)
	}
}

func TestHistoryOrderAndLimit(t *testing.T) {
	tracker, _ := newTestTracker(t)

	base := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		checkIn := base.Add(time.Duration(i) * 2 * time.Hour)
		tracker.now = func() time.Time { return checkIn }
		v, _, err := tracker.CheckIn(context.Background(), CheckInInput{
			CoordinatorID: "7", BranchID: "3",
			Latitude: ptr(testBranchLat), Longitude: ptr(testBranchLng),
		})
		if err != nil {
			t.Fatalf("CheckIn %d: %v", i, err)
		}
		tracker.now = func() time.Time { return checkIn.Add(30 * time.Minute) }
		if _, err := tracker.CheckOut(context.Background(), v.ID, nil, nil, ""); err != nil {
			t.Fatalf("CheckOut %d: %v", i, err)
		}
	}

	history, err := tracker.History(context.Background(), "7", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].CheckInTime < history[1].CheckInTime {
		t.Errorf("history not ordered most recent first")
	}
}

// Full lifecycle: check in at the branch, check out 30 minutes later, and
// verify the stored check-in distance survives unchanged.
func TestVisitLifecycle(t *testing.T) {
	tracker, _ := newTestTracker(t)

	start := time.Date(2025, 6, 3, 14, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return start }

	visit, cls, err := tracker.CheckIn(context.Background(), CheckInInput{
		CoordinatorID: "7", BranchID: "3",
		Latitude: ptr(testBranchLat), Longitude: ptr(testBranchLng),
	})
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if cls.Tier != geo.TierWithin || visit.DistanceToBranchMeters != 0 {
		t.Fatalf("check-in = tier %s distance %d, want within/0", cls.Tier, visit.DistanceToBranchMeters)
	}

	tracker.now = func() time.Time { return start.Add(30 * time.Minute) }
	completed, err := tracker.CheckOut(context.Background(), visit.ID, ptr(14.6401), ptr(-90.5152), "")
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if completed.Status != models.VisitStatusCompleted {
		t.Errorf("status = %s, want completed", completed.Status)
	}
	if d := completed.DurationMinutes(); d == nil || *d != 30 {
		t.Errorf("duration = %v, want 30", d)
	}
	// Check-out coordinates must not alter the check-in distance.
	if completed.DistanceToBranchMeters != 0 {
		t.Errorf("distance after check-out = %d, want 0", completed.DistanceToBranchMeters)
	}

	if active, _ := tracker.ActiveVisit(context.Background(), "7"); active != nil {
		t.Errorf("coordinator still has active visit after check-out")
	}
}
