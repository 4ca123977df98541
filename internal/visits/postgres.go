package visits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"logitrack-backend/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// pqUniqueViolation is the Postgres error code the partial unique index on
// active visits raises for a racing second check-in.
const pqUniqueViolation = "23505"

// PostgresStore persists visits in the shared Logitrack schema.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetBranch(ctx context.Context, branchID string) (models.Branch, error) {
	var b models.Branch
	err := s.db.GetContext(ctx, &b,
		`SELECT * FROM branches WHERE id = $1 AND is_active = TRUE`, branchID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Branch{}, &NotFoundError{Reason: "branch not found"}
	}
	if err != nil {
		return models.Branch{}, fmt.Errorf("get branch: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) GetActiveVisit(ctx context.Context, coordinatorID string) (*models.Visit, error) {
	var v models.Visit
	err := s.db.GetContext(ctx, &v, `
		SELECT v.*, b.name AS branch_name, COALESCE(u.name, '') AS coordinator_name
		FROM coordinator_visits v
		JOIN branches b ON b.id = v.branch_id
		LEFT JOIN users u ON u.id = v.coordinator_id
		WHERE v.coordinator_id = $1 AND v.status = 'active'
		ORDER BY v.check_in_time DESC
		LIMIT 1`, coordinatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active visit: %w", err)
	}
	return &v, nil
}

func (s *PostgresStore) CreateVisit(ctx context.Context, v models.Visit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coordinator_visits (
			id, coordinator_id, branch_id, check_in_time,
			check_in_latitude, check_in_longitude,
			distance_to_branch_meters, status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		v.ID, v.CoordinatorID, v.BranchID, v.CheckInTime,
		v.CheckInLatitude, v.CheckInLongitude,
		v.DistanceToBranchMeters, v.Status, v.Notes, v.CreatedAt, v.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
		return &ConflictError{Reason: "active visit already exists"}
	}
	if err != nil {
		return fmt.Errorf("create visit: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetVisit(ctx context.Context, visitID string) (models.Visit, error) {
	var v models.Visit
	err := s.db.GetContext(ctx, &v, `
		SELECT v.*, b.name AS branch_name, COALESCE(u.name, '') AS coordinator_name
		FROM coordinator_visits v
		JOIN branches b ON b.id = v.branch_id
		LEFT JOIN users u ON u.id = v.coordinator_id
		WHERE v.id = $1`, visitID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Visit{}, &NotFoundError{Reason: "visit not found"}
	}
	if err != nil {
		return models.Visit{}, fmt.Errorf("get visit: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) CompleteVisit(ctx context.Context, v models.Visit) error {
	// Guarded update: only an active row completes, so a double check-out
	// loses here rather than overwriting the first one.
	res, err := s.db.ExecContext(ctx, `
		UPDATE coordinator_visits
		SET check_out_time = $1,
			check_out_latitude = $2,
			check_out_longitude = $3,
			notes = $4,
			status = $5,
			updated_at = $6
		WHERE id = $7 AND status = 'active'`,
		v.CheckOutTime, v.CheckOutLatitude, v.CheckOutLongitude,
		v.Notes, v.Status, v.UpdatedAt, v.ID,
	)
	if err != nil {
		return fmt.Errorf("complete visit: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete visit: %w", err)
	}
	if rows == 0 {
		return &ConflictError{Reason: "no active visit"}
	}
	return nil
}

func (s *PostgresStore) ListVisits(ctx context.Context, coordinatorID string, limit int) ([]models.Visit, error) {
	visits := []models.Visit{}
	err := s.db.SelectContext(ctx, &visits, `
		SELECT v.*, b.name AS branch_name, COALESCE(u.name, '') AS coordinator_name
		FROM coordinator_visits v
		JOIN branches b ON b.id = v.branch_id
		LEFT JOIN users u ON u.id = v.coordinator_id
		WHERE v.coordinator_id = $1
		ORDER BY v.check_in_time DESC
		LIMIT $2`, coordinatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return visits, nil
}

func (s *PostgresStore) ListActiveVisits(ctx context.Context) ([]models.Visit, error) {
	visits := []models.Visit{}
	err := s.db.SelectContext(ctx, &visits, `
		SELECT v.*, b.name AS branch_name, COALESCE(u.name, '') AS coordinator_name
		FROM coordinator_visits v
		JOIN branches b ON b.id = v.branch_id
		LEFT JOIN users u ON u.id = v.coordinator_id
		WHERE v.status = 'active'
		ORDER BY v.check_in_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("list active visits: %w", err)
	}
	return visits, nil
}
