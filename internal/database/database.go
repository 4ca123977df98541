package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	log.Println("🔌 Connecting to Postgres...")

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Printf("❌ sqlx.Connect failed: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		log.Printf("❌ Ping failed: %v", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connection established")
	return db, nil
}

// Migrate applies the idempotent schema. The database is shared with the
// other Logitrack services (user-service, order-service), so every statement
// must tolerate existing tables and columns.
func Migrate(db *sqlx.DB) error {
	migrations := []string{
		// Users table is owned by the user-service; created here too so the
		// service boots against an empty database.
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('admin', 'manager', 'dispatcher', 'coordinator', 'driver')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS branches (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			code TEXT NOT NULL UNIQUE,
			address TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			radius_km DOUBLE PRECISION,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS coordinator_visits (
			id TEXT PRIMARY KEY,
			coordinator_id TEXT NOT NULL,
			branch_id TEXT NOT NULL,
			check_in_time BIGINT NOT NULL,
			check_out_time BIGINT,
			check_in_latitude DOUBLE PRECISION NOT NULL,
			check_in_longitude DOUBLE PRECISION NOT NULL,
			check_out_latitude DOUBLE PRECISION,
			check_out_longitude DOUBLE PRECISION,
			distance_to_branch_meters INT NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('active', 'completed')),
			notes TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (branch_id) REFERENCES branches(id) ON DELETE CASCADE
		)`,

		// Legacy repair before the one-active index: older schemas used
		// 'in_progress' and allowed several open visits per coordinator.
		// Normalize the status and close all but the most recent open visit,
		// otherwise the index below cannot build on a legacy database.
		`UPDATE coordinator_visits SET status = 'active' WHERE status = 'in_progress'`,

		`UPDATE coordinator_visits v
			SET status = 'completed',
				check_out_time = COALESCE(v.check_out_time, v.check_in_time),
				updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
			WHERE v.status = 'active'
			  AND v.id NOT IN (
				SELECT DISTINCT ON (coordinator_id) id
				FROM coordinator_visits
				WHERE status = 'active'
				ORDER BY coordinator_id, check_in_time DESC
			  )`,

		// The arbiter for concurrent check-ins from two sessions of the same
		// coordinator: the second writer gets a unique violation, surfaced
		// to the client as a conflict.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_coordinator_visits_one_active
			ON coordinator_visits(coordinator_id) WHERE status = 'active'`,

		`CREATE TABLE IF NOT EXISTS checklist_templates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL,
			is_required BOOLEAN NOT NULL DEFAULT FALSE,
			display_order INT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		`CREATE TABLE IF NOT EXISTS checklist_responses (
			id SERIAL PRIMARY KEY,
			visit_id TEXT NOT NULL,
			template_id TEXT NOT NULL,
			response_type TEXT NOT NULL DEFAULT 'boolean',
			response_boolean BOOLEAN,
			response_text TEXT,
			response_number DOUBLE PRECISION,
			response_rating INT,
			notes TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (visit_id) REFERENCES coordinator_visits(id) ON DELETE CASCADE,
			FOREIGN KEY (template_id) REFERENCES checklist_templates(id) ON DELETE CASCADE,
			UNIQUE (visit_id, template_id)
		)`,

		`CREATE TABLE IF NOT EXISTS moto_locations (
			id SERIAL PRIMARY KEY,
			moto_id TEXT NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			speed DOUBLE PRECISION,
			heading DOUBLE PRECISION,
			recorded_at BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS fcm_tokens (
			id SERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			device_type TEXT NOT NULL CHECK(device_type IN ('ios', 'android', 'web')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_branches_code ON branches(code)`,
		`CREATE INDEX IF NOT EXISTS idx_coordinator_visits_coordinator ON coordinator_visits(coordinator_id)`,
		`CREATE INDEX IF NOT EXISTS idx_coordinator_visits_branch ON coordinator_visits(branch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_coordinator_visits_status ON coordinator_visits(status)`,
		`CREATE INDEX IF NOT EXISTS idx_coordinator_visits_check_in ON coordinator_visits(check_in_time)`,
		`CREATE INDEX IF NOT EXISTS idx_checklist_responses_visit ON checklist_responses(visit_id)`,
		`CREATE INDEX IF NOT EXISTS idx_moto_locations_moto ON moto_locations(moto_id, recorded_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_fcm_tokens_user_id ON fcm_tokens(user_id)`,

		// Patch columns for databases created before the geofence radius and
		// notes fields existed (shared schema predates this service).
		`ALTER TABLE branches ADD COLUMN IF NOT EXISTS radius_km DOUBLE PRECISION`,
		`ALTER TABLE branches ADD COLUMN IF NOT EXISTS address TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE coordinator_visits ADD COLUMN IF NOT EXISTS notes TEXT NOT NULL DEFAULT ''`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Println("✓ Database migrations completed")
	return nil
}
