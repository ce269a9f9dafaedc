package main

import (
	"flag"
	"log"

	"github.com/noah-isme/committee-api/pkg/config"
	"github.com/noah-isme/committee-api/pkg/database"
)

// statements are idempotent; the tool can run on every deploy.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name     TEXT NOT NULL,
		active        BOOLEAN NOT NULL DEFAULT TRUE,
		last_login    TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS designations (
		id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		name       TEXT NOT NULL UNIQUE,
		level      INTEGER NOT NULL CHECK (level BETWEEN 1 AND 3),
		parent_id  TEXT REFERENCES designations(id),
		sort_order INTEGER NOT NULL DEFAULT 1,
		is_active  BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		name             TEXT NOT NULL,
		email            TEXT NOT NULL UNIQUE,
		photo            TEXT,
		usertype         TEXT NOT NULL DEFAULT 'member'
			CHECK (usertype IN ('member', 'volunteer', 'executive')),
		designation_id   TEXT REFERENCES designations(id),
		committee_status TEXT NOT NULL DEFAULT 'none'
			CHECK (committee_status IN ('none', 'active', 'inactive')),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS executive_applications (
		id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		user_id        TEXT NOT NULL REFERENCES users(id),
		designation_id TEXT REFERENCES designations(id),
		statement      TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'approved', 'rejected')),
		admin_comment  TEXT,
		processed_by   TEXT REFERENCES admins(id),
		processed_at   TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS volunteer_applications (
		id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		user_id      TEXT NOT NULL REFERENCES users(id),
		motivation   TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'approved', 'rejected')),
		admin_notes  TEXT,
		processed_by TEXT REFERENCES admins(id),
		processed_at TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS role_change_logs (
		id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		user_id            TEXT NOT NULL REFERENCES users(id),
		admin_id           TEXT NOT NULL REFERENCES admins(id),
		old_usertype       TEXT NOT NULL,
		new_usertype       TEXT NOT NULL,
		old_designation_id TEXT,
		new_designation_id TEXT,
		reason             TEXT NOT NULL,
		action_type        TEXT NOT NULL
			CHECK (action_type IN ('promotion', 'demotion', 'designation_change', 'manual_change')),
		metadata           JSONB,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_role_change_logs_user
		ON role_change_logs (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_role_change_logs_admin
		ON role_change_logs (admin_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS committee_assignments (
		id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		user_id          TEXT NOT NULL REFERENCES users(id),
		designation_id   TEXT NOT NULL REFERENCES designations(id),
		committee_number TEXT NOT NULL,
		tenure_start     TIMESTAMPTZ NOT NULL,
		tenure_end       TIMESTAMPTZ,
		status           TEXT NOT NULL DEFAULT 'current'
			CHECK (status IN ('current', 'previous')),
		member_order     INTEGER NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// One current seat per user, dense unique ordering inside the current scope.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_committee_current_user
		ON committee_assignments (user_id) WHERE status = 'current'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_committee_current_order
		ON committee_assignments (committee_number, member_order) WHERE status = 'current' AND member_order > 0`,

	`CREATE TABLE IF NOT EXISTS previous_committee_members (
		id                      TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		user_id                 TEXT,
		name                    TEXT NOT NULL,
		email                   TEXT NOT NULL,
		designation_title       TEXT NOT NULL,
		designation_id_snapshot TEXT,
		photo                   TEXT,
		committee_number        TEXT NOT NULL,
		member_order            INTEGER NOT NULL,
		tenure_start            TIMESTAMPTZ NOT NULL,
		tenure_end              TIMESTAMPTZ,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (committee_number, member_order)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_previous_members_number
		ON previous_committee_members (committee_number)`,

	`CREATE TABLE IF NOT EXISTS committee_state (
		id             INTEGER PRIMARY KEY CHECK (id = 1),
		current_number TEXT NOT NULL DEFAULT '',
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`INSERT INTO committee_state (id, current_number)
		VALUES (1, '') ON CONFLICT (id) DO NOTHING`,
}

func main() {
	var dryRun bool
	flag.BoolVar(&dryRun, "dry-run", false, "print statements without executing")
	flag.Parse()

	if dryRun {
		for _, stmt := range statements {
			log.Println(stmt)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close() //nolint:errcheck

	for i, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("statement %d failed: %v", i+1, err)
		}
	}
	log.Printf("schema up to date (%d statements)", len(statements))
}
