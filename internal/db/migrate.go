// Package db provides database schema migration management.
package db

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

// migration represents one versioned schema change. Migrations are
// embedded in code so the library needs no migration directory at
// runtime.
type migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered list of schema changes. Append only; never
// edit an entry that has shipped, the checksum check will refuse it.
var migrations = []migration{
	{
		Version:     1,
		Description: "create actions table",
		SQL: `
		CREATE TABLE actions (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL CHECK(type IN ('like','unlike','repost','unrepost','follow','unfollow')),
			target_id TEXT NOT NULL CHECK(length(target_id) > 0),
			user_pubkey TEXT NOT NULL CHECK(length(user_pubkey) > 0),
			author_pubkey TEXT NOT NULL DEFAULT '',
			addressable_id TEXT NOT NULL DEFAULT '',
			target_kind INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL CHECK(status IN ('pending','syncing','completed','failed')),
			retry_count INTEGER NOT NULL DEFAULT 0 CHECK(retry_count >= 0),
			last_error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX idx_actions_user_status ON actions(user_pubkey, status);
		CREATE INDEX idx_actions_user_created ON actions(user_pubkey, created_at);

		CREATE UNIQUE INDEX idx_actions_live ON actions(user_pubkey, target_id, type)
			WHERE status IN ('pending','syncing');
		`,
	},
}

// AppliedMigration records a migration that has run.
type AppliedMigration struct {
	Version     int
	AppliedAt   time.Time
	Description string
	Checksum    string
}

// Migrator applies embedded schema migrations.
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a new Migrator instance.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// Initialize creates the schema_migrations table if it doesn't exist.
func (m *Migrator) Initialize() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY CHECK(version > 0),
		applied_at INTEGER NOT NULL CHECK(applied_at > 0),
		description TEXT NOT NULL CHECK(length(description) > 0),
		checksum TEXT NOT NULL CHECK(length(checksum) = 64)
	);`
	_, err := m.db.Exec(query)
	return err
}

// CurrentVersion returns the current schema version.
func (m *Migrator) CurrentVersion() (int, error) {
	var version int
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// Applied returns all applied migrations in version order.
func (m *Migrator) Applied() ([]AppliedMigration, error) {
	rows, err := m.db.Query("SELECT version, applied_at, description, checksum FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var a AppliedMigration
		var appliedAt int64
		if err := rows.Scan(&a.Version, &appliedAt, &a.Description, &a.Checksum); err != nil {
			return nil, err
		}
		a.AppliedAt = time.Unix(appliedAt, 0)
		applied = append(applied, a)
	}
	return applied, rows.Err()
}

// Up applies all pending migrations and verifies checksums of applied
// ones against the embedded definitions.
func (m *Migrator) Up() error {
	if err := m.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize migrations table: %w", err)
	}

	applied, err := m.Applied()
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	appliedByVersion := make(map[int]AppliedMigration, len(applied))
	for _, a := range applied {
		appliedByVersion[a.Version] = a
	}

	for _, mig := range migrations {
		sum := checksum(mig.SQL)

		if prev, ok := appliedByVersion[mig.Version]; ok {
			if prev.Checksum != sum {
				return fmt.Errorf("migration %d checksum mismatch: applied %s, embedded %s",
					mig.Version, prev.Checksum, sum)
			}
			continue
		}

		tx, err := m.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", mig.Version, err)
		}

		if _, err := tx.Exec(mig.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", mig.Version, mig.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, applied_at, description, checksum) VALUES (?, ?, ?, ?)",
			mig.Version, time.Now().Unix(), mig.Description, sum,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", mig.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", mig.Version, err)
		}
	}

	return nil
}

// checksum returns the hex SHA-256 of a migration's SQL.
func checksum(sql string) string {
	sum := sha256.Sum256([]byte(sql))
	return hex.EncodeToString(sum[:])
}
