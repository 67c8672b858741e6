package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
    id VARCHAR(64) PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL DEFAULT '',
    completed_skills JSONB NOT NULL DEFAULT '[]'::jsonb,
    points INTEGER NOT NULL DEFAULT 0,
    saved_opportunities JSONB NOT NULL DEFAULT '[]'::jsonb,
    completed_safety_lessons INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_points CHECK (points >= 0),
    CONSTRAINT valid_safety_lessons CHECK (completed_safety_lessons >= 0)
);
`

const migration001Down = `DROP TABLE IF EXISTS users;`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: EVENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Append-only event log. Rows are never updated or deleted.
CREATE TABLE IF NOT EXISTS events (
    id UUID PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    event_type VARCHAR(100) NOT NULL,
    payload JSONB,
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,

    -- Explainability metadata, NULL when the emitter supplied none.
    cause_event_id UUID,
    impact_domain VARCHAR(20),
    confidence_score DOUBLE PRECISION,

    CONSTRAINT valid_confidence CHECK (
        confidence_score IS NULL OR (confidence_score >= 0 AND confidence_score <= 1)
    )
);

CREATE INDEX IF NOT EXISTS idx_events_user_id ON events(user_id);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
CREATE INDEX IF NOT EXISTS idx_events_user_occurred ON events(user_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_events_cause ON events(cause_event_id) WHERE cause_event_id IS NOT NULL;
`

const migration002Down = `DROP TABLE IF EXISTS events;`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: OPPORTUNITIES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS opportunities (
    id VARCHAR(64) PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    organization VARCHAR(200) NOT NULL DEFAULT '',
    location VARCHAR(200) NOT NULL DEFAULT '',
    salary VARCHAR(100) NOT NULL DEFAULT '',
    experience_level VARCHAR(50) NOT NULL DEFAULT '',
    required_skills JSONB NOT NULL DEFAULT '[]'::jsonb,

    -- Fixes catalog order so match tie-breaking is reproducible.
    position SERIAL
);

CREATE INDEX IF NOT EXISTS idx_opportunities_position ON opportunities(position);
`

const migration003Down = `DROP TABLE IF EXISTS opportunities;`

// Migration is one versioned schema change.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// GetMigrations returns all migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_users", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_events", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_opportunities", UpSQL: migration003Up, DownSQL: migration003Down},
	}
}

// Migrator applies pending migrations, tracking them in schema_migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
}

// NewMigrator creates a migrator over the embedded migration set.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, migrations: GetMigrations()}
}

// Migrate applies every migration not yet recorded, each in its own
// transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if applied[mig.Version] {
			continue
		}

		err := pgx.BeginFunc(ctx, m.conn.Pool(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("execute migration %d: %w", mig.Version, err)
			}
			_, err := tx.Exec(ctx,
				"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)",
				mig.Version, mig.Name,
			)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", mig.Version, mig.Name, err)
		}
	}
	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := m.conn.Query(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
