package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

const schemaLockID = int64(2026082901)

// EnsureSchema creates the pipeline tables. The natural-key and per-document
// uniqueness constraints declared here are the concurrency guards the
// usecases rely on; do not relax them.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	external_id TEXT NOT NULL,
	title TEXT NOT NULL,
	url TEXT NOT NULL,
	content TEXT,
	content_hash TEXT,
	published_at TIMESTAMPTZ,
	ingested_at TIMESTAMPTZ NOT NULL,
	metadata JSONB,
	CONSTRAINT documents_source_external_id_key UNIQUE (source, external_id)
);

CREATE INDEX IF NOT EXISTS idx_documents_content_hash ON documents(content_hash) WHERE content_hash IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_documents_ingested_at ON documents(ingested_at DESC);

CREATE TABLE IF NOT EXISTS classifications (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL UNIQUE REFERENCES documents(id) ON DELETE CASCADE,
	relevance_score INTEGER NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	pillars JSONB NOT NULL DEFAULT '[]'::jsonb,
	categories JSONB NOT NULL DEFAULT '[]'::jsonb,
	reasoning TEXT,
	model_id TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS gap_analyses (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL UNIQUE REFERENCES documents(id) ON DELETE CASCADE,
	affected_controls JSONB NOT NULL DEFAULT '[]'::jsonb,
	severity TEXT NOT NULL,
	effort_hours INTEGER,
	similar_document_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
	summary TEXT NOT NULL,
	recommendations JSONB NOT NULL DEFAULT '[]'::jsonb,
	flags JSONB NOT NULL DEFAULT '[]'::jsonb,
	model_id TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	gap_analysis_id TEXT NOT NULL REFERENCES gap_analyses(id) ON DELETE CASCADE,
	control_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	assigned_team TEXT NOT NULL,
	priority TEXT NOT NULL,
	status TEXT NOT NULL,
	due_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT tasks_gap_analysis_control_key UNIQUE (gap_analysis_id, control_id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_assigned_team ON tasks(assigned_team);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
