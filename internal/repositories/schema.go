package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tasks (
	id          BIGSERIAL PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT,
	status      TEXT NOT NULL DEFAULT 'todo',
	priority    TEXT NOT NULL DEFAULT 'medium',
	due_date    TIMESTAMPTZ,
	creator_id  BIGINT NOT NULL REFERENCES users(id),
	assignee_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS tasks_status_idx ON tasks (status);
CREATE INDEX IF NOT EXISTS tasks_assignee_idx ON tasks (assignee_id);

CREATE TABLE IF NOT EXISTS attachments (
	id           BIGSERIAL PRIMARY KEY,
	task_id      BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	filename     TEXT NOT NULL,
	file_path    TEXT NOT NULL,
	file_size    BIGINT NOT NULL,
	content_type TEXT,
	uploaded_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS attachments_task_idx ON attachments (task_id);
`

// Migrate creates the tables the repositories need. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
