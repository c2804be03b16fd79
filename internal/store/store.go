// Package store is the local warehouse backing task and execution
// records. It mirrors the CORE_SERVICES schema of the corporate
// warehouse (tasks plus per-agent execution rows) in an embedded
// sqlite database so the gateway works without network access.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	task_id        TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	user_role      TEXT,
	description    TEXT NOT NULL,
	status         TEXT DEFAULT 'pending',
	priority       INTEGER DEFAULT 5,
	created_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	started_at     TIMESTAMP,
	completed_at   TIMESTAMP,
	result         TEXT,
	error_message  TEXT
);

CREATE TABLE IF NOT EXISTS agent_executions (
	execution_id  TEXT PRIMARY KEY,
	task_id       TEXT REFERENCES tasks(task_id),
	agent_type    TEXT NOT NULL,
	model         TEXT,
	status        TEXT DEFAULT 'pending',
	result        TEXT,
	error_message TEXT,
	duration_ms   INTEGER,
	created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_executions_task ON agent_executions(task_id);
`

// Task is one row in the tasks table.
type Task struct {
	TaskID      string
	UserID      string
	UserRole    string
	Description string
	Status      string
	Result      string
	ErrorMsg    string
}

// Execution is one row in the agent_executions table.
type Execution struct {
	ExecutionID string
	TaskID      string
	AgentType   string
	Model       string
	Status      string
	Result      string
	ErrorMsg    string
	DurationMS  int64
}

// Store is the embedded warehouse database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the warehouse database and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// The sqlite driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent task recording.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Ping verifies warehouse connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateTask inserts a pending task row and marks it started.
func (s *Store) CreateTask(ctx context.Context, t Task) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (task_id, user_id, user_role, description, status, started_at)
		VALUES (?, ?, ?, ?, 'running', ?)`,
		t.TaskID, t.UserID, t.UserRole, t.Description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: create task: %w", err)
	}
	return nil
}

// CompleteTask records a task's terminal status and result.
func (s *Store) CompleteTask(ctx context.Context, taskID, status, result, errorMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, result = ?, error_message = ?, completed_at = ?
		WHERE task_id = ?`,
		status, result, errorMsg, time.Now().UTC(), taskID)
	if err != nil {
		return fmt.Errorf("store: complete task: %w", err)
	}
	return nil
}

// RecordExecution inserts one agent execution row.
func (s *Store) RecordExecution(ctx context.Context, e Execution) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_executions (execution_id, task_id, agent_type, model, status, result, error_message, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ExecutionID, e.TaskID, e.AgentType, e.Model, e.Status, e.Result, e.ErrorMsg, e.DurationMS)
	if err != nil {
		return fmt.Errorf("store: record execution: %w", err)
	}
	return nil
}

// GetTask reads one task row by id.
func (s *Store) GetTask(ctx context.Context, taskID string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT task_id, user_id, COALESCE(user_role, ''), description, status,
		       COALESCE(result, ''), COALESCE(error_message, '')
		FROM tasks WHERE task_id = ?`, taskID)

	var t Task
	if err := row.Scan(&t.TaskID, &t.UserID, &t.UserRole, &t.Description, &t.Status, &t.Result, &t.ErrorMsg); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("store: task %s not found", taskID)
		}
		return nil, fmt.Errorf("store: get task: %w", err)
	}
	return &t, nil
}

// RecentTasks returns up to limit task rows for a user, newest first.
func (s *Store) RecentTasks(ctx context.Context, userID string, limit int) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, user_id, COALESCE(user_role, ''), description, status,
		       COALESCE(result, ''), COALESCE(error_message, '')
		FROM tasks WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.TaskID, &t.UserID, &t.UserRole, &t.Description, &t.Status, &t.Result, &t.ErrorMsg); err != nil {
			return nil, fmt.Errorf("store: scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
