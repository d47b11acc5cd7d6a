// Package sqlite provides SQLite-backed persistent task storage. Uses WAL
// mode for concurrent reads and crash-safe writes. Implements
// domain.TaskStore so the registry can swap it in for the volatile
// in-memory store without touching the dispatcher.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/mapgrid-network/mapgrid/internal/domain"
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/tasks.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "tasks.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id               TEXT PRIMARY KEY,
			type             TEXT NOT NULL,
			status           TEXT NOT NULL,
			input_format     TEXT NOT NULL,
			input_content    BLOB NOT NULL,
			requested_format TEXT NOT NULL,
			output_format    TEXT,
			output_content   BLOB,
			error            TEXT NOT NULL DEFAULT '',
			created_at       INTEGER NOT NULL,
			updated_at       INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_updated ON tasks(updated_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── TaskStore ──────────────────────────────────────────────────────────────

// Insert stores a freshly created task.
func (d *DB) Insert(ctx context.Context, t *domain.Task) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO tasks (id, type, status, input_format, input_content, requested_format, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Type), string(t.Status),
		string(t.Input.Format), []byte(t.Input.Content),
		string(t.OutputFormat),
		t.CreatedAt.UnixNano(), t.UpdatedAt.UnixNano(),
	)
	return err
}

// Get retrieves a single task by identifier.
func (d *DB) Get(ctx context.Context, id string) (*domain.Task, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, type, status, input_format, input_content, requested_format,
		        output_format, output_content, error, created_at, updated_at
		 FROM tasks WHERE id = ?`, id,
	)
	return scanTask(row)
}

// BeginExecution performs the created → in_progress check-and-set as a
// single conditional UPDATE, so concurrent callers race on one row write.
func (d *DB) BeginExecution(ctx context.Context, id string) (*domain.Task, bool, error) {
	res, err := d.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(domain.TaskInProgress), time.Now().UTC().UnixNano(),
		id, string(domain.TaskCreated),
	)
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	t, err := d.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return t, n == 1, nil
}

// Complete transitions in_progress → completed and attaches the output.
func (d *DB) Complete(ctx context.Context, id string, output domain.Payload) (*domain.Task, error) {
	res, err := d.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, output_format = ?, output_content = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(domain.TaskCompleted),
		string(output.Format), []byte(output.Content),
		time.Now().UTC().UnixNano(),
		id, string(domain.TaskInProgress),
	)
	if err != nil {
		return nil, err
	}
	if err := d.checkTransition(ctx, id, res); err != nil {
		return nil, err
	}
	return d.Get(ctx, id)
}

// Fail transitions in_progress → failed and records the failure detail.
func (d *DB) Fail(ctx context.Context, id, msg string) (*domain.Task, error) {
	res, err := d.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, error = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(domain.TaskFailed), msg,
		time.Now().UTC().UnixNano(),
		id, string(domain.TaskInProgress),
	)
	if err != nil {
		return nil, err
	}
	if err := d.checkTransition(ctx, id, res); err != nil {
		return nil, err
	}
	return d.Get(ctx, id)
}

// checkTransition distinguishes "row missing" from "row in the wrong state"
// after a conditional UPDATE matched nothing.
func (d *DB) checkTransition(ctx context.Context, id string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = d.db.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return domain.ErrTaskNotFound
	}
	if err != nil {
		return err
	}
	return domain.ErrInvalidTransition
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func scanTask(row *sql.Row) (*domain.Task, error) {
	var (
		t            domain.Task
		typ, status  string
		inFormat     string
		inContent    []byte
		reqFormat    string
		outFormat    sql.NullString
		outContent   []byte
		createdAt    int64
		updatedAt    int64
	)

	err := row.Scan(&t.ID, &typ, &status, &inFormat, &inContent, &reqFormat,
		&outFormat, &outContent, &t.Error, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	t.Type = domain.TaskType(typ)
	t.Status = domain.TaskStatus(status)
	t.Input = domain.Payload{Format: domain.Format(inFormat), Content: inContent}
	t.OutputFormat = domain.Format(reqFormat)
	if outFormat.Valid && t.Status == domain.TaskCompleted {
		t.Output = &domain.Payload{Format: domain.Format(outFormat.String), Content: outContent}
	}
	t.CreatedAt = time.Unix(0, createdAt).UTC()
	t.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &t, nil
}
