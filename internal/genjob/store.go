package genjob

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"lineup/internal/config"
)

// Store persists generation job records in SQLite so submissions survive
// crashes and sessions can resume polling.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore initializes or connects to the job database.
func OpenStore(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "jobs.db")
	// Pragmas go in the DSN so every pooled connection gets them; a plain
	// db.Exec would only configure whichever connection it happened to run on.
	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS generation_jobs (
        id TEXT PRIMARY KEY,
        project_id TEXT NOT NULL,
        kind TEXT NOT NULL,
        status TEXT NOT NULL,
        payload TEXT,
        result TEXT,
        error_message TEXT,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL,
        completed_at TEXT
    );
    CREATE INDEX IF NOT EXISTS idx_generation_jobs_project_kind
        ON generation_jobs (project_id, kind, status)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init job schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const jobColumns = `id, project_id, kind, status, payload, result, error_message, created_at, updated_at, completed_at`

// Insert records a newly submitted job.
func (s *Store) Insert(ctx context.Context, job *Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generation_jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.ProjectID, job.Kind, string(job.Status),
		nullableText(job.Payload), nullableText(job.Result), nullableString(job.Error),
		job.CreatedAt.UTC().Format(time.RFC3339Nano),
		job.UpdatedAt.UTC().Format(time.RFC3339Nano),
		nullableTime(job.CompletedAt))
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Update persists the last observed state of a job.
func (s *Store) Update(ctx context.Context, job *Job) error {
	job.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE generation_jobs SET status = ?, result = ?, error_message = ?,
             updated_at = ?, completed_at = ? WHERE id = ?`,
		string(job.Status), nullableText(job.Result), nullableString(job.Error),
		job.UpdatedAt.Format(time.RFC3339Nano), nullableTime(job.CompletedAt), job.ID)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// GetByID fetches a job record, or nil when unknown.
func (s *Store) GetByID(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM generation_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// FindActive returns the non-terminal job for a (project, kind) pairing, or
// nil when none exists. An empty kind matches any kind, which lets a
// resumed session discover whatever is still in flight. At most one such
// job exists per kind at a time; when more than one survives a crash the
// oldest wins, keeping submission idempotent.
func (s *Store) FindActive(ctx context.Context, projectID, kind string) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM generation_jobs
         WHERE project_id = ? AND status IN (?, ?)`
	args := []any{projectID, string(StatusPending), string(StatusRunning)}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at ASC LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active job: %w", err)
	}
	return job, nil
}

// ListByProject returns every job recorded for a project, newest first.
func (s *Store) ListByProject(ctx context.Context, projectID string) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM generation_jobs WHERE project_id = ? ORDER BY created_at DESC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job         Job
		status      string
		payload     sql.NullString
		result      sql.NullString
		errMsg      sql.NullString
		createdAt   string
		updatedAt   string
		completedAt sql.NullString
	)
	if err := row.Scan(&job.ID, &job.ProjectID, &job.Kind, &status,
		&payload, &result, &errMsg, &createdAt, &updatedAt, &completedAt); err != nil {
		return nil, err
	}

	parsed, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("job %s has unknown status %q", job.ID, status)
	}
	job.Status = parsed
	if payload.Valid {
		job.Payload = []byte(payload.String)
	}
	if result.Valid {
		job.Result = []byte(result.String)
	}
	job.Error = errMsg.String

	var err error
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if job.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if completedAt.Valid {
		ts, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		job.CompletedAt = &ts
	}
	return &job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableText(value []byte) any {
	if len(value) == 0 {
		return nil
	}
	return string(value)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}
