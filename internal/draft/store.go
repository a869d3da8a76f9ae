package draft

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"lineup/internal/config"
	"lineup/internal/logging"
)

// Store persists one draft per project in SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the draft database.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "drafts.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, logger: logger.With(slog.String(logging.FieldComponent, "draft-store"))}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS drafts (
        project_id TEXT PRIMARY KEY,
        version INTEGER NOT NULL,
        saved_at TEXT NOT NULL,
        payload TEXT NOT NULL
    )`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init draft schema: %w", err)
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

// Save writes the draft for its project, overwriting any prior record.
// There is one draft per project, not a history.
func (s *Store) Save(ctx context.Context, d *Draft) error {
	if d == nil || strings.TrimSpace(d.ProjectID) == "" {
		return errors.New("draft save: project id required")
	}
	d.Version = CurrentVersion
	d.SavedAt = time.Now().UTC()

	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}

	return s.execWithRetry(ctx,
		`INSERT INTO drafts (project_id, version, saved_at, payload) VALUES (?, ?, ?, ?)
         ON CONFLICT(project_id) DO UPDATE SET version = excluded.version,
             saved_at = excluded.saved_at, payload = excluded.payload`,
		d.ProjectID, d.Version, d.SavedAt.Format(time.RFC3339Nano), string(payload))
}

// Load returns the draft for a project, migrated to the current version, or
// nil when absent. Corrupt records are logged and treated as absent; the
// load path never fails on bad data.
func (s *Store) Load(ctx context.Context, projectID string) (*Draft, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM drafts WHERE project_id = ?`, projectID)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}

	var d Draft
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		s.logger.Warn("discarding corrupt draft record",
			slog.String(logging.FieldProjectID, projectID),
			slog.String("error", err.Error()))
		return nil, nil
	}

	migrated, err := Migrate(&d)
	if err != nil {
		s.logger.Warn("discarding unmigratable draft record",
			slog.String(logging.FieldProjectID, projectID),
			slog.String("error", err.Error()))
		return nil, nil
	}
	return migrated, nil
}

// Clear removes the draft for a project. Called after a successful publish
// or an explicit discard.
func (s *Store) Clear(ctx context.Context, projectID string) error {
	return s.execWithRetry(ctx, `DELETE FROM drafts WHERE project_id = ?`, projectID)
}

// Projects lists the project IDs that currently have a saved draft.
func (s *Store) Projects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT project_id FROM drafts ORDER BY saved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan draft project: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == 5 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
