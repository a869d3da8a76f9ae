package genjob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lineup/internal/logging"
	"lineup/internal/services"
	"lineup/internal/services/genbackend"
)

// Backend is the subset of the generation backend client the manager needs.
type Backend interface {
	Submit(ctx context.Context, kind string, payload json.RawMessage) (*genbackend.SubmitResponse, error)
	Status(ctx context.Context, jobID string) (*genbackend.StatusResponse, error)
}

// Manager converts slow, externally executed generation requests into
// pollable, resumable units of work. Job state is only ever observed from
// the backend, never invented locally.
type Manager struct {
	store   *Store
	backend Backend
	logger  *slog.Logger
}

// NewManager constructs a job manager.
func NewManager(store *Store, backend Backend, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		store:   store,
		backend: backend,
		logger:  logger.With(slog.String(logging.FieldComponent, "genjob")),
	}
}

// Submit starts a generation job, or returns the existing one when a
// non-terminal job for this (project, kind) is already in flight. The
// single-flight invariant makes submission idempotent across page reloads.
func (m *Manager) Submit(ctx context.Context, projectID, kind string, payload json.RawMessage) (*Job, error) {
	existing, err := m.store.FindActive(ctx, projectID, kind)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "genjob", "submit", "lookup active job", err)
	}
	if existing != nil {
		m.logger.Debug("reusing in-flight job",
			slog.String(logging.FieldProjectID, projectID),
			slog.String("kind", kind),
			slog.String(logging.FieldJobID, existing.ID))
		return existing, nil
	}

	resp, err := m.backend.Submit(ctx, kind, payload)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "genjob", "submit", "backend submission", err)
	}

	status, ok := ParseStatus(resp.Status)
	if !ok {
		status = StatusPending
	}
	now := time.Now().UTC()
	job := &Job{
		ID:        resp.JobID,
		ProjectID: projectID,
		Kind:      kind,
		Status:    status,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if err := m.store.Insert(ctx, job); err != nil {
		return nil, services.Wrap(services.ErrTransient, "genjob", "submit", "persist job", err)
	}

	m.logger.Info("generation job submitted",
		slog.String(logging.FieldProjectID, projectID),
		slog.String("kind", kind),
		slog.String(logging.FieldJobID, job.ID))
	return job, nil
}

// GetStatus returns the last known state of a job.
func (m *Manager) GetStatus(ctx context.Context, jobID string) (*Job, error) {
	job, err := m.store.GetByID(ctx, jobID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "genjob", "get status", "", err)
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "genjob", "get status", fmt.Sprintf("job %s", jobID), nil)
	}
	return job, nil
}

// Refresh polls the backend for a job's current state and persists what it
// observes. A backend not-found answer is authoritative and surfaces as
// ErrNotFound; transport errors surface as ErrTransient so pollers keep
// going.
func (m *Manager) Refresh(ctx context.Context, jobID string) (*Job, error) {
	job, err := m.GetStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.IsTerminal() {
		return job, nil
	}

	resp, err := m.backend.Status(ctx, jobID)
	if err != nil {
		if errors.Is(err, genbackend.ErrJobNotFound) {
			return nil, services.Wrap(services.ErrNotFound, "genjob", "refresh", fmt.Sprintf("job %s unknown to backend", jobID), nil)
		}
		return nil, services.Wrap(services.ErrTransient, "genjob", "refresh", "backend poll", err)
	}

	observed, ok := ParseStatus(resp.Status)
	if !ok {
		return nil, services.Wrap(services.ErrTransient, "genjob", "refresh",
			fmt.Sprintf("backend reported unknown status %q", resp.Status), nil)
	}
	if observed == job.Status && len(resp.Result) == 0 {
		return job, nil
	}

	job.Status = observed
	if len(resp.Result) > 0 {
		job.Result = resp.Result
	}
	job.Error = resp.Error
	if observed.IsTerminal() && job.CompletedAt == nil {
		now := time.Now().UTC()
		job.CompletedAt = &now
	}
	if err := m.store.Update(ctx, job); err != nil {
		return nil, services.Wrap(services.ErrTransient, "genjob", "refresh", "persist observed state", err)
	}
	return job, nil
}

// ResumeIfPending returns the non-terminal job for this (project, kind) so
// a session can resume polling after a reload or crash instead of
// re-submitting. An empty kind matches any kind. Returns nil when nothing
// is in flight.
func (m *Manager) ResumeIfPending(ctx context.Context, projectID, kind string) (*Job, error) {
	job, err := m.store.FindActive(ctx, projectID, kind)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "genjob", "resume", "", err)
	}
	return job, nil
}

// Retry submits a fresh job with the failed job's kind and payload. Failed
// jobs are never resurrected; the retry path always creates a new one.
func (m *Manager) Retry(ctx context.Context, jobID string) (*Job, error) {
	failed, err := m.GetStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if failed.Status != StatusFailed {
		return nil, services.Wrap(services.ErrJobFailure, "genjob", "retry",
			fmt.Sprintf("job %s is %s, only failed jobs can be retried", jobID, failed.Status), nil)
	}
	return m.Submit(ctx, failed.ProjectID, failed.Kind, failed.Payload)
}

// List returns every job recorded for a project, newest first.
func (m *Manager) List(ctx context.Context, projectID string) ([]*Job, error) {
	jobs, err := m.store.ListByProject(ctx, projectID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "genjob", "list", "", err)
	}
	return jobs, nil
}
