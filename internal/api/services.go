package api

import (
	"context"
	"errors"

	"lineup/internal/genjob"
	"lineup/internal/services"
	"lineup/internal/staging"
)

// SessionSource abstracts the daemon's session registry for API queries.
type SessionSource interface {
	Get(projectID string) (*staging.Session, bool)
	List() []*staging.Session
}

// SessionService exposes read-only session views returning API DTOs.
type SessionService struct {
	source SessionSource
}

// NewSessionService constructs a SessionService around the provided source.
func NewSessionService(source SessionSource) *SessionService {
	if source == nil {
		return nil
	}
	return &SessionService{source: source}
}

// Describe fetches one session's full view, or nil when no session is open
// for the project.
func (s *SessionService) Describe(projectID string) *SessionView {
	if s == nil || s.source == nil {
		return nil
	}
	session, ok := s.source.Get(projectID)
	if !ok {
		return nil
	}
	view := FromSession(session)
	return &view
}

// List summarizes every open session.
func (s *SessionService) List() []SessionSummary {
	if s == nil || s.source == nil {
		return nil
	}
	sessions := s.source.List()
	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, SummarizeSession(session))
	}
	return summaries
}

// JobReader abstracts generation job lookups needed for API queries.
type JobReader interface {
	GetStatus(ctx context.Context, jobID string) (*genjob.Job, error)
	Refresh(ctx context.Context, jobID string) (*genjob.Job, error)
	List(ctx context.Context, projectID string) ([]*genjob.Job, error)
}

// JobService exposes read-only job operations returning API DTOs.
type JobService struct {
	jobs JobReader
}

// NewJobService constructs a JobService around the provided reader.
func NewJobService(jobs JobReader) *JobService {
	if jobs == nil {
		return nil
	}
	return &JobService{jobs: jobs}
}

// Describe fetches a single job. Non-terminal jobs are refreshed against
// the backend first, so a poll through the API observes real progress; a
// transient backend failure falls back to the last persisted state.
func (s *JobService) Describe(ctx context.Context, jobID string) (*JobView, error) {
	if s == nil || s.jobs == nil {
		return nil, nil
	}
	job, err := s.jobs.GetStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsTerminal() {
		refreshed, err := s.jobs.Refresh(ctx, jobID)
		switch {
		case err == nil:
			job = refreshed
		case errors.Is(err, services.ErrTransient):
			// Last known state stands; the next poll retries the backend.
		default:
			return nil, err
		}
	}
	view := FromJob(job)
	return &view, nil
}

// ListByProject returns a project's job history.
func (s *JobService) ListByProject(ctx context.Context, projectID string) ([]JobView, error) {
	if s == nil || s.jobs == nil {
		return nil, nil
	}
	jobs, err := s.jobs.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return FromJobs(jobs), nil
}
