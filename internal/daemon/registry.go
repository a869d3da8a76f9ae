package daemon

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"lineup/internal/logging"
	"lineup/internal/staging"
)

const defaultIdleTimeout = 30 * time.Minute

// Registry holds the daemon's open staging sessions, one per project.
// Sessions are single-writer by contract; the registry only guarantees that
// a project maps to exactly one live session at a time. Idle sessions are
// flushed and evicted so an abandoned browser tab cannot pin memory
// forever; their draft makes them resumable.
type Registry struct {
	deps   staging.Deps
	idle   time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*registryEntry
}

type registryEntry struct {
	session  *staging.Session
	lastUsed time.Time
}

// NewRegistry constructs a session registry.
func NewRegistry(deps staging.Deps, idleTimeout time.Duration, logger *slog.Logger) *Registry {
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		deps:     deps,
		idle:     idleTimeout,
		logger:   logger.With(slog.String(logging.FieldComponent, "session-registry")),
		sessions: make(map[string]*registryEntry),
	}
}

// Open returns the project's live session, opening (and resuming from any
// draft) when none exists. The requested step only applies to fresh opens;
// an already-open session keeps its position. A fresh open also checks for
// an in-flight generation job, so clients pick up polling where the
// previous session left off instead of re-submitting.
func (r *Registry) Open(ctx context.Context, projectID string, step int) (*staging.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[projectID]; ok && !entry.session.Finished() {
		entry.lastUsed = time.Now()
		return entry.session, nil
	}
	session, err := staging.Open(ctx, projectID, step, r.deps)
	if err != nil {
		return nil, err
	}
	if job, err := session.ResumeGeneration(ctx, ""); err != nil {
		r.logger.Warn("generation resume check failed",
			slog.String(logging.FieldProjectID, projectID),
			slog.String("error", err.Error()))
	} else if job != nil {
		r.logger.Info("resumed in-flight generation job",
			slog.String(logging.FieldProjectID, projectID),
			slog.String(logging.FieldJobID, job.ID),
			slog.String("status", string(job.Status)))
	}
	r.sessions[projectID] = &registryEntry{session: session, lastUsed: time.Now()}
	return session, nil
}

// Get returns the project's live session without opening one.
func (r *Registry) Get(projectID string) (*staging.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[projectID]
	if !ok {
		return nil, false
	}
	entry.lastUsed = time.Now()
	return entry.session, true
}

// List returns every live session ordered by project ID.
func (r *Registry) List() []*staging.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]*staging.Session, 0, len(r.sessions))
	for _, entry := range r.sessions {
		sessions = append(sessions, entry.session)
	}
	sort.Slice(sessions, func(a, b int) bool {
		return sessions[a].ProjectID() < sessions[b].ProjectID()
	})
	return sessions
}

// Evict flushes and removes one session.
func (r *Registry) Evict(projectID string) {
	r.mu.Lock()
	entry, ok := r.sessions[projectID]
	if ok {
		delete(r.sessions, projectID)
	}
	r.mu.Unlock()
	if ok {
		entry.session.Close()
	}
}

// Run sweeps for idle sessions until the context ends, then flushes
// everything that is still open.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.idle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return
		case now := <-ticker.C:
			r.sweep(now)
		}
	}
}

func (r *Registry) sweep(now time.Time) {
	r.mu.Lock()
	var expired []*registryEntry
	for projectID, entry := range r.sessions {
		if entry.session.Finished() || now.Sub(entry.lastUsed) >= r.idle {
			delete(r.sessions, projectID)
			expired = append(expired, entry)
		}
	}
	r.mu.Unlock()

	for _, entry := range expired {
		entry.session.Close()
		r.logger.Info("idle session evicted",
			slog.String(logging.FieldProjectID, entry.session.ProjectID()))
	}
}

// CloseAll flushes and drops every session. Called on daemon shutdown so a
// restart recovers each session from its draft.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := make([]*registryEntry, 0, len(r.sessions))
	for _, entry := range r.sessions {
		entries = append(entries, entry)
	}
	r.sessions = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, entry := range entries {
		entry.session.Close()
	}
}
