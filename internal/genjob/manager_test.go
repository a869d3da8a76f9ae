package genjob_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"lineup/internal/genjob"
	"lineup/internal/services"
	"lineup/internal/services/genbackend"
	"lineup/internal/testsupport"
)

// fakeBackend scripts backend behavior per job.
type fakeBackend struct {
	mu       sync.Mutex
	submits  int
	nextID   string
	statuses map[string][]genbackend.StatusResponse
	statusIx map[string]int
	statErr  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextID:   "job-1",
		statuses: make(map[string][]genbackend.StatusResponse),
		statusIx: make(map[string]int),
	}
}

func (f *fakeBackend) Submit(_ context.Context, kind string, payload json.RawMessage) (*genbackend.SubmitResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	return &genbackend.SubmitResponse{JobID: f.nextID, Status: "pending"}, nil
}

func (f *fakeBackend) Status(_ context.Context, jobID string) (*genbackend.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statErr != nil {
		return nil, f.statErr
	}
	seq, ok := f.statuses[jobID]
	if !ok {
		return nil, genbackend.ErrJobNotFound
	}
	ix := f.statusIx[jobID]
	if ix >= len(seq) {
		ix = len(seq) - 1
	} else {
		f.statusIx[jobID] = ix + 1
	}
	resp := seq[ix]
	return &resp, nil
}

func newManager(t *testing.T, backend genjob.Backend) *genjob.Manager {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobStore(t, cfg)
	return genjob.NewManager(store, backend, nil)
}

func TestSubmitIsSingleFlight(t *testing.T) {
	backend := newFakeBackend()
	manager := newManager(t, backend)
	ctx := context.Background()

	first, err := manager.Submit(ctx, "p1", "post-suggestions", json.RawMessage(`{"topic":"launch"}`))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	second, err := manager.Submit(ctx, "p1", "post-suggestions", json.RawMessage(`{"topic":"other"}`))
	if err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected identical job IDs, got %q and %q", first.ID, second.ID)
	}
	if backend.submits != 1 {
		t.Fatalf("backend submits = %d, want 1", backend.submits)
	}
}

func TestSubmitAfterTerminalCreatesNewJob(t *testing.T) {
	backend := newFakeBackend()
	manager := newManager(t, backend)
	ctx := context.Background()

	job, err := manager.Submit(ctx, "p1", "post-suggestions", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	backend.statuses[job.ID] = []genbackend.StatusResponse{{Status: "completed", Result: json.RawMessage(`{"ok":true}`)}}
	if _, err := manager.Refresh(ctx, job.ID); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	backend.nextID = "job-2"
	next, err := manager.Submit(ctx, "p1", "post-suggestions", nil)
	if err != nil {
		t.Fatalf("Submit after completion failed: %v", err)
	}
	if next.ID == job.ID {
		t.Fatal("terminal job should not be reused")
	}
}

func TestGetStatusUnknownJob(t *testing.T) {
	manager := newManager(t, newFakeBackend())
	_, err := manager.GetStatus(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshPersistsObservedState(t *testing.T) {
	backend := newFakeBackend()
	manager := newManager(t, backend)
	ctx := context.Background()

	job, err := manager.Submit(ctx, "p1", "post-suggestions", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	backend.statuses[job.ID] = []genbackend.StatusResponse{
		{Status: "running"},
		{Status: "completed", Result: json.RawMessage(`{"captions":["a"]}`)},
	}

	refreshed, err := manager.Refresh(ctx, job.ID)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.Status != genjob.StatusRunning {
		t.Fatalf("status = %q, want running", refreshed.Status)
	}

	refreshed, err = manager.Refresh(ctx, job.ID)
	if err != nil {
		t.Fatalf("second Refresh failed: %v", err)
	}
	if refreshed.Status != genjob.StatusCompleted {
		t.Fatalf("status = %q, want completed", refreshed.Status)
	}
	if refreshed.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
	if len(refreshed.Result) == 0 {
		t.Fatal("expected result to be persisted")
	}

	// The persisted record reflects the observed state.
	stored, err := manager.GetStatus(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if stored.Status != genjob.StatusCompleted {
		t.Fatalf("stored status = %q, want completed", stored.Status)
	}
}

func TestRefreshTransportErrorIsTransient(t *testing.T) {
	backend := newFakeBackend()
	manager := newManager(t, backend)
	ctx := context.Background()

	job, err := manager.Submit(ctx, "p1", "post-suggestions", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	backend.statErr = errors.New("connection refused")

	_, err = manager.Refresh(ctx, job.ID)
	if !services.IsRetryable(err) {
		t.Fatalf("transport error should be transient, got %v", err)
	}

	// The stored job keeps its last known state.
	stored, err := manager.GetStatus(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if stored.Status != genjob.StatusPending {
		t.Fatalf("stored status = %q, want pending", stored.Status)
	}
}

func TestResumeIfPending(t *testing.T) {
	backend := newFakeBackend()
	manager := newManager(t, backend)
	ctx := context.Background()

	resumed, err := manager.ResumeIfPending(ctx, "p1", "post-suggestions")
	if err != nil {
		t.Fatalf("ResumeIfPending failed: %v", err)
	}
	if resumed != nil {
		t.Fatal("expected nil before any submission")
	}

	job, err := manager.Submit(ctx, "p1", "post-suggestions", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	resumed, err = manager.ResumeIfPending(ctx, "p1", "post-suggestions")
	if err != nil {
		t.Fatalf("ResumeIfPending failed: %v", err)
	}
	if resumed == nil || resumed.ID != job.ID {
		t.Fatalf("expected to resume job %q, got %#v", job.ID, resumed)
	}
}

func TestResumeIfPendingMatchesAnyKind(t *testing.T) {
	backend := newFakeBackend()
	manager := newManager(t, backend)
	ctx := context.Background()

	job, err := manager.Submit(ctx, "p1", "post-suggestions", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	resumed, err := manager.ResumeIfPending(ctx, "p1", "")
	if err != nil {
		t.Fatalf("ResumeIfPending failed: %v", err)
	}
	if resumed == nil || resumed.ID != job.ID {
		t.Fatalf("expected to resume job %q regardless of kind, got %#v", job.ID, resumed)
	}

	other, err := manager.ResumeIfPending(ctx, "p2", "")
	if err != nil {
		t.Fatalf("ResumeIfPending failed: %v", err)
	}
	if other != nil {
		t.Fatalf("unexpected job for another project: %#v", other)
	}
}

func TestRetryRequiresFailedJob(t *testing.T) {
	backend := newFakeBackend()
	manager := newManager(t, backend)
	ctx := context.Background()

	job, err := manager.Submit(ctx, "p1", "post-suggestions", json.RawMessage(`{"topic":"launch"}`))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := manager.Retry(ctx, job.ID); err == nil {
		t.Fatal("retrying a non-failed job should error")
	}

	backend.statuses[job.ID] = []genbackend.StatusResponse{{Status: "failed", Error: "model overloaded"}}
	if _, err := manager.Refresh(ctx, job.ID); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	backend.nextID = "job-2"
	fresh, err := manager.Retry(ctx, job.ID)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if fresh.ID == job.ID {
		t.Fatal("retry must create a new job, not resurrect the failed one")
	}
	if string(fresh.Payload) != `{"topic":"launch"}` {
		t.Fatalf("retry should reuse the original payload, got %s", fresh.Payload)
	}
}
