package genjob_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"lineup/internal/genjob"
	"lineup/internal/services"
	"lineup/internal/services/genbackend"
)

func TestPollerWaitsForCompletion(t *testing.T) {
	backend := newFakeBackend()
	manager := newManager(t, backend)
	ctx := context.Background()

	job, err := manager.Submit(ctx, "p1", "post-suggestions", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	backend.statuses[job.ID] = []genbackend.StatusResponse{
		{Status: "running"},
		{Status: "running"},
		{Status: "completed", Result: json.RawMessage(`{"ok":true}`)},
	}

	poller := genjob.NewPoller(manager, 5*time.Millisecond, time.Second, nil)
	done, err := poller.Wait(ctx, job.ID)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if done.Status != genjob.StatusCompleted {
		t.Fatalf("status = %q, want completed", done.Status)
	}
}

func TestPollerToleratesTransientFailures(t *testing.T) {
	backend := newFakeBackend()
	manager := newManager(t, backend)
	ctx := context.Background()

	job, err := manager.Submit(ctx, "p1", "post-suggestions", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	backend.statErr = errors.New("connection refused")

	poller := genjob.NewPoller(manager, 5*time.Millisecond, time.Second, nil)

	// Clear the transport failure after a few ticks; the poller should
	// survive it and still observe completion.
	go func() {
		time.Sleep(30 * time.Millisecond)
		backend.mu.Lock()
		backend.statErr = nil
		backend.statuses[job.ID] = []genbackend.StatusResponse{{Status: "completed"}}
		backend.mu.Unlock()
	}()

	done, err := poller.Wait(ctx, job.ID)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if done.Status != genjob.StatusCompleted {
		t.Fatalf("status = %q, want completed", done.Status)
	}
}

func TestPollerTimeoutLeavesJobUntouched(t *testing.T) {
	backend := newFakeBackend()
	manager := newManager(t, backend)
	ctx := context.Background()

	job, err := manager.Submit(ctx, "p1", "post-suggestions", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	backend.statuses[job.ID] = []genbackend.StatusResponse{{Status: "running"}}

	poller := genjob.NewPoller(manager, 5*time.Millisecond, 30*time.Millisecond, nil)
	_, err = poller.Wait(ctx, job.ID)
	if !errors.Is(err, genjob.ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}

	// Timing out never invents a transition: the record stays running.
	stored, err := manager.GetStatus(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if stored.Status != genjob.StatusRunning {
		t.Fatalf("stored status = %q, want running", stored.Status)
	}
}

func TestPollerStopsOnNotFound(t *testing.T) {
	backend := newFakeBackend()
	manager := newManager(t, backend)
	ctx := context.Background()

	job, err := manager.Submit(ctx, "p1", "post-suggestions", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	// No scripted statuses: the backend answers not-found, which is
	// authoritative and must stop the loop immediately.
	poller := genjob.NewPoller(manager, 5*time.Millisecond, time.Second, nil)
	_, err = poller.Wait(ctx, job.ID)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPollerCancellation(t *testing.T) {
	backend := newFakeBackend()
	manager := newManager(t, backend)

	job, err := manager.Submit(context.Background(), "p1", "post-suggestions", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	backend.statuses[job.ID] = []genbackend.StatusResponse{{Status: "running"}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	poller := genjob.NewPoller(manager, 5*time.Millisecond, 0, nil)
	_, err = poller.Wait(ctx, job.ID)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
