package daemon

import (
	"context"
	"testing"
	"time"

	"lineup/internal/content"
	"lineup/internal/platform"
	"lineup/internal/schedule"
	"lineup/internal/staging"
	"lineup/internal/testsupport"
	"lineup/internal/validate"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	deps := staging.Deps{
		Config:    cfg,
		Drafts:    testsupport.MustOpenDraftStore(t, cfg),
		Validator: validate.New(platform.DefaultTable()),
		Assistant: schedule.NewAssistant(nil),
	}
	return NewRegistry(deps, time.Minute, nil)
}

func TestRegistryOpenIsPerProject(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	first, err := registry.Open(ctx, "p1", 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	same, err := registry.Open(ctx, "p1", int(staging.StepReview))
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	if first != same {
		t.Fatal("reopening a project must return the live session")
	}
	// An already-open session keeps its position; the step request only
	// applies to fresh opens.
	if same.CurrentStep() != staging.StepPrepare {
		t.Fatalf("step = %v, want prepare", same.CurrentStep())
	}

	other, err := registry.Open(ctx, "p2", 0)
	if err != nil {
		t.Fatalf("Open p2 failed: %v", err)
	}
	if other == first {
		t.Fatal("projects must not share sessions")
	}
	if got := len(registry.List()); got != 2 {
		t.Fatalf("List returned %d sessions, want 2", got)
	}
}

func TestRegistrySweepEvictsIdleSessions(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	session, err := registry.Open(ctx, "p1", 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	item, err := content.NewItem(content.SourceSocialText, "note", "", nil)
	if err != nil {
		t.Fatalf("NewItem failed: %v", err)
	}
	if err := session.Intake([]*content.Item{item}); err != nil {
		t.Fatalf("Intake failed: %v", err)
	}

	registry.sweep(time.Now().Add(2 * time.Minute))
	if _, ok := registry.Get("p1"); ok {
		t.Fatal("idle session should be evicted")
	}

	// Eviction flushed the draft, so reopening resumes the working set.
	resumed, err := registry.Open(ctx, "p1", 0)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if len(resumed.Staged()) != 1 {
		t.Fatal("evicted session should be resumable from its draft")
	}
}

func TestRegistrySweepKeepsActiveSessions(t *testing.T) {
	registry := newTestRegistry(t)
	if _, err := registry.Open(context.Background(), "p1", 0); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	registry.sweep(time.Now())
	if _, ok := registry.Get("p1"); !ok {
		t.Fatal("recently used session should survive the sweep")
	}
}
