package draft_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"lineup/internal/content"
	"lineup/internal/draft"
	"lineup/internal/testsupport"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenDraftStore(t, cfg)
	ctx := context.Background()

	item, err := content.NewItem(content.SourceClip, "Teaser", "", nil)
	if err != nil {
		t.Fatalf("NewItem failed: %v", err)
	}
	d := &draft.Draft{
		ProjectID:   "p1",
		CurrentStep: 3,
		Staged:      []*content.Item{item},
	}
	if err := store.Save(ctx, d); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected draft to load")
	}
	if loaded.CurrentStep != 3 || loaded.Version != draft.CurrentVersion {
		t.Fatalf("unexpected draft: %#v", loaded)
	}
	if len(loaded.Staged) != 1 || loaded.Staged[0].ID != item.ID {
		t.Fatalf("staged items did not round-trip: %#v", loaded.Staged)
	}
}

func TestSaveOverwritesPriorRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenDraftStore(t, cfg)
	ctx := context.Background()

	if err := store.Save(ctx, &draft.Draft{ProjectID: "p1", CurrentStep: 2}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, &draft.Draft{ProjectID: "p1", CurrentStep: 4}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.CurrentStep != 4 {
		t.Fatalf("expected latest record, got step %d", loaded.CurrentStep)
	}

	projects, err := store.Projects(ctx)
	if err != nil {
		t.Fatalf("Projects failed: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected single draft per project, got %v", projects)
	}
}

func TestLoadAbsentReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenDraftStore(t, cfg)

	loaded, err := store.Load(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected nil for absent draft, got %#v", loaded)
	}
}

func TestLoadCorruptRecordTreatedAsAbsent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenDraftStore(t, cfg)
	ctx := context.Background()

	// Write garbage straight into the table past the store API.
	db, err := sql.Open("sqlite", filepath.Join(cfg.Paths.DataDir, "drafts.db"))
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	_, err = db.ExecContext(ctx,
		`INSERT INTO drafts (project_id, version, saved_at, payload) VALUES (?, ?, ?, ?)`,
		"p1", 2, time.Now().UTC().Format(time.RFC3339Nano), "{not json")
	if err != nil {
		t.Fatalf("insert corrupt record: %v", err)
	}

	loaded, err := store.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("Load should not fail on corrupt data: %v", err)
	}
	if loaded != nil {
		t.Fatalf("corrupt record should be treated as absent, got %#v", loaded)
	}
}

func TestClearRemovesRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenDraftStore(t, cfg)
	ctx := context.Background()

	if err := store.Save(ctx, &draft.Draft{ProjectID: "p1", CurrentStep: 2}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Clear(ctx, "p1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	loaded, err := store.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != nil {
		t.Fatal("draft should be gone after Clear")
	}
}

func TestLoadMigratesLegacyRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenDraftStore(t, cfg)
	ctx := context.Background()

	db, err := sql.Open("sqlite", filepath.Join(cfg.Paths.DataDir, "drafts.db"))
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	payload := `{"projectId":"p1","currentStep":1,"version":1}`
	_, err = db.ExecContext(ctx,
		`INSERT INTO drafts (project_id, version, saved_at, payload) VALUES (?, ?, ?, ?)`,
		"p1", 1, time.Now().UTC().Format(time.RFC3339Nano), payload)
	if err != nil {
		t.Fatalf("insert legacy record: %v", err)
	}

	loaded, err := store.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected legacy draft to load")
	}
	if loaded.CurrentStep != 3 {
		t.Fatalf("legacy step 1 should migrate to 3, got %d", loaded.CurrentStep)
	}
	if loaded.Version != draft.CurrentVersion {
		t.Fatalf("migrated version = %d, want %d", loaded.Version, draft.CurrentVersion)
	}
}
