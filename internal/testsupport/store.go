package testsupport

import (
	"testing"

	"lineup/internal/config"
	"lineup/internal/draft"
	"lineup/internal/genjob"
)

// MustOpenDraftStore opens a draft store for tests and closes it on cleanup.
func MustOpenDraftStore(t testing.TB, cfg *config.Config) *draft.Store {
	t.Helper()
	store, err := draft.Open(cfg, nil)
	if err != nil {
		t.Fatalf("open draft store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenJobStore opens a generation job store for tests and closes it on
// cleanup.
func MustOpenJobStore(t testing.TB, cfg *config.Config) *genjob.Store {
	t.Helper()
	store, err := genjob.OpenStore(cfg)
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
