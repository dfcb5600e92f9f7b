package testsupport

import (
	"context"
	"testing"

	"sagelink/internal/config"
	"sagelink/internal/state"
)

// MustOpenStore opens a state.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *state.Store {
	t.Helper()

	store, err := state.Open(context.Background(), cfg.StatePath())
	if err != nil {
		t.Fatalf("state.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// ReopenStore closes store and opens the same database again, simulating the
// next run.
func ReopenStore(t testing.TB, cfg *config.Config, store *state.Store) *state.Store {
	t.Helper()

	if err := store.Close(); err != nil {
		t.Fatalf("store.Close: %v", err)
	}
	return MustOpenStore(t, cfg)
}
