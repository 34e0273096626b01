package testsupport

import (
	"context"
	"testing"

	"booktrack/internal/config"
	"booktrack/internal/projects"
)

// MustOpenStore opens a projects.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *projects.Store {
	t.Helper()

	store, err := projects.Open(cfg)
	if err != nil {
		t.Fatalf("projects.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewProject creates a project for tests using the provided store.
func NewProject(t testing.TB, store *projects.Store, title string) *projects.Project {
	t.Helper()

	project, err := store.Create(context.Background(), &projects.Project{Title: title})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return project
}
