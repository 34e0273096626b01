package projects_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"booktrack/internal/projects"
	"booktrack/internal/testsupport"
)

func TestSnapshotWrittenOnMutation(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSnapshot(""))
	store := testsupport.MustOpenStore(t, cfg)

	testsupport.NewProject(t, store, "Hollow Season")

	data, err := os.ReadFile(cfg.SnapshotPath())
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var decoded struct {
		Projects []struct {
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"projects"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("parse snapshot: %v", err)
	}
	if len(decoded.Projects) != 1 || decoded.Projects[0].Title != "Hollow Season" {
		t.Fatalf("snapshot contents = %+v", decoded.Projects)
	}
	if decoded.Projects[0].Status != "ongoing" {
		t.Fatalf("snapshot status = %q, want ongoing", decoded.Projects[0].Status)
	}
}

func TestSeedIfEmptyRestoresFromSnapshot(t *testing.T) {
	snapshot := `{
		"saved_at": "2024-03-01T00:00:00Z",
		"projects": [
			{"title": "Restored Title", "status": "done", "editor": "Marcus", "estimated_run_time": 7.5}
		]
	}`
	path := filepath.Join(t.TempDir(), "projects.json")
	testsupport.WriteFile(t, path, snapshot)

	cfg := testsupport.NewConfig(t, testsupport.WithSnapshot(path))
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	source, err := store.SeedIfEmpty(ctx)
	if err != nil {
		t.Fatalf("SeedIfEmpty: %v", err)
	}
	if source != "snapshot" {
		t.Fatalf("seed source = %q, want snapshot", source)
	}
	listed, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 || listed[0].Title != "Restored Title" || listed[0].Status != projects.StatusDone {
		t.Fatalf("restored projects = %+v", listed)
	}
}

func TestSeedIfEmptyFallsBackOnCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	testsupport.WriteFile(t, path, "{not json")

	cfg := testsupport.NewConfig(t, testsupport.WithSnapshot(path))
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	source, err := store.SeedIfEmpty(ctx)
	if source != "seed" {
		t.Fatalf("seed source = %q, want seed", source)
	}
	if err == nil {
		t.Fatal("expected error noting the unreadable snapshot")
	}
	listed, listErr := store.List(ctx)
	if listErr != nil {
		t.Fatalf("List: %v", listErr)
	}
	if len(listed) == 0 {
		t.Fatal("starter seed produced no projects")
	}
}

func TestSeedIfEmptySkipsPopulatedStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewProject(t, store, "Existing")
	source, err := store.SeedIfEmpty(ctx)
	if err != nil {
		t.Fatalf("SeedIfEmpty: %v", err)
	}
	if source != "" {
		t.Fatalf("seed source = %q, want empty for populated store", source)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	original, err := store.Create(ctx, &projects.Project{
		Title:   "Iron Covenant",
		DueDate: "2024-04-19",
		Notes:   "awaiting pickups",
		OnHold:  true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	path := filepath.Join(t.TempDir(), "export.json")
	if err := store.ExportSnapshot(ctx, path); err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}

	other := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	imported, err := other.ImportSnapshot(ctx, path)
	if err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	if imported != 1 {
		t.Fatalf("imported %d projects, want 1", imported)
	}
	listed, err := other.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed %d projects, want 1", len(listed))
	}
	got := listed[0]
	if got.Title != original.Title || got.DueDate != original.DueDate || got.Notes != original.Notes || !got.OnHold {
		t.Fatalf("imported project = %+v, want fields from %+v", got, original)
	}
}
