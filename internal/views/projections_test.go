package views_test

import (
	"testing"

	"booktrack/internal/personnel"
	"booktrack/internal/productivity"
	"booktrack/internal/projects"
	"booktrack/internal/views"
)

func TestSortByDueDateMissingLast(t *testing.T) {
	list := []*projects.Project{
		{ID: 1, Title: "Beta", DueDate: ""},
		{ID: 2, Title: "Gamma", DueDate: "2024-05-01"},
		{ID: 3, Title: "Alpha", DueDate: "2024-04-01"},
		{ID: 4, Title: "Delta", DueDate: "2024-04-01"},
	}
	sorted := views.SortByDueDate(list)
	wantOrder := []int64{3, 4, 2, 1}
	for i, want := range wantOrder {
		if sorted[i].ID != want {
			t.Fatalf("position %d = id %d, want %d", i, sorted[i].ID, want)
		}
	}
	if list[0].ID != 1 {
		t.Fatal("input slice was reordered")
	}
}

func TestForEditorForgivingMatch(t *testing.T) {
	roster := personnel.DefaultRoster()
	list := []*projects.Project{
		{ID: 1, Title: "One", Status: projects.StatusOngoing, Editor: "Israel", DueDate: "2024-04-10"},
		{ID: 2, Title: "Two", Status: projects.StatusOngoing, Editor: "Marcus", DueDate: "2024-04-05"},
		{ID: 3, Title: "Three", Status: projects.StatusDone, Editor: "Israel"},
		{ID: 4, Title: "Four", Status: projects.StatusOngoing, Editor: "Isra", DueDate: "2024-04-01"},
	}

	// A truncated query still finds the canonical editor, and a truncated
	// assignment still matches.
	mine := views.ForEditor(list, "Isr", roster)
	if len(mine) != 2 {
		t.Fatalf("matched %d projects, want 2", len(mine))
	}
	if mine[0].ID != 4 || mine[1].ID != 1 {
		t.Fatalf("projects out of due-date order: %d, %d", mine[0].ID, mine[1].ID)
	}
}

func TestForQCSkipsUnassigned(t *testing.T) {
	roster := personnel.DefaultRoster()
	list := []*projects.Project{
		{ID: 1, Title: "One", Status: projects.StatusOngoing, QC: "Lauraine"},
		{ID: 2, Title: "Two", Status: projects.StatusOngoing},
	}
	mine := views.ForQC(list, "Laurain", roster)
	if len(mine) != 1 || mine[0].ID != 1 {
		t.Fatalf("matched = %+v, want only project 1", mine)
	}
}

func TestBuildRowsPrefersAggregatedTotals(t *testing.T) {
	editors := personnel.DefaultRoster().Editors
	list := []*projects.Project{
		{ID: 1, Title: "AUDIBLE: The Hollow Season", EstimatedRunTime: 10, TotalEdited: 2},
		{ID: 2, Title: "Untagged Title", EstimatedRunTime: 6, TotalEdited: 4.5},
	}
	logs := []productivity.Entry{
		{ProjectID: 1, Person: "Israel", Date: "2024-03-04", Hours: 3},
		{ProjectID: 1, Person: "Israel", Date: "2024-03-05", Hours: 4.5},
	}

	rows := views.BuildRows(list, logs, editors)
	if rows[0].TotalEdited != 7.5 {
		t.Fatalf("aggregated total = %v, want 7.5", rows[0].TotalEdited)
	}
	if rows[0].Display != "2.50" {
		t.Fatalf("what's left display = %q, want 2.50", rows[0].Display)
	}
	if rows[0].Client != "AUDIBLE" {
		t.Fatalf("client = %q, want AUDIBLE", rows[0].Client)
	}
	// No logs for project 2, so the manual figure stands.
	if rows[1].TotalEdited != 4.5 {
		t.Fatalf("manual total = %v, want 4.5", rows[1].TotalEdited)
	}
	if rows[1].Display != "1.50" {
		t.Fatalf("what's left display = %q, want 1.50", rows[1].Display)
	}
}
