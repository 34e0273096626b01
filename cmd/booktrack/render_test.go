package main

import (
	"strings"
	"testing"

	"booktrack/internal/ipc"
)

func TestRenderStatusLinePlain(t *testing.T) {
	line := renderStatusLine("Daemon", statusOK, "running", false)
	if !strings.Contains(line, "Daemon:") || !strings.Contains(line, "[OK] running") {
		t.Fatalf("unexpected status line %q", line)
	}
	if strings.Contains(line, ansiGreen) {
		t.Fatalf("plain line should carry no color codes: %q", line)
	}
}

func TestRenderProjectTable(t *testing.T) {
	out := renderProjectTable([]ipc.Project{
		{
			ID:             4,
			Client:         "AUDIBLE",
			Title:          "AUDIBLE: The Hollow Season",
			Status:         "ongoing",
			DueDate:        "2024-03-15",
			Editor:         "Israel",
			TotalEdited:    7.5,
			WhatsLeft:      "2.25",
			WhatsLeftShort: "2.25",
		},
	}, false)
	for _, want := range []string{"AUDIBLE: The Hollow Season", "2024-03-15", "7.50", "2.25"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderWeekTable(t *testing.T) {
	resp := ipc.WeekResponse{
		Start: "2024-03-04",
		Days:  []string{"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08"},
		Entries: []ipc.LogEntry{
			{Person: "Israel", Date: "2024-03-05", Hours: 3.5, Note: "ch 1-4"},
			{Person: "Israel", Date: "2024-03-09", Hours: 2},
		},
		PersonTotals: map[string]float64{"Israel": 5.5},
		WeekTotal:    5.5,
	}
	out := renderWeekTable(resp, false)
	if !strings.Contains(out, "3.50 *") {
		t.Fatalf("noted cell missing marker:\n%s", out)
	}
	// The Saturday entry shows up only in the totals column.
	if !strings.Contains(out, "5.50") {
		t.Fatalf("person total missing:\n%s", out)
	}
	if strings.Contains(out, "03-09") {
		t.Fatalf("weekend day should not be a column:\n%s", out)
	}
}

func TestFormatHours(t *testing.T) {
	if got := formatHours(0); got != "" {
		t.Fatalf("zero hours should render empty, got %q", got)
	}
	if got := formatHours(2.5); got != "2.50" {
		t.Fatalf("expected 2.50, got %q", got)
	}
}
