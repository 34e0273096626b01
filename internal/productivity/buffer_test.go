package productivity_test

import (
	"testing"

	"booktrack/internal/productivity"
)

func TestBufferReconcileRebuildsFromEntries(t *testing.T) {
	buf := productivity.NewBuffer()
	buf.SetHours("Israel", "2024-03-04", "9")

	entries := []productivity.Entry{
		{ProjectID: 1, Person: "Israel", Date: "2024-03-04", Hours: 3.25},
		{ProjectID: 1, Person: "Israel", Date: "2024-03-05", Hours: 2, Note: "pickups"},
	}
	if !buf.Reconcile(entries) {
		t.Fatal("expected reconcile to run")
	}

	cell, ok := buf.Cell("Israel", "2024-03-04")
	if !ok || cell.RawHours != "3.25" {
		t.Fatalf("cell after reconcile = %+v, ok=%v", cell, ok)
	}
	cell, _ = buf.Cell("Israel", "2024-03-05")
	if cell.Note != "pickups" {
		t.Fatalf("note lost in reconcile: %+v", cell)
	}
}

func TestBufferReconcileSkippedWhileFocused(t *testing.T) {
	buf := productivity.NewBuffer()
	buf.SetHours("Israel", "2024-03-04", "3.")
	buf.SetFocused(true)

	if buf.Reconcile([]productivity.Entry{{Person: "Israel", Date: "2024-03-04", Hours: 5}}) {
		t.Fatal("reconcile must be skipped while focused")
	}
	cell, _ := buf.Cell("Israel", "2024-03-04")
	if cell.RawHours != "3." {
		t.Fatalf("in-flight keystroke clobbered: %q", cell.RawHours)
	}

	buf.SetFocused(false)
	if !buf.Reconcile([]productivity.Entry{{Person: "Israel", Date: "2024-03-04", Hours: 5}}) {
		t.Fatal("reconcile should run after focus clears")
	}
	cell, _ = buf.Cell("Israel", "2024-03-04")
	if cell.RawHours != "5" {
		t.Fatalf("cell = %q, want 5", cell.RawHours)
	}
}

func TestBufferWritePolicy(t *testing.T) {
	cases := []struct {
		name       string
		hours      string
		note       string
		wantDelete bool
		wantHours  float64
	}{
		{"positive hours upserts", "3.25", "", false, 3.25},
		{"note alone upserts", "", "waiting on retakes", false, 0},
		{"zero and no note deletes", "0", "", true, 0},
		{"empty deletes", "", "", true, 0},
		{"lone decimal point deletes", ".", "", true, 0},
		{"junk text deletes", "n/a", "", true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := productivity.NewBuffer()
			buf.SetNote("QC", "2024-03-06", tc.note)
			w := buf.SetHours("QC", "2024-03-06", tc.hours)
			if w.Delete != tc.wantDelete {
				t.Fatalf("delete = %v, want %v (write %+v)", w.Delete, tc.wantDelete, w)
			}
			if !w.Delete && w.Hours != tc.wantHours {
				t.Fatalf("hours = %v, want %v", w.Hours, tc.wantHours)
			}
		})
	}
}

func TestBufferKeepsRawTextUntilReconcile(t *testing.T) {
	buf := productivity.NewBuffer()
	buf.SetHours("Israel", "2024-03-04", "2.x")
	cell, ok := buf.Cell("Israel", "2024-03-04")
	if !ok || cell.RawHours != "2.x" {
		t.Fatalf("raw text not preserved: %+v ok=%v", cell, ok)
	}
}

func TestBufferRowTotal(t *testing.T) {
	dates := []string{"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08"}
	buf := productivity.NewBuffer()
	buf.SetHours("Israel", dates[0], "2.5")
	buf.SetHours("Israel", dates[1], "3")
	buf.SetHours("Israel", dates[2], "junk")
	buf.SetHours("Israel", dates[3], ".")

	if got := buf.RowTotal("Israel", dates); got != 5.5 {
		t.Fatalf("RowTotal = %v, want 5.5", got)
	}
	if got := buf.RowTotal("Nobody", dates); got != 0 {
		t.Fatalf("RowTotal for absent person = %v", got)
	}
}

func TestBufferClearRow(t *testing.T) {
	buf := productivity.NewBuffer()
	buf.SetHours("Israel", "2024-03-04", "4")
	buf.SetHours("Joseph", "2024-03-04", "2")
	buf.ClearRow("Israel")

	if _, ok := buf.Cell("Israel", "2024-03-04"); ok {
		t.Fatal("cleared row still present")
	}
	if _, ok := buf.Cell("Joseph", "2024-03-04"); !ok {
		t.Fatal("unrelated row dropped")
	}
}
