package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"booktrack/internal/config"
	"booktrack/internal/daemon"
	"booktrack/internal/logging"
	"booktrack/internal/productivity"
	"booktrack/internal/projects"
	"booktrack/internal/testsupport"
	"booktrack/internal/workflow"
)

func newEntry(projectID int64, person, date string, hours float64) productivity.Entry {
	return productivity.Entry{ProjectID: projectID, Person: person, Date: date, Hours: hours}
}

func newTestDaemon(t *testing.T, mutate func(*config.Config)) (*daemon.Daemon, *projects.Store, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.DebounceMillis = 20
	if mutate != nil {
		mutate(cfg)
	}
	store := testsupport.MustOpenStore(t, cfg)
	manager := workflow.NewManager(cfg, store, nil, nil, logging.NewNop())
	d, err := daemon.New(cfg, store, logging.NewNop(), manager)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)

	address := d.Status(context.Background()).APIAddress
	if address == "" {
		t.Fatal("api server did not report an address")
	}
	return d, store, "http://" + address
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := workflow.NewManager(cfg, store, nil, nil, logging.NewNop())
	first, err := daemon.New(cfg, store, logging.NewNop(), manager)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	secondManager := workflow.NewManager(cfg, store, nil, nil, logging.NewNop())
	second, err := daemon.New(cfg, store, logging.NewNop(), secondManager)
	if err != nil {
		t.Fatalf("daemon.New second: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second daemon instance acquired the lock")
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, _, base := newTestDaemon(t, nil)

	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
	var payload struct {
		Running       bool `json:"running"`
		RemoteEnabled bool `json:"remote_enabled"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !payload.Running {
		t.Fatal("daemon should report running")
	}
	if payload.RemoteEnabled {
		t.Fatal("remote should be disabled in this config")
	}
}

func TestAPITokenRequired(t *testing.T) {
	_, _, base := newTestDaemon(t, func(cfg *config.Config) {
		cfg.Paths.APIToken = "hunter2"
	})

	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated request got %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, base+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer hunter2")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authorized GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authorized request got %d, want 200", resp.StatusCode)
	}
}

func TestProjectLifecycleOverAPI(t *testing.T) {
	_, store, base := newTestDaemon(t, nil)
	ctx := context.Background()
	project := testsupport.NewProject(t, store, "AUDIBLE: The Hollow Season")

	patch := func(body string) *http.Response {
		t.Helper()
		req, _ := http.NewRequest(http.MethodPatch,
			fmt.Sprintf("%s/api/projects/%d", base, project.ID),
			bytes.NewReader([]byte(body)))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("PATCH: %v", err)
		}
		return resp
	}

	// Illegal transition straight to archived.
	resp := patch(`{"status": "archived"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("illegal transition got %d, want 409", resp.StatusCode)
	}

	resp = patch(`{"status": "done", "notes": "approved"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("legal transition got %d", resp.StatusCode)
	}
	updated, err := store.GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Status != projects.StatusDone || updated.Notes != "approved" {
		t.Fatalf("project after patch = %+v", updated)
	}

	resp = patch(`{"due_date": "not-a-date"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad due date got %d, want 400", resp.StatusCode)
	}
}

func TestLogWriteOverAPIReachesCache(t *testing.T) {
	_, store, base := newTestDaemon(t, nil)
	ctx := context.Background()
	project := testsupport.NewProject(t, store, "PODIUM: Iron Covenant")

	url := fmt.Sprintf("%s/api/projects/%d/logs/Kendall/2024-03-05", base, project.ID)
	req, _ := http.NewRequest(http.MethodPut, url,
		bytes.NewReader([]byte(`{"hours": "2.5", "note": "ch 7"}`)))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT log: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("PUT log got %d, want 202", resp.StatusCode)
	}

	deadline := time.After(2 * time.Second)
	for {
		cached, err := store.ProjectLogs(ctx, projects.RoleEditor, project.ID)
		if err != nil {
			t.Fatalf("ProjectLogs: %v", err)
		}
		if len(cached) == 1 {
			if cached[0].Hours != 2.5 || cached[0].Note != "ch 7" {
				t.Fatalf("cached row = %+v", cached[0])
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("debounced write never reached the cache")
		case <-time.After(10 * time.Millisecond):
		}
	}

	req, _ = http.NewRequest(http.MethodPut, url,
		bytes.NewReader([]byte(`{"hours": "abc"}`)))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT bad hours: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad hours got %d, want 400", resp.StatusCode)
	}
}

func TestWeekMergesStagedEdits(t *testing.T) {
	// A long debounce keeps the write in the pipeline so the cell is
	// served from the edit buffer.
	d, store, _ := newTestDaemon(t, func(cfg *config.Config) {
		cfg.Workflow.DebounceMillis = 60000
	})
	ctx := context.Background()
	project := testsupport.NewProject(t, store, "HAY HOUSE: Morning Pages")

	if err := d.StageLog(projects.RoleEditor, project.ID, "Israel", "2024-03-06", "3.", "rough pass", ""); err != nil {
		t.Fatalf("StageLog: %v", err)
	}

	grid, err := d.Week(ctx, project.ID, projects.RoleEditor, "2024-03-06")
	if err != nil {
		t.Fatalf("Week: %v", err)
	}
	if len(grid.Staged) != 1 || grid.Staged[0].RawHours != "3." {
		t.Fatalf("staged cells = %+v", grid.Staged)
	}
	if len(grid.Entries) != 1 || grid.Entries[0].Hours != 3 || grid.Entries[0].Note != "rough pass" {
		t.Fatalf("entries = %+v", grid.Entries)
	}
	if grid.RowTotals["Israel"] != 3 || grid.WeekTotal != 3 {
		t.Fatalf("row totals = %+v, week total = %v", grid.RowTotals, grid.WeekTotal)
	}
	if grid.PersonTotals["Israel"] != 3 {
		t.Fatalf("person totals = %+v", grid.PersonTotals)
	}

	// Nothing has committed yet; the cell lives only in the buffer.
	cached, err := store.ProjectLogs(ctx, projects.RoleEditor, project.ID)
	if err != nil {
		t.Fatalf("ProjectLogs: %v", err)
	}
	if len(cached) != 0 {
		t.Fatalf("cache = %+v", cached)
	}
}

func TestWeekDrainsStagedAfterCommit(t *testing.T) {
	d, store, _ := newTestDaemon(t, nil)
	ctx := context.Background()
	project := testsupport.NewProject(t, store, "ONS: Short Stack")

	if err := d.StageLog(projects.RoleEditor, project.ID, "Israel", "2024-03-06", "2.5", "", ""); err != nil {
		t.Fatalf("StageLog: %v", err)
	}
	deadline := time.After(2 * time.Second)
	for {
		cached, err := store.ProjectLogs(ctx, projects.RoleEditor, project.ID)
		if err != nil {
			t.Fatalf("ProjectLogs: %v", err)
		}
		if len(cached) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("debounced write never reached the cache")
		case <-time.After(10 * time.Millisecond):
		}
	}

	grid, err := d.Week(ctx, project.ID, projects.RoleEditor, "2024-03-06")
	if err != nil {
		t.Fatalf("Week: %v", err)
	}
	if len(grid.Staged) != 0 {
		t.Fatalf("staged cells after commit = %+v", grid.Staged)
	}
	if grid.PersonTotals["Israel"] != 2.5 || grid.WeekTotal != 2.5 {
		t.Fatalf("totals = %+v / %v", grid.PersonTotals, grid.WeekTotal)
	}
}

func TestStageLogValidatesDate(t *testing.T) {
	d, store, _ := newTestDaemon(t, nil)
	project := testsupport.NewProject(t, store, "PODIUM: Iron Covenant")

	if err := d.StageLog(projects.RoleEditor, project.ID, "Israel", "03/06/2024", "2", "", ""); err == nil {
		t.Fatal("malformed date should be rejected")
	}
	if err := d.StageLog(projects.RoleEditor, project.ID, "Israel", "2024-03-06", "abc", "", ""); err == nil {
		t.Fatal("unparseable hour text should be rejected")
	}
}

func TestReportEndpoint(t *testing.T) {
	_, store, base := newTestDaemon(t, nil)
	ctx := context.Background()
	project := testsupport.NewProject(t, store, "PRH: Midnight Harvest")
	if err := store.UpsertLog(ctx, projects.RoleEditor, newEntry(project.ID, "Israel", "2024-03-05", 3.5)); err != nil {
		t.Fatalf("UpsertLog: %v", err)
	}

	resp, err := http.Get(base + "/api/reports/productivity?period=week&start=2024-03-05")
	if err != nil {
		t.Fatalf("GET report: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report got %d", resp.StatusCode)
	}
	var payload struct {
		From string `json:"from"`
		To   string `json:"to"`
		Rows []struct {
			Name  string  `json:"name"`
			Total float64 `json:"total"`
		} `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if payload.From != "2024-03-04" || payload.To != "2024-03-10" {
		t.Fatalf("window = %s..%s, want the Monday-start week", payload.From, payload.To)
	}
	var israel float64
	for _, row := range payload.Rows {
		if row.Name == "Israel" {
			israel = row.Total
		}
	}
	if israel != 3.5 {
		t.Fatalf("Israel total = %v, want 3.5", israel)
	}
}

func TestReportPeriodToday(t *testing.T) {
	d, store, _ := newTestDaemon(t, nil)
	ctx := context.Background()
	project := testsupport.NewProject(t, store, "CURATED Midnight Harvest")
	if err := store.UpsertLog(ctx, projects.RoleEditor, newEntry(project.ID, "Israel", "2024-03-06", 2)); err != nil {
		t.Fatalf("UpsertLog: %v", err)
	}

	rows, from, to, err := d.Report(ctx, projects.RoleEditor, "today", "2024-03-06")
	if err != nil {
		t.Fatalf("Report period=today: %v", err)
	}
	if from != "2024-03-06" || to != "2024-03-06" {
		t.Fatalf("window = %s..%s, want the single day", from, to)
	}
	var israel float64
	for _, row := range rows {
		if row.Name == "Israel" {
			israel = row.Total
		}
	}
	if israel != 2 {
		t.Fatalf("Israel total = %v, want 2", israel)
	}

	// The day alias stays accepted.
	if _, _, _, err := d.Report(ctx, projects.RoleEditor, "day", "2024-03-06"); err != nil {
		t.Fatalf("Report period=day: %v", err)
	}
}
