package ipc_test

import (
	"context"
	"testing"
	"time"

	"booktrack/internal/daemon"
	"booktrack/internal/ipc"
	"booktrack/internal/logging"
	"booktrack/internal/productivity"
	"booktrack/internal/projects"
	"booktrack/internal/testsupport"
	"booktrack/internal/workflow"
)

func productivityEntry(projectID int64, person, date string, hours float64) productivity.Entry {
	return productivity.Entry{ProjectID: projectID, Person: person, Date: date, Hours: hours}
}

func newTestClient(t *testing.T) (*ipc.Client, *projects.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.DebounceMillis = 20

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

	server, err := ipc.NewServer(context.Background(), cfg.Paths.SocketPath, d, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, store
}

func TestStatusOverSocket(t *testing.T) {
	client, _ := newTestClient(t)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running daemon")
	}
	if status.RemoteEnabled {
		t.Fatal("remote store should be disabled in tests")
	}
	if status.DBPath == "" || status.LockPath == "" {
		t.Fatalf("expected populated paths, got %+v", status)
	}
}

func TestProjectListAndUpdate(t *testing.T) {
	client, store := newTestClient(t)
	project := testsupport.NewProject(t, store, "AUDIBLE: The Long Reach")
	id := project.ID

	// The daemon seeds starter projects into an empty store, so look the
	// created one up by id rather than assuming list length.
	list, err := client.ProjectList(ipc.ProjectListRequest{View: "manager"})
	if err != nil {
		t.Fatalf("ProjectList: %v", err)
	}
	var found *ipc.Project
	for i := range list.Projects {
		if list.Projects[i].ID == id {
			found = &list.Projects[i]
		}
	}
	if found == nil {
		t.Fatalf("created project missing from list of %d", len(list.Projects))
	}
	if found.Client != "AUDIBLE" {
		t.Fatalf("unexpected client %q", found.Client)
	}

	due := "2024-03-15"
	editor := "Israel"
	updated, err := client.ProjectUpdate(ipc.ProjectUpdateRequest{
		ID:      id,
		DueDate: &due,
		Editor:  &editor,
	})
	if err != nil {
		t.Fatalf("ProjectUpdate: %v", err)
	}
	if updated.Project.DueDate != due {
		t.Fatalf("due date not applied: %+v", updated.Project)
	}

	status := "archived"
	if _, err := client.ProjectUpdate(ipc.ProjectUpdateRequest{ID: id, Status: &status}); err == nil {
		t.Fatal("expected ongoing to archived to be rejected")
	}
}

func TestLogSetReachesCache(t *testing.T) {
	client, store := newTestClient(t)
	project := testsupport.NewProject(t, store, "PRH: Quiet Rooms")
	id := project.ID

	resp, err := client.LogSet(ipc.LogSetRequest{
		ProjectID: id,
		Role:      "editor",
		Person:    "Israel",
		Date:      "2024-03-05",
		Hours:     "3.5",
	})
	if err != nil {
		t.Fatalf("LogSet: %v", err)
	}
	if !resp.Queued {
		t.Fatal("expected queued write")
	}
	if _, err := client.LogSet(ipc.LogSetRequest{
		ProjectID: id,
		Role:      "editor",
		Person:    "Israel",
		Date:      "2024-03-05",
		Hours:     "not hours",
	}); err == nil {
		t.Fatal("expected unparsable hours to be rejected")
	}
	if _, err := client.LogSet(ipc.LogSetRequest{
		ProjectID: id,
		Role:      "editor",
		Person:    "Israel",
		Date:      "03/05/2024",
		Hours:     "2",
	}); err == nil {
		t.Fatal("expected malformed date to be rejected")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		logs, err := store.ProjectLogs(context.Background(), projects.RoleEditor, id)
		if err != nil {
			t.Fatalf("ProjectLogs: %v", err)
		}
		if len(logs) == 1 && logs[0].Hours == 3.5 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("debounced write never landed, logs: %+v", logs)
		}
		time.Sleep(10 * time.Millisecond)
	}

	week, err := client.Week(ipc.WeekRequest{ProjectID: id, Role: "editor", Start: "2024-03-05"})
	if err != nil {
		t.Fatalf("Week: %v", err)
	}
	if week.Start != "2024-03-04" {
		t.Fatalf("expected Monday start, got %q", week.Start)
	}
	if week.WeekTotal != 3.5 {
		t.Fatalf("expected week total 3.5, got %v", week.WeekTotal)
	}

	if _, err := client.LogDelete(ipc.LogDeleteRequest{
		ProjectID: id,
		Role:      "editor",
		Person:    "Israel",
		Date:      "2024-03-05",
	}); err != nil {
		t.Fatalf("LogDelete: %v", err)
	}
	deadline = time.Now().Add(2 * time.Second)
	for {
		logs, err := store.ProjectLogs(context.Background(), projects.RoleEditor, id)
		if err != nil {
			t.Fatalf("ProjectLogs: %v", err)
		}
		if len(logs) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("debounced delete never landed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestReportOverSocket(t *testing.T) {
	client, store := newTestClient(t)
	project := testsupport.NewProject(t, store, "PODIUM: Night Signal")
	id := project.ID
	if err := store.UpsertLog(context.Background(), projects.RoleEditor, productivityEntry(id, "Israel", "2024-03-05", 2.0)); err != nil {
		t.Fatalf("UpsertLog: %v", err)
	}
	if err := store.UpsertLog(context.Background(), projects.RoleEditor, productivityEntry(id, "Israel", "2024-03-09", 1.5)); err != nil {
		t.Fatalf("UpsertLog: %v", err)
	}

	report, err := client.Report(ipc.ReportRequest{Role: "editor", Period: "week", Start: "2024-03-06"})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.From != "2024-03-04" || report.To != "2024-03-10" {
		t.Fatalf("unexpected window %s..%s", report.From, report.To)
	}
	var israel float64
	for _, row := range report.Rows {
		if row.Name == "Israel" {
			israel = row.Total
		}
	}
	if israel != 3.5 {
		t.Fatalf("expected 3.5 hours for Israel, got %v", israel)
	}
}
