package tablestore_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booktrack/internal/productivity"
	"booktrack/internal/projects"
	"booktrack/internal/services"
	"booktrack/internal/services/tablestore"
	"booktrack/internal/testsupport"
)

func newClient(t *testing.T, handler http.Handler) (*tablestore.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithRemoteStore(server.URL, "secret-key"))
	client, err := tablestore.New(cfg, server.Client())
	if err != nil {
		t.Fatalf("tablestore.New: %v", err)
	}
	return client, server
}

func TestNewRequiresRemoteConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := tablestore.New(cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSelectLogsBuildsFilterQuery(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[
			{"project_id": 7, "person": "Israel", "date": "2024-03-04", "hours": 2.5, "category": "P"},
			{"project_id": 7, "person": "Israel", "date": "2024-03-05", "hours": 3, "note": "ch 4"}
		]`))
	}))

	entries, err := client.SelectLogs(context.Background(), projects.RoleEditor, tablestore.Filter{
		ProjectID: 7,
		From:      "2024-03-04",
		To:        "2024-03-10",
	})
	if err != nil {
		t.Fatalf("SelectLogs: %v", err)
	}
	if gotPath != "/productivity_logs" {
		t.Fatalf("path = %q, want /productivity_logs", gotPath)
	}
	for _, fragment := range []string{"project_id=eq.7", "date=gte.2024-03-04", "date=lte.2024-03-10"} {
		if !strings.Contains(gotQuery, fragment) {
			t.Fatalf("query %q missing %q", gotQuery, fragment)
		}
	}
	if gotAuth != "Bearer secret-key" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if len(entries) != 2 {
		t.Fatalf("decoded %d entries, want 2", len(entries))
	}
	if entries[0].Category != productivity.CategoryPunch || entries[1].Note != "ch 4" {
		t.Fatalf("decoded entries = %+v", entries)
	}
}

func TestSelectLogsQCUsesQCTable(t *testing.T) {
	var gotPath string
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("[]"))
	}))

	if _, err := client.SelectLogs(context.Background(), projects.RoleQC, tablestore.Filter{}); err != nil {
		t.Fatalf("SelectLogs: %v", err)
	}
	if gotPath != "/qc_productivity_logs" {
		t.Fatalf("path = %q, want /qc_productivity_logs", gotPath)
	}
}

func TestUpsertLogSendsMergePrefer(t *testing.T) {
	var gotPrefer, gotConflict string
	var gotBody []map[string]any
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrefer = r.Header.Get("Prefer")
		gotConflict = r.URL.Query().Get("on_conflict")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))

	entry := productivity.Entry{ProjectID: 7, Person: "Lauraine", Date: "2024-03-06", Hours: 1.75, Note: "final pass"}
	if err := client.UpsertLog(context.Background(), projects.RoleQC, entry); err != nil {
		t.Fatalf("UpsertLog: %v", err)
	}
	if !strings.Contains(gotPrefer, "resolution=merge-duplicates") {
		t.Fatalf("prefer header = %q", gotPrefer)
	}
	if gotConflict != "project_id,person,date" {
		t.Fatalf("on_conflict = %q", gotConflict)
	}
	if len(gotBody) != 1 || gotBody[0]["person"] != "Lauraine" || gotBody[0]["hours"] != 1.75 {
		t.Fatalf("upsert body = %+v", gotBody)
	}
}

func TestDeleteLogsRefusesUnfiltered(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unfiltered delete reached the server")
	}))

	err := client.DeleteLogs(context.Background(), projects.RoleEditor, tablestore.Filter{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteLogTargetsNaturalKey(t *testing.T) {
	var gotMethod, gotQuery string
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))

	key := productivity.Key{ProjectID: 7, Person: "Israel", Date: "2024-03-04"}
	if err := client.DeleteLog(context.Background(), projects.RoleEditor, key); err != nil {
		t.Fatalf("DeleteLog: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Fatalf("method = %q, want DELETE", gotMethod)
	}
	for _, fragment := range []string{"project_id=eq.7", "person=eq.Israel", "date=gte.2024-03-04", "date=lte.2024-03-04"} {
		if !strings.Contains(gotQuery, fragment) {
			t.Fatalf("query %q missing %q", gotQuery, fragment)
		}
	}
}

func TestSelectProjectsDecodesRows(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects" {
			t.Errorf("path = %q, want /projects", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"id": 3, "title": "Iron Covenant", "status": "ongoing", "due_date": "2024-04-19", "editor": "Kendall", "estimated_run_time": 14},
			{"id": 4, "title": "Old Title", "status": "archived"}
		]`))
	}))

	list, err := client.SelectProjects(context.Background())
	if err != nil {
		t.Fatalf("SelectProjects: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("decoded %d projects, want 2", len(list))
	}
	if list[0].Title != "Iron Covenant" || list[0].EstimatedRunTime != 14 {
		t.Fatalf("first project = %+v", list[0])
	}
	if list[1].Status != projects.StatusArchived {
		t.Fatalf("second status = %s, want archived", list[1].Status)
	}
}

func TestUpdateProjectPatchesFields(t *testing.T) {
	var gotMethod, gotQuery string
	var gotFields map[string]any
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&gotFields)
		w.WriteHeader(http.StatusNoContent)
	}))

	err := client.UpdateProject(context.Background(), 3, map[string]any{"status": "done", "notes": "approved"})
	if err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Fatalf("method = %q, want PATCH", gotMethod)
	}
	if !strings.Contains(gotQuery, "id=eq.3") {
		t.Fatalf("query = %q, want id filter", gotQuery)
	}
	if gotFields["status"] != "done" || gotFields["notes"] != "approved" {
		t.Fatalf("patch body = %+v", gotFields)
	}
}

func TestServerErrorSurfaced(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "permission denied"}`, http.StatusForbidden)
	}))

	_, err := client.SelectLogs(context.Background(), projects.RoleEditor, tablestore.Filter{})
	if !errors.Is(err, services.ErrRemoteStore) {
		t.Fatalf("expected remote store error, got %v", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("error %q missing status code", err)
	}
}
