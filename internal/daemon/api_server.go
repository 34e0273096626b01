package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"booktrack/internal/config"
	"booktrack/internal/logging"
	"booktrack/internal/productivity"
	"booktrack/internal/projects"
	"booktrack/internal/services"
	"booktrack/internal/views"
	"booktrack/internal/workweek"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	route := func(pattern string, handler http.HandlerFunc) {
		mux.HandleFunc(pattern, srv.withRequestID(authMiddleware(token, handler)))
	}
	route("/api/status", srv.handleStatus)
	route("/api/projects", srv.handleProjects)
	route("/api/projects/", srv.handleProject)
	route("/api/clients", srv.handleClients)
	route("/api/reports/productivity", srv.handleReport)
	route("/api/sync", srv.handleSync)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// withRequestID stamps each request with a correlation id, echoed in the
// response header for client-side tracing.
func (s *apiServer) withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next(w, r.WithContext(services.WithRequestID(r.Context(), requestID)))
	}
}

type statusResponse struct {
	Running       bool           `json:"running"`
	RemoteEnabled bool           `json:"remote_enabled"`
	LastSync      string         `json:"last_sync,omitempty"`
	LastError     string         `json:"last_error,omitempty"`
	ProjectCounts map[string]int `json:"project_counts"`
	DBPath        string         `json:"db_path"`
	APIAddress    string         `json:"api_address,omitempty"`
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := statusResponse{
		Running:       status.Running,
		RemoteEnabled: status.Sync.RemoteEnabled,
		LastError:     status.Sync.LastError,
		DBPath:        status.DBPath,
		APIAddress:    status.APIAddress,
		ProjectCounts: make(map[string]int, len(status.Sync.ProjectCounts)),
	}
	if !status.Sync.LastSync.IsZero() {
		payload.LastSync = status.Sync.LastSync.UTC().Format(time.RFC3339)
	}
	for statusName, count := range status.Sync.ProjectCounts {
		payload.ProjectCounts[string(statusName)] = count
	}
	s.writeJSON(w, http.StatusOK, payload)
}

type projectPayload struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Status           string  `json:"status"`
	Client           string  `json:"client,omitempty"`
	DueDate          string  `json:"due_date,omitempty"`
	OriginalDueDate  string  `json:"original_due_date,omitempty"`
	Notes            string  `json:"notes,omitempty"`
	Editor           string  `json:"editor,omitempty"`
	Master           string  `json:"master,omitempty"`
	QC               string  `json:"qc,omitempty"`
	EstimatedRunTime float64 `json:"estimated_run_time,omitempty"`
	TotalEdited      float64 `json:"total_edited"`
	RemainingRaw     float64 `json:"remaining_raw,omitempty"`
	WhatsLeft        string  `json:"whats_left,omitempty"`
	WhatsLeftShort   string  `json:"whats_left_short,omitempty"`
	OnHold           bool    `json:"on_hold,omitempty"`
	NewEdit          bool    `json:"new_edit,omitempty"`
}

func projectFromRow(row views.Row) projectPayload {
	p := row.Project
	return projectPayload{
		ID:               p.ID,
		Title:            p.Title,
		Status:           string(p.Status),
		Client:           row.Client,
		DueDate:          p.DueDate,
		OriginalDueDate:  p.OriginalDueDate,
		Notes:            p.Notes,
		Editor:           p.Editor,
		Master:           p.Master,
		QC:               p.QC,
		EstimatedRunTime: p.EstimatedRunTime,
		TotalEdited:      row.TotalEdited,
		RemainingRaw:     p.RemainingRaw,
		WhatsLeft:        row.Display,
		WhatsLeftShort:   row.Short,
		OnHold:           p.OnHold,
		NewEdit:          p.NewEdit,
	}
}

func (s *apiServer) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listProjects(w, r)
	case http.MethodPost:
		s.createProject(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listProjects(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	view := strings.TrimSpace(query.Get("view"))
	person := strings.TrimSpace(query.Get("person"))
	var statuses []projects.Status
	for _, value := range query["status"] {
		status, ok := projects.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, status)
	}

	rows, err := s.daemon.ProjectRows(r.Context(), view, person, statuses...)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload := make([]projectPayload, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, projectFromRow(row))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"projects": payload})
}

type projectPatchRequest struct {
	Title            *string  `json:"title"`
	Status           *string  `json:"status"`
	DueDate          *string  `json:"due_date"`
	Notes            *string  `json:"notes"`
	Editor           *string  `json:"editor"`
	Master           *string  `json:"master"`
	QC               *string  `json:"qc"`
	EstimatedRunTime *float64 `json:"estimated_run_time"`
	TotalEdited      *float64 `json:"total_edited"`
	RemainingRaw     *float64 `json:"remaining_raw"`
	OnHold           *bool    `json:"on_hold"`
	NewEdit          *bool    `json:"new_edit"`
}

func (s *apiServer) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		s.writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	project := &projects.Project{Title: strings.TrimSpace(*req.Title)}
	created, err := s.daemon.store.Create(r.Context(), project)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	patch := patchFromRequest(req)
	patch.Title = nil
	updated, err := s.daemon.UpdateProject(r.Context(), created.ID, patch)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, projectFromRow(views.Row{
		Project: updated,
		Client:  views.Classify(updated.Title),
	}))
}

func patchFromRequest(req projectPatchRequest) ProjectPatch {
	return ProjectPatch{
		Title:            req.Title,
		Status:           req.Status,
		DueDate:          req.DueDate,
		Notes:            req.Notes,
		Editor:           req.Editor,
		Master:           req.Master,
		QC:               req.QC,
		EstimatedRunTime: req.EstimatedRunTime,
		TotalEdited:      req.TotalEdited,
		RemainingRaw:     req.RemainingRaw,
		OnHold:           req.OnHold,
		NewEdit:          req.NewEdit,
	}
}

// handleProject routes /api/projects/{id}, /api/projects/{id}/week,
// /api/projects/{id}/logs/{person}, and
// /api/projects/{id}/logs/{person}/{date}.
func (s *apiServer) handleProject(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		s.writeError(w, http.StatusNotFound, "project not found")
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	switch {
	case len(parts) == 1:
		s.handleProjectItem(w, r, id)
	case len(parts) == 2 && parts[1] == "week":
		s.handleProjectWeek(w, r, id)
	case len(parts) == 3 && parts[1] == "logs":
		s.handleProjectWeekClear(w, r, id, parts[2])
	case len(parts) == 4 && parts[1] == "logs":
		s.handleProjectLog(w, r, id, parts[2], parts[3])
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *apiServer) handleProjectItem(w http.ResponseWriter, r *http.Request, id int64) {
	switch r.Method {
	case http.MethodGet:
		project, err := s.daemon.store.GetByID(r.Context(), id)
		if err != nil {
			s.writeProjectError(w, err)
			return
		}
		logs, err := s.daemon.store.Logs(r.Context(), projects.RoleEditor)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		rows := views.BuildRows([]*projects.Project{project}, logs, s.daemon.cfg.Personnel.Editors)
		breakdown, contributors, err := s.daemon.EditorBreakdown(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		payload := struct {
			projectPayload
			Breakdown    map[string]float64 `json:"breakdown,omitempty"`
			Contributors []string           `json:"contributors,omitempty"`
		}{
			projectPayload: projectFromRow(rows[0]),
			Breakdown:      breakdown,
			Contributors:   contributors,
		}
		s.writeJSON(w, http.StatusOK, payload)
	case http.MethodPatch:
		var req projectPatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		updated, err := s.daemon.UpdateProject(r.Context(), id, patchFromRequest(req))
		if err != nil {
			s.writeProjectError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, projectFromRow(views.Row{
			Project: updated,
			Client:  views.Classify(updated.Title),
		}))
	case http.MethodDelete:
		if err := s.daemon.store.Delete(r.Context(), id); err != nil {
			s.writeProjectError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type weekResponse struct {
	Start        string             `json:"start"`
	Days         []string           `json:"days"`
	Entries      []logPayload       `json:"entries"`
	Staged       []stagedPayload    `json:"staged,omitempty"`
	PersonTotals map[string]float64 `json:"person_totals"`
	RowTotals    map[string]float64 `json:"row_totals,omitempty"`
	WeekTotal    float64            `json:"week_total"`
}

type stagedPayload struct {
	Person   string `json:"person"`
	Date     string `json:"date"`
	RawHours string `json:"raw_hours"`
	Note     string `json:"note,omitempty"`
}

type logPayload struct {
	ProjectID int64   `json:"project_id"`
	Person    string  `json:"person"`
	Date      string  `json:"date"`
	Hours     float64 `json:"hours"`
	Note      string  `json:"note,omitempty"`
	Category  string  `json:"category,omitempty"`
}

func (s *apiServer) handleProjectWeek(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	role, err := parseRole(r.URL.Query().Get("role"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	grid, err := s.daemon.Week(r.Context(), id, role, r.URL.Query().Get("start"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload := weekResponse{
		Start:        grid.Start,
		Days:         grid.Days,
		PersonTotals: grid.PersonTotals,
		RowTotals:    grid.RowTotals,
		WeekTotal:    grid.WeekTotal,
		Entries:      make([]logPayload, 0, len(grid.Entries)),
	}
	for _, cell := range grid.Staged {
		payload.Staged = append(payload.Staged, stagedPayload{
			Person:   cell.Person,
			Date:     cell.Date,
			RawHours: cell.RawHours,
			Note:     cell.Note,
		})
	}
	for _, entry := range grid.Entries {
		payload.Entries = append(payload.Entries, logPayload{
			ProjectID: entry.ProjectID,
			Person:    entry.Person,
			Date:      entry.Date,
			Hours:     entry.Hours,
			Note:      entry.Note,
			Category:  string(entry.Category),
		})
	}
	s.writeJSON(w, http.StatusOK, payload)
}

type logWriteRequest struct {
	Hours    string `json:"hours"`
	Note     string `json:"note"`
	Category string `json:"category"`
}

// handleProjectWeekClear wipes one person's entries across the displayed
// weekdays of the week named by the start query parameter.
func (s *apiServer) handleProjectWeekClear(w http.ResponseWriter, r *http.Request, id int64, person string) {
	if r.Method != http.MethodDelete {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	role, err := parseRole(r.URL.Query().Get("role"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.daemon.ClearWeekLogs(role, id, person, r.URL.Query().Get("start")); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]any{"queued": true})
}

func (s *apiServer) handleProjectLog(w http.ResponseWriter, r *http.Request, id int64, person, date string) {
	role, err := parseRole(r.URL.Query().Get("role"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := workweek.ParseDate(date); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	key := productivity.Key{ProjectID: id, Person: person, Date: date}

	switch r.Method {
	case http.MethodPut:
		var req logWriteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.daemon.StageLog(role, id, person, date, req.Hours, req.Note, productivity.Category(req.Category)); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusAccepted, map[string]any{"queued": true})
	case http.MethodDelete:
		s.daemon.StageLogDelete(role, key)
		s.writeJSON(w, http.StatusAccepted, map[string]any{"queued": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleClients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	groups, err := s.daemon.ClientGroups(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	type clientGroup struct {
		Client   string           `json:"client"`
		Projects []projectPayload `json:"projects"`
	}
	payload := make([]clientGroup, 0, len(groups))
	for _, group := range groups {
		out := clientGroup{Client: group.Client}
		for _, project := range group.Projects {
			out.Projects = append(out.Projects, projectFromRow(views.Row{
				Project: project,
				Client:  group.Client,
			}))
		}
		payload = append(payload, out)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"clients": payload})
}

func (s *apiServer) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	role, err := parseRole(query.Get("role"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summaries, from, to, err := s.daemon.Report(r.Context(), role, query.Get("period"), query.Get("start"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	type reportRow struct {
		Name  string  `json:"name"`
		Total float64 `json:"total"`
		Punch float64 `json:"punch,omitempty"`
		Roll  float64 `json:"roll,omitempty"`
	}
	rows := make([]reportRow, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, reportRow{
			Name:  summary.Name,
			Total: summary.Total,
			Punch: summary.Punch,
			Roll:  summary.Roll,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"from": from, "to": to, "rows": rows})
}

func (s *apiServer) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.daemon.SyncNow()
	s.writeJSON(w, http.StatusAccepted, map[string]any{"requested": true})
}

func parseRole(value string) (projects.Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "editor":
		return projects.RoleEditor, nil
	case "qc":
		return projects.RoleQC, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

func (s *apiServer) writeProjectError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, projects.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, projects.ErrIllegalTransition):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.NewNop()
}
