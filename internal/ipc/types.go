package ipc

// StartRequest triggers daemon startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/sync status information.
type StatusResponse struct {
	Running       bool           `json:"running"`
	RemoteEnabled bool           `json:"remote_enabled"`
	LastSync      string         `json:"last_sync"`
	LastError     string         `json:"last_error"`
	ProjectCounts map[string]int `json:"project_counts"`
	DBPath        string         `json:"db_path"`
	LockPath      string         `json:"lock_path"`
	APIAddress    string         `json:"api_address"`
}

// Project is the wire representation of one project row.
type Project struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Status           string  `json:"status"`
	Client           string  `json:"client"`
	DueDate          string  `json:"due_date"`
	Notes            string  `json:"notes"`
	Editor           string  `json:"editor"`
	Master           string  `json:"master"`
	QC               string  `json:"qc"`
	EstimatedRunTime float64 `json:"estimated_run_time"`
	TotalEdited      float64 `json:"total_edited"`
	WhatsLeft        string  `json:"whats_left"`
	WhatsLeftShort   string  `json:"whats_left_short"`
	OnHold           bool    `json:"on_hold"`
	NewEdit          bool    `json:"new_edit"`
}

// ProjectListRequest selects a dashboard view.
type ProjectListRequest struct {
	View     string   `json:"view"`
	Person   string   `json:"person"`
	Statuses []string `json:"statuses"`
}

// ProjectListResponse contains the projected rows.
type ProjectListResponse struct {
	Projects []Project `json:"projects"`
}

// ProjectUpdateRequest patches one project. Nil fields are untouched.
type ProjectUpdateRequest struct {
	ID               int64    `json:"id"`
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

// ProjectUpdateResponse returns the patched project.
type ProjectUpdateResponse struct {
	Project Project `json:"project"`
}

// WeekRequest fetches a project's log grid for one week.
type WeekRequest struct {
	ProjectID int64  `json:"project_id"`
	Role      string `json:"role"`
	Start     string `json:"start"`
}

// LogEntry is the wire representation of one log row.
type LogEntry struct {
	ProjectID int64   `json:"project_id"`
	Person    string  `json:"person"`
	Date      string  `json:"date"`
	Hours     float64 `json:"hours"`
	Note      string  `json:"note"`
	Category  string  `json:"category"`
}

// WeekResponse carries the grid for a displayed week. Staged lists cells
// still in the edit buffer, raw text preserved; RowTotals are the buffer
// row sums keyed by the name as typed.
type WeekResponse struct {
	Start        string             `json:"start"`
	Days         []string           `json:"days"`
	Entries      []LogEntry         `json:"entries"`
	Staged       []StagedCell       `json:"staged,omitempty"`
	PersonTotals map[string]float64 `json:"person_totals"`
	RowTotals    map[string]float64 `json:"row_totals,omitempty"`
	WeekTotal    float64            `json:"week_total"`
}

// StagedCell is a buffered edit not yet confirmed by the cache.
type StagedCell struct {
	Person   string `json:"person"`
	Date     string `json:"date"`
	RawHours string `json:"raw_hours"`
	Note     string `json:"note,omitempty"`
}

// LogSetRequest schedules a debounced log write. Hours is the raw cell text
// so the daemon applies the forgiving parse.
type LogSetRequest struct {
	ProjectID int64  `json:"project_id"`
	Role      string `json:"role"`
	Person    string `json:"person"`
	Date      string `json:"date"`
	Hours     string `json:"hours"`
	Note      string `json:"note"`
	Category  string `json:"category"`
}

// LogSetResponse acknowledges the queued write.
type LogSetResponse struct {
	Queued bool `json:"queued"`
}

// LogDeleteRequest schedules a debounced delete for one cell.
type LogDeleteRequest struct {
	ProjectID int64  `json:"project_id"`
	Role      string `json:"role"`
	Person    string `json:"person"`
	Date      string `json:"date"`
}

// LogDeleteResponse acknowledges the queued delete.
type LogDeleteResponse struct {
	Queued bool `json:"queued"`
}

// ReportRequest aggregates a period's logs.
type ReportRequest struct {
	Role   string `json:"role"`
	Period string `json:"period"`
	Start  string `json:"start"`
}

// ReportRow is one person's aggregated line.
type ReportRow struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
	Punch float64 `json:"punch"`
	Roll  float64 `json:"roll"`
}

// ReportResponse carries the aggregated period report.
type ReportResponse struct {
	From string      `json:"from"`
	To   string      `json:"to"`
	Rows []ReportRow `json:"rows"`
}

// SyncNowRequest asks for an immediate sync pass.
type SyncNowRequest struct{}

// SyncNowResponse acknowledges the request.
type SyncNowResponse struct {
	Requested bool `json:"requested"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
