package tablestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"booktrack/internal/config"
	"booktrack/internal/productivity"
	"booktrack/internal/projects"
	"booktrack/internal/services"
)

// HTTPDoer describes the HTTP client used by the table store client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

const defaultRequestTimeout = 15 * time.Second

// logConflictKey is the natural key the remote tables enforce.
const logConflictKey = "project_id,person,date"

// Client is a thin REST client for the remote row store.
type Client struct {
	baseURL       string
	apiKey        string
	projectsTable string
	logsTable     string
	qcLogsTable   string
	http          HTTPDoer
}

// New builds a client from configuration. An injected doer overrides the
// default HTTP client, which tests use to point at a local server.
func New(cfg *config.Config, doer HTTPDoer) (*Client, error) {
	if cfg == nil || !cfg.RemoteStore.Enabled() {
		return nil, services.Wrap(services.ErrConfiguration, "tablestore", "new", "remote store is not configured", nil)
	}
	if doer == nil {
		timeout := defaultRequestTimeout
		if cfg.RemoteStore.RequestTimeout > 0 {
			timeout = time.Duration(cfg.RemoteStore.RequestTimeout) * time.Second
		}
		doer = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:       strings.TrimRight(strings.TrimSpace(cfg.RemoteStore.BaseURL), "/"),
		apiKey:        strings.TrimSpace(cfg.RemoteStore.APIKey),
		projectsTable: cfg.RemoteStore.ProjectsTable,
		logsTable:     cfg.RemoteStore.LogsTable,
		qcLogsTable:   cfg.RemoteStore.QCLogsTable,
		http:          doer,
	}, nil
}

// Filter narrows a log select or delete. Zero fields are omitted from the
// request.
type Filter struct {
	ProjectID int64
	Person    string
	From      string // inclusive YYYY-MM-DD lower bound
	To        string // inclusive YYYY-MM-DD upper bound
}

func (f Filter) empty() bool {
	return f.ProjectID == 0 && f.Person == "" && f.From == "" && f.To == ""
}

func (f Filter) query() url.Values {
	values := url.Values{}
	if f.ProjectID != 0 {
		values.Set("project_id", "eq."+strconv.FormatInt(f.ProjectID, 10))
	}
	if f.Person != "" {
		values.Set("person", "eq."+f.Person)
	}
	if f.From != "" {
		values.Set("date", "gte."+f.From)
	}
	if f.To != "" {
		values.Add("date", "lte."+f.To)
	}
	return values
}

type remoteLog struct {
	ProjectID int64   `json:"project_id"`
	Person    string  `json:"person"`
	Date      string  `json:"date"`
	Hours     float64 `json:"hours"`
	Note      string  `json:"note,omitempty"`
	Category  string  `json:"category,omitempty"`
}

func (c *Client) table(role projects.Role) (string, error) {
	switch role {
	case projects.RoleEditor:
		return c.logsTable, nil
	case projects.RoleQC:
		return c.qcLogsTable, nil
	default:
		return "", services.Wrap(services.ErrValidation, "tablestore", "table", fmt.Sprintf("unknown role %q", role), nil)
	}
}

// SelectLogs fetches log rows for one role, narrowed by the filter.
func (c *Client) SelectLogs(ctx context.Context, role projects.Role, filter Filter) ([]productivity.Entry, error) {
	table, err := c.table(role)
	if err != nil {
		return nil, err
	}
	values := filter.query()
	values.Set("select", "project_id,person,date,hours,note,category")
	values.Set("order", "date.asc,person.asc")

	body, err := c.do(ctx, http.MethodGet, table, values, nil, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrRemoteStore, "tablestore", "select logs", table, err)
	}

	var rows []remoteLog
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, services.Wrap(services.ErrRemoteStore, "tablestore", "select logs", "decode response", err)
	}
	entries := make([]productivity.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, productivity.Entry{
			ProjectID: row.ProjectID,
			Person:    row.Person,
			Date:      row.Date,
			Hours:     row.Hours,
			Note:      row.Note,
			Category:  productivity.Category(row.Category),
		})
	}
	return entries, nil
}

// UpsertLog writes one log row, replacing any row with the same natural key.
func (c *Client) UpsertLog(ctx context.Context, role projects.Role, entry productivity.Entry) error {
	table, err := c.table(role)
	if err != nil {
		return err
	}
	payload, err := json.Marshal([]remoteLog{{
		ProjectID: entry.ProjectID,
		Person:    entry.Person,
		Date:      entry.Date,
		Hours:     entry.Hours,
		Note:      entry.Note,
		Category:  string(entry.Category),
	}})
	if err != nil {
		return services.Wrap(services.ErrRemoteStore, "tablestore", "upsert log", "encode row", err)
	}

	values := url.Values{}
	values.Set("on_conflict", logConflictKey)
	headers := map[string]string{
		"Prefer": "resolution=merge-duplicates,return=minimal",
	}
	if _, err := c.do(ctx, http.MethodPost, table, values, payload, headers); err != nil {
		return services.Wrap(services.ErrRemoteStore, "tablestore", "upsert log", table, err)
	}
	return nil
}

// DeleteLogs removes the rows matched by the filter. An empty filter is
// rejected rather than wiping the table.
func (c *Client) DeleteLogs(ctx context.Context, role projects.Role, filter Filter) error {
	table, err := c.table(role)
	if err != nil {
		return err
	}
	if filter.empty() {
		return services.Wrap(services.ErrValidation, "tablestore", "delete logs", "refusing unfiltered delete", nil)
	}
	if _, err := c.do(ctx, http.MethodDelete, table, filter.query(), nil, nil); err != nil {
		return services.Wrap(services.ErrRemoteStore, "tablestore", "delete logs", table, err)
	}
	return nil
}

// DeleteLog removes a single row by its natural key.
func (c *Client) DeleteLog(ctx context.Context, role projects.Role, key productivity.Key) error {
	return c.DeleteLogs(ctx, role, Filter{
		ProjectID: key.ProjectID,
		Person:    key.Person,
		From:      key.Date,
		To:        key.Date,
	})
}

type remoteProject struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Status           string  `json:"status"`
	DueDate          string  `json:"due_date,omitempty"`
	OriginalDueDate  string  `json:"original_due_date,omitempty"`
	Notes            string  `json:"notes,omitempty"`
	Editor           string  `json:"editor,omitempty"`
	Master           string  `json:"master,omitempty"`
	QC               string  `json:"qc,omitempty"`
	EstimatedRunTime float64 `json:"estimated_run_time,omitempty"`
	TotalEdited      float64 `json:"total_edited,omitempty"`
	RemainingRaw     float64 `json:"remaining_raw,omitempty"`
	OnHold           bool    `json:"on_hold,omitempty"`
	NewEdit          bool    `json:"new_edit,omitempty"`
}

// SelectProjects fetches the remote project list.
func (c *Client) SelectProjects(ctx context.Context) ([]*projects.Project, error) {
	values := url.Values{}
	values.Set("select", "*")
	values.Set("order", "due_date.asc.nullslast,title.asc")

	body, err := c.do(ctx, http.MethodGet, c.projectsTable, values, nil, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrRemoteStore, "tablestore", "select projects", c.projectsTable, err)
	}
	var rows []remoteProject
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, services.Wrap(services.ErrRemoteStore, "tablestore", "select projects", "decode response", err)
	}
	list := make([]*projects.Project, 0, len(rows))
	for _, row := range rows {
		status, ok := projects.ParseStatus(row.Status)
		if !ok {
			status = projects.StatusOngoing
		}
		list = append(list, &projects.Project{
			ID:               row.ID,
			Title:            row.Title,
			Status:           status,
			DueDate:          row.DueDate,
			OriginalDueDate:  row.OriginalDueDate,
			Notes:            row.Notes,
			Editor:           row.Editor,
			Master:           row.Master,
			QC:               row.QC,
			EstimatedRunTime: row.EstimatedRunTime,
			TotalEdited:      row.TotalEdited,
			RemainingRaw:     row.RemainingRaw,
			OnHold:           row.OnHold,
			NewEdit:          row.NewEdit,
		})
	}
	return list, nil
}

// UpdateProject patches the named fields on one remote project row.
func (c *Client) UpdateProject(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return services.Wrap(services.ErrRemoteStore, "tablestore", "update project", "encode fields", err)
	}
	values := url.Values{}
	values.Set("id", "eq."+strconv.FormatInt(id, 10))
	headers := map[string]string{"Prefer": "return=minimal"}
	if _, err := c.do(ctx, http.MethodPatch, c.projectsTable, values, payload, headers); err != nil {
		return services.Wrap(services.ErrRemoteStore, "tablestore", "update project", c.projectsTable, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, table string, values url.Values, payload []byte, headers map[string]string) ([]byte, error) {
	endpoint := c.baseURL + "/" + table
	if encoded := values.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		detail := strings.TrimSpace(string(data))
		if len(detail) > 200 {
			detail = detail[:200]
		}
		return nil, fmt.Errorf("%s %s returned %d: %s", method, table, resp.StatusCode, detail)
	}
	return data, nil
}
