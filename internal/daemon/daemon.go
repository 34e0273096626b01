package daemon

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"booktrack/internal/config"
	"booktrack/internal/logging"
	"booktrack/internal/notifications"
	"booktrack/internal/personnel"
	"booktrack/internal/productivity"
	"booktrack/internal/projects"
	"booktrack/internal/views"
	"booktrack/internal/workflow"
	"booktrack/internal/workweek"
)

// Daemon coordinates background syncing, the project store, and the HTTP
// API while enforcing single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *projects.Store
	manager *workflow.Manager
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	gridMu sync.Mutex
	grids  map[gridKey]*productivity.Buffer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Sync         workflow.StatusSummary
	DBPath       string
	LockFilePath string
	APIAddress   string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *projects.Store, logger *slog.Logger, manager *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || manager == nil {
		return nil, errors.New("daemon requires config, store, logger, and sync manager")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "booktrackd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		manager:  manager,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		grids:    make(map[gridKey]*productivity.Buffer),
	}
	api, err := newAPIServer(cfg, d, logging.WithComponent(logger, "api-server"))
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and launches the sync loop and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another booktrack daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if seeded, seedErr := d.store.SeedIfEmpty(runCtx); seedErr != nil {
		d.logger.Warn("initial seed incomplete", logging.Error(seedErr))
	} else if seeded != "" {
		d.logger.Info("store seeded", logging.String("source", seeded))
	}

	d.manager.SetAfterSync(d.reconcileGrids)
	if err := d.manager.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start sync manager: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		d.manager.Stop()
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("booktrack daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.manager.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("booktrack daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		Sync:         d.manager.Status(ctx),
		DBPath:       d.store.Path(),
		LockFilePath: d.lockPath,
	}
	if d.api != nil {
		status.APIAddress = d.api.address()
	}
	return status
}

// SyncNow asks the sync loop for an immediate pass.
func (d *Daemon) SyncNow() {
	d.manager.RequestSync()
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// View names accepted by ProjectRows.
const (
	ViewManager = "manager"
	ViewEditor  = "editor"
	ViewQC      = "qc"
)

// ProjectRows returns decorated projects for one dashboard view. The editor
// and QC views require a person and filter to their assignments.
func (d *Daemon) ProjectRows(ctx context.Context, view, person string, statuses ...projects.Status) ([]views.Row, error) {
	if len(statuses) == 0 && view != ViewManager {
		statuses = []projects.Status{projects.StatusOngoing}
	}
	list, err := d.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	roster := d.roster()
	switch view {
	case ViewManager, "":
		list = views.SortByDueDate(list)
	case ViewEditor:
		if strings.TrimSpace(person) == "" {
			return nil, errors.New("editor view requires a person")
		}
		list = views.ForEditor(list, person, roster)
	case ViewQC:
		if strings.TrimSpace(person) == "" {
			return nil, errors.New("qc view requires a person")
		}
		list = views.ForQC(list, person, roster)
	default:
		return nil, fmt.Errorf("unknown view %q", view)
	}

	logs, err := d.store.Logs(ctx, projects.RoleEditor)
	if err != nil {
		return nil, err
	}
	return views.BuildRows(list, logs, roster.Editors), nil
}

// ClientGroups returns ongoing projects bucketed by client label.
func (d *Daemon) ClientGroups(ctx context.Context) ([]views.ClientGroup, error) {
	list, err := d.store.List(ctx, projects.StatusOngoing)
	if err != nil {
		return nil, err
	}
	return views.GroupByClient(views.SortByDueDate(list)), nil
}

// ProjectPatch carries the mutable fields a PATCH can set. Nil pointers
// leave the stored value untouched.
type ProjectPatch struct {
	Title            *string
	Status           *string
	DueDate          *string
	Notes            *string
	Editor           *string
	Master           *string
	QC               *string
	EstimatedRunTime *float64
	TotalEdited      *float64
	RemainingRaw     *float64
	OnHold           *bool
	NewEdit          *bool
}

// UpdateProject applies a patch. Status changes go through the lifecycle
// machine and due dates must parse as canonical dates.
func (d *Daemon) UpdateProject(ctx context.Context, id int64, patch ProjectPatch) (*projects.Project, error) {
	project, err := d.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Status != nil {
		next, ok := projects.ParseStatus(*patch.Status)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", *patch.Status)
		}
		if next != project.Status {
			if err := projects.CheckTransition(project.Status, next); err != nil {
				return nil, err
			}
			project.Status = next
		}
	}
	if patch.DueDate != nil {
		due := strings.TrimSpace(*patch.DueDate)
		if due != "" {
			parsed, err := workweek.ParseDate(due)
			if err != nil {
				return nil, fmt.Errorf("invalid due date %q: %w", due, err)
			}
			due = workweek.FormatDate(parsed)
		}
		if project.OriginalDueDate == "" && project.DueDate != "" {
			project.OriginalDueDate = project.DueDate
		}
		project.DueDate = due
	}
	if patch.Title != nil {
		project.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Notes != nil {
		project.Notes = *patch.Notes
	}
	if patch.Editor != nil {
		project.Editor = strings.TrimSpace(*patch.Editor)
	}
	if patch.Master != nil {
		project.Master = strings.TrimSpace(*patch.Master)
	}
	if patch.QC != nil {
		project.QC = strings.TrimSpace(*patch.QC)
	}
	if patch.EstimatedRunTime != nil {
		project.EstimatedRunTime = *patch.EstimatedRunTime
	}
	if patch.TotalEdited != nil {
		project.TotalEdited = *patch.TotalEdited
	}
	if patch.RemainingRaw != nil {
		project.RemainingRaw = *patch.RemainingRaw
	}
	if patch.OnHold != nil {
		project.OnHold = *patch.OnHold
	}
	if patch.NewEdit != nil {
		project.NewEdit = *patch.NewEdit
	}

	if err := d.store.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// WeekGrid is one project's log window for a displayed week: Mon-Fri entry
// days, the cached entries for the full Mon-Sun window overlaid with any
// staged buffer cells, and per-person totals that include weekend
// spillover.
type WeekGrid struct {
	Start        string
	Days         []string
	Entries      []productivity.Entry
	Staged       []StagedCell
	PersonTotals map[string]float64
	RowTotals    map[string]float64
	WeekTotal    float64
}

// StagedCell is a buffered edit not yet confirmed by the cache, with the
// hour text exactly as it was typed.
type StagedCell struct {
	Person   string
	Date     string
	RawHours string
	Note     string
}

// Week builds the grid for the week containing the reference date. An empty
// reference uses the current week. The project's edit buffer is reconciled
// against the cache first, unless writes are still in the debounce
// pipeline, and staged cells override their cached rows.
func (d *Daemon) Week(ctx context.Context, projectID int64, role projects.Role, reference string) (WeekGrid, error) {
	anchor := time.Now()
	if strings.TrimSpace(reference) != "" {
		parsed, err := workweek.ParseDate(reference)
		if err != nil {
			return WeekGrid{}, fmt.Errorf("invalid week reference %q: %w", reference, err)
		}
		anchor = parsed
	}
	start := workweek.StartOfWeek(anchor)
	from, to := workweek.WeekWindow(anchor)

	cached, err := d.store.ProjectLogs(ctx, role, projectID)
	if err != nil {
		return WeekGrid{}, err
	}

	windowDates := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		windowDates = append(windowDates, workweek.FormatDate(start.AddDate(0, 0, i)))
	}

	d.gridMu.Lock()
	buf := d.grid(role, projectID)
	buf.SetFocused(d.manager.Writer(role).PendingForProject(projectID))
	buf.Reconcile(cached)
	staged := make(map[string]map[string]productivity.Cell)
	rowTotals := make(map[string]float64)
	for _, person := range buf.People() {
		for _, date := range windowDates {
			cell, ok := buf.Cell(person, date)
			if !ok {
				continue
			}
			if staged[person] == nil {
				staged[person] = make(map[string]productivity.Cell)
			}
			staged[person][date] = cell
		}
		if len(staged[person]) > 0 {
			rowTotals[person] = buf.RowTotal(person, windowDates)
		}
	}
	d.gridMu.Unlock()

	grid := WeekGrid{
		Start:        workweek.FormatDate(start),
		PersonTotals: make(map[string]float64),
		RowTotals:    rowTotals,
	}
	for _, day := range workweek.Days(start) {
		grid.Days = append(grid.Days, workweek.FormatDate(day))
	}

	for _, entry := range cached {
		if !workweek.InWindow(entry.Date, from, to) {
			continue
		}
		if cell, ok := staged[entry.Person][entry.Date]; ok {
			hours := productivity.CoerceHours(cell.RawHours)
			if hours != entry.Hours || cell.Note != entry.Note {
				grid.Staged = append(grid.Staged, StagedCell{
					Person:   entry.Person,
					Date:     entry.Date,
					RawHours: cell.RawHours,
					Note:     cell.Note,
				})
				entry.Hours = hours
				entry.Note = cell.Note
			}
			delete(staged[entry.Person], entry.Date)
		}
		grid.Entries = append(grid.Entries, entry)
	}

	// Staged cells with no cached row yet become entries of their own.
	people := make([]string, 0, len(staged))
	for person := range staged {
		people = append(people, person)
	}
	sort.Strings(people)
	for _, person := range people {
		for _, date := range windowDates {
			cell, ok := staged[person][date]
			if !ok {
				continue
			}
			grid.Staged = append(grid.Staged, StagedCell{
				Person:   person,
				Date:     date,
				RawHours: cell.RawHours,
				Note:     cell.Note,
			})
			grid.Entries = append(grid.Entries, productivity.Entry{
				ProjectID: projectID,
				Person:    person,
				Date:      date,
				Hours:     productivity.CoerceHours(cell.RawHours),
				Note:      cell.Note,
			})
		}
	}

	grid.WeekTotal = productivity.ProjectWindowTotal(grid.Entries, projectID, from, to)
	roster := d.rosterFor(role)
	for _, person := range productivity.Contributors(grid.Entries, projectID, roster) {
		grid.PersonTotals[person] = productivity.PersonWindowTotal(grid.Entries, person, roster, from, to)
	}
	return grid, nil
}

// EditorBreakdown returns per-editor credited hours and the contributor
// list for one project, drawn from the cached editor logs. The breakdown
// backs the per-editor tooltip on the project card.
func (d *Daemon) EditorBreakdown(ctx context.Context, projectID int64) (map[string]float64, []string, error) {
	logs, err := d.store.ProjectLogs(ctx, projects.RoleEditor, projectID)
	if err != nil {
		return nil, nil, err
	}
	editors := d.cfg.Personnel.Editors
	breakdown := productivity.ProjectBreakdown(logs, projectID, editors)
	return breakdown, productivity.Contributors(logs, projectID, editors), nil
}

func (d *Daemon) rosterFor(role projects.Role) []string {
	if role == projects.RoleQC {
		return d.cfg.Personnel.QC
	}
	return d.cfg.Personnel.Editors
}

// QueueLogDelete schedules a debounced delete for one cell.
func (d *Daemon) QueueLogDelete(role projects.Role, key productivity.Key) {
	d.manager.Writer(role).Queue(key.ProjectID, productivity.Write{
		Person: key.Person,
		Date:   key.Date,
		Delete: true,
	})
}

// ClearWeekLogs queues deletes for one person's displayed weekdays in the
// week containing the reference date. An empty reference uses the current
// week.
func (d *Daemon) ClearWeekLogs(role projects.Role, projectID int64, person, reference string) error {
	anchor := time.Now()
	if strings.TrimSpace(reference) != "" {
		parsed, err := workweek.ParseDate(reference)
		if err != nil {
			return fmt.Errorf("invalid week reference %q: %w", reference, err)
		}
		anchor = parsed
	}
	d.gridMu.Lock()
	d.grid(role, projectID).ClearRow(person)
	d.gridMu.Unlock()
	for _, day := range workweek.Days(workweek.StartOfWeek(anchor)) {
		d.QueueLogDelete(role, productivity.Key{
			ProjectID: projectID,
			Person:    person,
			Date:      workweek.FormatDate(day),
		})
	}
	return nil
}

// Report aggregates a period's logs into per-person summaries. Period is
// today, week, or month, with day accepted as an alias for today; an
// empty reference anchors on the current date.
func (d *Daemon) Report(ctx context.Context, role projects.Role, period, reference string) ([]productivity.PersonSummary, string, string, error) {
	anchor := time.Now()
	if strings.TrimSpace(reference) != "" {
		parsed, err := workweek.ParseDate(reference)
		if err != nil {
			return nil, "", "", fmt.Errorf("invalid report reference %q: %w", reference, err)
		}
		anchor = parsed
	}

	var from, to string
	switch period {
	case "today", "day":
		from = workweek.FormatDate(anchor)
		to = from
	case "week", "":
		from, to = workweek.WeekWindow(anchor)
	case "month":
		from, to = workweek.MonthWindow(anchor)
	default:
		return nil, "", "", fmt.Errorf("unknown report period %q", period)
	}

	logs, err := d.store.WindowLogs(ctx, role, from, to)
	if err != nil {
		return nil, "", "", err
	}
	return productivity.TeamSummary(logs, d.rosterFor(role), from, to), from, to, nil
}

func (d *Daemon) roster() personnel.Roster {
	return d.cfg.Roster()
}
