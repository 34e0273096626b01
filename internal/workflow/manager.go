package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"booktrack/internal/config"
	"booktrack/internal/logging"
	"booktrack/internal/notifications"
	"booktrack/internal/productivity"
	"booktrack/internal/projects"
	"booktrack/internal/services/tablestore"
)

// RemoteSource is the slice of the table store client the manager needs.
type RemoteSource interface {
	SelectProjects(ctx context.Context) ([]*projects.Project, error)
	SelectLogs(ctx context.Context, role projects.Role, filter tablestore.Filter) ([]productivity.Entry, error)
	UpsertLog(ctx context.Context, role projects.Role, entry productivity.Entry) error
	DeleteLog(ctx context.Context, role projects.Role, key productivity.Key) error
}

// Manager runs the sync loop and owns the per-role debounced writers.
type Manager struct {
	cfg      *config.Config
	store    *projects.Store
	remote   RemoteSource
	notifier notifications.Service
	logger   *slog.Logger
	interval time.Duration

	editorWriter *productivity.Writer
	qcWriter     *productivity.Writer

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastSync  time.Time
	syncNow   chan struct{}
	afterSync func(context.Context)
}

// NewManager constructs a sync manager. A nil remote source leaves the
// daemon serving the local store and snapshot only.
func NewManager(cfg *config.Config, store *projects.Store, remote RemoteSource, notifier notifications.Service, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	m := &Manager{
		cfg:      cfg,
		store:    store,
		remote:   remote,
		notifier: notifier,
		logger:   logger,
		interval: time.Duration(cfg.Workflow.SyncInterval) * time.Second,
		syncNow:  make(chan struct{}, 1),
	}

	delay := time.Duration(cfg.Workflow.DebounceMillis) * time.Millisecond
	timeout := time.Duration(cfg.Workflow.WriteTimeout) * time.Second
	m.editorWriter = productivity.NewWriter(
		&roleLogStore{manager: m, role: projects.RoleEditor},
		delay, logger,
		productivity.WithWriteTimeout(timeout),
		productivity.WithErrorHandler(m.recordWriteError),
	)
	m.qcWriter = productivity.NewWriter(
		&roleLogStore{manager: m, role: projects.RoleQC},
		delay, logger,
		productivity.WithWriteTimeout(timeout),
		productivity.WithErrorHandler(m.recordWriteError),
	)
	return m
}

// Writer returns the debounced writer for a role.
func (m *Manager) Writer(role projects.Role) *productivity.Writer {
	if role == projects.RoleQC {
		return m.qcWriter
	}
	return m.editorWriter
}

// Start begins the background sync loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("sync manager already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates the sync loop and flushes pending writes so the last
// edit is never lost.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.editorWriter.Flush()
	m.qcWriter.Flush()
}

// SetAfterSync installs a callback invoked after each successful sync
// pass, before the completion notification. The daemon uses it to
// reconcile edit buffers against the freshly pulled cache.
func (m *Manager) SetAfterSync(fn func(context.Context)) {
	m.mu.Lock()
	m.afterSync = fn
	m.mu.Unlock()
}

// RequestSync nudges the loop to sync ahead of schedule. Non-blocking; a
// pending request is collapsed into one pass.
func (m *Manager) RequestSync() {
	select {
	case m.syncNow <- struct{}{}:
	default:
	}
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	if m.remote == nil {
		m.logger.Info("remote store not configured; sync loop idle")
		<-ctx.Done()
		return
	}

	m.syncPass(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.syncPass(ctx)
		case <-m.syncNow:
			m.syncPass(ctx)
		}
	}
}

func (m *Manager) syncPass(ctx context.Context) {
	projectCount, logRows, err := m.SyncOnce(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		m.logger.Error("sync failed", logging.Error(err))
		if notifyErr := m.notifier.NotifySyncFailed(ctx, err); notifyErr != nil {
			m.logger.Warn("sync failure notification failed", logging.Error(notifyErr))
		}
		return
	}
	m.mu.RLock()
	after := m.afterSync
	m.mu.RUnlock()
	if after != nil {
		after(ctx)
	}
	m.logger.Info("sync completed",
		logging.Int("projects", projectCount),
		logging.Int("log_rows", logRows),
	)
	if notifyErr := m.notifier.NotifySyncCompleted(ctx, projectCount, logRows); notifyErr != nil {
		m.logger.Warn("sync notification failed", logging.Error(notifyErr))
	}
}

// SyncOnce performs one full pull: remote projects merged into the local
// store, both log tables refreshed into the cache, and aggregation-driven
// project totals recomputed.
func (m *Manager) SyncOnce(ctx context.Context) (projectCount, logRows int, err error) {
	if m.remote == nil {
		return 0, 0, errors.New("remote store not configured")
	}

	remoteProjects, err := m.remote.SelectProjects(ctx)
	if err != nil {
		m.setLastErr(err)
		return 0, 0, err
	}
	if err := m.store.MergeRemote(ctx, remoteProjects); err != nil {
		m.setLastErr(err)
		return 0, 0, err
	}

	editorLogs, err := m.remote.SelectLogs(ctx, projects.RoleEditor, tablestore.Filter{})
	if err != nil {
		m.setLastErr(err)
		return 0, 0, err
	}
	if err := m.store.ReplaceLogs(ctx, projects.RoleEditor, editorLogs); err != nil {
		m.setLastErr(err)
		return 0, 0, err
	}

	qcLogs, err := m.remote.SelectLogs(ctx, projects.RoleQC, tablestore.Filter{})
	if err != nil {
		m.setLastErr(err)
		return 0, 0, err
	}
	if err := m.store.ReplaceLogs(ctx, projects.RoleQC, qcLogs); err != nil {
		m.setLastErr(err)
		return 0, 0, err
	}

	if err := m.recomputeTotals(ctx, editorLogs); err != nil {
		m.setLastErr(err)
		return 0, 0, err
	}

	m.mu.Lock()
	m.lastErr = nil
	m.lastSync = time.Now()
	m.mu.Unlock()
	return len(remoteProjects), len(editorLogs) + len(qcLogs), nil
}

// recomputeTotals folds the pulled editor logs into each project's total
// edited figure. Projects without logs keep their manual figure.
func (m *Manager) recomputeTotals(ctx context.Context, logs []productivity.Entry) error {
	list, err := m.store.List(ctx)
	if err != nil {
		return err
	}
	logged := make(map[int64]bool, len(list))
	for _, entry := range logs {
		logged[entry.ProjectID] = true
	}
	editors := m.cfg.Personnel.Editors
	for _, project := range list {
		if !logged[project.ID] {
			continue
		}
		total := productivity.TotalEdited(logs, project.ID, editors)
		if total == project.TotalEdited {
			continue
		}
		project.TotalEdited = total
		if err := m.store.Update(ctx, project); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) setLastErr(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) recordWriteError(err error) {
	m.setLastErr(err)
	if notifyErr := m.notifier.NotifyWriteFailed(context.Background(), "", "", err); notifyErr != nil {
		m.logger.Warn("write failure notification failed", logging.Error(notifyErr))
	}
}

// StatusSummary represents lightweight daemon diagnostics.
type StatusSummary struct {
	Running       bool
	RemoteEnabled bool
	LastError     string
	LastSync      time.Time
	ProjectCounts map[projects.Status]int
}

// Status returns the latest sync information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running:       m.running,
		RemoteEnabled: m.remote != nil,
		LastSync:      m.lastSync,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()

	counts, err := m.store.CountByStatus(ctx)
	if err != nil {
		m.logger.Warn("failed to read project counts", logging.Error(err))
	}
	summary.ProjectCounts = counts
	return summary
}
