package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"booktrack/internal/daemon"
	"booktrack/internal/logging"
	"booktrack/internal/productivity"
	"booktrack/internal/projects"
	"booktrack/internal/views"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Booktrack", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

func projectFromRow(row views.Row) Project {
	p := row.Project
	return Project{
		ID:               p.ID,
		Title:            p.Title,
		Status:           string(p.Status),
		Client:           row.Client,
		DueDate:          p.DueDate,
		Notes:            p.Notes,
		Editor:           p.Editor,
		Master:           p.Master,
		QC:               p.QC,
		EstimatedRunTime: p.EstimatedRunTime,
		TotalEdited:      row.TotalEdited,
		WhatsLeft:        row.Display,
		WhatsLeftShort:   row.Short,
		OnHold:           p.OnHold,
		NewEdit:          p.NewEdit,
	}
}

func parseRole(value string) (projects.Role, error) {
	switch value {
	case "", "editor":
		return projects.RoleEditor, nil
	case "qc":
		return projects.RoleQC, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.RemoteEnabled = status.Sync.RemoteEnabled
	resp.LastError = status.Sync.LastError
	resp.DBPath = status.DBPath
	resp.LockPath = status.LockFilePath
	resp.APIAddress = status.APIAddress
	if !status.Sync.LastSync.IsZero() {
		resp.LastSync = status.Sync.LastSync.UTC().Format(time.RFC3339)
	}
	resp.ProjectCounts = make(map[string]int, len(status.Sync.ProjectCounts))
	for name, count := range status.Sync.ProjectCounts {
		resp.ProjectCounts[string(name)] = count
	}
	return nil
}

func (s *service) ProjectList(req ProjectListRequest, resp *ProjectListResponse) error {
	statuses := make([]projects.Status, 0, len(req.Statuses))
	for _, value := range req.Statuses {
		status, ok := projects.ParseStatus(value)
		if !ok {
			return fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	rows, err := s.daemon.ProjectRows(s.ctx, req.View, req.Person, statuses...)
	if err != nil {
		return err
	}
	resp.Projects = make([]Project, 0, len(rows))
	for _, row := range rows {
		resp.Projects = append(resp.Projects, projectFromRow(row))
	}
	return nil
}

func (s *service) ProjectUpdate(req ProjectUpdateRequest, resp *ProjectUpdateResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid project id %d", req.ID)
	}
	updated, err := s.daemon.UpdateProject(s.ctx, req.ID, daemon.ProjectPatch{
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
	})
	if err != nil {
		return err
	}
	resp.Project = projectFromRow(views.Row{
		Project:     updated,
		Client:      views.Classify(updated.Title),
		TotalEdited: updated.TotalEdited,
	})
	return nil
}

func (s *service) Week(req WeekRequest, resp *WeekResponse) error {
	role, err := parseRole(req.Role)
	if err != nil {
		return err
	}
	grid, err := s.daemon.Week(s.ctx, req.ProjectID, role, req.Start)
	if err != nil {
		return err
	}
	resp.Start = grid.Start
	resp.Days = grid.Days
	resp.PersonTotals = grid.PersonTotals
	resp.RowTotals = grid.RowTotals
	resp.WeekTotal = grid.WeekTotal
	for _, cell := range grid.Staged {
		resp.Staged = append(resp.Staged, StagedCell{
			Person:   cell.Person,
			Date:     cell.Date,
			RawHours: cell.RawHours,
			Note:     cell.Note,
		})
	}
	resp.Entries = make([]LogEntry, 0, len(grid.Entries))
	for _, entry := range grid.Entries {
		resp.Entries = append(resp.Entries, LogEntry{
			ProjectID: entry.ProjectID,
			Person:    entry.Person,
			Date:      entry.Date,
			Hours:     entry.Hours,
			Note:      entry.Note,
			Category:  string(entry.Category),
		})
	}
	return nil
}

func (s *service) LogSet(req LogSetRequest, resp *LogSetResponse) error {
	role, err := parseRole(req.Role)
	if err != nil {
		return err
	}
	if err := s.daemon.StageLog(role, req.ProjectID, req.Person, req.Date, req.Hours, req.Note, productivity.Category(req.Category)); err != nil {
		return err
	}
	resp.Queued = true
	return nil
}

func (s *service) LogDelete(req LogDeleteRequest, resp *LogDeleteResponse) error {
	role, err := parseRole(req.Role)
	if err != nil {
		return err
	}
	s.daemon.StageLogDelete(role, productivity.Key{
		ProjectID: req.ProjectID,
		Person:    req.Person,
		Date:      req.Date,
	})
	resp.Queued = true
	return nil
}

func (s *service) Report(req ReportRequest, resp *ReportResponse) error {
	role, err := parseRole(req.Role)
	if err != nil {
		return err
	}
	summaries, from, to, err := s.daemon.Report(s.ctx, role, req.Period, req.Start)
	if err != nil {
		return err
	}
	resp.From = from
	resp.To = to
	resp.Rows = make([]ReportRow, 0, len(summaries))
	for _, summary := range summaries {
		resp.Rows = append(resp.Rows, ReportRow{
			Name:  summary.Name,
			Total: summary.Total,
			Punch: summary.Punch,
			Roll:  summary.Roll,
		})
	}
	return nil
}

func (s *service) SyncNow(_ SyncNowRequest, resp *SyncNowResponse) error {
	s.daemon.SyncNow()
	resp.Requested = true
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	if err != nil {
		return err
	}
	resp.Sent = sent
	resp.Message = message
	return nil
}
