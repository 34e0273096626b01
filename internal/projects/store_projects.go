package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a project id does not exist.
var ErrNotFound = errors.New("project not found")

const projectColumns = `id, title, status, due_date, original_due_date, notes,
	editor, master, qc, estimated_run_time, total_edited, remaining_raw,
	on_hold, new_edit, created_at, updated_at`

// Create inserts a new project and returns it with its assigned id.
func (s *Store) Create(ctx context.Context, project *Project) (*Project, error) {
	if project == nil {
		return nil, errors.New("nil project")
	}
	if strings.TrimSpace(project.Title) == "" {
		return nil, errors.New("project title is required")
	}
	if project.Status == "" {
		project.Status = StatusOngoing
	}
	if _, ok := statusSet[project.Status]; !ok {
		return nil, fmt.Errorf("unknown status %q", project.Status)
	}
	if project.HasDueDate() && project.OriginalDueDate == "" {
		project.OriginalDueDate = project.DueDate
	}

	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	res, err := s.execWithRetry(ctx, `
		INSERT INTO projects (title, status, due_date, original_due_date, notes,
			editor, master, qc, estimated_run_time, total_edited, remaining_raw,
			on_hold, new_edit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.Title, string(project.Status), project.DueDate, project.OriginalDueDate,
		project.Notes, project.Editor, project.Master, project.QC,
		project.EstimatedRunTime, project.TotalEdited, project.RemainingRaw,
		boolToInt(project.OnHold), boolToInt(project.NewEdit),
		timestamp(project.CreatedAt), timestamp(project.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("project insert id: %w", err)
	}
	project.ID = id
	s.writeSnapshot(ctx)
	return project, nil
}

// GetByID retrieves a project by its id.
func (s *Store) GetByID(ctx context.Context, id int64) (*Project, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return project, nil
}

// List returns projects filtered by status, ordered with missing due dates
// last. Without statuses every project is returned.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Project, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + projectColumns + " FROM projects"
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += " WHERE status IN (" + makePlaceholders(len(statuses)) + ")"
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += ` ORDER BY
		CASE WHEN due_date IS NULL OR due_date = '' THEN 1 ELSE 0 END,
		due_date, title`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*Project
	for rows.Next() {
		project, scanErr := scanProject(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan project: %w", scanErr)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// Update persists every mutable field of the project.
func (s *Store) Update(ctx context.Context, project *Project) error {
	if project == nil || project.ID == 0 {
		return errors.New("project with id is required")
	}
	if _, ok := statusSet[project.Status]; !ok {
		return fmt.Errorf("unknown status %q", project.Status)
	}
	if project.HasDueDate() && project.OriginalDueDate == "" {
		project.OriginalDueDate = project.DueDate
	}
	project.UpdatedAt = time.Now()

	res, err := s.execWithRetry(ctx, `
		UPDATE projects SET title = ?, status = ?, due_date = ?,
			original_due_date = ?, notes = ?, editor = ?, master = ?, qc = ?,
			estimated_run_time = ?, total_edited = ?, remaining_raw = ?,
			on_hold = ?, new_edit = ?, updated_at = ?
		WHERE id = ?`,
		project.Title, string(project.Status), project.DueDate,
		project.OriginalDueDate, project.Notes, project.Editor, project.Master,
		project.QC, project.EstimatedRunTime, project.TotalEdited,
		project.RemainingRaw, boolToInt(project.OnHold), boolToInt(project.NewEdit),
		timestamp(project.UpdatedAt), project.ID)
	if err != nil {
		return fmt.Errorf("update project %d: %w", project.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project %d: %w", project.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, project.ID)
	}
	s.writeSnapshot(ctx)
	return nil
}

// Transition moves a project to a new lifecycle status, enforcing the
// legal cycle.
func (s *Store) Transition(ctx context.Context, id int64, to Status) (*Project, error) {
	project, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckTransition(project.Status, to); err != nil {
		return nil, err
	}
	project.Status = to
	if err := s.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes a project and its cached logs.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if _, err := s.execWithRetry(ctx, "DELETE FROM log_cache WHERE project_id = ?", id); err != nil {
		return fmt.Errorf("delete cached logs for project %d: %w", id, err)
	}
	s.writeSnapshot(ctx)
	return nil
}

// MergeRemote upserts remote project rows by their remote id, keeping
// locally created projects that the remote does not know about.
func (s *Store) MergeRemote(ctx context.Context, remote []*Project) error {
	ctx = ensureContext(ctx)
	now := timestamp(time.Now())
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin merge tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		for _, project := range remote {
			if project == nil || project.ID == 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO projects (id, title, status, due_date, original_due_date,
					notes, editor, master, qc, estimated_run_time, total_edited,
					remaining_raw, on_hold, new_edit, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					title = excluded.title, status = excluded.status,
					due_date = excluded.due_date,
					original_due_date = excluded.original_due_date,
					notes = excluded.notes, editor = excluded.editor,
					master = excluded.master, qc = excluded.qc,
					estimated_run_time = excluded.estimated_run_time,
					total_edited = excluded.total_edited,
					remaining_raw = excluded.remaining_raw,
					on_hold = excluded.on_hold, new_edit = excluded.new_edit,
					updated_at = excluded.updated_at`,
				project.ID, project.Title, string(project.Status), project.DueDate,
				project.OriginalDueDate, project.Notes, project.Editor,
				project.Master, project.QC, project.EstimatedRunTime,
				project.TotalEdited, project.RemainingRaw,
				boolToInt(project.OnHold), boolToInt(project.NewEdit), now, now); err != nil {
				return fmt.Errorf("merge project %d: %w", project.ID, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit merge: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.writeSnapshot(ctx)
	return nil
}

// CountByStatus returns how many projects sit in each lifecycle status.
func (s *Store) CountByStatus(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(1) FROM projects GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[Status]int, len(allStatuses))
	for rows.Next() {
		var (
			status string
			count  int
		)
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("scan status count: %w", scanErr)
		}
		counts[Status(status)] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var (
		project   Project
		status    string
		dueDate   sql.NullString
		origDue   sql.NullString
		onHold    int
		newEdit   int
		createdAt string
		updatedAt string
	)
	err := row.Scan(&project.ID, &project.Title, &status, &dueDate, &origDue,
		&project.Notes, &project.Editor, &project.Master, &project.QC,
		&project.EstimatedRunTime, &project.TotalEdited, &project.RemainingRaw,
		&onHold, &newEdit, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	project.Status = Status(status)
	project.DueDate = dueDate.String
	project.OriginalDueDate = origDue.String
	project.OnHold = onHold != 0
	project.NewEdit = newEdit != 0
	project.CreatedAt = parseTimestamp(createdAt)
	project.UpdatedAt = parseTimestamp(updatedAt)
	return &project, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
