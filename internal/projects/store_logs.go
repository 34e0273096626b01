package projects

import (
	"context"
	"fmt"

	"booktrack/internal/productivity"
)

// Role distinguishes the editor and QC log tables in the cache.
type Role string

const (
	RoleEditor Role = "editor"
	RoleQC     Role = "qc"
)

// ReplaceLogs swaps the cached rows for one role with a fresh remote pull.
func (s *Store) ReplaceLogs(ctx context.Context, role Role, entries []productivity.Entry) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin log refresh tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, "DELETE FROM log_cache WHERE role = ?", string(role)); err != nil {
			return fmt.Errorf("clear %s log cache: %w", role, err)
		}
		for _, entry := range entries {
			if entry.Empty() {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO log_cache (project_id, person, date, hours, note, category, role)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				entry.ProjectID, entry.Person, entry.Date, entry.Hours,
				entry.Note, string(entry.Category), string(role)); err != nil {
				return fmt.Errorf("cache %s log row: %w", role, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit log refresh: %w", err)
		}
		return nil
	})
}

// UpsertLog mirrors a single write into the cache so views reflect edits
// before the next sync.
func (s *Store) UpsertLog(ctx context.Context, role Role, entry productivity.Entry) error {
	if entry.Empty() {
		return s.DeleteLog(ctx, role, entry.Key())
	}
	_, err := s.execWithRetry(ctx, `
		INSERT INTO log_cache (project_id, person, date, hours, note, category, role)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, person, date, role) DO UPDATE SET
			hours = excluded.hours, note = excluded.note, category = excluded.category`,
		entry.ProjectID, entry.Person, entry.Date, entry.Hours,
		entry.Note, string(entry.Category), string(role))
	if err != nil {
		return fmt.Errorf("upsert cached %s log: %w", role, err)
	}
	return nil
}

// DeleteLog removes one cached log row.
func (s *Store) DeleteLog(ctx context.Context, role Role, key productivity.Key) error {
	_, err := s.execWithRetry(ctx, `
		DELETE FROM log_cache
		WHERE project_id = ? AND person = ? AND date = ? AND role = ?`,
		key.ProjectID, key.Person, key.Date, string(role))
	if err != nil {
		return fmt.Errorf("delete cached %s log: %w", role, err)
	}
	return nil
}

// Logs returns every cached entry for a role in date order.
func (s *Store) Logs(ctx context.Context, role Role) ([]productivity.Entry, error) {
	return s.queryLogs(ctx,
		"WHERE role = ? ORDER BY date, person", string(role))
}

// ProjectLogs returns the cached entries for one project and role.
func (s *Store) ProjectLogs(ctx context.Context, role Role, projectID int64) ([]productivity.Entry, error) {
	return s.queryLogs(ctx,
		"WHERE role = ? AND project_id = ? ORDER BY date, person",
		string(role), projectID)
}

// WindowLogs returns the cached entries for one role inside an inclusive
// date window.
func (s *Store) WindowLogs(ctx context.Context, role Role, from, to string) ([]productivity.Entry, error) {
	return s.queryLogs(ctx,
		"WHERE role = ? AND date >= ? AND date <= ? ORDER BY date, person",
		string(role), from, to)
}

func (s *Store) queryLogs(ctx context.Context, clause string, args ...any) ([]productivity.Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT project_id, person, date, hours, note, category FROM log_cache "+clause,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query log cache: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []productivity.Entry
	for rows.Next() {
		var (
			entry    productivity.Entry
			category string
		)
		if scanErr := rows.Scan(&entry.ProjectID, &entry.Person, &entry.Date,
			&entry.Hours, &entry.Note, &category); scanErr != nil {
			return nil, fmt.Errorf("scan cached log: %w", scanErr)
		}
		entry.Category = productivity.Category(category)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
