package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"booktrack/internal/logging"
	"booktrack/internal/productivity"
	"booktrack/internal/projects"
	"booktrack/internal/workweek"
)

// gridKey identifies one project card's edit buffer.
type gridKey struct {
	role      projects.Role
	projectID int64
}

// grid returns the edit buffer for a project card, creating it on first
// use. Callers must hold gridMu.
func (d *Daemon) grid(role projects.Role, projectID int64) *productivity.Buffer {
	key := gridKey{role: role, projectID: projectID}
	buf, ok := d.grids[key]
	if !ok {
		buf = productivity.NewBuffer()
		d.grids[key] = buf
	}
	return buf
}

// StageLog records a grid edit in the project's edit buffer and queues the
// debounced remote write the staged cell implies. The date must be
// canonical; the hour text must pass the forgiving parse and is kept
// verbatim in the buffer, so in-progress input like "3." survives until
// the next reconcile.
func (d *Daemon) StageLog(role projects.Role, projectID int64, person, date, rawHours, note string, category productivity.Category) error {
	person = strings.TrimSpace(person)
	if person == "" {
		return errors.New("person is required")
	}
	if _, err := workweek.ParseDate(date); err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}
	if _, err := productivity.ParseHours(rawHours); err != nil {
		return err
	}

	d.gridMu.Lock()
	buf := d.grid(role, projectID)
	buf.SetNote(person, date, note)
	write := buf.SetHours(person, date, rawHours)
	d.gridMu.Unlock()

	if write.Delete {
		d.QueueLogDelete(role, productivity.Key{ProjectID: projectID, Person: person, Date: date})
		return nil
	}
	d.manager.Writer(role).QueueEntry(productivity.Entry{
		ProjectID: projectID,
		Person:    person,
		Date:      date,
		Hours:     write.Hours,
		Note:      write.Note,
		Category:  category,
	})
	return nil
}

// StageLogDelete clears one staged cell and queues the debounced delete.
func (d *Daemon) StageLogDelete(role projects.Role, key productivity.Key) {
	d.gridMu.Lock()
	buf := d.grid(role, key.ProjectID)
	buf.SetNote(key.Person, key.Date, "")
	buf.SetHours(key.Person, key.Date, "")
	d.gridMu.Unlock()
	d.QueueLogDelete(role, key)
}

// reconcileGrids rebuilds every tracked edit buffer from the cached rows
// the last sync pass pulled. A buffer whose project still has writes in
// the debounce pipeline is focused and left untouched; the next pass
// picks it up.
func (d *Daemon) reconcileGrids(ctx context.Context) {
	d.gridMu.Lock()
	keys := make([]gridKey, 0, len(d.grids))
	for key := range d.grids {
		keys = append(keys, key)
	}
	d.gridMu.Unlock()

	for _, key := range keys {
		cached, err := d.store.ProjectLogs(ctx, key.role, key.projectID)
		if err != nil {
			d.logger.Warn("grid reconcile skipped",
				logging.Int64("project_id", key.projectID),
				logging.Error(err),
			)
			continue
		}
		d.gridMu.Lock()
		if buf, ok := d.grids[key]; ok {
			buf.SetFocused(d.manager.Writer(key.role).PendingForProject(key.projectID))
			buf.Reconcile(cached)
		}
		d.gridMu.Unlock()
	}
}
