package productivity

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"booktrack/internal/logging"
)

// LogStore is the slice of the remote row store the writer needs.
type LogStore interface {
	UpsertLog(ctx context.Context, entry Entry) error
	DeleteLog(ctx context.Context, key Key) error
}

// Writer pushes buffer writes to the remote store through one Debouncer per
// (person, project, date) key. Keys are independent: rapid edits to one cell
// collapse to a single upsert while edits to other cells proceed on their
// own timers, with no cross-key ordering guarantee.
type Writer struct {
	store   LogStore
	delay   time.Duration
	timeout time.Duration
	logger  *slog.Logger
	onError func(error)

	mu         sync.Mutex
	debouncers map[Key]*Debouncer[Entry]
}

// WriterOption configures optional Writer behavior.
type WriterOption func(*Writer)

// WithErrorHandler installs a callback for failed remote writes. The error
// is also logged either way; optimistic buffer state is never rolled back.
func WithErrorHandler(fn func(error)) WriterOption {
	return func(w *Writer) { w.onError = fn }
}

// WithWriteTimeout bounds each remote call. Zero means no deadline, which
// leaves a hung request pending indefinitely.
func WithWriteTimeout(timeout time.Duration) WriterOption {
	return func(w *Writer) { w.timeout = timeout }
}

// NewWriter constructs a Writer that coalesces edits for delay before
// committing them.
func NewWriter(store LogStore, delay time.Duration, logger *slog.Logger, opts ...WriterOption) *Writer {
	if logger == nil {
		logger = logging.NewNop()
	}
	w := &Writer{
		store:      store,
		delay:      delay,
		logger:     logger,
		debouncers: make(map[Key]*Debouncer[Entry]),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Queue schedules a buffer write for the given project. Later calls for the
// same key supersede earlier ones that have not fired yet.
func (w *Writer) Queue(projectID int64, write Write) {
	entry := Entry{
		ProjectID: projectID,
		Person:    write.Person,
		Date:      write.Date,
		Hours:     write.Hours,
		Note:      write.Note,
	}
	if write.Delete {
		entry.Hours = 0
		entry.Note = ""
	}
	w.debouncer(entry.Key()).Call(entry)
}

// QueueEntry schedules a fully-formed entry, used by callers that already
// know the category tag.
func (w *Writer) QueueEntry(entry Entry) {
	w.debouncer(entry.Key()).Call(entry)
}

func (w *Writer) debouncer(key Key) *Debouncer[Entry] {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, ok := w.debouncers[key]
	if !ok {
		d = NewDebouncer(w.delay, w.commit)
		w.debouncers[key] = d
	}
	return d
}

// commit writes the latest state for one key: empty entries delete the row,
// everything else upserts it.
func (w *Writer) commit(entry Entry) {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	var err error
	if entry.Empty() {
		err = w.store.DeleteLog(ctx, entry.Key())
	} else {
		err = w.store.UpsertLog(ctx, entry)
	}
	if err != nil {
		w.logger.Error("remote log write failed",
			logging.Int64("project_id", entry.ProjectID),
			logging.String("person", entry.Person),
			logging.String("date", entry.Date),
			logging.Error(err),
		)
		if w.onError != nil {
			w.onError(err)
		}
	}
}

// PendingForProject reports whether any cell write for the project is
// still waiting out its debounce window. Edit buffers stay focused while
// this is true so a reconcile cannot clobber the staged cell.
func (w *Writer) PendingForProject(projectID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for key, d := range w.debouncers {
		if key.ProjectID == projectID && d.Pending() {
			return true
		}
	}
	return false
}

// Flush fires every pending write immediately. Called on daemon shutdown
// so navigating away never loses the last edit.
func (w *Writer) Flush() {
	for _, d := range w.snapshot() {
		d.Flush()
	}
}

// Stop cancels all pending writes.
func (w *Writer) Stop() {
	for _, d := range w.snapshot() {
		d.Stop()
	}
}

func (w *Writer) snapshot() []*Debouncer[Entry] {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Debouncer[Entry], 0, len(w.debouncers))
	for _, d := range w.debouncers {
		out = append(out, d)
	}
	return out
}
