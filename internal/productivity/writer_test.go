package productivity_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"booktrack/internal/productivity"
)

type recordingStore struct {
	mu      sync.Mutex
	upserts []productivity.Entry
	deletes []productivity.Key
	err     error
}

func (s *recordingStore) UpsertLog(_ context.Context, entry productivity.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.upserts = append(s.upserts, entry)
	return nil
}

func (s *recordingStore) DeleteLog(_ context.Context, key productivity.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.deletes = append(s.deletes, key)
	return nil
}

func (s *recordingStore) snapshot() ([]productivity.Entry, []productivity.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]productivity.Entry(nil), s.upserts...), append([]productivity.Key(nil), s.deletes...)
}

func TestWriterCoalescesPerKey(t *testing.T) {
	store := &recordingStore{}
	w := productivity.NewWriter(store, 20*time.Millisecond, nil)
	defer w.Stop()

	for _, hours := range []float64{1, 2, 3.25} {
		w.Queue(1, productivity.Write{Person: "Israel", Date: "2024-03-04", Hours: hours})
	}
	w.Queue(1, productivity.Write{Person: "Israel", Date: "2024-03-05", Hours: 4})

	deadline := time.After(2 * time.Second)
	for {
		upserts, _ := store.snapshot()
		if len(upserts) >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("writes never committed: %v", upserts)
		case <-time.After(10 * time.Millisecond):
		}
	}

	upserts, deletes := store.snapshot()
	if len(upserts) != 2 || len(deletes) != 0 {
		t.Fatalf("upserts=%v deletes=%v", upserts, deletes)
	}
	byDate := map[string]float64{}
	for _, e := range upserts {
		byDate[e.Date] = e.Hours
	}
	if byDate["2024-03-04"] != 3.25 {
		t.Fatalf("coalesced write hours = %v, want last value 3.25", byDate["2024-03-04"])
	}
	if byDate["2024-03-05"] != 4 {
		t.Fatalf("independent key hours = %v, want 4", byDate["2024-03-05"])
	}
}

func TestWriterDeleteOnEmptyWrite(t *testing.T) {
	store := &recordingStore{}
	w := productivity.NewWriter(store, time.Hour, nil)
	defer w.Stop()

	w.Queue(7, productivity.Write{Person: "Lauraine", Date: "2024-03-06", Delete: true})
	w.Flush()

	upserts, deletes := store.snapshot()
	if len(upserts) != 0 || len(deletes) != 1 {
		t.Fatalf("upserts=%v deletes=%v", upserts, deletes)
	}
	want := productivity.Key{ProjectID: 7, Person: "Lauraine", Date: "2024-03-06"}
	if deletes[0] != want {
		t.Fatalf("delete key = %+v, want %+v", deletes[0], want)
	}
}

func TestWriterPendingForProject(t *testing.T) {
	store := &recordingStore{}
	w := productivity.NewWriter(store, 30*time.Millisecond, nil)
	defer w.Stop()

	w.Queue(4, productivity.Write{Person: "Israel", Date: "2024-03-04", Hours: 2})
	if !w.PendingForProject(4) {
		t.Fatal("queued write should report pending")
	}
	if w.PendingForProject(5) {
		t.Fatal("untouched project should not report pending")
	}

	deadline := time.After(2 * time.Second)
	for w.PendingForProject(4) {
		select {
		case <-deadline:
			t.Fatal("write never committed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if upserts, _ := store.snapshot(); len(upserts) != 1 {
		t.Fatalf("upserts = %v", upserts)
	}
}

func TestWriterSurfacesErrors(t *testing.T) {
	store := &recordingStore{err: errors.New("row store unavailable")}
	var mu sync.Mutex
	var surfaced []error
	w := productivity.NewWriter(store, time.Hour, nil,
		productivity.WithErrorHandler(func(err error) {
			mu.Lock()
			surfaced = append(surfaced, err)
			mu.Unlock()
		}),
	)
	defer w.Stop()

	w.Queue(1, productivity.Write{Person: "Israel", Date: "2024-03-04", Hours: 2})
	w.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(surfaced) != 1 {
		t.Fatalf("surfaced %d errors, want 1", len(surfaced))
	}
	if surfaced[0].Error() != "row store unavailable" {
		t.Fatalf("error = %v", surfaced[0])
	}
}

func TestWriterFlushCommitsPending(t *testing.T) {
	store := &recordingStore{}
	w := productivity.NewWriter(store, time.Hour, nil)
	defer w.Stop()

	w.Queue(1, productivity.Write{Person: "Israel", Date: "2024-03-04", Hours: 2, Note: "ch 1-4"})
	w.Flush()

	upserts, _ := store.snapshot()
	if len(upserts) != 1 {
		t.Fatalf("flush committed %d writes, want 1", len(upserts))
	}
	if upserts[0].Note != "ch 1-4" || upserts[0].Hours != 2 {
		t.Fatalf("entry = %+v", upserts[0])
	}
}
