package queue

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/storage"
)

func newQueue(t *testing.T) *Queue {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "queue.json"))
}

func TestAddDeduplicatesByID(t *testing.T) {
	q := newQueue(t)

	if err := q.Add(models.SyncPayload{ID: "b2", Title: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := q.Add(models.SyncPayload{ID: "b2", Title: "second"}); err != nil {
		t.Fatal(err)
	}

	items, err := q.Items()
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected exactly one entry for b2, got %d", len(items))
	}
	if items[0].RetryCount != 0 {
		t.Errorf("retryCount = %d, want 0", items[0].RetryCount)
	}
	if items[0].Payload.Title != "second" {
		t.Errorf("later payload should win, got %q", items[0].Payload.Title)
	}
	if items[0].Status != models.QueuePending {
		t.Errorf("status = %s", items[0].Status)
	}
}

func TestAddKeepsOriginalQueuePosition(t *testing.T) {
	q := newQueue(t)

	if err := q.Add(models.SyncPayload{ID: "b2", Title: "first"}); err != nil {
		t.Fatal(err)
	}
	items, err := q.Items()
	if err != nil {
		t.Fatal(err)
	}
	queuedAt := items[0].QueuedAt

	time.Sleep(5 * time.Millisecond)
	if err := q.Add(models.SyncPayload{ID: "b2", Title: "second"}); err != nil {
		t.Fatal(err)
	}

	items, err = q.Items()
	if err != nil {
		t.Fatal(err)
	}
	if !items[0].QueuedAt.Equal(queuedAt) {
		t.Errorf("re-add must keep the original queuedAt, got %v want %v", items[0].QueuedAt, queuedAt)
	}
}

func TestInterruptedDeliveryRecoversOnReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")

	// A process killed between the syncing transition and the terminal one
	// leaves the entry persisted as syncing.
	stranded := []models.SyncQueueItem{{
		ID:       "crash-1",
		Payload:  models.SyncPayload{ID: "crash-1"},
		QueuedAt: time.Now(),
		Status:   models.QueueSyncing,
	}}
	if err := storage.WriteJSONAtomic(path, stranded); err != nil {
		t.Fatal(err)
	}

	q := New(path)
	items, err := q.Items()
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(items))
	}
	if items[0].Status != models.QueuePending {
		t.Fatalf("interrupted entry must return to pending, got %s", items[0].Status)
	}
	if items[0].RetryCount != 1 {
		t.Errorf("interrupted attempt counts against the budget, retryCount = %d", items[0].RetryCount)
	}
	if items[0].LastError == "" {
		t.Error("lastError should record the interruption")
	}

	d := &flakyDeliverer{}
	s := NewScheduler(q, d, Config{}, nil)
	delivered, err := s.ProcessOnce()
	if err != nil {
		t.Fatal(err)
	}
	if delivered != 1 {
		t.Errorf("recovered entry must be delivered, delivered = %d", delivered)
	}
}

func TestAddRequiresID(t *testing.T) {
	q := newQueue(t)
	if err := q.Add(models.SyncPayload{Title: "anonymous"}); err == nil {
		t.Error("expected error for payload without id")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")

	q := New(path)
	if err := q.Add(models.SyncPayload{ID: "a1", Title: "Example"}); err != nil {
		t.Fatal(err)
	}
	if err := q.Add(models.SyncPayload{ID: "b2", Title: "Other"}); err != nil {
		t.Fatal(err)
	}

	fresh := New(path)
	items, err := fresh.Items()
	if err != nil {
		t.Fatalf("items after reopen: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(items))
	}
}

func TestClear(t *testing.T) {
	q := newQueue(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := q.Add(models.SyncPayload{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	if err := q.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	n, err := q.Len()
	if err != nil || n != 0 {
		t.Errorf("expected empty queue, got %d (%v)", n, err)
	}
}

func TestRetryOnlyFailedEntries(t *testing.T) {
	q := newQueue(t)
	if err := q.Add(models.SyncPayload{ID: "a1"}); err != nil {
		t.Fatal(err)
	}

	if err := q.Retry("a1"); err == nil {
		t.Error("pending entry must not be re-armable")
	}

	if err := q.markFailed("a1", errTest); err != nil {
		t.Fatal(err)
	}
	if err := q.Retry("a1"); err != nil {
		t.Fatalf("retry failed entry: %v", err)
	}

	items, _ := q.Items()
	if items[0].Status != models.QueuePending || items[0].RetryCount != 0 || items[0].LastError != "" {
		t.Errorf("re-armed entry = %+v", items[0])
	}

	if err := q.Retry("ghost"); err == nil {
		t.Error("expected error for unknown id")
	}
}
