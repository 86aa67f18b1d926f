// Package queue is the capture agent's half of the sync channel: a durable,
// id-deduplicated outbound queue with a bounded-retry delivery scheduler.
package queue

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/storage"
)

// Queue is the persisted set of captures awaiting delivery. Every mutation
// is committed to disk before it is visible to callers.
type Queue struct {
	path string

	mu     sync.Mutex
	loaded bool
	items  map[string]*models.SyncQueueItem
}

// New creates a queue backed by the document at path
func New(path string) *Queue {
	return &Queue{path: path, items: map[string]*models.SyncQueueItem{}}
}

// load reads the queue document on first use
func (q *Queue) load() error {
	if q.loaded {
		return nil
	}

	var entries []models.SyncQueueItem
	if err := storage.ReadJSON(q.path, &entries); err != nil && err != storage.ErrNotFound {
		return err
	}
	for i := range entries {
		// An entry persisted as syncing means the process died mid-attempt.
		// That attempt failed; return the entry to pending so it is tried
		// again instead of being stranded.
		if entries[i].Status == models.QueueSyncing {
			entries[i].Status = models.QueuePending
			entries[i].RetryCount++
			entries[i].LastError = "delivery interrupted"
		}
		q.items[entries[i].ID] = &entries[i]
	}
	q.loaded = true
	return nil
}

// flush commits the queue document atomically
func (q *Queue) flush() error {
	entries := make([]models.SyncQueueItem, 0, len(q.items))
	for _, item := range q.items {
		entries = append(entries, *item)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].QueuedAt.Before(entries[j].QueuedAt)
	})
	return storage.WriteJSONAtomic(q.path, entries)
}

// Add enqueues a payload for delivery. A payload with an already-queued id
// overwrites the prior entry instead of duplicating it: the entry keeps its
// original queue position and is re-armed with a fresh retry budget.
func (q *Queue) Add(payload models.SyncPayload) error {
	if payload.ID == "" {
		return fmt.Errorf("payload has no id")
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.load(); err != nil {
		return err
	}

	item := &models.SyncQueueItem{
		ID:       payload.ID,
		Payload:  payload,
		QueuedAt: time.Now(),
		Status:   models.QueuePending,
	}
	if prev, ok := q.items[payload.ID]; ok {
		item.QueuedAt = prev.QueuedAt
	}
	q.items[payload.ID] = item
	return q.flush()
}

// Items returns a snapshot of all entries, oldest first
func (q *Queue) Items() ([]models.SyncQueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.load(); err != nil {
		return nil, err
	}

	entries := make([]models.SyncQueueItem, 0, len(q.items))
	for _, item := range q.items {
		entries = append(entries, *item)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].QueuedAt.Before(entries[j].QueuedAt)
	})
	return entries, nil
}

// Len returns the number of queued entries
func (q *Queue) Len() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.load(); err != nil {
		return 0, err
	}
	return len(q.items), nil
}

// markSyncing transitions a pending entry to syncing and returns a copy of
// it, or false when the entry is gone or not pending.
func (q *Queue) markSyncing(id string) (models.SyncQueueItem, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.load(); err != nil {
		return models.SyncQueueItem{}, false, err
	}

	item, ok := q.items[id]
	if !ok || item.Status != models.QueuePending {
		return models.SyncQueueItem{}, false, nil
	}
	item.Status = models.QueueSyncing
	if err := q.flush(); err != nil {
		return models.SyncQueueItem{}, false, err
	}
	return *item, true, nil
}

// markDone removes a delivered entry
func (q *Queue) markDone(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.load(); err != nil {
		return err
	}
	delete(q.items, id)
	return q.flush()
}

// markRetry returns a failed attempt to pending with an incremented retry
// count.
func (q *Queue) markRetry(id string, attemptErr error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.load(); err != nil {
		return err
	}

	item, ok := q.items[id]
	if !ok {
		return nil
	}
	item.Status = models.QueuePending
	item.RetryCount++
	item.LastError = attemptErr.Error()
	return q.flush()
}

// markFailed parks an entry past its retry budget for user inspection
func (q *Queue) markFailed(id string, attemptErr error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.load(); err != nil {
		return err
	}

	item, ok := q.items[id]
	if !ok {
		return nil
	}
	item.Status = models.QueueFailed
	item.LastError = attemptErr.Error()
	return q.flush()
}

// Retry re-arms a failed entry back to pending with a fresh retry budget
func (q *Queue) Retry(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.load(); err != nil {
		return err
	}

	item, ok := q.items[id]
	if !ok {
		return fmt.Errorf("no queued entry for id %s", id)
	}
	if item.Status != models.QueueFailed {
		return fmt.Errorf("entry %s is %s, only failed entries can be re-armed", id, item.Status)
	}
	item.Status = models.QueuePending
	item.RetryCount = 0
	item.LastError = ""
	return q.flush()
}

// Clear empties the queue unconditionally
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.load(); err != nil {
		return err
	}
	q.items = map[string]*models.SyncQueueItem{}
	return q.flush()
}
