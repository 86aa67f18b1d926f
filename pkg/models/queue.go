package models

import "time"

// QueueStatus is the delivery state of a queued capture
type QueueStatus string

const (
	QueuePending QueueStatus = "pending"
	QueueSyncing QueueStatus = "syncing"
	QueueFailed  QueueStatus = "failed"
	QueueDone    QueueStatus = "done"
)

// SyncQueueItem wraps a capture payload awaiting delivery to the host.
// Lifecycle: pending -> syncing -> done (removed) | pending (retry) | failed
// (retained for inspection, re-armable).
type SyncQueueItem struct {
	ID         string      `json:"id"`
	Payload    SyncPayload `json:"payload"`
	QueuedAt   time.Time   `json:"queuedAt"`
	RetryCount int         `json:"retryCount"`
	LastError  string      `json:"lastError,omitempty"`
	Status     QueueStatus `json:"status"`
}

// SyncPayload is the capture-agent shape of a resource, before the bridge
// transforms it into a canonical ResourceItem.
type SyncPayload struct {
	ID         string     `json:"id,omitempty"`
	Title      string     `json:"title,omitempty"`
	Type       string     `json:"type,omitempty"`
	URL        string     `json:"url,omitempty"`
	Content    string     `json:"content,omitempty"`
	FileName   string     `json:"fileName,omitempty"`
	FolderID   string     `json:"folderId,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Color      string     `json:"color,omitempty"`
	Source     string     `json:"source,omitempty"`
	CapturedAt *time.Time `json:"capturedAt,omitempty"`
}
