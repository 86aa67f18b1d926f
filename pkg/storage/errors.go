package storage

import "errors"

var (
	// ErrNotFound means the document does not exist yet. Expected on first
	// run, so callers should not log it as an error.
	ErrNotFound = errors.New("document not found")

	// ErrBusy means a write was attempted while another write for the same
	// store was still in flight. The caller decides whether to retry; the
	// store never queues writes invisibly.
	ErrBusy = errors.New("write already in progress")
)
