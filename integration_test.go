package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/backup"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/bridge"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/filestore"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/mtime"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/queue"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/service"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/storage"
)

func newStack(t *testing.T) (*service.Service, string) {
	t.Helper()
	root := t.TempDir()

	backups, err := backup.NewManager(filepath.Join(root, "backups"), nil)
	require.NoError(t, err)

	library, err := storage.NewLibraryStore(
		filepath.Join(root, "data", "library.json"), backups.Create, nil)
	require.NoError(t, err)

	files, err := filestore.New(root, nil)
	require.NoError(t, err)

	svc := service.New(library, files,
		mtime.New(filepath.Join(root, "data", "mtime.json")), nil, nil)
	return svc, root
}

// Full capture flow: the agent queues a payload, the scheduler delivers it
// over loopback HTTP, and the host persists it.
func TestCaptureDeliveryEndToEnd(t *testing.T) {
	svc, root := newStack(t)
	defer svc.Close()

	portFile := filepath.Join(t.TempDir(), "bridge.port")
	server := bridge.NewServer(portFile, nil)
	server.SetSession(svc)
	require.NoError(t, server.Start(0))
	defer server.Shutdown(context.Background())

	q := queue.New(filepath.Join(root, "data", "sync-queue.json"))
	require.NoError(t, q.Add(models.SyncPayload{
		ID:      "cap-1",
		Title:   "Example Article",
		Type:    "ARTICLE",
		URL:     "https://example.com/post",
		Content: "<html>body</html>",
	}))

	scheduler := queue.NewScheduler(q, queue.NewHTTPDeliverer(portFile), queue.Config{}, nil)
	delivered, err := scheduler.ProcessOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	n, err := q.Len()
	require.NoError(t, err)
	assert.Zero(t, n, "delivered entries leave the queue")

	item, err := svc.GetItem("cap-1")
	require.NoError(t, err)
	assert.Equal(t, "Example Article", item.Title)
	assert.Equal(t, models.TypeWeb, item.Type)
	assert.Equal(t, models.ModeEmbed, item.StorageMode)

	data, err := os.ReadFile(item.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "<html>body</html>", string(data))
}

// With no session attached, deliveries fail and stay queued for retry.
func TestDeliveryQueuedWhileHostAway(t *testing.T) {
	root := t.TempDir()

	portFile := filepath.Join(root, "bridge.port")
	server := bridge.NewServer(portFile, nil)
	require.NoError(t, server.Start(0))
	defer server.Shutdown(context.Background())

	q := queue.New(filepath.Join(root, "sync-queue.json"))
	require.NoError(t, q.Add(models.SyncPayload{ID: "cap-1", URL: "https://example.com"}))

	scheduler := queue.NewScheduler(q, queue.NewHTTPDeliverer(portFile), queue.Config{MaxRetries: 5}, nil)
	delivered, err := scheduler.ProcessOnce()
	require.NoError(t, err)
	assert.Zero(t, delivered)

	items, err := q.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.QueuePending, items[0].Status)
	assert.Equal(t, 1, items[0].RetryCount)
}

// Library lifecycle: ingest, move, back up, trash, restore from backup.
func TestLibraryLifecycle(t *testing.T) {
	svc, root := newStack(t)
	defer svc.Close()

	item := &models.ResourceItem{
		ID:          "a1",
		Title:       "Notes",
		Type:        models.TypeMarkdown,
		StorageMode: models.ModeEmbed,
		FileName:    "notes.md",
	}
	require.NoError(t, svc.IngestItem(item, "# notes"))
	require.NoError(t, svc.MoveItemToFolder("a1", "projects"))

	moved, err := svc.GetItem("a1")
	require.NoError(t, err)
	assert.Equal(t, "projects", moved.FolderID)
	assert.FileExists(t, moved.Path)

	backups, err := backup.NewManager(filepath.Join(root, "backups"), nil)
	require.NoError(t, err)
	doc, err := svc.Document()
	require.NoError(t, err)
	path, err := backups.Create(doc)
	require.NoError(t, err)

	require.NoError(t, svc.Delete("a1"))
	trash, err := svc.ListItems(models.FolderTrash)
	require.NoError(t, err)
	assert.Len(t, trash, 1)

	restored, err := backups.Restore(path)
	require.NoError(t, err)
	require.NoError(t, svc.ReplaceDocument(restored))

	got, err := svc.GetItem("a1")
	require.NoError(t, err)
	assert.False(t, got.IsDeleted())

	records, err := backups.List()
	require.NoError(t, err)
	assert.NotEmpty(t, records)
}
