package bridge

import (
	"time"

	"github.com/google/uuid"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
)

// defaultSource marks items delivered by the capture agent when the payload
// does not carry its own provenance tag.
const defaultSource = "browser-extension"

// Transform converts a capture-agent payload into the canonical
// ResourceItem shape: type mapping, field renames, and default fills.
// Returns the item and the extracted text content to index.
func Transform(p *models.SyncPayload) (*models.ResourceItem, string) {
	now := time.Now()

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}

	title := p.Title
	if title == "" {
		title = p.URL
	}
	if title == "" {
		title = "Untitled"
	}

	createdAt := now
	if p.CapturedAt != nil {
		createdAt = *p.CapturedAt
	}

	source := p.Source
	if source == "" {
		source = defaultSource
	}

	item := &models.ResourceItem{
		ID:           id,
		Title:        title,
		Type:         models.MapCaptureType(p.Type),
		Tags:         p.Tags,
		FolderID:     p.FolderID,
		Color:        p.Color,
		CreatedAt:    createdAt,
		UpdatedAt:    now,
		OriginalPath: p.URL,
		Source:       source,
		FileName:     p.FileName,
	}

	if p.Content != "" {
		item.StorageMode = models.ModeEmbed
		if item.FileName == "" {
			item.FileName = defaultFileName(item)
		}
	} else {
		item.Path = p.URL
	}

	return item, p.Content
}

// defaultFileName derives a stored filename for embedded content captured
// without one.
func defaultFileName(item *models.ResourceItem) string {
	switch item.Type {
	case models.TypeWeb, models.TypeArticle:
		return item.ID + ".html"
	case models.TypeMarkdown, models.TypeNote:
		return item.ID + ".md"
	case models.TypeImage:
		return item.ID + ".png"
	default:
		return item.ID + ".txt"
	}
}
