package models

import "time"

// ItemType represents the kind of captured resource
type ItemType string

const (
	TypeWeb      ItemType = "WEB"
	TypeArticle  ItemType = "ARTICLE"
	TypeImage    ItemType = "IMAGE"
	TypeNote     ItemType = "NOTE"
	TypePDF      ItemType = "PDF"
	TypeWord     ItemType = "WORD"
	TypeEPUB     ItemType = "EPUB"
	TypeMarkdown ItemType = "MARKDOWN"
	TypePPT      ItemType = "PPT"
	TypeExcel    ItemType = "EXCEL"
	TypeUnknown  ItemType = "UNKNOWN"
)

// StorageMode says who owns an item's content bytes
type StorageMode string

const (
	// ModeEmbed: bytes are copied into and owned by the file store
	ModeEmbed StorageMode = "embed"
	// ModeReference: bytes stay at an external path the user owns
	ModeReference StorageMode = "reference"
)

// Sentinel folder ids. These are views, not real folders; an item whose
// FolderID references a folder that no longer exists is treated as
// uncategorized.
const (
	FolderUncategorized = "uncategorized"
	FolderTrash         = "trash"
	FolderAll           = "all"
	FolderRecent        = "recent"
	FolderStarred       = "starred"
)

// ResourceItem is a captured resource in the library
type ResourceItem struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Type         ItemType    `json:"type"`
	Tags         []string    `json:"tags,omitempty"`
	FolderID     string      `json:"folderId,omitempty"`
	Color        string      `json:"color,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	Path         string      `json:"path,omitempty"`         // store-relative location hint
	LocalPath    string      `json:"localPath,omitempty"`    // external location for reference mode
	OriginalPath string      `json:"originalPath,omitempty"` // where the content was captured from
	StorageMode  StorageMode `json:"storageMode,omitempty"`
	IsStarred    bool        `json:"isStarred,omitempty"`
	DeletedAt    *time.Time  `json:"deletedAt,omitempty"`
	Source       string      `json:"source,omitempty"`
	FileName     string      `json:"fileName,omitempty"`
}

// IsDeleted reports whether the item has been soft-deleted
func (r *ResourceItem) IsDeleted() bool {
	return r.DeletedAt != nil
}

// IsSentinelFolder reports whether id names a view rather than a real folder
func IsSentinelFolder(id string) bool {
	switch id {
	case FolderUncategorized, FolderTrash, FolderAll, FolderRecent, FolderStarred:
		return true
	}
	return false
}

// Tag is a user label; tags form a tree via ParentID
type Tag struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Folder is a user classification bucket; folders form a tree via ParentID
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
	Icon     string `json:"icon,omitempty"`
}
