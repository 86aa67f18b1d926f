package models

import (
	"fmt"
	"time"
)

// DocumentVersion is the current LibraryDocument schema version
const DocumentVersion = 1

// LibraryDocument is the authoritative metadata document for a library
type LibraryDocument struct {
	Version      int            `json:"version"`
	LastModified time.Time      `json:"lastModified"`
	Items        []ResourceItem `json:"items"`
	Tags         []Tag          `json:"tags"`
	Folders      []Folder       `json:"folders"`
}

// NewLibraryDocument returns an empty document at the current version
func NewLibraryDocument() *LibraryDocument {
	return &LibraryDocument{
		Version: DocumentVersion,
		Items:   []ResourceItem{},
		Tags:    []Tag{},
		Folders: []Folder{},
	}
}

// FindItem returns a pointer into Items for the given id, or nil
func (d *LibraryDocument) FindItem(id string) *ResourceItem {
	for i := range d.Items {
		if d.Items[i].ID == id {
			return &d.Items[i]
		}
	}
	return nil
}

// FindFolder returns the folder with the given id, or nil
func (d *LibraryDocument) FindFolder(id string) *Folder {
	for i := range d.Folders {
		if d.Folders[i].ID == id {
			return &d.Folders[i]
		}
	}
	return nil
}

// EffectiveFolderID resolves an item's folder reference. Sentinel ids pass
// through; a dangling reference to a deleted folder degrades to
// uncategorized rather than failing.
func (d *LibraryDocument) EffectiveFolderID(item *ResourceItem) string {
	if item.FolderID == "" {
		return FolderUncategorized
	}
	if IsSentinelFolder(item.FolderID) {
		return item.FolderID
	}
	if d.FindFolder(item.FolderID) == nil {
		return FolderUncategorized
	}
	return item.FolderID
}

// Validate checks structural invariants: unique item ids and acyclic
// tag/folder trees.
func (d *LibraryDocument) Validate() error {
	seen := make(map[string]bool, len(d.Items))
	for i := range d.Items {
		id := d.Items[i].ID
		if id == "" {
			return fmt.Errorf("item %d has empty id", i)
		}
		if seen[id] {
			return fmt.Errorf("duplicate item id: %s", id)
		}
		seen[id] = true
	}

	tagParents := make(map[string]string, len(d.Tags))
	for _, t := range d.Tags {
		tagParents[t.ID] = t.ParentID
	}
	if id := findCycle(tagParents); id != "" {
		return fmt.Errorf("tag tree contains a cycle at %s", id)
	}

	folderParents := make(map[string]string, len(d.Folders))
	for _, f := range d.Folders {
		folderParents[f.ID] = f.ParentID
	}
	if id := findCycle(folderParents); id != "" {
		return fmt.Errorf("folder tree contains a cycle at %s", id)
	}

	return nil
}

// findCycle walks each node up its parent chain and returns the id of a node
// on a cycle, or "" when the forest is acyclic.
func findCycle(parents map[string]string) string {
	for start := range parents {
		slow, fast := start, start
		for {
			slow = parents[slow]
			fast = parents[parents[fast]]
			if slow == "" || fast == "" {
				break
			}
			if slow == fast {
				return start
			}
		}
	}
	return ""
}
