package service

import (
	"sort"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
)

// recentLimit caps the recent view
const recentLimit = 50

// ListItems returns the items of a folder view. The sentinel folder ids
// select the synthetic views; any other id filters by effective folder.
func (s *Service) ListItems(folderID string) ([]models.ResourceItem, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}

	var out []models.ResourceItem
	switch folderID {
	case models.FolderAll, "":
		for _, item := range doc.Items {
			if !item.IsDeleted() {
				out = append(out, item)
			}
		}
	case models.FolderTrash:
		for _, item := range doc.Items {
			if item.IsDeleted() {
				out = append(out, item)
			}
		}
	case models.FolderStarred:
		for _, item := range doc.Items {
			if !item.IsDeleted() && item.IsStarred {
				out = append(out, item)
			}
		}
	case models.FolderRecent:
		for _, item := range doc.Items {
			if !item.IsDeleted() {
				out = append(out, item)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		})
		if len(out) > recentLimit {
			out = out[:recentLimit]
		}
	default:
		for _, item := range doc.Items {
			if !item.IsDeleted() && doc.EffectiveFolderID(&item) == folderID {
				out = append(out, item)
			}
		}
	}
	return out, nil
}

// Search resolves ranked ids from the search index to live items. Trashed
// items stay indexed for restore but never surface here.
func (s *Service) Search(query string, limit int) ([]models.ResourceItem, error) {
	if s.index == nil {
		return nil, nil
	}
	ids, err := s.index.Search(query, limit)
	if err != nil {
		return nil, err
	}

	doc, err := s.Document()
	if err != nil {
		return nil, err
	}

	var out []models.ResourceItem
	for _, id := range ids {
		item := doc.FindItem(id)
		if item == nil || item.IsDeleted() {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}
