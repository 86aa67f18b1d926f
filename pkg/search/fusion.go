// Package search defines the index/search/delete contract the library core
// depends on, plus a local sqlite-backed implementation of it.
package search

import (
	"sort"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
)

// Fusion is the boundary to the search collaborator. The core only ever
// indexes by item id, deletes by item id, and asks for ranked id lists; how
// ranking happens behind this interface is not the core's concern.
type Fusion interface {
	IndexItem(item *models.ResourceItem, content string) error
	RemoveItem(id string) error
	Search(query string, limit int) ([]string, error)
	Close() error
}

// rrfK dampens the influence of low ranks in reciprocal rank fusion
const rrfK = 60

// fuseRanks merges ranked id lists with reciprocal rank fusion: each id
// scores sum(1/(k+rank)) over the lists it appears in.
func fuseRanks(lists ...[]string) []string {
	scores := map[string]float64{}
	order := []string{}
	for _, list := range lists {
		for rank, id := range list {
			if _, seen := scores[id]; !seen {
				order = append(order, id)
			}
			scores[id] += 1.0 / float64(rrfK+rank+1)
		}
	}

	// Stable sort keeps first-seen order for score ties.
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	return order
}
