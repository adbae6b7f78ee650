package inventory

import (
	"strings"
	"time"

	"github.com/google/btree"
	"github.com/yairfalse/peili/types"
)

// indexEntry keys a snapshot resource by normalized ID for btree ordering.
type indexEntry struct {
	key      string
	resource *types.Resource
}

// Snapshot is one full-scope enumeration result. The slice preserves the
// remote enumeration order; the index serves point lookups during analysis.
// Callers must not mutate the snapshot.
type Snapshot struct {
	Scope     string
	Resources []types.Resource
	FetchedAt time.Time

	index *btree.BTreeG[indexEntry]
}

// NewSnapshot materializes an enumeration into a snapshot.
func NewSnapshot(scope string, resources []types.Resource, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		Scope:     scope,
		Resources: resources,
		FetchedAt: fetchedAt,
		index: btree.NewG[indexEntry](32, func(a, b indexEntry) bool {
			return a.key < b.key
		}),
	}
	for i := range s.Resources {
		s.Resources[i].Normalize()
		s.index.ReplaceOrInsert(indexEntry{
			key:      normalizeID(s.Resources[i].ID),
			resource: &s.Resources[i],
		})
	}
	return s
}

// Get returns the resource with the given ID. Resource IDs compare
// case-insensitively, matching the remote system.
func (s *Snapshot) Get(resourceID string) (*types.Resource, bool) {
	entry, ok := s.index.Get(indexEntry{key: normalizeID(resourceID)})
	if !ok {
		return nil, false
	}
	return entry.resource, true
}

// Len returns the resource count.
func (s *Snapshot) Len() int {
	return len(s.Resources)
}

func normalizeID(id string) string {
	return strings.ToLower(id)
}
