package version

import (
	"slices"

	"github.com/roach88/syncmodel/internal/ir"
)

// ThreadSet is a sorted set of thread identities.
// Keeping it sorted makes equal sets encode identically.
type ThreadSet []ir.ThreadID

// Has reports whether t is in the set.
func (s ThreadSet) Has(t ir.ThreadID) bool {
	_, found := slices.BinarySearch(s, t)
	return found
}

// Add inserts t, keeping the set sorted. Adding a member is a no-op.
func (s *ThreadSet) Add(t ir.ThreadID) {
	i, found := slices.BinarySearch(*s, t)
	if found {
		return
	}
	*s = slices.Insert(*s, i, t)
}

// Remove deletes t and reports whether it was present.
func (s *ThreadSet) Remove(t ir.ThreadID) bool {
	i, found := slices.BinarySearch(*s, t)
	if !found {
		return false
	}
	*s = slices.Delete(*s, i, i+1)
	if len(*s) == 0 {
		*s = nil
	}
	return true
}
