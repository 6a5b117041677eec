package version

import "fmt"

// ID identifies a Version within one Store. Ids are dense and assigned in
// save order starting at Initial.
type ID int

// Initial is the id of the Version a Store is created with.
const Initial ID = 0

// Store is the deduplicating pool of Versions for one primitive instance.
//
// A Store is not safe for concurrent use. The host scheduler runs exactly one
// logical thread per search step, so there is never more than one caller.
type Store struct {
	versions []*Version
	digests  []string
	index    map[string]ID
	current  ID
}

// NewStore creates a store whose Initial version is a copy of initial.
func NewStore(initial *Version) *Store {
	s := &Store{index: make(map[string]ID)}
	s.current = s.Save(initial)
	return s
}

// Get returns the Version saved under id. The result is the stored instance
// and must not be modified.
//
// Panics if id was never assigned by this store.
func (s *Store) Get(id ID) *Version {
	s.mustExist(id)
	return s.versions[id]
}

// Save returns the id of the Version structurally equal to v, assigning the
// next id if there is none, and makes that id current. The store keeps its
// own copy, so the caller may continue to mutate v.
func (s *Store) Save(v *Version) ID {
	d := v.Digest()
	if id, ok := s.index[d]; ok {
		s.current = id
		return id
	}

	id := ID(len(s.versions))
	s.versions = append(s.versions, v.Clone())
	s.digests = append(s.digests, d)
	s.index[d] = id
	s.current = id
	return id
}

// Has reports whether id was assigned by this store.
func (s *Store) Has(id ID) bool {
	return id >= 0 && int(id) < len(s.versions)
}

// Current returns the id most recently saved or restored.
func (s *Store) Current() ID {
	return s.current
}

// SetCurrent moves the current pointer to an existing id.
func (s *Store) SetCurrent(id ID) {
	s.mustExist(id)
	s.current = id
}

// Digest returns the structural identity of the Version saved under id.
func (s *Store) Digest(id ID) string {
	s.mustExist(id)
	return s.digests[id]
}

// Len returns the number of distinct Versions retained.
func (s *Store) Len() int {
	return len(s.versions)
}

// Clone returns an independent store holding deep copies of every Version,
// with the same ids and the same current pointer.
func (s *Store) Clone() *Store {
	c := &Store{
		versions: make([]*Version, len(s.versions)),
		digests:  make([]string, len(s.digests)),
		index:    make(map[string]ID, len(s.index)),
		current:  s.current,
	}
	for i, v := range s.versions {
		c.versions[i] = v.Clone()
	}
	copy(c.digests, s.digests)
	for d, id := range s.index {
		c.index[d] = id
	}
	return c
}

func (s *Store) mustExist(id ID) {
	if !s.Has(id) {
		panic(fmt.Sprintf("version: unknown id %d (store has %d versions)", id, len(s.versions)))
	}
}
