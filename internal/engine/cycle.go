package engine

// visitedSet records the search states Explore has expanded, keyed by
// StateDigest, together with the shallowest depth each was reached at.
//
// A state cut off by the depth bound may later be reached by a shorter
// path; it is expanded again then, since more of its subtree now fits.
type visitedSet struct {
	depth map[string]int
}

func newVisitedSet() *visitedSet {
	return &visitedSet{depth: make(map[string]int)}
}

// visit reports whether the state must be expanded at depth and records it.
func (v *visitedSet) visit(digest string, depth int) bool {
	if seen, ok := v.depth[digest]; ok && seen <= depth {
		return false
	}
	v.depth[digest] = depth
	return true
}

// Len returns the number of distinct states seen.
func (v *visitedSet) Len() int {
	return len(v.depth)
}
