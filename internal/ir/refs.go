package ir

import "strconv"

// ThreadID identifies a logical thread of the host program.
// Identities are assigned by the host and are never reused within a search.
type ThreadID int

// NoThread marks an unset owner or lastRemoved slot.
const NoThread ThreadID = -1

// Valid reports whether t names a real thread.
func (t ThreadID) Valid() bool {
	return t >= 0
}

// String returns the decimal form used as a canonical object key.
func (t ThreadID) String() string {
	return strconv.Itoa(int(t))
}

// Ref is a reference to an object on the host heap.
type Ref int64

const (
	// NullRef is the host's null sentinel.
	NullRef Ref = 0

	// EmptySlot marks an exchanger slot that exists but has not been filled.
	// It is distinct from NullRef because null is a legal exchanged value.
	EmptySlot Ref = -1
)

// IsNull reports whether r is the null sentinel.
func (r Ref) IsNull() bool {
	return r == NullRef
}

// String returns the decimal form of the reference.
func (r Ref) String() string {
	return strconv.FormatInt(int64(r), 10)
}
