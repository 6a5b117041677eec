// Package version implements the snapshot layer of syncmodel: Version, an
// immutable-by-contract value describing one primitive's state, and Store, the
// per-instance pool that assigns dense integer ids to Versions.
//
// # Identity
//
// Two Versions are the same state when their canonical encodings are equal
// (same counters, same queue order, same flags and auxiliary maps). Store.Save
// collapses such Versions to one id. The search engine relies on this to
// recognize already-visited states, so the canonical encoding must cover every
// field that can influence a later operation.
//
// # Ownership
//
// A Store owns every Version it has produced for the lifetime of the search:
// any earlier id may be restored. Get returns the stored instance itself;
// callers that intend to mutate must Clone it first.
package version
