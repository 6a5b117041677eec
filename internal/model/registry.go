package model

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/version"
)

// Registry is the session table of live models, keyed by host reference.
// The host passes it into every call; snapshots of it are the backtracking
// boundary of the search.
type Registry struct {
	models map[ir.Ref]*Model
	log    *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger that receives checkpoint and wakeup records.
func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		models: make(map[ir.Ref]*Model),
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// resolve returns the model for ref restored to id, creating it from
// initial when ref is new. A new model only accepts version.Initial.
func (r *Registry) resolve(ref ir.Ref, kind Kind, id version.ID, initial func() *version.Version) (*Model, error) {
	if ref.IsNull() {
		return nil, &HostError{Code: ErrCodeNullPointer, Message: "primitive reference is null", Thread: ir.NoThread, Ref: ref}
	}

	m, ok := r.models[ref]
	if !ok {
		if id != version.Initial {
			return nil, &UnknownVersionError{Ref: ref, ID: id}
		}
		m = newModel(kind, ref, initial(), r.log)
		r.models[ref] = m
		r.log.Debug("model created", "kind", kind.String(), "ref", int64(ref))
		return m, nil
	}

	if m.kind != kind {
		return nil, &KindMismatchError{Ref: ref, Have: m.kind, Want: kind}
	}
	if !m.store.Has(id) {
		return nil, &UnknownVersionError{Ref: ref, ID: id}
	}
	m.restore(id)
	return m, nil
}

// Lock resolves ref as a reentrant lock. fair only applies on creation.
func (r *Registry) Lock(ref ir.Ref, id version.ID, fair bool) (*Lock, error) {
	m, err := r.resolve(ref, KindLock, id, func() *version.Version {
		return newLockVersion(fair)
	})
	if err != nil {
		return nil, err
	}
	return &Lock{m}, nil
}

// Semaphore resolves ref as a counting semaphore. permits and fair only apply
// on creation; a negative initial count is allowed.
func (r *Registry) Semaphore(ref ir.Ref, id version.ID, permits int64, fair bool) (*Semaphore, error) {
	m, err := r.resolve(ref, KindSemaphore, id, func() *version.Version {
		return newSemaphoreVersion(permits, fair)
	})
	if err != nil {
		return nil, err
	}
	return &Semaphore{m}, nil
}

// Latch resolves ref as a countdown latch starting at count.
func (r *Registry) Latch(ref ir.Ref, id version.ID, count int64) (*Latch, error) {
	if _, ok := r.models[ref]; !ok && count < 0 {
		return nil, &HostError{Code: ErrCodeIllegalArgument, Message: "latch count must be non-negative", Thread: ir.NoThread, Ref: ref}
	}
	m, err := r.resolve(ref, KindLatch, id, func() *version.Version {
		return newLatchVersion(count)
	})
	if err != nil {
		return nil, err
	}
	return &Latch{m}, nil
}

// Condition resolves ref as a condition variable.
func (r *Registry) Condition(ref ir.Ref, id version.ID) (*Condition, error) {
	m, err := r.resolve(ref, KindCondition, id, version.New)
	if err != nil {
		return nil, err
	}
	return &Condition{m}, nil
}

// Exchanger resolves ref as a rendezvous exchanger.
func (r *Registry) Exchanger(ref ir.Ref, id version.ID) (*Exchanger, error) {
	m, err := r.resolve(ref, KindExchanger, id, version.New)
	if err != nil {
		return nil, err
	}
	return &Exchanger{m}, nil
}

// Synchronizer resolves ref as a generic queued synchronizer.
func (r *Registry) Synchronizer(ref ir.Ref, id version.ID) (*Synchronizer, error) {
	m, err := r.resolve(ref, KindSynchronizer, id, version.New)
	if err != nil {
		return nil, err
	}
	return &Synchronizer{m}, nil
}

// Lookup returns the model bound to ref without restoring it.
func (r *Registry) Lookup(ref ir.Ref) (*Model, bool) {
	m, ok := r.models[ref]
	return m, ok
}

// Release drops the model for ref once the host reports it unreachable.
func (r *Registry) Release(ref ir.Ref) {
	if _, ok := r.models[ref]; ok {
		delete(r.models, ref)
		r.log.Debug("model released", "ref", int64(ref))
	}
}

// Len returns the number of live models.
func (r *Registry) Len() int {
	return len(r.models)
}

// Refs returns the live references in ascending order.
func (r *Registry) Refs() []ir.Ref {
	return slices.Sorted(maps.Keys(r.models))
}

// Snapshot is an independent copy of every live model and its store.
type Snapshot struct {
	models map[ir.Ref]*Model
}

// Snapshot copies every live model.
func (r *Registry) Snapshot() *Snapshot {
	return &Snapshot{models: cloneModels(r.models)}
}

// Restore replaces the live table with a copy of s. s stays valid and can be
// restored again.
func (r *Registry) Restore(s *Snapshot) {
	r.models = cloneModels(s.models)
}

func cloneModels(in map[ir.Ref]*Model) map[ir.Ref]*Model {
	out := make(map[ir.Ref]*Model, len(in))
	for ref, m := range in {
		out[ref] = m.clone()
	}
	return out
}
