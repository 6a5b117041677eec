package model

import (
	"fmt"
	"log/slog"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/version"
)

// Kind is the closed set of primitive variants.
type Kind int

const (
	KindSynchronizer Kind = iota + 1
	KindLock
	KindSemaphore
	KindLatch
	KindCondition
	KindExchanger
)

var kindNames = map[Kind]string{
	KindSynchronizer: "synchronizer",
	KindLock:         "lock",
	KindSemaphore:    "semaphore",
	KindLatch:        "latch",
	KindCondition:    "condition",
	KindExchanger:    "exchanger",
}

// String returns the kind's scenario name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a scenario name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown primitive kind %q", name)
}

// Model binds one logical primitive instance to its version store.
//
// The Model holds a working copy of the current Version. Public operations
// stage their changes on it between begin and commit; commit saves it and
// the resulting id is what the host persists on the object.
type Model struct {
	kind  Kind
	ref   ir.Ref
	store *version.Store
	v     *version.Version
	call  *Call
	log   *slog.Logger
}

func newModel(kind Kind, ref ir.Ref, initial *version.Version, log *slog.Logger) *Model {
	m := &Model{
		kind:  kind,
		ref:   ref,
		store: version.NewStore(initial),
		log:   log,
	}
	m.restore(version.Initial)
	return m
}

// Kind returns the primitive variant.
func (m *Model) Kind() Kind {
	return m.kind
}

// Ref returns the host object this model belongs to.
func (m *Model) Ref() ir.Ref {
	return m.ref
}

// VersionID returns the id the host must persist after an operation.
func (m *Model) VersionID() version.ID {
	return m.store.Current()
}

// Digest returns the structural identity of the current Version.
func (m *Model) Digest() string {
	return m.store.Digest(m.store.Current())
}

// Version returns the stored current Version. It must not be modified.
func (m *Model) Version() *version.Version {
	return m.store.Get(m.store.Current())
}

// Versions returns the number of distinct Versions retained.
func (m *Model) Versions() int {
	return m.store.Len()
}

// State returns the generic numeric state.
func (m *Model) State() int64 {
	return m.v.State
}

// SetState overwrites the generic numeric state. It is a helper for the
// primitives built on it; Synchronizer exposes the checkpointed variant.
func (m *Model) setState(s int64) {
	m.v.State = s
}

// IsFair reports the fairness policy the primitive was created with.
func (m *Model) IsFair() bool {
	return m.v.Fair
}

func (m *Model) restore(id version.ID) {
	m.store.SetCurrent(id)
	m.v = m.store.Get(id).Clone()
}

// begin marks the start of a public state-mutating operation.
func (m *Model) begin(c *Call) {
	if m.call != nil {
		panic(errNestedOperation)
	}
	m.call = c
}

// commit saves the working copy exactly once and ends the operation.
func (m *Model) commit() {
	id := m.store.Save(m.v)
	m.log.Debug("checkpoint",
		"kind", m.kind.String(),
		"ref", int64(m.ref),
		"thread", int(m.call.Thread),
		"version", int(id),
		"parked", m.call.parked,
	)
	m.call = nil
}

// clone returns an independent model bound to a deep copy of the store.
func (m *Model) clone() *Model {
	c := &Model{
		kind:  m.kind,
		ref:   m.ref,
		store: m.store.Clone(),
		log:   m.log,
	}
	c.v = c.store.Get(c.store.Current()).Clone()
	return c
}

// pin keeps ref alive while only this model's state references it.
func (m *Model) pin(ref ir.Ref) {
	if !ref.IsNull() {
		m.call.host.Pin(ref)
	}
}

func (m *Model) unpin(ref ir.Ref) {
	if !ref.IsNull() {
		m.call.host.Unpin(ref)
	}
}

func (m *Model) hostError(c *Call, code ErrorCode, format string, args ...any) *HostError {
	return &HostError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Thread:  c.Thread,
		Ref:     m.ref,
	}
}

// checkNotNullThread validates a thread argument before any mutation.
func (m *Model) checkNotNullThread(c *Call, t ir.ThreadID) error {
	if !t.Valid() {
		return m.hostError(c, ErrCodeNullPointer, "thread argument is null")
	}
	return nil
}

// checkNonNegative validates a count argument before any mutation.
func (m *Model) checkNonNegative(c *Call, name string, n int64) error {
	if n < 0 {
		return m.hostError(c, ErrCodeIllegalArgument, "%s must be non-negative, got %d", name, n)
	}
	return nil
}
