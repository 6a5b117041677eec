package model

import (
	"errors"
	"fmt"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/version"
)

// CheckInvariants validates v against the structural rules of kind. All
// violations are joined into the returned error.
func CheckInvariants(kind Kind, v *version.Version) error {
	var errs []error
	fail := func(rule, format string, args ...any) {
		errs = append(errs, &InvariantError{Kind: kind, Rule: rule, Detail: fmt.Sprintf(format, args...)})
	}

	seen := make(map[ir.ThreadID]bool, len(v.Queue))
	for _, t := range v.Queue {
		if seen[t] {
			fail("queue_unique", "thread %d queued twice", t)
		}
		seen[t] = true
	}
	for _, t := range v.Shared {
		if !seen[t] {
			fail("shared_queued", "shared waiter %d is not queued", t)
		}
	}
	for t := range v.Requests {
		if !seen[t] {
			fail("request_queued", "request for %d outlived its wait", t)
		}
	}

	switch kind {
	case KindLock:
		if v.State < 0 {
			fail("hold_count", "negative hold count %d", v.State)
		}
		if (v.State > 0) != v.Owner.Valid() {
			fail("owner", "owner %d with hold count %d", v.Owner, v.State)
		}
		if v.Owner.Valid() && seen[v.Owner] {
			fail("owner_not_queued", "owner %d is also queued", v.Owner)
		}
	case KindSemaphore:
		if v.State < 0 && !v.Reduced {
			fail("permits", "%d permits without a reduction", v.State)
		}
	case KindLatch:
		if v.State < 0 {
			fail("count", "negative count %d", v.State)
		}
		if v.State == 0 && len(v.Queue) > 0 {
			fail("open_latch", "%d threads waiting on an open latch", len(v.Queue))
		}
	case KindCondition:
		for _, t := range v.Signalled {
			if seen[t] {
				fail("signalled", "signalled thread %d is still queued", t)
			}
		}
	case KindExchanger:
		for _, t := range v.Queue {
			if _, ok := v.Offers[t]; !ok {
				fail("offer", "waiter %d has no offer", t)
			}
			if v.Slots[t] != ir.EmptySlot {
				fail("slot", "waiter %d has a filled slot", t)
			}
		}
		for t := range v.Offers {
			if !seen[t] {
				fail("offer", "offer from %d is not queued", t)
			}
		}
		if len(v.Queue) > 1 {
			fail("pairing", "%d threads waiting with no exchange", len(v.Queue))
		}
	}
	return errors.Join(errs...)
}
