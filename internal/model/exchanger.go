package model

import (
	"time"

	"github.com/roach88/syncmodel/internal/ir"
)

// Exchanger models a two-party rendezvous. A waiting thread holds an entry
// in Offers with its value and an entry in Slots that stays ir.EmptySlot
// until a partner fills it. Values held by the model are pinned.
type Exchanger struct {
	*Model
}

// Exchange hands value to a partner and returns the partner's value,
// waiting until one arrives unless interrupted.
func (x *Exchanger) Exchange(c *Call, value ir.Ref) (ir.Ref, error) {
	x.begin(c)
	defer x.commit()
	got, _, err := x.exchange(c, value, false, 0)
	return got, err
}

// ExchangeTimeout is Exchange bounded by timeout. The boolean is false when
// the wait timed out.
func (x *Exchanger) ExchangeTimeout(c *Call, value ir.Ref, timeout time.Duration) (ir.Ref, bool, error) {
	x.begin(c)
	defer x.commit()
	return x.exchange(c, value, true, timeout)
}

func (x *Exchanger) exchange(c *Call, value ir.Ref, timed bool, timeout time.Duration) (ir.Ref, bool, error) {
	if value == ir.EmptySlot {
		return ir.NullRef, false, x.hostError(c, ErrCodeIllegalArgument, "value %d is reserved for an unfilled slot", value)
	}

	t := c.Thread
	switch c.Phase {
	case PhaseBlocked:
		c.settle()
		return ir.NullRef, false, nil
	case PhaseSettling:
		if got, ok := x.v.Slots[t]; ok && got != ir.EmptySlot {
			delete(x.v.Slots, t)
			x.v.Slots = normalizeRefs(x.v.Slots)
			x.unpin(got)
			x.consumeWakeup(t)
			return got, true, nil
		}
	}

	if err := x.checkInterrupt(c); err != nil {
		x.withdraw(t)
		return ir.NullRef, false, err
	}

	if c.Phase == PhaseNotEntered && len(x.v.Queue) > 0 {
		return x.complete(value), true, nil
	}

	if timed && (timeout <= 0 || c.TimedOut) {
		x.withdraw(t)
		return ir.NullRef, false, nil
	}

	if _, waiting := x.v.Offers[t]; !waiting {
		x.offer(t, value)
	}
	if !timed {
		timeout = 0
	}
	x.block(c, false, timeout)
	return ir.NullRef, false, nil
}

// complete takes the longest waiter's offer, fills its slot with value and
// wakes it.
func (x *Exchanger) complete(value ir.Ref) ir.Ref {
	partner := x.v.Queue[0]
	got := x.v.Offers[partner]
	delete(x.v.Offers, partner)
	x.v.Offers = normalizeRefs(x.v.Offers)
	x.v.Slots[partner] = value
	x.pin(value)
	x.unpin(got)
	x.dequeueFirst()
	return got
}

func (x *Exchanger) offer(t ir.ThreadID, value ir.Ref) {
	if x.v.Offers == nil {
		x.v.Offers = make(map[ir.ThreadID]ir.Ref)
	}
	if x.v.Slots == nil {
		x.v.Slots = make(map[ir.ThreadID]ir.Ref)
	}
	x.v.Offers[t] = value
	x.v.Slots[t] = ir.EmptySlot
	x.pin(value)
}

// withdraw cancels t's pending offer after an interrupt or timeout.
func (x *Exchanger) withdraw(t ir.ThreadID) {
	x.removeFromQueue(t)
	x.consumeWakeup(t)
	if value, ok := x.v.Offers[t]; ok {
		delete(x.v.Offers, t)
		x.v.Offers = normalizeRefs(x.v.Offers)
		x.unpin(value)
	}
	delete(x.v.Slots, t)
	x.v.Slots = normalizeRefs(x.v.Slots)
}

func normalizeRefs(m map[ir.ThreadID]ir.Ref) map[ir.ThreadID]ir.Ref {
	if len(m) == 0 {
		return nil
	}
	return m
}
