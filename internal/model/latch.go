package model

import (
	"time"

	"github.com/roach88/syncmodel/internal/ir"
	"github.com/roach88/syncmodel/internal/version"
)

// Latch models a countdown latch. State is the remaining count.
type Latch struct {
	*Model
}

func newLatchVersion(count int64) *version.Version {
	v := version.New()
	v.State = count
	return v
}

func opened(v *version.Version, _ ir.ThreadID) bool {
	return v.State == 0
}

// CountDown decrements the count. Reaching zero releases every waiter; a
// count already at zero is left alone.
func (l *Latch) CountDown(c *Call) {
	l.begin(c)
	defer l.commit()

	if l.v.State == 0 {
		return
	}
	l.v.State--
	if l.v.State == 0 {
		l.signalAll(false)
	}
}

// Count returns the remaining count.
func (l *Latch) Count() int64 {
	return l.v.State
}

// Await waits for the count to reach zero unless interrupted. An open latch
// returns at once, even to an interrupted caller.
func (l *Latch) Await(c *Call) error {
	l.begin(c)
	defer l.commit()
	_, err := l.wait(c, waitSpec{ready: opened, interruptible: true})
	return err
}

// AwaitTimeout waits up to timeout and reports whether the latch opened.
func (l *Latch) AwaitTimeout(c *Call, timeout time.Duration) (bool, error) {
	l.begin(c)
	defer l.commit()
	return l.wait(c, waitSpec{ready: opened, interruptible: true, timed: true, timeout: timeout})
}
