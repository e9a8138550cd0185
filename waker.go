package asynx

import (
	"github.com/llxisdsh/asynx/internal/opt"
)

// Waker is a wake handle identifying a suspended task.
//
// When a lock becomes available, the releasing side pops wakers from the
// relevant waiter queue and invokes Wake, which must mark the task
// runnable so the scheduler re-polls its pending future. Wake is called
// with an interrupt-masking spin lock held and therefore must not block,
// allocate unboundedly, or acquire any asynx primitive.
//
// Waking a task that has since abandoned its future is a harmless no-op.
type Waker interface {
	Wake()

	// WillWake reports whether invoking this waker would wake the same
	// task as other. Queues use it to drop duplicate registrations when
	// a future is re-polled without progress, so it must compare stable
	// task identity, not handle internals.
	WillWake(other Waker) bool
}

// semaWaker parks a goroutine; Wake releases it. It backs Await, which
// is the reference embedding of the poll/suspend/resume contract for
// ordinary goroutine callers.
type semaWaker struct {
	sema opt.Sema
}

func (w *semaWaker) Wake() {
	w.sema.Release()
}

func (w *semaWaker) WillWake(other Waker) bool {
	o, ok := other.(*semaWaker)
	return ok && o == w
}

func (w *semaWaker) sleep() {
	w.sema.Acquire()
}
