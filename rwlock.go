// Package asynx provides asynchronous synchronization primitives for
// cooperatively scheduled tasks.
//
// Unlike blocking locks, acquisition never stalls a hardware thread:
// it returns a poll-driven future. The surrounding scheduler polls the
// future; while the lock is unavailable the polling task's wake handle
// is queued and the task suspends, to be re-polled after a release
// wakes it. The primitives are safe to share across cores and their
// waiter queues are safe to touch from interrupt-driven wake paths
// (see CpuOps).
package asynx

import (
	"strconv"
	"sync/atomic"
)

const (
	rwUnlocked    = 0
	rwWriteLocked = -1
	// any state n >= 1 counts n concurrent readers
)

// RWLock is an asynchronous reader-writer lock owning a value of type T.
//
// Multiple readers or a single writer hold it at a time. Read() and
// Write() return futures; a successful poll yields a guard, and
// releasing the guard performs the release transition and wakes
// waiters.
//
// Properties:
//   - Lock-free fast path: a single CAS per acquisition/release on one
//     signed 32-bit state word (0 unlocked, -1 write-locked, n>=1
//     readers).
//   - Readers are never blocked by *pending* writers, only by an
//     active one. A write release alternates between draining all
//     queued readers and handing off to one queued writer, which
//     bounds (but does not eliminate) writer starvation.
//   - Write-waiter handoff is FIFO.
//
// The zero value is an unlocked lock over T's zero value, usable in
// static initializers.
type RWLock[T any] struct {
	_     noCopy
	state atomic.Int32

	readWaiters  waiterQueue
	writeWaiters waiterQueue

	// lastWokenWasWriter is the fairness alternation bit. It is
	// toggled exactly once per write release and never on read
	// release.
	lastWokenWasWriter atomic.Bool

	data T
}

// New creates an unlocked RWLock over data, with no interrupt
// management (see NewWithCpu).
func New[T any](data T) *RWLock[T] {
	return &RWLock[T]{data: data}
}

// NewWithCpu creates an unlocked RWLock over data whose waiter-queue
// critical sections mask local interrupts through cpu. Required when
// wakers may be invoked from interrupt context.
func NewWithCpu[T any](data T, cpu CpuOps) *RWLock[T] {
	l := &RWLock[T]{data: data}
	l.readWaiters.mu.cpu = cpu
	l.writeWaiters.mu.cpu = cpu
	return l
}

// IntoInner returns the protected value.
//
// Valid only once no guard or pending future can exist; the caller
// must own the lock outright. Calling it while the lock is held
// panics.
func (l *RWLock[T]) IntoInner() T {
	if s := l.state.Load(); s != rwUnlocked {
		panic("asynx: IntoInner of held RWLock")
	}
	return l.data
}

// Read returns a future resolving to a read guard.
func (l *RWLock[T]) Read() ReadFuture[T] {
	return ReadFuture[T]{rw: l}
}

// Write returns a future resolving to a write guard.
func (l *RWLock[T]) Write() WriteFuture[T] {
	return WriteFuture[T]{rw: l}
}

// TryRead attempts the read fast path without suspending.
func (l *RWLock[T]) TryRead() (*ReadGuard[T], bool) {
	if l.tryRead() {
		return &ReadGuard[T]{rw: l}, true
	}
	return nil, false
}

// TryWrite attempts the write fast path without suspending.
func (l *RWLock[T]) TryWrite() (*WriteGuard[T], bool) {
	if l.tryWrite() {
		return &WriteGuard[T]{rw: l}, true
	}
	return nil, false
}

// tryRead is the lock-free read fast path: increment the reader count
// unless a writer is active. Pending writers do not block it.
func (l *RWLock[T]) tryRead() bool {
	for {
		s := l.state.Load()
		if s >= 0 {
			if l.state.CompareAndSwap(s, s+1) {
				return true
			}
			continue
		}
		if s == rwWriteLocked {
			return false
		}
		badLockState(s)
	}
}

// tryWrite is the lock-free write fast path: claim exclusivity only
// from the fully unlocked state.
func (l *RWLock[T]) tryWrite() bool {
	for {
		s := l.state.Load()
		if s == rwUnlocked {
			if l.state.CompareAndSwap(rwUnlocked, rwWriteLocked) {
				return true
			}
			continue
		}
		if s < rwWriteLocked {
			badLockState(s)
		}
		return false
	}
}

// readRelease undoes one read acquisition. The last reader out wakes
// one queued writer, if any.
func (l *RWLock[T]) readRelease() {
	for {
		s := l.state.Load()
		if s >= 2 {
			if l.state.CompareAndSwap(s, s-1) {
				return
			}
			continue
		}
		if s == 1 {
			if l.state.CompareAndSwap(1, rwUnlocked) {
				l.writeWaiters.wakeOne()
				return
			}
			continue
		}
		badLockState(s)
	}
}

// writeRelease releases exclusivity and applies the fairness policy.
func (l *RWLock[T]) writeRelease() {
	// Alternate between waking readers and writers to bound writer
	// starvation. Only the write holder reaches this, so the
	// load/store pair cannot race with another toggle.
	wasWriter := l.lastWokenWasWriter.Load()
	l.lastWokenWasWriter.Store(!wasWriter)

	if s := l.state.Swap(rwUnlocked); s != rwWriteLocked {
		badLockState(s)
	}

	l.readWaiters.mu.Lock()
	l.writeWaiters.mu.Lock()
	if (wasWriter && len(l.readWaiters.list) > 0) || len(l.writeWaiters.list) == 0 {
		l.readWaiters.drain()
	} else if w, ok := l.writeWaiters.popFront(); ok {
		w.Wake()
	}
	l.writeWaiters.mu.Unlock()
	l.readWaiters.mu.Unlock()
}

func badLockState(s int32) {
	// A state outside {-1, 0, 1, 2, ...} means the shared word was
	// corrupted; continuing would be unsafe.
	panic("asynx: RWLock state corrupted: " + strconv.FormatInt(int64(s), 10))
}

// ReadFuture resolves to a ReadGuard once the lock admits a reader.
// It holds no state beyond the lock reference; completion happens only
// through a successful Poll.
type ReadFuture[T any] struct {
	rw *RWLock[T]
}

// Poll attempts the read fast path. On success it returns the guard
// and true. Otherwise it registers w in the read-waiter queue
// (idempotently, so unproductive re-polls do not grow the queue) and
// returns false; the task should suspend until w is woken.
func (f ReadFuture[T]) Poll(w Waker) (*ReadGuard[T], bool) {
	rw := f.rw
	if rw.tryRead() {
		return &ReadGuard[T]{rw: rw}, true
	}
	rw.readWaiters.register(w)
	// Re-check after registering: a writer release between the failed
	// fast path and the registration would otherwise be a lost wakeup.
	if rw.tryRead() {
		rw.readWaiters.remove(w)
		return &ReadGuard[T]{rw: rw}, true
	}
	return nil, false
}

// Await blocks the calling goroutine until the future resolves.
// It is the reference scheduler embedding: poll, park on pending,
// re-poll on wake.
func (f ReadFuture[T]) Await() *ReadGuard[T] {
	var w semaWaker
	for {
		if g, ok := f.Poll(&w); ok {
			return g
		}
		w.sleep()
	}
}

// WriteFuture resolves to a WriteGuard once the lock is fully free.
type WriteFuture[T any] struct {
	rw *RWLock[T]
}

// Poll attempts the write fast path. On failure it registers w in the
// write-waiter queue (idempotently) and returns false.
func (f WriteFuture[T]) Poll(w Waker) (*WriteGuard[T], bool) {
	rw := f.rw
	if rw.tryWrite() {
		return &WriteGuard[T]{rw: rw}, true
	}
	rw.writeWaiters.register(w)
	if rw.tryWrite() {
		rw.writeWaiters.remove(w)
		return &WriteGuard[T]{rw: rw}, true
	}
	return nil, false
}

// Await blocks the calling goroutine until the future resolves.
func (f WriteFuture[T]) Await() *WriteGuard[T] {
	var w semaWaker
	for {
		if g, ok := f.Poll(&w); ok {
			return g
		}
		w.sleep()
	}
}

// ReadGuard grants read access to the protected value for as long as
// it exists. Unlock releases it; a guard must be released exactly once
// and must not outlive its lock.
type ReadGuard[T any] struct {
	_  noCopy
	rw *RWLock[T]
}

// Get returns the protected value.
func (g *ReadGuard[T]) Get() T {
	if g.rw == nil {
		panic("asynx: use of released ReadGuard")
	}
	return g.rw.data
}

// Unlock releases the read hold. The last reader out wakes one queued
// writer. Unlocking twice panics.
func (g *ReadGuard[T]) Unlock() {
	rw := g.rw
	if rw == nil {
		panic("asynx: Unlock of released ReadGuard")
	}
	g.rw = nil
	rw.readRelease()
}

// WriteGuard grants exclusive read-write access to the protected value
// for as long as it exists.
type WriteGuard[T any] struct {
	_  noCopy
	rw *RWLock[T]
}

// Value returns a pointer to the protected value for in-place access.
// The pointer is valid only until Unlock.
func (g *WriteGuard[T]) Value() *T {
	if g.rw == nil {
		panic("asynx: use of released WriteGuard")
	}
	return &g.rw.data
}

// Get returns the protected value.
func (g *WriteGuard[T]) Get() T {
	return *g.Value()
}

// Set replaces the protected value.
func (g *WriteGuard[T]) Set(v T) {
	*g.Value() = v
}

// Unlock releases exclusivity and applies the fairness policy: after
// toggling the alternation bit, either all queued readers are drained
// or one queued writer is woken (see RWLock). Unlocking twice panics.
func (g *WriteGuard[T]) Unlock() {
	rw := g.rw
	if rw == nil {
		panic("asynx: Unlock of released WriteGuard")
	}
	g.rw = nil
	rw.writeRelease()
}
