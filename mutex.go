package asynx

import (
	"strconv"
	"sync/atomic"
)

// Mutex is an asynchronous mutual-exclusion lock owning a value of
// type T — the exclusive-only sibling of RWLock.
//
// Lock() returns a future; a successful poll yields a guard, and
// releasing the guard wakes the oldest queued waiter. Handoff is FIFO.
//
// The zero value is an unlocked mutex over T's zero value.
type Mutex[T any] struct {
	_       noCopy
	state   atomic.Int32 // 0 unlocked, -1 locked
	waiters waiterQueue
	data    T
}

// NewMutex creates an unlocked Mutex over data, with no interrupt
// management (see NewMutexWithCpu).
func NewMutex[T any](data T) *Mutex[T] {
	return &Mutex[T]{data: data}
}

// NewMutexWithCpu creates an unlocked Mutex over data whose
// waiter-queue critical sections mask local interrupts through cpu.
func NewMutexWithCpu[T any](data T, cpu CpuOps) *Mutex[T] {
	m := &Mutex[T]{data: data}
	m.waiters.mu.cpu = cpu
	return m
}

// IntoInner returns the protected value. Valid only once no guard or
// pending future can exist; calling it while the mutex is held panics.
func (m *Mutex[T]) IntoInner() T {
	if s := m.state.Load(); s != rwUnlocked {
		panic("asynx: IntoInner of held Mutex")
	}
	return m.data
}

// Lock returns a future resolving to a guard.
func (m *Mutex[T]) Lock() LockFuture[T] {
	return LockFuture[T]{m: m}
}

// TryLock attempts the fast path without suspending.
func (m *Mutex[T]) TryLock() (*MutexGuard[T], bool) {
	if m.tryLock() {
		return &MutexGuard[T]{m: m}, true
	}
	return nil, false
}

func (m *Mutex[T]) tryLock() bool {
	for {
		s := m.state.Load()
		if s == rwUnlocked {
			if m.state.CompareAndSwap(rwUnlocked, rwWriteLocked) {
				return true
			}
			continue
		}
		if s != rwWriteLocked {
			badMutexState(s)
		}
		return false
	}
}

func (m *Mutex[T]) release() {
	if s := m.state.Swap(rwUnlocked); s != rwWriteLocked {
		badMutexState(s)
	}
	m.waiters.wakeOne()
}

func badMutexState(s int32) {
	panic("asynx: Mutex state corrupted: " + strconv.FormatInt(int64(s), 10))
}

// LockFuture resolves to a MutexGuard once the mutex is free.
type LockFuture[T any] struct {
	m *Mutex[T]
}

// Poll attempts the fast path. On failure it registers w in the waiter
// queue (idempotently) and returns false.
func (f LockFuture[T]) Poll(w Waker) (*MutexGuard[T], bool) {
	m := f.m
	if m.tryLock() {
		return &MutexGuard[T]{m: m}, true
	}
	m.waiters.register(w)
	// Re-check after registering to close the lost-wakeup window.
	if m.tryLock() {
		m.waiters.remove(w)
		return &MutexGuard[T]{m: m}, true
	}
	return nil, false
}

// Await blocks the calling goroutine until the future resolves.
func (f LockFuture[T]) Await() *MutexGuard[T] {
	var w semaWaker
	for {
		if g, ok := f.Poll(&w); ok {
			return g
		}
		w.sleep()
	}
}

// MutexGuard grants exclusive access to the protected value for as
// long as it exists.
type MutexGuard[T any] struct {
	_ noCopy
	m *Mutex[T]
}

// Value returns a pointer to the protected value for in-place access.
// The pointer is valid only until Unlock.
func (g *MutexGuard[T]) Value() *T {
	if g.m == nil {
		panic("asynx: use of released MutexGuard")
	}
	return &g.m.data
}

// Get returns the protected value.
func (g *MutexGuard[T]) Get() T {
	return *g.Value()
}

// Set replaces the protected value.
func (g *MutexGuard[T]) Set(v T) {
	*g.Value() = v
}

// Unlock releases the mutex and wakes the oldest queued waiter.
// Unlocking twice panics.
func (g *MutexGuard[T]) Unlock() {
	m := g.m
	if m == nil {
		panic("asynx: Unlock of released MutexGuard")
	}
	g.m = nil
	m.release()
}
