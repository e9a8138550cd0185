package asynx

import (
	"github.com/llxisdsh/pb"
)

// RWLockGroup provides asynchronous reader-writer locking on arbitrary
// keys. Each key lazily gets its own RWLock over T's zero value.
//
// Usage:
//
//	var group RWLockGroup[string, config]
//
//	// Readers
//	g := group.Read("main").Await()
//	use(g.Get())
//	g.Unlock()
//
//	// Writer
//	w := group.Write("main").Await()
//	w.Set(next)
//	w.Unlock()
//
// Locks persist for the group's lifetime: an asynchronous guard cannot
// know when its key goes idle, so there is no refcounted cleanup. The
// per-key footprint is one lock, so this only matters for unbounded
// key spaces.
type RWLockGroup[K comparable, T any] struct {
	_   noCopy
	cpu CpuOps
	m   pb.MapOf[K, *RWLock[T]]
}

// NewRWLockGroupWithCpu creates a group whose locks mask local
// interrupts through cpu. The zero value of RWLockGroup is a valid
// group with no interrupt management.
func NewRWLockGroupWithCpu[K comparable, T any](cpu CpuOps) *RWLockGroup[K, T] {
	return &RWLockGroup[K, T]{cpu: cpu}
}

// Get returns the lock for k, creating it on first use.
func (g *RWLockGroup[K, T]) Get(k K) *RWLock[T] {
	l, _ := g.m.ProcessEntry(
		k,
		func(e *pb.EntryOf[K, *RWLock[T]]) (*pb.EntryOf[K, *RWLock[T]], *RWLock[T], bool) {
			if e != nil {
				return e, e.Value, true
			}
			var zero T
			l := NewWithCpu(zero, g.cpu)
			return &pb.EntryOf[K, *RWLock[T]]{Value: l}, l, false
		},
	)
	return l
}

// Read returns a future resolving to a read guard for k's lock.
func (g *RWLockGroup[K, T]) Read(k K) ReadFuture[T] {
	return g.Get(k).Read()
}

// Write returns a future resolving to a write guard for k's lock.
func (g *RWLockGroup[K, T]) Write(k K) WriteFuture[T] {
	return g.Get(k).Write()
}
