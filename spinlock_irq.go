package asynx

import (
	"sync/atomic"
)

// SpinLockIrq is a fair, FIFO spin-lock that additionally masks
// interrupt delivery on the current core while held.
//
// It guards the waiter queues of the asynchronous primitives in this
// package: queue mutation can be reached both from task code and from
// interrupt-triggered wake paths, and the structures must never be
// observed half-mutated from interrupt context.
//
// Implementation:
// The classic "ticket" algorithm (strict arrival-order handoff), with
// the interrupt-enable state saved before the ticket is drawn and
// restored after release. With a nil CpuOps it degrades to a plain
// ticket spin-lock.
//
// Critical sections must be strictly bounded (push/pop only): no I/O,
// no allocation-sensitive work, no blocking while held.
type SpinLockIrq struct {
	_       noCopy
	cpu     CpuOps
	next    atomic.Uint32
	serving atomic.Uint32
	// saved is written only by the current holder, between acquire
	// and release.
	saved IrqState
}

// NewSpinLockIrq returns a lock whose critical sections mask local
// interrupts through cpu. The zero value is a valid lock with no
// interrupt management.
func NewSpinLockIrq(cpu CpuOps) *SpinLockIrq {
	return &SpinLockIrq{cpu: cpu}
}

// Lock acquires the lock, masking local interrupts first.
// Blocks (spins) until the lock is available.
func (l *SpinLockIrq) Lock() {
	irq := saveIrq(l.cpu)
	my := l.next.Add(1) - 1
	var spins int
	for l.serving.Load() != my {
		delay(&spins)
	}
	l.saved = irq
}

// Unlock releases the lock and restores the interrupt-enable state
// saved by the matching Lock.
func (l *SpinLockIrq) Unlock() {
	irq := l.saved
	l.serving.Add(1)
	restoreIrq(l.cpu, irq)
}
