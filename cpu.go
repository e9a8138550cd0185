package asynx

// IrqState is the opaque saved interrupt-enable state of the local core,
// as returned by CpuOps.SaveIrq. Its encoding belongs entirely to the
// CpuOps implementation.
type IrqState uintptr

// CpuOps abstracts the only piece of hardware the primitives in this
// package touch: the current core's interrupt-enable flag.
//
// The waiter queues can be mutated both from task code and from
// interrupt-driven wake paths (e.g. a timer firing a waker), so the
// spin locks guarding them must mask local interrupt delivery for the
// duration of the critical section. The surrounding kernel supplies
// the platform implementation at construction time.
//
// A nil CpuOps is valid and means "no interrupt management": the
// primitives degrade to plain spin locks, which is the correct mode in
// userspace and in tests. This keeps zero-value construction legal in
// static initializers.
type CpuOps interface {
	// SaveIrq disables interrupt delivery on the current core and
	// returns the state to pass to RestoreIrq.
	SaveIrq() IrqState
	// RestoreIrq restores the interrupt-enable state previously
	// returned by SaveIrq.
	RestoreIrq(IrqState)
}

func saveIrq(cpu CpuOps) IrqState {
	if cpu == nil {
		return 0
	}
	return cpu.SaveIrq()
}

func restoreIrq(cpu CpuOps, s IrqState) {
	if cpu != nil {
		cpu.RestoreIrq(s)
	}
}
