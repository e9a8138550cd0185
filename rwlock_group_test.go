package asynx

import (
	"testing"
)

func TestRWLockGroup_KeyIsolation(t *testing.T) {
	var group RWLockGroup[string, int]

	w := group.Write("a").Await()
	w.Set(1)

	// A writer on "a" must not block readers of "b".
	r, ok := group.Read("b").Poll(&testWaker{})
	if !ok {
		t.Fatal("reader of another key blocked")
	}
	r.Unlock()

	// But it does block readers of "a".
	var rw testWaker
	rf := group.Read("a")
	if _, ok := rf.Poll(&rw); ok {
		t.Fatal("reader of locked key resolved")
	}

	w.Unlock()
	if rw.wakes.Load() != 1 {
		t.Fatalf("reader woken %d times after release, want 1", rw.wakes.Load())
	}
	g, ok := rf.Poll(&rw)
	if !ok {
		t.Fatal("reader still pending after wake")
	}
	if g.Get() != 1 {
		t.Fatalf("Get = %d, want 1", g.Get())
	}
	g.Unlock()
}

func TestRWLockGroup_SameKeySameLock(t *testing.T) {
	var group RWLockGroup[int, struct{}]
	if group.Get(1) != group.Get(1) {
		t.Fatal("same key returned distinct locks")
	}
	if group.Get(1) == group.Get(2) {
		t.Fatal("distinct keys returned the same lock")
	}
}

func TestRWLockGroup_WithCpu(t *testing.T) {
	cpu := &fakeCpu{}
	group := NewRWLockGroupWithCpu[string, int](cpu)

	g := group.Write("k").Await()
	g.Set(9)
	g.Unlock()

	r := group.Read("k").Await()
	if r.Get() != 9 {
		t.Fatalf("Get = %d, want 9", r.Get())
	}
	r.Unlock()

	if d := cpu.depth.Load(); d != 0 {
		t.Fatalf("interrupt mask depth = %d after quiescence, want 0", d)
	}
}
