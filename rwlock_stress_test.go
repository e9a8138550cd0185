package asynx

import (
	"runtime"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestRWLock_ReadersAndWriters(t *testing.T) {
	l := New(0)
	var readers int32
	var writers int32

	const loops = 1000
	readerN := runtime.GOMAXPROCS(0)
	writerN := 2

	var eg errgroup.Group

	for range readerN {
		eg.Go(func() error {
			for range loops {
				g := l.Read().Await()
				n := atomic.AddInt32(&readers, 1)
				if atomic.LoadInt32(&writers) != 0 {
					t.Errorf("reader observed active writer")
					g.Unlock()
					return nil
				}
				if n <= 0 {
					t.Errorf("invalid reader count")
					g.Unlock()
					return nil
				}
				atomic.AddInt32(&readers, -1)
				g.Unlock()
			}
			return nil
		})
	}

	for range writerN {
		eg.Go(func() error {
			for range loops {
				g := l.Write().Await()
				if atomic.AddInt32(&writers, 1) != 1 {
					t.Errorf("multiple writers active")
					g.Unlock()
					return nil
				}
				if atomic.LoadInt32(&readers) != 0 {
					t.Errorf("writer observed active readers")
					g.Unlock()
					return nil
				}
				*g.Value()++
				atomic.AddInt32(&writers, -1)
				g.Unlock()
			}
			return nil
		})
	}

	_ = eg.Wait()

	if t.Failed() {
		return
	}
	if v := l.IntoInner(); v != writerN*loops {
		t.Fatalf("final value = %d, want %d", v, writerN*loops)
	}
}

func TestRWLock_StressWithIrqMasking(t *testing.T) {
	cpu := &fakeCpu{}
	l := NewWithCpu(0, cpu)

	const loops = 500
	var eg errgroup.Group
	for range 4 {
		eg.Go(func() error {
			for range loops {
				g := l.Read().Await()
				g.Unlock()
			}
			return nil
		})
		eg.Go(func() error {
			for range loops {
				g := l.Write().Await()
				*g.Value()++
				g.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	if d := cpu.depth.Load(); d != 0 {
		t.Fatalf("interrupt mask depth = %d after quiescence, want 0", d)
	}
	if v := l.IntoInner(); v != 4*loops {
		t.Fatalf("final value = %d, want %d", v, 4*loops)
	}
}
