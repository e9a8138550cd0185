//go:build race

package opt

import "sync"

const Race_ = true

// Sema under the race detector is a mutex/cond pair, so the detector
// observes the happens-before edge between Release and Acquire that the
// linkname fast path would hide from it.
type Sema struct {
	mu      sync.Mutex
	cond    *sync.Cond
	permits int
}

func (s *Sema) Acquire() {
	s.mu.Lock()
	if s.cond == nil {
		s.cond = sync.NewCond(&s.mu)
	}
	for s.permits == 0 {
		s.cond.Wait()
	}
	s.permits--
	s.mu.Unlock()
}

func (s *Sema) Release() {
	s.mu.Lock()
	if s.cond == nil {
		s.cond = sync.NewCond(&s.mu)
	}
	s.permits++
	s.cond.Signal()
	s.mu.Unlock()
}
