package asynx

// waiterQueue is a FIFO queue of wake handles for suspended tasks,
// guarded by an interrupt-masking spin lock.
//
// Entries are appended on failed polls and removed only by being
// popped-and-woken. Re-polling a pending future must not grow the
// queue, so push drops wakers that would wake an already-queued task.
type waiterQueue struct {
	mu   SpinLockIrq
	list []Waker
}

// register appends w unless a waker for the same task is already
// queued.
func (q *waiterQueue) register(w Waker) {
	q.mu.Lock()
	q.push(w)
	q.mu.Unlock()
}

// push appends w with dedup. Caller must hold q.mu.
func (q *waiterQueue) push(w Waker) {
	for _, queued := range q.list {
		if queued.WillWake(w) {
			return
		}
	}
	q.list = append(q.list, w)
}

// popFront removes and returns the oldest waker. Caller must hold q.mu.
func (q *waiterQueue) popFront() (Waker, bool) {
	if len(q.list) == 0 {
		return nil, false
	}
	w := q.list[0]
	q.list[0] = nil
	q.list = q.list[1:]
	return w, true
}

// remove deletes the queued waker that would wake the same task as w,
// if present. Used when a poll succeeds after registering, so the
// stale entry cannot swallow a wake meant for a live waiter.
func (q *waiterQueue) remove(w Waker) {
	q.mu.Lock()
	for i, queued := range q.list {
		if queued.WillWake(w) {
			copy(q.list[i:], q.list[i+1:])
			q.list[len(q.list)-1] = nil
			q.list = q.list[:len(q.list)-1]
			break
		}
	}
	q.mu.Unlock()
}

// wakeOne pops and wakes the oldest waker, if any.
func (q *waiterQueue) wakeOne() {
	q.mu.Lock()
	if w, ok := q.popFront(); ok {
		w.Wake()
	}
	q.mu.Unlock()
}

// drain wakes every queued waker in FIFO order and empties the queue.
// Caller must hold q.mu.
func (q *waiterQueue) drain() {
	for i, w := range q.list {
		w.Wake()
		q.list[i] = nil
	}
	q.list = q.list[:0]
}

// size returns the current queue length.
func (q *waiterQueue) size() int {
	q.mu.Lock()
	n := len(q.list)
	q.mu.Unlock()
	return n
}
