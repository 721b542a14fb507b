// Package broadcaster holds the set of live subscriber queues and fans
// encoded JSON messages out to each of them, with per-queue drop-oldest
// overflow handling.
package broadcaster

import "sync"

// Queue is a fixed-capacity, drop-oldest FIFO of encoded JSON messages.
// Only the Broadcaster's consumer goroutine (Run) ever calls enqueue; the
// owning subscriber calls Recv/TryRecv/Len/Close from its own goroutine.
// enqueue and TryRecv both modify the ring from those two goroutines, so
// every access to it takes mu.
type Queue struct {
	mu       sync.Mutex
	buf      [][]byte
	cap      int
	wake     chan struct{}
	closed   bool
}

// NewQueue returns an empty queue of the given capacity with a 1-buffered
// wake channel the consuming subscriber selects on.
func NewQueue(capacity int) *Queue {
	return &Queue{
		buf:  make([][]byte, 0, capacity),
		cap:  capacity,
		wake: make(chan struct{}, 1),
	}
}

// enqueue appends message, dropping the oldest element first if the queue
// is already at capacity. Never blocks. Called only from Broadcaster.Run.
func (q *Queue) enqueue(message []byte) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if len(q.buf) >= q.cap {
		q.buf = q.buf[1:]
	}
	q.buf = append(q.buf, message)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Recv returns the wake channel a subscriber selects on; after a wake, call
// TryRecv to drain whatever is available (possibly more than one message).
func (q *Queue) Recv() <-chan struct{} {
	return q.wake
}

// TryRecv pops the oldest buffered message, if any.
func (q *Queue) TryRecv() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return nil, false
	}
	msg := q.buf[0]
	q.buf = q.buf[1:]
	return msg, true
}

// Len reports the current number of buffered messages (0 <= Len <= capacity).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Close marks the queue closed; subsequent enqueues are no-ops.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}
