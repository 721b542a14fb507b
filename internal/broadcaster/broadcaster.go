package broadcaster

import (
	"context"
	"sync"
)

// Broadcaster holds the process-wide set of live subscriber queues.
// Producer threads call Broadcast; only the goroutine running Run ever
// enqueues into a Queue. Subscribers dequeue from their own goroutines, and
// Queue's own mutex guards the ring between the two sides.
type Broadcaster struct {
	mu        sync.RWMutex
	queues    map[*Queue]struct{}
	loopQueue chan func()
}

// New returns a Broadcaster whose Run must be started before any Broadcast
// call will actually deliver messages (Broadcast still succeeds; its
// callback just queues up until Run drains it).
func New() *Broadcaster {
	return &Broadcaster{
		queues:    make(map[*Queue]struct{}),
		loopQueue: make(chan func(), 256),
	}
}

// Register adds q to the live subscriber set. Safe to call concurrently
// with Broadcast.
func (b *Broadcaster) Register(q *Queue) {
	b.mu.Lock()
	b.queues[q] = struct{}{}
	b.mu.Unlock()
}

// Unregister removes q from the live subscriber set.
func (b *Broadcaster) Unregister(q *Queue) {
	b.mu.Lock()
	delete(b.queues, q)
	b.mu.Unlock()
}

// Broadcast schedules message onto every currently-registered queue via the
// consumer-side hand-off. Called from producer threads; never blocks on
// queue internals itself (scheduling onto loopQueue may block only if Run
// has stopped draining, which indicates shutdown).
func (b *Broadcaster) Broadcast(message []byte) {
	b.mu.RLock()
	snapshot := make([]*Queue, 0, len(b.queues))
	for q := range b.queues {
		snapshot = append(snapshot, q)
	}
	b.mu.RUnlock()

	for _, q := range snapshot {
		q := q
		b.loopQueue <- func() { q.enqueue(message) }
	}
}

// Run drains loopQueue until ctx is cancelled. It is the single goroutine
// that ever enqueues into a Queue.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case fn := <-b.loopQueue:
			fn()
		case <-ctx.Done():
			return
		}
	}
}
