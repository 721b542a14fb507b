package broadcaster

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueDropsOldestOnOverflow(t *testing.T) {
	q := NewQueue(2)
	q.enqueue([]byte("A"))
	q.enqueue([]byte("B"))
	q.enqueue([]byte("C"))

	require.Equal(t, 2, q.Len())
	first, ok := q.TryRecv()
	require.True(t, ok)
	require.Equal(t, "B", string(first))

	second, ok := q.TryRecv()
	require.True(t, ok)
	require.Equal(t, "C", string(second))

	_, ok = q.TryRecv()
	require.False(t, ok)
}

func TestQueueLenNeverExceedsCapacity(t *testing.T) {
	q := NewQueue(3)
	for i := 0; i < 50; i++ {
		q.enqueue([]byte{byte(i)})
		require.LessOrEqual(t, q.Len(), 3)
		require.GreaterOrEqual(t, q.Len(), 0)
	}
}

func TestBroadcastDeliversToAllRegisteredQueues(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	q1 := NewQueue(10)
	q2 := NewQueue(10)
	b.Register(q1)
	b.Register(q2)

	b.Broadcast([]byte("hello"))

	for _, q := range []*Queue{q1, q2} {
		select {
		case <-q.Recv():
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for broadcast delivery")
		}
		msg, ok := q.TryRecv()
		require.True(t, ok)
		require.Equal(t, "hello", string(msg))
	}
}

func TestUnregisteredQueueReceivesNothing(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	q := NewQueue(10)
	b.Register(q)
	b.Unregister(q)

	b.Broadcast([]byte("hello"))

	select {
	case <-q.Recv():
		t.Fatal("unregistered queue should not receive broadcasts")
	case <-time.After(50 * time.Millisecond):
	}
}
