package subscriber

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/edgeflow/telemetryd/internal/broadcaster"
	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeConn records every WriteMessage/WriteControl/Close call, standing in
// for a real gofiber websocket connection in tests.
type fakeConn struct {
	mu          sync.Mutex
	sent        [][]byte
	closeCode   int
	closed      bool
	writeMsgErr error
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeMsgErr != nil {
		return f.writeMsgErr
	}
	cp := append([]byte(nil), data...)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if messageType == websocket.CloseMessage && len(data) >= 2 {
		f.closeCode = int(data[0])<<8 | int(data[1])
	}
	f.closed = true
	return nil
}

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// registeredQueue returns a Queue already registered with a running
// broadcaster, so tests can deliver messages to forward() via Broadcast.
func registeredQueue(t *testing.T, capacity int) (*broadcaster.Queue, *broadcaster.Broadcaster) {
	t.Helper()
	b := broadcaster.New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go b.Run(ctx)

	q := broadcaster.NewQueue(capacity)
	b.Register(q)
	return q, b
}

func withIdleTimeout(t *testing.T, d time.Duration) {
	t.Helper()
	orig := IdleTimeout
	IdleTimeout = d
	t.Cleanup(func() { IdleTimeout = orig })
}

func TestForwardClosesWithCode1001OnIdleTimeout(t *testing.T) {
	withIdleTimeout(t, 20*time.Millisecond)

	q, _ := registeredQueue(t, 10)
	conn := &fakeConn{}

	done := make(chan struct{})
	go func() {
		forward(conn, q, zap.NewNop())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forward did not return after idle timeout")
	}

	require.True(t, conn.closed)
	require.Equal(t, websocket.CloseGoingAway, conn.closeCode)
}

func TestForwardSendsBroadcastMessagesAndResetsIdleTimer(t *testing.T) {
	withIdleTimeout(t, 150*time.Millisecond)

	q, b := registeredQueue(t, 10)
	conn := &fakeConn{}

	done := make(chan struct{})
	go func() {
		forward(conn, q, zap.NewNop())
		close(done)
	}()

	// Deliver the message late enough that the original timer would fire
	// inside the check window below unless receiving reset it.
	time.Sleep(100 * time.Millisecond)
	b.Broadcast([]byte("hello"))
	require.Eventually(t, func() bool { return conn.sentCount() == 1 }, time.Second, 5*time.Millisecond)

	select {
	case <-done:
		t.Fatal("forward returned early; idle timer should have been reset on receive")
	case <-time.After(100 * time.Millisecond):
	}

	<-done
}

func TestForwardExitsSilentlyOnWriteError(t *testing.T) {
	withIdleTimeout(t, time.Second)

	q, b := registeredQueue(t, 10)
	conn := &fakeConn{writeMsgErr: errors.New("peer closed connection")}

	done := make(chan struct{})
	go func() {
		forward(conn, q, zap.NewNop())
		close(done)
	}()

	b.Broadcast([]byte("x"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forward did not exit after a write error (peer disconnect)")
	}
	require.False(t, conn.closed, "a write error is a peer disconnect, not an idle-timeout close")
}
