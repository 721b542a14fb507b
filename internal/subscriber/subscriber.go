// Package subscriber implements the websocket-side half of the fan-out
// path: one goroutine per connection forwarding a registered broadcaster
// queue to the socket, with a 5 s idle timeout closing the connection.
package subscriber

import (
	"time"

	"github.com/edgeflow/telemetryd/internal/broadcaster"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueueCapacity is the default bounded-queue size per spec §5's default
// subscriber queue capacity.
const QueueCapacity = 10

// IdleTimeout is how long a subscriber may go without a message before the
// connection is closed with code 1001 (going away). A var, not a const, so
// tests can shrink it rather than waiting out the real 5 s.
var IdleTimeout = 5 * time.Second

// wsConn is the subset of gofiber/websocket/v2's *Conn (itself an embedded
// gorilla websocket.Conn) that the forwarding loop needs. Scripted fakes in
// tests implement it without opening a real socket.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Handle drives one websocket connection for its entire lifetime: register,
// forward, unregister unconditionally on exit. Intended to be passed to
// gofiber/websocket/v2's websocket.New as the upgrade handler.
func Handle(b *broadcaster.Broadcaster, log *zap.Logger) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		id := uuid.NewString()
		connLog := log.With(zap.String("subscriber_id", id))

		q := broadcaster.NewQueue(QueueCapacity)
		b.Register(q)
		connLog.Debug("subscriber connected")
		defer func() {
			b.Unregister(q)
			q.Close()
			c.Close()
			connLog.Debug("subscriber disconnected")
		}()

		forward(c, q, connLog)
	}
}

// forward is the idle-timeout-bounded send loop described in spec §4.6:
// await the next queue item with a 5 s idle timeout; on timeout, close with
// code 1001; on peer disconnect, exit silently; on overflow-dropped
// messages, the subscriber simply never sees them — no signal is sent.
func forward(c wsConn, q *broadcaster.Queue, log *zap.Logger) {
	timer := time.NewTimer(IdleTimeout)
	defer timer.Stop()

	for {
		select {
		case <-q.Recv():
			for {
				msg, ok := q.TryRecv()
				if !ok {
					break
				}
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(IdleTimeout)

		case <-timer.C:
			closeIdle(c, log)
			return
		}
	}
}

// closeIdle sends the close handshake with code 1001 (going away), the
// code spec §4.6/§6 mandate for an idle-timed-out subscriber.
func closeIdle(c wsConn, log *zap.Logger) {
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "idle timeout")
	if err := c.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		log.Debug("failed to send idle-timeout close frame", zap.Error(err))
	}
}
