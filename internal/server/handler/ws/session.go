package ws

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/avetisov/qrvalidator/internal/models"
)

// outBuffer bounds the per-connection outbound queue. A session that
// cannot drain it is closed rather than blocking the broadcaster.
const outBuffer = 16

// writeTimeout bounds a single outbound frame write.
const writeTimeout = 5 * time.Second

// session is the per-connection state. It starts anonymous; user is set
// exactly once on successful authentication and read under the hub lock.
type session struct {
	id   string
	conn *websocket.Conn
	out  chan Envelope

	// user is guarded by the owning hub's mutex.
	user *models.User
}

func newSession(id string, conn *websocket.Conn) *session {
	return &session{
		id:   id,
		conn: conn,
		out:  make(chan Envelope, outBuffer),
	}
}

// writePump drains the outbound queue onto the wire. It exits when the
// connection context is canceled or a write fails, closing the connection
// so the read loop unblocks.
func (s *session) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-s.out:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, s.conn, env)
			cancel()
			if err != nil {
				_ = s.conn.Close(websocket.StatusNormalClosure, "write_failed")
				return
			}
		}
	}
}

// enqueue hands an envelope to the write pump without blocking.
// It reports false when the queue is full.
func (s *session) enqueue(env Envelope) bool {
	select {
	case s.out <- env:
		return true
	default:
		return false
	}
}
