package realtime

import (
	"context"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/railguard-ai/railguard/internal/types"
)

// Conn is one side of a realtime duplex channel. Read blocks until the next
// event or closure; Write and Close are safe for concurrent use.
type Conn interface {
	Read(ctx context.Context) (Event, error)
	Write(ctx context.Context, ev Event) error
	Close(reason string) error
}

// WebsocketConn adapts a coder/websocket connection to Conn.
type WebsocketConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewWebsocketConn wraps an established websocket connection.
func NewWebsocketConn(conn *websocket.Conn) *WebsocketConn {
	return &WebsocketConn{conn: conn}
}

// Read decodes the next JSON event from the socket. A malformed message is
// reported as a REALTIME_PROTOCOL error with the connection still usable, so
// callers can skip the single bad message.
func (w *WebsocketConn) Read(ctx context.Context) (Event, error) {
	_, data, err := w.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	ev, err := ParseEvent(data)
	if err != nil {
		return nil, types.WrapError(types.REALTIME_PROTOCOL, "skipping malformed realtime event", err)
	}
	return ev, nil
}

// Write encodes an event onto the socket. Writes from both forwarding loops
// are serialized by the connection's own locking plus this adapter's mutex.
func (w *WebsocketConn) Write(ctx context.Context, ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return wsjson.Write(ctx, w.conn, ev)
}

// Close sends a normal-closure frame with the given reason.
func (w *WebsocketConn) Close(reason string) error {
	return w.conn.Close(websocket.StatusNormalClosure, reason)
}

// PipeConn is an in-memory Conn for tests and in-process bridging.
type PipeConn struct {
	in    <-chan Event
	out   chan<- Event
	done  chan struct{}
	close *sync.Once
}

// Pipe returns two connected in-memory conns: events written to one side are
// read from the other. Closing either side closes both.
func Pipe() (*PipeConn, *PipeConn) {
	ab := make(chan Event, 64)
	ba := make(chan Event, 64)
	done := make(chan struct{})
	once := &sync.Once{}

	a := &PipeConn{in: ba, out: ab, done: done, close: once}
	b := &PipeConn{in: ab, out: ba, done: done, close: once}
	return a, b
}

// Read receives the next event from the peer.
func (p *PipeConn) Read(ctx context.Context) (Event, error) {
	select {
	case ev := <-p.in:
		return ev, nil
	case <-p.done:
		// Drain events written before closure.
		select {
		case ev := <-p.in:
			return ev, nil
		default:
		}
		return nil, types.NewError(types.REALTIME_SESSION_CLOSED, "connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Write sends an event to the peer.
func (p *PipeConn) Write(ctx context.Context, ev Event) error {
	select {
	case <-p.done:
		return types.NewError(types.REALTIME_SESSION_CLOSED, "connection closed")
	default:
	}
	select {
	case p.out <- ev:
		return nil
	case <-p.done:
		return types.NewError(types.REALTIME_SESSION_CLOSED, "connection closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears down both sides of the pipe.
func (p *PipeConn) Close(reason string) error {
	p.close.Do(func() { close(p.done) })
	return nil
}
