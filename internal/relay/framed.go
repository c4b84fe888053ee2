package relay

import (
	"bytes"
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"onyxnet/internal/domain"
)

const closeGracePeriod = time.Second

// FramedConn is a WebSocket connection to the relay, one envelope per frame.
type FramedConn struct {
	conn *websocket.Conn
	opts Options

	mu   sync.Mutex // gorilla allows one concurrent writer
	once sync.Once
	err  error
}

// DialFramed opens a WebSocket to ws://addr/.
func DialFramed(ctx context.Context, addr string, opts Options) (*FramedConn, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/"}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	c, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return NewFramedConn(c, opts), nil
}

// NewFramedConn wraps an established WebSocket.
func NewFramedConn(c *websocket.Conn, opts Options) *FramedConn {
	opts = opts.withDefaults()
	c.SetReadLimit(int64(opts.MaxMessageSize))
	return &FramedConn{conn: c, opts: opts}
}

// Send writes line as a single text frame without its delimiter.
func (f *FramedConn) Send(line []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.conn.SetWriteDeadline(time.Now().Add(f.opts.WriteTimeout)); err != nil {
		return err
	}
	return f.conn.WriteMessage(websocket.TextMessage, bytes.TrimSpace(line))
}

// Receive blocks for the next text or binary frame.
func (f *FramedConn) Receive() ([]byte, error) {
	_, msg, err := f.conn.ReadMessage()
	return msg, err
}

// Close sends a close frame (bounded by a short deadline) and closes the
// socket once.
func (f *FramedConn) Close() error {
	f.once.Do(func() {
		// WriteControl may run concurrently with a blocked Send.
		_ = f.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGracePeriod),
		)
		f.err = f.conn.Close()
	})
	return f.err
}

// RemoteAddr returns the relay address.
func (f *FramedConn) RemoteAddr() string { return f.conn.RemoteAddr().String() }

var _ domain.RelayConn = (*FramedConn)(nil)
