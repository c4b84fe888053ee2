package broadcast

import (
	"bytes"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"onyxnet/internal/protocol/wire"
)

// Kind is the transport behind a Handle.
type Kind int

const (
	KindStream Kind = iota + 1
	KindFramed
)

// String returns the label used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindStream:
		return "tcp"
	case KindFramed:
		return "ws"
	default:
		return "unknown"
	}
}

// Handle is one connected participant as seen by the registry.
type Handle interface {
	Kind() Kind
	// Send delivers one envelope line in the transport's native framing.
	Send(data []byte) error
	// Close releases the connection. Safe to call more than once.
	Close() error
	RemoteAddr() string
}

// StreamHandle writes raw lines to a TCP connection.
type StreamHandle struct {
	conn         net.Conn
	writeTimeout time.Duration

	mu   sync.Mutex
	once sync.Once
	err  error
}

// NewStreamHandle wraps conn.
func NewStreamHandle(conn net.Conn, writeTimeout time.Duration) *StreamHandle {
	return &StreamHandle{conn: conn, writeTimeout: writeTimeout}
}

func (h *StreamHandle) Kind() Kind { return KindStream }

// Send writes data, appending the delimiter when it is missing.
func (h *StreamHandle) Send(data []byte) error {
	if !bytes.HasSuffix(data, []byte{wire.Delimiter}) {
		data = append(data[:len(data):len(data)], wire.Delimiter)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
		return err
	}
	_, err := h.conn.Write(data)
	return err
}

func (h *StreamHandle) Close() error {
	h.once.Do(func() { h.err = h.conn.Close() })
	return h.err
}

func (h *StreamHandle) RemoteAddr() string { return h.conn.RemoteAddr().String() }

// FramedHandle writes text frames to a WebSocket.
type FramedHandle struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu   sync.Mutex
	once sync.Once
	err  error
}

// NewFramedHandle wraps conn.
func NewFramedHandle(conn *websocket.Conn, writeTimeout time.Duration) *FramedHandle {
	return &FramedHandle{conn: conn, writeTimeout: writeTimeout}
}

func (h *FramedHandle) Kind() Kind { return KindFramed }

// Send strips the line delimiter (and surrounding whitespace) and writes one
// text frame.
func (h *FramedHandle) Send(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
		return err
	}
	return h.conn.WriteMessage(websocket.TextMessage, bytes.TrimSpace(data))
}

// Close sends a close frame with a one second deadline, then closes the
// socket.
func (h *FramedHandle) Close() error {
	h.once.Do(func() {
		_ = h.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(time.Second),
		)
		h.err = h.conn.Close()
	})
	return h.err
}

func (h *FramedHandle) RemoteAddr() string { return h.conn.RemoteAddr().String() }

var (
	_ Handle = (*StreamHandle)(nil)
	_ Handle = (*FramedHandle)(nil)
)
