package relay

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"onyxnet/internal/domain"
	"onyxnet/internal/protocol/wire"
)

// StreamConn is a line-delimited TCP connection to the relay.
type StreamConn struct {
	conn net.Conn
	r    *bufio.Reader
	opts Options

	mu   sync.Mutex // serialises writes
	once sync.Once
	err  error
}

// DialStream opens a TCP connection to addr.
func DialStream(ctx context.Context, addr string, opts Options) (*StreamConn, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewStreamConn(c, opts), nil
}

// NewStreamConn wraps an established connection.
func NewStreamConn(c net.Conn, opts Options) *StreamConn {
	return &StreamConn{conn: c, r: bufio.NewReader(c), opts: opts.withDefaults()}
}

// Send writes one line, appending the delimiter if it is missing.
func (s *StreamConn) Send(line []byte) error {
	if !bytes.HasSuffix(line, []byte{wire.Delimiter}) {
		line = append(line[:len(line):len(line)], wire.Delimiter)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
		return err
	}
	_, err := s.conn.Write(line)
	return err
}

// Receive blocks for the next line and returns it without the delimiter.
// Lines over MaxMessageSize are skipped; they never end the connection.
func (s *StreamConn) Receive() ([]byte, error) {
	for {
		line, err := wire.ReadLine(s.r, s.opts.MaxMessageSize)
		if errors.Is(err, wire.ErrLineTooLong) {
			logrus.WithFields(logrus.Fields{
				"function": "Receive",
				"relay":    s.RemoteAddr(),
				"limit":    s.opts.MaxMessageSize,
			}).Debug("Skipping oversized line")
			if err := wire.DiscardLine(s.r); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		return bytes.TrimRight(line, "\r\n"), nil
	}
}

// Close closes the connection once.
func (s *StreamConn) Close() error {
	s.once.Do(func() { s.err = s.conn.Close() })
	return s.err
}

// RemoteAddr returns the relay address.
func (s *StreamConn) RemoteAddr() string { return s.conn.RemoteAddr().String() }

var _ domain.RelayConn = (*StreamConn)(nil)
