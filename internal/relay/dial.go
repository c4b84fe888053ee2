package relay

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"onyxnet/internal/domain"
)

// Transport selects how a participant reaches the relay.
type Transport string

const (
	TransportStream Transport = "tcp"
	TransportFramed Transport = "ws"
)

const (
	DefaultWriteTimeout   = 5 * time.Second
	DefaultMaxMessageSize = 1 << 20
)

// Options tunes relay connections. Zero values take the defaults.
type Options struct {
	WriteTimeout   time.Duration
	MaxMessageSize int
}

func (o Options) withDefaults() Options {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = DefaultMaxMessageSize
	}
	return o
}

// ParseTransport accepts "tcp"/"stream" and "ws"/"websocket".
func ParseTransport(s string) (Transport, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp", "stream":
		return TransportStream, nil
	case "ws", "websocket", "framed":
		return TransportFramed, nil
	default:
		return "", fmt.Errorf("unknown transport %q (want tcp or ws)", s)
	}
}

// FramedAddr returns the framed listener address for a relay base address:
// same host, port + 1.
func FramedAddr(base string) (string, error) {
	host, portStr, err := net.SplitHostPort(base)
	if err != nil {
		return "", err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", fmt.Errorf("relay port %q: %w", portStr, err)
	}
	if port <= 0 || port >= 65535 {
		return "", fmt.Errorf("relay port %d out of range", port)
	}
	return net.JoinHostPort(host, strconv.Itoa(port+1)), nil
}

// Dial connects to the relay whose stream listener is at base.
func Dial(ctx context.Context, t Transport, base string, opts Options) (domain.RelayConn, error) {
	opts = opts.withDefaults()

	var (
		conn domain.RelayConn
		err  error
	)
	switch t {
	case TransportStream:
		conn, err = DialStream(ctx, base, opts)
	case TransportFramed:
		var addr string
		if addr, err = FramedAddr(base); err == nil {
			conn, err = DialFramed(ctx, addr, opts)
		}
	default:
		err = fmt.Errorf("unknown transport %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to relay %s over %s: %w", base, t, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Dial",
		"transport": t,
		"relay":     conn.RemoteAddr(),
	}).Info("Connected to relay")
	return conn, nil
}
