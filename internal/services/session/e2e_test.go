package session

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onyxnet/internal/broadcast"
	"onyxnet/internal/crypto"
	"onyxnet/internal/domain"
	"onyxnet/internal/relay"
	"onyxnet/internal/services/message"
	"onyxnet/internal/services/peer"
)

// muteConn never delivers outbound lines, so its owner stays unknown to
// everyone else.
type muteConn struct{ domain.RelayConn }

func (muteConn) Send([]byte) error { return nil }

type participant struct {
	session   *Session
	directory *peer.Directory
	sink      *recordSink
	done      chan error
}

func join(
	ctx context.Context,
	t *testing.T,
	self domain.Identity,
	transport relay.Transport,
	base string,
	wrap func(domain.RelayConn) domain.RelayConn,
) *participant {
	t.Helper()
	conn, err := relay.Dial(ctx, transport, base, relay.Options{})
	require.NoError(t, err)
	if wrap != nil {
		conn = wrap(conn)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	dir := peer.NewDirectory()
	sink := &recordSink{}
	s, err := New(self, dir, message.New(self.ID, crypto.NewEngine(self), dir), conn, sink, log)
	require.NoError(t, err)

	p := &participant{session: s, directory: dir, sink: sink, done: make(chan error, 1)}
	go func() { p.done <- s.Run(ctx) }()
	t.Cleanup(s.Close)
	return p
}

func startRelay(t *testing.T, cfg broadcast.Config) (*broadcast.Server, string) {
	t.Helper()
	streamLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := streamLn.Addr().String()
	framedAddr, err := relay.FramedAddr(base)
	require.NoError(t, err)
	framedLn, err := net.Listen("tcp", framedAddr)
	if err != nil {
		_ = streamLn.Close()
		t.Skipf("port after %s is taken: %v", base, err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	srv := broadcast.New(cfg, log)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.Serve(ctx, streamLn, framedLn) }()
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, base
}

func TestRelayEndToEnd(t *testing.T) {
	srv, base := startRelay(t, broadcast.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	aID := testIdentity(t, "a1", 0)
	bID := testIdentity(t, "b1", 1)
	cID := testIdentity(t, "c1", 2)

	a := join(ctx, t, aID, relay.TransportStream, base, nil)
	b := join(ctx, t, bID, relay.TransportFramed, base, nil)

	require.Eventually(t, func() bool {
		return a.directory.Len() == 1 && b.directory.Len() == 1
	}, 5*time.Second, 10*time.Millisecond, "handshakes not exchanged")

	c := join(ctx, t, cID, relay.TransportStream, base, func(rc domain.RelayConn) domain.RelayConn {
		return muteConn{rc}
	})
	require.Eventually(t, func() bool { return srv.Registry().Len() == 3 },
		5*time.Second, 10*time.Millisecond)

	require.NoError(t, a.session.Send(ctx, []byte("hello")))

	require.Eventually(t, func() bool { return len(b.sink.Messages()) == 1 },
		5*time.Second, 10*time.Millisecond)
	got := b.sink.Messages()[0]
	assert.Equal(t, domain.PeerID("a1"), got.From)
	assert.Equal(t, "hello", string(got.Plaintext))

	require.Eventually(t, func() bool {
		for _, n := range c.sink.Notices() {
			if n.Kind == domain.NoticeUnreadable && n.Peer == "a1" {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, c.sink.Messages())
	assert.Empty(t, a.sink.Messages(), "sender never sees its own message")
	assert.Equal(t, 1, a.directory.Len(), "c stayed unknown to a")
}

func TestMaxSizeFrameDoesNotEndStreamSessions(t *testing.T) {
	srv, base := startRelay(t, broadcast.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	aID := testIdentity(t, "a1", 0)
	bID := testIdentity(t, "b1", 1)
	a := join(ctx, t, aID, relay.TransportStream, base, nil)

	framedAddr, err := relay.FramedAddr(base)
	require.NoError(t, err)
	raw, _, err := websocket.DefaultDialer.Dial("ws://"+framedAddr+"/", nil)
	require.NoError(t, err)
	defer raw.Close()
	require.Eventually(t, func() bool { return srv.Registry().Len() == 2 },
		5*time.Second, 10*time.Millisecond)

	limit := broadcast.DefaultMaxMessageSize
	require.NoError(t, raw.WriteMessage(websocket.TextMessage, bytes.Repeat([]byte("x"), limit-1)))
	// The relay may hang up mid-write, so only the outcome is checked.
	_ = raw.WriteMessage(websocket.TextMessage, bytes.Repeat([]byte("x"), limit))
	require.Eventually(t, func() bool { return srv.Registry().Len() == 1 },
		5*time.Second, 10*time.Millisecond, "oversized frame should drop its sender")

	b := join(ctx, t, bID, relay.TransportStream, base, nil)
	require.Eventually(t, func() bool {
		return a.directory.Len() == 1 && b.directory.Len() == 1
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, a.session.Send(ctx, []byte("still here")))
	require.Eventually(t, func() bool { return len(b.sink.Messages()) == 1 },
		5*time.Second, 10*time.Millisecond)

	select {
	case err := <-a.done:
		t.Fatalf("stream session ended: %v", err)
	default:
	}
}
