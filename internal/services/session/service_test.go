package session

import (
	"context"
	"crypto/rsa"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onyxnet/internal/crypto"
	"onyxnet/internal/domain"
	"onyxnet/internal/protocol/wire"
	"onyxnet/internal/services/message"
)

func encode(t *testing.T, env domain.Envelope) []byte {
	t.Helper()
	line, err := wire.Encode(env)
	require.NoError(t, err)
	return line
}

func TestHandshakeIdempotent(t *testing.T) {
	a := newFixture(t, testIdentity(t, "a1", 0))
	b := testIdentity(t, "b1", 1)
	hs := encode(t, wire.Handshake(b.ID, b.PublicKeyPEM))

	a.session.handleLine(hs)
	a.session.handleLine(hs)

	assert.Equal(t, 1, a.directory.Len())
	assert.Len(t, a.session.outbound, 1, "exactly one reply handshake")
	require.Len(t, a.sink.Notices(), 1)
	assert.Equal(t, domain.NoticePeerJoined, a.sink.Notices()[0].Kind)
	assert.Equal(t, b.ID, a.sink.Notices()[0].Peer)

	reply := <-a.session.outbound
	env, err := wire.Decode(reply.line)
	require.NoError(t, err)
	assert.Equal(t, domain.EnvelopeHandshake, env.Type)
	assert.Equal(t, domain.PeerID("a1"), env.SenderID)
}

func TestOwnHandshakeIgnored(t *testing.T) {
	self := testIdentity(t, "a1", 0)
	a := newFixture(t, self)

	a.session.handleLine(encode(t, wire.Handshake(self.ID, self.PublicKeyPEM)))

	assert.Zero(t, a.directory.Len())
	assert.Empty(t, a.session.outbound)
	assert.Empty(t, a.sink.Notices())
}

func TestBadHandshake(t *testing.T) {
	a := newFixture(t, testIdentity(t, "a1", 0))

	a.session.handleLine(encode(t, wire.Handshake("mallory", "not a key")))

	assert.Zero(t, a.directory.Len())
	assert.Empty(t, a.session.outbound)
	require.Len(t, a.sink.Notices(), 1)
	n := a.sink.Notices()[0]
	assert.Equal(t, domain.NoticeBadHandshake, n.Kind)
	assert.ErrorIs(t, n.Err, crypto.ErrInvalidPublicKey)
}

func TestMessageDispatch(t *testing.T) {
	aID := testIdentity(t, "a1", 0)
	bID := testIdentity(t, "b1", 1)
	cID := testIdentity(t, "c1", 2)

	// b knows a and c, so it can seal for either.
	b := newFixture(t, bID)
	_, _, err := b.directory.Learn(aID.ID, aID.PublicKeyPEM)
	require.NoError(t, err)

	forA, err := b.messages.Compose([]byte("hello"))
	require.NoError(t, err)

	onlyC, err := crypto.Seal([]byte("secret"), map[domain.PeerID]*rsa.PublicKey{cID.ID: &cID.PrivateKey.PublicKey})
	require.NoError(t, err)

	tampered, err := b.messages.Compose([]byte("hello"))
	require.NoError(t, err)
	tampered.Payload.Tag[0] ^= 0xff

	tests := []struct {
		name    string
		line    []byte
		message string
		notice  domain.NoticeKind
		wantErr error
	}{
		{name: "readable", line: encode(t, forA), message: "hello"},
		{name: "unreadable", line: encode(t, wire.Message(bID.ID, onlyC)), notice: domain.NoticeUnreadable},
		{name: "tampered", line: encode(t, tampered), notice: domain.NoticeDecryptFailed, wantErr: crypto.ErrAuthentication},
		{name: "own echo", line: encode(t, wire.Message(aID.ID, onlyC))},
		{name: "malformed", line: []byte("{not json\n")},
		{name: "unknown type", line: []byte(`{"type":"presence","sender_id":"b1"}` + "\n")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := newFixture(t, aID)
			a.session.handleLine(tc.line)

			if tc.message != "" {
				require.Len(t, a.sink.Messages(), 1)
				assert.Equal(t, bID.ID, a.sink.Messages()[0].From)
				assert.Equal(t, tc.message, string(a.sink.Messages()[0].Plaintext))
			} else {
				assert.Empty(t, a.sink.Messages())
			}

			if tc.notice != 0 {
				require.Len(t, a.sink.Notices(), 1)
				assert.Equal(t, tc.notice, a.sink.Notices()[0].Kind)
				if tc.wantErr != nil {
					assert.ErrorIs(t, a.sink.Notices()[0].Err, tc.wantErr)
				}
			} else if tc.message == "" {
				assert.Empty(t, a.sink.Notices())
			}
		})
	}
}

func TestSendWithoutPeers(t *testing.T) {
	a := newFixture(t, testIdentity(t, "a1", 0))

	err := a.session.Send(context.Background(), []byte("anyone?"))

	assert.ErrorIs(t, err, message.ErrNoPeers)
	assert.Empty(t, a.session.outbound)
}

func TestRunAnnouncesAndStops(t *testing.T) {
	a := newFixture(t, testIdentity(t, "a1", 0))
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- a.session.Run(ctx) }()

	require.Eventually(t, func() bool { return len(a.conn.Sent()) == 1 }, time.Second, 5*time.Millisecond)
	env, err := wire.Decode(a.conn.Sent()[0])
	require.NoError(t, err)
	assert.Equal(t, domain.EnvelopeHandshake, env.Type)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.True(t, a.conn.isClosed())
	assert.ErrorIs(t, a.session.Send(context.Background(), []byte("late")), ErrClosed)
}

func TestRunSendDeliversAfterHandshake(t *testing.T) {
	a := newFixture(t, testIdentity(t, "a1", 0))
	b := testIdentity(t, "b1", 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = a.session.Run(ctx) }()

	a.conn.in <- encode(t, wire.Handshake(b.ID, b.PublicKeyPEM))
	require.Eventually(t, func() bool { return len(a.conn.Sent()) == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, a.session.Send(ctx, []byte("hi b")))

	sent := a.conn.Sent()
	require.Len(t, sent, 3, "announce, reply, message")
	env, err := wire.Decode(sent[2])
	require.NoError(t, err)
	assert.Equal(t, domain.EnvelopeMessage, env.Type)
	assert.Contains(t, env.Payload.Keys, b.ID)
}

func TestRunReportsTransportFailure(t *testing.T) {
	a := newFixture(t, testIdentity(t, "a1", 0))
	close(a.conn.in)

	err := a.session.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
	assert.True(t, a.conn.isClosed())
}

func TestRunReportsWriteFailure(t *testing.T) {
	a := newFixture(t, testIdentity(t, "a1", 0))
	a.conn.sendErr = errors.New("broken pipe")

	err := a.session.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}
