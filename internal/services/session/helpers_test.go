package session

import (
	"crypto/rsa"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"onyxnet/internal/crypto"
	"onyxnet/internal/domain"
	"onyxnet/internal/services/message"
	"onyxnet/internal/services/peer"
)

var (
	keysOnce sync.Once
	keys     [3]*rsa.PrivateKey
	keysErr  error
)

// testIdentity returns an identity with a cached keypair; slot picks which.
func testIdentity(t *testing.T, id string, slot int) domain.Identity {
	t.Helper()
	keysOnce.Do(func() {
		for i := range keys {
			if keys[i], keysErr = crypto.GenerateKeyPair(); keysErr != nil {
				return
			}
		}
	})
	require.NoError(t, keysErr)

	priv := keys[slot]
	pemStr, err := crypto.MarshalPublicKeyPEM(&priv.PublicKey)
	require.NoError(t, err)
	return domain.Identity{
		ID:           domain.PeerID(id),
		PrivateKey:   priv,
		PublicKeyPEM: pemStr,
		Fingerprint:  crypto.Fingerprint(&priv.PublicKey),
	}
}

type recordSink struct {
	mu       sync.Mutex
	messages []domain.DecryptedMessage
	notices  []domain.Notice
}

func (r *recordSink) Message(m domain.DecryptedMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

func (r *recordSink) Notice(n domain.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordSink) Messages() []domain.DecryptedMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.DecryptedMessage(nil), r.messages...)
}

func (r *recordSink) Notices() []domain.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notice(nil), r.notices...)
}

// pipeConn is an in-memory RelayConn. Lines pushed into in are received;
// sent lines are recorded.
type pipeConn struct {
	in      chan []byte
	sendErr error

	mu   sync.Mutex
	sent [][]byte

	once   sync.Once
	closed chan struct{}
}

func newPipeConn() *pipeConn {
	return &pipeConn{in: make(chan []byte, 16), closed: make(chan struct{})}
}

func (p *pipeConn) Send(line []byte) error {
	if p.sendErr != nil {
		return p.sendErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, append([]byte(nil), line...))
	return nil
}

func (p *pipeConn) Receive() ([]byte, error) {
	select {
	case line, ok := <-p.in:
		if !ok {
			return nil, io.EOF
		}
		return line, nil
	case <-p.closed:
		return nil, io.ErrClosedPipe
	}
}

func (p *pipeConn) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *pipeConn) RemoteAddr() string { return "pipe" }

func (p *pipeConn) Sent() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.sent...)
}

func (p *pipeConn) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

type fixture struct {
	session   *Session
	directory *peer.Directory
	messages  *message.Service
	conn      *pipeConn
	sink      *recordSink
}

func newFixture(t *testing.T, self domain.Identity) *fixture {
	t.Helper()
	dir := peer.NewDirectory()
	msgs := message.New(self.ID, crypto.NewEngine(self), dir)
	conn := newPipeConn()
	sink := &recordSink{}

	log := logrus.New()
	log.SetOutput(io.Discard)
	s, err := New(self, dir, msgs, conn, sink, log)
	require.NoError(t, err)
	return &fixture{session: s, directory: dir, messages: msgs, conn: conn, sink: sink}
}
