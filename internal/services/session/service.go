package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"onyxnet/internal/domain"
	"onyxnet/internal/protocol/wire"
)

// outboundQueue bounds how many lines may wait for the writer.
const outboundQueue = 16

// ErrClosed is returned by Send once the session has stopped.
var ErrClosed = errors.New("session closed")

type request struct {
	line []byte
	done chan error
}

// Session joins one identity to the relay.
type Session struct {
	self      domain.Identity
	directory domain.PeerDirectory
	messages  domain.MessageService
	conn      domain.RelayConn
	sink      domain.Sink
	log       logrus.FieldLogger

	handshake []byte
	outbound  chan request
	done      chan struct{}
	closeOnce sync.Once
}

// New wires a session. log may be nil.
func New(
	self domain.Identity,
	directory domain.PeerDirectory,
	messages domain.MessageService,
	conn domain.RelayConn,
	sink domain.Sink,
	log logrus.FieldLogger,
) (*Session, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	hs, err := wire.Encode(wire.Handshake(self.ID, self.PublicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("encode handshake: %w", err)
	}
	return &Session{
		self:      self,
		directory: directory,
		messages:  messages,
		conn:      conn,
		sink:      sink,
		log:       log.WithField("self", self.ID.Short()),
		handshake: hs,
		outbound:  make(chan request, outboundQueue),
		done:      make(chan struct{}),
	}, nil
}

// Self returns the local identity.
func (s *Session) Self() domain.Identity { return s.self }

// Peers lists the peers learned so far.
func (s *Session) Peers() []domain.PeerRecord { return s.directory.Peers() }

// Run announces the local key and pumps the connection until ctx is done,
// Close is called, or the transport fails. Transport failures are returned
// wrapped; a clean stop returns nil. The connection is closed on return.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()

	if err := s.queue(s.handshake, nil); err != nil {
		return err
	}

	errc := make(chan error, 2)
	go func() { errc <- s.writeLoop() }()
	go func() { errc <- s.readLoop() }()

	select {
	case <-ctx.Done():
		return nil
	case <-s.done:
		return nil
	case err := <-errc:
		select {
		case <-s.done:
			return nil
		default:
		}
		return err
	}
}

// Send encrypts plaintext for every known peer and waits until the line has
// been written to the relay. With no known peers it returns
// message.ErrNoPeers and sends nothing.
func (s *Session) Send(ctx context.Context, plaintext []byte) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	env, err := s.messages.Compose(plaintext)
	if err != nil {
		return err
	}
	line, err := wire.Encode(env)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	done := make(chan error, 1)
	select {
	case s.outbound <- request{line: line, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// Close stops the session and closes the connection. Safe to call more than
// once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// queue hands line to the writer without waiting for the write.
func (s *Session) queue(line []byte, done chan error) error {
	select {
	case s.outbound <- request{line: line, done: done}:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

func (s *Session) writeLoop() error {
	for {
		select {
		case <-s.done:
			return nil
		case req := <-s.outbound:
			err := s.conn.Send(req.line)
			if req.done != nil {
				req.done <- err
			}
			if err != nil {
				return fmt.Errorf("send to relay %s: %w", s.conn.RemoteAddr(), err)
			}
		}
	}
}

func (s *Session) readLoop() error {
	for {
		line, err := s.conn.Receive()
		if err != nil {
			return fmt.Errorf("receive from relay %s: %w", s.conn.RemoteAddr(), err)
		}
		s.handleLine(line)
	}
}

func (s *Session) handleLine(line []byte) {
	env, err := wire.Decode(line)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"function": "handleLine",
			"error":    err.Error(),
		}).Debug("Dropping malformed envelope")
		return
	}

	switch env.Type {
	case domain.EnvelopeHandshake:
		s.handleHandshake(env)
	case domain.EnvelopeMessage:
		s.handleMessage(env)
	default:
		s.log.WithFields(logrus.Fields{
			"function": "handleLine",
			"type":     env.Type,
		}).Debug("Ignoring unknown envelope type")
	}
}

func (s *Session) handleHandshake(env domain.Envelope) {
	if env.SenderID == s.self.ID {
		return
	}
	rec, learned, err := s.directory.Learn(env.SenderID, env.PublicKey)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"function": "handleHandshake",
			"peer":     env.SenderID.Short(),
			"error":    err.Error(),
		}).Warn("Rejected handshake")
		s.sink.Notice(domain.Notice{Kind: domain.NoticeBadHandshake, Peer: env.SenderID, Err: err})
		return
	}
	if !learned {
		return
	}

	s.log.WithFields(logrus.Fields{
		"function":    "handleHandshake",
		"peer":        rec.ID.Short(),
		"fingerprint": rec.Fingerprint,
	}).Info("Peer joined")
	s.sink.Notice(domain.Notice{Kind: domain.NoticePeerJoined, Peer: rec.ID})

	// The reply goes to everyone; peers that already know us ignore it.
	if err := s.queue(s.handshake, nil); err != nil {
		s.log.WithField("function", "handleHandshake").Debug("Session closed before reply handshake")
	}
}

func (s *Session) handleMessage(env domain.Envelope) {
	if env.SenderID == s.self.ID {
		return
	}
	msg, ok, err := s.messages.Read(env)
	switch {
	case err != nil:
		s.log.WithFields(logrus.Fields{
			"function": "handleMessage",
			"peer":     env.SenderID.Short(),
			"error":    err.Error(),
		}).Warn("Message failed to decrypt")
		s.sink.Notice(domain.Notice{Kind: domain.NoticeDecryptFailed, Peer: env.SenderID, Err: err})
	case !ok:
		s.sink.Notice(domain.Notice{Kind: domain.NoticeUnreadable, Peer: env.SenderID})
	default:
		s.sink.Message(msg)
	}
}
