package message

import (
	"errors"
	"time"

	"onyxnet/internal/domain"
	"onyxnet/internal/protocol/wire"
)

var (
	// ErrNoPeers is returned by Compose while the directory is empty.
	ErrNoPeers = errors.New("waiting for peers")
	// ErrNotMessage is returned by Read for envelopes without a payload.
	ErrNotMessage = errors.New("envelope is not a chat message")
)

// Service seals and opens chat messages for one identity.
type Service struct {
	self      domain.PeerID
	engine    domain.CryptoEngine
	directory domain.PeerDirectory
	now       func() time.Time
}

// New constructs a message service for self.
func New(self domain.PeerID, engine domain.CryptoEngine, directory domain.PeerDirectory) *Service {
	return &Service{
		self:      self,
		engine:    engine,
		directory: directory,
		now:       time.Now,
	}
}

// Compose encrypts plaintext for every known peer and wraps it in a msg
// envelope. Peers learned after this call cannot read the result.
func (s *Service) Compose(plaintext []byte) (domain.Envelope, error) {
	recipients := s.directory.Recipients()
	if len(recipients) == 0 {
		return domain.Envelope{}, ErrNoPeers
	}
	payload, err := s.engine.Encrypt(plaintext, recipients)
	if err != nil {
		return domain.Envelope{}, err
	}
	return wire.Message(s.self, payload), nil
}

// Read decrypts env. ok is false, with a nil error, when env carries no key
// for us. Errors from the engine are returned unchanged so callers can match
// them with errors.Is.
func (s *Service) Read(env domain.Envelope) (domain.DecryptedMessage, bool, error) {
	if env.Type != domain.EnvelopeMessage || env.Payload == nil {
		return domain.DecryptedMessage{}, false, ErrNotMessage
	}
	plaintext, ok, err := s.engine.Decrypt(*env.Payload)
	if err != nil {
		return domain.DecryptedMessage{}, true, err
	}
	if !ok {
		return domain.DecryptedMessage{}, false, nil
	}
	return domain.DecryptedMessage{
		From:      env.SenderID,
		Plaintext: plaintext,
		Timestamp: s.now().Unix(),
	}, true, nil
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
