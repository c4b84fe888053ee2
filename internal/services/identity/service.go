package identity

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"onyxnet/internal/crypto"
	"onyxnet/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
	// ErrNoKeyStore is returned by key operations on an ephemeral service.
	ErrNoKeyStore = errors.New("no key file configured")
	// ErrNoKey is returned by Fingerprint when the key file does not exist yet.
	ErrNoKey = errors.New("no key stored yet")
)

// Service builds identities, optionally backed by a persistent key store.
type Service struct {
	store domain.KeyStore
	newID func() string
}

// New returns an identity service. store may be nil, in which case every
// identity gets a freshly generated keypair.
func New(store domain.KeyStore) *Service {
	return &Service{store: store, newID: uuid.NewString}
}

// NewIdentity returns an identity with a new per-process id. With a store
// configured the keypair is loaded, or generated and saved if the store is
// empty; passphrase is ignored otherwise.
func (s *Service) NewIdentity(passphrase string) (domain.Identity, error) {
	priv, err := s.privateKey(passphrase)
	if err != nil {
		return domain.Identity{}, err
	}

	pemStr, err := crypto.MarshalPublicKeyPEM(&priv.PublicKey)
	if err != nil {
		return domain.Identity{}, err
	}
	id := domain.Identity{
		ID:           domain.PeerID(s.newID()),
		PrivateKey:   priv,
		PublicKeyPEM: pemStr,
		Fingerprint:  crypto.Fingerprint(&priv.PublicKey),
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewIdentity",
		"id":          id.ID.Short(),
		"fingerprint": id.Fingerprint,
		"persistent":  s.store != nil,
	}).Info("Identity ready")
	return id, nil
}

// GenerateKey creates a keypair and writes it to the store, replacing any
// existing one. It requires a store.
func (s *Service) GenerateKey(passphrase string) (domain.Fingerprint, error) {
	if s.store == nil {
		return "", ErrNoKeyStore
	}
	if !isSecurePassphrase(passphrase) {
		return "", ErrWeakPassphrase
	}
	priv, err := crypto.GenerateKeyPair()
	if err != nil {
		return "", err
	}
	if err := s.store.SavePrivateKey(passphrase, priv); err != nil {
		return "", err
	}
	return crypto.Fingerprint(&priv.PublicKey), nil
}

// Fingerprint returns the fingerprint of the stored key.
func (s *Service) Fingerprint(passphrase string) (domain.Fingerprint, error) {
	if s.store == nil {
		return "", ErrNoKeyStore
	}
	priv, ok, err := s.store.LoadPrivateKey(passphrase)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoKey
	}
	return crypto.Fingerprint(&priv.PublicKey), nil
}

func (s *Service) privateKey(passphrase string) (*rsa.PrivateKey, error) {
	if s.store == nil {
		return crypto.GenerateKeyPair()
	}
	priv, ok, err := s.store.LoadPrivateKey(passphrase)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}
	if ok {
		return priv, nil
	}
	if !isSecurePassphrase(passphrase) {
		return nil, ErrWeakPassphrase
	}
	priv, err = crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	if err := s.store.SavePrivateKey(passphrase, priv); err != nil {
		return nil, fmt.Errorf("save private key: %w", err)
	}
	return priv, nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
