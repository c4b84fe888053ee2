package store

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"onyxnet/internal/crypto"
	"onyxnet/internal/domain"
)

// KeyFileStore keeps one sealed private key at a fixed path.
type KeyFileStore struct {
	path string
	mu   sync.Mutex
}

// NewKeyFileStore returns a KeyFileStore writing to path.
func NewKeyFileStore(path string) *KeyFileStore {
	return &KeyFileStore{path: path}
}

// Path returns the file backing the store.
func (s *KeyFileStore) Path() string { return s.path }

// SavePrivateKey seals key under passphrase and writes it to disk.
func (s *KeyFileStore) SavePrivateKey(passphrase string, key *rsa.PrivateKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := crypto.MarshalPrivateKey(key)
	if err != nil {
		return err
	}
	defer crypto.Wipe(raw)

	N, r, p := scryptParamsDefault()
	blob, err := encrypt(passphrase, raw, N, r, p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return writeFile(s.path, blob, 0o600)
}

// LoadPrivateKey reads and opens the sealed key. A missing file reports
// ok=false.
func (s *KeyFileStore) LoadPrivateKey(passphrase string) (*rsa.PrivateKey, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	raw, err := decrypt(passphrase, blob)
	if err != nil {
		return nil, false, err
	}
	defer crypto.Wipe(raw)

	key, err := crypto.ParsePrivateKey(raw)
	if err != nil {
		return nil, false, fmt.Errorf("parse stored key: %w", err)
	}
	return key, true, nil
}

// Compile-time assertion that KeyFileStore implements domain.KeyStore.
var _ domain.KeyStore = (*KeyFileStore)(nil)
