package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"

	"onyxnet/internal/domain"
)

const (
	MessageKeyBytes = 32 // AES-256
	IVBytes         = 12
	TagBytes        = 16
)

var (
	// ErrNoRecipients is returned by Seal when the recipient set is empty.
	ErrNoRecipients = errors.New("no recipients")
	// ErrUnwrap means the wrapped message key addressed to us did not decrypt.
	ErrUnwrap = errors.New("wrapped key did not decrypt")
	// ErrAuthentication means the GCM tag did not verify.
	ErrAuthentication = errors.New("message authentication failed")
	// ErrMalformedPayload means IV or tag have the wrong size.
	ErrMalformedPayload = errors.New("malformed sealed payload")
)

// Seal encrypts plaintext once under a fresh message key and IV, then wraps
// that key for every recipient. Each call draws new randomness.
func Seal(
	plaintext []byte,
	recipients map[domain.PeerID]*rsa.PublicKey,
) (domain.SealedPayload, error) {
	if len(recipients) == 0 {
		return domain.SealedPayload{}, ErrNoRecipients
	}

	key := make([]byte, MessageKeyBytes)
	if _, err := rand.Read(key); err != nil {
		return domain.SealedPayload{}, err
	}
	defer Wipe(key)

	iv := make([]byte, IVBytes)
	if _, err := rand.Read(iv); err != nil {
		return domain.SealedPayload{}, err
	}

	aead, err := newGCM(key)
	if err != nil {
		return domain.SealedPayload{}, err
	}
	// GCM appends the tag; the wire format carries it separately.
	sealed := aead.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - TagBytes

	keys := make(map[domain.PeerID][]byte, len(recipients))
	for id, pub := range recipients {
		if pub == nil {
			return domain.SealedPayload{}, fmt.Errorf("wrap key for %s: %w", id, ErrInvalidPublicKey)
		}
		wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, key, nil)
		if err != nil {
			return domain.SealedPayload{}, fmt.Errorf("wrap key for %s: %w", id, err)
		}
		keys[id] = wrapped
	}

	return domain.SealedPayload{
		IV:         iv,
		Tag:        sealed[split:],
		Ciphertext: sealed[:split],
		Keys:       keys,
	}, nil
}

// Open recovers the plaintext of p for self.
//
// ok reports whether p carries a wrapped key for self at all; when it is false
// the message was simply not addressed to us and err is nil. With ok true, a
// non-nil err is ErrMalformedPayload, ErrUnwrap or ErrAuthentication and no
// plaintext is returned.
func Open(
	p domain.SealedPayload,
	self domain.PeerID,
	priv *rsa.PrivateKey,
) (plaintext []byte, ok bool, err error) {
	wrapped, ok := p.Keys[self]
	if !ok {
		return nil, false, nil
	}
	if len(p.IV) != IVBytes || len(p.Tag) != TagBytes {
		return nil, true, ErrMalformedPayload
	}

	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrUnwrap, err)
	}
	defer Wipe(key)
	if len(key) != MessageKeyBytes {
		return nil, true, fmt.Errorf("%w: %d-byte key", ErrUnwrap, len(key))
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, true, err
	}
	sealed := make([]byte, 0, len(p.Ciphertext)+len(p.Tag))
	sealed = append(sealed, p.Ciphertext...)
	sealed = append(sealed, p.Tag...)

	plaintext, err = aead.Open(nil, p.IV, sealed, nil)
	if err != nil {
		return nil, true, ErrAuthentication
	}
	return plaintext, true, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
