package interfaces

import "crypto/rsa"

// KeyStore persists the long-term private key, sealed under a passphrase.
type KeyStore interface {
	SavePrivateKey(passphrase string, key *rsa.PrivateKey) error
	// LoadPrivateKey reports ok=false when nothing has been saved yet.
	LoadPrivateKey(passphrase string) (key *rsa.PrivateKey, ok bool, err error)
}
