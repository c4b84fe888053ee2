package types

import (
	"crypto/rsa"
	"time"
)

// Identity is the local participant: a per-process id bound to an RSA keypair.
// The private key never leaves the process.
type Identity struct {
	ID           PeerID
	PrivateKey   *rsa.PrivateKey
	PublicKeyPEM string
	Fingerprint  Fingerprint
}

// PeerRecord is what a participant learns about a peer from its handshake.
type PeerRecord struct {
	ID           PeerID
	PublicKey    *rsa.PublicKey
	PublicKeyPEM string
	Fingerprint  Fingerprint
	LearnedAt    time.Time
}
