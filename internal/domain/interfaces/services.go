package interfaces

import (
	"crypto/rsa"

	domaintypes "onyxnet/internal/domain/types"
)

// IdentityService creates the local participant identity.
type IdentityService interface {
	NewIdentity(passphrase string) (domaintypes.Identity, error)
}

// CryptoEngine seals plaintext for a recipient set and opens payloads
// addressed to its own identity.
type CryptoEngine interface {
	Encrypt(
		plaintext []byte,
		recipients map[domaintypes.PeerID]*rsa.PublicKey,
	) (domaintypes.SealedPayload, error)
	// Decrypt reports ok=false with a nil error when the payload carries no
	// key for this identity.
	Decrypt(payload domaintypes.SealedPayload) (plaintext []byte, ok bool, err error)
}

// PeerDirectory maps peer ids to public keys learned from handshakes.
type PeerDirectory interface {
	// Learn stores a record for id if none exists. learned is false when the
	// id was already known.
	Learn(id domaintypes.PeerID, publicKeyPEM string) (rec domaintypes.PeerRecord, learned bool, err error)
	Recipients() map[domaintypes.PeerID]*rsa.PublicKey
	Peers() []domaintypes.PeerRecord
	Len() int
}

// MessageService turns plaintext into msg envelopes and back.
type MessageService interface {
	Compose(plaintext []byte) (domaintypes.Envelope, error)
	Read(env domaintypes.Envelope) (domaintypes.DecryptedMessage, bool, error)
}

// Sink is the UI boundary: it receives decrypted messages and notices.
type Sink interface {
	Message(msg domaintypes.DecryptedMessage)
	Notice(n domaintypes.Notice)
}
