package crypto

import (
	"crypto/rsa"

	"onyxnet/internal/domain"
)

// Engine performs Seal and Open on behalf of one identity.
type Engine struct {
	self domain.PeerID
	priv *rsa.PrivateKey
}

// NewEngine binds an engine to id's keypair.
func NewEngine(id domain.Identity) *Engine {
	return &Engine{self: id.ID, priv: id.PrivateKey}
}

// Encrypt seals plaintext for recipients.
func (e *Engine) Encrypt(
	plaintext []byte,
	recipients map[domain.PeerID]*rsa.PublicKey,
) (domain.SealedPayload, error) {
	return Seal(plaintext, recipients)
}

// Decrypt opens a payload addressed to the engine's identity.
func (e *Engine) Decrypt(p domain.SealedPayload) ([]byte, bool, error) {
	return Open(p, e.self, e.priv)
}

// Compile-time assertion that Engine implements domain.CryptoEngine.
var _ domain.CryptoEngine = (*Engine)(nil)
