package crypto

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"

	"onyxnet/internal/domain"
)

// Fingerprint returns a short hex fingerprint of a public key.
//
// It hashes the DER SubjectPublicKeyInfo with SHA-256 and truncates to 10
// bytes (20 hex chars). An unencodable key yields an empty fingerprint.
func Fingerprint(pub *rsa.PublicKey) domain.Fingerprint {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(der)
	return domain.Fingerprint(hex.EncodeToString(sum[:10]))
}
