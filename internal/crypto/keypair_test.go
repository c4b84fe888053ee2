package crypto_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onyxnet/internal/crypto"
)

func TestPublicKeyPEM_RoundTrip(t *testing.T) {
	a, _, _ := testKeys(t)

	s, err := crypto.MarshalPublicKeyPEM(&a.PublicKey)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s, "-----BEGIN PUBLIC KEY-----"))

	pub, err := crypto.ParsePublicKeyPEM(s)
	require.NoError(t, err)
	assert.True(t, a.PublicKey.Equal(pub))
	assert.Equal(t, crypto.Fingerprint(&a.PublicKey), crypto.Fingerprint(pub))
	assert.Len(t, crypto.Fingerprint(pub).String(), 20)
}

func TestParsePublicKeyPEM_Rejects(t *testing.T) {
	ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&ec.PublicKey)
	require.NoError(t, err)
	ecPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	tests := map[string]string{
		"empty":     "",
		"garbage":   "not a key",
		"wrong pem": string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1, 2}})),
		"bad der":   string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: []byte{1, 2}})),
		"not rsa":   ecPEM,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := crypto.ParsePublicKeyPEM(in)
			assert.ErrorIs(t, err, crypto.ErrInvalidPublicKey)
		})
	}
}

func TestPrivateKey_RoundTrip(t *testing.T) {
	a, _, _ := testKeys(t)

	der, err := crypto.MarshalPrivateKey(a)
	require.NoError(t, err)
	got, err := crypto.ParsePrivateKey(der)
	require.NoError(t, err)
	assert.True(t, a.Equal(got))
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	crypto.Wipe(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)
	crypto.Wipe(nil)
}
