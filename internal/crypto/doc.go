// Package crypto implements the hybrid encryption used between OnyxNet
// participants.
//
// Contents
//
//   - RSA-2048 key generation and PEM (SubjectPublicKeyInfo) encoding of the
//     public half (GenerateKeyPair, MarshalPublicKeyPEM, ParsePublicKeyPEM)
//   - PKCS#8 encoding of the private half for the on-disk keystore
//     (MarshalPrivateKey, ParsePrivateKey)
//   - Seal and Open: one AES-256-GCM encryption of the message, with the
//     random message key wrapped per recipient under RSA-OAEP-SHA256
//   - Engine, which binds Seal/Open to one identity
//   - Short public-key fingerprints for display/logging (Fingerprint)
//   - Best-effort memory wiping for key material (Wipe)
//
// # Outcomes of Open
//
// Open distinguishes three cases. A payload without a wrapped key for the
// caller is unreadable: ok is false and err is nil. A wrapped key that does not
// unwrap yields ErrUnwrap, and a GCM tag mismatch yields ErrAuthentication.
// Plaintext is only ever returned together with ok=true and a nil error.
//
// The parameters (AES-GCM with a 96-bit IV and a detached 128-bit tag,
// RSA-OAEP with SHA-256 for both the hash and MGF1) match what WebCrypto
// offers, so browser participants interoperate with this package.
package crypto
