// Package store persists the participant's long-term private key.
//
// The key is stored as PKCS#8, sealed with ChaCha20-Poly1305 under a key
// derived from the user's passphrase with scrypt. Files are written atomically
// (temp file + rename) with mode 0600. Nothing else is persisted: messages,
// peer directories and identities live only for the process lifetime.
package store
