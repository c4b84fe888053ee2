// Package identity creates the local participant identity.
//
// Each process gets a fresh random id. The RSA keypair is either generated on
// the spot or, when a domain.KeyStore is configured, loaded from it (and
// created plus saved on first use, subject to the passphrase policy).
package identity
