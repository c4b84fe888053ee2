// Package message composes outgoing chat envelopes and reads incoming ones.
//
// Compose encrypts for every peer currently in the directory; Read decrypts
// with the local engine and tells "not addressed to me" apart from failures.
package message
