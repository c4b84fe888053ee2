// Package peer keeps the participant's directory of peer public keys.
//
// Records are created from handshakes and are first-writer-wins: once an id is
// known, later handshakes for it are ignored, so a key cannot be replaced.
// There is no removal; peers that disconnect stay in the directory.
package peer
