// Package session runs one participant's conversation over a relay
// connection.
//
// A Session announces its public key on connect, learns peers from their
// handshakes (answering each new peer with one handshake of its own), and
// turns incoming msg envelopes into decrypted messages or notices for the
// UI sink. Reading from the relay and writing to it happen on separate
// goroutines; every outbound line, including handshake replies, goes through
// one queue so write failures surface on the session's error path.
package session
