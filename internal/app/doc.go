// Package app wires application dependencies for the CLIs.
//
// It resolves the relay address, builds the identity, crypto engine, peer
// directory and message service from Config, dials the relay and hands back a
// ready Session in the Wire struct. It also owns logger setup shared by both
// binaries.
package app
