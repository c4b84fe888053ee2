// Package commands defines the onyx participant CLI.
//
// Commands
//
//   - chat         Join the relay and chat with everyone connected to it
//   - keygen       Create or replace the passphrase-protected key file
//   - fingerprint  Print the fingerprint of the key file
//   - discover     List relays advertised on the local network
//
// # Implementation
//
// The root command parses the shared flags into an app.Config and sets up
// logging before any subcommand runs. chat builds the dependency graph with
// app.NewWire, then runs the session and a stdin reader side by side so a
// slow keyboard never holds up incoming messages.
package commands
