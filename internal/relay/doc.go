// Package relay connects a participant to an OnyxNet relay.
//
// Two transports implement domain.RelayConn:
//   - StreamConn: a TCP connection carrying '\n'-terminated envelope lines on
//     the relay's base port.
//   - FramedConn: a WebSocket connection on base port + 1 carrying one
//     envelope per text frame.
//
// Dial picks the transport and derives the framed port from the base address.
// Writes are bounded by a deadline; Close is idempotent and unblocks pending
// reads.
package relay
