// Package broadcast is the OnyxNet relay: a best-effort fan-out of opaque
// envelope lines between every connected participant.
//
// Two listeners feed one Registry:
//
//   - a TCP listener on the base port, reading '\n'-terminated lines
//   - a WebSocket listener on base port + 1, reading one envelope per frame
//
// Every inbound unit is broadcast verbatim to all other registered handles.
// Stream handles receive the line with its delimiter; framed handles receive a
// text frame with the delimiter stripped. The relay never parses envelopes.
//
// Delivery is best-effort. A handle whose send fails is unregistered and
// closed immediately; nothing is retried, queued or persisted, so a
// participant that is offline misses whatever was sent meanwhile.
//
// Writes carry a deadline, so a stalled participant delays a broadcast by at
// most Config.WriteTimeout, and shutdown closes every handle in bounded time.
package broadcast
