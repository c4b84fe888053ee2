// Package main runs the OnyxNet relay.
//
// The relay listens on two ports:
//
//	--port P      TCP, one JSON envelope per '\n'-terminated line
//	P+1           WebSocket, one envelope per frame (any path upgrades);
//	              GET /healthz answers 200
//
// Every line or frame a client sends is forwarded unchanged to all other
// connected clients, whichever transport they use. The relay holds no state
// beyond the live connections and never sees plaintext: envelopes are
// encrypted end to end by the participants.
//
// Optional extras:
//
//   - --metrics-addr serves Prometheus metrics on /metrics
//   - --advertise publishes the relay over mDNS so "onyx --relay auto" and
//     "onyx discover" can find it
//
// SIGINT or SIGTERM closes every client and exits.
package main
