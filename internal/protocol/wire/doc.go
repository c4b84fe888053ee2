// Package wire encodes and decodes the OnyxNet envelope line protocol.
//
// Every envelope is a single UTF-8 JSON object. On stream transports it is
// terminated by '\n'; framed transports carry one object per frame. Encode
// always appends the delimiter and Decode tolerates it being present or not.
//
//	{"type":"handshake","sender_id":"<id>","pubkey":"<PEM>"}
//	{"type":"msg","sender_id":"<id>","payload":{"iv":"..","tag":"..","ciphertext":"..","keys":{"<id>":".."}}}
//
// Envelopes of an unrecognised type decode without error so that receivers
// can ignore them; envelopes of a known type with missing fields fail with
// ErrMalformed.
package wire
