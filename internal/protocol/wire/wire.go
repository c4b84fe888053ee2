package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"onyxnet/internal/domain"
)

// Delimiter terminates an envelope on stream transports.
const Delimiter = '\n'

var (
	// ErrMalformed reports an envelope that is not valid JSON or lacks fields
	// its type requires.
	ErrMalformed = errors.New("malformed envelope")
)

// Handshake builds the envelope announcing id's public key.
func Handshake(id domain.PeerID, publicKeyPEM string) domain.Envelope {
	return domain.Envelope{
		Type:      domain.EnvelopeHandshake,
		SenderID:  id,
		PublicKey: publicKeyPEM,
	}
}

// Message builds a chat envelope around a sealed payload.
func Message(id domain.PeerID, payload domain.SealedPayload) domain.Envelope {
	return domain.Envelope{
		Type:     domain.EnvelopeMessage,
		SenderID: id,
		Payload:  &payload,
	}
}

// Known reports whether t is an envelope type this version understands.
func Known(t domain.EnvelopeType) bool {
	return t == domain.EnvelopeHandshake || t == domain.EnvelopeMessage
}

// Encode serialises env and appends the line delimiter.
func Encode(env domain.Envelope) ([]byte, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append(b, Delimiter), nil
}

// Decode parses one envelope line and validates the fields its type needs.
func Decode(line []byte) (domain.Envelope, error) {
	line = bytes.TrimSpace(line)
	var env domain.Envelope
	if len(line) == 0 {
		return env, fmt.Errorf("%w: empty line", ErrMalformed)
	}
	if err := json.Unmarshal(line, &env); err != nil {
		return domain.Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validate(env); err != nil {
		return domain.Envelope{}, err
	}
	return env, nil
}

func validate(env domain.Envelope) error {
	switch env.Type {
	case domain.EnvelopeHandshake:
		if env.SenderID == "" || env.PublicKey == "" {
			return fmt.Errorf("%w: handshake needs sender_id and pubkey", ErrMalformed)
		}
	case domain.EnvelopeMessage:
		if env.SenderID == "" || env.Payload == nil {
			return fmt.Errorf("%w: msg needs sender_id and payload", ErrMalformed)
		}
		if env.Payload.Keys == nil {
			return fmt.Errorf("%w: msg payload has no keys", ErrMalformed)
		}
	case "":
		return fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return nil
}
