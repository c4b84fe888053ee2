package types

// EnvelopeType discriminates the wire envelopes.
type EnvelopeType string

const (
	EnvelopeHandshake EnvelopeType = "handshake"
	EnvelopeMessage   EnvelopeType = "msg"
)

// Envelope is one line of the relay protocol. Which optional fields are set
// depends on Type.
type Envelope struct {
	Type      EnvelopeType   `json:"type"`
	SenderID  PeerID         `json:"sender_id"`
	PublicKey string         `json:"pubkey,omitempty"`
	Payload   *SealedPayload `json:"payload,omitempty"`
}

// SealedPayload is a hybrid-encrypted chat message. Byte fields travel as
// standard base64. Keys holds the symmetric key wrapped once per recipient.
type SealedPayload struct {
	IV         []byte            `json:"iv"`
	Tag        []byte            `json:"tag"`
	Ciphertext []byte            `json:"ciphertext"`
	Keys       map[PeerID][]byte `json:"keys"`
}

// DecryptedMessage is handed to the UI after a successful decrypt.
// Timestamp is the Unix time the message was opened.
type DecryptedMessage struct {
	From      PeerID
	Plaintext []byte
	Timestamp int64
}
