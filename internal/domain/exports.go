package domain

import (
	interfaces "onyxnet/internal/domain/interfaces"
	types "onyxnet/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	PeerID           = types.PeerID
	Fingerprint      = types.Fingerprint
	Identity         = types.Identity
	PeerRecord       = types.PeerRecord
	EnvelopeType     = types.EnvelopeType
	Envelope         = types.Envelope
	SealedPayload    = types.SealedPayload
	DecryptedMessage = types.DecryptedMessage
	NoticeKind       = types.NoticeKind
	Notice           = types.Notice
)

// Envelope and notice kinds re-exported for callers of the domain package.
const (
	EnvelopeHandshake = types.EnvelopeHandshake
	EnvelopeMessage   = types.EnvelopeMessage

	NoticePeerJoined    = types.NoticePeerJoined
	NoticeBadHandshake  = types.NoticeBadHandshake
	NoticeUnreadable    = types.NoticeUnreadable
	NoticeDecryptFailed = types.NoticeDecryptFailed
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityService = interfaces.IdentityService
	CryptoEngine    = interfaces.CryptoEngine
	PeerDirectory   = interfaces.PeerDirectory
	MessageService  = interfaces.MessageService
	Sink            = interfaces.Sink
	RelayConn       = interfaces.RelayConn
	KeyStore        = interfaces.KeyStore
)
