package types

// NoticeKind classifies informational events surfaced to the UI.
type NoticeKind int

const (
	// NoticePeerJoined: a new peer key was learned from a handshake.
	NoticePeerJoined NoticeKind = iota + 1
	// NoticeBadHandshake: a handshake carried a key that could not be parsed.
	NoticeBadHandshake
	// NoticeUnreadable: a message was not addressed to us.
	NoticeUnreadable
	// NoticeDecryptFailed: unwrap or authentication failed; no plaintext.
	NoticeDecryptFailed
)

// String returns a short label for the kind.
func (k NoticeKind) String() string {
	switch k {
	case NoticePeerJoined:
		return "peer-joined"
	case NoticeBadHandshake:
		return "bad-handshake"
	case NoticeUnreadable:
		return "unreadable"
	case NoticeDecryptFailed:
		return "decrypt-failed"
	default:
		return "unknown"
	}
}

// Notice is a system event for the UI. Err is set for failures.
type Notice struct {
	Kind NoticeKind
	Peer PeerID
	Err  error
}
