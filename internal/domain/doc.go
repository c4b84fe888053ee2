// Package domain defines the participant-side data model (identities, peer
// records, wire envelopes, UI notices) and the contracts between services.
// It holds plain types and interfaces only; the types and interfaces
// subpackages are re-exported here for compact imports.
package domain
