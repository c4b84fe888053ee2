package crypto

import "crypto/subtle"

// Wipe overwrites b with zeros. Used on message keys once they are wrapped or
// no longer needed; best-effort only, copies made by the runtime survive.
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
}
