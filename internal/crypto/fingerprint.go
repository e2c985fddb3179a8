package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	fingerprintBytes = 10
	fingerprintGroup = 4
)

// Fingerprint returns a short, human-comparable digest of a public key: the
// first 10 bytes of its SHA-256 as hex, in space-separated groups of four
// characters.
func Fingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	h := hex.EncodeToString(sum[:fingerprintBytes])

	var b strings.Builder
	for i := 0; i < len(h); i += fingerprintGroup {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(h[i:min(i+fingerprintGroup, len(h))])
	}
	return b.String()
}
