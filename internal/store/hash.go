package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// contentHashLen truncates the hex digest; 32 hex chars (128 bits) is far
// beyond collision range for per-transcript batches.
const contentHashLen = 32

// ContentHash digests the normalized description and primary evidence text.
// Title, type and confidence are deliberately excluded: re-categorizing the
// same underlying text must still collapse to one stored record. Case and
// surrounding whitespace do not change the hash.
func ContentHash(description, primaryEvidence string) string {
	norm := strings.ToLower(strings.TrimSpace(description)) + "\n" +
		strings.ToLower(strings.TrimSpace(primaryEvidence))
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])[:contentHashLen]
}
