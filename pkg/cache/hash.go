package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashKey returns prefix:sha256(parts), with parts NUL-separated so that
// ("ab", "c") and ("a", "bc") hash differently.
func hashKey(prefix string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the 64-character hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
