// Package fingerprint computes the stable content hash used to identify
// analysis findings across runs.
package fingerprint

import (
	"crypto/sha1" //nolint:gosec // fingerprinting, not a security boundary
	"encoding/hex"
	"strings"
)

// Of returns the double-SHA1 fingerprint of items: each item is SHA1-hashed
// and hex-encoded independently, the resulting digests are joined with "-",
// and that joined string is SHA1-hashed again. The outer hash keeps the
// result a fixed-width hex string regardless of how many items or how long
// they are, and regardless of hyphens appearing inside an item.
//
// The output must remain byte-for-byte stable across runs and
// implementations: Comparator identity depends on it.
func Of(items ...string) string {
	hashes := make([]string, len(items))
	for i, item := range items {
		hashes[i] = hashHex(item)
	}
	return hashHex(strings.Join(hashes, "-"))
}

func hashHex(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
