// Package hashing produces the content hashes used to match identical
// questions across platform exports.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
)

// QueryHash returns the hex SHA-256 of the text's UTF-8 bytes. Hashes are
// computed on normalized content so the same question phrased with
// different whitespace or encoding still collides. Empty text hashes to
// the empty string rather than the digest of zero bytes.
func QueryHash(text string) string {
	if text == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
