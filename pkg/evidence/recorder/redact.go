package recorder

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"
)

// RedactAPIKey replaces an API key with its SHA-256 fingerprint so records
// can tell keys apart without storing them.
//
// Returns an empty string if the API key is empty.
func RedactAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(apiKey))
	return "sha256:" + hex.EncodeToString(hash[:])
}

// TruncateString shortens s to at most maxLen runes, ending in "..." when
// cut. maxLen <= 0 disables truncation.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}

	return string(runes[:maxLen-3]) + "..."
}
