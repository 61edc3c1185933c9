package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Volatile fragments are stripped before hashing so the same underlying
// failure collapses to one signature across machines and runs.
var (
	quotedPattern = regexp.MustCompile(`'[^']*'|"[^"]*"` + "|`[^`]*`")
	pathPattern   = regexp.MustCompile(`(?:[A-Za-z]:)?(?:/|\\)[\w@.~-]+(?:(?:/|\\)[\w@.~-]+)+`)
	hexPattern    = regexp.MustCompile(`0x[0-9a-fA-F]+`)
	numberPattern = regexp.MustCompile(`\d+`)
)

// NormalizeMessage rewrites an error message into its stable shape.
// Quoted literals become STR, filesystem paths become PATH, and numbers
// (line numbers, ports, addresses) become N.
func NormalizeMessage(message string) string {
	msg := strings.TrimSpace(message)
	msg = quotedPattern.ReplaceAllString(msg, "STR")
	msg = pathPattern.ReplaceAllString(msg, "PATH")
	msg = hexPattern.ReplaceAllString(msg, "N")
	msg = numberPattern.ReplaceAllString(msg, "N")
	return strings.Join(strings.Fields(msg), " ")
}

// FailureSignature derives the deduplication key for a failure
func FailureSignature(errorType, message string) string {
	normalized := strings.TrimSpace(errorType) + "|" + NormalizeMessage(message)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
