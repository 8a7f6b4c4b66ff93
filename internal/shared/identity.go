package shared

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

const userIDPrefix = "usr_"

// NormalizeEmail lowercases and trims an email address. Every identity comparison goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// StableUserID derives the user id from an email address.
//
// The hash is h = h*31 + c over the UTF-16 code units of the normalized email, kept in 32 bits and rendered in base 36.
// It is deterministic, not cryptographic, and is the only link between a login and the playlists it owns.
func StableUserID(email string) string {
	var h uint32
	for _, c := range utf16.Encode([]rune(NormalizeEmail(email))) {
		h = h*31 + uint32(c)
	}
	return userIDPrefix + strconv.FormatUint(uint64(h), 36)
}
