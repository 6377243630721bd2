// Package protocol implements the pure, I/O-free value functions over
// GitMsg reference strings, repository URLs and commit hashes that
// every other component builds on.
package protocol

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// HashLen is the canonical truncated length of a commit hash.
const HashLen = 12

// ErrBadHash is returned when a string is not valid hexadecimal.
var ErrBadHash = errors.New("hash: input is not hexadecimal")

var hexRe = regexp.MustCompile(`^[a-fA-F0-9]+$`)
var hash12Re = regexp.MustCompile(`^[a-f0-9]{12}$`)

// NormalizeHash lower-cases a hex string and truncates it to HashLen
// characters. Any hex input of at least one character is accepted;
// non-hex input is rejected with ErrBadHash.
func NormalizeHash(h string) (string, error) {
	h = strings.TrimSpace(h)
	if h == "" || !hexRe.MatchString(h) {
		return "", errors.Wrapf(ErrBadHash, "%q", h)
	}
	h = strings.ToLower(h)
	if len(h) > HashLen {
		h = h[:HashLen]
	}
	return h, nil
}

// ValidateHash reports whether h is exactly HashLen lowercase hex
// characters.
func ValidateHash(h string) bool {
	return hash12Re.MatchString(h)
}
