// Package nameutil provides username validation and normalization.
package nameutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/duressd/duressd/pkg/errclass"
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9._-]+$`)

const maxUsernameLen = 64

// Normalize returns the canonical form of a username: NFKC-normalized
// and lowercased. All store lookups key on the normalized form so that
// visually-equivalent inputs resolve to the same identity.
func Normalize(username string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(username)))
}

// ValidateUsername checks a username after normalization.
func ValidateUsername(username string) error {
	name := Normalize(username)
	if name == "" {
		return errclass.ErrNameInvalid.WithMessage("username must not be empty")
	}
	if len(name) > maxUsernameLen {
		return errclass.ErrNameInvalid.WithMessagef("username exceeds %d characters", maxUsernameLen)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return errclass.ErrNameInvalid.WithMessagef("username must not contain control characters: %q", name)
		}
	}
	if !usernameRegex.MatchString(name) {
		return errclass.ErrNameInvalid.WithMessagef("username must match [a-z0-9._-]+: %s", name)
	}
	return nil
}
