// Package validation holds name normalization rules shared by the catalog core.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MinTagNameLen = 2
	MaxTagNameLen = 50

	MinUsernameLen = 3
	MaxUsernameLen = 30
)

var (
	invalidTagChars = regexp.MustCompile(`[^a-z0-9\-_]+`)
	separatorRuns   = regexp.MustCompile(`[-_]{2,}`)

	usernameRegex = regexp.MustCompile(`^[a-z0-9_-]{3,30}$`)
)

// NormalizeTagName converts a raw tag name to its canonical form: trimmed,
// lowercase, restricted to [a-z0-9-_], separator runs collapsed to their
// first character, edge separators removed, truncated to MaxTagNameLen.
// The result may still be too short; ValidateTagName checks that.
// Normalization is idempotent.
func NormalizeTagName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = invalidTagChars.ReplaceAllString(s, "")
	s = separatorRuns.ReplaceAllStringFunc(s, func(run string) string {
		return run[:1]
	})
	s = strings.Trim(s, "-_")
	if len(s) > MaxTagNameLen {
		s = strings.Trim(s[:MaxTagNameLen], "-_")
	}
	return s
}

// ValidateTagName checks that an already-normalized tag name is usable.
func ValidateTagName(name string) error {
	if len(name) < MinTagNameLen {
		return fmt.Errorf("tag name must be at least %d characters after normalization", MinTagNameLen)
	}
	if len(name) > MaxTagNameLen {
		return fmt.Errorf("tag name must be at most %d characters", MaxTagNameLen)
	}
	return nil
}

// NormalizeUsername derives a canonical username candidate from arbitrary
// profile metadata. Usernames are compared case-insensitively and stored
// lowercase, same charset rules as tags plus a length of 3-30.
func NormalizeUsername(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = invalidTagChars.ReplaceAllString(s, "")
	s = separatorRuns.ReplaceAllStringFunc(s, func(run string) string {
		return run[:1]
	})
	s = strings.Trim(s, "-_")
	if len(s) > MaxUsernameLen {
		s = strings.Trim(s[:MaxUsernameLen], "-_")
	}
	return s
}

// ValidateUsername checks a normalized username against the catalog rules.
func ValidateUsername(name string) error {
	if !usernameRegex.MatchString(name) {
		return fmt.Errorf("username must be %d-%d characters and contain only letters, numbers, hyphens, and underscores", MinUsernameLen, MaxUsernameLen)
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") ||
		strings.HasPrefix(name, "_") || strings.HasSuffix(name, "_") {
		return fmt.Errorf("username cannot start or end with a separator")
	}
	if separatorRuns.MatchString(name) {
		return fmt.Errorf("username cannot contain consecutive separators")
	}
	return nil
}
