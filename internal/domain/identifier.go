package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IdentifierLength is the number of hex characters in an Identifier.
const IdentifierLength = 8

// Identifier is the compact id of locally created entities. It always holds
// at least one hex letter so it never reads as a numeric zebra id.
type Identifier string

// NewIdentifier returns a random Identifier.
func NewIdentifier() Identifier {
	for {
		raw := strings.ReplaceAll(uuid.New().String(), "-", "")
		for i := 0; i+IdentifierLength <= len(raw); i += IdentifierLength {
			candidate := raw[i : i+IdentifierLength]
			if hasHexLetter(candidate) {
				return Identifier(candidate)
			}
		}
	}
}

// ParseIdentifier validates s as an Identifier.
func ParseIdentifier(s string) (Identifier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != IdentifierLength {
		return "", fmt.Errorf("%w: identifier %q must be %d hex characters", ErrValidation, s, IdentifierLength)
	}
	for _, r := range s {
		if !isHexDigit(r) {
			return "", fmt.Errorf("%w: identifier %q is not hexadecimal", ErrValidation, s)
		}
	}
	if !hasHexLetter(s) {
		return "", fmt.Errorf("%w: identifier %q must contain a letter", ErrValidation, s)
	}
	return Identifier(s), nil
}

// MustParseIdentifier is ParseIdentifier for literals; it panics on error.
func MustParseIdentifier(s string) Identifier {
	id, err := ParseIdentifier(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id Identifier) String() string {
	return string(id)
}

// Hex returns the identifier as its hex string.
func (id Identifier) Hex() string {
	return string(id)
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
}

func hasHexLetter(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'f' {
			return true
		}
	}
	return false
}
