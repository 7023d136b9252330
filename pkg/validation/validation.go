package validation

import (
	"errors"
	"strings"

	"github.com/rivo/uniseg"
)

// MaxMessageGraphemes mirrors the provider's message length ceiling. Counted
// in grapheme clusters so emoji and combining sequences are measured the way
// the recipient sees them.
const MaxMessageGraphemes = 65536

// ValidatePhone ensures a recipient was provided. Normalization itself is
// total, so emptiness is the only rejection here.
func ValidatePhone(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("phone is required")
	}
	return nil
}

// ValidateMessage ensures a non-empty message within the provider limit.
func ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return errors.New("message is required")
	}
	if uniseg.GraphemeClusterCount(message) > MaxMessageGraphemes {
		return errors.New("message exceeds maximum length")
	}
	return nil
}
