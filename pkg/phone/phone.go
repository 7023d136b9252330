// Package phone normalizes raw phone input into the canonical recipient
// address accepted by the WhatsApp send and registration-check operations.
package phone

import (
	"strings"
)

// UserSuffix is the domain suffix for individual (non-group) recipients.
const UserSuffix = "@c.us"

var stripper = strings.NewReplacer(" ", "", "\t", "", "-", "", "(", "", ")", "")

// Normalize strips whitespace, hyphens and parentheses from raw. If the result
// already contains an address separator it is returned as-is; otherwise a
// leading "+" is dropped and the user suffix appended.
//
// Normalize is total: empty input yields a degenerate address, callers are
// expected to validate non-emptiness upstream.
func Normalize(raw string) string {
	cleaned := stripper.Replace(strings.TrimSpace(raw))

	if strings.ContainsRune(cleaned, '@') {
		return cleaned
	}

	cleaned = strings.TrimPrefix(cleaned, "+")
	return cleaned + UserSuffix
}

// LocalPart returns the portion of a canonical address before the separator.
func LocalPart(address string) string {
	if idx := strings.IndexRune(address, '@'); idx >= 0 {
		return address[:idx]
	}
	return address
}
