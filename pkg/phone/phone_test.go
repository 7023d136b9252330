package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"international with plus", "+15551234567", "15551234567" + UserSuffix},
		{"no plus with separators", "555-123 4567", "5551234567" + UserSuffix},
		{"parentheses", "(57) 305 449-7235", "573054497235" + UserSuffix},
		{"already addressed", "15551234567@c.us", "15551234567@c.us"},
		{"already addressed with spaces", " 1555 123-4567@c.us ", "15551234567@c.us"},
		{"group address untouched", "1234567890-987654@g.us", "1234567890-987654@g.us"},
		{"bare digits", "573054497235", "573054497235" + UserSuffix},
		{"empty yields degenerate address", "", UserSuffix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestLocalPart(t *testing.T) {
	assert.Equal(t, "15551234567", LocalPart("15551234567@c.us"))
	assert.Equal(t, "15551234567", LocalPart("15551234567"))
}
