package send

import "errors"

// Sentinel errors returned by the orchestrator. The HTTP layer maps them to
// response codes with errors.Is.
var (
	// ErrNotConnected means the session is not ready to send.
	ErrNotConnected = errors.New("whatsapp client not connected")

	// ErrValidation wraps a rejected phone or message input.
	ErrValidation = errors.New("invalid request")

	// ErrNotRegistered means the recipient is not a WhatsApp account.
	ErrNotRegistered = errors.New("phone number is not registered on WhatsApp")

	// ErrProviderSend wraps a dispatch failure reported by the provider.
	ErrProviderSend = errors.New("failed to send message")
)
