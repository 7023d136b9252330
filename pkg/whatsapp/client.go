// Package whatsapp wraps the WhatsApp Web protocol client behind a narrow
// interface. The lifecycle manager, delivery-status relay and send
// orchestrator all program against Client and Event, never against the
// underlying protocol library.
package whatsapp

import (
	"context"
)

// Client is the imperative surface of the WhatsApp session. Implementations
// must be safe for concurrent use.
type Client interface {
	// Start begins the asynchronous connect/pairing flow. QR tokens and
	// readiness are reported through the event handler, not the return value.
	Start(ctx context.Context) error

	// Destroy tears the session down gracefully and releases the credential
	// store handle so its files can be removed from disk.
	Destroy() error

	// IsRegisteredUser reports whether the canonical address belongs to a
	// registered WhatsApp account.
	IsRegisteredUser(ctx context.Context, address string) (bool, error)

	// SendText delivers a plain text message and returns the provider-assigned
	// message ID.
	SendText(ctx context.Context, address string, message string) (string, error)

	// SendImage delivers the image stored at imagePath with an optional
	// caption and returns the provider-assigned message ID.
	SendImage(ctx context.Context, address string, caption string, imagePath string) (string, error)

	// SetEventHandler registers the single consumer of the event stream.
	// Must be called before Start.
	SetEventHandler(handler func(Event))
}
