package whatsapp

// EventKind identifies a lifecycle or delivery event emitted by the client.
type EventKind int

const (
	// EventQR carries a pairing token that must be scanned out-of-band.
	EventQR EventKind = iota
	// EventAuthenticated fires once the pairing handshake completes.
	EventAuthenticated
	// EventReady fires when the session is able to send and receive.
	EventReady
	// EventAuthFailure fires when credentials are rejected or pairing fails.
	EventAuthFailure
	// EventDisconnected fires when the underlying connection drops.
	EventDisconnected
	// EventAck carries a per-message delivery acknowledgment code.
	EventAck
)

// Delivery acknowledgment codes, matching the WhatsApp Web progression.
const (
	AckError   = 0
	AckPending = 1
	AckServer  = 2
	AckDevice  = 3
	AckRead    = 4
	AckPlayed  = 5
)

// Event is the closed set of client events. Kind selects which of the
// remaining fields are meaningful.
type Event struct {
	Kind EventKind

	// EventQR
	QRCode string

	// EventAuthFailure / EventDisconnected
	Reason string

	// EventAck
	MessageID string
	AckCode   int
}
