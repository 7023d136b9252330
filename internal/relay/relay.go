// Package relay forwards WhatsApp delivery acknowledgments to the backend
// webhook endpoint. Delivery is best effort, a dead backend never disturbs
// the messaging path.
package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"time"

	"github.com/dfquiroga/whatsapp-service/pkg/log"
	"github.com/dfquiroga/whatsapp-service/pkg/whatsapp"
)

const statusPath = "/webhooks/whatsapp-status"

// DefaultTimeout bounds a single webhook delivery attempt.
const DefaultTimeout = 5 * time.Second

// Status is the canonical delivery state reported to the backend.
type Status string

const (
	StatusFailed    Status = "failed"
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// StatusForAck maps a raw acknowledgment code to its canonical status. The
// second return is false for codes outside the known range, which are
// dropped rather than forwarded.
func StatusForAck(code int) (Status, bool) {
	switch code {
	case whatsapp.AckError:
		return StatusFailed, true
	case whatsapp.AckPending:
		return StatusPending, true
	case whatsapp.AckServer:
		return StatusSent, true
	case whatsapp.AckDevice:
		return StatusDelivered, true
	case whatsapp.AckRead, whatsapp.AckPlayed:
		return StatusRead, true
	default:
		return "", false
	}
}

type statusPayload struct {
	MessageID string `json:"message_id"`
	Status    Status `json:"status"`
	Ack       int    `json:"ack"`
}

// Relay posts message status updates to a single backend URL.
type Relay struct {
	backendURL string
	httpClient *http.Client
}

// New builds a relay for the given backend base URL. An empty URL yields a
// relay that drops everything, for deployments without a backend.
func New(backendURL string, timeout time.Duration) *Relay {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Relay{
		backendURL: backendURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// HandleAck relays an acknowledgment without blocking the caller. Unknown
// codes are dropped.
func (r *Relay) HandleAck(messageID string, code int) {
	status, ok := StatusForAck(code)
	if !ok {
		log.Relay().
			WithField("message_id", messageID).
			WithField("ack", code).
			Debug("dropping unknown acknowledgment code")
		return
	}
	go func() {
		if err := r.forward(messageID, status, code); err != nil {
			log.Relay().
				WithError(err).
				WithField("message_id", messageID).
				WithField("status", string(status)).
				Warn("failed to relay message status")
		}
	}()
}

func (r *Relay) forward(messageID string, status Status, code int) error {
	if r.backendURL == "" {
		return nil
	}

	body, err := json.Marshal(statusPayload{
		MessageID: messageID,
		Status:    status,
		Ack:       code,
	})
	if err != nil {
		return err
	}

	resp, err := r.httpClient.Post(r.backendURL+statusPath, "application/json", bytes.NewReader(body))
	if err != nil {
		// A backend that is simply not running is routine, not noteworthy.
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("backend responded with status %d", resp.StatusCode)
	}
	return nil
}
