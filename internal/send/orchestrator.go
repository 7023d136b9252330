// Package send validates, gates and dispatches outbound messages over the
// active WhatsApp session. Bulk dispatch is sequential and throttled so the
// provider never sees a burst.
package send

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/dfquiroga/whatsapp-service/pkg/log"
	"github.com/dfquiroga/whatsapp-service/pkg/phone"
	"github.com/dfquiroga/whatsapp-service/pkg/validation"
	"github.com/dfquiroga/whatsapp-service/pkg/whatsapp"
)

// DefaultBulkDelay spaces consecutive bulk dispatches.
const DefaultBulkDelay = 2 * time.Second

// SessionProvider is the slice of the lifecycle manager the orchestrator
// needs.
type SessionProvider interface {
	Ready() bool
	Client() whatsapp.Client
}

// Result reports one successful dispatch.
type Result struct {
	MessageID string `json:"messageId"`
	To        string `json:"to"`
}

// BulkEntry is one recipient/message pair of a bulk request.
type BulkEntry struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// BulkResult is the per-entry outcome of a bulk dispatch, in request order.
// Phone echoes the raw input so callers can correlate entries with their
// request.
type BulkResult struct {
	Phone   string `json:"phone"`
	Success bool   `json:"success"`
	// MessageID is set on success, Error on failure.
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BulkReport aggregates a whole bulk dispatch.
type BulkReport struct {
	Total   int          `json:"total"`
	Sent    int          `json:"sent"`
	Failed  int          `json:"failed"`
	Results []BulkResult `json:"results"`
}

// Orchestrator serializes bulk sends behind a shared limiter so spacing holds
// across overlapping requests, not just within one.
type Orchestrator struct {
	sessions SessionProvider
	limiter  *rate.Limiter
}

// NewOrchestrator builds an orchestrator with the given inter-message bulk
// delay. Non-positive delays fall back to the default.
func NewOrchestrator(sessions SessionProvider, bulkDelay time.Duration) *Orchestrator {
	if bulkDelay <= 0 {
		bulkDelay = DefaultBulkDelay
	}
	return &Orchestrator{
		sessions: sessions,
		limiter:  rate.NewLimiter(rate.Every(bulkDelay), 1),
	}
}

// SendText checks readiness, validates, gates on registration and dispatches
// a single text message. Readiness comes first: a not-ready session rejects
// regardless of payload validity.
func (o *Orchestrator) SendText(ctx context.Context, rawPhone, message string) (Result, error) {
	if !o.sessions.Ready() {
		return Result{}, ErrNotConnected
	}
	if err := validation.ValidatePhone(rawPhone); err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if err := validation.ValidateMessage(message); err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	client, address, err := o.gate(ctx, rawPhone)
	if err != nil {
		return Result{}, err
	}

	id, err := client.SendText(ctx, address, message)
	if err != nil {
		log.Session("send").WithError(err).WithField("to", address).Error("text dispatch failed")
		return Result{}, fmt.Errorf("%w: %s", ErrProviderSend, err.Error())
	}
	return Result{MessageID: id, To: address}, nil
}

// SendImage dispatches an image already staged on disk, with an optional
// caption. Caption length obeys the same ceiling as text messages.
func (o *Orchestrator) SendImage(ctx context.Context, rawPhone, caption, imagePath string) (Result, error) {
	if !o.sessions.Ready() {
		return Result{}, ErrNotConnected
	}
	if err := validation.ValidatePhone(rawPhone); err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if caption != "" {
		if err := validation.ValidateMessage(caption); err != nil {
			return Result{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
	}

	client, address, err := o.gate(ctx, rawPhone)
	if err != nil {
		return Result{}, err
	}

	id, err := client.SendImage(ctx, address, caption, imagePath)
	if err != nil {
		log.Session("send").WithError(err).WithField("to", address).Error("image dispatch failed")
		return Result{}, fmt.Errorf("%w: %s", ErrProviderSend, err.Error())
	}
	return Result{MessageID: id, To: address}, nil
}

// SendBulk dispatches entries sequentially in request order, throttled by the
// shared limiter. A failing entry is recorded and the batch continues.
func (o *Orchestrator) SendBulk(ctx context.Context, entries []BulkEntry) (BulkReport, error) {
	if !o.sessions.Ready() {
		return BulkReport{}, ErrNotConnected
	}

	report := BulkReport{
		Total:   len(entries),
		Results: make([]BulkResult, 0, len(entries)),
	}

	for _, entry := range entries {
		if err := o.limiter.Wait(ctx); err != nil {
			return report, err
		}

		res, err := o.SendText(ctx, entry.Phone, entry.Message)
		if err != nil {
			report.Failed++
			report.Results = append(report.Results, BulkResult{
				Phone:   entry.Phone,
				Success: false,
				Error:   err.Error(),
			})
			continue
		}
		report.Sent++
		report.Results = append(report.Results, BulkResult{
			Phone:     entry.Phone,
			Success:   true,
			MessageID: res.MessageID,
		})
	}
	return report, nil
}

// gate checks readiness, normalizes the recipient and verifies registration.
func (o *Orchestrator) gate(ctx context.Context, rawPhone string) (whatsapp.Client, string, error) {
	if !o.sessions.Ready() {
		return nil, "", ErrNotConnected
	}
	client := o.sessions.Client()
	if client == nil {
		return nil, "", ErrNotConnected
	}

	address := phone.Normalize(rawPhone)

	registered, err := client.IsRegisteredUser(ctx, address)
	if err != nil {
		log.Session("send").WithError(err).WithField("to", address).Error("registration check failed")
		return nil, "", fmt.Errorf("%w: %s", ErrProviderSend, err.Error())
	}
	if !registered {
		return nil, "", ErrNotRegistered
	}
	return client, address, nil
}
