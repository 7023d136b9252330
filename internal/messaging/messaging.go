// Package messaging exposes the outbound send endpoints.
package messaging

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/dfquiroga/whatsapp-service/internal/media"
	"github.com/dfquiroga/whatsapp-service/internal/send"
	"github.com/dfquiroga/whatsapp-service/internal/service"
	"github.com/dfquiroga/whatsapp-service/internal/types"
	"github.com/dfquiroga/whatsapp-service/pkg/log"
	"github.com/dfquiroga/whatsapp-service/pkg/router"
)

func requestContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func responseSendError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, send.ErrNotConnected):
		return router.ResponseServiceUnavailable(c, err.Error())
	case errors.Is(err, send.ErrValidation):
		return router.ResponseBadRequest(c, err.Error())
	case errors.Is(err, send.ErrNotRegistered):
		return router.ResponseNotFound(c, err.Error())
	default:
		return router.ResponseInternalError(c, err.Error())
	}
}

// Send dispatches a single text message.
func Send(c *fiber.Ctx) error {
	var req types.RequestSend
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "invalid request body")
	}

	log.Op(c, "messaging", "send").WithField("phone", req.Phone).Info("dispatching text message")

	res, err := service.Sender.SendText(requestContext(c), req.Phone, req.Message)
	if err != nil {
		return responseSendError(c, err)
	}

	return router.ResponseOK(c, types.ResponseSend{
		Success:   true,
		Message:   "Message sent successfully",
		MessageID: res.MessageID,
		To:        res.To,
	})
}

// SendMedia stages an inline base64 image and dispatches it with an optional
// caption.
func SendMedia(c *fiber.Ctx) error {
	var req types.RequestSendMedia
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "invalid request body")
	}

	log.Op(c, "messaging", "send-media").WithField("phone", req.Phone).Info("dispatching media message")

	// Readiness first: nothing gets decoded or staged for a session that
	// cannot send.
	if !service.Sessions.Ready() {
		return router.ResponseServiceUnavailable(c, send.ErrNotConnected.Error())
	}

	asset, err := service.Media.Prepare(req.ImageBase64)
	if err != nil {
		if errors.Is(err, media.ErrInvalidImage) {
			return router.ResponseBadRequest(c, err.Error())
		}
		return router.ResponseInternalError(c, err.Error())
	}
	defer service.Media.ScheduleCleanup(asset.Path)

	res, err := service.Sender.SendImage(requestContext(c), req.Phone, req.Message, asset.Path)
	if err != nil {
		return responseSendError(c, err)
	}

	return router.ResponseOK(c, types.ResponseSendMedia{
		Success:   true,
		Message:   "Media message sent successfully",
		MessageID: res.MessageID,
		To:        res.To,
		ImageCompression: types.ImageCompression{
			OriginalSize:   asset.OriginalSize,
			CompressedSize: asset.CompressedSize,
		},
	})
}

// SendBulk dispatches a list of text messages sequentially. Per-entry
// failures land in the result list, never abort the batch.
func SendBulk(c *fiber.Ctx) error {
	var req types.RequestSendBulk
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "invalid request body")
	}
	if len(req.Messages) == 0 {
		return router.ResponseBadRequest(c, "messages array is required")
	}

	entries := make([]send.BulkEntry, 0, len(req.Messages))
	for _, m := range req.Messages {
		entries = append(entries, send.BulkEntry{Phone: m.Phone, Message: m.Message})
	}

	log.Op(c, "messaging", "send-bulk").WithField("count", len(entries)).Info("dispatching bulk messages")

	// Bulk runs detached from the request context: aborting the HTTP request
	// must not abandon a half-sent batch.
	report, err := service.Sender.SendBulk(context.Background(), entries)
	if err != nil {
		return responseSendError(c, err)
	}

	return router.ResponseOK(c, types.ResponseSendBulk{
		Success: true,
		Total:   report.Total,
		Sent:    report.Sent,
		Failed:  report.Failed,
		Results: report.Results,
	})
}
