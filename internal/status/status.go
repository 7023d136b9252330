package status

import (
	"encoding/base64"

	"github.com/gofiber/fiber/v2"
	"github.com/skip2/go-qrcode"

	"github.com/dfquiroga/whatsapp-service/internal/service"
	"github.com/dfquiroga/whatsapp-service/internal/session"
	"github.com/dfquiroga/whatsapp-service/internal/types"
	"github.com/dfquiroga/whatsapp-service/pkg/log"
	"github.com/dfquiroga/whatsapp-service/pkg/router"
)

func describe(state session.State, hasQR bool) string {
	switch state {
	case session.StateReady:
		return "WhatsApp client is connected and ready"
	case session.StateAwaitingScan:
		if hasQR {
			return "Scan the QR code with the WhatsApp mobile app"
		}
		return "Waiting for a QR code"
	case session.StateDisconnected:
		return "WhatsApp client is disconnected"
	case session.StateTearingDown:
		return "WhatsApp client is shutting down"
	default:
		return "WhatsApp client is initializing"
	}
}

// Status reports session readiness and, while a scan is pending, the pairing
// token both raw and as an inline PNG.
func Status(c *fiber.Ctx) error {
	state := service.Sessions.State()
	token := service.Sessions.PendingQR()

	resp := types.ResponseStatus{
		Ready:   state == session.StateReady,
		Message: describe(state, token != ""),
	}

	if token != "" {
		resp.QR = &token
		png, err := qrcode.Encode(token, qrcode.Medium, 256)
		if err != nil {
			// The raw token is still usable without the rendering.
			log.Op(c, "status", "qr-image").WithError(err).Warn("failed to render QR image")
		} else {
			resp.QRImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
		}
	}

	return router.ResponseOK(c, resp)
}
