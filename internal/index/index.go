package index

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dfquiroga/whatsapp-service/internal/service"
	"github.com/dfquiroga/whatsapp-service/internal/session"
	"github.com/dfquiroga/whatsapp-service/internal/types"
	"github.com/dfquiroga/whatsapp-service/pkg/router"
)

// Index reports service identity and a coarse session summary.
func Index(c *fiber.Ctx) error {
	status := "initializing"
	if service.Sessions.State() == session.StateReady {
		status = "ready"
	}

	return router.ResponseOK(c, types.ResponseIndex{
		Service: "WhatsApp API Service",
		Version: service.Version,
		Status:  status,
		HasQR:   service.Sessions.PendingQR() != "",
	})
}
