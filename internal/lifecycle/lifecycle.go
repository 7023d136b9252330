// Package lifecycle exposes the restart and logout endpoints.
package lifecycle

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dfquiroga/whatsapp-service/internal/service"
	"github.com/dfquiroga/whatsapp-service/internal/types"
	"github.com/dfquiroga/whatsapp-service/pkg/log"
	"github.com/dfquiroga/whatsapp-service/pkg/router"
)

// Restart tears the session down and re-initializes it with credentials
// intact.
func Restart(c *fiber.Ctx) error {
	log.Op(c, "lifecycle", "restart").Info("restarting WhatsApp client")

	if err := service.Sessions.Restart(); err != nil {
		return router.ResponseInternalError(c, "restart failed: "+err.Error())
	}

	return router.ResponseOK(c, types.ResponseLifecycle{
		Success: true,
		Message: "WhatsApp client is restarting",
	})
}

// Logout tears the session down, deletes the credential store and
// re-initializes toward a fresh QR pairing.
func Logout(c *fiber.Ctx) error {
	log.Op(c, "lifecycle", "logout").Info("logging out WhatsApp client")

	if err := service.Sessions.Logout(); err != nil {
		return router.ResponseInternalError(c, "logout failed: "+err.Error())
	}

	return router.ResponseOK(c, types.ResponseLifecycle{
		Success: true,
		Message: "Logged out, scan the QR code to pair again",
	})
}
