package router

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/dfquiroga/whatsapp-service/pkg/log"
)

// RecoveryMiddleware converts panics into structured JSON responses and logs
// them. The process stays alive; a handler fault must never take down the
// long-lived session.
func RecoveryMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				message := fmt.Sprintf("%v", rec)
				log.Print(c).Error("panic recovered: " + message)
				_ = c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
					Success: false,
					Error:   message,
				})
			}
		}()
		return c.Next()
	}
}
