package router

import (
	"github.com/gofiber/fiber/v2"
)

// HttpErrorHandler converts unhandled Fiber errors into the standard JSON
// error body so no failure path escapes the envelope.
func HttpErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	if fiberErr, ok := err.(*fiber.Error); ok {
		code = fiberErr.Code
		message = fiberErr.Message
	}
	return responseError(c, code, message)
}
