package router

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/dfquiroga/whatsapp-service/pkg/log"
)

// ErrorResponse is the JSON body returned on every failure path.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func logSuccess(c *fiber.Ctx, code int) {
	log.Print(c).Info(fmt.Sprintf("%d %v", code, http.StatusText(code)))
}

func logError(c *fiber.Ctx, code int, message string) {
	statusMessage := http.StatusText(code)

	if statusMessage == message {
		log.Print(c).Error(fmt.Sprintf("%d %v", code, statusMessage))
	} else {
		log.Print(c).Error(fmt.Sprintf("%d %v", code, message))
	}
}

// ResponseOK logs the request and sends the payload as-is with status 200.
func ResponseOK(c *fiber.Ctx, payload interface{}) error {
	logSuccess(c, http.StatusOK)
	return c.Status(http.StatusOK).JSON(payload)
}

func ResponseNoContent(c *fiber.Ctx) error {
	return c.SendStatus(http.StatusNoContent)
}

func ResponseBadRequest(c *fiber.Ctx, message string) error {
	return responseError(c, http.StatusBadRequest, message)
}

func ResponseNotFound(c *fiber.Ctx, message string) error {
	return responseError(c, http.StatusNotFound, message)
}

func ResponseServiceUnavailable(c *fiber.Ctx, message string) error {
	return responseError(c, http.StatusServiceUnavailable, message)
}

func ResponseInternalError(c *fiber.Ctx, message string) error {
	return responseError(c, http.StatusInternalServerError, message)
}

func responseError(c *fiber.Ctx, code int, message string) error {
	if message == "" {
		message = http.StatusText(code)
	}
	logError(c, code, message)
	return c.Status(code).JSON(ErrorResponse{Success: false, Error: message})
}
