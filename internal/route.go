package internal

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dfquiroga/whatsapp-service/pkg/router"

	ctlIndex "github.com/dfquiroga/whatsapp-service/internal/index"
	ctlLifecycle "github.com/dfquiroga/whatsapp-service/internal/lifecycle"
	ctlMessaging "github.com/dfquiroga/whatsapp-service/internal/messaging"
	ctlStatus "github.com/dfquiroga/whatsapp-service/internal/status"
)

func Routes(app *fiber.App) {
	// Route for Index
	// ---------------------------------------------
	if router.BaseURL == "" {
		app.Get("/", ctlIndex.Index)
	} else {
		app.Get(router.BaseURL, ctlIndex.Index)
		app.Get(router.BaseURL+"/", ctlIndex.Index)
	}

	// Routes for Session Status and Lifecycle
	// ---------------------------------------------
	app.Get(router.BaseURL+"/status", ctlStatus.Status)
	app.Post(router.BaseURL+"/restart", ctlLifecycle.Restart)
	app.Post(router.BaseURL+"/logout", ctlLifecycle.Logout)

	// Routes for Messaging
	// ---------------------------------------------
	app.Post(router.BaseURL+"/send", ctlMessaging.Send)
	app.Post(router.BaseURL+"/send-media", ctlMessaging.SendMedia)
	app.Post(router.BaseURL+"/send-bulk", ctlMessaging.SendBulk)
}
