package internal

import (
	"github.com/dfquiroga/whatsapp-service/internal/service"
	"github.com/dfquiroga/whatsapp-service/pkg/log"
)

// Startup wires the singletons and kicks off the WhatsApp connect flow. The
// connect itself is asynchronous, the HTTP server does not wait for
// readiness.
func Startup() {
	log.Print(nil).Info("Running Startup Tasks")

	if err := service.Init(); err != nil {
		log.Print(nil).WithError(err).Fatal("failed to initialize services")
	}

	if err := service.Sessions.Initialize(); err != nil {
		// The manager already scheduled a reconnect; the server still comes
		// up so status and lifecycle endpoints stay reachable.
		log.Print(nil).WithError(err).Error("initial WhatsApp connect failed")
	}
}
