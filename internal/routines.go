package internal

import (
	"github.com/robfig/cron/v3"

	"github.com/dfquiroga/whatsapp-service/internal/service"
	"github.com/dfquiroga/whatsapp-service/pkg/log"
)

func Routines(c *cron.Cron) {
	log.Print(nil).Info("Running Routine Tasks")

	// Sweep staged media that outlived its cleanup timer, e.g. after a crash.
	_, err := c.AddFunc("0 * * * * *", func() {
		service.Media.Sweep()
	})
	if err != nil {
		log.Print(nil).WithError(err).Error("failed to schedule media sweep")
	}

	// Periodic session health log.
	_, err = c.AddFunc("0 */5 * * * *", func() {
		state := service.Sessions.State()
		entry := log.Session("health").WithField("state", state.String())
		if service.Sessions.Ready() {
			entry.Info("session healthy")
		} else {
			entry.Warn("session not ready")
		}
	})
	if err != nil {
		log.Print(nil).WithError(err).Error("failed to schedule session health check")
	}
}
