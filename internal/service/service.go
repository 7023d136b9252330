// Package service owns the process-wide singletons shared by the HTTP
// controllers: the session manager, send orchestrator, media preparer and
// delivery-status relay. Wiring happens once during startup.
package service

import (
	"time"

	"github.com/dfquiroga/whatsapp-service/internal/media"
	"github.com/dfquiroga/whatsapp-service/internal/relay"
	"github.com/dfquiroga/whatsapp-service/internal/send"
	"github.com/dfquiroga/whatsapp-service/internal/session"
	"github.com/dfquiroga/whatsapp-service/pkg/env"
	"github.com/dfquiroga/whatsapp-service/pkg/whatsapp"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

var (
	Sessions    *session.Manager
	Sender      *send.Orchestrator
	Media       *media.Preparer
	StatusRelay *relay.Relay
)

// Init wires the singletons from the environment. Must run before the router
// serves its first request.
func Init() error {
	sessionCfg := session.Config{
		SessionPath:           env.GetEnvStringOrDefault("WHATSAPP_SESSION_PATH", "./whatsapp-session"),
		SettleDelay:           env.GetEnvDurationOrDefault("WHATSAPP_RESTART_SETTLE_DELAY", 1*time.Second),
		ReconnectInitialDelay: env.GetEnvDurationOrDefault("WHATSAPP_RECONNECT_INITIAL_DELAY", 5*time.Second),
		ReconnectMaxDelay:     env.GetEnvDurationOrDefault("WHATSAPP_RECONNECT_MAX_DELAY", 5*time.Minute),
		ReconnectMaxRetries:   env.GetEnvIntOrDefault("WHATSAPP_RECONNECT_MAX_RETRIES", 0),
		RenderQR:              env.GetEnvBoolOrDefault("WHATSAPP_RENDER_QR_TERMINAL", true),
	}

	Sessions = session.NewManager(sessionCfg, func(sessionPath string) (whatsapp.Client, error) {
		return whatsapp.NewMeowClient(sessionPath)
	})

	StatusRelay = relay.New(
		env.GetEnvStringOrDefault("WEBHOOK_BACKEND_URL", ""),
		env.GetEnvDurationOrDefault("WEBHOOK_TIMEOUT", relay.DefaultTimeout),
	)
	Sessions.SetAckHandler(StatusRelay.HandleAck)

	Sender = send.NewOrchestrator(
		Sessions,
		env.GetEnvDurationOrDefault("WHATSAPP_BULK_SEND_DELAY", send.DefaultBulkDelay),
	)

	preparer, err := media.NewPreparer(
		env.GetEnvStringOrDefault("WHATSAPP_MEDIA_PATH", "./whatsapp-media"),
		env.GetEnvDurationOrDefault("MEDIA_CLEANUP_DELAY", media.DefaultCleanupDelay),
	)
	if err != nil {
		return err
	}
	Media = preparer

	return nil
}
