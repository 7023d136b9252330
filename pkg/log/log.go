package log

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func init() {
	logger.Formatter = &logrus.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
		DisableColors:   false,
		ForceColors:     true,
	}
}

func Print(c *fiber.Ctx) *logrus.Entry {
	if c == nil {
		return logger.WithFields(logrus.Fields{})
	}

	remoteIP := c.IP()
	if v := c.Locals("remote_ip"); v != nil {
		if ip, ok := v.(string); ok && ip != "" {
			remoteIP = ip
		}
	}
	return logger.WithFields(logrus.Fields{
		"remote_ip": remoteIP,
		"method":    c.Method(),
		"uri":       c.OriginalURL(),
	})
}

// Op returns a request-scoped entry tagged with a component and operation name.
func Op(c *fiber.Ctx, component string, operation string) *logrus.Entry {
	return Print(c).WithFields(logrus.Fields{
		"component": component,
		"operation": operation,
	})
}

// Session returns an entry for connection lifecycle events, which have no
// request context.
func Session(operation string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"component": "session",
		"operation": operation,
	})
}

// Relay returns an entry for delivery-status relay events.
func Relay() *logrus.Entry {
	return logger.WithField("component", "relay")
}
