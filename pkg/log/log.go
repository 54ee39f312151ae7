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

// Print returns a request-scoped log entry. When a correlation id has been
// attached to the request context it is included on every line.
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

	fields := logrus.Fields{
		"remote_ip": remoteIP,
		"method":    c.Method(),
		"uri":       c.OriginalURL(),
	}
	if v := c.Locals("correlation_id"); v != nil {
		if id, ok := v.(string); ok && id != "" {
			fields["correlation_id"] = id
		}
	}
	return logger.WithFields(fields)
}

// Op returns an entry for an outbound gateway operation.
func Op(operation, target, correlationID string) *logrus.Entry {
	fields := logrus.Fields{
		"operation": operation,
	}
	if target != "" {
		fields["target"] = target
	}
	if correlationID != "" {
		fields["correlation_id"] = correlationID
	}
	return logger.WithFields(fields)
}

// Tx returns an entry scoped to a transaction id.
func Tx(transactionID string) *logrus.Entry {
	return logger.WithField("transaction_id", transactionID)
}

// Webhook returns an entry scoped to an inbound webhook event.
func Webhook(event string) *logrus.Entry {
	return logger.WithField("event", event)
}
