package internal

import (
	"context"
	mathrand "math/rand"
	"time"

	"github.com/desterroshop/whatsapp-gateway/internal/app"
	"github.com/desterroshop/whatsapp-gateway/pkg/env"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
)

func jitterSleep(max time.Duration) {
	if max <= 0 {
		return
	}
	ms := mathrand.Int63n(max.Milliseconds() + 1)
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

func probeWithRetry(ctx context.Context, retries int, baseBackoff, maxBackoff time.Duration) error {
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if _, lastErr = app.Gateway.GetStatus(ctx); lastErr == nil {
			return nil
		}

		// Exponential backoff with small jitter.
		backoff := baseBackoff * time.Duration(1<<(attempt-1))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		jitter := time.Duration(mathrand.Int63n(int64(500*time.Millisecond) + 1))
		time.Sleep(backoff + jitter)
	}
	return lastErr
}

func Startup() {
	log.Print(nil).Info("Running Startup Tasks")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	retries := env.GetEnvIntOrDefault("WHATSAPP_STARTUP_PROBE_RETRIES", 3)
	baseBackoff := env.GetEnvDurationOrDefault("WHATSAPP_STARTUP_PROBE_BACKOFF_BASE", 2*time.Second)
	maxBackoff := env.GetEnvDurationOrDefault("WHATSAPP_STARTUP_PROBE_BACKOFF_MAX", 30*time.Second)
	jitterSleep(env.GetEnvDurationOrDefault("WHATSAPP_STARTUP_PROBE_JITTER_MAX", 0))

	if err := probeWithRetry(ctx, retries, baseBackoff, maxBackoff); err != nil {
		log.Print(nil).WithError(err).Warn("WhatsApp server unreachable at startup, requests will trip the breaker")
	} else {
		log.Print(nil).Info("WhatsApp server reachable")
	}

	// Point the remote server's event push at our inbound webhook endpoint.
	if webhookURL := env.GetEnvStringOrDefault("WEBHOOK_URL", ""); webhookURL != "" {
		if _, err := app.Gateway.SetWebhook(ctx, webhookURL, nil); err != nil {
			log.Print(nil).WithError(err).Warn("Failed to register webhook URL with WhatsApp server")
		} else {
			log.Print(nil).WithField("url", webhookURL).Info("Webhook URL registered with WhatsApp server")
		}
	}
}
