package internal

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/desterroshop/whatsapp-gateway/internal/app"
	"github.com/desterroshop/whatsapp-gateway/pkg/env"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
)

func Routines(c *cron.Cron) {
	log.Print(nil).Info("Running Routine Tasks")

	// Roll back and drop transaction records older than their TTL.
	cleanupSpec := env.GetEnvStringOrDefault("TRANSACTION_CLEANUP_CRON_SPEC", "0 */10 * * * *")
	olderThan := env.GetEnvDurationOrDefault("TRANSACTION_TTL", 24*time.Hour)
	_, err := c.AddFunc(cleanupSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		cleaned, err := app.Transactions.CleanupExpired(ctx, olderThan)
		if err != nil {
			log.Print(nil).WithError(err).Error("Transaction cleanup pass failed")
			return
		}
		if cleaned > 0 {
			log.Print(nil).WithField("cleaned", cleaned).Info("Expired transactions cleaned up")
		}
	})
	if err != nil {
		log.Print(nil).WithField("error", err.Error()).Error("Failed to add transaction cleanup cron job")
	}

	// Periodic reachability probe keeps a recent remote health signal in the
	// logs without waiting for user traffic.
	if env.GetEnvBoolOrDefault("WHATSAPP_ENABLE_HEALTH_CHECK_CRON", true) {
		_, err := c.AddFunc("0 */5 * * * *", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := app.Gateway.GetStatus(ctx); err != nil {
				log.Print(nil).WithError(err).Warn("WhatsApp server unhealthy")
				return
			}
			log.Print(nil).Info("WhatsApp server healthy")
		})
		if err != nil {
			log.Print(nil).WithField("error", err.Error()).Error("Failed to add health check cron job")
		}
	}

	c.Start()
}
