package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	cron "github.com/robfig/cron/v3"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"

	"github.com/desterroshop/whatsapp-gateway/pkg/env"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
	"github.com/desterroshop/whatsapp-gateway/pkg/router"

	"github.com/desterroshop/whatsapp-gateway/internal"
	"github.com/desterroshop/whatsapp-gateway/internal/app"
)

type Server struct {
	Address string
	Port    string
}

func main() {
	var err error

	// Intialize Cron
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
	), cron.WithSeconds())

	// Initialize Fiber
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler:   router.HttpErrorHandler,
		BodyLimit:      router.BodyLimitBytes(),
		ReadBufferSize: 8192, // Default 4096 is too small for JWT bearer headers
	})

	// Correlation ID + panic recovery
	fiberApp.Use(router.HttpCorrelationID())
	fiberApp.Use(router.RecoveryMiddleware())

	// Router Compression
	fiberApp.Use(compress.New(compress.Config{
		Level: compress.Level(router.GZipLevel),
	}))

	// Router CORS
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: router.CORSOrigin,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Correlation-ID, X-Transaction-ID",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
	}))

	// Router Security
	fiberApp.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))

	// Router RealIP + request context enrichment
	fiberApp.Use(router.HttpRealIP())

	// Router Default Handler
	fiberApp.Get("/favicon.ico", router.ResponseNoContent)

	// Wire Gateway, Breaker, Transactions, Webhooks
	app.Init()
	defer app.Shutdown()

	// Load Internal Routes
	internal.Routes(fiberApp)

	// Running Startup Tasks
	internal.Startup()

	// Running Routines Tasks
	internal.Routines(c)

	// Get Server Configuration with defaults
	var serverConfig Server

	// SERVER_ADDRESS: default "0.0.0.0" (all interfaces)
	serverConfig.Address = env.GetEnvStringOrDefault("SERVER_ADDRESS", "0.0.0.0")

	// SERVER_PORT: default "7002"
	serverConfig.Port = env.GetEnvStringOrDefault("SERVER_PORT", "7002")

	// Start Server
	go func() {
		if err := fiberApp.Listen(serverConfig.Address + ":" + serverConfig.Port); err != nil {
			log.Print(nil).Fatal(err.Error())
		}
	}()

	// Watch for Shutdown Signal
	sigShutdown := make(chan os.Signal, 1)
	signal.Notify(sigShutdown, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-sigShutdown
	// Wait 5 Seconds Before Graceful Shutdown
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	// Try To Shutdown Server
	err = fiberApp.ShutdownWithContext(ctxShutdown)
	if err != nil {
		log.Print(nil).Fatal(err.Error())
	}

	// Try To Shutdown Cron
	c.Stop()
}
