package app

import (
	"context"
	"database/sql"

	"github.com/gofiber/fiber/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/desterroshop/whatsapp-gateway/internal/history"
	"github.com/desterroshop/whatsapp-gateway/internal/webhook"
	"github.com/desterroshop/whatsapp-gateway/pkg/breaker"
	"github.com/desterroshop/whatsapp-gateway/pkg/env"
	"github.com/desterroshop/whatsapp-gateway/pkg/gateway"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
	"github.com/desterroshop/whatsapp-gateway/pkg/router"
	"github.com/desterroshop/whatsapp-gateway/pkg/transaction"
)

// ServiceWhatsAppAPI is the circuit breaker key guarding all calls to the
// remote WhatsApp server.
const ServiceWhatsAppAPI = "whatsapp-api"

var (
	Gateway      *gateway.Client
	Breaker      *breaker.Breaker
	Transactions *transaction.Coordinator
	History      *history.Store
	Webhooks     *webhook.Store
	Engine       *webhook.Engine
	Dispatcher   *webhook.Dispatcher
	Verifier     *webhook.Verifier

	DB    *sql.DB
	Redis *redis.Client
)

// Init wires the gateway client, breaker, transaction coordinator and
// webhook plumbing from the environment. Redis and Postgres are optional:
// without REDIS_ADDR the breaker and transaction records stay in-process,
// without DATABASE_URL the message log and subscriber forwarding are off.
func Init() {
	Gateway = gateway.NewClient(gateway.ConfigFromEnv())

	var breakerStore breaker.Store
	var txStore transaction.Store
	if addr := env.GetEnvStringOrDefault("REDIS_ADDR", ""); addr != "" {
		Redis = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: env.GetEnvStringOrDefault("REDIS_PASSWORD", ""),
			DB:       env.GetEnvIntOrDefault("REDIS_DB", 0),
		})
		if err := Redis.Ping(context.Background()).Err(); err != nil {
			log.Print(nil).WithError(err).Warn("Redis unreachable at startup, continuing anyway")
		}
		breakerStore = breaker.NewRedisStore(Redis)
		txStore = transaction.NewRedisStore(Redis)
		log.Print(nil).Info("Using redis-backed breaker and transaction stores")
	} else {
		breakerStore = breaker.NewMemoryStore()
		txStore = transaction.NewMemoryStore()
		log.Print(nil).Info("REDIS_ADDR not set, using in-process breaker and transaction stores")
	}

	Breaker = breaker.New(breakerStore, breaker.Options{})
	Transactions = transaction.NewCoordinator(Gateway, txStore, transaction.Options{})

	if dsn := env.GetEnvStringOrDefault("DATABASE_URL", ""); dsn != "" {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			log.Print(nil).WithError(err).Fatal("Failed to open database")
		}
		DB = db
		History = history.NewStore(db)
		Webhooks = webhook.NewStore(db)

		ctx := context.Background()
		if err := History.EnsureSchema(ctx); err != nil {
			log.Print(nil).WithError(err).Fatal("Failed to ensure message log schema")
		}
		if err := Webhooks.EnsureSchema(ctx); err != nil {
			log.Print(nil).WithError(err).Fatal("Failed to ensure webhook schema")
		}
	} else {
		log.Print(nil).Info("DATABASE_URL not set, message log and subscriber forwarding disabled")
	}

	Engine = webhook.NewEngine(Webhooks)
	Dispatcher = webhook.NewDispatcher(Engine)
	Verifier = webhook.NewVerifier(env.GetEnvStringOrDefault("WEBHOOK_SECRET", ""))

	if History != nil {
		store := History
		Dispatcher.Subscribe(webhook.Handlers{
			OnMessageReceived: func(n webhook.MessageReceived) {
				err := store.Record(context.Background(), history.Message{
					SessionID: n.SessionID,
					Direction: "inbound",
					From:      gateway.NormalizePhone(n.From, Gateway.CountryCode()),
					Body:      n.Body,
					Type:      messageType(n.Type),
					Metadata:  n.Data,
				})
				if err != nil {
					log.Webhook(string(webhook.EventMessageReceived)).WithError(err).Warn("Failed to record inbound message")
				}
			},
		})
	}
}

// Shutdown releases background workers and connections.
func Shutdown() {
	if Engine != nil {
		Engine.Shutdown()
	}
	if DB != nil {
		_ = DB.Close()
	}
	if Redis != nil {
		_ = Redis.Close()
	}
}

// Client returns the gateway client tagged with the request's correlation id.
func Client(c *fiber.Ctx) *gateway.Client {
	return Gateway.WithCorrelationID(router.CorrelationID(c))
}

func messageType(t string) string {
	if t == "" {
		return "text"
	}
	return t
}
