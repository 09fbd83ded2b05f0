package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/alvarowau/social-read/internal/audit/app"
	"github.com/alvarowau/social-read/internal/audit/config"
	"github.com/alvarowau/social-read/internal/audit/store"
	"github.com/alvarowau/social-read/pkg/events"
	"github.com/alvarowau/social-read/pkg/rabbitmq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	dbpool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Ensure required tables exist (idempotent)
	if _, err := dbpool.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS audit_events (
            id BIGSERIAL PRIMARY KEY,
            event_timestamp TIMESTAMPTZ NOT NULL,
            service_name TEXT NOT NULL,
            user_id TEXT,
            action_type TEXT NOT NULL,
            details JSONB
        );
        CREATE INDEX IF NOT EXISTS idx_audit_events_user_id ON audit_events(user_id);
        CREATE INDEX IF NOT EXISTS idx_audit_events_action_type ON audit_events(action_type);
    `); err != nil {
		log.Fatalf("Failed ensuring tables: %v", err)
	}

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer consumer.Close()
	log.Println("RabbitMQ consumer connected")

	handler := app.NewAuditEventHandler(store.NewPostgresAuditRepository(dbpool))
	go func() {
		err := consumer.Consume(rabbitmq.ConsumeOptions{
			Exchange:   events.AuditEventsExchange,
			Queue:      "auditing-service.audit-events",
			RoutingKey: events.AuditRecordedRoutingKey,
		}, handler.HandleAuditEvent)
		if err != nil {
			log.Fatalf("audit consumer stopped: %v", err)
		}
	}()

	log.Println("Auditing service consuming audit events")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down auditing service...")
}
