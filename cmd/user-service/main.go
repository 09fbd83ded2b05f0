package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/alvarowau/social-read/internal/user/api"
	"github.com/alvarowau/social-read/internal/user/app"
	"github.com/alvarowau/social-read/internal/user/config"
	"github.com/alvarowau/social-read/internal/user/store"
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
	if port := os.Getenv("PORT"); port != "" {
		cfg.ServerPort = port
	}

	dbpool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Ensure required tables exist (idempotent)
	if _, err := dbpool.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS user_profiles (
            id UUID PRIMARY KEY,
            credential_id UUID NOT NULL,
            name TEXT NOT NULL,
            surname TEXT NOT NULL,
            nickname TEXT NOT NULL,
            email TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CONSTRAINT user_profiles_credential_id_key UNIQUE (credential_id),
            CONSTRAINT user_profiles_nickname_key UNIQUE (nickname),
            CONSTRAINT user_profiles_email_key UNIQUE (email)
        );
    `); err != nil {
		log.Fatalf("Failed ensuring tables: %v", err)
	}

	profileRepo := store.NewPostgresProfileRepository(dbpool)

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer consumer.Close()
	log.Println("RabbitMQ consumer connected")

	handler := app.NewProvisioningHandler(profileRepo)
	go func() {
		err := consumer.Consume(rabbitmq.ConsumeOptions{
			Exchange:           events.UserEventsExchange,
			Queue:              "user-service.user-created",
			RoutingKey:         events.UserCreatedRoutingKey,
			DeadLetterExchange: events.UserEventsExchange + ".dlx",
		}, handler.HandleUserCreated)
		if err != nil {
			log.Fatalf("user.created consumer stopped: %v", err)
		}
	}()

	router := api.NewRouter(api.NewHandler(profileRepo))

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("User service starting on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server gracefully stopped")
}
