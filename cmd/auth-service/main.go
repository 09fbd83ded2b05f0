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

	"github.com/alvarowau/social-read/internal/auth/api"
	"github.com/alvarowau/social-read/internal/auth/app"
	"github.com/alvarowau/social-read/internal/auth/config"
	"github.com/alvarowau/social-read/internal/auth/store"
	"github.com/alvarowau/social-read/pkg/audit"
	"github.com/alvarowau/social-read/pkg/rabbitmq"
	"github.com/alvarowau/social-read/pkg/token"
	"github.com/alvarowau/social-read/pkg/userclient"
)

const serviceName = "auth-service"

func main() {
	// Load .env file for local development. In production, env vars are set directly.
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

	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database URL: %v", err)
	}
	dbConfig.MaxConns = 10
	dbConfig.MinConns = 2
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Ensure required tables exist (idempotent)
	if _, err := dbpool.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS roles (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL UNIQUE
        );
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            email TEXT NOT NULL,
            nickname TEXT NOT NULL,
            password_hash TEXT NOT NULL,
            enabled BOOLEAN NOT NULL DEFAULT true,
            failed_login_attempts INTEGER NOT NULL DEFAULT 0,
            account_locked BOOLEAN NOT NULL DEFAULT false,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CONSTRAINT users_email_key UNIQUE (email),
            CONSTRAINT users_nickname_key UNIQUE (nickname)
        );
        CREATE TABLE IF NOT EXISTS user_roles (
            user_id UUID NOT NULL REFERENCES users(id),
            role_id BIGINT NOT NULL REFERENCES roles(id),
            PRIMARY KEY (user_id, role_id)
        );
    `); err != nil {
		log.Fatalf("Failed ensuring tables: %v", err)
	}

	roleRepo := store.NewPostgresRoleRepository(dbpool)
	if err := roleRepo.EnsureRoles(context.Background()); err != nil {
		// Registration cannot assign the default role without seeded rows.
		log.Fatalf("Failed to reconcile roles at startup: %v", err)
	}

	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer producer.Close()
	log.Println("RabbitMQ producer connected")

	userRepo := store.NewPostgresUserRepository(dbpool)
	auditor := audit.NewEventPublisher(producer, serviceName)
	tokens := token.NewService(cfg.JWTSecret, time.Duration(cfg.JWTExpirationMinutes)*time.Minute)
	userClient := userclient.NewClient(cfg.UserServiceURL, time.Duration(cfg.RPCTimeoutSeconds)*time.Second)

	service := app.NewAuthService(
		userRepo,
		roleRepo,
		userClient,
		producer,
		auditor,
		tokens,
		time.Duration(cfg.RPCTimeoutSeconds)*time.Second,
	)

	router := api.NewRouter(api.NewHandler(service))

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Auth service starting on port %s", cfg.ServerPort)
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
