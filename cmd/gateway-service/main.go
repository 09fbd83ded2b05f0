package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/alvarowau/social-read/internal/gateway/config"
	"github.com/alvarowau/social-read/internal/gateway/filter"
	"github.com/alvarowau/social-read/internal/gateway/middleware"
	"github.com/alvarowau/social-read/internal/gateway/proxy"
	"github.com/alvarowau/social-read/pkg/token"
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
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	authProxy, err := proxy.NewServiceProxy(cfg.AuthServiceURL, "/api/auth")
	if err != nil {
		log.Fatalf("Invalid auth service URL: %v", err)
	}
	userProxy, err := proxy.NewServiceProxy(cfg.UserServiceURL, "/api")
	if err != nil {
		log.Fatalf("Invalid user service URL: %v", err)
	}

	// The gateway only validates tokens; the TTL is relevant to issuance
	// in the auth-service.
	tokens := token.NewService(cfg.JWTSecret, 0)
	authFilter := filter.New(tokens, cfg.PublicPathList())

	limiter := middleware.NewRateLimiter(100, time.Second)
	defer limiter.Stop()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(limiter.Middleware)
	r.Use(authFilter.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Gateway is healthy"))
	})

	r.Handle("/api/auth/*", authProxy)
	r.Handle("/api/users/*", userProxy)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Printf("Gateway starting on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server gracefully stopped")
}
