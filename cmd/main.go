package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/secsys/security-service/internal/api"
	"github.com/secsys/security-service/internal/app"
	"github.com/secsys/security-service/internal/auth"
	"github.com/secsys/security-service/internal/config"
	"github.com/secsys/security-service/internal/jokes"
	"github.com/secsys/security-service/internal/session"
	"github.com/secsys/security-service/internal/store"
	"github.com/secsys/security-service/pkg/rabbitmq"
)

func main() {
	// Load .env file for local development. In production, env vars are set directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load application configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	// If a platform-provided PORT is set, prefer it
	if port := os.Getenv("PORT"); port != "" {
		cfg.ServerPort = port
	}

	// Establish database connection pool
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database URL: %v\n", err)
	}

	dbConfig.MaxConns = 10
	dbConfig.MinConns = 2
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts behind poolers
	dbConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Ensure required tables exist (idempotent)
	if _, err := dbpool.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS accounts (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            username TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            failed_login_attempts INT NOT NULL DEFAULT 0,
            last_failed_login_at TIMESTAMPTZ,
            is_locked BOOLEAN NOT NULL DEFAULT FALSE,
            lockout_until TIMESTAMPTZ,
            is_two_factor_enabled BOOLEAN NOT NULL DEFAULT FALSE,
            otp_secret TEXT NOT NULL DEFAULT '',
            phone_number TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS recipients (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            kind TEXT NOT NULL,
            name TEXT NOT NULL,
            address TEXT NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (kind, address)
        );
    `); err != nil {
		log.Printf("Warning: failed ensuring tables (may already exist): %v", err)
	}

	// Set up the session store on Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Unable to parse Redis URL: %v\n", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	sessions := session.NewRedisStore(redisClient, "secsys:session")

	// Set up RabbitMQ producer with bounded dial timeout; fall back to a
	// logging publisher on failure so the service can still start.
	var producer rabbitmq.Publisher
	if p, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL); err != nil {
		log.Printf("WARNING: Failed to connect to RabbitMQ at startup: %v. Continuing without MQ.", err)
		producer = &rabbitmq.LogPublisher{}
	} else {
		producer = p
		log.Println("RabbitMQ producer connected")
	}
	defer producer.Close()

	// Set up repositories and services
	accountRepo := store.NewPostgresAccountRepository(dbpool)
	recipientRepo := store.NewPostgresRecipientRepository(dbpool)
	authService := auth.NewService(
		accountRepo,
		sessions,
		cfg.TOTPIssuer,
		time.Duration(cfg.Pending2FATTL)*time.Minute,
		time.Duration(cfg.SessionTTLMinutes)*time.Minute,
	)
	tokens := api.NewTokenIssuer(cfg.TokenSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute, cfg.TOTPIssuer)
	jokeClient := jokes.NewClient(cfg.JokeAPIURL)

	// Scheduled joke dispatch
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	jobs := app.NewJobs(recipientRepo, jokeClient, producer, slogger)
	scheduler := app.NewScheduler(jobs, slogger, cfg)
	scheduler.Start()
	defer scheduler.Stop()

	// Set up router and handlers
	r := chi.NewRouter()
	r.Use(middleware.Logger)    // Log API requests
	r.Use(middleware.Recoverer) // Recover from panics
	if cfg.CORSAllowedOrigins != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   strings.Split(cfg.CORSAllowedOrigins, ","),
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	authHandler := api.NewAuthHandler(authService, tokens)
	cipherHandler := api.NewCipherHandler()
	jokeHandler := api.NewJokeHandler(jokeClient)
	automationHandler := api.NewAutomationHandler(recipientRepo, jobs)
	requireAuth := api.AuthMiddleware(tokens, authService)

	// Define routes
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/2fa/verify", authHandler.VerifySecondFactor)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/me", authHandler.Me)
		r.Post("/auth/2fa/setup", authHandler.TwoFactorSetup)
		r.Post("/auth/2fa/confirm", authHandler.TwoFactorConfirm)
		r.Post("/auth/2fa/disable", authHandler.TwoFactorDisable)

		r.Post("/ciphers/process", cipherHandler.Process)
		r.Get("/jokes/random", jokeHandler.Random)

		r.Post("/automation/recipients", automationHandler.CreateRecipient)
		r.Get("/automation/recipients", automationHandler.ListRecipients)
		r.Post("/automation/recipients/{id}/toggle", automationHandler.ToggleRecipient)
		r.Delete("/automation/recipients/{id}", automationHandler.DeleteRecipient)
		r.Post("/automation/trigger/email", automationHandler.TriggerEmail)
		r.Post("/automation/trigger/sms", automationHandler.TriggerSMS)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Security service is healthy"))
	})

	// Start the server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	// Graceful shutdown
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
