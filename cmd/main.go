package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/hnhnc176/empathy-auth-service/internal/config"
	"github.com/hnhnc176/empathy-auth-service/internal/database"
	"github.com/hnhnc176/empathy-auth-service/internal/handler"
	"github.com/hnhnc176/empathy-auth-service/internal/handler/middleware"
	"github.com/hnhnc176/empathy-auth-service/internal/repository/postgres"
	"github.com/hnhnc176/empathy-auth-service/internal/service"
	"github.com/hnhnc176/empathy-auth-service/pkg/email"
	"github.com/hnhnc176/empathy-auth-service/pkg/preferences"
	"github.com/hnhnc176/empathy-auth-service/pkg/ratelimit"
	"github.com/hnhnc176/empathy-auth-service/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()
	log.Println("✓ Database connection established")

	// Run schema migrations
	if err := database.RunMigrations(&cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// Initialize Redis client
	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}()
	log.Println("✓ Redis connection established")

	// Initialize validator
	validate := validator.NewValidator()

	// Initialize repository
	userRepo := postgres.NewUserRepository(db)

	// Initialize email dispatcher
	var emailDispatcher email.Dispatcher
	if cfg.Email.Enabled {
		emailDispatcher, err = email.NewResendDispatcher(&email.Config{
			APIKey:          cfg.Email.APIKey,
			FromName:        cfg.Email.FromName,
			FromEmail:       cfg.Email.FromEmail,
			VerificationURL: cfg.Email.VerificationURL,
			Timeout:         cfg.Email.Timeout,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize email dispatcher: %v", err)
			log.Println("Email functionality will be disabled")
			emailDispatcher = nil
		} else {
			log.Println("✓ Email dispatcher initialized (Resend)")
		}
	} else {
		log.Println("ℹ Email dispatcher disabled (set EMAIL_ENABLED=true to enable)")
	}

	// Initialize preferences client
	var prefs preferences.Initializer
	if cfg.Preferences.Enabled {
		client, err := preferences.NewClient(&preferences.Config{
			BaseURL: cfg.Preferences.BaseURL,
			Timeout: cfg.Preferences.Timeout,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize preferences client: %v", err)
		} else {
			prefs = client
			log.Printf("✓ Preferences client initialized - %s", cfg.Preferences.BaseURL)
		}
	} else {
		log.Println("ℹ Preferences client disabled (set PREFERENCES_ENABLED=true to enable)")
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, emailDispatcher, cfg)
	userService := service.NewUserService(userRepo, emailDispatcher, prefs, cfg)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, validate)
	userHandler := handler.NewUserHandler(userService, validate)
	healthHandler := handler.NewHealthHandler()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "Empathy Auth Service v1.0",
		DisableStartupMessage: false,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
	})

	// Setup global middlewares
	app.Use(middleware.RecoveryMiddleware())
	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.CORSMiddleware())

	// Setup route middlewares
	sessionMiddleware := middleware.SessionMiddleware(authService)

	rateLimitMiddleware := middleware.NoopMiddleware()
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewLimiter(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.Window)
		rateLimitMiddleware = middleware.RateLimitMiddleware(limiter)
		log.Printf("✓ Rate limiting enabled (%d req / %s)", cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}

	// Setup routes
	handler.SetupRoutes(
		app,
		authHandler,
		userHandler,
		healthHandler,
		sessionMiddleware,
		rateLimitMiddleware,
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Printf("🚀 Server starting on http://localhost%s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		if err := app.Listen(addr); err != nil {
			// Don't use log.Fatalf in goroutine, send error to main
			log.Printf("❌ Server failed to start: %v", err)
			stop() // Trigger shutdown
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Println("⏳ Shutting down server gracefully...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✓ Server stopped")
}

// initDB initializes PostgreSQL database connection with retry logic
func initDB(cfg *config.Config) (*sqlx.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sqlx.DB
	var err error

	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}

		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Error closing database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// initRedis initializes Redis client and verifies connection
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Printf("Error closing Redis after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// customErrorHandler handles Fiber errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Log error for debugging (sanitized)
	log.Printf("Error handling request [%s %s]: %v", c.Method(), c.Path(), err)

	return c.Status(code).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}
