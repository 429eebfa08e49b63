package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/saasvalidator/page-service/internal/api"
	"github.com/saasvalidator/page-service/internal/config"
	"github.com/saasvalidator/page-service/internal/database"
	"github.com/saasvalidator/page-service/internal/logger"
	"github.com/saasvalidator/page-service/internal/metrics"
	"github.com/saasvalidator/page-service/internal/plan"
	"github.com/saasvalidator/page-service/internal/quota"
	"github.com/saasvalidator/page-service/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	db, err := database.NewPostgresConnection(cfg.Database.DSN())
	if err != nil {
		log.Error("Failed to connect to database", logger.Error(err))
		return 1
	}
	defer func() { _ = db.Close() }()

	log.Info("Database connected",
		logger.String("host", cfg.Database.Host),
		logger.Int("port", cfg.Database.Port),
		logger.String("database", cfg.Database.Database),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = redisClient.Close() }()

	return runServer(cfg, log, db, redisClient)
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.GetConfigPath("config.yml"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// runServer wires the dependency graph and starts the HTTP server.
func runServer(cfg *config.Config, log logger.Logger, db *sqlx.DB, redisClient *redis.Client) int {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	pageRepo := database.NewPageRepository(db)
	userRepo := database.NewUserRepository(db)
	eventTracker := quota.NewTracker(redisClient)

	enforcer := plan.NewEnforcer(userRepo, pageRepo, eventTracker, cfg.Plans, log)
	pageService := service.NewPageService(pageRepo, enforcer, m, log)
	handlers := api.NewHandlers(pageService, log)

	rateLimitWindow := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second

	// done stops the rate limiter sweeper on shutdown.
	done := make(chan struct{})
	defer close(done)

	server := api.NewServer(cfg.Service.Port, cfg.Service.Debug, log, func(router *gin.Engine) {
		api.SetupRoutes(
			router,
			handlers,
			cfg.Auth.JWTSecret,
			registry,
			cfg.RateLimit.MaxEventsPerMinute,
			rateLimitWindow,
			done,
		)
	})

	log.Info("Page service starting",
		logger.Int("port", cfg.Service.Port),
		logger.String("version", cfg.Service.Version),
	)

	if err := server.Run(); err != nil {
		log.Error("Server error", logger.Error(err))
		return 1
	}

	log.Info("Page service exited cleanly")
	return 0
}
