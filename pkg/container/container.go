package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"pharmacy-backend/internal/config"
	infraCache "pharmacy-backend/internal/infrastructure/cache"
	"pharmacy-backend/internal/infrastructure/database"
	"pharmacy-backend/pkg/cache"

	alertHandler "pharmacy-backend/internal/domains/alert/handler"
	alertRepo "pharmacy-backend/internal/domains/alert/repository"
	alertService "pharmacy-backend/internal/domains/alert/service"
	"pharmacy-backend/internal/domains/inventory/forecast"
	invHandler "pharmacy-backend/internal/domains/inventory/handler"
	invRepo "pharmacy-backend/internal/domains/inventory/repository"
	invService "pharmacy-backend/internal/domains/inventory/service"
)

// Container holds the application's dependency graph. Initialization
// order matters: config, infrastructure, repositories, services,
// handlers.
type Container struct {
	Config *config.Config
	DB     *database.PostgresDB
	Cache  cache.Cache

	InventoryStore invRepo.Store
	AlertRepo      alertRepo.Repository
	Forecaster     forecast.Forecaster

	InventoryService invService.Service
	AlertService     alertService.Service

	InventoryHandler *invHandler.Handler
	AlertHandler     *alertHandler.Handler
}

// NewContainer builds and initializes the whole dependency graph.
func NewContainer() (*Container, error) {
	log.Println("Initializing DI container...")

	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("Config loaded (environment: %s)", cfg.App.Environment)

	dbConfig, err := cfg.Database.PoolConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	log.Println("Database connected")

	redisCache := infraCache.NewRedisCache(
		cfg.Redis.Host,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)

	if rc, ok := redisCache.(*infraCache.RedisCache); ok {
		if err := rc.Connect(context.Background()); err != nil {
			// Redis is a read accelerator here, not a source of truth, so
			// a failed connection is a warning, not a startup failure.
			log.Printf("Redis connection failed (non-critical): %v", err)
		} else {
			log.Println("Redis connected")
		}
	}
	c.Cache = redisCache

	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Println("DI container initialized")
	return c, nil
}

func (c *Container) initRepositories() {
	c.InventoryStore = invRepo.NewStore(c.DB.Pool)
	c.AlertRepo = alertRepo.NewRepository(c.DB.Pool)
	c.Forecaster = forecast.NewMovingAverage(c.InventoryStore)
}

func (c *Container) initServices() {
	c.InventoryService = invService.NewService(c.InventoryStore, c.Cache)
	c.AlertService = alertService.NewService(c.AlertRepo)
}

func (c *Container) initHandlers() {
	c.InventoryHandler = invHandler.NewHandler(c.InventoryService)
	c.AlertHandler = alertHandler.NewHandler(c.AlertService)
}

// Cleanup releases resources during graceful shutdown.
func (c *Container) Cleanup() {
	log.Println("Cleaning up container resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}

	if c.Cache != nil {
		if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
			if err := rc.Close(); err != nil {
				log.Printf("Failed to close Redis: %v", err)
			} else {
				log.Println("Redis connections closed")
			}
		}
	}

	log.Println("Container cleanup completed")
}
