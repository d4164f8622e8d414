package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dbplayground/cmd/playground/infrastructure"
	"dbplayground/internal/adapter/cache"
	"dbplayground/internal/adapter/db/gormstore"
	ginhandler "dbplayground/internal/adapter/gin/handler"
	"dbplayground/internal/adapter/gin/middleware"
	"dbplayground/internal/adapter/repository/cached"
	"dbplayground/internal/config"
	"dbplayground/internal/usecase/user"
	redisclient "dbplayground/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	UserUC      user.Usecase
	RateLimiter *middleware.RateLimiter
	GinHandler  *ginhandler.UserHandler
}

// NewContainer creates and initializes all application dependencies.
// Redis is optional: without it reads go straight to the database and the
// rate limiter is disabled.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Initialize database
	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	c := &Container{
		Config: cfg,
		Logger: l,
		DB:     db,
	}

	dbRepo := gormstore.NewUserRepo(db, l)
	if cfg.DB.AutoMigrate {
		if err := dbRepo.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Initialize cache layer
	var userCache cache.UserCache
	if cfg.Redis.Enabled {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb

		userCache = cache.NewRedisUserCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)

		c.RateLimiter = middleware.NewRateLimiter(
			rdb.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
				Enabled:           cfg.RateLimit.Enabled,
			},
			l,
		)
	} else {
		l.Info("redis disabled, reads go straight to the database")
	}

	// Initialize repository and use case
	repo := cached.NewCachedUserRepository(dbRepo, userCache, l)
	c.UserUC = user.New(repo, l)

	// Initialize Gin handler
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
