package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"dbplayground/cmd/playground/di"
	"dbplayground/cmd/playground/server"
	"dbplayground/internal/config"
	"dbplayground/internal/playground"
	"dbplayground/internal/usecase/user"
	"dbplayground/pkg/logger"
)

// App represents the application
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Container *di.Container
	// Out receives the script output.
	Out io.Writer
}

// New creates a new application instance
func New(ctx context.Context) (*App, error) {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Create DI container
	container, err := di.NewContainer(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	return &App{
		Config:    cfg,
		Logger:    l,
		Container: container,
		Out:       os.Stdout,
	}, nil
}

// Run executes the configured mode and releases every resource before returning.
func (a *App) Run(ctx context.Context) (err error) {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			a.Logger.Error("panic recovered in application",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			err = fmt.Errorf("application panic: %v", r)
		}
	}()

	a.Logger.Info("starting application",
		zap.String("service", a.Config.Logger.ServiceName),
		zap.String("version", a.Config.Logger.ServiceVersion),
		zap.String("environment", a.Config.App.Environment),
		zap.String("mode", a.Config.App.Mode),
	)

	var runErr error
	switch a.Config.App.Mode {
	case config.ModeServe:
		runErr = a.serve(ctx)
	default:
		runErr = a.runScript(ctx)
	}

	return errors.Join(runErr, a.shutdown())
}

// runScript runs one playground session against a.Out.
func (a *App) runScript(ctx context.Context) error {
	ctx, cancel := a.scriptContext(ctx)
	defer cancel()

	runner := playground.NewRunner(a.Container.UserUC, a.Out, a.Logger)
	return runner.Run(ctx, playground.Options{
		Seed:   a.Config.Playground.Seed,
		Lookup: user.FindUserRequest{FirstName: a.Config.Playground.LookupFirstName},
	})
}

// scriptContext bounds a script run by PLAYGROUND_TIMEOUT_SECONDS when it is positive.
func (a *App) scriptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.Config.Playground.TimeoutSeconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(a.Config.Playground.TimeoutSeconds)*time.Second)
}

// serve runs the HTTP API until ctx is canceled or the server fails.
func (a *App) serve(ctx context.Context) error {
	srv := server.New(a.Config, a.Logger, a.Container.GinHandler, a.Container.RateLimiter)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		// Add panic recovery for server goroutine
		defer func() {
			if r := recover(); r != nil {
				errChan <- fmt.Errorf("server panic: %v", r)
			}
		}()

		if err := srv.Start(); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		a.Logger.Info("shutting down HTTP server...")
		timeout := time.Duration(a.Config.App.ShutdownTimeoutSeconds) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := srv.Gin.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("failed to shutdown Gin server", zap.Error(err))
			return fmt.Errorf("gin shutdown: %w", err)
		}
		return nil
	case err := <-errChan:
		return err
	}
}

// shutdown releases container resources and flushes the logger
func (a *App) shutdown() error {
	var errs []error

	// Close container resources
	if a.Container != nil {
		a.Logger.Info("closing container resources...")
		if err := a.Container.Close(); err != nil {
			a.Logger.Error("failed to close container", zap.Error(err))
			errs = append(errs, fmt.Errorf("container close: %w", err))
		}
	}

	a.Logger.Info("application shutdown complete")

	// Sync logger
	if err := a.Logger.Sync(); err != nil && !logger.IsIgnorableSyncError(err) {
		errs = append(errs, fmt.Errorf("logger sync: %w", err))
	}

	return errors.Join(errs...)
}

// loadConfig loads application configuration
func loadConfig() (*config.Config, error) {
	return config.LoadConfig(getConfigPath())
}

// initLogger initializes the application logger
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	loggerCfg := logger.Config{
		Level:            cfg.Logger.Level,
		Format:           cfg.Logger.Format,
		OutputPath:       cfg.Logger.OutputPath,
		SlowQuerySeconds: cfg.Logger.SlowQuerySeconds,
		EnableSampling:   cfg.Logger.EnableSampling,
		ServiceName:      cfg.Logger.ServiceName,
		ServiceVersion:   cfg.Logger.ServiceVersion,
		Environment:      cfg.App.Environment,
	}

	return logger.NewWithConfig(loggerCfg)
}

// getConfigPath returns the configuration path
func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}
