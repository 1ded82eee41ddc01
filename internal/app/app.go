// Package app wires configuration into a running session: storage, the AI
// coordinator, the notification scheduler and the session controller.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/fitness-buddy/internal/config"
	"github.com/benvon/fitness-buddy/internal/handlers"
	"github.com/benvon/fitness-buddy/internal/notify"
	"github.com/benvon/fitness-buddy/internal/services/ai"
	"github.com/benvon/fitness-buddy/internal/session"
	"github.com/benvon/fitness-buddy/internal/storage"
	"github.com/benvon/fitness-buddy/internal/telemetry"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Options adjusts how New builds the application
type Options struct {
	// Ephemeral keeps all state in memory regardless of the storage driver
	Ephemeral bool
	// Registry overrides the AI provider registry
	Registry *ai.ProviderRegistry
	// SessionOptions are passed through to the controller
	SessionOptions []session.Option
}

// App is a wired fitbuddy session
type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	Storage     storage.Gateway
	Notifier    *notify.Scheduler
	Coordinator *ai.Coordinator
	Controller  *session.Controller

	tracerProvider *sdktrace.TracerProvider
}

// New opens storage, builds every component and restores persisted state
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	if cfg.OTel.Enabled {
		if cfg.OTel.Endpoint == "" {
			logger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(ctx, telemetry.ServiceName, cfg.OTel.Endpoint)
			if err != nil {
				logger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				a.tracerProvider = tp
				logger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTel.Endpoint))
			}
		}
	}

	storageOpts := storage.Options{
		Driver:   cfg.Storage.Driver,
		DataDir:  cfg.DataDir,
		DSN:      cfg.Storage.DSN,
		RedisURL: cfg.Storage.RedisURL,
	}
	if opts.Ephemeral {
		storageOpts.Driver = storage.DriverMemory
	}
	gw, err := storage.Open(ctx, storageOpts)
	if err != nil {
		a.shutdownTracer()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a.Storage = gw

	a.Notifier = notify.NewScheduler(cfg.Notification.Duration, logger.Named("notify"))

	coordinator, err := a.buildCoordinator(opts.Registry)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	a.Coordinator = coordinator

	a.Controller = session.New(gw, a.Notifier, coordinator, logger.Named("session"), opts.SessionOptions...)
	a.Controller.Restore(ctx)

	logger.Info("app_started",
		zap.String("storage_driver", storageOpts.Driver),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Bool("ai_enabled", coordinator != nil),
		zap.String("config_path", cfg.Path))
	return a, nil
}

// buildCoordinator returns nil without error when no API key is configured
func (a *App) buildCoordinator(registry *ai.ProviderRegistry) (*ai.Coordinator, error) {
	cfg := a.Config
	if !cfg.AI.Enabled() {
		a.Logger.Warn("ai_disabled", zap.String("reason", "no_api_key"), zap.String("provider", cfg.AI.Provider))
		return nil, nil
	}
	if registry == nil {
		registry = ai.NewDefaultRegistry()
	}

	collaborator, err := registry.GetProvider(cfg.AI.Provider, cfg.AI.ProviderConfig(cfg.Debug), a.Logger.Named("ai"))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}

	limiter, err := ai.NewRateLimiter(cfg.AI.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid ai.rate_limit: %w", err)
	}

	coordOpts := []ai.Option{ai.WithTracer(telemetry.Tracer())}
	if limiter != nil {
		coordOpts = append(coordOpts, ai.WithLimiter(limiter))
	}
	return ai.NewCoordinator(collaborator, a.Notifier, a.Logger.Named("ai"), coordOpts...), nil
}

// Handler returns the local API handler for this app
func (a *App) Handler() http.Handler {
	return handlers.NewRouter(handlers.RouterConfig{
		Controller:     a.Controller,
		Storage:        a.Storage,
		Logger:         a.Logger.Named("http"),
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		Metrics:        a.Config.Metrics.Enabled,
		Tracing:        a.tracerProvider != nil,
		ServiceName:    telemetry.ServiceName,
	})
}

// Serve runs the local API until ctx is cancelled, then shuts it down
// gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Server.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// AI requests are bounded by ai.timeout, not by the write deadline
		WriteTimeout:   a.Config.AI.Timeout + 15*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server_starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.Logger.Info("server_exited")
	return nil
}

// Close stops the notification timer, closes storage and flushes traces
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Notifier != nil {
		a.Notifier.Close()
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
		}
	}
	if err := a.shutdownTracerCtx(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) shutdownTracer() {
	_ = a.shutdownTracerCtx(context.Background())
}

func (a *App) shutdownTracerCtx(ctx context.Context) error {
	if a.tracerProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := telemetry.Shutdown(ctx, a.tracerProvider)
	a.tracerProvider = nil
	if err != nil {
		return fmt.Errorf("failed to shutdown otel tracer: %w", err)
	}
	return nil
}
