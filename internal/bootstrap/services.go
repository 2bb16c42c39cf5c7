package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/forkful/recipegen/config"
	redisadapter "github.com/forkful/recipegen/internal/adapters/redis"
	"github.com/forkful/recipegen/internal/data"
	"github.com/forkful/recipegen/internal/observability/metrics"
	"github.com/forkful/recipegen/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth     *AuthComponents
	Recipes  *service.RecipeService
	Profiles *service.ProfileService
	Metrics  *metrics.AuthMetrics
	Registry *prometheus.Registry
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	// Registry receives the application collectors. A fresh registry is created when nil.
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewServices wires the storage adapters into the application services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database is required")
	}
	if deps.RedisClient == nil {
		return ServiceContainer{}, errors.New("redis client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := deps.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	auth, err := BuildAuth(AuthConfig{
		Auth:   deps.Config.Auth,
		Leeway: deps.Config.Gate.Leeway,
		Logger: logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth: %w", err)
	}

	recipes := redisadapter.NewRecipeStoreWithPrefix(deps.RedisClient, deps.Config.Redis.KeyPrefix)
	profiles := data.NewProfileRepo(deps.DB)

	return ServiceContainer{
		Auth:     auth,
		Recipes:  service.NewRecipeService(service.RecipeServiceOptions{Store: recipes}),
		Profiles: service.NewProfileService(profiles),
		Metrics:  metrics.New(reg),
		Registry: reg,
	}, nil
}

// ServiceOrchestrationConfig contains everything needed to run the server until shutdown.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// RunServicesWithShutdown serves HTTP until SIGINT/SIGTERM or a server failure, then shuts
// the server down gracefully.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler, err := BuildHTTPHandler(&HTTPServerConfig{
		Config:      cfg.Config,
		Services:    cfg.Services,
		DB:          cfg.DB,
		RedisClient: cfg.RedisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	server := NewHTTPServer(cfg.Config.HTTP.Addr, handler)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		logger.InfoContext(gctx, "starting HTTP server", "addr", server.Addr)
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", serveErr)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(ctx, "shutdown requested")
		return ShutdownHTTPServer(ShutdownConfig{
			Context: context.WithoutCancel(ctx),
			Server:  server,
			Timeout: cfg.Config.HTTP.ShutdownTimeout,
			Logger:  logger,
		})
	})

	return g.Wait()
}
