package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/forkful/recipegen/config"
	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	httpx "github.com/forkful/recipegen/internal/http"
)

const defaultShutdownTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildHTTPHandler assembles the router: route gate, pages, auth flow, data APIs, health
// and metrics.
func BuildHTTPHandler(cfg *HTTPServerConfig) (http.Handler, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, errors.New("http server config is required")
	}
	if cfg.Services.Auth == nil || cfg.Services.Auth.Service == nil {
		return nil, errors.New("auth service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	services := httpx.RouterServices{
		Auth: cfg.Services.Auth.Service,
		Gate: domainauth.NewGate(domainauth.GateConfig{Leeway: appCfg.Gate.Leeway}),
		Cookies: &httpx.CredentialCookies{
			Domain: appCfg.HTTP.CookieDomain,
			Dev:    appCfg.IsDev,
		},
		CallbackURL:     CallbackURL(appCfg),
		GateDiagnostics: appCfg.GateDiagnosticsEnabled(),
		ReadinessChecks: readinessChecks(cfg.DB, cfg.RedisClient),
		Logger:          logger,
	}
	if cfg.Services.Recipes != nil {
		services.Recipes = cfg.Services.Recipes
	}
	if cfg.Services.Profiles != nil {
		services.Profiles = cfg.Services.Profiles
	}
	if cfg.Services.Metrics != nil {
		services.GateRecorder = cfg.Services.Metrics
	}
	if appCfg.Observability.Metrics.IsEnabled() && cfg.Services.Registry != nil {
		services.MetricsHandler = promhttp.HandlerFor(cfg.Services.Registry, promhttp.HandlerOpts{})
		services.MetricsPath = appCfg.Observability.Metrics.Path
		logger.Info("metrics endpoint enabled", "path", services.MetricsPath)
	}

	return httpx.NewRouter(services)
}

func readinessChecks(db *sql.DB, client redis.UniversalClient) map[string]httpx.ReadinessCheck {
	checks := make(map[string]httpx.ReadinessCheck, 2)
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}

// NewHTTPServer returns a server with conservative timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
