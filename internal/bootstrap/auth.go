package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/forkful/recipegen/config"
	"github.com/forkful/recipegen/internal/adapters/devauth"
	"github.com/forkful/recipegen/internal/adapters/oidc"
	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	"github.com/forkful/recipegen/internal/ports"
	"github.com/forkful/recipegen/internal/service"
)

// AuthConfig contains configuration for the auth components.
type AuthConfig struct {
	Auth config.AuthConfig
	// Leeway is the gate leeway, reused for credential inspection and dev token verification.
	Leeway time.Duration
	// HTTPClient is used for IdP discovery and token calls. Optional.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// AuthComponents are the auth building blocks for the configured mode.
// Exactly one of OIDC and DevTokens is set.
type AuthComponents struct {
	Mode      config.AuthMode
	Service   *service.AuthService
	OIDC      *oidc.Provider
	DevTokens *devauth.TokenIssuer
}

// BuildAuth creates the login provider and credential verifier for the configured auth mode.
// Unlike other optional components, auth is required: misconfiguration is an error.
func BuildAuth(cfg AuthConfig) (*AuthComponents, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		return buildDevAuth(cfg)
	case config.AuthModeOAuth, "":
		return buildOAuth(cfg)
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

func buildDevAuth(cfg AuthConfig) (*AuthComponents, error) {
	dev := cfg.Auth.DevAuth
	tokens, err := devauth.NewTokenIssuer(devauth.TokenIssuerConfig{
		SigningKey: []byte(dev.SigningKey),
		TTL:        dev.TokenTTL,
		Leeway:     cfg.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("dev token issuer: %w", err)
	}

	prov, err := devauth.NewProvider(devauth.Config{
		UserID: dev.UserID,
		Email:  dev.Email,
		Name:   dev.Name,
	}, tokens)
	if err != nil {
		return nil, fmt.Errorf("dev auth provider: %w", err)
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("dev auth enabled; do not use in production", "user_id", dev.UserID)
	}

	return &AuthComponents{
		Mode: config.AuthModeMock,
		Service: service.NewAuthService(service.AuthServiceOptions{
			Provider: prov,
			Verifier: tokens,
			Leeway:   cfg.Leeway,
		}),
		DevTokens: tokens,
	}, nil
}

func buildOAuth(cfg AuthConfig) (*AuthComponents, error) {
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		return nil, fmt.Errorf("oauth mode requires OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET "+
			"(discovery_url_empty=%t client_id_empty=%t client_secret_empty=%t)",
			oauth.DiscoveryURL == "", oauth.ClientID == "", oauth.ClientSecret == "")
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
		LogoutURL:    oauth.LogoutURL,
		HTTPClient:   cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	return &AuthComponents{
		Mode: config.AuthModeOAuth,
		Service: service.NewAuthService(service.AuthServiceOptions{
			Provider: prov,
			Verifier: prov,
			Leeway:   cfg.Leeway,
		}),
		OIDC: prov,
	}, nil
}

// CallbackURL returns the absolute OAuth redirect URL. OAUTH_REDIRECT_URL wins in oauth mode;
// otherwise it is derived from APP_BASE_URL.
func CallbackURL(cfg *config.AppConfig) string {
	if cfg.Auth.Mode != config.AuthModeMock && cfg.Auth.OAuth.RedirectURL != "" {
		return cfg.Auth.OAuth.RedirectURL
	}
	return strings.TrimRight(cfg.HTTP.BaseURL, "/") + "/auth/callback"
}

// IdentitySourceConfig configures the identity event source hosted by the session watcher.
type IdentitySourceConfig struct {
	Config *config.AppConfig
	Auth   *AuthComponents
	Logger *slog.Logger
}

// IdentitySource pairs an identity provider with the loop that keeps it current.
type IdentitySource struct {
	Provider ports.IdentityProvider
	// Watch runs until ctx is done or the session ends.
	Watch func(ctx context.Context) error
}

// BuildIdentitySource creates the signed-in identity source for the configured auth mode.
// In oauth mode the session is resumed from OAUTH_REFRESH_TOKEN; in mock mode the dev user is
// signed in directly.
func BuildIdentitySource(ctx context.Context, cfg IdentitySourceConfig) (*IdentitySource, error) {
	if cfg.Config == nil || cfg.Auth == nil {
		return nil, errors.New("config and auth components are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch {
	case cfg.Auth.DevTokens != nil:
		dev := cfg.Config.Auth.DevAuth
		src := devauth.NewIdentitySource(cfg.Auth.DevTokens)
		src.SignIn(domainauth.Identity{UserID: dev.UserID, Email: dev.Email, Name: dev.Name})
		return &IdentitySource{
			Provider: src,
			Watch: func(ctx context.Context) error {
				return src.Watch(ctx, dev.RotateInterval)
			},
		}, nil

	case cfg.Auth.OIDC != nil:
		refreshToken := cfg.Config.Auth.OAuth.RefreshToken
		if refreshToken == "" {
			return nil, errors.New("oauth session watcher requires OAUTH_REFRESH_TOKEN")
		}
		src := cfg.Auth.OIDC.NewIdentitySource(oidc.IdentitySourceOptions{
			RefreshSkew: cfg.Config.Sync.RefreshSkew,
			Logger:      logger,
		})
		if err := src.Resume(ctx, refreshToken); err != nil {
			return nil, fmt.Errorf("oidc identity source: %w", err)
		}
		return &IdentitySource{Provider: src, Watch: src.Watch}, nil

	default:
		return nil, errors.New("no identity provider configured")
	}
}
