package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"recipegen"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"recipegen"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email offline_access"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
	// RefreshToken seeds the session watcher's refresh-token identity source.
	RefreshToken string `env:"REFRESH_TOKEN"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID     string        `env:"USER_ID"     envDefault:"dev-user"`
	Email      string        `env:"EMAIL"       envDefault:"dev@example.com"`
	Name       string        `env:"NAME"        envDefault:"Dev User"`
	SigningKey string        `env:"SIGNING_KEY" envDefault:"recipegen-dev-signing-key"`
	TokenTTL   time.Duration `env:"TOKEN_TTL"   envDefault:"1h"`
	// RotateInterval is how often the session watcher re-emits the dev identity.
	RotateInterval time.Duration `env:"ROTATE_INTERVAL" envDefault:"45m"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

const maxGateLeeway = 5 * time.Minute

// GateConfig configures the edge route gate.
type GateConfig struct {
	// Leeway is the grace period after credential expiry.
	Leeway time.Duration `env:"AUTH_GATE_LEEWAY" envDefault:"30s"`
	// Diagnostics enables the X-Auth-Gate-* headers; only honored in dev mode.
	Diagnostics bool `env:"AUTH_GATE_DIAGNOSTICS" envDefault:"true"`
}

// Sanitize clamps Leeway to [0, 5m].
func (g *GateConfig) Sanitize() {
	if g.Leeway < 0 {
		g.Leeway = 0
	}
	if g.Leeway > maxGateLeeway {
		g.Leeway = maxGateLeeway
	}
}

// SyncConfig configures the token lifecycle synchronizer.
type SyncConfig struct {
	RefreshTimeout time.Duration `env:"AUTH_SYNC_REFRESH_TIMEOUT" envDefault:"10s"`
	// RefreshSkew is how long before ID token expiry the OIDC identity source rotates it.
	RefreshSkew time.Duration `env:"AUTH_SYNC_REFRESH_SKEW" envDefault:"2m"`
}

// Sanitize enforces positive durations.
func (s *SyncConfig) Sanitize() {
	if s.RefreshTimeout <= 0 {
		s.RefreshTimeout = 10 * time.Second
	}
	if s.RefreshSkew <= 0 {
		s.RefreshSkew = 2 * time.Minute
	}
}
