package devauth

// Package devauth provides a config-driven identity provider for local development.
// It mints real HS256 bearer tokens so the route gate and the data APIs behave exactly
// as they do against a hosted IdP.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	"github.com/forkful/recipegen/internal/ports"
)

// Config controls the dev auth provider behavior.
type Config struct {
	UserID string
	Email  string
	Name   string
}

// Provider implements ports.AuthProvider for local development.
// It short-circuits the OAuth flow by redirecting back to our own callback
// with locally generated state and nonce.
// Exchange ignores the code and returns the configured identity with a freshly minted token.
type Provider struct {
	identity domainauth.Identity
	tokens   *TokenIssuer
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config, tokens *TokenIssuer) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if tokens == nil {
		return nil, errors.New("dev auth: token issuer is required")
	}
	return &Provider{
		identity: domainauth.Identity{UserID: cfg.UserID, Email: cfg.Email, Name: cfg.Name},
		tokens:   tokens,
	}, nil
}

// Begin returns a local callback URL and cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	callback := "/auth/callback"
	if in.RedirectURL != "" {
		if u, perr := url.Parse(in.RedirectURL); perr == nil && u.Path != "" {
			callback = u.Path
		}
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return callback + "?" + q.Encode(), state, nonce, nil
}

// Exchange ignores the provided code/state/nonce (validation handled by handler) and returns
// the dev identity with a new bearer token.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	id := p.identity
	token, exp, err := p.tokens.Mint(id)
	if err != nil {
		return domainauth.Identity{}, err
	}
	id.RawToken = token
	id.ExpiresAt = exp
	return id, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
