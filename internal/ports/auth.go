package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated
	// identity together with the raw bearer credential.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// TokenVerifier cryptographically verifies a bearer credential.
// Data APIs use it; the route gate deliberately does not.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (domainauth.Identity, error)
}

// IdentityProvider is the event-emitting side of the IdP as seen by the token synchronizer.
type IdentityProvider interface {
	// Subscribe registers fn for every change of the provider's current user.
	// The returned function removes the subscription.
	Subscribe(fn func(domainauth.AuthEvent)) (unsubscribe func())

	// CurrentUser returns the provider's current user, or nil when signed out.
	CurrentUser() *domainauth.ProviderUser

	// RefreshToken mints (or returns a still-fresh cached) bearer token for user.
	RefreshToken(ctx context.Context, user domainauth.ProviderUser) (string, error)
}

// CredentialStore holds the bearer credential on the client side.
// It is the only write path for the credential; there is no partial update.
type CredentialStore interface {
	// Set writes token under the primary credential key.
	Set(ctx context.Context, token string) error
	// Clear removes the primary and legacy credential keys. It is idempotent.
	Clear(ctx context.Context) error
}
