package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	"github.com/forkful/recipegen/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Verifier ports.TokenVerifier
	// Leeway is the clock-skew allowance used when inspecting credentials.
	Leeway time.Duration
	Now    func() time.Time
}

// AuthService orchestrates the sign-in flow and credential inspection.
// It never stores credentials itself; the caller writes them to a CredentialStore.
type AuthService struct {
	provider ports.AuthProvider
	verifier ports.TokenVerifier
	leeway   time.Duration
	now      func() time.Time
}

var (
	// ErrNoCredential is returned when the provider completed a login without issuing a bearer token.
	ErrNoCredential = errors.New("provider did not issue a credential")
	// ErrVerifierUnavailable is returned by VerifyCredential when no TokenVerifier is configured.
	ErrVerifierUnavailable = errors.New("token verifier not configured")
)

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		provider: opts.Provider,
		verifier: opts.Verifier,
		leeway:   opts.Leeway,
		now:      now,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Identity domainauth.Identity
	// Credential is the bearer token to write to the credential store.
	Credential string
}

// CompleteLogin exchanges the authorization code for an identity and returns the bearer
// credential. The credential must be readable by the route gate, otherwise the user would be
// bounced straight back to the login page.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if identity.RawToken == "" {
		return nil, ErrNoCredential
	}

	claims, err := domainauth.DecodeClaims(identity.RawToken)
	if err != nil {
		return nil, fmt.Errorf("decode issued credential: %w", err)
	}
	if !claims.IsUnexpired(s.now(), s.leeway) {
		return nil, errors.New("issued credential is already expired")
	}
	if identity.UserID == "" {
		identity.UserID = claims.Subject
	}
	if identity.ExpiresAt.IsZero() {
		identity.ExpiresAt = claims.ExpiresAt
	}

	return &CompleteLoginResult{Identity: identity, Credential: identity.RawToken}, nil
}

// VerifyCredential cryptographically verifies raw with the configured TokenVerifier.
func (s *AuthService) VerifyCredential(ctx context.Context, raw string) (domainauth.Identity, error) {
	if raw == "" {
		return domainauth.Identity{}, domainauth.ErrInvalidCredential
	}
	if s.verifier == nil {
		return domainauth.Identity{}, ErrVerifierUnavailable
	}
	identity, err := s.verifier.Verify(ctx, raw)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("verify credential: %w", err)
	}
	return identity, nil
}

// CredentialStatus is the advisory, unverified view of a credential.
type CredentialStatus struct {
	Authenticated bool      `json:"authenticated"`
	Subject       string    `json:"subject,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
}

// Status decodes raw without verifying it. It is meant for display only.
func (s *AuthService) Status(raw string) CredentialStatus {
	if raw == "" {
		return CredentialStatus{}
	}
	claims, err := domainauth.DecodeClaims(raw)
	if err != nil || !claims.IsUnexpired(s.now(), s.leeway) {
		return CredentialStatus{}
	}
	return CredentialStatus{Authenticated: true, Subject: claims.Subject, ExpiresAt: claims.ExpiresAt}
}
