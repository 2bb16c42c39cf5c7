package auth

// Package auth contains domain-level types for authentication, route gating and
// credential synchronization. It is pure and free of framework/adapter concerns.

import "time"

// Cookie names for the bearer credential.
// CredentialCookieName is namespaced to avoid collisions with other same-origin apps.
// LegacyCredentialCookieName was written by earlier deployments; it is recognized for deletion only.
const (
	CredentialCookieName       = "recipegen_auth_token"
	LegacyCredentialCookieName = "auth_token"
)

// CredentialTTL is the fixed lifetime of the credential cookie.
const CredentialTTL = 7 * 24 * time.Hour

// ForwardedUserHeader carries the decoded (unverified) subject to downstream handlers.
// It is advisory and only suitable for display.
const ForwardedUserHeader = "X-Recipegen-User"

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (sub)
	Email     string
	Name      string
	ExpiresAt time.Time // absolute expiry from IdP token
	// RawToken is the bearer credential (ID token) the identity was derived from.
	RawToken string
}

// ProviderUser is the identity provider's handle for a signed-in user.
// A fresh bearer token can be minted for it on demand.
type ProviderUser struct {
	UserID string
	Email  string
}

// AuthEvent is emitted by an identity provider whenever its current user changes
// (sign-in, token rotation, sign-out). User is nil when signed out.
type AuthEvent struct {
	User *ProviderUser
}

// SignedIn reports whether the event carries a live identity.
func (e AuthEvent) SignedIn() bool { return e.User != nil }
