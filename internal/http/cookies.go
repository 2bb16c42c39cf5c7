package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	"github.com/forkful/recipegen/internal/ports"
)

// Temporary cookies carrying the OAuth handshake between /auth/login and /auth/callback.
const (
	oauthStateCookie        = "oauth_state"
	oauthNonceCookie        = "oauth_nonce"
	postLoginRedirectCookie = "post_login_redirect"
	oauthCookieMaxAge       = 600
)

// CredentialCookies writes and deletes the bearer credential cookie.
// It is the only code path that emits the credential Set-Cookie header.
type CredentialCookies struct {
	// Domain is the optional cookie domain (APP_COOKIE_DOMAIN).
	Domain string
	// Dev disables the Secure attribute for local development over plain HTTP.
	Dev bool
	// TTL defaults to domainauth.CredentialTTL.
	TTL time.Duration
	Now func() time.Time
}

func (c *CredentialCookies) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return domainauth.CredentialTTL
}

func (c *CredentialCookies) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Set writes token under the primary credential name.
func (c *CredentialCookies) Set(w http.ResponseWriter, token string) {
	ttl := c.ttl()
	http.SetCookie(w, &http.Cookie{
		Name:     domainauth.CredentialCookieName,
		Value:    token,
		Path:     "/",
		Domain:   c.Domain,
		Expires:  c.now().Add(ttl).UTC(),
		MaxAge:   int(ttl.Seconds()),
		Secure:   !c.Dev,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Clear deletes the primary and legacy credential names, host-only and (when configured)
// domain-scoped, so no earlier generation of the cookie survives.
func (c *CredentialCookies) Clear(w http.ResponseWriter) {
	domains := []string{""}
	if c.Domain != "" {
		domains = append(domains, c.Domain)
	}
	for _, name := range []string{domainauth.CredentialCookieName, domainauth.LegacyCredentialCookieName} {
		for _, d := range domains {
			expireCookie(w, &http.Cookie{Name: name, Domain: d, Secure: !c.Dev, HttpOnly: true, SameSite: http.SameSiteStrictMode})
		}
	}
}

// For binds the cookie writer to a response so it can serve as a ports.CredentialStore.
func (c *CredentialCookies) For(w http.ResponseWriter) ports.CredentialStore {
	return &responseCredentialStore{cookies: c, w: w}
}

type responseCredentialStore struct {
	cookies *CredentialCookies
	w       http.ResponseWriter
}

func (s *responseCredentialStore) Set(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if token == "" {
		return errors.New("credential token is empty")
	}
	s.cookies.Set(s.w, token)
	return nil
}

func (s *responseCredentialStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cookies.Clear(s.w)
	return nil
}

// setTempCookie stores a short-lived, Lax cookie used during the OAuth round trip.
// Lax is required: the IdP redirect back to /auth/callback is a cross-site navigation.
func (c *CredentialCookies) setTempCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   !c.Dev,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   oauthCookieMaxAge,
	})
}

func (c *CredentialCookies) clearTempCookie(w http.ResponseWriter, name string) {
	expireCookie(w, &http.Cookie{Name: name, Domain: c.Domain, Secure: !c.Dev, HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// expireCookie mirrors the attributes used when setting so browsers match and delete it.
func expireCookie(w http.ResponseWriter, ck *http.Cookie) {
	ck.Value = ""
	ck.Path = "/"
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0).UTC()
	http.SetCookie(w, ck)
}
