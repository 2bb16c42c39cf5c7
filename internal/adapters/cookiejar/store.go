// Package cookiejar implements the client-side credential store on top of an HTTP cookie jar.
// The jar is shared with the http.Client that talks to the application, so the stored
// credential is attached to requests by the transport and never read back by callers.
package cookiejar

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	stdjar "net/http/cookiejar"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	"github.com/forkful/recipegen/internal/ports"
)

var _ ports.CredentialStore = (*Store)(nil)

// Options configures a Store.
type Options struct {
	// BaseURL is the application origin the credential is scoped to.
	BaseURL string
	// Dev relaxes the Secure attribute for local development over plain HTTP.
	Dev bool
	// TTL overrides domainauth.CredentialTTL.
	TTL time.Duration
	Now func() time.Time
}

// Store is a ports.CredentialStore backed by a public-suffix aware cookie jar.
type Store struct {
	jar    *stdjar.Jar
	base   *url.URL
	secure bool
	ttl    time.Duration
	now    func() time.Time
}

// New builds a Store for opts.BaseURL.
func New(opts Options) (*Store, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https, got %q", opts.BaseURL)
	}
	if base.Host == "" {
		return nil, errors.New("base URL must include a host")
	}
	if !opts.Dev && base.Scheme != "https" {
		return nil, errors.New("base URL must use https outside development")
	}

	jar, err := stdjar.New(&stdjar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = domainauth.CredentialTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Store{jar: jar, base: base, secure: !opts.Dev, ttl: ttl, now: now}, nil
}

// Jar returns the cookie jar for use by an http.Client.
func (s *Store) Jar() http.CookieJar { return s.jar }

// BaseURL returns the origin the credential is scoped to.
func (s *Store) BaseURL() *url.URL {
	u := *s.base
	return &u
}

// Set writes token under the primary credential name.
func (s *Store) Set(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if token == "" {
		return errors.New("credential token is empty")
	}
	s.jar.SetCookies(s.base, []*http.Cookie{{
		Name:     domainauth.CredentialCookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.now().Add(s.ttl),
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}})
	return nil
}

// Clear expires the primary and legacy credential names for every domain and path
// variant a previous deployment may have used. Calling it repeatedly is harmless.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var expired []*http.Cookie
	for _, name := range []string{domainauth.CredentialCookieName, domainauth.LegacyCredentialCookieName} {
		for _, domain := range domainVariants(s.base.Hostname()) {
			for _, p := range pathVariants(s.base.Path) {
				expired = append(expired, &http.Cookie{
					Name:    name,
					Value:   "",
					Domain:  domain,
					Path:    p,
					MaxAge:  -1,
					Expires: time.Unix(0, 0),
				})
			}
		}
	}
	s.jar.SetCookies(s.base, expired)
	return nil
}

// domainVariants lists the Domain attributes a cookie for host could have been written with.
// The empty string is the host-only form.
func domainVariants(host string) []string {
	out := []string{""}
	if net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return out
	}
	out = append(out, host)
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return out
	}
	for d := host; d != registrable; {
		i := strings.IndexByte(d, '.')
		if i < 0 {
			break
		}
		d = d[i+1:]
		out = append(out, d)
	}
	return out
}

// pathVariants returns "/" and every ancestor directory of p.
func pathVariants(p string) []string {
	out := []string{"/"}
	p = path.Clean("/" + p)
	for p != "/" {
		out = append(out, p)
		p = path.Dir(p)
	}
	return out
}
