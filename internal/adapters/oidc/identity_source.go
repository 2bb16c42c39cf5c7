package oidc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	"github.com/forkful/recipegen/internal/ports"
)

var _ ports.IdentityProvider = (*IdentitySource)(nil)

// ErrNotSignedIn is returned by RefreshToken when the requested user is no longer current.
var ErrNotSignedIn = errors.New("oidc: user is not signed in")

// defaultRefreshSkew is how long before ID token expiry a rotation is attempted.
const defaultRefreshSkew = 2 * time.Minute

// IdentitySourceOptions configures an IdentitySource.
type IdentitySourceOptions struct {
	// RefreshSkew rotates the ID token this long before it expires. Zero selects two minutes.
	RefreshSkew time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// IdentitySource turns an OAuth2 refresh token into an identity event stream. Each rotation
// of the ID token and every sign-out (including a rejected refresh grant) is announced to
// subscribers.
type IdentitySource struct {
	provider *Provider
	skew     time.Duration
	logger   *slog.Logger
	now      func() time.Time

	refreshMu sync.Mutex

	mu       sync.Mutex
	token    *oauth2.Token
	identity *domainauth.Identity
	subs     map[int]func(domainauth.AuthEvent)
	nextSub  int
}

// NewIdentitySource returns a signed-out source backed by p.
func (p *Provider) NewIdentitySource(opts IdentitySourceOptions) *IdentitySource {
	skew := opts.RefreshSkew
	if skew <= 0 {
		skew = defaultRefreshSkew
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &IdentitySource{
		provider: p,
		skew:     skew,
		logger:   logger.With("component", "oidc_identity_source"),
		now:      now,
		subs:     make(map[int]func(domainauth.AuthEvent)),
	}
}

// Subscribe registers fn for every change of the current user.
func (s *IdentitySource) Subscribe(fn func(domainauth.AuthEvent)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// CurrentUser returns the signed-in user or nil.
func (s *IdentitySource) CurrentUser() *domainauth.ProviderUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *IdentitySource) currentLocked() *domainauth.ProviderUser {
	if s.identity == nil {
		return nil
	}
	return &domainauth.ProviderUser{UserID: s.identity.UserID, Email: s.identity.Email}
}

// SignIn adopts tok (as returned by the code exchange) and announces the user.
func (s *IdentitySource) SignIn(ctx context.Context, tok *oauth2.Token) error {
	identity, _, err := s.provider.identityFromToken(ctx, tok)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	s.mu.Lock()
	s.token = tok
	s.identity = &identity
	s.mu.Unlock()
	s.emit()
	return nil
}

// Resume restores a session from a stored refresh token by performing a refresh grant.
// The user is announced only when the grant succeeds.
func (s *IdentitySource) Resume(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return errors.New("resume: refresh token is required")
	}
	s.refreshMu.Lock()
	s.mu.Lock()
	s.token = &oauth2.Token{RefreshToken: refreshToken}
	s.mu.Unlock()
	_, err := s.rotate(ctx)
	s.refreshMu.Unlock()
	if err != nil {
		s.mu.Lock()
		s.token = nil
		s.mu.Unlock()
		return fmt.Errorf("resume: %w", err)
	}
	s.emit()
	return nil
}

// SignOut drops the session and announces the change.
func (s *IdentitySource) SignOut() {
	s.mu.Lock()
	s.token = nil
	s.identity = nil
	s.mu.Unlock()
	s.emit()
}

// RefreshToken returns the cached ID token while it is fresh, otherwise it performs a
// refresh grant. A rejected grant signs the user out.
func (s *IdentitySource) RefreshToken(ctx context.Context, user domainauth.ProviderUser) (string, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.Lock()
	cur := s.identity
	s.mu.Unlock()
	if cur == nil || cur.UserID != user.UserID {
		return "", ErrNotSignedIn
	}
	if cur.ExpiresAt.Sub(s.now()) > s.skew {
		return cur.RawToken, nil
	}

	identity, err := s.rotate(ctx)
	if err != nil {
		return "", err
	}
	return identity.RawToken, nil
}

// rotate performs a refresh grant. Callers hold refreshMu.
func (s *IdentitySource) rotate(ctx context.Context) (domainauth.Identity, error) {
	s.mu.Lock()
	cur := s.token
	s.mu.Unlock()
	if cur == nil || cur.RefreshToken == "" {
		return domainauth.Identity{}, ErrNotSignedIn
	}

	// An empty access token forces the source to use the refresh grant.
	src := s.provider.config.TokenSource(s.provider.clientContext(ctx), &oauth2.Token{RefreshToken: cur.RefreshToken})
	next, err := src.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
			s.logger.InfoContext(ctx, "refresh grant rejected, signing out")
			s.SignOut()
		}
		return domainauth.Identity{}, fmt.Errorf("refresh grant: %w", err)
	}
	if next.RefreshToken == "" {
		next.RefreshToken = cur.RefreshToken
	}

	identity, _, err := s.provider.identityFromToken(ctx, next)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("refreshed token: %w", err)
	}

	s.mu.Lock()
	s.token = next
	s.identity = &identity
	s.mu.Unlock()
	return identity, nil
}

// Watch rotates the ID token shortly before it expires and announces each rotation,
// until ctx is done or the session ends.
func (s *IdentitySource) Watch(ctx context.Context) error {
	timer := time.NewTimer(s.untilRotation())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if s.CurrentUser() == nil {
			return nil
		}
		s.refreshMu.Lock()
		_, err := s.rotate(ctx)
		s.refreshMu.Unlock()
		if err != nil {
			if s.CurrentUser() == nil {
				return nil
			}
			s.logger.WarnContext(ctx, "id token rotation failed", "error", err)
			timer.Reset(s.skew / 2)
			continue
		}
		s.emit()
		timer.Reset(s.untilRotation())
	}
}

func (s *IdentitySource) untilRotation() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return s.skew
	}
	d := s.identity.ExpiresAt.Sub(s.now()) - s.skew
	if d < time.Second {
		d = time.Second
	}
	return d
}

func (s *IdentitySource) emit() {
	s.mu.Lock()
	ev := domainauth.AuthEvent{User: s.currentLocked()}
	fns := make([]func(domainauth.AuthEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
