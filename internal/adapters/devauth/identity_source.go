package devauth

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
)

// ErrNotSignedIn is returned by RefreshToken for a user that is not the current user.
var ErrNotSignedIn = errors.New("dev auth: user is not signed in")

// IdentitySource is an in-process identity provider event stream. It implements
// ports.IdentityProvider and is used by the session CLI and tests.
type IdentitySource struct {
	tokens *TokenIssuer

	mu      sync.Mutex
	current *domainauth.Identity
	subs    map[int]func(domainauth.AuthEvent)
	nextSub int
}

// NewIdentitySource returns a signed-out source that mints tokens with tokens.
func NewIdentitySource(tokens *TokenIssuer) *IdentitySource {
	return &IdentitySource{tokens: tokens, subs: make(map[int]func(domainauth.AuthEvent))}
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
	if s.current == nil {
		return nil
	}
	return &domainauth.ProviderUser{UserID: s.current.UserID, Email: s.current.Email}
}

// RefreshToken mints a new token for user if user is still the current user.
func (s *IdentitySource) RefreshToken(ctx context.Context, user domainauth.ProviderUser) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur == nil || cur.UserID != user.UserID {
		return "", ErrNotSignedIn
	}
	token, _, err := s.tokens.Mint(*cur)
	return token, err
}

// SignIn makes id the current user and notifies subscribers.
func (s *IdentitySource) SignIn(id domainauth.Identity) {
	s.mu.Lock()
	s.current = &id
	s.mu.Unlock()
	s.emit()
}

// SignOut clears the current user and notifies subscribers.
func (s *IdentitySource) SignOut() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	s.emit()
}

// Watch re-announces the current user every interval, simulating provider-side token
// rotation, until ctx is done.
func (s *IdentitySource) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("dev auth: watch interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if s.CurrentUser() != nil {
				s.emit()
			}
		}
	}
}

func (s *IdentitySource) emit() {
	ev := domainauth.AuthEvent{User: s.CurrentUser()}
	s.mu.Lock()
	fns := make([]func(domainauth.AuthEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
