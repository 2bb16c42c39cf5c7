package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	"github.com/forkful/recipegen/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider     = (*MockAuthProvider)(nil)
	_ ports.TokenVerifier    = (*StaticTokenVerifier)(nil)
	_ ports.IdentityProvider = (*FakeIdentityProvider)(nil)
	_ ports.CredentialStore  = (*MemoryCredentialStore)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: domainauth.Identity{
			UserID: "mock-user-1",
			Name:   "Mock User",
			Email:  "mock.user@example.com",
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	return authURL, fmt.Sprintf("%s-%d", statePrefix, m.callCount), fmt.Sprintf("%s-%d", noncePrefix, m.callCount), nil
}

// Exchange returns DefaultUser with a fresh expiry. RawToken is left as configured.
func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	user := m.DefaultUser
	if user == (domainauth.Identity{}) {
		user = domainauth.Identity{UserID: "mock-user-1", Email: "mock.user@example.com"}
	}
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// StaticTokenVerifier accepts exactly the tokens present in Identities.
type StaticTokenVerifier struct {
	Identities map[string]domainauth.Identity
	VerifyFunc func(ctx context.Context, raw string) (domainauth.Identity, error)
}

func (v *StaticTokenVerifier) Verify(ctx context.Context, raw string) (domainauth.Identity, error) {
	if v.VerifyFunc != nil {
		return v.VerifyFunc(ctx, raw)
	}
	id, ok := v.Identities[raw]
	if !ok {
		return domainauth.Identity{}, domainauth.ErrInvalidCredential
	}
	return id, nil
}

// FakeIdentityProvider is an in-memory event source. SetUser changes the current user and
// notifies subscribers synchronously, the way a browser SDK fires its change listeners.
type FakeIdentityProvider struct {
	// RefreshFunc, when set, serves RefreshToken. Otherwise a token "token-<user>" is returned.
	RefreshFunc func(ctx context.Context, user domainauth.ProviderUser) (string, error)

	mu       sync.Mutex
	current  *domainauth.ProviderUser
	subs     map[int]func(domainauth.AuthEvent)
	nextSub  int
	refreshN int
}

// NewFakeIdentityProvider returns a provider whose current user is user (nil for signed out).
func NewFakeIdentityProvider(user *domainauth.ProviderUser) *FakeIdentityProvider {
	return &FakeIdentityProvider{current: user, subs: make(map[int]func(domainauth.AuthEvent))}
}

func (f *FakeIdentityProvider) Subscribe(fn func(domainauth.AuthEvent)) func() {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *FakeIdentityProvider) CurrentUser() *domainauth.ProviderUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil
	}
	u := *f.current
	return &u
}

func (f *FakeIdentityProvider) RefreshToken(ctx context.Context, user domainauth.ProviderUser) (string, error) {
	f.mu.Lock()
	f.refreshN++
	fn := f.RefreshFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, user)
	}
	if user.UserID == "" {
		return "", errors.New("no user")
	}
	return "token-" + user.UserID, nil
}

// SetUser replaces the current user and emits the change. nil signs out.
func (f *FakeIdentityProvider) SetUser(user *domainauth.ProviderUser) {
	f.mu.Lock()
	f.current = user
	f.mu.Unlock()
	f.Emit(domainauth.AuthEvent{User: user})
}

// Emit delivers ev to every subscriber without changing the current user.
func (f *FakeIdentityProvider) Emit(ev domainauth.AuthEvent) {
	f.mu.Lock()
	fns := make([]func(domainauth.AuthEvent), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Subscribers returns the number of live subscriptions.
func (f *FakeIdentityProvider) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// RefreshCalls returns how many times RefreshToken was invoked.
func (f *FakeIdentityProvider) RefreshCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshN
}

// MemoryCredentialStore records the credential in memory. Both key names are tracked so
// tests can assert that Clear removes the legacy name as well.
type MemoryCredentialStore struct {
	SetErr   error
	ClearErr error

	mu         sync.Mutex
	values     map[string]string
	setCalls   []string
	clearCalls int
}

// NewMemoryCredentialStore returns an empty store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{values: make(map[string]string)}
}

func (m *MemoryCredentialStore) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.values[domainauth.CredentialCookieName] = token
	m.setCalls = append(m.setCalls, token)
	return nil
}

func (m *MemoryCredentialStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearCalls++
	if m.ClearErr != nil {
		return m.ClearErr
	}
	delete(m.values, domainauth.CredentialCookieName)
	delete(m.values, domainauth.LegacyCredentialCookieName)
	return nil
}

// Seed writes a value under an arbitrary key name, e.g. the legacy cookie.
func (m *MemoryCredentialStore) Seed(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
}

// Value returns the value stored under name.
func (m *MemoryCredentialStore) Value(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[name]
	return v, ok
}

// Token returns the primary credential.
func (m *MemoryCredentialStore) Token() (string, bool) {
	return m.Value(domainauth.CredentialCookieName)
}

// SetCalls returns every token passed to a successful Set, in order.
func (m *MemoryCredentialStore) SetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.setCalls...)
}

// ClearCalls returns how many times Clear was invoked.
func (m *MemoryCredentialStore) ClearCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clearCalls
}
