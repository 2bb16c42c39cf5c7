package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	"github.com/forkful/recipegen/internal/ports"
)

func TestMockAuthProvider_Begin_Defaults(t *testing.T) {
	provider := NewMockAuthProvider()
	ctx := context.Background()

	input := ports.BeginInput{RedirectURL: "http://localhost:8080/auth/callback"}
	authURL, state, nonce, err := provider.Begin(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", authURL)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	// Second call should increment counters
	_, state2, nonce2, err := provider.Begin(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMockAuthProvider_Exchange_Defaults(t *testing.T) {
	provider := NewMockAuthProvider()

	identity, err := provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c", State: "s", Nonce: "n"})

	require.NoError(t, err)
	assert.Equal(t, "mock-user-1", identity.UserID)
	assert.Equal(t, "mock.user@example.com", identity.Email)
	assert.True(t, identity.ExpiresAt.After(time.Now()))
}

func TestStaticTokenVerifier(t *testing.T) {
	v := &StaticTokenVerifier{Identities: map[string]domainauth.Identity{"good": {UserID: "u1"}}}

	id, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)

	_, err = v.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, domainauth.ErrInvalidCredential)
}

func TestFakeIdentityProvider_SubscribeAndEmit(t *testing.T) {
	p := NewFakeIdentityProvider(nil)
	var got []domainauth.AuthEvent
	unsubscribe := p.Subscribe(func(ev domainauth.AuthEvent) { got = append(got, ev) })
	assert.Equal(t, 1, p.Subscribers())

	p.SetUser(&domainauth.ProviderUser{UserID: "u1"})
	require.Len(t, got, 1)
	assert.True(t, got[0].SignedIn())
	assert.Equal(t, "u1", p.CurrentUser().UserID)

	unsubscribe()
	p.SetUser(nil)
	assert.Len(t, got, 1)
	assert.Nil(t, p.CurrentUser())
	assert.Equal(t, 0, p.Subscribers())
}

func TestFakeIdentityProvider_RefreshToken(t *testing.T) {
	p := NewFakeIdentityProvider(nil)

	token, err := p.RefreshToken(context.Background(), domainauth.ProviderUser{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "token-u1", token)

	p.RefreshFunc = func(context.Context, domainauth.ProviderUser) (string, error) {
		return "", errors.New("offline")
	}
	_, err = p.RefreshToken(context.Background(), domainauth.ProviderUser{UserID: "u1"})
	require.Error(t, err)
	assert.Equal(t, 2, p.RefreshCalls())
}

func TestMemoryCredentialStore_ClearRemovesBothNames(t *testing.T) {
	store := NewMemoryCredentialStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "t1"))
	store.Seed(domainauth.LegacyCredentialCookieName, "old")

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	_, ok := store.Token()
	assert.False(t, ok)
	_, ok = store.Value(domainauth.LegacyCredentialCookieName)
	assert.False(t, ok)
	assert.Equal(t, 2, store.ClearCalls())
	assert.Equal(t, []string{"t1"}, store.SetCalls())
}

func TestMemoryCredentialStore_SetErr(t *testing.T) {
	store := NewMemoryCredentialStore()
	store.SetErr = errors.New("disk full")

	require.Error(t, store.Set(context.Background(), "t1"))
	_, ok := store.Token()
	assert.False(t, ok)
}
