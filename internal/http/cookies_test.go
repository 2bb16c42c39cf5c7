package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
)

func TestCredentialCookies_SetAttributes(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &CredentialCookies{Now: func() time.Time { return now }}
	rec := httptest.NewRecorder()

	c.Set(rec, "tok")

	got := cookiesNamed(rec.Result(), domainauth.CredentialCookieName)
	require.Len(t, got, 1)
	ck := got[0]
	assert.Equal(t, "tok", ck.Value)
	assert.Equal(t, "/", ck.Path)
	assert.True(t, ck.Secure)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.Equal(t, now.Add(7*24*time.Hour), ck.Expires.UTC())
	assert.Equal(t, 7*24*60*60, ck.MaxAge)
	assert.Empty(t, cookiesNamed(rec.Result(), domainauth.LegacyCredentialCookieName))
}

func TestCredentialCookies_DevDisablesSecure(t *testing.T) {
	rec := httptest.NewRecorder()
	(&CredentialCookies{Dev: true}).Set(rec, "tok")

	got := cookiesNamed(rec.Result(), domainauth.CredentialCookieName)
	require.Len(t, got, 1)
	assert.False(t, got[0].Secure)
}

func TestCredentialCookies_ClearBothNames(t *testing.T) {
	tests := []struct {
		name        string
		domain      string
		wantPerName int
	}{
		{name: "host only", wantPerName: 1},
		{name: "with cookie domain", domain: "recipes.example", wantPerName: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			(&CredentialCookies{Domain: tt.domain}).Clear(rec)
			res := rec.Result()

			for _, name := range []string{domainauth.CredentialCookieName, domainauth.LegacyCredentialCookieName} {
				got := cookiesNamed(res, name)
				require.Len(t, got, tt.wantPerName, name)
				for _, ck := range got {
					assert.Empty(t, ck.Value)
					assert.Equal(t, -1, ck.MaxAge)
					assert.Equal(t, "/", ck.Path)
				}
			}
		})
	}
}

func TestCredentialCookies_ForStore(t *testing.T) {
	c := &CredentialCookies{}
	ctx := context.Background()

	rec := httptest.NewRecorder()
	require.NoError(t, c.For(rec).Set(ctx, "tok"))
	assert.Len(t, cookiesNamed(rec.Result(), domainauth.CredentialCookieName), 1)

	rec = httptest.NewRecorder()
	require.Error(t, c.For(rec).Set(ctx, ""))
	assert.Empty(t, rec.Result().Cookies())

	rec = httptest.NewRecorder()
	store := c.For(rec)
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	assert.Len(t, cookiesNamed(rec.Result(), domainauth.LegacyCredentialCookieName), 2)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	rec = httptest.NewRecorder()
	require.ErrorIs(t, c.For(rec).Set(cancelled, "tok"), context.Canceled)
}
