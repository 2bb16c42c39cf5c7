package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	"github.com/forkful/recipegen/internal/service"
)

func mintToken(t *testing.T, sub string, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	s, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func withCredential(r *http.Request, token string) *http.Request {
	r.AddCookie(&http.Cookie{Name: domainauth.CredentialCookieName, Value: token})
	return r
}

func browserRequest(method, target string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	r.Header.Set("Accept", "text/html,application/xhtml+xml")
	return r
}

// cookiesNamed returns every Set-Cookie in the response with the given name.
func cookiesNamed(res *http.Response, name string) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

type fakeAuthService struct {
	beginResult    *service.BeginLoginResult
	beginErr       error
	completeResult *service.CompleteLoginResult
	completeErr    error
	identities     map[string]domainauth.Identity

	gotRedirectURL string
	gotComplete    service.CompleteLoginInput
}

func (f *fakeAuthService) BeginLogin(_ context.Context, redirectURL string) (*service.BeginLoginResult, error) {
	f.gotRedirectURL = redirectURL
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	if f.beginResult != nil {
		return f.beginResult, nil
	}
	return &service.BeginLoginResult{AuthURL: "https://idp.example/authorize", State: "state-1", Nonce: "nonce-1"}, nil
}

func (f *fakeAuthService) CompleteLogin(_ context.Context, in service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
	f.gotComplete = in
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return f.completeResult, nil
}

func (f *fakeAuthService) Status(raw string) service.CredentialStatus {
	return service.NewAuthService(service.AuthServiceOptions{}).Status(raw)
}

func (f *fakeAuthService) VerifyCredential(_ context.Context, raw string) (domainauth.Identity, error) {
	id, ok := f.identities[raw]
	if !ok || raw == "" {
		return domainauth.Identity{}, domainauth.ErrInvalidCredential
	}
	return id, nil
}

func newTestLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
