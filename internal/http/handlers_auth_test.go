package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	"github.com/forkful/recipegen/internal/service"
)

func newAuthHandlers(svc *fakeAuthService) *AuthHandlers {
	return &AuthHandlers{
		Svc:         svc,
		Cookies:     &CredentialCookies{},
		CallbackURL: "https://recipes.example/auth/callback",
	}
}

func TestAuthHandlers_Login(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		wantRedirect string
	}{
		{name: "default target", target: "/auth/login", wantRedirect: "/generate"},
		{name: "safe target", target: "/auth/login?redirect=%2Fprofile", wantRedirect: "/profile"},
		{name: "open redirect attempt", target: "/auth/login?redirect=%2F%2Fevil.example", wantRedirect: "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAuthService{}
			rec := httptest.NewRecorder()

			newAuthHandlers(svc).Login(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			res := rec.Result()

			assert.Equal(t, http.StatusFound, res.StatusCode)
			assert.Equal(t, "https://idp.example/authorize", res.Header.Get("Location"))
			assert.Equal(t, "https://recipes.example/auth/callback", svc.gotRedirectURL)

			state := cookiesNamed(res, oauthStateCookie)
			require.Len(t, state, 1)
			assert.Equal(t, "state-1", state[0].Value)
			assert.Equal(t, http.SameSiteLaxMode, state[0].SameSite)
			assert.Equal(t, oauthCookieMaxAge, state[0].MaxAge)
			require.Len(t, cookiesNamed(res, oauthNonceCookie), 1)

			redirect := cookiesNamed(res, postLoginRedirectCookie)
			require.Len(t, redirect, 1)
			assert.Equal(t, tt.wantRedirect, redirect[0].Value)
		})
	}
}

func TestAuthHandlers_Login_ProviderError(t *testing.T) {
	rec := httptest.NewRecorder()
	newAuthHandlers(&fakeAuthService{beginErr: errors.New("discovery failed")}).
		Login(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "discovery failed")
	assert.Empty(t, rec.Result().Cookies())
}

func callbackRequest(query string, cookies map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/auth/callback"+query, nil)
	for name, value := range cookies {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	return r
}

func TestAuthHandlers_Callback_Success(t *testing.T) {
	token := mintToken(t, "user-7", time.Hour)
	svc := &fakeAuthService{completeResult: &service.CompleteLoginResult{
		Identity:   domainauth.Identity{UserID: "user-7"},
		Credential: token,
	}}
	rec := httptest.NewRecorder()

	newAuthHandlers(svc).Callback(rec, callbackRequest("?code=abc&state=s1", map[string]string{
		oauthStateCookie:        "s1",
		oauthNonceCookie:        "n1",
		postLoginRedirectCookie: "/recipes",
	}))
	res := rec.Result()

	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/recipes", res.Header.Get("Location"))
	assert.Equal(t, service.CompleteLoginInput{Code: "abc", State: "s1", Nonce: "n1"}, svc.gotComplete)

	cred := cookiesNamed(res, domainauth.CredentialCookieName)
	require.Len(t, cred, 1)
	assert.Equal(t, token, cred[0].Value)
	assert.Equal(t, http.SameSiteStrictMode, cred[0].SameSite)
	assert.True(t, cred[0].HttpOnly)
	for _, name := range []string{oauthStateCookie, oauthNonceCookie, postLoginRedirectCookie} {
		got := cookiesNamed(res, name)
		require.Len(t, got, 1, name)
		assert.Equal(t, -1, got[0].MaxAge, name)
	}
}

func TestAuthHandlers_Callback_RevalidatesReturnPath(t *testing.T) {
	svc := &fakeAuthService{completeResult: &service.CompleteLoginResult{Credential: "tok"}}
	rec := httptest.NewRecorder()

	newAuthHandlers(svc).Callback(rec, callbackRequest("?code=abc&state=s1", map[string]string{
		oauthStateCookie:        "s1",
		oauthNonceCookie:        "n1",
		postLoginRedirectCookie: "//evil.example",
	}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestAuthHandlers_Callback_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		cookies    map[string]string
		svc        *fakeAuthService
		wantStatus int
		wantCode   string
	}{
		{name: "missing code", query: "?state=s1", wantStatus: http.StatusBadRequest, wantCode: "missing_code"},
		{name: "missing state", query: "?code=abc", wantStatus: http.StatusBadRequest, wantCode: "missing_state"},
		{
			name:       "state mismatch",
			query:      "?code=abc&state=s1",
			cookies:    map[string]string{oauthStateCookie: "other", oauthNonceCookie: "n1"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_state",
		},
		{
			name:       "missing nonce",
			query:      "?code=abc&state=s1",
			cookies:    map[string]string{oauthStateCookie: "s1"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "missing_nonce",
		},
		{
			name:       "exchange failure",
			query:      "?code=abc&state=s1",
			cookies:    map[string]string{oauthStateCookie: "s1", oauthNonceCookie: "n1"},
			svc:        &fakeAuthService{completeErr: errors.New("nonce mismatch")},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "login_completion_failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := tt.svc
			if svc == nil {
				svc = &fakeAuthService{}
			}
			rec := httptest.NewRecorder()

			newAuthHandlers(svc).Callback(rec, callbackRequest(tt.query, tt.cookies))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantCode)
			assert.Empty(t, cookiesNamed(rec.Result(), domainauth.CredentialCookieName))
		})
	}
}

func TestAuthHandlers_Logout(t *testing.T) {
	t.Run("browser", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newAuthHandlers(&fakeAuthService{}).Logout(rec, browserRequest(http.MethodPost, "/auth/logout"))
		res := rec.Result()

		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/login", res.Header.Get("Location"))
		assert.Len(t, cookiesNamed(res, domainauth.CredentialCookieName), 1)
		assert.Len(t, cookiesNamed(res, domainauth.LegacyCredentialCookieName), 1)
	})

	t.Run("ajax", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()

		newAuthHandlers(&fakeAuthService{}).Logout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "/login", body["redirect_to"])
	})
}

func TestAuthHandlers_Status(t *testing.T) {
	h := newAuthHandlers(&fakeAuthService{})

	rec := httptest.NewRecorder()
	h.Status(rec, withCredential(httptest.NewRequest(http.MethodGet, "/auth/status", nil), mintToken(t, "user-9", time.Hour)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
	assert.Contains(t, rec.Body.String(), `"subject":"user-9"`)

	rec = httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/auth/status", nil))
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)
}
