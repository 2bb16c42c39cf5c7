package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	"github.com/forkful/recipegen/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	Status(raw string) service.CredentialStatus
}

// AuthHandlers provides HTTP handlers for the sign-in flow.
type AuthHandlers struct {
	Svc     AuthServiceInterface
	Cookies *CredentialCookies
	// CallbackURL is the absolute redirect URL registered with the IdP.
	CallbackURL string
	Logger      *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// postLoginTarget returns the sanitized return path; a missing value selects the app home.
func postLoginTarget(raw string) string {
	if raw == "" {
		return domainauth.AppHomePath
	}
	return SafeRedirectPath(raw)
}

// Login begins the IdP flow.
// GET /auth/login?redirect=<optional path>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	returnTo := postLoginTarget(r.URL.Query().Get(domainauth.RedirectParam))

	result, err := h.Svc.BeginLogin(r.Context(), h.CallbackURL)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("could not start sign-in"),
		})
		return
	}

	h.Cookies.setTempCookie(w, oauthStateCookie, result.State)
	h.Cookies.setTempCookie(w, oauthNonceCookie, result.Nonce)
	h.Cookies.setTempCookie(w, postLoginRedirectCookie, returnTo)

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the IdP flow and writes the credential cookie.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookie)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "login completion failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "login_completion_failed",
			Err:     errors.New("sign-in could not be completed"),
		})
		return
	}

	if setErr := h.Cookies.For(w).Set(r.Context(), result.Credential); setErr != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "login_completion_failed", Err: setErr})
		return
	}
	h.Cookies.clearTempCookie(w, oauthStateCookie)
	h.Cookies.clearTempCookie(w, oauthNonceCookie)

	target := domainauth.AppHomePath
	if ck, ckErr := r.Cookie(postLoginRedirectCookie); ckErr == nil {
		// Re-validate: the cookie round-tripped through the browser.
		target = postLoginTarget(ck.Value)
		h.Cookies.clearTempCookie(w, postLoginRedirectCookie)
	}

	h.logger().InfoContext(r.Context(), "user signed in", "subject", result.Identity.UserID)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Logout clears both credential cookie names.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Cookies.For(w).Clear(r.Context()); err != nil {
		h.logger().WarnContext(r.Context(), "clear credential cookies", "error", err)
	}

	if isAJAX(r) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": domainauth.LoginPath,
		})
		return
	}
	http.Redirect(w, r, domainauth.LoginPath, http.StatusSeeOther)
}

// Status reports the advisory (unverified) authentication state.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	raw, _ := credentialFromRequest(r)
	WriteJSON(w, http.StatusOK, h.Svc.Status(raw))
}
