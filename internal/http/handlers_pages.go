package httpx

import (
	"log/slog"
	"net/http"
	"net/url"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
)

// PageData is the view model shared by every page template.
type PageData struct {
	Title string
	// Subject is the display-only identity forwarded by the route gate.
	Subject string
	Page    string
	Heading string
	// SignInURL starts the IdP flow and carries the sanitized return path.
	SignInURL string
	Path      string
}

// PageHandlers serves the server-rendered pages.
type PageHandlers struct {
	T      *TemplateRenderer
	Logger *slog.Logger
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, status int, page string, data PageData) {
	data.Page = page
	if data.Subject == "" {
		data.Subject = DisplaySubject(r)
	}
	if err := h.T.Render(w, status, page, data); err != nil {
		logger := h.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(r.Context(), "render page", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Home serves "/" and falls back to a 404 page for unknown paths.
func (h *PageHandlers) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.NotFound(w, r)
		return
	}
	h.render(w, r, http.StatusOK, "home", PageData{Title: "Home"})
}

// About serves the public about page.
func (h *PageHandlers) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "about", PageData{Title: "About"})
}

// Generate serves the recipe generation page.
func (h *PageHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "generate", PageData{Title: "Generate"})
}

// Recipes serves the saved-recipe library page.
func (h *PageHandlers) Recipes(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "recipes", PageData{Title: "Recipes"})
}

// Profile serves the profile page.
func (h *PageHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "profile", PageData{Title: "Profile"})
}

// Login serves the sign-in page.
func (h *PageHandlers) Login(w http.ResponseWriter, r *http.Request) {
	h.authPage(w, r, "Sign in")
}

// Signup serves the account creation page.
func (h *PageHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	h.authPage(w, r, "Create an account")
}

// ResetPassword serves the password reset page.
func (h *PageHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	h.authPage(w, r, "Reset your password")
}

func (h *PageHandlers) authPage(w http.ResponseWriter, r *http.Request, heading string) {
	h.render(w, r, http.StatusOK, "auth", PageData{
		Title:     heading,
		Heading:   heading,
		SignInURL: signInURL(r.URL.Query().Get(domainauth.RedirectParam)),
	})
}

// NotFound renders the 404 page for browsers and a JSON error for API callers.
func (h *PageHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "message": "not found"})
		return
	}
	h.render(w, r, http.StatusNotFound, "not_found", PageData{Title: "Not found", Path: r.URL.Path})
}

// signInURL points at /auth/login, forwarding the return path only when it is safe.
func signInURL(redirect string) string {
	if redirect == "" {
		return "/auth/login"
	}
	return "/auth/login?" + domainauth.RedirectParam + "=" + url.QueryEscape(SafeRedirectPath(redirect))
}
