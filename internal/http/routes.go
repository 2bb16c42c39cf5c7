// Package httpx provides the HTTP layer for recipegen: the route gate, the sign-in flow,
// server-rendered pages and the recipe/profile JSON APIs.
package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
	"github.com/forkful/recipegen/internal/service"
)

// AuthService is what the router needs from service.AuthService.
type AuthService interface {
	AuthServiceInterface
	CredentialVerifier
}

var _ AuthService = (*service.AuthService)(nil)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth     AuthService
	Recipes  RecipeServiceInterface
	Profiles ProfileServiceInterface
	// Renderer defaults to the embedded page templates.
	Renderer *TemplateRenderer

	Gate    *domainauth.Gate
	Cookies *CredentialCookies
	// CallbackURL is the absolute OAuth redirect URL (APP_BASE_URL + /auth/callback).
	CallbackURL     string
	GateDiagnostics bool
	GateRecorder    GateRecorder

	// MetricsHandler is mounted at MetricsPath when both are set.
	MetricsHandler  http.Handler
	MetricsPath     string
	ReadinessChecks map[string]ReadinessCheck

	Logger *slog.Logger
}

// NewRouter creates the HTTP handler: recovery and access logging wrap the route gate,
// which runs in front of every registered route.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookies := services.Cookies
	if cookies == nil {
		cookies = &CredentialCookies{}
	}
	renderer := services.Renderer
	if renderer == nil {
		var err error
		renderer, err = NewTemplateRenderer(TemplateRendererConfig{Logger: logger})
		if err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	pages := &PageHandlers{T: renderer, Logger: logger}
	registerPageRoutes(mux, pages)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readinessHandler(services.ReadinessChecks))
	if services.MetricsHandler != nil && services.MetricsPath != "" {
		mux.Handle("GET "+services.MetricsPath, services.MetricsHandler)
	}

	if services.Auth != nil {
		registerAuthRoutes(mux, &AuthHandlers{
			Svc:         services.Auth,
			Cookies:     cookies,
			CallbackURL: services.CallbackURL,
			Logger:      logger,
		})
		requireIdentity := RequireVerifiedIdentity(services.Auth, cookies, logger)
		if services.Recipes != nil {
			registerRecipeRoutes(mux, &RecipeHandlers{Svc: services.Recipes, Logger: logger}, requireIdentity)
		}
		if services.Profiles != nil {
			registerProfileRoutes(mux, &ProfileHandlers{Svc: services.Profiles, Logger: logger}, requireIdentity)
		}
	}

	gate := RouteGate(GateOptions{
		Gate:        services.Gate,
		Cookies:     cookies,
		Diagnostics: services.GateDiagnostics,
		Recorder:    services.GateRecorder,
		Logger:      logger,
	})

	var h http.Handler = mux
	h = gate(h)
	h = BrowserDetection()(h)
	h = Logging(logger)(h)
	h = Recover(logger)(h)
	return h, nil
}

func registerPageRoutes(mux *http.ServeMux, h *PageHandlers) {
	mux.HandleFunc("GET /", h.Home)
	mux.HandleFunc("GET /about", h.About)
	mux.HandleFunc("GET /generate", h.Generate)
	mux.HandleFunc("GET /recipes", h.Recipes)
	mux.HandleFunc("GET /profile", h.Profile)
	mux.HandleFunc("GET /login", h.Login)
	mux.HandleFunc("GET /signup", h.Signup)
	mux.HandleFunc("GET /reset-password", h.ResetPassword)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
}

func registerRecipeRoutes(mux *http.ServeMux, h *RecipeHandlers, guard func(http.Handler) http.Handler) {
	mux.Handle("GET /api/recipes", guard(http.HandlerFunc(h.List)))
	mux.Handle("POST /api/recipes", guard(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/recipes/{id}", guard(http.HandlerFunc(h.GetByID)))
	mux.Handle("DELETE /api/recipes/{id}", guard(http.HandlerFunc(h.Delete)))
}

func registerProfileRoutes(mux *http.ServeMux, h *ProfileHandlers, guard func(http.Handler) http.Handler) {
	mux.Handle("GET /api/profile", guard(http.HandlerFunc(h.Get)))
	mux.Handle("PUT /api/profile", guard(http.HandlerFunc(h.Update)))
}

var (
	_ RecipeServiceInterface  = (*service.RecipeService)(nil)
	_ ProfileServiceInterface = (*service.ProfileService)(nil)
)
