package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
)

// Diagnostic headers describing the gate's inputs. Never emitted in production.
const (
	HeaderGateRoute      = "X-Auth-Gate-Route"
	HeaderGateDecision   = "X-Auth-Gate-Decision"
	HeaderGateCredential = "X-Auth-Gate-Credential"
)

// GateRecorder observes every gate decision. Implementations must not block.
type GateRecorder interface {
	ObserveDecision(d domainauth.Decision)
}

// GateOptions configures RouteGate.
type GateOptions struct {
	Gate    *domainauth.Gate
	Cookies *CredentialCookies
	// Diagnostics enables the X-Auth-Gate-* response headers.
	Diagnostics bool
	Recorder    GateRecorder
	Logger      *slog.Logger
}

// RouteGate runs the route gate in front of every handler and applies its decision.
func RouteGate(opts GateOptions) func(http.Handler) http.Handler {
	gate := opts.Gate
	if gate == nil {
		gate = domainauth.NewGate(domainauth.GateConfig{})
	}
	cookies := opts.Cookies
	if cookies == nil {
		cookies = &CredentialCookies{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The forwarded identity is only ever set by the gate itself.
			r.Header.Del(domainauth.ForwardedUserHeader)

			credential, present := credentialFromRequest(r)
			d := gate.Decide(r.URL.Path, credential, present)

			if opts.Recorder != nil {
				opts.Recorder.ObserveDecision(d)
			}
			if opts.Diagnostics {
				w.Header().Set(HeaderGateRoute, d.Route.String())
				w.Header().Set(HeaderGateDecision, d.Kind.String())
				w.Header().Set(HeaderGateCredential, d.Credential.String())
			}
			if d.Kind != domainauth.DecisionAllow || d.Credential == domainauth.CredentialError {
				logger.DebugContext(r.Context(), "route gate decision",
					"path", r.URL.Path,
					"route", d.Route.String(),
					"decision", d.Kind.String(),
					"credential", d.Credential.String(),
				)
			}
			if d.ScrubCredentials {
				cookies.Clear(w)
			}

			switch d.Kind {
			case domainauth.DecisionRedirectToLogin:
				redirectToLogin(w, r, d.ReturnTo)
			case domainauth.DecisionRedirectToApp:
				redirectBrowser(w, r, domainauth.AppHomePath)
			default:
				if d.Subject != "" {
					r.Header.Set(domainauth.ForwardedUserHeader, d.Subject)
				}
				next.ServeHTTP(w, r)
			}
		})
	}
}

func credentialFromRequest(r *http.Request) (string, bool) {
	ck, err := r.Cookie(domainauth.CredentialCookieName)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}

// redirectToLogin sends browsers to the login page with the original path as return-to;
// API callers get a 401 instead of a redirect they cannot follow.
func redirectToLogin(w http.ResponseWriter, r *http.Request, returnTo string) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	redirectBrowser(w, r, loginURL(domainauth.LoginPath, domainauth.RedirectParam, returnTo))
}

func redirectBrowser(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
