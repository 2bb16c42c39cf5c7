package auth

import "time"

// DecisionKind enumerates the possible outcomes of the route gate.
type DecisionKind int

const (
	DecisionAllow DecisionKind = iota
	DecisionRedirectToLogin
	DecisionRedirectToApp
	DecisionScrubAndStay
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionRedirectToLogin:
		return "redirect_to_login"
	case DecisionRedirectToApp:
		return "redirect_to_app"
	case DecisionScrubAndStay:
		return "scrub_and_stay"
	default:
		return "allow"
	}
}

// CredentialState describes what the gate found in the credential cookie.
type CredentialState int

const (
	// CredentialUnchecked means the path did not require inspecting the cookie.
	CredentialUnchecked CredentialState = iota
	CredentialAbsent
	CredentialMalformed
	CredentialExpired
	CredentialValid
	// CredentialError means inspection failed unexpectedly and the gate fell back.
	CredentialError
)

func (s CredentialState) String() string {
	switch s {
	case CredentialAbsent:
		return "absent"
	case CredentialMalformed:
		return "malformed"
	case CredentialExpired:
		return "expired"
	case CredentialValid:
		return "valid"
	case CredentialError:
		return "error"
	default:
		return "unchecked"
	}
}

// Decision is the pure output of the gate. Interpreting it (redirects, cookie
// deletion, header injection) is left to the transport layer.
type Decision struct {
	Kind       DecisionKind
	Route      RouteClass
	Credential CredentialState
	// ReturnTo is the originally requested path for DecisionRedirectToLogin.
	ReturnTo string
	// Subject is the decoded, unverified subject for an allowed protected request.
	Subject string
	// ScrubCredentials instructs the interpreter to delete the primary and legacy cookies.
	ScrubCredentials bool
}

// GateConfig configures a Gate. Zero values select defaults.
type GateConfig struct {
	Routes RouteTable
	Leeway time.Duration
	Now    func() time.Time
}

// Gate decides, per request, whether to allow, redirect or scrub.
// It holds no mutable state and is safe for concurrent use.
type Gate struct {
	routes RouteTable
	leeway time.Duration
	now    func() time.Time
}

// NewGate constructs a Gate from cfg.
func NewGate(cfg GateConfig) *Gate {
	routes := cfg.Routes
	if len(routes.Protected) == 0 && len(routes.AuthPages) == 0 {
		routes = DefaultRoutes
	}
	leeway := cfg.Leeway
	if leeway < 0 {
		leeway = 0
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Gate{routes: routes, leeway: leeway, now: now}
}

// Routes returns the table the gate classifies against.
func (g *Gate) Routes() RouteTable { return g.routes }

// Decide returns the routing decision for path given the credential cookie value.
// present is false when the request carried no credential cookie at all.
// Decide never panics: unexpected failures resolve to the fail-closed decision
// for protected paths and to Allow everywhere else.
func (g *Gate) Decide(path, credential string, present bool) (d Decision) {
	route := RouteClassPublic
	defer func() {
		if r := recover(); r != nil {
			d = fallbackDecision(path, route)
		}
	}()

	route = g.routes.Classify(path)
	if route == RouteClassPublic {
		return Decision{Kind: DecisionAllow, Route: route, Credential: CredentialUnchecked}
	}

	state, claims := g.inspect(credential, present)
	valid := state == CredentialValid

	switch route {
	case RouteClassAuthPage:
		switch {
		case valid:
			return Decision{Kind: DecisionRedirectToApp, Route: route, Credential: state}
		case present:
			return Decision{Kind: DecisionScrubAndStay, Route: route, Credential: state, ScrubCredentials: true}
		default:
			return Decision{Kind: DecisionAllow, Route: route, Credential: state}
		}
	default:
		if !valid {
			return Decision{
				Kind:             DecisionRedirectToLogin,
				Route:            route,
				Credential:       state,
				ReturnTo:         path,
				ScrubCredentials: true,
			}
		}
		return Decision{Kind: DecisionAllow, Route: route, Credential: state, Subject: claims.Subject}
	}
}

func (g *Gate) inspect(credential string, present bool) (CredentialState, Claims) {
	if !present {
		return CredentialAbsent, Claims{}
	}
	claims, err := DecodeClaims(credential)
	if err != nil {
		return CredentialMalformed, Claims{}
	}
	if !claims.IsUnexpired(g.now(), g.leeway) {
		return CredentialExpired, claims
	}
	return CredentialValid, claims
}

// fallbackDecision is fail-closed for protected paths and fail-open otherwise.
func fallbackDecision(path string, route RouteClass) Decision {
	if route == RouteClassProtected {
		return Decision{
			Kind:             DecisionRedirectToLogin,
			Route:            route,
			Credential:       CredentialError,
			ReturnTo:         path,
			ScrubCredentials: true,
		}
	}
	return Decision{Kind: DecisionAllow, Route: route, Credential: CredentialError}
}
