package auth

import "strings"

// RouteClass categorizes a request path for the route gate.
type RouteClass int

const (
	RouteClassPublic RouteClass = iota
	RouteClassProtected
	RouteClassAuthPage
)

func (c RouteClass) String() string {
	switch c {
	case RouteClassProtected:
		return "protected"
	case RouteClassAuthPage:
		return "auth_page"
	default:
		return "public"
	}
}

// Well-known paths used by the gate when redirecting.
const (
	LoginPath   = "/login"
	AppHomePath = "/generate"
	// RedirectParam names the query parameter carrying the return-to path.
	RedirectParam = "redirect"
)

// RouteTable holds the static prefix lists used to classify paths.
// Classification is a plain prefix match; the table is never mutated after startup.
type RouteTable struct {
	Protected []string
	AuthPages []string
}

// DefaultRoutes is the single definition of protected and auth-page prefixes.
//
//nolint:gochecknoglobals // static read-only route data shared by gate, pages and tests
var DefaultRoutes = RouteTable{
	Protected: []string{
		"/generate",
		"/profile",
		"/recipes",
		"/api/recipes",
		"/api/profile",
	},
	AuthPages: []string{
		"/login",
		"/signup",
		"/reset-password",
	},
}

// Classify returns the RouteClass for path. Protected prefixes win over auth pages.
func (t RouteTable) Classify(path string) RouteClass {
	if hasAnyPrefix(path, t.Protected) {
		return RouteClassProtected
	}
	if hasAnyPrefix(path, t.AuthPages) {
		return RouteClassAuthPage
	}
	return RouteClassPublic
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
