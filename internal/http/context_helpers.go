package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/forkful/recipegen/internal/domain/auth"
)

// identityKey is an unexported context key type to avoid collisions across packages.
type identityKey struct{}

// SetIdentityInContext returns a child context carrying a verified identity.
func SetIdentityInContext(ctx context.Context, id domainauth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the verified identity placed by RequireVerifiedIdentity.
func IdentityFromContext(ctx context.Context) (domainauth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domainauth.Identity)
	return id, ok && id.UserID != ""
}

// DisplaySubject returns the unverified subject forwarded by the route gate.
// It is suitable for display only.
func DisplaySubject(r *http.Request) string {
	return r.Header.Get(domainauth.ForwardedUserHeader)
}
