package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteTable_Classify(t *testing.T) {
	tests := []struct {
		path string
		want RouteClass
	}{
		{path: "/generate", want: RouteClassProtected},
		{path: "/profile", want: RouteClassProtected},
		{path: "/profile/settings", want: RouteClassProtected},
		{path: "/recipes/abc", want: RouteClassProtected},
		{path: "/api/recipes", want: RouteClassProtected},
		{path: "/api/profile", want: RouteClassProtected},
		{path: "/login", want: RouteClassAuthPage},
		{path: "/signup", want: RouteClassAuthPage},
		{path: "/reset-password", want: RouteClassAuthPage},
		{path: "/", want: RouteClassPublic},
		{path: "/about", want: RouteClassPublic},
		{path: "/auth/callback", want: RouteClassPublic},
		{path: "/healthz", want: RouteClassPublic},
		{path: "", want: RouteClassPublic},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRoutes.Classify(tt.path))
		})
	}
}

func TestRouteTable_ProtectedWinsOverAuthPage(t *testing.T) {
	table := RouteTable{Protected: []string{"/login/admin"}, AuthPages: []string{"/login"}}
	assert.Equal(t, RouteClassProtected, table.Classify("/login/admin"))
	assert.Equal(t, RouteClassAuthPage, table.Classify("/login"))
}

func TestRouteClass_String(t *testing.T) {
	assert.Equal(t, "protected", RouteClassProtected.String())
	assert.Equal(t, "auth_page", RouteClassAuthPage.String())
	assert.Equal(t, "public", RouteClassPublic.String())
}
