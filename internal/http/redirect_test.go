package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeRedirectPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/profile", "/profile"},
		{"/recipes?sort=new", "/recipes?sort=new"},
		{"/generate#top", "/generate#top"},
		{"", "/"},
		{"profile", "/"},
		{"//evil.example", "/"},
		{"//evil.example/path", "/"},
		{"/\\evil.example", "/"},
		{"https://evil.example/", "/"},
		{"/%2F%2Fevil.example", "/"},
		{"/foo//bar", "/"},
		{"/ok\r\nSet-Cookie: x=y", "/"},
		{"javascript:alert(1)", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeRedirectPath(tt.in))
		})
	}
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login?redirect=%2Fprofile", loginURL("/login", "redirect", "/profile"))
	assert.Equal(t, "/login?redirect=%2Fapi%2Frecipes%2Fabc", loginURL("/login", "redirect", "/api/recipes/abc"))
	assert.Equal(t, "/login", loginURL("/login", "redirect", ""))
}

func TestSignInURL(t *testing.T) {
	assert.Equal(t, "/auth/login", signInURL(""))
	assert.Equal(t, "/auth/login?redirect=%2Fprofile", signInURL("/profile"))
	assert.Equal(t, "/auth/login?redirect=%2F", signInURL("//evil.example"))
}
