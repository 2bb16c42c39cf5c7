package httpx

import (
	"net/url"
	"strings"
)

// SafeRedirectPath returns candidate when it is a same-origin relative path: it starts with a
// single "/", contains no "//" or backslash, and carries no scheme or host. Anything else,
// including the empty string, yields "/".
func SafeRedirectPath(candidate string) string {
	if !strings.HasPrefix(candidate, "/") || strings.Contains(candidate, "//") || strings.ContainsAny(candidate, "\\\r\n\t") {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || u.User != nil || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	// Percent-encoded separators could decode into a protocol-relative target downstream.
	if strings.Contains(u.Path, "//") || strings.Contains(u.Path, "\\") {
		return "/"
	}
	return candidate
}

// loginURL builds the login redirect target carrying returnTo.
func loginURL(loginPath, param, returnTo string) string {
	if returnTo == "" {
		return loginPath
	}
	return loginPath + "?" + param + "=" + url.QueryEscape(returnTo)
}
