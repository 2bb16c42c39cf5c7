package auth

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCredential is returned when a bearer token is structurally unusable:
// wrong segment count, undecodable claims segment, or claims that are not JSON.
var ErrInvalidCredential = errors.New("invalid credential")

// DefaultLeeway absorbs clock skew between the issuer and this process.
const DefaultLeeway = 30 * time.Second

// segmentDecoder repairs missing base64 padding before decoding.
//
//nolint:gochecknoglobals // stateless parser, safe for concurrent use
var segmentDecoder = jwt.NewParser(jwt.WithPaddingAllowed())

// Claims are the locally readable attributes of a bearer token.
// They are NOT verified: the signature segment is never checked here.
type Claims struct {
	Subject   string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// HasExpiry reports whether the token declared an expiry.
func (c Claims) HasExpiry() bool { return !c.ExpiresAt.IsZero() }

// IsUnexpired reports whether the claims carry an expiry that is after now-leeway.
// A token without an exp claim is never considered unexpired.
func (c Claims) IsUnexpired(now time.Time, leeway time.Duration) bool {
	if !c.HasExpiry() {
		return false
	}
	return c.ExpiresAt.After(now.Add(-leeway))
}

// DecodeClaims reads the claims segment of a three-segment bearer token.
// It is a claims reader, not a verifier.
func DecodeClaims(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, ErrInvalidCredential
	}

	payload, err := segmentDecoder.DecodeSegment(parts[1])
	if err != nil {
		return Claims{}, ErrInvalidCredential
	}

	var rc jwt.RegisteredClaims
	if err := json.Unmarshal(payload, &rc); err != nil {
		return Claims{}, ErrInvalidCredential
	}

	c := Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, nil
}
