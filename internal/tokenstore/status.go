package tokenstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStatus describes a stored access token for diagnostics.
// The api client never inspects tokens: it sends whatever is stored.
type TokenStatus int

const (
	TokenMissing TokenStatus = iota
	TokenInvalid             // looks like a JWT but cannot be parsed
	TokenOpaque              // not a JWT, expiry unknown
	TokenExpired
	TokenValid
)

var tokenStatusNames = []string{"TokenMissing", "TokenInvalid", "TokenOpaque", "TokenExpired", "TokenValid"}

func (t TokenStatus) String() string {
	if t < 0 || int(t) >= len(tokenStatusNames) {
		return fmt.Sprintf("TokenStatus(%d)", int(t))
	}
	return tokenStatusNames[t]
}

func (t TokenStatus) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// TokenInfo is the unverified content of an access token
type TokenInfo struct {
	Status    TokenStatus `json:"status"`
	Subject   string      `json:"subject,omitempty"`
	Issuer    string      `json:"issuer,omitempty"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

// Inspect parses token without verifying its signature.
// now is used to decide whether the token has expired.
func Inspect(token string, now time.Time) TokenInfo {
	if token == "" {
		return TokenInfo{Status: TokenMissing}
	}

	if strings.Count(token, ".") != 2 {
		return TokenInfo{Status: TokenOpaque}
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := &jwt.RegisteredClaims{}

	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return TokenInfo{Status: TokenInvalid}
	}

	info := TokenInfo{
		Status:  TokenValid,
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}

	if claims.ExpiresAt != nil {
		expiresAt := claims.ExpiresAt.Time
		info.ExpiresAt = &expiresAt
		if expiresAt.Before(now) {
			info.Status = TokenExpired
		}
	}

	return info
}

// CheckTokenStatus returns the status of token at the current time
func CheckTokenStatus(token string) TokenStatus {
	return Inspect(token, time.Now()).Status
}
