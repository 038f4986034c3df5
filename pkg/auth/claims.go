package auth

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims is the typed shape of the JWT the upstream identity provider
// issues for a signed-in user. The subject is the provider's stable user id.
type IdentityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID returns the provider-issued stable user id.
func (c *IdentityClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
