package pgrstjwt

import (
	"fmt"
	"time"
)

// Well-known PostgREST roles. Any other role string is accepted as-is.
const (
	RoleAnon          = "anon"
	RoleAuthenticated = "authenticated"
	RoleServiceRole   = "service_role"
)

// Claim names expected by the gateway.
const (
	claimRole = "role"
)

// Claims is the claim set carried by an issued token.
type Claims struct {
	Role      string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// TTL returns the validity window encoded in the token.
func (c *Claims) TTL() time.Duration {
	return c.ExpiresAt.Sub(c.IssuedAt)
}

// exp is kept within years 1 through 9999.
var (
	minExpiry = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxExpiry = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC).Unix()
)

// newClaims fills the claim set for a token issued at now.
func newClaims(role string, ttlDays int, now time.Time) (Claims, error) {
	issuedAt := now.UTC().Truncate(time.Second)
	iat := issuedAt.Unix()
	days := int64(ttlDays)
	if days > (maxExpiry-iat)/secondsPerDay || days < -((iat-minExpiry)/secondsPerDay) {
		return Claims{}, newError(ErrCodeTTLOutOfRange, fmt.Errorf("ttl of %d days puts exp outside years 1-9999", ttlDays))
	}
	return Claims{
		Role:      role,
		IssuedAt:  issuedAt,
		ExpiresAt: time.Unix(iat+days*secondsPerDay, 0).UTC(),
	}, nil
}
