package pgrstjwt

import (
	"errors"
	"time"
)

const (
	// DefaultRole is the role embedded when the caller does not name one.
	DefaultRole = RoleServiceRole
	// DefaultTTLDays is the validity used when the caller does not name one.
	DefaultTTLDays = 365

	secondsPerDay = 24 * 60 * 60
)

// IssuerConfig contains signing parameters for an Issuer.
type IssuerConfig struct {
	// Secret is the HMAC key shared with the gateway (PostgREST jwt-secret).
	Secret []byte
	// Clock returns the issue time. Defaults to time.Now.
	Clock func() time.Time
}

// normalize sets default values for optional fields.
func (c *IssuerConfig) normalize() {
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// validate ensures the issuer configuration is usable.
func (c IssuerConfig) validate() error {
	if len(c.Secret) == 0 {
		return newError(ErrCodeInvalidSecret, errors.New("secret is required"))
	}
	return nil
}
