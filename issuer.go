package pgrstjwt

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const tokenType = "JWT"

// Issuer signs HS256 tokens that PostgREST accepts as bearer credentials.
// An Issuer holds no mutable state and is safe for concurrent use.
type Issuer struct {
	secret []byte
	clock  func() time.Time
}

// NewIssuer builds an issuer from the given configuration.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &Issuer{
		secret: append([]byte(nil), cfg.Secret...),
		clock:  cfg.Clock,
	}, nil
}

// Issue returns a compact token carrying role, iat and exp = iat + ttlDays.
// Role is not checked and ttlDays may be zero or negative, which yields a token
// that is already expired. A ttlDays that pushes exp past year 9999 (or before
// year 1) fails with ErrCodeTTLOutOfRange.
func (i *Issuer) Issue(role string, ttlDays int) (string, error) {
	signed, _, err := i.issue(role, ttlDays)
	return signed, err
}

func (i *Issuer) issue(role string, ttlDays int) (string, Claims, error) {
	claims, err := newClaims(role, ttlDays, i.clock())
	if err != nil {
		return "", Claims{}, err
	}
	signed, err := i.sign(claims)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, claims, nil
}

func (i *Issuer) sign(claims Claims) (string, error) {
	token, err := jwt.NewBuilder().
		Claim(claimRole, claims.Role).
		Expiration(claims.ExpiresAt).
		IssuedAt(claims.IssuedAt).
		Build()
	if err != nil {
		return "", newError(ErrCodeSigningFailed, fmt.Errorf("build claims: %w", err))
	}

	headers := jws.NewHeaders()
	if err := headers.Set(jws.TypeKey, tokenType); err != nil {
		return "", newError(ErrCodeSigningFailed, fmt.Errorf("set typ header: %w", err))
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, i.secret, jws.WithProtectedHeaders(headers)))
	if err != nil {
		return "", newError(ErrCodeSigningFailed, err)
	}
	return string(signed), nil
}

// Issue signs a token with secret using the wall clock.
func Issue(secret []byte, role string, ttlDays int) (string, error) {
	issuer, err := NewIssuer(IssuerConfig{Secret: secret})
	if err != nil {
		return "", err
	}
	return issuer.Issue(role, ttlDays)
}

// IssueString is Issue for secrets given as text, e.g. on a command line.
// The secret must be valid UTF-8.
func IssueString(secret, role string, ttlDays int) (string, error) {
	if !utf8.ValidString(secret) {
		return "", newError(ErrCodeSecretEncoding, errors.New("secret is not valid UTF-8"))
	}
	return Issue([]byte(secret), role, ttlDays)
}
