package pgrstjwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// VerifyOption customizes a single Verify call.
type VerifyOption func(*verifyParams)

type verifyParams struct {
	clock func() time.Time
	skew  time.Duration
}

// WithClock overrides the time used to check exp and iat.
func WithClock(clock func() time.Time) VerifyOption {
	return func(p *verifyParams) {
		p.clock = clock
	}
}

// WithAcceptableSkew tolerates clock drift between issuer and verifier.
func WithAcceptableSkew(skew time.Duration) VerifyOption {
	return func(p *verifyParams) {
		p.skew = skew
	}
}

// Verify checks an HS256 token against secret the way the gateway does and
// returns its claims.
func Verify(token string, secret []byte, opts ...VerifyOption) (*Claims, error) {
	if token == "" {
		return nil, newError(ErrCodeInvalidToken, errors.New("token is empty"))
	}
	if len(secret) == 0 {
		return nil, newError(ErrCodeInvalidSecret, errors.New("secret is required"))
	}
	params := verifyParams{clock: time.Now}
	for _, opt := range opts {
		opt(&params)
	}

	if _, err := jwt.ParseInsecure([]byte(token)); err != nil {
		return nil, newError(ErrCodeInvalidToken, err)
	}
	parsed, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, secret),
		jwt.WithValidate(false),
	)
	if err != nil {
		return nil, newError(ErrCodeInvalidSignature, err)
	}

	validateOpts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(params.clock)),
		jwt.WithAcceptableSkew(params.skew),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
		jwt.WithRequiredClaim(jwt.IssuedAtKey),
	}
	if err := jwt.Validate(parsed, validateOpts...); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return nil, newError(ErrCodeExpired, err)
		}
		return nil, newError(ErrCodeInvalidToken, err)
	}

	return extractClaims(parsed)
}

func extractClaims(token jwt.Token) (*Claims, error) {
	value, ok := token.Get(claimRole)
	if !ok {
		return nil, newError(ErrCodeInvalidToken, fmt.Errorf("%q claim missing", claimRole))
	}
	role, ok := value.(string)
	if !ok {
		return nil, newError(ErrCodeInvalidToken, fmt.Errorf("%q claim is %T, want string", claimRole, value))
	}
	return &Claims{
		Role:      role,
		ExpiresAt: token.Expiration().UTC(),
		IssuedAt:  token.IssuedAt().UTC(),
	}, nil
}
