package pgrstjwt

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

const bearerTokenType = "Bearer"

// ProviderConfig defines how tokens should be issued by default.
type ProviderConfig struct {
	Issuer  IssuerConfig
	Role    string
	TTLDays int
}

// Provider hands out cached bearer tokens for long-running PostgREST clients.
// It keeps one reusable token source per (role, ttl days) combination, so a new
// token is signed only when the cached one is about to expire.
type Provider struct {
	mu       sync.RWMutex
	issuer   *Issuer
	entries  map[providerKey]oauth2.TokenSource
	defaults ProviderParams
}

type providerKey struct {
	Role    string
	TTLDays int
}

// ProviderParams holds the values a single Token call is issued with.
type ProviderParams struct {
	Role    string
	TTLDays int
}

// TokenOption customizes the behaviour for a single Token call.
type TokenOption func(*ProviderParams)

// WithRole overrides the role claim.
func WithRole(role string) TokenOption {
	return func(p *ProviderParams) {
		p.Role = role
	}
}

// WithTTLDays overrides the validity of the minted token.
func WithTTLDays(days int) TokenOption {
	return func(p *ProviderParams) {
		p.TTLDays = days
	}
}

// NewProvider constructs a Provider using the supplied defaults.
// Zero values fall back to DefaultRole and DefaultTTLDays, so a provider cannot
// default to already-expired tokens; pass WithTTLDays(0) per call for that.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	issuer, err := NewIssuer(cfg.Issuer)
	if err != nil {
		return nil, err
	}
	defaults := ProviderParams{Role: cfg.Role, TTLDays: cfg.TTLDays}
	if defaults.Role == "" {
		defaults.Role = DefaultRole
	}
	if defaults.TTLDays == 0 {
		defaults.TTLDays = DefaultTTLDays
	}
	return &Provider{
		issuer:   issuer,
		entries:  make(map[providerKey]oauth2.TokenSource),
		defaults: defaults,
	}, nil
}

// Token returns a signed token, reusing the cached one while it is still valid.
func (p *Provider) Token(opts ...TokenOption) (string, error) {
	tok, err := p.OAuth2Token(opts...)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// OAuth2Token is Token for callers that attach credentials with
// (*oauth2.Token).SetAuthHeader or an oauth2 transport.
func (p *Provider) OAuth2Token(opts ...TokenOption) (*oauth2.Token, error) {
	params := p.defaults
	for _, opt := range opts {
		opt(&params)
	}

	source := p.getOrCreate(providerKey{Role: params.Role, TTLDays: params.TTLDays})
	tok, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("fetch token: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, errors.New("empty access token returned")
	}
	return tok, nil
}

func (p *Provider) getOrCreate(key providerKey) oauth2.TokenSource {
	p.mu.RLock()
	source, ok := p.entries[key]
	p.mu.RUnlock()
	if ok {
		return source
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if source, ok = p.entries[key]; ok {
		return source
	}
	source = p.issuer.TokenSource(key.Role, key.TTLDays)
	p.entries[key] = source
	return source
}

// TokenSource returns an oauth2.TokenSource that signs a fresh token whenever
// the previous one has expired.
func (i *Issuer) TokenSource(role string, ttlDays int) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &issuerTokenSource{
		issuer:  i,
		role:    role,
		ttlDays: ttlDays,
	})
}

type issuerTokenSource struct {
	issuer  *Issuer
	role    string
	ttlDays int
}

func (s *issuerTokenSource) Token() (*oauth2.Token, error) {
	signed, claims, err := s.issuer.issue(s.role, s.ttlDays)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: signed,
		TokenType:   bearerTokenType,
		Expiry:      claims.ExpiresAt,
	}, nil
}
