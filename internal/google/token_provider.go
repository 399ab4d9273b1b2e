package google

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// TokenProvider supplies OAuth tokens for Google APIs per account.
type TokenProvider interface {
	// GetTokenForAccount retrieves an OAuth token for the specified account
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool
}

// FileTokenProvider provides tokens stored on disk by SaveTokenForAccount.
type FileTokenProvider struct{}

// NewFileTokenProvider creates a new file-based token provider
func NewFileTokenProvider() *FileTokenProvider {
	return &FileTokenProvider{}
}

// GetTokenForAccount retrieves a token from disk, refreshing it if it expired.
func (p *FileTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	ts, err := GetTokenSourceForAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	token, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get token from file: %w", err)
	}

	return token, nil
}

// HasTokenForAccount checks if a token file exists for the specified account
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	return HasTokenForAccount(account)
}

// RefreshTokenProvider serves accounts whose refresh tokens are provisioned through
// configuration, as on a headless CRM deployment where nobody can paste an auth code.
// Other accounts are delegated to the fallback provider.
type RefreshTokenProvider struct {
	config   *oauth2.Config
	tokens   map[string]string
	fallback TokenProvider

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

// NewRefreshTokenProvider creates a provider from account -> refresh token pairs.
// fallback may be nil.
func NewRefreshTokenProvider(config *oauth2.Config, refreshTokens map[string]string, fallback TokenProvider) *RefreshTokenProvider {
	tokens := make(map[string]string, len(refreshTokens))
	for account, rt := range refreshTokens {
		if rt != "" {
			tokens[account] = rt
		}
	}
	return &RefreshTokenProvider{
		config:   config,
		tokens:   tokens,
		fallback: fallback,
		sources:  make(map[string]oauth2.TokenSource),
	}
}

// GetTokenForAccount exchanges the account's refresh token for an access token. The
// access token is reused until it expires.
func (p *RefreshTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	rt, ok := p.tokens[account]
	if !ok {
		if p.fallback == nil {
			return nil, fmt.Errorf("%w for account %s", ErrNoToken, account)
		}
		return p.fallback.GetTokenForAccount(ctx, account)
	}

	p.mu.Lock()
	ts, ok := p.sources[account]
	if !ok {
		// The source outlives this call, so it must not hold on to a request context.
		ts = oauth2.ReuseTokenSource(nil, p.config.TokenSource(context.WithoutCancel(ctx), &oauth2.Token{RefreshToken: rt}))
		p.sources[account] = ts
	}
	p.mu.Unlock()

	token, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token for account %s: %w", account, err)
	}
	return token, nil
}

// HasTokenForAccount reports whether a refresh token is configured for the account or
// the fallback has one.
func (p *RefreshTokenProvider) HasTokenForAccount(account string) bool {
	if _, ok := p.tokens[account]; ok {
		return true
	}
	return p.fallback != nil && p.fallback.HasTokenForAccount(account)
}
