package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultAccount is the account name used when a caller does not name one.
const DefaultAccount = "default"

// Environment variables read when no credentials were set explicitly.
const (
	EnvClientID     = "GOOGLE_CLIENT_ID"
	EnvClientSecret = "GOOGLE_CLIENT_SECRET"
)

const (
	cacheSubdir = "dealdesk"
	oobRedirect = "urn:ietf:wg:oauth:2.0:oob"
)

// ErrNoToken is returned when no token has been stored for an account.
var ErrNoToken = errors.New("no Google OAuth token found")

var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var credentials struct {
	sync.RWMutex
	clientID     string
	clientSecret string
	redirectURL  string
}

// SetClientCredentials sets the OAuth client used for all accounts. Empty values fall
// back to GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.
func SetClientCredentials(clientID, clientSecret, redirectURL string) {
	credentials.Lock()
	defer credentials.Unlock()
	credentials.clientID = clientID
	credentials.clientSecret = clientSecret
	credentials.redirectURL = redirectURL
}

// GetOAuthConfig returns the OAuth2 configuration for the Calendar read scopes.
func GetOAuthConfig() *oauth2.Config {
	credentials.RLock()
	id, secret, redirect := credentials.clientID, credentials.clientSecret, credentials.redirectURL
	credentials.RUnlock()

	if id == "" {
		id = os.Getenv(EnvClientID)
	}
	if secret == "" {
		secret = os.Getenv(EnvClientSecret)
	}
	if redirect == "" {
		redirect = oobRedirect
	}

	return &oauth2.Config{
		ClientID:     id,
		ClientSecret: secret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect,
		Scopes:       DefaultOAuthScopes,
	}
}

// validateAccountName restricts account names to characters that are safe in a file name.
func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}

func tokenDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, cacheSubdir)
}

func getTokenFilePath(account string) string {
	return filepath.Join(tokenDir(), "google-"+account+".token")
}

// HasTokenForAccount reports whether a token file exists for account.
func HasTokenForAccount(account string) bool {
	if err := validateAccountName(account); err != nil {
		return false
	}
	_, err := os.Stat(getTokenFilePath(account))
	return err == nil
}

// GetAuthURLForAccount returns the consent URL for account. The account name is
// carried in the state parameter.
func GetAuthURLForAccount(account string) string {
	return GetOAuthConfig().AuthCodeURL(account, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// SaveTokenForAccount exchanges an authorization code and stores the resulting token.
func SaveTokenForAccount(ctx context.Context, account, authCode string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}

	token, err := GetOAuthConfig().Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return saveToken(account, token)
}

func saveToken(account string, token *oauth2.Token) error {
	if err := os.MkdirAll(tokenDir(), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(getTokenFilePath(account), data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func loadToken(account string) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(getTokenFilePath(account))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w for account %s", ErrNoToken, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file for account %s: %w", account, err)
	}
	return &token, nil
}

// GetTokenSourceForAccount returns a refreshing token source for account. Refreshed
// tokens are written back to disk.
func GetTokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	token, err := loadToken(account)
	if err != nil {
		return nil, err
	}
	return &persistingTokenSource{
		account: account,
		base:    GetOAuthConfig().TokenSource(ctx, token),
		last:    token.AccessToken,
	}, nil
}

// GetHTTPClientForAccount returns an HTTP client authorized as account.
func GetHTTPClientForAccount(ctx context.Context, account string) (*http.Client, error) {
	ts, err := GetTokenSourceForAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

// GetAuthenticationErrorMessage explains how to authorize account.
func GetAuthenticationErrorMessage(account string) string {
	return fmt.Sprintf(`Google OAuth token not found for account "%s". To authorize Calendar access:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account and grant read access to your calendar
3. Copy the authorization code

4. Provide the authorization code to your AI agent
   The agent will use the google_save_auth_code tool with account="%s" to complete authentication.

Note: You only need to authorize once. The tokens will be automatically refreshed.`,
		account, GetAuthURLForAccount(account), account)
}

type persistingTokenSource struct {
	account string
	base    oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if token.AccessToken != p.last {
		p.last = token.AccessToken
		// A failed write only costs a refresh on the next start.
		_ = saveToken(p.account, token)
	}
	return token, nil
}
