package google

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func withTokenDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)
	t.Setenv("HOME", dir)
	return filepath.Join(dir, cacheSubdir)
}

func TestValidateAccountName(t *testing.T) {
	tests := []struct {
		name    string
		account string
		wantErr bool
	}{
		{"valid default", "default", false},
		{"valid work", "work", false},
		{"valid with hyphen", "work-email", false},
		{"valid with underscore", "personal_email", false},
		{"valid alphanumeric", "account123", false},
		{"empty", "", true},
		{"with spaces", "my account", true},
		{"with special chars", "account@work", true},
		{"with slash", "work/personal", true},
		{"with dot", "work.email", true},
		{"path traversal", "..", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAccountName(tt.account)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAccountName() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetTokenFilePath(t *testing.T) {
	dir := withTokenDir(t)

	tests := []struct {
		name    string
		account string
		want    string
	}{
		{"default account", "default", "google-default.token"},
		{"work account", "work", "google-work.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := getTokenFilePath(tt.account)
			if got != filepath.Join(dir, tt.want) {
				t.Errorf("getTokenFilePath() = %v, want %v", got, filepath.Join(dir, tt.want))
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	dir := withTokenDir(t)

	if HasTokenForAccount("work") {
		t.Fatal("expected no token before saving")
	}

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	want := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: expiry}
	if err := saveToken("work", want); err != nil {
		t.Fatalf("saveToken() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "google-work.token"))
	if err != nil {
		t.Fatalf("token file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}

	if !HasTokenForAccount("work") {
		t.Error("expected token after saving")
	}

	got, err := NewFileTokenProvider().GetTokenForAccount(context.Background(), "work")
	if err != nil {
		t.Fatalf("GetTokenForAccount() error = %v", err)
	}
	if got.AccessToken != "access" || got.RefreshToken != "refresh" || !got.Expiry.Equal(expiry) {
		t.Errorf("unexpected token: %+v", got)
	}
}

func TestGetTokenSourceForAccount_Missing(t *testing.T) {
	withTokenDir(t)

	_, err := GetTokenSourceForAccount(context.Background(), "nobody")
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}

	_, err = GetTokenSourceForAccount(context.Background(), "bad name")
	if err == nil || errors.Is(err, ErrNoToken) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestHasTokenForAccount_InvalidNames(t *testing.T) {
	withTokenDir(t)

	for _, account := range []string{"", "invalid account", "../etc"} {
		if HasTokenForAccount(account) {
			t.Errorf("HasTokenForAccount(%q) should be false", account)
		}
	}
}

func TestGetOAuthConfig(t *testing.T) {
	t.Setenv(EnvClientID, "env-client")
	t.Setenv(EnvClientSecret, "env-secret")
	t.Cleanup(func() { SetClientCredentials("", "", "") })

	conf := GetOAuthConfig()
	if conf.ClientID != "env-client" || conf.ClientSecret != "env-secret" {
		t.Errorf("expected env credentials, got %q/%q", conf.ClientID, conf.ClientSecret)
	}
	if conf.RedirectURL != oobRedirect {
		t.Errorf("RedirectURL = %q", conf.RedirectURL)
	}

	SetClientCredentials("flag-client", "flag-secret", "http://localhost:8080/callback")
	conf = GetOAuthConfig()
	if conf.ClientID != "flag-client" || conf.RedirectURL != "http://localhost:8080/callback" {
		t.Errorf("explicit credentials not used: %+v", conf)
	}
}

func TestGetAuthURLForAccount(t *testing.T) {
	SetClientCredentials("test-client", "test-secret", "")
	t.Cleanup(func() { SetClientCredentials("", "", "") })

	raw := GetAuthURLForAccount("work")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid URL %q: %v", raw, err)
	}

	q := u.Query()
	if q.Get("client_id") != "test-client" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("state") != "work" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if q.Get("access_type") != "offline" {
		t.Errorf("access_type = %q", q.Get("access_type"))
	}
	if !strings.Contains(q.Get("scope"), "calendar.readonly") {
		t.Errorf("scope = %q", q.Get("scope"))
	}
}

func TestGetAuthenticationErrorMessage(t *testing.T) {
	for _, account := range []string{"default", "work", "personal"} {
		t.Run(account, func(t *testing.T) {
			msg := GetAuthenticationErrorMessage(account)
			if !strings.Contains(msg, account) {
				t.Errorf("message should mention account %s", account)
			}
			if !strings.Contains(msg, "OAuth") {
				t.Error("message should mention OAuth")
			}
			if !strings.Contains(msg, "google_save_auth_code") {
				t.Error("message should name the save tool")
			}
		})
	}
}
