package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultAccount is used when no account name is given.
const DefaultAccount = "default"

const oob = "urn:ietf:wg:oauth:2.0:oob"

var (
	// ErrInvalidAccountName is returned for account names that cannot be
	// used in a token file name.
	ErrInvalidAccountName = errors.New("invalid account name")
	// ErrNoToken is returned when no token has been saved for an account.
	ErrNoToken = errors.New("no Google OAuth token found")
	// ErrNoCredentials is returned when no OAuth client is configured.
	ErrNoCredentials = errors.New("no Google OAuth client configured")

	accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// Credentials identify the OAuth client. CredentialsFile, the client JSON
// downloaded from the Cloud console, wins over the explicit ID and secret.
type Credentials struct {
	ClientID        string
	ClientSecret    string
	CredentialsFile string
}

// Authenticator loads and stores per-account tokens on disk.
type Authenticator struct {
	config   *oauth2.Config
	cacheDir string
}

// AuthOption configures an Authenticator.
type AuthOption func(*Authenticator)

// WithCacheDir overrides the token directory.
func WithCacheDir(dir string) AuthOption {
	return func(a *Authenticator) { a.cacheDir = dir }
}

// WithEndpoint overrides the OAuth endpoint.
func WithEndpoint(ep oauth2.Endpoint) AuthOption {
	return func(a *Authenticator) { a.config.Endpoint = ep }
}

// NewAuthenticator builds an Authenticator for the grnsync scopes.
func NewAuthenticator(creds Credentials, opts ...AuthOption) (*Authenticator, error) {
	conf, err := oauthConfig(creds)
	if err != nil {
		return nil, err
	}
	a := &Authenticator{
		config:   conf,
		cacheDir: filepath.Join(userCacheDir(), "grnsync"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func oauthConfig(creds Credentials) (*oauth2.Config, error) {
	if creds.CredentialsFile != "" {
		data, err := os.ReadFile(creds.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		conf, err := google.ConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse credentials file: %w", err)
		}
		if conf.RedirectURL == "" || strings.HasPrefix(conf.RedirectURL, "http://localhost") {
			conf.RedirectURL = oob
		}
		return conf, nil
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, ErrNoCredentials
	}
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  oob,
		Scopes:       Scopes,
	}, nil
}

func validateAccountName(account string) error {
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("%w %q: use letters, digits, hyphens and underscores", ErrInvalidAccountName, account)
	}
	return nil
}

// TokenFile returns the path of the token file for account.
func (a *Authenticator) TokenFile(account string) string {
	return filepath.Join(a.cacheDir, fmt.Sprintf("google-%s.token", account))
}

// HasToken reports whether a token file exists for account.
func (a *Authenticator) HasToken(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(a.TokenFile(account))
	return err == nil
}

// AuthURL returns the consent page URL.
func (a *Authenticator) AuthURL(account string) string {
	return a.config.AuthCodeURL("state-"+account, oauth2.AccessTypeOffline)
}

// SaveToken exchanges an authorization code and stores the token.
func (a *Authenticator) SaveToken(ctx context.Context, account, authCode string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	t, err := a.config.Exchange(ctx, strings.TrimSpace(authCode))
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := os.MkdirAll(a.cacheDir, 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tokenData := t.AccessToken + " " + t.RefreshToken
	if err := os.WriteFile(a.TokenFile(account), []byte(tokenData), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// TokenSource returns a refreshing token source for account. The cached
// access token is marked expired so the first call refreshes it.
func (a *Authenticator) TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}
	slurp, err := os.ReadFile(a.TokenFile(account))
	if err != nil {
		return nil, fmt.Errorf("%w for account %s", ErrNoToken, account)
	}
	f := strings.Fields(strings.TrimSpace(string(slurp)))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token format in %s", a.TokenFile(account))
	}
	return a.config.TokenSource(ctx, &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	}), nil
}

// HTTPClient returns an authorized client for account. HTTP/2 is disabled
// because long Drive downloads hit stream resets over it.
func (a *Authenticator) HTTPClient(ctx context.Context, account string) (*http.Client, error) {
	ts, err := a.TokenSource(ctx, account)
	if err != nil {
		return nil, err
	}
	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("cached token for account %s is invalid: %w", account, err)
	}
	client := oauth2.NewClient(ctx, ts)
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}
	return client, nil
}

// AuthenticationHint tells the user how to create a token for account.
func AuthenticationHint(account string) string {
	return fmt.Sprintf("no Google OAuth token for account %q; run `grnsync auth --account %s` to authorize Gmail, Drive and Sheets access", account, account)
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		return os.TempDir()
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
