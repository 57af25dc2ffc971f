package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/vijay-prabhu/gmail-cli/internal/email"
)

const (
	scopePrefix = "https://www.googleapis.com/auth/"

	// expiryDelta treats tokens about to expire as expired, like oauth2 does
	expiryDelta = 10 * time.Second
)

// NormalizeScope returns the fully-qualified form of scope.
// "gmail.readonly" and "https://www.googleapis.com/auth/gmail.readonly"
// both become the latter.
func NormalizeScope(scope string) string {
	return scopePrefix + ShortScope(scope)
}

// ShortScope strips the scope URI prefix
func ShortScope(scope string) string {
	return strings.TrimPrefix(scope, scopePrefix)
}

// Credential is an OAuth token together with what is needed to refresh it
type Credential struct {
	Token        *oauth2.Token
	ClientID     string
	ClientSecret string
	TokenURI     string
	Scopes       []string
}

// Expired reports whether the access token is past (or within a few
// seconds of) its expiry. Tokens without an expiry never expire.
func (c *Credential) Expired(now time.Time) bool {
	if c.Token == nil || c.Token.Expiry.IsZero() {
		return false
	}
	return !now.Add(expiryDelta).Before(c.Token.Expiry)
}

// HasScope checks if the credential was granted scope
func (c *Credential) HasScope(scope string) bool {
	want := NormalizeScope(scope)
	for _, s := range c.Scopes {
		if NormalizeScope(s) == want {
			return true
		}
	}
	return false
}

// Valid reports whether the credential can be used for scope right now
func (c *Credential) Valid(now time.Time, scope string) bool {
	return c.Token != nil &&
		c.Token.AccessToken != "" &&
		!c.Expired(now) &&
		c.HasScope(scope)
}

// Refreshable reports whether an expired credential can be renewed for scope
// without user interaction. A refresh keeps the granted scopes, so a token
// issued for another scope has to be replaced.
func (c *Credential) Refreshable(now time.Time, scope string) bool {
	return c.Expired(now) && c.Token.RefreshToken != "" && c.HasScope(scope)
}

// Config returns the OAuth config the credential was issued under
func (c *Credential) Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  google.Endpoint.AuthURL,
			TokenURL: c.TokenURI,
		},
		Scopes: c.Scopes,
	}
}

// TokenSource returns a source that refreshes the token when it expires
func (c *Credential) TokenSource(ctx context.Context) oauth2.TokenSource {
	return c.Config().TokenSource(ctx, c.Token)
}

// authorizedUser is the token file layout used by Google's client
// libraries ("authorized_user" credentials)
type authorizedUser struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
	Expiry       string   `json:"expiry,omitempty"`
}

// AuthorizeFunc obtains a new token from the user
type AuthorizeFunc func(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error)

// TokenStore keeps one token file per scope and decides whether a stored
// token can be used, refreshed, or must be replaced through the
// interactive flow.
//
// Load calls are serialized within a process. Sharing a token directory
// between processes is not supported: the last writer wins.
type TokenStore struct {
	Dir             string        // Holds {scope}-token.json files
	CredentialsPath string        // Client secret file, read only by the interactive flow
	Authorize       AuthorizeFunc // Interactive flow
	Now             func() time.Time
	Logger          zerolog.Logger

	mu sync.Mutex
}

// NewTokenStore creates a token store that authorizes through a browser
func NewTokenStore(dir, credentialsPath string, flow *BrowserFlow, logger zerolog.Logger) *TokenStore {
	return &TokenStore{
		Dir:             dir,
		CredentialsPath: credentialsPath,
		Authorize:       flow.Authorize,
		Now:             time.Now,
		Logger:          logger,
	}
}

// TokenPath returns the token file used for scope
func (s *TokenStore) TokenPath(scope string) string {
	return filepath.Join(s.Dir, ShortScope(scope)+"-token.json")
}

// Load returns a valid credential for scope, refreshing or re-authorizing
// as needed, and persists it.
func (s *TokenStore) Load(ctx context.Context, scope string) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	path := s.TokenPath(scope)
	log := s.Logger.With().Str("scope", ShortScope(scope)).Str("token_file", path).Logger()

	cred, err := readToken(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug().Err(err).Msg("ignoring unreadable token file")
		}
		cred = nil
	}

	if cred != nil && cred.Valid(now, scope) {
		log.Debug().Time("expiry", cred.Token.Expiry).Msg("using stored token")
		return cred, nil
	}

	refreshed := false
	if cred != nil && cred.Refreshable(now, scope) {
		log.Debug().Msg("refreshing expired token")
		if err := s.refresh(ctx, cred); err != nil {
			log.Warn().Err(err).Msg("token refresh failed, signing in again")
		} else {
			refreshed = true
		}
	}

	if !refreshed {
		log.Info().Msg("sign in required")
		cred, err = s.authorize(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", email.ErrAuthRequired, err)
		}
	}

	if err := s.save(path, cred); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	return cred, nil
}

func (s *TokenStore) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// refresh exchanges the refresh token for a new access token in place
func (s *TokenStore) refresh(ctx context.Context, cred *Credential) error {
	// Force the exchange even if the local clock disagrees with the expiry
	expired := *cred.Token
	expired.Expiry = time.Unix(1, 0)

	tok, err := cred.Config().TokenSource(ctx, &expired).Token()
	if err != nil {
		return err
	}

	cred.Token = tok
	return nil
}

// authorize runs the interactive flow and returns a new credential
func (s *TokenStore) authorize(ctx context.Context, scope string) (*Credential, error) {
	if s.Authorize == nil {
		return nil, fmt.Errorf("no interactive authorization configured")
	}

	data, err := os.ReadFile(s.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret file: %w\n\nTo set up Gmail API access:\n1. Go to https://console.cloud.google.com/\n2. Create a project and enable the Gmail API\n3. Create OAuth 2.0 credentials (Desktop app)\n4. Download and save to: %s", err, s.CredentialsPath)
	}

	full := NormalizeScope(scope)
	conf, err := google.ConfigFromJSON(data, full)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret file: %w", err)
	}

	tok, err := s.Authorize(ctx, conf)
	if err != nil {
		return nil, err
	}

	return &Credential{
		Token:        tok,
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		TokenURI:     conf.Endpoint.TokenURL,
		Scopes:       []string{full},
	}, nil
}

// readToken parses a token file
func readToken(path string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var au authorizedUser
	if err := json.Unmarshal(data, &au); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	tok := &oauth2.Token{
		AccessToken:  au.Token,
		RefreshToken: au.RefreshToken,
		TokenType:    "Bearer",
	}
	if au.Expiry != "" {
		expiry, err := time.Parse(time.RFC3339Nano, au.Expiry)
		if err != nil {
			// Written by naive UTC timestamps without a zone
			expiry, err = time.Parse("2006-01-02T15:04:05.999999", au.Expiry)
			if err != nil {
				return nil, fmt.Errorf("failed to parse token expiry: %w", err)
			}
		}
		tok.Expiry = expiry
	}

	tokenURI := au.TokenURI
	if tokenURI == "" {
		tokenURI = google.Endpoint.TokenURL
	}

	return &Credential{
		Token:        tok,
		ClientID:     au.ClientID,
		ClientSecret: au.ClientSecret,
		TokenURI:     tokenURI,
		Scopes:       au.Scopes,
	}, nil
}

// save writes the token file through a temporary file so a crash never
// leaves a truncated token behind
func (s *TokenStore) save(path string, cred *Credential) error {
	au := authorizedUser{
		Token:        cred.Token.AccessToken,
		RefreshToken: cred.Token.RefreshToken,
		TokenURI:     cred.TokenURI,
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Scopes:       cred.Scopes,
	}
	if !cred.Token.Expiry.IsZero() {
		au.Expiry = cred.Token.Expiry.UTC().Format(time.RFC3339Nano)
	}

	data, err := json.MarshalIndent(au, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".token-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
