package calendar

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// CalendarScope grants read and write access to calendars.
const CalendarScope = "https://www.googleapis.com/auth/calendar"

type clientSecretFile struct {
	Installed *clientSecret `json:"installed"`
	Web       *clientSecret `json:"web"`
}

type clientSecret struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
	RedirectURIs []string `json:"redirect_uris"`
}

// LoadOAuthConfig reads a Google OAuth client secret file as downloaded
// from the cloud console.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read client secret file %s", path)
	}
	var file clientSecretFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse client secret file")
	}
	secret := file.Installed
	if secret == nil {
		secret = file.Web
	}
	if secret == nil || secret.ClientID == "" {
		return nil, errors.New("client secret file has no installed or web client")
	}

	cfg := &oauth2.Config{
		ClientID:     secret.ClientID,
		ClientSecret: secret.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  secret.AuthURI,
			TokenURL: secret.TokenURI,
		},
		Scopes: []string{CalendarScope},
	}
	if len(secret.RedirectURIs) > 0 {
		cfg.RedirectURL = secret.RedirectURIs[0]
	}
	return cfg, nil
}

// LoadToken reads a stored OAuth token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read token file %s", path)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, errors.Wrap(err, "failed to parse token file")
	}
	return &tok, nil
}

// SaveToken writes a token with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal token")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write token file %s", path)
	}
	return nil
}

// persistingTokenSource writes refreshed tokens back to disk.
type persistingTokenSource struct {
	base oauth2.TokenSource
	path string

	mu     sync.Mutex
	access string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.access {
		p.access = tok.AccessToken
		// A failed write only costs a refresh on the next start.
		_ = SaveToken(p.path, tok)
	}
	return tok, nil
}

// NewGoogleServiceFromFiles authenticates with a client secret file and a
// token obtained earlier through the authorization flow.
func NewGoogleServiceFromFiles(ctx context.Context, secretFile, tokenFile string, loc *time.Location, opts ...GoogleOption) (*GoogleService, error) {
	cfg, err := LoadOAuthConfig(secretFile)
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(tokenFile)
	if err != nil {
		return nil, errors.Wrap(err, "no google token: run `orbita calendar auth` first")
	}

	ts := &persistingTokenSource{
		base:   oauth2.ReuseTokenSource(tok, cfg.TokenSource(ctx, tok)),
		path:   tokenFile,
		access: tok.AccessToken,
	}
	client := oauth2.NewClient(ctx, ts)
	return NewGoogleService(client, loc, opts...), nil
}
