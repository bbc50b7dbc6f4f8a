package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
)

// ErrNoToken means no stored authorization exists yet. Obtaining one is an
// interactive consent flow this program does not run.
var ErrNoToken = errors.New("no stored Google authorization")

// storedToken is the authorized-user JSON written by Google's installed-app
// flow.
type storedToken struct {
	Token        string   `json:"token"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
	Expiry       string   `json:"expiry"`
}

func (s storedToken) oauthToken() *oauth2.Token {
	access := s.Token
	if access == "" {
		access = s.AccessToken
	}
	tok := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
	}
	if s.Expiry != "" {
		if t, err := time.Parse(time.RFC3339Nano, s.Expiry); err == nil {
			tok.Expiry = t
		} else if t, err := time.Parse("2006-01-02T15:04:05.999999", s.Expiry); err == nil {
			tok.Expiry = t.UTC()
		}
	}
	if tok.Expiry.IsZero() {
		// force a refresh on first use
		tok.Expiry = time.Unix(1, 0)
	}
	return tok
}

// HTTPClient returns an OAuth2 client for the Calendar API built from a
// client-secrets file and a stored token. The client-secrets file may be
// omitted when the token file carries its own client id and secret.
func HTTPClient(ctx context.Context, credentialsFile, tokenFile string) (*http.Client, error) {
	raw, err := os.ReadFile(tokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoToken, tokenFile)
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var st storedToken
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", tokenFile, err)
	}
	if st.RefreshToken == "" && st.Token == "" && st.AccessToken == "" {
		return nil, fmt.Errorf("%w: %s has no token", ErrNoToken, tokenFile)
	}

	conf, err := oauthConfig(credentialsFile, st)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, st.oauthToken())), nil
}

func oauthConfig(credentialsFile string, st storedToken) (*oauth2.Config, error) {
	if strings.TrimSpace(credentialsFile) != "" {
		b, err := os.ReadFile(credentialsFile)
		if err == nil {
			conf, err := googleoauth.ConfigFromJSON(b, calendarapi.CalendarScope)
			if err != nil {
				return nil, fmt.Errorf("parse client secrets %s: %w", credentialsFile, err)
			}
			return conf, nil
		}
		if !errors.Is(err, os.ErrNotExist) || st.ClientID == "" {
			return nil, fmt.Errorf("read client secrets: %w", err)
		}
	}
	if st.ClientID == "" {
		return nil, fmt.Errorf("no client secrets file and token file has no client_id")
	}

	endpoint := googleoauth.Endpoint
	if st.TokenURI != "" {
		endpoint.TokenURL = st.TokenURI
	}
	scopes := st.Scopes
	if len(scopes) == 0 {
		scopes = []string{calendarapi.CalendarScope}
	}
	return &oauth2.Config{
		ClientID:     st.ClientID,
		ClientSecret: st.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}, nil
}
