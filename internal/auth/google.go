package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Provider runs an interactive consent flow and resolves the resulting
// authorization code into an Identity.
type Provider interface {
	ConsentURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

const userInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleProvider signs users in with a Google account.
type GoogleProvider struct {
	conf        *oauth2.Config
	userInfoURL string
	client      *http.Client
}

// NewGoogleProvider creates a provider for the given OAuth2 client. The
// redirect URL must point at the server's /auth/callback route.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
			RedirectURL:  redirectURL,
		},
		userInfoURL: userInfoURL,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// ConsentURL returns the Google consent page URL for state.
func (p *GoogleProvider) ConsentURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type userInfo struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// Exchange trades an authorization code for tokens and fetches the
// account's verified email address.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating userinfo request: %w", err)
	}
	resp, err := p.conf.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("account has no email address")
	}
	if !info.EmailVerified {
		return nil, fmt.Errorf("email %s is not verified", info.Email)
	}
	return &Identity{Email: strings.TrimSpace(info.Email), Name: info.Name}, nil
}
