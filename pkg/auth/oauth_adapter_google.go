package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/otherus/otherus/pkg/logger"
	"github.com/otherus/otherus/pkg/sanitizer"
)

// GoogleOAuthConfig holds configuration for Google OAuth provider.
// The provider is disabled when the client id or secret is empty.
type GoogleOAuthConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URI"`
}

func (c GoogleOAuthConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// AdapterOption configures a provider adapter.
type AdapterOption func(*adapterOptions)

type adapterOptions struct {
	logger     *slog.Logger
	httpClient *http.Client
}

// WithAdapterLogger sets the logger for non-fatal provider failures.
func WithAdapterLogger(l *slog.Logger) AdapterOption {
	return func(o *adapterOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAdapterHTTPClient replaces the default client with its 10 second timeout.
func WithAdapterHTTPClient(c *http.Client) AdapterOption {
	return func(o *adapterOptions) {
		if c != nil {
			o.httpClient = c
		}
	}
}

func newAdapterOptions(opts []AdapterOption) adapterOptions {
	o := adapterOptions{
		logger:     logger.Discard(),
		httpClient: newProviderClient(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type googleAdapter struct {
	conf        *oauth2.Config
	httpClient  *http.Client
	logger      *slog.Logger
	userInfoURL string
}

// NewGoogleAdapter creates a new Google OAuth provider adapter.
func NewGoogleAdapter(cfg GoogleOAuthConfig, opts ...AdapterOption) ProviderAdapter {
	o := newAdapterOptions(opts)
	return &googleAdapter{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		httpClient:  o.httpClient,
		logger:      o.logger,
		userInfoURL: googleUserInfoURL,
	}
}

func (a *googleAdapter) ProviderID() string {
	return ProviderGoogle
}

func (a *googleAdapter) AuthURL(state string) string {
	return a.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeIdentity trades the code for tokens and reads the v3 userinfo endpoint.
func (a *googleAdapter) ExchangeIdentity(ctx context.Context, code string) (Identity, error) {
	tok, err := a.conf.Exchange(context.WithValue(ctx, oauth2.HTTPClient, a.httpClient), code)
	if err != nil {
		a.logger.WarnContext(ctx, "google code exchange failed",
			logger.Component("oauth"), logger.Provider(ProviderGoogle), logger.Error(err))
		return Identity{}, fmt.Errorf("%w: %w", ErrProviderExchangeFailed, err)
	}

	var u googleUser
	if err := fetchJSON(ctx, a.httpClient, a.userInfoURL, tok.AccessToken, &u); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrProviderProfileFailed, err)
	}
	if u.Sub == "" || u.Email == "" {
		return Identity{}, fmt.Errorf("%w: userinfo without sub or email", ErrProviderProfileFailed)
	}

	email := sanitizer.NormalizeEmail(u.Email)
	name := u.Name
	if name == "" {
		name = sanitizer.EmailLocalPart(email)
	}

	return Identity{
		Provider:      ProviderGoogle,
		OAuthID:       u.Sub,
		Email:         email,
		EmailVerified: u.EmailVerified,
		DisplayName:   name,
		AvatarURL:     u.Picture,
	}, nil
}

type googleUser struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// fetchJSON performs an authorized GET and decodes a 200 response into dst.
func fetchJSON(ctx context.Context, client *http.Client, url, accessToken string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}

var _ ProviderAdapter = (*googleAdapter)(nil)
