package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/otherus/otherus/pkg/logger"
	"github.com/otherus/otherus/pkg/sanitizer"
)

// GitHubOAuthConfig holds configuration for GitHub OAuth provider.
// The provider is disabled when the client id or secret is empty.
type GitHubOAuthConfig struct {
	ClientID     string `env:"GITHUB_CLIENT_ID"`
	ClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	RedirectURL  string `env:"GITHUB_REDIRECT_URI"`
}

func (c GitHubOAuthConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

const (
	githubUserURL   = "https://api.github.com/user"
	githubEmailsURL = "https://api.github.com/user/emails"
)

type githubAdapter struct {
	conf       *oauth2.Config
	httpClient *http.Client
	logger     *slog.Logger
	userURL    string
	emailsURL  string
}

// NewGitHubAdapter creates a new GitHub OAuth provider adapter.
func NewGitHubAdapter(cfg GitHubOAuthConfig, opts ...AdapterOption) ProviderAdapter {
	o := newAdapterOptions(opts)
	return &githubAdapter{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"user:email", "read:user"},
			Endpoint:     github.Endpoint,
		},
		httpClient: o.httpClient,
		logger:     o.logger,
		userURL:    githubUserURL,
		emailsURL:  githubEmailsURL,
	}
}

func (a *githubAdapter) ProviderID() string {
	return ProviderGitHub
}

func (a *githubAdapter) AuthURL(state string) string {
	return a.conf.AuthCodeURL(state)
}

// ExchangeIdentity reads /user and /user/emails. A failing emails endpoint is
// treated as an empty list so the profile or placeholder email is used.
func (a *githubAdapter) ExchangeIdentity(ctx context.Context, code string) (Identity, error) {
	tok, err := a.conf.Exchange(context.WithValue(ctx, oauth2.HTTPClient, a.httpClient), code)
	if err != nil {
		a.logger.WarnContext(ctx, "github code exchange failed",
			logger.Component("oauth"), logger.Provider(ProviderGitHub), logger.Error(err))
		return Identity{}, fmt.Errorf("%w: %w", ErrProviderExchangeFailed, err)
	}

	var u githubUser
	if err := fetchJSON(ctx, a.httpClient, a.userURL, tok.AccessToken, &u); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrProviderProfileFailed, err)
	}
	if u.ID == 0 {
		return Identity{}, fmt.Errorf("%w: user without id", ErrProviderProfileFailed)
	}

	var emails []GitHubEmail
	if err := fetchJSON(ctx, a.httpClient, a.emailsURL, tok.AccessToken, &emails); err != nil {
		a.logger.WarnContext(ctx, "github emails unavailable, falling back to profile email",
			logger.Component("oauth"), logger.Provider(ProviderGitHub), logger.Error(err))
		emails = nil
	}

	email := ResolveGitHubEmail(emails, u.Email, u.ID)

	name := u.Name
	if name == "" {
		name = u.Login
	}
	if name == "" {
		name = sanitizer.EmailLocalPart(email)
	}

	return Identity{
		Provider:      ProviderGitHub,
		OAuthID:       strconv.FormatInt(u.ID, 10),
		Email:         email,
		EmailVerified: primaryVerified(emails, email),
		DisplayName:   name,
		AvatarURL:     u.AvatarURL,
		Bio:           u.Bio,
		Location:      u.Location,
		Website:       u.Blog,
	}, nil
}

// GitHubEmail is one entry of the /user/emails response.
type GitHubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// ResolveGitHubEmail picks the primary verified address, then the public
// profile email, then the placeholder gh_<id>@github.noemail.
// The result is normalized.
func ResolveGitHubEmail(emails []GitHubEmail, profileEmail string, id int64) string {
	for _, e := range emails {
		if e.Primary && e.Verified && e.Email != "" {
			return sanitizer.NormalizeEmail(e.Email)
		}
	}
	if email := sanitizer.NormalizeEmail(profileEmail); email != "" {
		return email
	}
	return "gh_" + strconv.FormatInt(id, 10) + "@github.noemail"
}

func primaryVerified(emails []GitHubEmail, email string) bool {
	for _, e := range emails {
		if e.Verified && sanitizer.NormalizeEmail(e.Email) == email {
			return true
		}
	}
	return false
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio"`
	Location  string `json:"location"`
	Blog      string `json:"blog"`
}

var _ ProviderAdapter = (*githubAdapter)(nil)
