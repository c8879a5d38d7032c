package auth

import "time"

// Identity provider names stored in User.Provider.
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// TokenType is the scheme advertised to clients alongside access tokens.
const TokenType = "bearer"

// User is the stored account record.
// PasswordHash never leaves the process: it is excluded from JSON, and the
// client-facing views are Profile and PublicProfile.
type User struct {
	ID           string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Bio          string    `json:"bio"`
	Interests    string    `json:"interests"`
	AvatarURL    string    `json:"avatar_url"`
	Location     string    `json:"location"`
	Website      string    `json:"website"`
	Provider     string    `json:"provider"`
	OAuthID      string    `json:"oauth_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the owner's view of their own account.
type Profile struct {
	ID          string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	Interests   string    `json:"interests"`
	AvatarURL   string    `json:"avatar_url"`
	Location    string    `json:"location"`
	Website     string    `json:"website"`
	Provider    string    `json:"provider"`
	OAuthID     string    `json:"oauth_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PublicProfile is what other signed-in users may see.
type PublicProfile struct {
	ID          string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	Interests   string    `json:"interests"`
	AvatarURL   string    `json:"avatar_url"`
	Location    string    `json:"location"`
	Website     string    `json:"website"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		Interests:   u.Interests,
		AvatarURL:   u.AvatarURL,
		Location:    u.Location,
		Website:     u.Website,
		Provider:    u.Provider,
		OAuthID:     u.OAuthID,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (u *User) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		Interests:   u.Interests,
		AvatarURL:   u.AvatarURL,
		Location:    u.Location,
		Website:     u.Website,
		Provider:    u.Provider,
		CreatedAt:   u.CreatedAt,
	}
}

// Identity is the provider-agnostic result of an OAuth code exchange.
// Bio, Location and Website are only supplied by some providers.
type Identity struct {
	Provider      string
	OAuthID       string
	Email         string
	EmailVerified bool
	DisplayName   string
	AvatarURL     string
	Bio           string
	Location      string
	Website       string
}

// Session is returned by successful register, login and OAuth completion.
type Session struct {
	AccessToken string
	User        *User
}
