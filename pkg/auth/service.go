package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/otherus/otherus/pkg/logger"
	"github.com/otherus/otherus/pkg/sanitizer"
	"github.com/otherus/otherus/pkg/validator"
)

// TokenIssuer signs access tokens for a user id.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// Service orchestrates registration, password login and OAuth sign-in.
type Service struct {
	users     UserStorage
	states    *StateManager
	providers Providers
	tokens    TokenIssuer
	hasher    *PasswordHasher
	logger    *slog.Logger
	now       func() time.Time

	stateTTL          time.Duration
	mergeVerifiedOnly bool
}

type ServiceOption func(*Service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithPasswordHasher(h *PasswordHasher) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStateTTL overrides DefaultStateTTL for OAuth state nonces.
func WithStateTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) { s.stateTTL = ttl }
}

// WithMergeVerifiedOnly refuses to sign a provider identity into an existing
// account with the same email unless the provider asserted the email is
// verified. Returning users of the same provider account are unaffected.
func WithMergeVerifiedOnly(enabled bool) ServiceOption {
	return func(s *Service) { s.mergeVerifiedOnly = enabled }
}

func NewService(users UserStorage, states StateStorage, tokens TokenIssuer, providers Providers, opts ...ServiceOption) *Service {
	s := &Service{
		users:     users,
		providers: providers,
		tokens:    tokens,
		logger:    logger.Discard(),
		now:       time.Now,
		stateTTL:  DefaultStateTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hasher == nil {
		s.hasher = NewPasswordHasher()
	}
	if s.providers == nil {
		s.providers = Providers{}
	}
	s.states = NewStateManager(states, s.stateTTL)
	s.logger = s.logger.With(logger.Component("auth"))
	return s
}

// RegisterInput is the payload of an email/password sign-up.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	Interests   string `json:"interests"`
}

func (in RegisterInput) validate() error {
	return validator.Apply(
		validator.Required("email", in.Email),
		validator.Required("password", in.Password),
		validator.Required("display_name", in.DisplayName),
		validator.MaxBytes("password", in.Password, MaxPasswordBytes),
	)
}

// Register creates an email account and signs the user in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	email := sanitizer.NormalizeEmail(in.Email)

	switch _, err := s.users.GetUserByEmail(ctx, email); {
	case err == nil:
		return nil, ErrEmailAlreadyExists
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Bio:          in.Bio,
		Interests:    in.Interests,
		Provider:     ProviderEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// CreateUser is the authoritative uniqueness check for racing sign-ups.
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		logger.Event("register"), logger.UserID(user.ID), logger.Provider(ProviderEmail))

	return s.session(user)
}

func (s *Service) loginFailed(ctx context.Context, email string) error {
	s.logger.InfoContext(ctx, "login refused",
		logger.Event("login_failed"), slog.String("email", sanitizer.MaskEmail(email)))
	return ErrInvalidCredentials
}

// Login checks email and password. Unknown emails, OAuth-only accounts and
// wrong passwords all fail with ErrInvalidCredentials after similar work.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = sanitizer.NormalizeEmail(email)
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.burn(password)
			return nil, s.loginFailed(ctx, email)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.PasswordHash == "" {
		s.hasher.burn(password)
		return nil, s.loginFailed(ctx, email)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, s.loginFailed(ctx, email)
	}

	s.logger.InfoContext(ctx, "user logged in", logger.Event("login"), logger.UserID(user.ID))

	return s.session(user)
}

// OAuthStart carries the consent URL and the state nonce embedded in it.
type OAuthStart struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// BeginOAuth issues a state nonce for provider and returns the consent URL.
func (s *Service) BeginOAuth(ctx context.Context, provider string) (*OAuthStart, error) {
	adapter, err := s.providers.Get(provider)
	if err != nil {
		return nil, err
	}

	state, err := s.states.Begin(ctx, adapter.ProviderID())
	if err != nil {
		return nil, err
	}

	return &OAuthStart{AuthURL: adapter.AuthURL(state), State: state}, nil
}

// CompleteOAuth redeems the state, exchanges code with the provider and signs
// the resulting identity in, creating or merging the account by email.
func (s *Service) CompleteOAuth(ctx context.Context, provider, code, state string) (*Session, error) {
	adapter, err := s.providers.Get(provider)
	if err != nil {
		return nil, err
	}

	issuedFor, err := s.states.Redeem(ctx, state)
	if err != nil {
		return nil, err
	}
	if issuedFor != adapter.ProviderID() {
		s.logger.WarnContext(ctx, "oauth state used with another provider",
			logger.Provider(adapter.ProviderID()), slog.String("issued_for", issuedFor))
		return nil, ErrInvalidState
	}

	if code == "" {
		return nil, fmt.Errorf("%w: missing code", ErrProviderExchangeFailed)
	}

	id, err := adapter.ExchangeIdentity(ctx, code)
	if err != nil {
		return nil, err
	}
	id.Email = sanitizer.NormalizeEmail(id.Email)
	id.Provider = adapter.ProviderID()
	if id.Email == "" || id.OAuthID == "" {
		return nil, fmt.Errorf("%w: identity without email or subject", ErrProviderProfileFailed)
	}

	user, err := s.signInIdentity(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.session(user)
}

func (s *Service) signInIdentity(ctx context.Context, id Identity) (*User, error) {
	existing, err := s.users.GetUserByEmail(ctx, id.Email)
	if err == nil {
		return s.mergeIdentity(ctx, existing, id)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	now := s.now().UTC()
	user := &User{
		ID:          uuid.NewString(),
		Email:       id.Email,
		DisplayName: id.DisplayName,
		AvatarURL:   id.AvatarURL,
		Bio:         id.Bio,
		Location:    id.Location,
		Website:     id.Website,
		Provider:    id.Provider,
		OAuthID:     id.OAuthID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if user.DisplayName == "" {
		user.DisplayName = sanitizer.EmailLocalPart(id.Email)
	}

	err = s.users.CreateUser(ctx, user)
	if err == nil {
		s.logger.InfoContext(ctx, "user created from provider identity",
			logger.Event("oauth_signup"), logger.UserID(user.ID), logger.Provider(id.Provider))
		return user, nil
	}
	if !errors.Is(err, ErrEmailAlreadyExists) {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// A concurrent sign-up won the email; sign into that account instead.
	existing, err = s.users.GetUserByEmail(ctx, id.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup user after conflict: %w", err)
	}
	return s.mergeIdentity(ctx, existing, id)
}

// mergeIdentity refreshes provider-sourced profile fields on an existing
// account and stamps updated_at on every sign-in. Provider, oauth id and
// password hash are never touched.
func (s *Service) mergeIdentity(ctx context.Context, user *User, id Identity) (*User, error) {
	sameAccount := user.Provider == id.Provider && user.OAuthID == id.OAuthID
	if s.mergeVerifiedOnly && !sameAccount && !id.EmailVerified {
		s.logger.WarnContext(ctx, "refused to merge unverified provider email",
			logger.UserID(user.ID), logger.Provider(id.Provider))
		return nil, ErrProviderEmailInUse
	}

	refresh := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	refresh(&user.AvatarURL, id.AvatarURL)
	refresh(&user.Bio, id.Bio)
	refresh(&user.Location, id.Location)
	refresh(&user.Website, id.Website)

	user.UpdatedAt = s.now().UTC()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "provider identity merged",
		logger.Event("oauth_merge"), logger.UserID(user.ID), logger.Provider(id.Provider))
	return user, nil
}

func (s *Service) session(user *User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{AccessToken: token, User: user}, nil
}
