package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/otherus/otherus/pkg/auth"
	"github.com/otherus/otherus/pkg/logger"
	"github.com/otherus/otherus/pkg/sanitizer"
)

// MinQueryLength is the minimum number of characters in a trimmed search query.
const MinQueryLength = 2

// Store is the subset of the user store the profile service needs.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*auth.User, error)
	UpdateUser(ctx context.Context, user *auth.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]*auth.User, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: logger.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("profile"))
	return s
}

// UpdateInput holds a partial profile edit. Nil fields are left unchanged;
// an empty string clears the field.
type UpdateInput struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Interests   *string `json:"interests"`
	AvatarURL   *string `json:"avatar_url"`
	Location    *string `json:"location"`
	Website     *string `json:"website"`
}

func (in UpdateInput) apply(u *auth.User) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = sanitizer.TrimText(*v)
		}
	}
	set(&u.DisplayName, in.DisplayName)
	set(&u.Bio, in.Bio)
	set(&u.Interests, in.Interests)
	set(&u.AvatarURL, in.AvatarURL)
	set(&u.Location, in.Location)
	set(&u.Website, in.Website)
}

// Update applies in to the caller's profile and bumps updated_at. Email,
// provider, oauth id and password hash cannot be changed this way.
func (s *Service) Update(ctx context.Context, current *auth.User, in UpdateInput) (*auth.User, error) {
	updated := *current
	in.apply(&updated)
	updated.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateUser(ctx, &updated); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.logger.DebugContext(ctx, "profile updated", logger.UserID(updated.ID))
	return &updated, nil
}

// Delete removes the account permanently. Tokens already issued for it stop
// working because the guard can no longer load the user.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.logger.InfoContext(ctx, "account deleted", logger.Event("account_deleted"), logger.UserID(id))
	return nil
}

// PublicView returns another user's public profile.
func (s *Service) PublicView(ctx context.Context, id string) (auth.PublicProfile, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return auth.PublicProfile{}, auth.ErrUserNotFound
		}
		return auth.PublicProfile{}, fmt.Errorf("load profile: %w", err)
	}
	return u.PublicProfile(), nil
}

// Search returns public profiles whose display name, email, bio, interests
// or location contain query, case-insensitively. The caller is excluded.
// Results are ordered by creation time.
func (s *Service) Search(ctx context.Context, selfID, query string) ([]auth.PublicProfile, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return nil, ErrQueryTooShort
	}
	needle := strings.ToLower(query)

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})

	results := make([]auth.PublicProfile, 0)
	for _, u := range users {
		if u.ID == selfID {
			continue
		}
		if strings.Contains(searchText(u), needle) {
			results = append(results, u.PublicProfile())
		}
	}
	return results, nil
}

func searchText(u *auth.User) string {
	return strings.ToLower(strings.Join([]string{
		u.DisplayName, u.Email, u.Bio, u.Interests, u.Location,
	}, " "))
}
