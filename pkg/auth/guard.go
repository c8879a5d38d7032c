package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/otherus/otherus/pkg/jwt"
	"github.com/otherus/otherus/pkg/logger"
)

// TokenVerifier returns the subject of a valid access token.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// ErrorHandler renders a Guard failure.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Guard resolves bearer tokens to live user records.
type Guard struct {
	tokens       TokenVerifier
	users        UserStorage
	extractor    jwt.TokenExtractorFunc
	errorHandler ErrorHandler
	logger       *slog.Logger
}

type GuardOption func(*Guard)

func WithGuardErrorHandler(h ErrorHandler) GuardOption {
	return func(g *Guard) {
		if h != nil {
			g.errorHandler = h
		}
	}
}

func WithGuardLogger(l *slog.Logger) GuardOption {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

func WithTokenExtractor(fn jwt.TokenExtractorFunc) GuardOption {
	return func(g *Guard) {
		if fn != nil {
			g.extractor = fn
		}
	}
}

func NewGuard(tokens TokenVerifier, users UserStorage, opts ...GuardOption) *Guard {
	g := &Guard{
		tokens:       tokens,
		users:        users,
		extractor:    jwt.BearerTokenExtractor,
		errorHandler: defaultGuardErrorHandler,
		logger:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate verifies token and loads its user.
// It fails with ErrInvalidToken for bad or expired tokens and with
// ErrUserNotFound when the token is valid but the account is gone.
func (g *Guard) Authenticate(ctx context.Context, token string) (*User, error) {
	userID, err := g.tokens.Verify(token)
	if err != nil || userID == "" {
		return nil, ErrInvalidToken
	}

	user, err := g.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// Middleware rejects requests without a usable bearer token and stores the
// authenticated user in the request context.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := g.extractor(r)
		if err != nil {
			g.fail(w, r, ErrInvalidToken)
			return
		}

		user, err := g.Authenticate(r.Context(), token)
		if err != nil {
			g.fail(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(SetUserToContext(r.Context(), user)))
	})
}

func (g *Guard) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidToken):
		w.Header().Set("WWW-Authenticate", "Bearer")
		g.logger.DebugContext(r.Context(), "rejected bearer token", logger.Component("guard"))
	case errors.Is(err, ErrUserNotFound):
		g.logger.InfoContext(r.Context(), "token refers to a deleted user", logger.Component("guard"))
	default:
		g.logger.ErrorContext(r.Context(), "authentication failed", logger.Component("guard"), logger.Error(err))
	}
	g.errorHandler(w, r, err)
}

func defaultGuardErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidToken):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
