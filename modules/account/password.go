package account

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/otherus/otherus/handler"
	"github.com/otherus/otherus/pkg/auth"
	"github.com/otherus/otherus/pkg/binder"
	"github.com/otherus/otherus/pkg/validator"
)

// Authenticator is the part of auth.Service used by the auth routes.
type Authenticator interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	BeginOAuth(ctx context.Context, provider string) (*auth.OAuthStart, error)
	CompleteOAuth(ctx context.Context, provider, code, state string) (*auth.Session, error)
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

func newTokenResponse(s *auth.Session) TokenResponse {
	return TokenResponse{
		AccessToken: s.AccessToken,
		TokenType:   auth.TokenType,
		UserID:      s.User.ID,
		DisplayName: s.User.DisplayName,
		Email:       s.User.Email,
	}
}

type PasswordService struct {
	auth         Authenticator
	errorHandler handler.ErrorHandler[handler.Context]
	middlewares  chi.Middlewares
}

// NewPasswordService serves register and login. middlewares wrap only these
// two routes, which is where login throttling goes.
func NewPasswordService(a Authenticator, errorHandler handler.ErrorHandler[handler.Context], middlewares ...func(http.Handler) http.Handler) *PasswordService {
	return &PasswordService{auth: a, errorHandler: errorHandler, middlewares: middlewares}
}

func (s *PasswordService) Mount(r chi.Router) {
	r = r.With(s.middlewares...)
	r.Post("/auth/register", handler.Wrap(s.register,
		handler.WithBinders[handler.Context, auth.RegisterInput](binder.JSON()),
		handler.WithErrorHandler[handler.Context, auth.RegisterInput](s.errorHandler),
	))
	r.Post("/auth/token", handler.Wrap(s.login,
		handler.WithBinders[handler.Context, LoginRequest](binder.Form()),
		handler.WithErrorHandler[handler.Context, LoginRequest](s.errorHandler),
	))
}

func (s *PasswordService) register(ctx handler.Context, req auth.RegisterInput) handler.Response {
	sess, err := s.auth.Register(ctx, req)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(newTokenResponse(sess))
}

// LoginRequest is the OAuth2 password-grant form; username carries the email.
type LoginRequest struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

func (s *PasswordService) login(ctx handler.Context, req LoginRequest) handler.Response {
	if err := validator.Apply(
		validator.Required("username", req.Username),
		validator.Required("password", req.Password),
	); err != nil {
		return handler.Error(err)
	}

	sess, err := s.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(newTokenResponse(sess), handler.WithJSONStatus(http.StatusOK))
}
