package account

import (
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/otherus/otherus/handler"
	"github.com/otherus/otherus/pkg/binder"
)

type OAuthService struct {
	auth           Authenticator
	frontendOrigin string
	errorHandler   handler.ErrorHandler[handler.Context]
}

func NewOAuthService(a Authenticator, frontendOrigin string, errorHandler handler.ErrorHandler[handler.Context]) *OAuthService {
	return &OAuthService{
		auth:           a,
		frontendOrigin: strings.TrimRight(frontendOrigin, "/"),
		errorHandler:   errorHandler,
	}
}

func (s *OAuthService) Mount(r chi.Router) {
	r.Get("/auth/{provider}/login", handler.Wrap(s.login,
		handler.WithBinders[handler.Context, OAuthLoginRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, OAuthLoginRequest](s.errorHandler),
	))
	r.Get("/auth/{provider}/callback", handler.Wrap(s.callback,
		handler.WithBinders[handler.Context, OAuthCallbackRequest](binder.Path(chi.URLParam), binder.Query()),
		handler.WithErrorHandler[handler.Context, OAuthCallbackRequest](s.errorHandler),
	))
}

type OAuthLoginRequest struct {
	Provider string `path:"provider"`
}

func (s *OAuthService) login(ctx handler.Context, req OAuthLoginRequest) handler.Response {
	start, err := s.auth.BeginOAuth(ctx, req.Provider)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(start)
}

type OAuthCallbackRequest struct {
	Provider string `path:"provider" query:"-"`
	Code     string `path:"-" query:"code"`
	State    string `path:"-" query:"state"`
}

// callback finishes the provider flow and hands the token to the frontend.
func (s *OAuthService) callback(ctx handler.Context, req OAuthCallbackRequest) handler.Response {
	sess, err := s.auth.CompleteOAuth(ctx, req.Provider, req.Code, req.State)
	if err != nil {
		return handler.Error(err)
	}

	q := url.Values{}
	q.Set("token", sess.AccessToken)
	q.Set("provider", strings.ToLower(req.Provider))
	return handler.Redirect(s.frontendOrigin + "/oauth_callback?" + q.Encode())
}
