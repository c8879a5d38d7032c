package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/otherus/otherus/handler"
	"github.com/otherus/otherus/pkg/auth"
	"github.com/otherus/otherus/pkg/binder"
	"github.com/otherus/otherus/svc/profile"
)

type ProfileService struct {
	profiles     *profile.Service
	guard        *auth.Guard
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewProfileService(profiles *profile.Service, guard *auth.Guard, errorHandler handler.ErrorHandler[handler.Context]) *ProfileService {
	return &ProfileService{profiles: profiles, guard: guard, errorHandler: errorHandler}
}

func (s *ProfileService) Mount(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Use(s.guard.Middleware)

		r.Get("/me", handler.Wrap(s.me,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		r.Put("/me", handler.Wrap(s.update,
			handler.WithBinders[handler.Context, profile.UpdateInput](binder.JSON()),
			handler.WithErrorHandler[handler.Context, profile.UpdateInput](s.errorHandler),
		))
		r.Delete("/me", handler.Wrap(s.delete,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		r.Get("/search/query", handler.Wrap(s.search,
			handler.WithBinders[handler.Context, SearchRequest](binder.Query()),
			handler.WithErrorHandler[handler.Context, SearchRequest](s.errorHandler),
		))
		r.Get("/{id}", handler.Wrap(s.view,
			handler.WithBinders[handler.Context, ViewRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, ViewRequest](s.errorHandler),
		))
	})
}

// currentUser returns the user the guard stored; routes are only reachable
// behind the guard, so a miss means the wiring is broken.
func currentUser(ctx handler.Context) (*auth.User, error) {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, handler.NewHTTPError(http.StatusUnauthorized, "invalid_token", "Invalid or expired token", auth.ErrInvalidToken)
	}
	return user, nil
}

func (s *ProfileService) me(ctx handler.Context, _ struct{}) handler.Response {
	user, err := currentUser(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(user.Profile())
}

func (s *ProfileService) update(ctx handler.Context, req profile.UpdateInput) handler.Response {
	user, err := currentUser(ctx)
	if err != nil {
		return handler.Error(err)
	}
	updated, err := s.profiles.Update(ctx, user, req)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(updated.Profile())
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

func (s *ProfileService) delete(ctx handler.Context, _ struct{}) handler.Response {
	user, err := currentUser(ctx)
	if err != nil {
		return handler.Error(err)
	}
	if err := s.profiles.Delete(ctx, user.ID); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(MessageResponse{Message: "Account deleted successfully"})
}

type SearchRequest struct {
	Query string `query:"q"`
}

// SearchResponse lists matching public profiles.
type SearchResponse struct {
	Results []auth.PublicProfile `json:"results"`
	Count   int                  `json:"count"`
}

func (s *ProfileService) search(ctx handler.Context, req SearchRequest) handler.Response {
	user, err := currentUser(ctx)
	if err != nil {
		return handler.Error(err)
	}
	results, err := s.profiles.Search(ctx, user.ID, req.Query)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(SearchResponse{Results: results, Count: len(results)})
}

type ViewRequest struct {
	ID string `path:"id"`
}

func (s *ProfileService) view(ctx handler.Context, req ViewRequest) handler.Response {
	view, err := s.profiles.PublicView(ctx, req.ID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(view)
}
