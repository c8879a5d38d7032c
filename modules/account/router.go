package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/otherus/otherus/pkg/clientip"
	"github.com/otherus/otherus/pkg/requestid"
)

// Mountable registers its routes on r.
type Mountable interface {
	Mount(r chi.Router)
}

// RouterOptions selects the services to serve. Nil entries are skipped, so
// a deployment without OAuth credentials simply has no OAuth routes.
type RouterOptions struct {
	Password Mountable
	OAuth    Mountable
	Profile  Mountable
	Health   http.Handler
}

// Router builds the API router with request ids, client addresses, panic
// recovery and permissive CORS for the desktop client.
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestid.Header},
		MaxAge:         300,
	}))

	for _, m := range []Mountable{opts.Password, opts.OAuth, opts.Profile} {
		if m != nil {
			m.Mount(r)
		}
	}
	if opts.Health != nil {
		r.Method(http.MethodGet, "/health", opts.Health)
	}

	return r
}
