package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/otherus/otherus/handler"
	"github.com/otherus/otherus/modules/account"
	"github.com/otherus/otherus/pkg/auth"
	"github.com/otherus/otherus/pkg/clientip"
	"github.com/otherus/otherus/pkg/httpserver"
	"github.com/otherus/otherus/pkg/jwt"
	"github.com/otherus/otherus/pkg/logger"
	"github.com/otherus/otherus/pkg/ratelimiter"
	"github.com/otherus/otherus/svc/profile"
)

// App is a fully wired API server.
type App struct {
	settings Settings
	log      *slog.Logger
	backend  *Backend
	handler  http.Handler
}

// New opens the store and wires every service. Call Close when done.
func New(ctx context.Context, s Settings, log *slog.Logger) (*App, error) {
	if log == nil {
		log = logger.Discard()
	}

	if err := ValidateSchedule(s.App.ReconcileSchedule); err != nil {
		return nil, err
	}

	backend, err := OpenStore(ctx, s.App, s.Redis, log)
	if err != nil {
		return nil, err
	}

	h, err := buildHandler(s, backend, log)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	return &App{settings: s, log: log, backend: backend, handler: h}, nil
}

func buildHandler(s Settings, backend *Backend, log *slog.Logger) (http.Handler, error) {
	tokens, err := jwt.NewFromConfig(s.JWT)
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}

	providers := auth.NewProviders(oauthAdapters(s, log)...)
	authLog := log.With(logger.Component("auth"))

	authSvc := auth.NewService(backend, backend, tokens, providers,
		auth.WithLogger(authLog),
		auth.WithPasswordHasher(auth.NewPasswordHasher(auth.WithBcryptCost(s.Account.BcryptCost))),
		auth.WithMergeVerifiedOnly(s.Account.MergeVerifiedOnly),
	)

	errHandler := handler.NewErrorHandler(log.With(logger.Component("http")), account.ClassifyError)
	guard := auth.NewGuard(tokens, backend,
		auth.WithGuardErrorHandler(handler.HTTPErrorHandler(errHandler)),
		auth.WithGuardLogger(authLog),
	)
	profiles := profile.NewService(backend, profile.WithLogger(log.With(logger.Component("profile"))))

	var authLimits []func(http.Handler) http.Handler
	if s.RateLimit.Enabled() {
		bucket, err := ratelimiter.NewBucket(backend.Limits, s.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
		authLimits = append(authLimits, ratelimiter.Middleware(bucket, clientip.Key,
			ratelimiter.WithKeyPrefix("auth:"),
			ratelimiter.WithErrorHandler(handler.HTTPErrorHandler(errHandler)),
			ratelimiter.WithLogger(log.With(logger.Component("ratelimit"))),
		))
	}

	opts := account.RouterOptions{
		Password: account.NewPasswordService(authSvc, errHandler, authLimits...),
		Profile:  account.NewProfileService(profiles, guard, errHandler),
		Health:   httpserver.HealthHandler(s.App.Name, log, backend.Checks...),
	}
	if len(providers) > 0 {
		opts.OAuth = account.NewOAuthService(authSvc, s.Account.FrontendOrigin, errHandler)
		log.Info("oauth providers enabled", slog.Any("providers", providers.Names()))
	}

	return account.Router(opts), nil
}

func oauthAdapters(s Settings, log *slog.Logger) []auth.ProviderAdapter {
	opts := []auth.AdapterOption{auth.WithAdapterLogger(log.With(logger.Component("oauth")))}

	var adapters []auth.ProviderAdapter
	if s.Google.Enabled() {
		adapters = append(adapters, auth.NewGoogleAdapter(s.Google, opts...))
	}
	if s.GitHub.Enabled() {
		adapters = append(adapters, auth.NewGitHubAdapter(s.GitHub, opts...))
	}
	return adapters
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Store returns the user store the services share.
func (a *App) Store() Store {
	return a.backend
}

// Run serves HTTP and runs scheduled reconciliation until ctx is done or
// either of them fails.
func (a *App) Run(ctx context.Context) error {
	server := httpserver.NewFromConfig(a.settings.HTTP, httpserver.WithLogger(a.log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, a.handler)
	})
	g.Go(func() error {
		return RunReconciler(ctx, a.backend, a.settings.App.ReconcileSchedule, a.settings.App.ReconcileGrace, a.log)
	})
	return g.Wait()
}

// Close releases the store connection.
func (a *App) Close() error {
	return a.backend.Close()
}
