package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/otherus/otherus/pkg/auth"
	"github.com/otherus/otherus/pkg/logger"
	"github.com/otherus/otherus/pkg/ratelimiter"
	"github.com/otherus/otherus/pkg/redis"
	"github.com/otherus/otherus/pkg/userstore"
	"github.com/otherus/otherus/svc/profile"
)

// Store is everything the services need from persistence.
type Store interface {
	auth.UserStorage
	auth.StateStorage
	profile.Store
	Reconciler
}

// Reconciler repairs the store's secondary indexes.
type Reconciler interface {
	Reconcile(ctx context.Context, grace time.Duration) (userstore.ReconcileReport, error)
}

// Backend is an open store plus the rate limit buckets, health probes and
// cleanup that share its driver.
type Backend struct {
	Store
	Limits ratelimiter.Store
	Checks []func(context.Context) error
	close  func() error
}

// OpenStore connects the configured driver. The memory driver keeps data
// for the life of the process only.
func OpenStore(ctx context.Context, cfg Config, redisCfg redis.Config, log *slog.Logger) (*Backend, error) {
	storeLog := log.With(logger.Component("userstore"))

	switch strings.ToLower(strings.TrimSpace(cfg.StoreDriver)) {
	case DriverRedis:
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return &Backend{
			Store:  userstore.NewRedisStore(client, userstore.WithLogger(storeLog)),
			Limits: ratelimiter.NewRedisStore(client),
			Checks: []func(context.Context) error{redis.Healthcheck(client)},
			close:  client.Close,
		}, nil
	case DriverMemory:
		log.WarnContext(ctx, "using in-memory user store; data is lost on restart")
		limits := ratelimiter.NewMemoryStore()
		return &Backend{
			Store:  userstore.NewMemoryStore(userstore.WithLogger(storeLog)),
			Limits: limits,
			close: func() error {
				limits.Close()
				return nil
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStoreDriver, cfg.StoreDriver)
	}
}

// Close releases the driver connection.
func (b *Backend) Close() error {
	return b.close()
}
