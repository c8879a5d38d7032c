package app

import (
	"errors"
	"time"

	"github.com/otherus/otherus/modules/account"
	"github.com/otherus/otherus/pkg/auth"
	"github.com/otherus/otherus/pkg/config"
	"github.com/otherus/otherus/pkg/httpserver"
	"github.com/otherus/otherus/pkg/jwt"
	"github.com/otherus/otherus/pkg/ratelimiter"
	"github.com/otherus/otherus/pkg/redis"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds process-level settings.
type Config struct {
	Env               string        `env:"APP_ENV" envDefault:"development"`
	Name              string        `env:"APP_NAME" envDefault:"Other Us API"`
	StoreDriver       string        `env:"STORE_DRIVER" envDefault:"redis"`
	ReconcileSchedule string        `env:"RECONCILE_SCHEDULE" envDefault:"@every 1h"`
	ReconcileGrace    time.Duration `env:"RECONCILE_GRACE" envDefault:"1m"`
}

// Settings groups the configuration of every component the server wires.
type Settings struct {
	App       Config
	HTTP      httpserver.Config
	Redis     redis.Config
	JWT       jwt.Config
	Account   account.Config
	Google    auth.GoogleOAuthConfig
	GitHub    auth.GitHubOAuthConfig
	RateLimit ratelimiter.Config
}

// LoadSettings reads every component config from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	err := errors.Join(
		config.Load(&s.App),
		config.Load(&s.HTTP),
		config.Load(&s.Redis),
		config.Load(&s.JWT),
		config.Load(&s.Account),
		config.Load(&s.Google),
		config.Load(&s.GitHub),
		config.Load(&s.RateLimit),
	)
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}
