package redis

import (
	"errors"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the connection settings.
// URL accepts either a full redis:// or rediss:// URL or a bare host, optionally with a port.
type Config struct {
	URL            string        `env:"REDIS_URL" envDefault:"localhost"`
	Username       string        `env:"REDIS_USERNAME"`
	Password       string        `env:"REDIS_PASSWORD"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

const defaultPort = "6379"

// Options converts the config into go-redis client options.
// Explicit Username and Password override credentials embedded in the URL.
func (c Config) Options() (*redis.Options, error) {
	raw := strings.TrimSpace(c.URL)
	if raw == "" {
		return nil, ErrEmptyConnectionURL
	}

	var opts *redis.Options
	if strings.Contains(raw, "://") {
		parsed, err := redis.ParseURL(raw)
		if err != nil {
			return nil, errors.Join(ErrFailedToParseRedisConnString, err)
		}
		opts = parsed
	} else {
		addr := raw
		if _, _, err := net.SplitHostPort(raw); err != nil {
			addr = net.JoinHostPort(raw, defaultPort)
		}
		opts = &redis.Options{Addr: addr}
	}

	if c.Username != "" {
		opts.Username = c.Username
	}
	if c.Password != "" {
		opts.Password = c.Password
	}
	return opts, nil
}
