// Package redis connects to the key-value store backing the user directory.
//
// Config is loaded from REDIS_URL, REDIS_USERNAME and REDIS_PASSWORD. REDIS_URL
// may be a bare host ("localhost", "cache:6380") or a full redis:// URL.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//	client, err := redis.Connect(ctx, cfg)
//
// Healthcheck returns a probe used by the /health endpoint.
package redis
