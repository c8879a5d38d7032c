// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
//
//   - LoadEnv reads one or more .env files into the process environment.
//   - Load parses the environment into any struct annotated with `env` tags.
//   - Every successfully parsed type is cached, so the parsing work happens
//     once per process no matter how many components ask for it.
//
// Each package in this module owns its configuration struct (redis.Config,
// jwt.Config, httpserver.Config, ...) and the command wiring calls Load for
// each of them:
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// A failed parse is not cached, so the next call retries. Use ResetCache in
// tests that change the environment between loads.
//
// Sentinel errors (ErrParsingConfig, ErrLoadingEnvFile, ErrNilPointer,
// ErrConfigNotLoaded) can be matched with errors.Is.
package config
