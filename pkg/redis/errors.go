package redis

import "errors"

// Connection errors. Callers match them with errors.Is; the underlying
// go-redis error is joined in where one exists.
var (
	ErrEmptyConnectionURL           = errors.New("redis: REDIS_URL is empty")
	ErrFailedToParseRedisConnString = errors.New("redis: invalid connection URL")
	ErrRedisNotReady                = errors.New("redis: server not ready before timeout")
	ErrHealthcheckFailed            = errors.New("redis: ping failed")
)
