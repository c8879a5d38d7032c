package ratelimiter

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/otherus/otherus/pkg/logger"
)

// KeyFunc picks the bucket for a request. An empty key is not limited.
type KeyFunc func(r *http.Request) string

// ErrorHandler writes the response for a refused request. err wraps
// ErrRateLimited.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middlewareOptions struct {
	onLimit ErrorHandler
	logger  *slog.Logger
	now     func() time.Time
	prefix  string
}

type MiddlewareOption func(*middlewareOptions)

func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(o *middlewareOptions) {
		if h != nil {
			o.onLimit = h
		}
	}
}

func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(o *middlewareOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithKeyPrefix namespaces keys so several limiters can share a store.
func WithKeyPrefix(prefix string) MiddlewareOption {
	return func(o *middlewareOptions) { o.prefix = prefix }
}

func WithClock(now func() time.Time) MiddlewareOption {
	return func(o *middlewareOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// Middleware takes one token per request and refuses requests once the
// bucket is empty. Store failures are logged and the request is let
// through, so a limiter outage never locks users out.
func Middleware(b *Bucket, key KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	o := &middlewareOptions{
		onLimit: defaultErrorHandler,
		logger:  logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := b.Allow(r.Context(), o.prefix+k)
			if err != nil {
				o.logger.ErrorContext(r.Context(), "rate limit check failed", logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				retry := res.RetryAfter(o.now())
				h.Set("Retry-After", strconv.Itoa(int(retry/time.Second)))
				o.logger.WarnContext(r.Context(), "rate limit exceeded", slog.String("key", o.prefix+k))
				o.onLimit(w, r, fmt.Errorf("%w: retry in %s", ErrRateLimited, retry))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, _ error) {
	http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}
