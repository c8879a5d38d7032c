package clientip

import (
	"context"
	"log/slog"

	"github.com/otherus/otherus/pkg/logger"
)

type contextKey struct{}

func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

// LogExtractor adds client_ip to records logged with a request context.
func LogExtractor(ctx context.Context) (slog.Attr, bool) {
	ip := FromContext(ctx)
	if ip == "" {
		return slog.Attr{}, false
	}
	return logger.ClientIP(ip), true
}
