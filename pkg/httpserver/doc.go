// Package httpserver runs the API's http.Server with configurable timeouts
// and graceful shutdown.
//
// Run blocks until the supplied context is cancelled, then calls
// http.Server.Shutdown bounded by the shutdown timeout. Signal handling is
// left to the caller, which usually derives ctx from signal.NotifyContext:
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    return err
//	}
//
// HealthHandler serves the JSON health probe and runs dependency checks such
// as redis.Healthcheck.
package httpserver
