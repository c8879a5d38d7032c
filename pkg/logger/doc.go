// Package logger builds *slog.Logger instances for the API process.
//
// New applies functional options on top of JSON/info defaults and wraps the
// resulting handler so that registered ContextExtractor
// callbacks run on every record. The server registers extractors for the
// request id and client address so that every line logged during a
// request carries them.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.AppEnv, cfg.AppName),
//	    logger.WithContextExtractors(requestid.LogExtractor),
//	)
//	log.InfoContext(ctx, "user registered",
//	    logger.Component("auth"),
//	    logger.UserID(user.ID),
//	)
//
// Attribute helpers in attr.go keep key names consistent. Error, UserID and
// RequestID return an empty attribute for zero values, so callers do not need
// nil checks.
package logger
