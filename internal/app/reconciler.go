package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/otherus/otherus/pkg/logger"
)

// ValidateSchedule accepts standard five-field cron expressions, descriptors
// such as "@every 1h", and the empty string.
func ValidateSchedule(schedule string) error {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	return nil
}

// RunReconciler runs r on schedule until ctx is done. An empty schedule
// disables the job. A run still in progress when the next tick fires is
// not overlapped.
func RunReconciler(ctx context.Context, r Reconciler, schedule string, grace time.Duration, log *slog.Logger) error {
	log = log.With(logger.Component("reconciler"))

	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		log.InfoContext(ctx, "scheduled reconciliation disabled")
		<-ctx.Done()
		return nil
	}

	cl := cronLogger{log: log}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := c.AddFunc(schedule, func() { reconcileOnce(ctx, r, grace, log) }); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}

	c.Start()
	log.InfoContext(ctx, "scheduled reconciliation started", slog.String("schedule", schedule))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func reconcileOnce(ctx context.Context, r Reconciler, grace time.Duration, log *slog.Logger) {
	start := time.Now()
	report, err := r.Reconcile(ctx, grace)
	if err != nil {
		if ctx.Err() == nil {
			log.ErrorContext(ctx, "reconciliation failed", logger.Error(err))
		}
		return
	}
	log.InfoContext(ctx, "reconciliation finished",
		logger.Count(report.Total()), logger.Duration(time.Since(start)))
}

// cronLogger adapts slog to cron's logr-style interface.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append([]any{logger.Error(err)}, keysAndValues...)...)
}
