package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/otherus/otherus/internal/app"
	"github.com/otherus/otherus/pkg/clientip"
	"github.com/otherus/otherus/pkg/logger"
	"github.com/otherus/otherus/pkg/requestid"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "otherus",
		Short:        "Other Us account and profile API",
		SilenceUsage: true,
		Version:      version,
	}
	root.SetVersionTemplate(fmt.Sprintf("otherus version %s\n", version))

	root.AddCommand(newServeCmd())
	root.AddCommand(newReconcileCmd())
	return root
}

func newLogger(cfg app.Config) *slog.Logger {
	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithContextExtractors(requestid.LogExtractor, clientip.LogExtractor),
	)
	logger.SetAsDefault(log)
	return log
}
