package main

import (
	"github.com/spf13/cobra"

	"github.com/otherus/otherus/internal/app"
	"github.com/otherus/otherus/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with scheduled index reconciliation",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := app.LoadSettings()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	log := newLogger(settings.App)

	a, err := app.New(ctx, settings, log)
	if err != nil {
		log.ErrorContext(ctx, "startup failed", logger.Error(err))
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.ErrorContext(ctx, "closing store", logger.Error(err))
		}
	}()

	return a.Run(ctx)
}
