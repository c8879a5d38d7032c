package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otherus/otherus/internal/app"
	"github.com/otherus/otherus/pkg/config"
	"github.com/otherus/otherus/pkg/redis"
)

var errNoGrace = errors.New("reconcile grace period must be positive")

func newReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair the email index and user directory once and print the report",
		Args:  cobra.NoArgs,
		RunE:  runReconcile,
	}
	cmd.Flags().Duration("grace", 0,
		"Wait this long before re-checking suspects and repairing them, so in-flight writes can finish (default RECONCILE_GRACE)")
	cmd.Flags().Bool("force", false, "Allow a zero grace period; only safe when nothing else writes to the store")
	return cmd
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	var (
		cfg      app.Config
		redisCfg redis.Config
	)
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if err := config.Load(&redisCfg); err != nil {
		return err
	}

	grace := cfg.ReconcileGrace
	if cmd.Flags().Changed("grace") {
		grace, _ = cmd.Flags().GetDuration("grace")
	}
	if force, _ := cmd.Flags().GetBool("force"); grace <= 0 && !force {
		return fmt.Errorf("%w: got %s, pass --force to repair without waiting", errNoGrace, grace)
	}

	ctx := cmd.Context()
	backend, err := app.OpenStore(ctx, cfg, redisCfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	report, err := backend.Reconcile(ctx, grace)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
