package main

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/recipeapp/recipe-server/internal/config"
	"github.com/recipeapp/recipe-server/internal/di/providers"
	"github.com/recipeapp/recipe-server/internal/logger"
)

func newWaitForDBCmd(g *globalFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "wait-for-db",
		Short: "Block until the database accepts connections",
		Long: `Poll the configured database once per second until it answers.

Examples:
  recipectl wait-for-db                  # wait up to the configured DB_WAIT_TIMEOUT
  recipectl wait-for-db --timeout 2m     # wait up to two minutes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			injector := g.container()
			defer injector.Shutdown()

			cfg, err := do.Invoke[*config.Config](injector)
			if err != nil {
				return err
			}
			log := do.MustInvoke[*logger.Logger](injector)

			if timeout <= 0 {
				timeout = cfg.Database.WaitTimeout
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := providers.WaitForDatabase(ctx, cfg, log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database available")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Maximum time to wait (default: DB_WAIT_TIMEOUT)")
	return cmd
}
