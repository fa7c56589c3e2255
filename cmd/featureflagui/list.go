package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/geekyind/FeatureFlagPracticeUI/flags/binding"
	"github.com/geekyind/FeatureFlagPracticeUI/ui"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every flag with its value after overrides and hydration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s := newStore(cfg, logger)

			h, err := newHydrator(cfg, s, logger)
			if err != nil {
				return err
			}
			if h != nil {
				ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
				h.Hydrate(ctx) // failures are logged; defaults are listed instead
				cancel()
			}

			acc, err := binding.New(s)
			if err != nil {
				return err
			}
			return ui.WriteTable(cmd.OutOrStdout(), ui.NewDashboard(acc).Rows())
		},
	}
}
