package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/luki/heatmap/internal/heatmap"
	"github.com/luki/heatmap/internal/viewer"
)

func newViewCommand(a *app) *cobra.Command {
	var refresh time.Duration

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse the heatmap in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			src, err := openSource(cfg.Source)
			if err != nil {
				return err
			}
			defer src.Close()

			// Overrides on the command line would be lost on reload.
			watch := a.configPath
			if a.entity != "" || a.days > 0 {
				watch = ""
			}
			return viewer.Run(cmd.Context(), heatmap.NewCard(cfg), src, watch, refresh)
		},
	}
	cmd.Flags().DurationVar(&refresh, "refresh", 5*time.Minute, "refetch interval, 0 to disable")
	return cmd
}
