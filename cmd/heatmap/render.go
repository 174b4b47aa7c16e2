package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/luki/heatmap/internal/chart"
	"github.com/luki/heatmap/internal/heatmap"
)

func newRenderCommand(a *app) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the heatmap once and exit",
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

			card := heatmap.NewCard(cfg)
			res, err := card.Refresh(cmd.Context(), src, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, card.Title())
			fmt.Fprintln(out, chart.RenderGrid(res, cfg.Display.TimeFormat, chart.NoCursor))
			if cfg.Display.Legend {
				fmt.Fprintln(out)
				fmt.Fprintln(out, chart.RenderLegend(res, width))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "legend-width", 57, "width of the legend bar")
	return cmd
}
