package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luki/heatmap/internal/config"
	"github.com/luki/heatmap/internal/log"
)

// app holds the flags shared by every subcommand.
type app struct {
	configPath string
	debug      bool
	entity     string
	days       int
}

// loadConfig reads the configuration file and applies command line
// overrides.
func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.LoadFrom(a.configPath)
	if err != nil {
		return cfg, err
	}
	if a.entity != "" {
		cfg.Entity = a.entity
	}
	if a.days > 0 {
		cfg.Days = a.days
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "heatmap",
		Short:         "heatmap draws hour-by-day heatmaps of sensor statistics.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return log.Init(a.debug)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			log.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", config.ConfigPath(), "path to the settings file")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&a.entity, "entity", "e", "", "entity id, overrides the settings file")
	root.PersistentFlags().IntVarP(&a.days, "days", "d", 0, "number of days to show, overrides the settings file")

	root.AddCommand(
		newViewCommand(a),
		newRenderCommand(a),
		newServeCommand(a),
		newImportCommand(a),
		newPalettesCommand(a),
		newInitCommand(a),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
