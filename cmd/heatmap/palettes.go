package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/luki/heatmap/internal/palette"
)

const swatchWidth = 32

func newPalettesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "palettes",
		Short: "List the built-in palettes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range palette.Names() {
				def, err := palette.Lookup(name)
				if err != nil {
					return err
				}
				scale, err := palette.Build(def, cfg.UnitSystem.Temperature)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-20s %-9s %s %s\n", name, scale.Type, swatch(scale), domainText(scale))
			}
			return nil
		},
	}
}

func swatch(s *palette.Scale) string {
	lo, hi := 0.0, 1.0
	if s.Type == palette.Absolute {
		lo, hi = s.Domain()
	}
	var sb strings.Builder
	for i := 0; i < swatchWidth; i++ {
		t := lo + (hi-lo)*float64(i)/float64(swatchWidth-1)
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(s.Sample(t))).Render("█"))
	}
	return sb.String()
}

func domainText(s *palette.Scale) string {
	if s.Type != palette.Absolute {
		return ""
	}
	lo, hi := s.Domain()
	return fmt.Sprintf("%g..%g %s", lo, hi, s.Unit)
}
