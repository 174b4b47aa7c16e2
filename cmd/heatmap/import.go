package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/luki/heatmap/internal/history"
	"github.com/luki/heatmap/internal/log"
	"github.com/luki/heatmap/internal/sensor"
)

var readingLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04"}

func newImportCommand(a *app) *cobra.Command {
	var md sensor.Metadata

	cmd := &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Roll raw time,value readings up into hourly statistics",
		Long: "Reads a CSV file of time,value readings, aggregates them per hour and\n" +
			"stores the result in the configured source. Measurement sensors keep\n" +
			"the hourly mean, accumulators keep the last total of each hour.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			md.Entity = cfg.Entity
			if md.Entity == "" {
				return errors.New("no entity: pass --entity or set it in the settings file")
			}
			mode, err := md.Mode()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			loc := cfg.Location()
			rollup := history.NewRollup(loc)
			n, err := readReadings(f, loc, rollup.Push)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if n == 0 {
				return fmt.Errorf("%s: no readings", args[0])
			}

			src, err := openSource(cfg.Source)
			if err != nil {
				return err
			}
			defer src.Close()

			samples := rollup.Samples(mode)
			if err := src.Save(cmd.Context(), md, samples); err != nil {
				return err
			}
			log.Infow("imported readings", "entity", md.Entity, "readings", n, "hours", len(samples))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d readings into %d hours (min %.2f, peak %.2f)\n",
				md.Entity, n, len(samples), rollup.Min, rollup.Peak)
			return nil
		},
	}

	cmd.Flags().StringVar(&md.StateClass, "state-class", "measurement", "measurement, total or total_increasing")
	cmd.Flags().StringVar(&md.Unit, "unit", "", "unit of measurement")
	cmd.Flags().StringVar(&md.FriendlyName, "name", "", "friendly name")
	cmd.Flags().StringVar(&md.DeviceClass, "device-class", "", "device class, picks the default palette")
	return cmd
}

// readReadings parses time,value rows and feeds them to push. A leading
// header row is skipped.
func readReadings(r io.Reader, loc *time.Location, push func(float64, time.Time)) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	n := 0
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if len(row) < 2 {
			continue
		}
		t, err := parseTime(row[0], loc)
		if err != nil {
			if line == 1 {
				continue
			}
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		push(v, t)
		n++
	}
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range readingLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}
