// Package grid buckets hourly sensor statistics into day rows of 24 hourly
// cells, most recent day first.
package grid

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/luki/heatmap/internal/sensor"
)

// HoursPerDay is the number of cells in a full row.
const HoursPerDay = 24

// Cell is one hour of a row. Valid is false when the hour has no data.
type Cell struct {
	Value float64
	Valid bool
}

// Row is one calendar day of cells.
type Row struct {
	Label  string    // localized date, e.g. "Jan 02"
	Date   time.Time // local midnight of the day
	Values []Cell    // at most HoursPerDay cells, indexed by local hour
}

// Options control how sample times are interpreted.
type Options struct {
	Locale   string         // resolved locale identifier, e.g. "en" or "sv-SE"
	Location *time.Location // time zone for day boundaries, defaults to time.Local
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// Build converts an ascending-time series of samples into rows. The returned
// rows are in reverse-chronological order.
func Build(samples []sensor.Sample, mode sensor.Mode, opts Options) ([]Row, error) {
	var rows []Row
	switch mode {
	case sensor.Measurement:
		rows = buildMeasurement(samples, opts)
	case sensor.Accumulator:
		rows = buildAccumulator(samples, opts)
	default:
		return nil, fmt.Errorf("grid: %w: %v", sensor.ErrUnknownMode, mode)
	}
	slices.Reverse(rows)
	return rows, nil
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}

func newRow(t time.Time, locale string, fill Cell) Row {
	values := make([]Cell, HoursPerDay)
	for i := range values {
		values[i] = fill
	}
	y, m, d := t.Date()
	return Row{
		Label:  DateLabel(t, locale),
		Date:   time.Date(y, m, d, 0, 0, 0, 0, t.Location()),
		Values: values,
	}
}

// buildMeasurement places each sample's mean at its local hour. Hours that
// are not reported stay invalid.
func buildMeasurement(samples []sensor.Sample, opts Options) []Row {
	loc := opts.location()
	var rows []Row
	var cur dayKey
	for _, s := range samples {
		t := s.Start.In(loc)
		if k := keyOf(t); len(rows) == 0 || k != cur {
			rows = append(rows, newRow(t, opts.Locale, Cell{}))
			cur = k
		}
		if s.HasMean {
			rows[len(rows)-1].Values[t.Hour()] = Cell{Value: s.Mean, Valid: true}
		}
	}
	return rows
}

// buildAccumulator turns running totals into per-hour deltas. The first
// sample is only a baseline. New rows start at zero for every hour, except
// the hours up to and including the baseline on the baseline's own day,
// which have no predecessor. The last row ends at the last reported hour.
func buildAccumulator(samples []sensor.Sample, opts Options) []Row {
	loc := opts.location()
	var (
		rows         []Row
		cur          dayKey
		prev         float64
		havePrev     bool
		baseline     dayKey
		baselineHour int
		lastHour     int
	)
	for _, s := range samples {
		if !s.HasSum {
			continue
		}
		t := s.Start.In(loc)
		k := keyOf(t)
		if !havePrev {
			prev, havePrev = s.Sum, true
			baseline, baselineHour = k, t.Hour()
			continue
		}
		if len(rows) == 0 || k != cur {
			row := newRow(t, opts.Locale, Cell{Valid: true})
			if k == baseline {
				for h := 0; h <= baselineHour; h++ {
					row.Values[h] = Cell{}
				}
			}
			rows = append(rows, row)
			cur = k
		}
		lastHour = t.Hour()
		rows[len(rows)-1].Values[lastHour] = Cell{Value: round2(s.Sum - prev), Valid: true}
		prev = s.Sum
	}
	if n := len(rows); n > 0 {
		rows[n-1].Values = rows[n-1].Values[:lastHour+1]
	}
	return rows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
