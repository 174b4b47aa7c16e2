// Package heatmap turns a sensor's hourly statistics into a day-by-hour
// grid, a color scale and a legend.
package heatmap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/luki/heatmap/internal/grid"
	"github.com/luki/heatmap/internal/legend"
	"github.com/luki/heatmap/internal/palette"
	"github.com/luki/heatmap/internal/sensor"
	"github.com/luki/heatmap/internal/valuerange"
)

// Input is everything one render cycle depends on.
type Input struct {
	Samples    []sensor.Sample
	Mode       sensor.Mode
	Scale      palette.Ref
	Min, Max   valuerange.Bound
	UnitSystem string // temperature unit of the consumer, e.g. "°F"
	Locale     string
	Location   *time.Location
}

// Result is the output of Assemble. It is not modified after construction.
type Result struct {
	Rows   []grid.Row
	Scale  *palette.Scale
	Range  valuerange.Range
	Legend []legend.Tick
}

// Assemble builds the grid, resolves the range from it, builds the scale
// and places the legend ticks.
func Assemble(in Input) (*Result, error) {
	rows, err := grid.Build(in.Samples, in.Mode, grid.Options{Locale: in.Locale, Location: in.Location})
	if err != nil {
		return nil, err
	}

	rng, err := valuerange.Resolve(in.Min, in.Max, rows)
	if err != nil {
		return nil, err
	}

	def, err := in.Scale.Resolve()
	if err != nil {
		return nil, err
	}
	scale, err := palette.Build(def, in.UnitSystem)
	if err != nil {
		return nil, err
	}

	return &Result{
		Rows:   rows,
		Scale:  scale,
		Range:  rng,
		Legend: legend.Ticks(scale, rng),
	}, nil
}

// Color returns the color of a cell, or false for a cell without data.
// Relative scales are sampled at the cell's normalized position, absolute
// scales at its raw value.
func (r *Result) Color(c grid.Cell) (string, bool) {
	if !c.Valid {
		return "", false
	}
	if r.Scale.Type == palette.Relative {
		return r.Scale.Sample(r.Range.Normalize(c.Value)), true
	}
	return r.Scale.Sample(c.Value), true
}

type sampleKey struct {
	Start   int64
	Mean    float64
	Sum     float64
	HasMean bool
	HasSum  bool
}

type inputKey struct {
	Samples    []sampleKey
	Mode       int
	ScaleName  string
	Scale      *palette.Definition
	Min, Max   string
	UnitSystem string
	Locale     string
	Location   string
}

// Fingerprint identifies an Input. Equal fingerprints assemble to equal
// results.
func Fingerprint(in Input) (string, error) {
	key := inputKey{
		Samples:    make([]sampleKey, len(in.Samples)),
		Mode:       int(in.Mode),
		ScaleName:  in.Scale.Name,
		Scale:      in.Scale.Custom,
		Min:        in.Min.String(),
		Max:        in.Max.String(),
		UnitSystem: in.UnitSystem,
		Locale:     in.Locale,
	}
	if in.Location != nil {
		key.Location = in.Location.String()
	}
	for i, s := range in.Samples {
		key.Samples[i] = sampleKey{s.Start.UnixNano(), s.Mean, s.Sum, s.HasMean, s.HasSum}
	}

	data, err := msgpack.Marshal(&key)
	if err != nil {
		return "", fmt.Errorf("encoding fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
