package valuerange

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/luki/heatmap/internal/grid"
)

var (
	// ErrIndeterminate means an "auto" bound was requested but the grid has
	// no data to derive it from.
	ErrIndeterminate = errors.New("indeterminate range: no data in grid")
	// ErrInverted means the resolved minimum is above the maximum.
	ErrInverted = errors.New("range minimum above maximum")
)

// DefaultMin is used when no minimum is configured.
const DefaultMin = 0

// Range is a resolved value domain. Min <= Max always holds.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Span returns Max - Min.
func (r Range) Span() float64 { return r.Max - r.Min }

// Degenerate reports whether every value maps to the same point.
func (r Range) Degenerate() bool { return r.Max == r.Min }

// Normalize maps v onto [0,1], clamping values outside the range.
// A degenerate range maps everything to the middle.
func (r Range) Normalize(v float64) float64 {
	if r.Degenerate() {
		return 0.5
	}
	n := (v - r.Min) / r.Span()
	switch {
	case n < 0:
		return 0
	case n > 1:
		return 1
	}
	return n
}

// Resolve computes the effective range. Literal bounds are used as-is. An
// "auto" bound scans every valid cell. An unset minimum is DefaultMin and
// an unset maximum is resolved like "auto"; rejecting an unbounded maximum
// for accumulators is the configuration layer's job.
func Resolve(min, max Bound, rows []grid.Row) (Range, error) {
	values := Observed(rows)

	var r Range
	switch min.Kind() {
	case Fixed:
		r.Min = min.Value()
	case Auto:
		if len(values) == 0 {
			return Range{}, fmt.Errorf("min: %w", ErrIndeterminate)
		}
		r.Min = lo.Min(values)
	default:
		r.Min = DefaultMin
	}

	switch max.Kind() {
	case Fixed:
		r.Max = max.Value()
	default:
		if len(values) == 0 {
			return Range{}, fmt.Errorf("max: %w", ErrIndeterminate)
		}
		r.Max = lo.Max(values)
	}

	if r.Min > r.Max {
		return Range{}, fmt.Errorf("%w: %g > %g", ErrInverted, r.Min, r.Max)
	}
	return r, nil
}

// Observed returns every valid cell value across all rows.
func Observed(rows []grid.Row) []float64 {
	return lo.FlatMap(rows, func(row grid.Row, _ int) []float64 {
		return lo.FilterMap(row.Values, func(c grid.Cell, _ int) (float64, bool) {
			return c.Value, c.Valid
		})
	})
}
