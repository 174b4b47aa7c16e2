// Package history rolls raw sensor readings up into hourly statistics,
// with min/peak tracking across the whole series.
package history

import (
	"math"
	"sort"
	"time"

	"github.com/luki/heatmap/internal/sensor"
)

// Bucket aggregates the readings of one hour.
type Bucket struct {
	Start time.Time
	Count int
	Total float64
	Last  float64 // latest reading in the hour
	last  time.Time
}

// Mean returns the average reading of the hour.
func (b Bucket) Mean() float64 {
	if b.Count == 0 {
		return 0
	}
	return b.Total / float64(b.Count)
}

// Rollup groups readings into hourly buckets in a time zone.
type Rollup struct {
	Min  float64
	Peak float64

	loc     *time.Location
	buckets map[int64]*Bucket
}

// NewRollup creates an empty rollup. Hours are aligned in loc.
func NewRollup(loc *time.Location) *Rollup {
	if loc == nil {
		loc = time.Local
	}
	return &Rollup{
		Min:     math.MaxFloat64,
		Peak:    -math.MaxFloat64,
		loc:     loc,
		buckets: make(map[int64]*Bucket),
	}
}

// Push adds a reading. Readings may arrive in any order.
func (r *Rollup) Push(value float64, t time.Time) {
	lt := t.In(r.loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), 0, 0, 0, r.loc)

	b, ok := r.buckets[start.Unix()]
	if !ok {
		b = &Bucket{Start: start}
		r.buckets[start.Unix()] = b
	}
	b.Count++
	b.Total += value
	if b.Count == 1 || !t.Before(b.last) {
		b.Last = value
		b.last = t
	}

	if value < r.Min {
		r.Min = value
	}
	if value > r.Peak {
		r.Peak = value
	}
}

// Len returns the number of hours seen.
func (r *Rollup) Len() int { return len(r.buckets) }

// Buckets returns the hourly buckets in ascending time order.
func (r *Rollup) Buckets() []Bucket {
	out := make([]Bucket, 0, len(r.buckets))
	for _, b := range r.buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Samples converts the buckets into hourly statistics. Measurements get
// the hour's mean, accumulators the last running total of the hour.
func (r *Rollup) Samples(mode sensor.Mode) []sensor.Sample {
	buckets := r.Buckets()
	samples := make([]sensor.Sample, len(buckets))
	for i, b := range buckets {
		if mode == sensor.Accumulator {
			samples[i] = sensor.SumAt(b.Start, b.Last)
		} else {
			samples[i] = sensor.MeanAt(b.Start, b.Mean())
		}
	}
	return samples
}
