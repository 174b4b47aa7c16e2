package history

import (
	"testing"
	"time"

	"github.com/luki/heatmap/internal/sensor"
)

func TestRollupMeasurement(t *testing.T) {
	r := NewRollup(time.UTC)
	base := time.Date(2026, 2, 21, 14, 0, 0, 0, time.UTC)

	for i := 0; i < 120; i++ {
		r.Push(float64(30+i%10), base.Add(time.Duration(i)*time.Minute))
	}

	if r.Len() != 2 {
		t.Fatalf("expected 2 hours, got %d", r.Len())
	}
	if r.Min != 30.0 {
		t.Errorf("Min: got %f, want 30.0", r.Min)
	}
	if r.Peak != 39.0 {
		t.Errorf("Peak: got %f, want 39.0", r.Peak)
	}

	samples := r.Samples(sensor.Measurement)
	if len(samples) != 2 {
		t.Fatalf("Samples: got %d, want 2", len(samples))
	}
	if !samples[0].Start.Equal(base) || !samples[1].Start.Equal(base.Add(time.Hour)) {
		t.Errorf("bucket starts: got %v, %v", samples[0].Start, samples[1].Start)
	}
	for _, s := range samples {
		if !s.HasMean || s.Mean != 34.5 {
			t.Errorf("%v: mean %f, want 34.5", s.Start, s.Mean)
		}
	}
}

func TestRollupAccumulatorUsesLastReading(t *testing.T) {
	r := NewRollup(time.UTC)
	base := time.Date(2026, 2, 21, 8, 0, 0, 0, time.UTC)

	// Out of order within the hour: the latest timestamp wins.
	r.Push(100.4, base.Add(50*time.Minute))
	r.Push(100.0, base.Add(5*time.Minute))
	r.Push(101.2, base.Add(70*time.Minute))

	samples := r.Samples(sensor.Accumulator)
	if len(samples) != 2 {
		t.Fatalf("Samples: got %d, want 2", len(samples))
	}
	if !samples[0].HasSum || samples[0].Sum != 100.4 {
		t.Errorf("hour 8: got %+v, want sum 100.4", samples[0])
	}
	if samples[1].Sum != 101.2 {
		t.Errorf("hour 9: got %+v, want sum 101.2", samples[1])
	}
}

func TestRollupAlignsToLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	r := NewRollup(loc)
	r.Push(1, time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC))

	b := r.Buckets()[0]
	want := time.Date(2026, 1, 1, 5, 0, 0, 0, loc)
	if !b.Start.Equal(want) {
		t.Errorf("bucket start: got %v, want %v", b.Start, want)
	}
}
