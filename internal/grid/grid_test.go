package grid

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/luki/heatmap/internal/sensor"
)

var utc = Options{Locale: "en", Location: time.UTC}

func hourAt(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC)
}

func TestAccumulatorScenario(t *testing.T) {
	samples := []sensor.Sample{
		sensor.SumAt(hourAt(1, 0), 10),
		sensor.SumAt(hourAt(1, 1), 15),
		sensor.SumAt(hourAt(1, 2), 15),
	}
	rows, err := Build(samples, sensor.Accumulator, utc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	vals := rows[0].Values
	if len(vals) != 3 {
		t.Fatalf("row should be truncated after hour 2, got %d cells", len(vals))
	}
	if vals[0].Valid {
		t.Errorf("hour 0 is the baseline and should be empty, got %+v", vals[0])
	}
	if !vals[1].Valid || vals[1].Value != 5 {
		t.Errorf("hour 1: got %+v, want 5", vals[1])
	}
	if !vals[2].Valid || vals[2].Value != 0 {
		t.Errorf("hour 2: got %+v, want 0", vals[2])
	}
	if rows[0].Label != "Jan 01" {
		t.Errorf("label: got %q, want Jan 01", rows[0].Label)
	}
}

func TestAccumulatorDeltas(t *testing.T) {
	// Baseline at 23:00 the day before, like the fetch window.
	start := time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)
	var samples []sensor.Sample
	sum := 1000.0
	for i := 0; i < 40; i++ {
		sum += float64(i%7) * 0.337
		samples = append(samples, sensor.SumAt(start.Add(time.Duration(i)*time.Hour), sum))
	}

	rows, err := Build(samples, sensor.Accumulator, utc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].Date.After(rows[1].Date) {
		t.Errorf("rows[0] should be the latest day: %v vs %v", rows[0].Date, rows[1].Date)
	}

	// Day 1 is full, day 2 ends at the last reported hour (14:00).
	if len(rows[1].Values) != HoursPerDay {
		t.Errorf("first day: got %d cells, want %d", len(rows[1].Values), HoursPerDay)
	}
	if len(rows[0].Values) != 15 {
		t.Errorf("last day: got %d cells, want 15", len(rows[0].Values))
	}

	for i := 1; i < len(samples); i++ {
		ts := samples[i].Start
		row := rows[1]
		if ts.Day() == 2 {
			row = rows[0]
		}
		want := math.Round((samples[i].Sum-samples[i-1].Sum)*100) / 100
		got := row.Values[ts.Hour()]
		if !got.Valid || got.Value != want {
			t.Errorf("%s: got %+v, want %.2f", ts.Format(time.RFC3339), got, want)
		}
	}
}

func TestAccumulatorGapIsZero(t *testing.T) {
	samples := []sensor.Sample{
		sensor.SumAt(hourAt(1, 23), 1),
		sensor.SumAt(hourAt(2, 0), 2),
		sensor.SumAt(hourAt(2, 5), 4.5),
	}
	rows, err := Build(samples, sensor.Accumulator, utc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	for h := 1; h < 5; h++ {
		if c := rows[0].Values[h]; !c.Valid || c.Value != 0 {
			t.Errorf("hour %d: got %+v, want 0", h, c)
		}
	}
	if c := rows[0].Values[5]; c.Value != 2.5 {
		t.Errorf("hour 5: got %+v, want 2.5", c)
	}
}

func TestAccumulatorEdgeCases(t *testing.T) {
	rows, err := Build(nil, sensor.Accumulator, utc)
	if err != nil || len(rows) != 0 {
		t.Errorf("empty input: got %d rows, err %v", len(rows), err)
	}

	rows, err = Build([]sensor.Sample{sensor.SumAt(hourAt(1, 3), 7)}, sensor.Accumulator, utc)
	if err != nil || len(rows) != 0 {
		t.Errorf("single baseline: got %d rows, err %v", len(rows), err)
	}
}

func TestMeasurementTwoDaysWithGap(t *testing.T) {
	samples := []sensor.Sample{
		sensor.MeanAt(hourAt(1, 0), 20.5),
		sensor.MeanAt(hourAt(1, 1), 21),
		sensor.MeanAt(hourAt(1, 4), 22),
		sensor.MeanAt(hourAt(2, 0), 19),
		sensor.MeanAt(hourAt(2, 23), 18),
	}
	rows, err := Build(samples, sensor.Measurement, utc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Label != "Jan 02" || rows[1].Label != "Jan 01" {
		t.Errorf("order: got %q, %q", rows[0].Label, rows[1].Label)
	}

	seen := map[string]map[int]bool{}
	for _, s := range samples {
		lbl := s.Start.Format("Jan 02")
		if seen[lbl] == nil {
			seen[lbl] = map[int]bool{}
		}
		seen[lbl][s.Start.Hour()] = true
	}
	for _, row := range rows {
		if len(row.Values) != HoursPerDay {
			t.Errorf("%s: got %d cells, want %d", row.Label, len(row.Values), HoursPerDay)
		}
		for h, c := range row.Values {
			if c.Valid != seen[row.Label][h] {
				t.Errorf("%s hour %d: valid=%v, want %v", row.Label, h, c.Valid, seen[row.Label][h])
			}
			if !c.Valid && c.Value != 0 {
				t.Errorf("%s hour %d: empty cell carries value %f", row.Label, h, c.Value)
			}
		}
	}
	if rows[1].Values[4].Value != 22 {
		t.Errorf("Jan 01 hour 4: got %f, want 22", rows[1].Values[4].Value)
	}
}

func TestMeasurementStartsMidDay(t *testing.T) {
	samples := []sensor.Sample{
		sensor.MeanAt(hourAt(3, 14), 1),
		sensor.MeanAt(hourAt(3, 15), 2),
	}
	rows, err := Build(samples, sensor.Measurement, utc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(rows) != 1 || !rows[0].Values[14].Valid || !rows[0].Values[15].Valid {
		t.Errorf("mid-day start lost data: %+v", rows)
	}
}

func TestMeasurementLocalHours(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	samples := []sensor.Sample{sensor.MeanAt(time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC), 5)}
	rows, err := Build(samples, sensor.Measurement, Options{Location: loc})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rows[0].Label != "Jan 02" || !rows[0].Values[0].Valid {
		t.Errorf("expected local midnight of Jan 02, got %q %+v", rows[0].Label, rows[0].Values[0])
	}
}

func TestUnknownMode(t *testing.T) {
	_, err := Build([]sensor.Sample{sensor.MeanAt(hourAt(1, 0), 1)}, sensor.Mode(0), utc)
	if !errors.Is(err, sensor.ErrUnknownMode) {
		t.Errorf("got %v, want ErrUnknownMode", err)
	}
}

func TestDateLabel(t *testing.T) {
	ts := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		locale string
		want   string
	}{
		{"en", "Mar 07"},
		{"en-GB", "Mar 07"},
		{"", "Mar 07"},
		{"sv-SE", "07 mars"},
		{"de", "07. März"},
		{"fr", "07 mars"},
		{"not a locale", "Mar 07"},
	}
	for _, tt := range tests {
		if got := DateLabel(ts, tt.locale); got != tt.want {
			t.Errorf("DateLabel(%q) = %q, want %q", tt.locale, got, tt.want)
		}
	}
}

func TestHourHeaders(t *testing.T) {
	h24 := HourHeaders("24")
	if len(h24) != 24 || h24[0] != "00" || h24[13] != "13" {
		t.Errorf("24h headers: got %v", h24)
	}
	h12 := HourHeaders("12")
	want := map[int]string{0: "12 AM", 1: "1 AM", 11: "11 AM", 12: "12 PM", 13: "1 PM", 23: "11 PM"}
	for h, w := range want {
		if h12[h] != w {
			t.Errorf("12h header %d: got %q, want %q", h, h12[h], w)
		}
	}
}
