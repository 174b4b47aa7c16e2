package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/luki/heatmap/internal/config"
	"github.com/luki/heatmap/internal/heatmap"
	"github.com/luki/heatmap/internal/palette"
	"github.com/luki/heatmap/internal/sensor"
	"github.com/luki/heatmap/internal/valuerange"
)

type fakeSource struct {
	meta    sensor.Metadata
	samples []sensor.Sample
	fetches int
}

func (f *fakeSource) Metadata(_ context.Context, entity string) (sensor.Metadata, error) {
	if entity != f.meta.Entity {
		return sensor.Metadata{}, fmt.Errorf("%w: %s", sensor.ErrNotFound, entity)
	}
	return f.meta, nil
}

func (f *fakeSource) Statistics(context.Context, string, time.Time) ([]sensor.Sample, error) {
	f.fetches++
	return f.samples, nil
}

func energySource() *fakeSource {
	base := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	return &fakeSource{
		meta: sensor.Metadata{Entity: "sensor.energy", FriendlyName: "Energy", Unit: "kWh", StateClass: "total_increasing", DeviceClass: "energy"},
		samples: []sensor.Sample{
			sensor.SumAt(base, 100),
			sensor.SumAt(base.Add(time.Hour), 101),
			sensor.SumAt(base.Add(2*time.Hour), 103.5),
			sensor.SumAt(base.Add(3*time.Hour), 103.5),
		},
	}
}

func energyConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Entity = "sensor.energy"
	cfg.Days = 1
	cfg.TimeZone = "UTC"
	cfg.Data.Max = valuerange.AutoBound()
	return cfg
}

func newTestServer(cfg config.Config, src *fakeSource) *Server {
	s := New(heatmap.NewCard(cfg), src)
	s.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGetHeatmapJSON(t *testing.T) {
	s := newTestServer(energyConfig(), energySource())
	rec := get(t, s, "/api/heatmap")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}

	var resp heatmapResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Title != "Energy" || resp.Unit != "kWh" {
		t.Errorf("title/unit: got %q %q", resp.Title, resp.Unit)
	}
	if len(resp.Rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(resp.Rows))
	}
	row := resp.Rows[0]
	if row.Date != "2026-03-02" || len(row.Values) != 3 {
		t.Fatalf("row: got %+v", row)
	}
	if row.Values[0] == nil || *row.Values[0] != 1 || *row.Values[1] != 2.5 || *row.Values[2] != 0 {
		t.Errorf("values: got %v", row.Values)
	}
	if resp.Min != 0 || resp.Max != 2.5 {
		t.Errorf("range: got %v..%v", resp.Min, resp.Max)
	}
	if len(resp.Legend) != 6 || len(resp.Hours) != 24 || resp.CSS == "" {
		t.Errorf("legend %d, hours %d, css %q", len(resp.Legend), len(resp.Hours), resp.CSS)
	}
	if row.Colors[1] == "" || row.Colors[1] == row.Colors[2] {
		t.Errorf("colors: got %v", row.Colors)
	}
}

func TestGetHeatmapMsgpack(t *testing.T) {
	s := newTestServer(energyConfig(), energySource())
	rec := get(t, s, "/api/heatmap?format=msgpack")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-msgpack" {
		t.Errorf("content type: got %q", ct)
	}

	var resp map[string]any
	if err := msgpack.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["title"] != "Energy" {
		t.Errorf("title: got %v", resp["title"])
	}
	if _, ok := resp["rows"]; !ok {
		t.Error("msgpack response should use json field names")
	}
}

func TestGetHeatmapCachesUntilReload(t *testing.T) {
	src := energySource()
	s := newTestServer(energyConfig(), src)

	get(t, s, "/api/heatmap")
	get(t, s, "/api/heatmap")
	if src.fetches != 1 {
		t.Errorf("fetches after two requests: got %d, want 1", src.fetches)
	}
	get(t, s, "/api/heatmap?reload=1")
	if src.fetches != 2 {
		t.Errorf("fetches after reload: got %d, want 2", src.fetches)
	}

	s.SetConfig(energyConfig())
	get(t, s, "/api/heatmap")
	if src.fetches != 3 {
		t.Errorf("fetches after config change: got %d, want 3", src.fetches)
	}
}

func TestGetHeatmapErrors(t *testing.T) {
	noMax := energyConfig()
	noMax.Data.Max = valuerange.Bound{}

	unknown := energyConfig()
	unknown.Entity = "sensor.nope"

	badPalette := energyConfig()
	badPalette.Scale = palette.Named("plaid")

	tests := []struct {
		name string
		cfg  config.Config
		want int
	}{
		{"accumulator without max", noMax, http.StatusUnprocessableEntity},
		{"unknown entity", unknown, http.StatusNotFound},
		{"unknown palette", badPalette, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(tt.cfg, energySource()), "/api/heatmap")
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Error == "" {
				t.Errorf("error body: got %q (%v)", rec.Body.String(), err)
			}
		})
	}
}

func TestGetPalettes(t *testing.T) {
	cfg := energyConfig()
	cfg.UnitSystem.Temperature = palette.Fahrenheit
	s := newTestServer(cfg, energySource())

	rec := get(t, s, "/api/palettes")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var list []paletteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != len(palette.Names()) {
		t.Errorf("palettes: got %d, want %d", len(list), len(palette.Names()))
	}

	rec = get(t, s, "/api/palettes/indoor%20temperature")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var p paletteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Unit != palette.Fahrenheit || *p.Steps[0].Value != 54 {
		t.Errorf("indoor temperature in °F: got unit %q first step %v", p.Unit, *p.Steps[0].Value)
	}

	if rec := get(t, s, "/api/palettes/plaid"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown palette: got %d, want 404", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	pal := &palette.UnknownPaletteError{Name: "x"}
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", sensor.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("wrap: %w", pal), http.StatusNotFound},
		{valuerange.ErrInverted, http.StatusUnprocessableEntity},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
