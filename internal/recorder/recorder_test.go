package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/luki/heatmap/internal/sensor"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "home-assistant_v2.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.CreateSchema(context.Background()); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	return db
}

func TestInsertAndStatistics(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	md := sensor.Metadata{Entity: "sensor.energy", FriendlyName: "Energy", Unit: "kWh", StateClass: "total_increasing"}
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	var samples []sensor.Sample
	for i := 0; i < 10; i++ {
		samples = append(samples, sensor.SumAt(base.Add(time.Duration(i)*time.Hour), 100+float64(i)*1.5))
	}
	if err := db.Insert(ctx, md, samples); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := db.Statistics(ctx, md.Entity, base.Add(4*time.Hour))
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("got %d samples, want 6", len(got))
	}
	if !got[0].Start.Equal(base.Add(4 * time.Hour)) {
		t.Errorf("first start: got %v", got[0].Start)
	}
	if !got[0].HasSum || got[0].Sum != 106 || got[0].HasMean {
		t.Errorf("first sample: got %+v", got[0])
	}

	meta, err := db.Metadata(ctx, md.Entity)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta.StateClass != "total_increasing" || meta.Unit != "kWh" || meta.FriendlyName != "Energy" {
		t.Errorf("Metadata: got %+v", meta)
	}
}

func TestInsertReplacesHour(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	md := sensor.Metadata{Entity: "sensor.temp", Unit: "°C", StateClass: "measurement"}
	start := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	if err := db.Insert(ctx, md, []sensor.Sample{sensor.MeanAt(start, 20)}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := db.Insert(ctx, md, []sensor.Sample{sensor.MeanAt(start, 21.5)}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := db.Statistics(ctx, md.Entity, start)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if len(got) != 1 || got[0].Mean != 21.5 {
		t.Errorf("got %+v, want one sample of 21.5", got)
	}
}

func TestMetadataFromStateAttributes(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	md := sensor.Metadata{Entity: "sensor.office", Unit: "°C", StateClass: "measurement"}
	if err := db.Insert(ctx, md, nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	stmts := []string{
		`INSERT INTO states_meta (metadata_id, entity_id) VALUES (1, 'sensor.office')`,
		`INSERT INTO state_attributes (attributes_id, shared_attrs) VALUES (1, '{"friendly_name":"Old"}')`,
		`INSERT INTO state_attributes (attributes_id, shared_attrs) VALUES (2, '{"friendly_name":"Office","device_class":"temperature","state_class":"measurement"}')`,
		`INSERT INTO states (state, last_updated_ts, attributes_id, metadata_id) VALUES ('20.1', 100, 1, 1)`,
		`INSERT INTO states (state, last_updated_ts, attributes_id, metadata_id) VALUES ('20.4', 200, 2, 1)`,
	}
	for _, s := range stmts {
		if _, err := db.db.ExecContext(ctx, s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}

	got, err := db.Metadata(ctx, md.Entity)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if got.FriendlyName != "Office" || got.DeviceClass != "temperature" {
		t.Errorf("Metadata: got %+v", got)
	}
}

func TestMetadataNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Metadata(context.Background(), "sensor.nope")
	if !errors.Is(err, sensor.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if err != nil && !strings.Contains(err.Error(), db.Path()) {
		t.Errorf("error %q should name the database %s", err, db.Path())
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	start := time.Date(2026, 6, 1, 13, 0, 0, 0, time.UTC)
	if got := fromTimestamp(toTimestamp(start)); !got.Equal(start) {
		t.Errorf("got %v, want %v", got, start)
	}
}
