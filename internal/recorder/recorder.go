// Package recorder reads long-term hourly statistics from a Home Assistant
// recorder database (SQLite).
package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/luki/heatmap/internal/log"
	"github.com/luki/heatmap/internal/sensor"
)

const schema = `
CREATE TABLE IF NOT EXISTS statistics_meta (
	id INTEGER PRIMARY KEY,
	statistic_id VARCHAR(255) UNIQUE,
	source VARCHAR(32),
	unit_of_measurement VARCHAR(255),
	has_mean BOOLEAN,
	has_sum BOOLEAN,
	name VARCHAR(255)
);
CREATE TABLE IF NOT EXISTS statistics (
	id INTEGER PRIMARY KEY,
	created_ts FLOAT,
	metadata_id INTEGER REFERENCES statistics_meta(id) ON DELETE CASCADE,
	start_ts FLOAT,
	mean FLOAT,
	min FLOAT,
	max FLOAT,
	last_reset_ts FLOAT,
	state FLOAT,
	sum FLOAT,
	UNIQUE (metadata_id, start_ts)
);
CREATE TABLE IF NOT EXISTS states_meta (
	metadata_id INTEGER PRIMARY KEY,
	entity_id VARCHAR(255) UNIQUE
);
CREATE TABLE IF NOT EXISTS state_attributes (
	attributes_id INTEGER PRIMARY KEY,
	shared_attrs TEXT
);
CREATE TABLE IF NOT EXISTS states (
	state_id INTEGER PRIMARY KEY,
	state VARCHAR(255),
	last_updated_ts FLOAT,
	attributes_id INTEGER REFERENCES state_attributes(attributes_id),
	metadata_id INTEGER REFERENCES states_meta(metadata_id)
);
`

// DB is a read mostly handle on a recorder database.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens the recorder database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recorder database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping recorder database: %w", err)
	}
	return &DB{db: db, path: path}, nil
}

// Close closes the database.
func (r *DB) Close() error {
	return r.db.Close()
}

// Path returns the file the database was opened from.
func (r *DB) Path() string { return r.path }

// CreateSchema creates the tables read by DB if they are missing.
func (r *DB) CreateSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

type attributes struct {
	FriendlyName string `json:"friendly_name"`
	Unit         string `json:"unit_of_measurement"`
	StateClass   string `json:"state_class"`
	DeviceClass  string `json:"device_class"`
}

// Metadata implements heatmap.Source. Unit and name come from the
// statistics metadata; state and device class come from the latest state
// attributes, with the state class inferred from the recorded columns when
// the entity has no stored state.
func (r *DB) Metadata(ctx context.Context, entity string) (sensor.Metadata, error) {
	var unit, name sql.NullString
	var hasMean, hasSum sql.NullBool
	err := r.db.QueryRowContext(ctx, `
		SELECT unit_of_measurement, name, has_mean, has_sum
		FROM statistics_meta
		WHERE statistic_id = ?`, entity).Scan(&unit, &name, &hasMean, &hasSum)
	if errors.Is(err, sql.ErrNoRows) {
		return sensor.Metadata{}, fmt.Errorf("%w in %s: %s", sensor.ErrNotFound, r.Path(), entity)
	}
	if err != nil {
		return sensor.Metadata{}, fmt.Errorf("failed to query statistics metadata: %w", err)
	}

	md := sensor.Metadata{Entity: entity, Unit: unit.String, FriendlyName: name.String}
	switch {
	case hasSum.Bool:
		md.StateClass = "total_increasing"
	case hasMean.Bool:
		md.StateClass = "measurement"
	}

	attrs, err := r.latestAttributes(ctx, entity)
	if err != nil {
		log.Debugw("no state attributes", "entity", entity, "error", err)
		return md, nil
	}
	if attrs.FriendlyName != "" {
		md.FriendlyName = attrs.FriendlyName
	}
	if attrs.Unit != "" && md.Unit == "" {
		md.Unit = attrs.Unit
	}
	if attrs.StateClass != "" {
		md.StateClass = attrs.StateClass
	}
	md.DeviceClass = attrs.DeviceClass
	return md, nil
}

func (r *DB) latestAttributes(ctx context.Context, entity string) (attributes, error) {
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT a.shared_attrs
		FROM states s
		JOIN states_meta m ON m.metadata_id = s.metadata_id
		JOIN state_attributes a ON a.attributes_id = s.attributes_id
		WHERE m.entity_id = ?
		ORDER BY s.last_updated_ts DESC
		LIMIT 1`, entity).Scan(&raw)
	if err != nil {
		return attributes{}, err
	}
	var attrs attributes
	if err := json.Unmarshal([]byte(raw.String), &attrs); err != nil {
		return attributes{}, fmt.Errorf("bad shared_attrs: %w", err)
	}
	return attrs, nil
}

// Statistics implements heatmap.Source, returning hourly samples starting at
// or after since in ascending order.
func (r *DB) Statistics(ctx context.Context, entity string, since time.Time) ([]sensor.Sample, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.start_ts, s.mean, s.sum
		FROM statistics s
		JOIN statistics_meta m ON m.id = s.metadata_id
		WHERE m.statistic_id = ? AND s.start_ts >= ?
		ORDER BY s.start_ts`, entity, toTimestamp(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	var samples []sensor.Sample
	for rows.Next() {
		var start float64
		var mean, sum sql.NullFloat64
		if err := rows.Scan(&start, &mean, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan statistics row: %w", err)
		}
		samples = append(samples, sensor.Sample{
			Start:   fromTimestamp(start),
			Mean:    mean.Float64,
			HasMean: mean.Valid,
			Sum:     sum.Float64,
			HasSum:  sum.Valid,
		})
	}
	return samples, rows.Err()
}

// Insert stores samples for an entity, creating its metadata row on first use.
// Samples for an hour that already exists replace the old values.
func (r *DB) Insert(ctx context.Context, md sensor.Metadata, samples []sensor.Sample) error {
	mode, err := md.Mode()
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO statistics_meta (statistic_id, source, unit_of_measurement, has_mean, has_sum, name)
		VALUES (?, 'recorder', ?, ?, ?, ?)
		ON CONFLICT (statistic_id) DO UPDATE SET
			unit_of_measurement = excluded.unit_of_measurement,
			name = excluded.name`,
		md.Entity, md.Unit, mode == sensor.Measurement, mode == sensor.Accumulator, md.FriendlyName)
	if err != nil {
		return fmt.Errorf("failed to upsert metadata: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM statistics_meta WHERE statistic_id = ?`, md.Entity).Scan(&id); err != nil {
		return fmt.Errorf("failed to read metadata id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO statistics (created_ts, metadata_id, start_ts, mean, sum)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (metadata_id, start_ts) DO UPDATE SET
			mean = excluded.mean,
			sum = excluded.sum`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	created := toTimestamp(time.Now())
	for _, s := range samples {
		mean := sql.NullFloat64{Float64: s.Mean, Valid: s.HasMean}
		sum := sql.NullFloat64{Float64: s.Sum, Valid: s.HasSum}
		if _, err := stmt.ExecContext(ctx, created, id, toTimestamp(s.Start), mean, sum); err != nil {
			return fmt.Errorf("failed to insert sample at %s: %w", s.Start.Format(time.RFC3339), err)
		}
	}
	return tx.Commit()
}

func toTimestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromTimestamp(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}
