// Package store keeps hourly statistics on disk as CSV files, one directory
// per entity and one file per day. Data is stored in ~/.heatmap-data/ by
// default.
package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/luki/heatmap/internal/log"
	"github.com/luki/heatmap/internal/sensor"
)

const (
	dirName    = ".heatmap-data"
	metaFile   = "meta.json"
	fileLayout = "2006-01-02"
)

// DiskStore reads and writes hourly statistics. Files are stored as
// <dir>/<entity>/YYYY-MM-DD.csv with the format:
//
//	start,mean,sum
//
// An empty mean or sum column means the statistic was not recorded.
type DiskStore struct {
	dir       string
	current   *os.File
	writer    *csv.Writer
	curEntity string
	curDate   string
}

// New opens the store in the default data directory.
func New() (*DiskStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot find home dir: %w", err)
	}
	return Open(filepath.Join(home, dirName))
}

// Open opens the store rooted at dir, creating it if needed.
func Open(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create data dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the root directory of the store.
func (d *DiskStore) Dir() string { return d.dir }

func (d *DiskStore) entityDir(entity string) (string, error) {
	if entity == "" || strings.ContainsAny(entity, `/\`) || entity == "." || entity == ".." {
		return "", fmt.Errorf("invalid entity id %q", entity)
	}
	return filepath.Join(d.dir, entity), nil
}

// WriteMetadata records what is known about an entity.
func (d *DiskStore) WriteMetadata(md sensor.Metadata) error {
	dir, err := d.entityDir(md.Entity)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(fileMeta{
		FriendlyName: md.FriendlyName,
		Unit:         md.Unit,
		StateClass:   md.StateClass,
		DeviceClass:  md.DeviceClass,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, metaFile), append(data, '\n'), 0o644)
}

type fileMeta struct {
	FriendlyName string `json:"friendly_name,omitempty"`
	Unit         string `json:"unit_of_measurement,omitempty"`
	StateClass   string `json:"state_class"`
	DeviceClass  string `json:"device_class,omitempty"`
}

// Write appends samples for an entity, one file per sample day.
func (d *DiskStore) Write(entity string, samples []sensor.Sample) error {
	dir, err := d.entityDir(entity)
	if err != nil {
		return err
	}
	for _, s := range samples {
		dateStr := s.Start.Format(fileLayout)
		if d.curEntity != entity || d.curDate != dateStr || d.current == nil {
			d.Close()
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(dir, dateStr+".csv")
			f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return err
			}
			d.current = f
			d.writer = csv.NewWriter(f)
			d.curEntity = entity
			d.curDate = dateStr

			info, _ := f.Stat()
			if info.Size() == 0 {
				d.writer.Write([]string{"start", "mean", "sum"})
			}
		}
		d.writer.Write([]string{
			s.Start.Format(time.RFC3339),
			formatOptional(s.Mean, s.HasMean),
			formatOptional(s.Sum, s.HasSum),
		})
	}
	if d.writer == nil {
		return nil
	}
	d.writer.Flush()
	return d.writer.Error()
}

func formatOptional(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Close flushes and closes the current file.
func (d *DiskStore) Close() {
	if d.writer != nil {
		d.writer.Flush()
	}
	if d.current != nil {
		d.current.Close()
		d.current = nil
	}
}

// ListDays returns the dates with data for an entity (newest first).
func (d *DiskStore) ListDays(entity string) ([]string, error) {
	dir, err := d.entityDir(entity)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w in %s: %s", sensor.ErrNotFound, d.dir, entity)
	}
	if err != nil {
		return nil, err
	}

	var days []string
	for i := len(entries) - 1; i >= 0; i-- {
		name := entries[i].Name()
		if strings.HasSuffix(name, ".csv") {
			days = append(days, strings.TrimSuffix(name, ".csv"))
		}
	}
	return days, nil
}

// LoadFile reads all samples from a CSV file.
func LoadFile(path string) ([]sensor.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var samples []sensor.Sample
	for i, row := range records {
		if i == 0 && len(row) > 0 && row[0] == "start" {
			continue
		}
		if len(row) < 3 {
			continue
		}

		t, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			log.Warnf("%s line %d: %v", path, i+1, err)
			continue
		}
		s := sensor.Sample{Start: t}
		if row[1] != "" {
			if s.Mean, err = strconv.ParseFloat(row[1], 64); err == nil {
				s.HasMean = true
			}
		}
		if row[2] != "" {
			if s.Sum, err = strconv.ParseFloat(row[2], 64); err == nil {
				s.HasSum = true
			}
		}
		samples = append(samples, s)
	}

	return samples, nil
}

// Metadata implements heatmap.Source.
func (d *DiskStore) Metadata(_ context.Context, entity string) (sensor.Metadata, error) {
	dir, err := d.entityDir(entity)
	if err != nil {
		return sensor.Metadata{}, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sensor.Metadata{}, fmt.Errorf("%w in %s: %s", sensor.ErrNotFound, d.dir, entity)
		}
		return sensor.Metadata{}, err
	}
	var fm fileMeta
	if err := json.Unmarshal(data, &fm); err != nil {
		return sensor.Metadata{}, fmt.Errorf("parsing %s metadata: %w", entity, err)
	}
	return sensor.Metadata{
		Entity:       entity,
		FriendlyName: fm.FriendlyName,
		Unit:         fm.Unit,
		StateClass:   fm.StateClass,
		DeviceClass:  fm.DeviceClass,
	}, nil
}

// Statistics implements heatmap.Source. It returns the samples starting at
// or after since, in ascending order, one per hour.
func (d *DiskStore) Statistics(ctx context.Context, entity string, since time.Time) ([]sensor.Sample, error) {
	days, err := d.ListDays(entity)
	if err != nil {
		return nil, err
	}
	// Files are named by the writer's local date; keep one extra day of slack.
	first := since.AddDate(0, 0, -1).Format(fileLayout)

	byHour := make(map[int64]sensor.Sample)
	for _, day := range days {
		if day < first {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		samples, err := LoadFile(filepath.Join(d.dir, entity, day+".csv"))
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", day, err)
		}
		for _, s := range samples {
			if s.Start.Before(since) {
				continue
			}
			byHour[s.Start.Unix()] = s
		}
	}

	out := make([]sensor.Sample, 0, len(byHour))
	for _, s := range byHour {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
