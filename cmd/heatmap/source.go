package main

import (
	"context"
	"fmt"

	"github.com/luki/heatmap/internal/config"
	"github.com/luki/heatmap/internal/heatmap"
	"github.com/luki/heatmap/internal/log"
	"github.com/luki/heatmap/internal/recorder"
	"github.com/luki/heatmap/internal/sensor"
	"github.com/luki/heatmap/internal/store"
)

// source is a statistics source that can also be written to and closed.
type source interface {
	heatmap.Source
	Save(ctx context.Context, md sensor.Metadata, samples []sensor.Sample) error
	Close() error
}

type recorderSource struct{ *recorder.DB }

func (r recorderSource) Save(ctx context.Context, md sensor.Metadata, samples []sensor.Sample) error {
	if err := r.CreateSchema(ctx); err != nil {
		return err
	}
	return r.Insert(ctx, md, samples)
}

type storeSource struct{ *store.DiskStore }

func (s storeSource) Save(_ context.Context, md sensor.Metadata, samples []sensor.Sample) error {
	if err := s.WriteMetadata(md); err != nil {
		return err
	}
	return s.Write(md.Entity, samples)
}

func (s storeSource) Close() error {
	s.DiskStore.Close()
	return nil
}

// openSource opens the configured statistics source. A recorder database
// takes precedence over a CSV directory; with neither set the default
// data directory is used.
func openSource(cfg config.SourceConfig) (source, error) {
	switch {
	case cfg.Recorder != "":
		db, err := recorder.Open(cfg.Recorder)
		if err != nil {
			return nil, err
		}
		log.Debugw("using recorder database", "path", db.Path())
		return recorderSource{db}, nil
	case cfg.CSVDir != "":
		ds, err := store.Open(cfg.CSVDir)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", cfg.CSVDir, err)
		}
		log.Debugw("using csv store", "dir", cfg.CSVDir)
		return storeSource{ds}, nil
	default:
		ds, err := store.New()
		if err != nil {
			return nil, err
		}
		log.Debugw("using default csv store", "dir", ds.Dir())
		return storeSource{ds}, nil
	}
}
