package heatmap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/luki/heatmap/internal/config"
	"github.com/luki/heatmap/internal/log"
	"github.com/luki/heatmap/internal/sensor"
)

// Source provides hourly statistics for an entity.
type Source interface {
	Metadata(ctx context.Context, entity string) (sensor.Metadata, error)
	Statistics(ctx context.Context, entity string, since time.Time) ([]sensor.Sample, error)
}

// State is the lifecycle state of a Card.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

// Card holds one configured heatmap. A new configuration moves it back to
// Uninitialized; the next Refresh fetches once and assembles. A Card is safe
// for concurrent use: the accessors can be called while a Refresh is
// fetching.
type Card struct {
	mu          sync.RWMutex
	cfg         config.Config
	gen         uint64 // bumped on every SetConfig
	state       State
	meta        sensor.Metadata
	fingerprint string
	result      *Result
}

func NewCard(cfg config.Config) *Card {
	return &Card{cfg: cfg}
}

func (c *Card) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Card) Config() config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

func (c *Card) Meta() sensor.Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meta
}

// Result returns the last assembled result, or nil.
func (c *Card) Result() *Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result
}

// SetConfig replaces the configuration and invalidates the card.
func (c *Card) SetConfig(cfg config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
	c.gen++
	c.state = Uninitialized
}

// Invalidate forces the next Refresh to fetch again.
func (c *Card) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Uninitialized
}

// Title is the configured title, falling back to the entity's name.
func (c *Card) Title() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cfg.Title != "" {
		return c.cfg.Title
	}
	return c.meta.Title()
}

// Refresh returns the current result, fetching and assembling when the
// card is Uninitialized. On error the card stays Uninitialized. The lock is
// not held while the source is queried; a result fetched for a
// configuration that was replaced meanwhile is returned but not kept.
func (c *Card) Refresh(ctx context.Context, src Source, now time.Time) (*Result, error) {
	c.mu.RLock()
	if c.state == Ready {
		res := c.result
		c.mu.RUnlock()
		return res, nil
	}
	cfg, gen, prevFP, prev := c.cfg, c.gen, c.fingerprint, c.result
	c.mu.RUnlock()

	meta, err := src.Metadata(ctx, cfg.Entity)
	if err != nil {
		return nil, fmt.Errorf("metadata for %s: %w", cfg.Entity, err)
	}
	mode, err := meta.Mode()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateFor(mode); err != nil {
		return nil, err
	}

	loc := cfg.Location()
	since := WindowStart(now, cfg.Days, loc)
	samples, err := src.Statistics(ctx, cfg.Entity, since)
	if err != nil {
		return nil, fmt.Errorf("statistics for %s: %w", cfg.Entity, err)
	}

	in := Input{
		Samples:    samples,
		Mode:       mode,
		Scale:      cfg.ScaleFor(meta.DeviceClass),
		Min:        cfg.Data.Min,
		Max:        cfg.Data.Max,
		UnitSystem: cfg.UnitSystem.Temperature,
		Locale:     cfg.Language,
		Location:   loc,
	}
	fp, err := Fingerprint(in)
	if err != nil {
		return nil, err
	}

	res := prev
	if fp != prevFP || prev == nil {
		res, err = Assemble(in)
		if err != nil {
			return nil, err
		}
		log.Debugw("heatmap assembled",
			"entity", cfg.Entity,
			"mode", mode.String(),
			"samples", len(samples),
			"rows", len(res.Rows),
			"min", res.Range.Min,
			"max", res.Range.Max)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		log.Debugw("configuration changed during refresh", "entity", cfg.Entity)
		return res, nil
	}
	c.meta = meta
	c.result = res
	c.fingerprint = fp
	c.state = Ready
	return res, nil
}

// WindowStart is the first hour to fetch for a window of days: 23:00 on
// the day before the window, so accumulators get a baseline.
func WindowStart(now time.Time, days int, loc *time.Location) time.Time {
	t := now.In(loc).AddDate(0, 0, -days)
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 0, 0, 0, loc)
}
