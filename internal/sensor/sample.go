// Package sensor describes the hourly statistics recorded for one sensor and
// the state class that decides how those statistics are read.
package sensor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sample is one hour of recorded statistics for a sensor.
type Sample struct {
	Start   time.Time // start of the hour
	Mean    float64   // instantaneous average over the hour
	Sum     float64   // running total at the end of the hour
	HasMean bool
	HasSum  bool
}

// MeanAt returns a measurement sample.
func MeanAt(start time.Time, mean float64) Sample {
	return Sample{Start: start, Mean: mean, HasMean: true}
}

// SumAt returns an accumulator sample.
func SumAt(start time.Time, sum float64) Sample {
	return Sample{Start: start, Sum: sum, HasSum: true}
}

// Mode selects how a series of samples is bucketed into cells.
type Mode int

const (
	// Measurement sensors report an instantaneous value per hour.
	Measurement Mode = iota + 1
	// Accumulator sensors report a monotonically increasing total.
	Accumulator
)

// ErrUnknownMode is returned for a state class that is neither a
// measurement nor an accumulator.
var ErrUnknownMode = errors.New("unknown sensor mode")

func (m Mode) String() string {
	switch m {
	case Measurement:
		return "measurement"
	case Accumulator:
		return "accumulator"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == Measurement || m == Accumulator
}

// ParseMode maps a mode name or a Home Assistant state class onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "measurement":
		return Measurement, nil
	case "accumulator", "total_increasing":
		return Accumulator, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// ErrNotFound is returned by a statistics source that has no data for an
// entity.
var ErrNotFound = errors.New("entity not found")

// Metadata is what the statistics source knows about an entity.
type Metadata struct {
	Entity       string
	FriendlyName string
	Unit         string // unit of measurement, e.g. "kWh" or "°C"
	StateClass   string // e.g. "measurement", "total_increasing"
	DeviceClass  string // e.g. "energy", "temperature"
}

// Mode resolves the entity's state class.
func (m Metadata) Mode() (Mode, error) {
	mode, err := ParseMode(m.StateClass)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", m.Entity, err)
	}
	return mode, nil
}

// Title returns the friendly name, falling back to the entity id.
func (m Metadata) Title() string {
	if m.FriendlyName != "" {
		return m.FriendlyName
	}
	return m.Entity
}
