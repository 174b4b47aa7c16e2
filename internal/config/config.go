// Package config loads the heatmap card configuration from a JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/multierr"

	"github.com/luki/heatmap/internal/palette"
	"github.com/luki/heatmap/internal/sensor"
	"github.com/luki/heatmap/internal/valuerange"
)

const (
	DefaultDays     = 21
	DefaultLanguage = "en"
)

type DataConfig struct {
	Min valuerange.Bound `json:"min"`
	Max valuerange.Bound `json:"max"`
}

type DisplayConfig struct {
	Legend     bool   `json:"legend"`
	TimeFormat string `json:"time_format"` // "24" or "12"
}

type UnitSystem struct {
	Temperature string `json:"temperature"`
}

// SourceConfig points at where hourly statistics are read from. Recorder
// takes precedence when both are set.
type SourceConfig struct {
	Recorder string `json:"recorder,omitempty"`
	CSVDir   string `json:"csv_dir,omitempty"`
}

type Config struct {
	Entity     string        `json:"entity"`
	Title      string        `json:"title,omitempty"`
	Days       int           `json:"days"`
	Scale      palette.Ref   `json:"scale"`
	Data       DataConfig    `json:"data"`
	Display    DisplayConfig `json:"display"`
	UnitSystem UnitSystem    `json:"unit_system"`
	Language   string        `json:"language"`
	TimeZone   string        `json:"time_zone,omitempty"`
	Source     SourceConfig  `json:"source"`
}

func DefaultConfig() Config {
	return Config{
		Days: DefaultDays,
		Data: DataConfig{Min: valuerange.FixedBound(valuerange.DefaultMin)},
		Display: DisplayConfig{
			Legend:     true,
			TimeFormat: "24",
		},
		UnitSystem: UnitSystem{Temperature: palette.Celsius},
		Language:   DefaultLanguage,
	}
}

func ConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "heatmap")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "heatmap")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "settings.json")
}

func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Days == 0 {
		cfg.Days = DefaultDays
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Display.TimeFormat == "" {
		cfg.Display.TimeFormat = "24"
	}
	if cfg.UnitSystem.Temperature == "" {
		cfg.UnitSystem.Temperature = palette.Celsius
	}
	if !cfg.Data.Min.IsSet() {
		cfg.Data.Min = valuerange.FixedBound(valuerange.DefaultMin)
	}

	return cfg, nil
}

func SaveTo(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ErrMaxRequired is returned for accumulator entities without data.max.
var ErrMaxRequired = errors.New("`data.max` is required for consumption data; set it to the expected maximum or to `auto` to accept re-scaling to the shown values")

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var err error
	if c.Entity == "" {
		err = multierr.Append(err, errors.New("you need to define an entity"))
	}
	if c.Days <= 0 {
		err = multierr.Append(err, errors.New("`days` need to be 1 or higher"))
	}
	if c.Display.TimeFormat != "24" && c.Display.TimeFormat != "12" {
		err = multierr.Append(err, fmt.Errorf("`display.time_format` must be \"12\" or \"24\", got %q", c.Display.TimeFormat))
	}
	if t := c.UnitSystem.Temperature; t != palette.Celsius && t != palette.Fahrenheit {
		err = multierr.Append(err, fmt.Errorf("`unit_system.temperature` must be %q or %q, got %q", palette.Celsius, palette.Fahrenheit, t))
	}
	if c.TimeZone != "" {
		if _, lerr := time.LoadLocation(c.TimeZone); lerr != nil {
			err = multierr.Append(err, fmt.Errorf("`time_zone`: %w", lerr))
		}
	}
	return err
}

// ValidateFor adds the checks that depend on the entity's mode.
func (c Config) ValidateFor(mode sensor.Mode) error {
	err := c.Validate()
	if mode == sensor.Accumulator && !c.Data.Max.IsSet() {
		err = multierr.Append(err, ErrMaxRequired)
	}
	return err
}

// Location returns the configured time zone, or the local one.
func (c Config) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ScaleFor picks the configured palette, else the device class default.
func (c Config) ScaleFor(deviceClass string) palette.Ref {
	if !c.Scale.IsZero() {
		return c.Scale
	}
	return palette.Named(sensor.DefaultPalette(deviceClass))
}
