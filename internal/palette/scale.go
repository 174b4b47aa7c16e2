package palette

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrNoSteps is returned for a definition without color stops.
var ErrNoSteps = errors.New("palette has no steps")

// cssSamples is the number of evenly spaced stops in Scale.CSS.
const cssSamples = 21

type stop struct {
	pos   float64
	color colorful.Color
}

// Scale is a built palette, ready to be sampled. It is immutable.
type Scale struct {
	Name  string
	Type  Type
	Unit  string
	Steps []Step // unit-converted copy of the definition's steps
	CSS   string // linear-gradient stop list, e.g. "#230382 0%, ..."

	stops []stop
}

// Build resolves a definition against the consuming unit system. Celsius
// step values are converted to Fahrenheit once, here, when unitSystem asks
// for it.
func Build(def Definition, unitSystem string) (*Scale, error) {
	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("palette %q: %w", def.Name, ErrNoSteps)
	}
	def = def.clone()
	if def.Type == "" {
		def.Type = Relative
	}
	if def.Type != Relative && def.Type != Absolute {
		return nil, fmt.Errorf("palette %q: unknown type %q", def.Name, def.Type)
	}

	convert := def.Unit == Celsius && unitSystem == Fahrenheit
	withValues := 0
	for i := range def.Steps {
		s := &def.Steps[i]
		if !s.HasValue() {
			continue
		}
		withValues++
		if convert {
			*s.Value = celsiusToFahrenheit(*s.Value)
		}
	}
	if convert {
		def.Unit = Fahrenheit
	}
	if def.Type == Absolute && withValues != len(def.Steps) {
		return nil, fmt.Errorf("palette %q: absolute palettes need a value on every step", def.Name)
	}

	stops := make([]stop, len(def.Steps))
	for i, s := range def.Steps {
		c, err := colorful.Hex(s.Color)
		if err != nil {
			return nil, fmt.Errorf("palette %q step %d: invalid color %q: %w", def.Name, i, s.Color, err)
		}
		stops[i].color = c
		switch {
		case withValues == len(def.Steps):
			stops[i].pos = *s.Value
		case len(def.Steps) > 1:
			stops[i].pos = float64(i) / float64(len(def.Steps)-1)
		}
	}

	sc := &Scale{
		Name:  def.Name,
		Type:  def.Type,
		Unit:  def.Unit,
		Steps: def.Steps,
		stops: stops,
	}
	sc.CSS = sc.cssStops()
	return sc, nil
}

func celsiusToFahrenheit(c float64) float64 {
	return math.Round(c*1.8 + 32)
}

// Domain returns the first and last stop positions. Relative scales built
// from plain step lists return 0 and 1.
func (s *Scale) Domain() (lo, hi float64) {
	return s.stops[0].pos, s.stops[len(s.stops)-1].pos
}

// Sample returns the hex color at t. For relative scales t is a normalized
// position, for absolute scales a raw data value. Values at or outside the
// domain ends return the first or last step color as configured.
func (s *Scale) Sample(t float64) string {
	switch lo, hi := s.Domain(); {
	case math.IsNaN(t) || t <= lo:
		return s.Steps[0].Color
	case t >= hi:
		return s.Steps[len(s.Steps)-1].Color
	}
	return s.SampleColor(t).Hex()
}

// SampleColor is Sample without the hex formatting.
func (s *Scale) SampleColor(t float64) colorful.Color {
	first, last := s.stops[0], s.stops[len(s.stops)-1]
	if math.IsNaN(t) || t <= first.pos {
		return first.color
	}
	if t >= last.pos {
		return last.color
	}
	for i := 1; i < len(s.stops); i++ {
		a, b := s.stops[i-1], s.stops[i]
		if t > b.pos {
			continue
		}
		if b.pos == a.pos || t == b.pos {
			return b.color
		}
		if t == a.pos {
			return a.color
		}
		f := (t - a.pos) / (b.pos - a.pos)
		return a.color.BlendLab(b.color, f).Clamped()
	}
	return last.color
}

func (s *Scale) cssStops() string {
	lo, hi := s.Domain()
	parts := make([]string, cssSamples)
	for i := 0; i < cssSamples; i++ {
		x := lo + (hi-lo)*float64(i)/float64(cssSamples-1)
		if i == cssSamples-1 {
			x = hi
		}
		parts[i] = fmt.Sprintf("%s %d%%", s.Sample(x), i*100/(cssSamples-1))
	}
	return strings.Join(parts, ", ")
}
