// Package legend places ticks along a scale's gradient bar.
package legend

import (
	"math"

	"github.com/samber/lo"

	"github.com/luki/heatmap/internal/palette"
	"github.com/luki/heatmap/internal/valuerange"
)

// relativeTicks is the number of intervals on a relative legend.
const relativeTicks = 5

// Tick is a legend mark. Position is a percentage along the gradient.
type Tick struct {
	Position float64 `json:"position"`
	Value    float64 `json:"value"`
	Caption  string  `json:"caption,omitempty"`
}

// Ticks returns the legend ticks for a scale. Relative scales get six
// evenly spaced ticks labelled over rng, all showing rng.Min when the range
// is degenerate. Absolute scales get one tick per step, or a single tick in
// the middle when the first and last steps share a value.
func Ticks(scale *palette.Scale, rng valuerange.Range) []Tick {
	if scale.Type == palette.Absolute {
		return absoluteTicks(scale)
	}
	ticks := make([]Tick, relativeTicks+1)
	for i := range ticks {
		ticks[i] = Tick{
			Position: float64(i * 100 / relativeTicks),
			Value:    round2(rng.Min + rng.Span()*float64(i)/relativeTicks),
		}
	}
	return ticks
}

func absoluteTicks(scale *palette.Scale) []Tick {
	first, last := scale.Domain()
	if first == last {
		return []Tick{{Position: 50, Value: first, Caption: scale.Steps[0].Legend}}
	}
	return lo.Map(scale.Steps, func(s palette.Step, _ int) Tick {
		return Tick{
			Position: (*s.Value - first) / (last - first) * 100,
			Value:    *s.Value,
			Caption:  s.Legend,
		}
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
