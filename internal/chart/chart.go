// Package chart renders an assembled heatmap for the terminal: colored
// cells per hour, hour headers, a legend gradient and per-day summaries.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/luki/heatmap/internal/grid"
	"github.com/luki/heatmap/internal/heatmap"
	"github.com/luki/heatmap/internal/palette"
)

const (
	cellBlock  = "██"
	emptyCell  = "··"
	labelWidth = 8
)

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
)

// Cursor marks one cell to highlight. A negative Row disables it.
type Cursor struct {
	Row, Hour int
}

// NoCursor highlights nothing.
var NoCursor = Cursor{Row: -1, Hour: -1}

// RenderHeader renders the hour header line. Columns are two characters
// wide, so only every third hour is labelled.
func RenderHeader(timeFormat string) string {
	headers := grid.HourHeaders(timeFormat)
	line := []rune(strings.Repeat(" ", labelWidth+1+2*grid.HoursPerDay))
	for h := 0; h < grid.HoursPerDay; h += 3 {
		label := headers[h]
		if timeFormat == "12" {
			label = strings.ReplaceAll(label, " ", "")
		}
		pos := labelWidth + 1 + 2*h
		for i, r := range label {
			if pos+i < len(line) {
				line[pos+i] = r
			}
		}
	}
	return headerStyle.Render(strings.TrimRight(string(line), " "))
}

// RenderRow renders one day: its label followed by one colored block per
// hour. Hours without data are drawn as dim dots.
func RenderRow(res *heatmap.Result, row grid.Row, cursorHour int) string {
	var sb strings.Builder
	sb.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelWidth, row.Label)))
	sb.WriteByte(' ')
	for h := 0; h < grid.HoursPerDay; h++ {
		var s string
		if h < len(row.Values) {
			if color, ok := res.Color(row.Values[h]); ok {
				s = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(cellBlock)
			}
		}
		if s == "" {
			s = dimStyle.Render(emptyCell)
		}
		if h == cursorHour {
			s = cursorStyle.Render(s)
		}
		sb.WriteString(s)
	}
	return sb.String()
}

// RenderGrid renders the header and all rows, newest day first.
func RenderGrid(res *heatmap.Result, timeFormat string, cur Cursor) string {
	lines := []string{RenderHeader(timeFormat)}
	for i, row := range res.Rows {
		hour := -1
		if i == cur.Row {
			hour = cur.Hour
		}
		lines = append(lines, RenderRow(res, row, hour))
	}
	return strings.Join(lines, "\n")
}

// RenderLegend renders the scale as a gradient bar of the given width with
// the tick captions placed under it.
func RenderLegend(res *heatmap.Result, width int) string {
	if width <= 0 {
		return ""
	}
	var bar strings.Builder
	lo, hi := 0.0, 1.0
	if res.Scale.Type == palette.Absolute {
		lo, hi = res.Scale.Domain()
	}
	for i := 0; i < width; i++ {
		t := 0.5
		if width > 1 {
			t = float64(i) / float64(width-1)
		}
		color := res.Scale.Sample(lo + t*(hi-lo))
		bar.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("▀"))
	}

	line := []rune(strings.Repeat(" ", width))
	lastEnd := -1
	for _, tick := range res.Legend {
		caption := tick.Caption
		if caption == "" {
			caption = FormatNumber(tick.Value)
		}
		n := len([]rune(caption))
		pos := int(math.Round(tick.Position / 100 * float64(width-1)))
		start := pos - n/2
		if start < 0 {
			start = 0
		}
		if start+n > width {
			start = width - n
		}
		if start <= lastEnd || start < 0 {
			continue
		}
		for i, r := range caption {
			line[start+i] = r
		}
		lastEnd = start + n
	}

	return bar.String() + "\n" + headerStyle.Render(strings.TrimRight(string(line), " "))
}

// Stats summarizes the valid cells of a row.
type Stats struct {
	Count         int
	Min, Max, Avg float64
}

// RowStats returns the summary of a row, or false when it has no data.
func RowStats(row grid.Row) (Stats, bool) {
	var vals []float64
	for _, c := range row.Values {
		if c.Valid {
			vals = append(vals, c.Value)
		}
	}
	if len(vals) == 0 {
		return Stats{}, false
	}
	return Stats{
		Count: len(vals),
		Min:   floats.Min(vals),
		Max:   floats.Max(vals),
		Avg:   stat.Mean(vals, nil),
	}, true
}

// FormatNumber prints a value with at most two decimals and no trailing zeros.
func FormatNumber(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// FormatValue prints a cell value with its unit.
func FormatValue(c grid.Cell, unit string) string {
	if !c.Valid {
		return "no data"
	}
	if unit == "" {
		return FormatNumber(c.Value)
	}
	return FormatNumber(c.Value) + " " + unit
}
