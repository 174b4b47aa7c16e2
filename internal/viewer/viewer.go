// Package viewer implements the heatmap browser TUI with a cell cursor,
// per-day summaries, and live reload of the configuration file.
package viewer

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/luki/heatmap/internal/chart"
	"github.com/luki/heatmap/internal/config"
	"github.com/luki/heatmap/internal/grid"
	"github.com/luki/heatmap/internal/heatmap"
	"github.com/luki/heatmap/internal/log"
)

// Run launches the heatmap viewer for card. When configPath is not empty
// the file is watched and edits are applied on the fly. A positive refresh
// refetches the statistics at that interval.
func Run(ctx context.Context, card *heatmap.Card, src heatmap.Source, configPath string, refresh time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(
		newModel(ctx, card, src, time.Now, refresh),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if configPath != "" {
		err := config.Watch(ctx, configPath, func(cfg config.Config, err error) {
			p.Send(configMsg{cfg: cfg, err: err})
		})
		if err != nil {
			log.Warnf("not watching %s: %v", configPath, err)
		}
	}

	_, err := p.Run()
	return err
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorAccent   = lipgloss.Color("214")
	colorCrit     = lipgloss.Color("196")
)

// ── Messages ─────────────────────────────────────────────────────────

type tickMsg time.Time

type loadedMsg struct {
	res *heatmap.Result
	err error
}

type configMsg struct {
	cfg config.Config
	err error
}

// ── Model ────────────────────────────────────────────────────────────

type model struct {
	ctx  context.Context
	card *heatmap.Card
	src  heatmap.Source
	now  func() time.Time

	res      *heatmap.Result
	err      error
	loading  bool
	pending  *config.Config // configuration received while loading
	refresh  time.Duration
	paused   bool
	lastLoad time.Time

	row, hour  int // cell cursor
	timeFormat string
	scroll     int
	width      int
	height     int
}

func newModel(ctx context.Context, card *heatmap.Card, src heatmap.Source, now func() time.Time, refresh time.Duration) model {
	return model{
		ctx:        ctx,
		card:       card,
		src:        src,
		now:        now,
		loading:    true,
		refresh:    refresh,
		timeFormat: card.Config().Display.TimeFormat,
	}
}

func (m model) load() tea.Cmd {
	card, src, ctx, now := m.card, m.src, m.ctx, m.now()
	return func() tea.Msg {
		res, err := card.Refresh(ctx, src, now)
		return loadedMsg{res: res, err: err}
	}
}

func (m model) tick() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// ── Init / Update ────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tickMsg:
		if m.paused || m.loading {
			return m, m.tick()
		}
		m.card.Invalidate()
		m.loading = true
		return m, tea.Batch(m.load(), m.tick())

	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.res = msg.res
			m.lastLoad = m.now()
			m.clampCursor()
		}
		if m.pending != nil {
			m.card.SetConfig(*m.pending)
			m.timeFormat = m.pending.Display.TimeFormat
			m.pending = nil
			m.loading = true
			return m, m.load()
		}

	case configMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("reloading config: %w", msg.err)
			return m, nil
		}
		if err := msg.cfg.Validate(); err != nil {
			m.err = err
			return m, nil
		}
		if m.loading {
			m.pending = &msg.cfg
			return m, nil
		}
		m.card.SetConfig(msg.cfg)
		m.timeFormat = msg.cfg.Display.TimeFormat
		m.loading = true
		return m, m.load()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "left", "h":
			if m.hour > 0 {
				m.hour--
			}
		case "right", "l":
			if m.hour < grid.HoursPerDay-1 {
				m.hour++
			}
		case "up", "k":
			if m.row > 0 {
				m.row--
			}
		case "down", "j":
			m.row++
			m.clampCursor()
		case "home":
			m.row, m.hour = 0, 0
		case "end":
			m.row = len(m.rows()) - 1
			m.hour = grid.HoursPerDay - 1
			m.clampCursor()

		case "t":
			if m.timeFormat == "12" {
				m.timeFormat = "24"
			} else {
				m.timeFormat = "12"
			}

		case " ", "p":
			m.paused = !m.paused

		case "r":
			if !m.loading {
				m.card.Invalidate()
				m.loading = true
				return m, m.load()
			}

		case "pgup":
			if m.scroll > 0 {
				m.scroll--
			}
		case "pgdown":
			m.scroll++
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m model) rows() []grid.Row {
	if m.res == nil {
		return nil
	}
	return m.res.Rows
}

func (m *model) clampCursor() {
	n := len(m.rows())
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

// ── View ─────────────────────────────────────────────────────────────

func (m model) View() string {
	if m.width == 0 {
		return "  Loading..."
	}

	contentWidth := m.width - 2
	if contentWidth < 58 {
		contentWidth = 58
	}

	var sections []string

	sections = append(sections, m.renderTitle(contentWidth))

	if m.err != nil {
		errBox := lipgloss.NewStyle().
			Foreground(colorCrit).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("ERROR: %v", m.err))
		sections = append(sections, errBox)
	}

	switch {
	case m.res == nil && m.loading:
		sections = append(sections, m.renderEmpty(contentWidth, "Fetching statistics..."))
	case len(m.rows()) == 0:
		sections = append(sections, m.renderEmpty(contentWidth, "No data in this window."))
	default:
		sections = append(sections, m.renderCursorInfo())
		sections = append(sections, m.renderPanel(contentWidth))
	}

	sections = append(sections, m.renderFooter(contentWidth))

	return clip(lipgloss.JoinVertical(lipgloss.Left, sections...), m.scroll, max(m.height, 5))
}

// clip returns the window of height lines starting at scroll, keeping the
// last line visible when scroll runs past the end.
func clip(content string, scroll, height int) string {
	lines := strings.Split(content, "\n")
	scroll = min(scroll, max(len(lines)-height, 0))
	return strings.Join(lines[scroll:min(scroll+height, len(lines))], "\n")
}

func (m model) renderEmpty(width int, text string) string {
	return lipgloss.NewStyle().
		Foreground(colorDim).
		Padding(2, 0).
		Align(lipgloss.Center).
		Width(width).
		Render(text)
}

func (m model) renderTitle(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render(strings.ToUpper(m.card.Title()))

	cfg := m.card.Config()
	entity := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true).
		Render(cfg.Entity)

	info := fmt.Sprintf("  %d days", cfg.Days)
	if m.res != nil {
		info += fmt.Sprintf("  %s..%s %s",
			chart.FormatNumber(m.res.Range.Min), chart.FormatNumber(m.res.Range.Max), m.res.Scale.Unit)
	}
	switch {
	case m.loading:
		info += "  (loading)"
	case m.paused:
		info += "  (paused)"
	case !m.lastLoad.IsZero():
		info += "  " + m.lastLoad.Format("15:04")
	}
	right := entity + lipgloss.NewStyle().Foreground(colorDim).Render(info)

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + filler + right)
}

func (m model) renderCursorInfo() string {
	row := m.rows()[m.row]
	var cell grid.Cell
	if m.hour < len(row.Values) {
		cell = row.Values[m.hour]
	}

	when := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true).
		Render(row.Label + " " + grid.HourHeaders(m.timeFormat)[m.hour])

	value := lipgloss.NewStyle().
		Foreground(colorLabel).
		Render(chart.FormatValue(cell, m.card.Meta().Unit))

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	stats := ""
	if s, ok := chart.RowStats(row); ok {
		stats = dimS.Render("avg ") + valS.Render(chart.FormatNumber(s.Avg)) +
			dimS.Render("  lo ") + valS.Render(chart.FormatNumber(s.Min)) +
			dimS.Render("  pk ") + valS.Render(chart.FormatNumber(s.Max))
	}

	return lipgloss.NewStyle().
		Padding(0, 1).
		Render("  " + when + "  " + value + "    " + stats)
}

func (m model) renderPanel(width int) string {
	rows := []string{chart.RenderGrid(m.res, m.timeFormat, chart.Cursor{Row: m.row, Hour: m.hour})}

	if m.card.Config().Display.Legend {
		rows = append(rows, "", chart.RenderLegend(m.res, 2*grid.HoursPerDay+9))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m model) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(colorLabel)

	keys := dimS.Render("q") + keyS.Render(":quit") +
		dimS.Render("  h/l") + keyS.Render(":hour") +
		dimS.Render("  j/k") + keyS.Render(":day") +
		dimS.Render("  home/end") + keyS.Render(":jump") +
		dimS.Render("  t") + keyS.Render(":12/24h") +
		dimS.Render("  r") + keyS.Render(":reload") +
		dimS.Render("  p") + keyS.Render(":pause") +
		dimS.Render("  pgup/pgdn") + keyS.Render(":scroll")

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(keys)
}
