// Package browse provides the Bubble Tea signal browser.
package browse

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/adccmp/internal/generator"
	"github.com/verte-zerg/adccmp/internal/logfile"
	"github.com/verte-zerg/adccmp/internal/model"
	"github.com/verte-zerg/adccmp/internal/render"
	"github.com/verte-zerg/adccmp/internal/stats"
)

const (
	tabSignals = iota
	tabPreview
)

const (
	plotHeight     = 12
	sparkWidth     = 16
	missingMark    = "missing"
	presentMark    = "ok"
	notRenderedYet = "-"
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FBF7F"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// RenderFunc writes the chart of one signal and returns its path.
type RenderFunc func(name string, cfg model.RenderConfig) (string, error)

type renderedMsg struct {
	name string
	path string
	err  error
}

// Model implements the Bubble Tea signal browser.
type Model struct {
	cfg     model.RenderConfig
	catalog logfile.Catalog
	render  RenderFunc

	reports   map[string]stats.Report
	reportErr map[string]string
	rendered  map[string]string

	tabs        []string
	activeTab   int
	signals     table.Model
	preview     viewport.Model
	previewName string

	width  int
	height int

	status string
	errMsg string
}

// NewModel constructs a browser over the catalog. Charts are written with
// render.Signal.
func NewModel(catalog logfile.Catalog, cfg model.RenderConfig) *Model {
	return NewModelWithRenderer(catalog, cfg, render.Signal)
}

// NewModelWithRenderer is NewModel with a custom chart writer.
func NewModelWithRenderer(catalog logfile.Catalog, cfg model.RenderConfig, fn RenderFunc) *Model {
	m := &Model{
		cfg:       cfg,
		catalog:   catalog,
		render:    fn,
		reports:   make(map[string]stats.Report),
		reportErr: make(map[string]string),
		rendered:  make(map[string]string),
		tabs:      []string{"Signals", "Preview"},
		preview:   viewport.New(0, 0),
	}
	m.signals = table.New(
		table.WithColumns(signalColumns(0)),
		table.WithRows(m.signalRows()),
		table.WithFocused(true),
		table.WithHeight(1),
	)
	m.signals.SetStyles(signalTableStyles())
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.refreshPreview()
		return m, nil
	case renderedMsg:
		if msg.err != nil {
			m.rendered[msg.name] = "error"
			m.errMsg = msg.err.Error()
			m.status = ""
		} else {
			m.rendered[msg.name] = presentMark
			m.status = "Wrote " + msg.path
			m.errMsg = ""
		}
		m.signals.SetRows(m.signalRows())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h", "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "enter":
			if m.activeTab == tabSignals {
				m.openPreview(m.selected())
				return m, tea.ClearScreen
			}
			return m, nil
		case "r":
			name := m.selected()
			if name == "" {
				return m, nil
			}
			m.status = "Rendering " + name + "..."
			return m, m.renderCmd(name)
		case "g", "home":
			if m.activeTab == tabSignals {
				m.signals.GotoTop()
			} else {
				m.preview.GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabSignals {
				m.signals.GotoBottom()
			} else {
				m.preview.GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.activeTab == tabSignals {
				m.signals, cmd = m.signals.Update(msg)
				return m, cmd
			}
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) selected() string {
	entries := m.catalog.Entries
	idx := m.signals.Cursor()
	if idx < 0 || idx >= len(entries) {
		return ""
	}
	return entries[idx].Name
}

func (m *Model) renderCmd(name string) tea.Cmd {
	cfg := m.cfg
	fn := m.render
	return func() tea.Msg {
		path, err := fn(name, cfg)
		return renderedMsg{name: name, path: path, err: err}
	}
}

func (m *Model) openPreview(name string) {
	if name == "" {
		return
	}
	m.previewName = name
	m.activeTab = tabPreview
	m.signals.Blur()
	m.loadReport(name)
	m.signals.SetRows(m.signalRows())
	m.refreshPreview()
	m.preview.GotoTop()
}

func (m *Model) loadReport(name string) {
	if _, ok := m.reports[name]; ok {
		return
	}
	rep, err := stats.BuildReport(name, m.cfg)
	if err != nil {
		m.reportErr[name] = err.Error()
		return
	}
	delete(m.reportErr, name)
	m.reports[name] = rep
}

func (m *Model) refreshPreview() {
	if m.previewName == "" {
		m.preview.SetContent("Select a signal and press enter.")
		return
	}
	if msg, ok := m.reportErr[m.previewName]; ok {
		m.preview.SetContent(errorStyle.Render(fmt.Sprintf("%s: %s", m.previewName, msg)))
		return
	}
	rep, ok := m.reports[m.previewName]
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, rep); err != nil {
		m.preview.SetContent(fmt.Sprintf("Failed to render summary: %v", err))
		return
	}
	if err := stats.RenderWaveforms(&buf, rep, m.width, plotHeight, true); err != nil {
		m.preview.SetContent(fmt.Sprintf("Failed to render waveforms: %v", err))
		return
	}
	m.preview.SetContent(strings.TrimRight(buf.String(), "\n"))
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	if next == tabPreview && m.previewName == "" {
		m.openPreview(m.selected())
		return
	}
	m.activeTab = next
	if m.activeTab == tabSignals {
		m.signals.Focus()
	} else {
		m.signals.Blur()
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" || m.status != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.preview.Width = m.width
	m.preview.Height = bodyHeight
	m.signals.SetColumns(signalColumns(m.width))
	m.signals.SetWidth(m.width)
	m.signals.SetHeight(maxInt(1, bodyHeight-1))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == tabPreview && m.previewName != "" {
			tab = tab + ": " + m.previewName
		}
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	complete := len(m.catalog.Complete())
	summary := fmt.Sprintf("Logs: %s  signals=%d  complete=%d  out=%s  i_primary=%g A",
		m.catalog.Dir, len(m.catalog.Entries), complete, m.cfg.OutDir, m.cfg.IPrimary)
	return padLines(m.renderTabs(), m.width) + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderBody() string {
	if m.activeTab == tabPreview {
		return m.preview.View()
	}
	if len(m.catalog.Entries) == 0 {
		return "No signal logs found."
	}
	return tableMutedStyle.Render(m.signals.View())
}

func (m *Model) renderFooter() string {
	help := "Nav: tab/left/right  Move: up/down  Preview: enter  Render: r  Quit: q"
	if m.activeTab == tabPreview {
		help = "Nav: tab/left/right  Scroll: up/down/pgup/pgdn  Render: r  Quit: q"
	}
	out := headerStyle.Render(help)
	switch {
	case m.errMsg != "":
		out += "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	case m.status != "":
		out += "\n" + statusStyle.Render(truncateLine(m.status, m.width))
	}
	return out
}

func signalColumns(width int) []table.Column {
	cols := []table.Column{
		{Title: "Signal", Width: 32},
		{Title: "Reference", Width: 30},
		{Title: "ADS1015", Width: 8},
		{Title: "ADS1115", Width: 8},
		{Title: "Chart", Width: 6},
		{Title: "Shape", Width: sparkWidth},
	}
	fixed := 0
	for _, c := range cols[1:] {
		fixed += c.Width + 1
	}
	if width > 0 {
		cols[0].Width = maxInt(12, width-fixed-1)
	}
	return cols
}

func (m *Model) signalRows() []table.Row {
	rows := make([]table.Row, 0, len(m.catalog.Entries))
	for _, e := range m.catalog.Entries {
		ref := "unrecognized"
		if p, err := generator.ParseName(e.Name); err == nil {
			ref = generator.Describe(p)
		}
		marks := map[string]string{}
		for _, unit := range model.Units {
			marks[unit.Model] = presentMark
		}
		for _, unit := range e.Missing {
			marks[unit.Model] = missingMark
		}
		chart := notRenderedYet
		if s, ok := m.rendered[e.Name]; ok {
			chart = s
		}
		shape := ""
		if rep, ok := m.reports[e.Name]; ok {
			if u, ok := rep.Unit(model.ADS1115.Model); ok {
				shape = stats.SparklineWidth(u.SeriesV, sparkWidth)
			}
		}
		rows = append(rows, table.Row{e.Name, ref, marks[model.ADS1015.Model], marks[model.ADS1115.Model], chart, shape})
	}
	return rows
}

func signalTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
