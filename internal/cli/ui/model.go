// Package ui implements the interactive terminal frontend shown while the
// engine reads input tables and fits the consumption map.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gfon/fuefit/internal/cli/hooks"
	"github.com/gfon/fuefit/pkg/fit"
)

const listHeightMargin = 4 // header + footer + padding

// Model is the Bubble Tea state for a fuefit run: the scrolling list of
// input files, a spinner while work is in flight, and a summary footer.
type Model struct {
	list    list.Model
	spinner spinner.Model

	width       int
	height      int
	initialized bool
	quitting    bool

	version string
	phase   string

	// fileItems and itemIndex track the input files in discovery order.
	// A fuefit run reads at most a handful of tables, so the list is
	// rebuilt eagerly on every status change.
	fileItems []fileItem
	itemIndex map[string]int

	summary Summary
}

// fileItem is one input file in the list.
type fileItem struct {
	path     string
	status   fit.Status
	message  string
	duration time.Duration
}

// Summary holds the aggregated statistics displayed in the footer.
type Summary struct {
	TotalFiles  int
	LoadedCount int
	ErrorCount  int
	PointCount  int
	CoeffCount  int
	StartTime   time.Time
}

// NewModel creates the initial TUI model. version appears in the header.
func NewModel(version string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorReading)

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	delegate.ShowDescription = true
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(colorSelectedDescFg).
		Background(colorSelectedBg).
		Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.
		Foreground(colorNormalFg).Padding(0, 0, 0, 1)
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.
		Foreground(colorNormalDescFg).Padding(0, 0, 0, 1)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return Model{
		list:      l,
		spinner:   s,
		version:   version,
		phase:     "Starting...",
		itemIndex: make(map[string]int),
		summary:   Summary{StartTime: time.Now()},
	}
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles terminal events and the hook messages forwarded by the CLI.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := m.height - listHeightMargin
		if listHeight < 1 {
			listHeight = 1
		}
		m.list.SetSize(m.width, listHeight)
		m.initialized = true

	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
		var listCmd tea.Cmd
		m.list, listCmd = m.list.Update(msg)
		cmds = append(cmds, listCmd)

	case spinner.TickMsg:
		if m.quitting || m.phase == "Complete" {
			return m, nil
		}
		var spinnerCmd tea.Cmd
		m.spinner, spinnerCmd = m.spinner.Update(msg)
		cmds = append(cmds, spinnerCmd)

	case hooks.FileDiscoveredMsg:
		if _, exists := m.itemIndex[msg.Path]; !exists {
			m.fileItems = append(m.fileItems, fileItem{path: msg.Path, status: fit.StatusPending})
			m.itemIndex[msg.Path] = len(m.fileItems) - 1
			m.summary.TotalFiles++
			cmds = append(cmds, m.refreshList())
		}
		if !m.quitting && m.phase == "Starting..." {
			m.phase = "Reading..."
		}

	case hooks.FileStatusUpdateMsg:
		idx, ok := m.itemIndex[msg.Path]
		if !ok {
			m.fileItems = append(m.fileItems, fileItem{path: msg.Path})
			idx = len(m.fileItems) - 1
			m.itemIndex[msg.Path] = idx
			m.summary.TotalFiles++
		}
		item := &m.fileItems[idx]
		switch {
		case msg.Status == fit.StatusLoaded && item.status != fit.StatusLoaded:
			m.summary.LoadedCount++
		case msg.Status == fit.StatusFailed && item.status != fit.StatusFailed:
			m.summary.ErrorCount++
		}
		item.status = msg.Status
		item.message = msg.Message
		item.duration = msg.Duration
		cmds = append(cmds, m.refreshList())

	case hooks.RunCompleteMsg:
		m.phase = "Complete"
		m.summary.TotalFiles = msg.Report.Summary.FileCount
		m.summary.PointCount = msg.Report.Summary.PointCount
		m.summary.CoeffCount = len(msg.Report.Summary.Coefficients)
		// Leave the final screen up until the user quits.
	}

	return m, tea.Batch(cmds...)
}

// View renders the header, file list and summary footer.
func (m *Model) View() string {
	if m.quitting {
		return "Exiting...\n"
	}
	if !m.initialized {
		return "Starting..."
	}

	headerLeft := fmt.Sprintf("fuefit v%s", m.version)
	headerRight := m.phase
	if m.phase != "Complete" {
		headerRight = m.spinner.View() + " " + m.phase
	}
	// The gap must leave room for the style's own horizontal padding, or
	// the rendered line exceeds the terminal width and wraps.
	headerGap := ""
	if pad := m.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight) - headerStyle.GetHorizontalFrameSize(); pad > 0 {
		headerGap = lipgloss.PlaceHorizontal(pad, lipgloss.Center, " ")
	}
	header := headerStyle.Width(m.width).Render(
		lipgloss.JoinHorizontal(lipgloss.Top, headerLeft, headerGap, headerRight))

	elapsed := time.Since(m.summary.StartTime).Round(time.Millisecond)
	footerLeft := fmt.Sprintf("Files: %d/%d | Failed: %d | Elapsed: %s",
		m.summary.LoadedCount, m.summary.TotalFiles, m.summary.ErrorCount, elapsed)
	if m.phase == "Complete" {
		footerLeft = fmt.Sprintf("Files: %d | Points: %d | Coefficients: %d | Elapsed: %s",
			m.summary.TotalFiles, m.summary.PointCount, m.summary.CoeffCount, elapsed)
	}
	footerRight := "q: quit"
	footerGap := ""
	if pad := m.width - lipgloss.Width(footerLeft) - lipgloss.Width(footerRight) - footerStyle.GetHorizontalFrameSize(); pad > 0 {
		footerGap = lipgloss.PlaceHorizontal(pad, lipgloss.Center, " ")
	}
	footer := footerStyle.Width(m.width).Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, footerLeft, footerGap, footerRight))

	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View(), footer)
}

// refreshList rebuilds the list component's items from fileItems.
func (m *Model) refreshList() tea.Cmd {
	items := make([]list.Item, len(m.fileItems))
	for i, item := range m.fileItems {
		items[i] = item
	}
	return m.list.SetItems(items)
}

// FilterValue implements list.Item.
func (i fileItem) FilterValue() string { return i.path }

// Title implements list.Item.
func (i fileItem) Title() string { return i.path }

// Description implements list.Item.
func (i fileItem) Description() string {
	var style lipgloss.Style
	icon := " "
	switch i.status {
	case fit.StatusLoaded:
		style = statusStyleLoaded
		icon = "✓"
	case fit.StatusFailed:
		style = statusStyleFailed
		icon = "✗"
	case fit.StatusReading:
		style = statusStyleReading
		icon = "…"
	default:
		style = statusStylePending
	}

	details := ""
	switch i.status {
	case fit.StatusFailed:
		details = i.message
	case fit.StatusLoaded:
		if i.message != "" {
			details = i.message
		}
		if i.duration > 0 {
			if details != "" {
				details += " "
			}
			details += formatDuration(i.duration)
		}
	}
	return fmt.Sprintf("%s %s", style.Render("["+icon+"]"), details)
}

// formatDuration keeps file timings short: µs, ms, or seconds.
func formatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return ""
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

const (
	colorHeaderFg = lipgloss.Color("252")
	colorHeaderBg = lipgloss.Color("62")

	colorFooterFg = lipgloss.Color("252")
	colorFooterBg = lipgloss.Color("56")

	colorNormalFg     = lipgloss.Color("250")
	colorNormalDescFg = lipgloss.Color("244")

	colorSelectedFg     = lipgloss.Color("255")
	colorSelectedBg     = lipgloss.Color("56")
	colorSelectedDescFg = lipgloss.Color("248")

	colorLoaded  = lipgloss.Color("40")
	colorFailed  = lipgloss.Color("196")
	colorPending = lipgloss.Color("244")
	colorReading = lipgloss.Color("205")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHeaderFg).
			Background(colorHeaderBg).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorFooterFg).
			Background(colorFooterBg).
			Padding(0, 1)

	statusStyleLoaded  = lipgloss.NewStyle().Foreground(colorLoaded)
	statusStyleFailed  = lipgloss.NewStyle().Foreground(colorFailed)
	statusStylePending = lipgloss.NewStyle().Foreground(colorPending)
	statusStyleReading = lipgloss.NewStyle().Foreground(colorReading)
)
