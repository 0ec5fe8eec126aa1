// Package tui is the Bubble Tea front end. The App's Update loop owns the
// timer Machine: key presses and scheduler ticks are the only inputs.
package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/sadopc/smokebreak/internal/export"
	"github.com/sadopc/smokebreak/internal/settings"
	"github.com/sadopc/smokebreak/internal/stats"
	"github.com/sadopc/smokebreak/internal/timer"
)

var exportFormats = []string{export.FormatCSV, export.FormatJSON}

// Options configures NewApp. The zero value is usable.
type Options struct {
	Context   context.Context
	Logger    zerolog.Logger
	Sound     timer.SoundPlayer
	Observers []timer.Observer
	ExportDir string
	Now       func() time.Time
}

// App is the root Bubble Tea model.
type App struct {
	ctx      context.Context
	machine  *timer.Machine
	settings *settings.Model
	stats    *stats.Engine
	sched    *scheduler
	width    int
	height   int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	confirmClear  bool

	pomodoro     *pomodoroModel
	statsView    statsModel
	settingsView settingsModel

	help      help.Model
	status    string
	statusErr bool
	exportDir string
	now       func() time.Time
}

func NewApp(sm *settings.Model, engine *stats.Engine, opts Options) App {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExportDir == "" {
		opts.ExportDir, _ = os.UserHomeDir()
	}

	sched := newScheduler()
	pm := newPomodoroModel(sm.Current())

	observers := append(timer.Observers{pm}, opts.Observers...)
	machineOpts := []timer.Option{
		timer.WithObserver(observers),
		timer.WithNotifier(pm),
		timer.WithLogger(opts.Logger),
	}
	if opts.Sound != nil {
		machineOpts = append(machineOpts, timer.WithSound(opts.Sound))
	}
	m := timer.New(sched, engine, sm.Current(), machineOpts...)
	sm.Subscribe(m.ApplySettings)
	sm.Subscribe(pm.applySettings)
	m.Publish()

	h := help.New()
	h.ShowAll = false

	a := App{
		ctx:          opts.Context,
		machine:      m,
		settings:     sm,
		stats:        engine,
		sched:        sched,
		activeView:   viewTimer,
		pomodoro:     pm,
		statsView:    newStatsModel(),
		settingsView: newSettingsModel(sm),
		help:         h,
		exportDir:    opts.ExportDir,
		now:          opts.Now,
	}
	a.statsView.buildChart(pm.chart)
	return a
}

func (a App) Init() tea.Cmd {
	return a.effects()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := a.update(msg)
	if next.pomodoro.statsDirty {
		next.pomodoro.statsDirty = false
		next.statsView.buildChart(next.pomodoro.chart)
	}
	return next, tea.Batch(cmd, next.effects())
}

// effects collects the commands requested by Machine side effects.
func (a App) effects() tea.Cmd {
	return tea.Batch(
		a.sched.pending(),
		a.pomodoro.pendingFade(),
		a.pomodoro.pendingTitle(a.machine.State()),
	)
}

func (a App) update(msg tea.Msg) (App, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.pomodoro.setSize(a.width, contentHeight)
		a.statsView.setSize(a.width, contentHeight)
		a.settingsView.setSize(a.width, contentHeight)
		a.statsView.buildChart(a.pomodoro.chart)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If the settings form is capturing input, delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		if a.confirmClear {
			a.confirmClear = false
			if key.Matches(msg, keys.ClearStats) {
				return a.clearStatistics()
			}
			a.status = ""
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			a.machine.Pause()
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimer
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewStats
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, nil
		case key.Matches(msg, keys.Toggle):
			a.machine.Toggle()
			return a, nil
		case key.Matches(msg, keys.Skip):
			a.machine.Skip(a.ctx)
			return a, nil
		case key.Matches(msg, keys.Reset):
			a.machine.Reset()
			a.pomodoro.banner = ""
			a.status = "Timer reset"
			a.statusErr = false
			return a, nil
		case key.Matches(msg, keys.ClearStats):
			a.confirmClear = true
			a.status = "Press C again to clear all statistics"
			a.statusErr = false
			return a, nil
		}

	case tickMsg:
		if !a.sched.live(msg.gen) {
			return a, nil
		}
		a.machine.Tick(a.ctx)
		if a.sched.live(msg.gen) {
			return a, a.sched.next()
		}
		return a, nil

	case fadeDoneMsg:
		a.pomodoro.fadeDone(msg.seq)
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) clearStatistics() (App, tea.Cmd) {
	if err := a.machine.ClearStatistics(a.ctx); err != nil {
		a.status = fmt.Sprintf("Statistics cleared, not saved: %v", err)
		a.statusErr = true
		return a, nil
	}
	a.status = "Statistics cleared"
	a.statusErr = false
	return a, nil
}

func (a App) updateActiveView(msg tea.Msg) (App, tea.Cmd) {
	var cmd tea.Cmd
	if a.activeView == viewSettings {
		a.settingsView, cmd = a.settingsView.update(a.ctx, msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	return a.activeView == viewSettings && a.settingsView.formActive
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.pomodoro.view(a.machine.State(), a.machine.Settings())
	case viewStats:
		content = a.statsView.view(a.pomodoro, a.stats.Streak())
	case viewSettings:
		content = a.settingsView.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("smokebreak")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Countdown indicator in footer
	st := a.machine.State()
	timerInfo := warningStyle.Render(" ⏸ " + st.Clock())
	if st.Running {
		timerInfo = successStyle.Render(" ● " + st.Clock())
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (App, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportFormats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport snapshots state on the Update goroutine and writes the file in
// the returned command.
func (a App) doExport(format string) tea.Cmd {
	s := a.settings.Current()
	st := a.stats.Snapshot()
	now := a.now()
	dir := a.exportDir

	return func() tea.Msg {
		path, err := export.Write(dir, format, s, st, now)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
