package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/smokebreak/internal/settings"
	"github.com/sadopc/smokebreak/internal/stats"
	"github.com/sadopc/smokebreak/internal/timer"
)

const (
	fadeDuration = 400 * time.Millisecond
	maxButts     = 12
)

var smokeFrames = [][]string{
	{"  (   ", "   )  ", "  (   "},
	{"   )  ", "  (   ", "   )  "},
	{"  ( ) ", "   (  ", "  )   "},
	{"   (  ", "  ) ( ", "   )  "},
}

// pomodoroModel is the timer view. It observes the Machine and keeps the
// presentation state the Machine does not own: quotes, the phase fade, the
// smoke animation and the latest statistics.
type pomodoroModel struct {
	width  int
	height int

	phase     timer.Phase
	quote     string
	nextQuote string
	pick      func(int) int

	fading      bool
	fadeSeq     int
	fadePending bool
	titleDirty  bool

	smokeEnabled bool
	smokeFrame   int

	today, week, total stats.Totals
	chart              []stats.ChartDay
	statsDirty         bool

	banner       string
	announcement string
}

func newPomodoroModel(s settings.Settings) *pomodoroModel {
	return &pomodoroModel{smokeEnabled: s.SmokeEnabled}
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p *pomodoroModel) applySettings(s settings.Settings) {
	p.smokeEnabled = s.SmokeEnabled
}

func (p *pomodoroModel) OnPhaseChanged(phase timer.Phase, _ int) {
	p.phase = phase
	p.titleDirty = true
	if p.quote == "" {
		p.quote = quoteFor(phase, p.pick)
		return
	}
	p.nextQuote = quoteFor(phase, p.pick)
	p.fading = true
	p.fadeSeq++
	p.fadePending = true
}

func (p *pomodoroModel) OnTransition(timer.Phase, timer.Phase) {}

func (p *pomodoroModel) OnTick(int, int) {
	p.titleDirty = true
	if p.phase.IsBreak() {
		p.smokeFrame++
	}
}

func (p *pomodoroModel) OnSessionCompleted(int) {}

func (p *pomodoroModel) OnStatisticsUpdated(today, week, total stats.Totals, chart []stats.ChartDay) {
	p.today, p.week, p.total = today, week, total
	p.chart = chart
	p.statsDirty = true
}

func (p *pomodoroModel) OnAnnounce(message string) {
	p.announcement = message
}

// Notify shows notifications as an in-app banner.
func (p *pomodoroModel) Notify(title, body string) {
	p.banner = title + ": " + body
}

// pendingFade returns the command that ends the fade started by the latest
// phase change, once.
func (p *pomodoroModel) pendingFade() tea.Cmd {
	if !p.fadePending {
		return nil
	}
	p.fadePending = false
	seq := p.fadeSeq
	return tea.Tick(fadeDuration, func(time.Time) tea.Msg {
		return fadeDoneMsg{seq: seq}
	})
}

func (p *pomodoroModel) fadeDone(seq int) {
	if seq != p.fadeSeq {
		return
	}
	p.fading = false
	p.quote = p.nextQuote
}

// pendingTitle returns a window-title update when the countdown changed.
func (p *pomodoroModel) pendingTitle(st timer.State) tea.Cmd {
	if !p.titleDirty {
		return nil
	}
	p.titleDirty = false
	return tea.SetWindowTitle(windowTitle(st))
}

func windowTitle(st timer.State) string {
	return fmt.Sprintf("%s - %s", st.Clock(), st.Phase.Title())
}

func (p *pomodoroModel) view(st timer.State, s settings.Settings) string {
	w := max(p.width-4, 20)

	phaseStyle := accentStyle
	switch st.Phase {
	case timer.ShortBreak:
		phaseStyle = successStyle
	case timer.LongBreak:
		phaseStyle = highlightStyle
	}

	title := phaseStyle.Bold(true).Render(st.Phase.Title())
	if st.Phase == timer.LongBreak {
		title += mutedStyle.Render("  (long)")
	}

	clockStyle := timerPausedStyle
	if st.Running {
		clockStyle = timerRunningStyle
	}
	timeDisplay := clockStyle.Width(w - 6).Render(st.Clock())

	quote := p.quote
	if p.fading {
		quote = ""
	}
	quoteView := subtitleStyle.Italic(true).Width(w - 6).Align(lipgloss.Center).Render(quote)

	state := mutedStyle.Render("Paused")
	if st.Running {
		state = successStyle.Render("Running")
	}

	parts := []string{title, "", timeDisplay, state}
	if p.announcement != "" {
		parts = append(parts, mutedStyle.Render(p.announcement))
	}
	parts = append(parts, "", quoteView, "")
	if st.Phase.IsBreak() && p.smokeEnabled {
		parts = append(parts, p.renderSmoke(), "")
	}
	parts = append(parts,
		p.renderProgress(st, s),
		"",
		renderButts(st.CompletedSessionsToday),
	)
	if p.banner != "" {
		parts = append(parts, "", warningStyle.Render(p.banner))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)

	controls := mutedStyle.Render("space: start/pause  n: skip  r: reset")
	if !st.Running && st.Phase == timer.Focus {
		controls = mutedStyle.Render("space: start  r: reset")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

func (p *pomodoroModel) renderSmoke() string {
	frame := smokeFrames[p.smokeFrame%len(smokeFrames)]
	return mutedStyle.Render(strings.Join(frame, "\n"))
}

// renderProgress shows the sessions done towards the next long break.
func (p *pomodoroModel) renderProgress(st timer.State, s settings.Settings) string {
	interval := s.LongBreakInterval
	done := st.SessionsUntilLongBreak
	var parts []string
	for i := 0; i < interval; i++ {
		if i < done {
			parts = append(parts, successStyle.Render("●"))
		} else if i == done && st.Phase == timer.Focus {
			parts = append(parts, accentStyle.Render("◐"))
		} else {
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	progress := strings.Join(parts, " ")
	counter := mutedStyle.Render(fmt.Sprintf("  %d/%d", min(done, interval), interval))
	return progress + counter
}

// renderButts draws one cigarette butt per completed session today.
func renderButts(n int) string {
	if n == 0 {
		return mutedStyle.Render("no butts yet")
	}
	butt := buttStyle.Render("▭") + " "
	butts := strings.TrimSpace(strings.Repeat(butt, min(n, maxButts)))
	if n > maxButts {
		butts += mutedStyle.Render(fmt.Sprintf(" +%d", n-maxButts))
	}
	return butts
}
