package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/sadopc/smokebreak/internal/export"
	"github.com/sadopc/smokebreak/internal/settings"
	"github.com/sadopc/smokebreak/internal/stats"
	"github.com/sadopc/smokebreak/internal/store"
	"github.com/sadopc/smokebreak/internal/timer"
)

var testNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	app      App
	settings *settings.Model
	stats    *stats.Engine
	dir      string
}

func newTestEnv(t *testing.T, s settings.Settings) *testEnv {
	t.Helper()
	kv, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	ctx := context.Background()
	sm := settings.NewModel(kv, zerolog.Nop())
	sm.Load(ctx)
	if err := sm.Save(ctx, s); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	engine := stats.New(kv, stats.WithClock(&stats.ManualClock{CurrentTime: testNow}))
	engine.Load(ctx)

	dir := t.TempDir()
	app := NewApp(sm, engine, Options{
		Context:   ctx,
		ExportDir: dir,
		Now:       func() time.Time { return testNow },
	})
	return &testEnv{app: app, settings: sm, stats: engine, dir: dir}
}

func (e *testEnv) send(msg tea.Msg) tea.Cmd {
	next, cmd := e.app.Update(msg)
	e.app = next.(App)
	return cmd
}

func (e *testEnv) press(k string) tea.Cmd {
	return e.send(keyMsg(k))
}

// tick delivers a tick for the scheduler's current generation.
func (e *testEnv) tick() {
	e.send(tickMsg{gen: e.app.sched.gen})
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func oneMinute() settings.Settings {
	s := settings.Defaults()
	s.FocusDuration = 1
	s.ShortBreakDuration = 1
	s.LongBreakDuration = 2
	s.LongBreakInterval = 2
	return s
}

// ============================================================
// Scheduler
// ============================================================

func TestSchedulerGenerations(t *testing.T) {
	s := newScheduler()
	if s.live(0) {
		t.Fatal("stopped scheduler should not be live")
	}

	s.Start(time.Second)
	gen := s.gen
	if !s.live(gen) {
		t.Fatal("current generation should be live")
	}
	if s.pending() == nil {
		t.Fatal("start should issue a first tick")
	}
	if s.pending() != nil {
		t.Fatal("first tick should be issued once")
	}

	s.Stop()
	if s.live(gen) {
		t.Fatal("stop should invalidate the generation")
	}

	s.Start(time.Second)
	if s.live(gen) {
		t.Fatal("old generation should stay dead after restart")
	}
	if !s.live(s.gen) {
		t.Fatal("new generation should be live")
	}
}

func TestSchedulerStopClearsPending(t *testing.T) {
	s := newScheduler()
	s.Start(time.Second)
	s.Stop()
	if s.pending() != nil {
		t.Fatal("stopped scheduler should not issue ticks")
	}
}

// ============================================================
// App: timer controls
// ============================================================

func TestAppInitialState(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	st := e.app.machine.State()
	if st.Running || st.Phase != timer.Focus || st.Clock() != "25:00" {
		t.Fatalf("unexpected initial state: %+v", st)
	}
	if e.app.pomodoro.quote == "" {
		t.Fatal("first quote should be set immediately")
	}
}

func TestAppToggle(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())

	cmd := e.press(" ")
	if !e.app.machine.State().Running {
		t.Fatal("space should start the timer")
	}
	if cmd == nil {
		t.Fatal("start should schedule a tick")
	}

	e.press("s")
	if e.app.machine.State().Running {
		t.Fatal("s should pause the timer")
	}
}

func TestAppTickCountsDown(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	e.press(" ")

	e.tick()
	e.tick()
	if got := e.app.machine.State().Clock(); got != "24:58" {
		t.Fatalf("expected 24:58, got %s", got)
	}
}

func TestAppStaleTickIgnored(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	e.press(" ")
	gen := e.app.sched.gen
	e.press(" ")

	e.send(tickMsg{gen: gen})
	if got := e.app.machine.State().Clock(); got != "25:00" {
		t.Fatalf("stale tick changed the clock to %s", got)
	}

	// Resuming opens a new generation; the old tick is still dropped.
	e.press(" ")
	e.send(tickMsg{gen: gen})
	if got := e.app.machine.State().Clock(); got != "25:00" {
		t.Fatalf("stale tick after resume changed the clock to %s", got)
	}
}

func TestAppFullFocusPhase(t *testing.T) {
	e := newTestEnv(t, oneMinute())
	e.press(" ")

	for range 60 {
		e.tick()
	}

	st := e.app.machine.State()
	if st.Phase != timer.ShortBreak {
		t.Fatalf("expected short break, got %v", st.Phase)
	}
	if !st.Running {
		t.Fatal("auto-start should keep the timer running")
	}
	if st.CompletedSessionsToday != 1 {
		t.Fatalf("expected 1 session today, got %d", st.CompletedSessionsToday)
	}
	if e.stats.Today().Count != 1 || e.stats.Today().FocusMinutes != 1 {
		t.Fatalf("session not recorded: %+v", e.stats.Today())
	}
	if e.app.pomodoro.today.Count != 1 {
		t.Fatal("view statistics not refreshed")
	}
	if !e.app.pomodoro.fading {
		t.Fatal("phase change should start the quote fade")
	}
}

func TestAppSkip(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())

	e.press("n")
	if e.app.machine.State().Phase != timer.Focus {
		t.Fatal("skip while paused in focus should be ignored")
	}

	e.press(" ")
	e.press("n")
	st := e.app.machine.State()
	if st.Phase != timer.ShortBreak || !st.Running {
		t.Fatalf("expected running short break, got %+v", st)
	}
}

func TestAppReset(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	e.press(" ")
	e.tick()

	e.press("r")
	st := e.app.machine.State()
	if st.Running || st.Clock() != "25:00" {
		t.Fatalf("reset should stop at a fresh focus, got %+v", st)
	}
	if e.app.status != "Timer reset" {
		t.Fatalf("unexpected status %q", e.app.status)
	}
}

func TestAppClearStatsNeedsConfirmation(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	if err := e.stats.RecordSession(context.Background(), 25); err != nil {
		t.Fatal(err)
	}

	e.press("C")
	if e.stats.Total().Count != 1 {
		t.Fatal("first press should only ask for confirmation")
	}
	e.press("x")
	if e.app.confirmClear {
		t.Fatal("another key should cancel the confirmation")
	}
	if e.stats.Total().Count != 1 {
		t.Fatal("cancelled clear should keep statistics")
	}

	e.press("C")
	e.press("C")
	if e.stats.Total().Count != 0 {
		t.Fatal("second press should clear statistics")
	}
	if e.app.status != "Statistics cleared" {
		t.Fatalf("unexpected status %q", e.app.status)
	}
}

func TestAppQuitPauses(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	e.press(" ")
	cmd := e.press("q")
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if e.app.machine.State().Running {
		t.Fatal("quit should pause the timer")
	}
}

// ============================================================
// App: navigation and view
// ============================================================

func TestAppTabs(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())

	e.press("2")
	if e.app.activeView != viewStats {
		t.Fatal("2 should open stats")
	}
	e.press("3")
	if e.app.activeView != viewSettings {
		t.Fatal("3 should open settings")
	}
	e.press("tab")
	if e.app.activeView != viewTimer {
		t.Fatal("tab should wrap to the timer")
	}
}

func TestAppView(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	if e.app.View() != "Loading..." {
		t.Fatal("view before sizing should be a placeholder")
	}

	e.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	v := e.app.View()
	for _, want := range []string{"smokebreak", "Timer", "Stats", "Settings", "25:00", "Focus", "no butts yet"} {
		if !strings.Contains(v, want) {
			t.Errorf("timer view missing %q", want)
		}
	}

	e.press("2")
	v = e.app.View()
	for _, want := range []string{"Statistics", "Today", "This week", "All time", "no streak"} {
		if !strings.Contains(v, want) {
			t.Errorf("stats view missing %q", want)
		}
	}

	e.press("3")
	v = e.app.View()
	for _, want := range []string{"Focus", "25 min", "Long break every", "4 sessions"} {
		if !strings.Contains(v, want) {
			t.Errorf("settings view missing %q", want)
		}
	}
}

func TestAppBreakViewShowsCigaretteTime(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	e.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	e.press(" ")
	e.press("n")

	v := e.app.View()
	if !strings.Contains(v, "Cigarette Time") {
		t.Fatal("break view should show the cigarette heading")
	}
	if !strings.Contains(v, "05:00") {
		t.Fatal("break view should show the break length")
	}
}

func TestAppShowsAnnouncement(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	e.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	e.press(" ")
	e.press("n")

	if !strings.Contains(e.app.View(), "Focus session complete. Break: 5 minutes.") {
		t.Fatal("timer view should show the phase announcement")
	}

	e.press("r")
	if !strings.Contains(e.app.View(), "Timer reset") {
		t.Fatal("timer view should show the reset announcement")
	}
}

func TestAppHelpToggle(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	e.press("?")
	if !e.app.showHelp || !e.app.help.ShowAll {
		t.Fatal("? should show full help")
	}
	e.press("?")
	if e.app.showHelp {
		t.Fatal("? should hide full help")
	}
}

// ============================================================
// Export
// ============================================================

func TestExportPicker(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())

	e.press("e")
	if !e.app.exportPicking {
		t.Fatal("e should open the export picker")
	}
	e.press("down")
	if e.app.exportCursor != 1 {
		t.Fatalf("expected cursor 1, got %d", e.app.exportCursor)
	}
	e.press("esc")
	if e.app.exportPicking {
		t.Fatal("esc should close the picker")
	}

	e.press("e")
	cmd := e.press("enter")
	if e.app.exportPicking {
		t.Fatal("enter should close the picker")
	}
	if cmd == nil {
		t.Fatal("enter should return the export command")
	}
}

func TestDoExport(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	if err := e.stats.RecordSession(context.Background(), 25); err != nil {
		t.Fatal(err)
	}

	for _, format := range exportFormats {
		msg := e.app.doExport(format)()
		done, ok := msg.(exportDoneMsg)
		if !ok {
			t.Fatalf("expected exportDoneMsg, got %T", msg)
		}
		want := filepath.Join(e.dir, export.FileName(format, testNow))
		if done.path != want {
			t.Fatalf("expected %s, got %s", want, done.path)
		}
		data, err := os.ReadFile(done.path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "2026-10-14") {
			t.Errorf("%s export missing today's entry", format)
		}

		e.send(done)
		if !strings.HasPrefix(e.app.status, "Exported to ") {
			t.Fatalf("unexpected status %q", e.app.status)
		}
	}
}

func TestDoExportSnapshotsBeforeRunning(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	cmd := e.app.doExport(export.FormatCSV)

	if err := e.stats.RecordSession(context.Background(), 25); err != nil {
		t.Fatal(err)
	}
	done := cmd().(exportDoneMsg)

	data, err := os.ReadFile(done.path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "2026-10-14") {
		t.Fatal("export should use the statistics at the time it was requested")
	}
}

func TestDoExportBadDir(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	e.app.exportDir = filepath.Join(e.dir, "missing", "dir")

	msg := e.app.doExport(export.FormatJSON)()
	status, ok := msg.(statusMsg)
	if !ok || !status.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

// ============================================================
// Settings view
// ============================================================

func TestSettingsEnterOpensForm(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	e.press("3")
	e.press("enter")
	if !e.app.settingsView.formActive {
		t.Fatal("enter should open the settings form")
	}
	if *e.app.settingsView.focus != "25" {
		t.Fatalf("form should be filled from current settings, got %q", *e.app.settingsView.focus)
	}

	// Keys go to the form while it is open.
	e.press("q")
	if e.app.activeView != viewSettings {
		t.Fatal("form should capture keys")
	}

	e.press("esc")
	if e.app.settingsView.formActive {
		t.Fatal("esc should close the form")
	}
}

func TestSettingsSaveReachesMachine(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	sv := e.app.settingsView
	sv, _ = sv.showForm()
	*sv.focus = "50"
	*sv.interval = "0"
	*sv.smoke = false

	msg := sv.save(context.Background())()
	if status := msg.(statusMsg); status.text != "Settings saved" {
		t.Fatalf("unexpected status %q", status.text)
	}

	cur := e.settings.Current()
	if cur.FocusDuration != 50 {
		t.Fatalf("expected focus 50, got %d", cur.FocusDuration)
	}
	if cur.LongBreakInterval != 4 {
		t.Fatalf("invalid interval should keep 4, got %d", cur.LongBreakInterval)
	}
	if cur.SmokeEnabled || e.app.pomodoro.smokeEnabled {
		t.Fatal("smoke setting should reach the view")
	}
	if got := e.app.machine.State().Clock(); got != "50:00" {
		t.Fatalf("idle countdown should follow the new focus length, got %s", got)
	}
}

func TestSettingsPatch(t *testing.T) {
	sm := newSettingsModel(nil)
	*sm.focus = "30"
	*sm.shortBreak = "6"
	*sm.longBreak = "20"
	*sm.interval = "3"
	*sm.sound = true

	p := sm.patch()
	if p[settings.FieldFocusDuration] != "30" || p[settings.FieldLongBreakInterval] != "3" {
		t.Fatalf("unexpected patch %v", p)
	}
	if p[settings.FieldSoundEnabled] != "true" || p[settings.FieldAutoStart] != "false" {
		t.Fatalf("unexpected boolean fields %v", p)
	}
	if len(p) != 8 {
		t.Fatalf("expected 8 fields, got %d", len(p))
	}
}

func TestValidatePositive(t *testing.T) {
	for _, v := range []string{"1", "25", " 5 "} {
		if err := validatePositive(v); err != nil {
			t.Errorf("%q should be valid: %v", v, err)
		}
	}
	for _, v := range []string{"", "0", "-3", "abc", "2.5"} {
		if err := validatePositive(v); err == nil {
			t.Errorf("%q should be rejected", v)
		}
	}
}

// ============================================================
// Timer view details
// ============================================================

func TestQuoteFade(t *testing.T) {
	p := newPomodoroModel(settings.Defaults())
	p.pick = func(int) int { return 0 }

	p.OnPhaseChanged(timer.Focus, 25)
	if p.quote != `"`+focusQuotes[0]+`"` || p.fading {
		t.Fatal("first phase should set the quote without fading")
	}
	if p.pendingFade() != nil {
		t.Fatal("no fade should be pending")
	}

	p.OnPhaseChanged(timer.ShortBreak, 5)
	if !p.fading {
		t.Fatal("phase change should start a fade")
	}
	if p.pendingFade() == nil {
		t.Fatal("fade should request its end")
	}
	if p.pendingFade() != nil {
		t.Fatal("fade end should be requested once")
	}

	stale := p.fadeSeq
	p.OnPhaseChanged(timer.Focus, 25)
	p.fadeDone(stale)
	if !p.fading {
		t.Fatal("stale fade end should be ignored")
	}

	p.fadeDone(p.fadeSeq)
	if p.fading {
		t.Fatal("fade should end")
	}
	if p.quote != `"`+focusQuotes[0]+`"` {
		t.Fatalf("unexpected quote %q", p.quote)
	}
}

func TestFadeDoneMsg(t *testing.T) {
	e := newTestEnv(t, settings.Defaults())
	e.press(" ")
	e.press("n")
	if !e.app.pomodoro.fading {
		t.Fatal("skip should start a fade")
	}
	e.send(fadeDoneMsg{seq: e.app.pomodoro.fadeSeq})
	if e.app.pomodoro.fading {
		t.Fatal("fadeDoneMsg should end the fade")
	}
}

func TestQuoteFor(t *testing.T) {
	last := func(n int) int { return n - 1 }
	if got := quoteFor(timer.LongBreak, last); got != `"`+cigaretteQuotes[len(cigaretteQuotes)-1]+`"` {
		t.Fatalf("unexpected break quote %q", got)
	}
	if got := quoteFor(timer.Focus, nil); !strings.HasPrefix(got, `"`) {
		t.Fatalf("unexpected focus quote %q", got)
	}
}

func TestWindowTitle(t *testing.T) {
	tests := []struct {
		st   timer.State
		want string
	}{
		{timer.State{Phase: timer.Focus, Minutes: 24, Seconds: 59}, "24:59 - Focus"},
		{timer.State{Phase: timer.ShortBreak, Minutes: 5}, "05:00 - Cigarette Time"},
		{timer.State{Phase: timer.LongBreak, Minutes: 15}, "15:00 - Cigarette Time"},
	}
	for _, tt := range tests {
		if got := windowTitle(tt.st); got != tt.want {
			t.Errorf("windowTitle(%+v) = %q, want %q", tt.st, got, tt.want)
		}
	}
}

func TestPendingTitleOnTick(t *testing.T) {
	p := newPomodoroModel(settings.Defaults())
	st := timer.State{Phase: timer.Focus, Minutes: 25}
	if p.pendingTitle(st) != nil {
		t.Fatal("no title update before any event")
	}
	p.OnTick(24, 59)
	if p.pendingTitle(st) == nil {
		t.Fatal("tick should request a title update")
	}
	if p.pendingTitle(st) != nil {
		t.Fatal("title update should be requested once")
	}
}

func TestSmokeAnimatesOnlyDuringBreaks(t *testing.T) {
	p := newPomodoroModel(settings.Defaults())
	p.OnPhaseChanged(timer.Focus, 25)
	p.OnTick(24, 59)
	if p.smokeFrame != 0 {
		t.Fatal("smoke should not animate during focus")
	}
	p.OnPhaseChanged(timer.ShortBreak, 5)
	p.OnTick(4, 59)
	p.OnTick(4, 58)
	if p.smokeFrame != 2 {
		t.Fatalf("expected frame 2, got %d", p.smokeFrame)
	}
}

func TestNotifyShowsBanner(t *testing.T) {
	p := newPomodoroModel(settings.Defaults())
	p.Notify("Cigarette Time", "Focus session complete. Break: 5 minutes.")
	if p.banner != "Cigarette Time: Focus session complete. Break: 5 minutes." {
		t.Fatalf("unexpected banner %q", p.banner)
	}
}

func TestRenderButts(t *testing.T) {
	if got := renderButts(0); !strings.Contains(got, "no butts yet") {
		t.Fatalf("unexpected empty tray %q", got)
	}
	if got := renderButts(3); strings.Count(got, "▭") != 3 {
		t.Fatalf("expected 3 butts in %q", got)
	}
	got := renderButts(maxButts + 2)
	if strings.Count(got, "▭") != maxButts || !strings.Contains(got, "+2") {
		t.Fatalf("expected overflow marker in %q", got)
	}
}

// ============================================================
// Stats view
// ============================================================

func TestBuildChart(t *testing.T) {
	sm := newStatsModel()
	sm.setSize(100, 40)

	days := make([]stats.ChartDay, 7)
	for i := range days {
		d := testNow.AddDate(0, 0, i-6)
		days[i] = stats.ChartDay{Date: d.Format(stats.DateLayout), Label: d.Format("Mon"), Count: i}
	}
	sm.buildChart(days)

	if sm.chart.View() == "" {
		t.Fatal("chart should render")
	}
}

func TestSummaryTable(t *testing.T) {
	p := newPomodoroModel(settings.Defaults())
	p.today = stats.Totals{Count: 2, FocusMinutes: 50}
	p.total = stats.Totals{Count: 5, FocusMinutes: 125}

	got := renderSummaryTable(p, 3, 80)
	for _, want := range []string{"50m", "2h 05m", "3 days streak"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q", want)
		}
	}
	if got := renderSummaryTable(p, 1, 80); !strings.Contains(got, "1 day streak") {
		t.Error("singular streak")
	}
}
