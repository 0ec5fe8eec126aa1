// Package timer implements the focus/break state machine. The Machine is a
// single-owner actor: every method must be called from the same goroutine,
// including Tick, which the injected Scheduler requests once per second.
package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sadopc/smokebreak/internal/settings"
	"github.com/sadopc/smokebreak/internal/stats"
)

// TickPeriod is how often a running Machine expects Tick.
const TickPeriod = time.Second

// Stats is the part of the statistics engine the Machine drives.
type Stats interface {
	RecordSession(ctx context.Context, focusMinutes int) error
	RollOver(ctx context.Context) bool
	Clear(ctx context.Context) error
	Today() stats.Totals
	Week() stats.Totals
	Total() stats.Totals
	WeekChart() []stats.ChartDay
}

type Option func(*Machine)

func WithObserver(o Observer) Option {
	return func(m *Machine) { m.obs = o }
}

func WithNotifier(n Notifier) Option {
	return func(m *Machine) { m.notifier = n }
}

func WithSound(p SoundPlayer) Option {
	return func(m *Machine) { m.sound = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Machine) { m.log = l.With().Str("component", "timer").Logger() }
}

type Machine struct {
	sched    Scheduler
	stats    Stats
	settings settings.Settings

	obs      Observer
	notifier Notifier
	sound    SoundPlayer
	log      zerolog.Logger

	state State
}

// New returns a paused Machine at the start of a focus phase. The display
// count starts at today's recorded sessions.
func New(sched Scheduler, st Stats, s settings.Settings, opts ...Option) *Machine {
	m := &Machine{
		sched:    sched,
		stats:    st,
		settings: s,
		obs:      NopObserver{},
		notifier: nopNotifier{},
		sound:    nopSound{},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.state = State{
		Phase:                  Focus,
		Minutes:                s.FocusDuration,
		CompletedSessionsToday: st.Today().Count,
	}
	return m
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) Settings() settings.Settings {
	return m.settings
}

// Publish emits the full current state to the observer.
func (m *Machine) Publish() {
	m.obs.OnPhaseChanged(m.state.Phase, Minutes(m.settings, m.state.Phase))
	m.obs.OnTick(m.state.Minutes, m.state.Seconds)
	m.obs.OnSessionCompleted(m.state.CompletedSessionsToday)
	m.publishStatistics()
}

func (m *Machine) Start() {
	if m.state.Running {
		return
	}
	m.state.Running = true
	m.sched.Start(TickPeriod)
	m.log.Debug().Stringer("phase", m.state.Phase).Msg("Timer started")
}

func (m *Machine) Pause() {
	if !m.state.Running {
		return
	}
	m.sched.Stop()
	m.state.Running = false
	m.log.Debug().Stringer("phase", m.state.Phase).Str("remaining", m.state.Clock()).Msg("Timer paused")
}

func (m *Machine) Toggle() {
	if m.state.Running {
		m.Pause()
		return
	}
	m.Start()
}

// Tick advances the countdown by one second. Reaching 00:00 switches the
// phase within the same tick. Ticks while paused are ignored.
func (m *Machine) Tick(ctx context.Context) {
	if !m.state.Running {
		return
	}

	if m.stats.RollOver(ctx) {
		m.state.CompletedSessionsToday = 0
		m.obs.OnSessionCompleted(0)
		m.publishStatistics()
	}

	if m.state.Minutes == 0 && m.state.Seconds == 0 {
		m.switchMode(ctx)
		return
	}

	if m.state.Seconds > 0 {
		m.state.Seconds--
	} else {
		m.state.Minutes--
		m.state.Seconds = 59
	}
	m.obs.OnTick(m.state.Minutes, m.state.Seconds)

	if m.state.Minutes == 0 && m.state.Seconds == 0 {
		m.switchMode(ctx)
	}
}

// Skip ends the current phase immediately and leaves the next one running.
// It is ignored while paused in a focus phase.
func (m *Machine) Skip(ctx context.Context) {
	if !m.state.Running && m.state.Phase == Focus {
		return
	}
	m.Pause()
	m.switchMode(ctx)
	if !m.settings.AutoStart {
		m.Start()
	}
}

// Reset stops the timer and returns to a fresh focus phase. Recorded
// statistics are kept; the display count is zeroed.
func (m *Machine) Reset() {
	m.Pause()
	m.state = State{
		Phase:   Focus,
		Minutes: m.settings.FocusDuration,
	}
	m.obs.OnPhaseChanged(Focus, m.settings.FocusDuration)
	m.obs.OnTick(m.state.Minutes, m.state.Seconds)
	m.obs.OnSessionCompleted(0)
	m.obs.OnAnnounce("Timer reset")
	m.log.Info().Msg("Timer reset")
}

// ClearStatistics erases the recorded history and zeroes the display count.
// The returned error only reports that persisting the cleared state failed.
func (m *Machine) ClearStatistics(ctx context.Context) error {
	err := m.stats.Clear(ctx)
	m.state.CompletedSessionsToday = 0
	m.obs.OnSessionCompleted(0)
	m.publishStatistics()
	m.obs.OnAnnounce("Statistics cleared")
	m.log.Info().Msg("Statistics cleared")
	return err
}

// ApplySettings takes effect at the next phase. An idle countdown that has
// not been touched is resized to the new duration immediately. A shrunk
// interval clamps the long-break counter.
func (m *Machine) ApplySettings(s settings.Settings) {
	prev := m.settings
	m.settings = s

	// Outside a long break the next completed focus must still land on the
	// interval, not past it.
	limit := s.LongBreakInterval - 1
	if m.state.Phase == LongBreak {
		limit = s.LongBreakInterval
	}
	if m.state.SessionsUntilLongBreak > limit {
		m.state.SessionsUntilLongBreak = limit
	}

	untouched := m.state.Seconds == 0 && m.state.Minutes == Minutes(prev, m.state.Phase)
	if !m.state.Running && untouched {
		m.state.Minutes = Minutes(s, m.state.Phase)
		m.obs.OnTick(m.state.Minutes, m.state.Seconds)
	}
}

func (m *Machine) switchMode(ctx context.Context) {
	leaving := m.state.Phase

	var next Phase
	if leaving == Focus {
		if err := m.stats.RecordSession(ctx, m.settings.FocusDuration); err != nil {
			m.log.Debug().Err(err).Msg("Session kept in memory only")
		}
		m.state.CompletedSessionsToday++
		m.obs.OnSessionCompleted(m.state.CompletedSessionsToday)
		m.publishStatistics()

		m.state.SessionsUntilLongBreak++
		next = ShortBreak
		if m.state.SessionsUntilLongBreak >= m.settings.LongBreakInterval {
			next = LongBreak
		}
	} else {
		if leaving == LongBreak {
			m.state.SessionsUntilLongBreak = 0
		}
		next = Focus
	}

	duration := Minutes(m.settings, next)
	m.state.Phase = next
	m.state.Minutes = duration
	m.state.Seconds = 0

	m.log.Info().
		Stringer("from", leaving).
		Stringer("to", next).
		Int("minutes", duration).
		Int("sessions_until_long_break", m.state.SessionsUntilLongBreak).
		Msg("Phase changed")

	m.obs.OnTransition(leaving, next)
	m.obs.OnPhaseChanged(next, duration)
	m.obs.OnTick(m.state.Minutes, m.state.Seconds)

	if m.settings.SoundEnabled {
		kind := PhaseStart
		if next.IsBreak() {
			kind = BreakStart
		}
		m.sound.Play(kind)
	}

	title, body := announcement(next, duration)
	if m.settings.NotificationsEnabled {
		m.notifier.Notify(title, body)
	}
	m.obs.OnAnnounce(body)

	if m.settings.AutoStart {
		m.Start()
	} else {
		m.Pause()
	}
}

func announcement(next Phase, minutes int) (title, body string) {
	switch next {
	case LongBreak:
		return "Cigarette Time", fmt.Sprintf("Focus session complete. Long break: %d minutes.", minutes)
	case ShortBreak:
		return "Cigarette Time", fmt.Sprintf("Focus session complete. Break: %d minutes.", minutes)
	default:
		return "Focus", fmt.Sprintf("Break over. Focus for %d minutes.", minutes)
	}
}

func (m *Machine) publishStatistics() {
	m.obs.OnStatisticsUpdated(m.stats.Today(), m.stats.Week(), m.stats.Total(), m.stats.WeekChart())
}
