package timer

import (
	"time"

	"github.com/sadopc/smokebreak/internal/stats"
)

// Scheduler is a cancellable periodic tick source. Start replaces any running
// schedule. After Stop returns no further ticks may be delivered.
type Scheduler interface {
	Start(period time.Duration)
	Stop()
}

// Observer receives events from the Machine. Implementations must not call
// back into the Machine synchronously. OnTransition fires only when a phase
// ends; OnPhaseChanged also fires when state is published or reset.
type Observer interface {
	OnTransition(from, to Phase)
	OnPhaseChanged(phase Phase, durationMinutes int)
	OnTick(minutes, seconds int)
	OnSessionCompleted(totalToday int)
	OnStatisticsUpdated(today, week, total stats.Totals, chart []stats.ChartDay)
	OnAnnounce(message string)
}

// Observers fans every event out to each element in order.
type Observers []Observer

func (obs Observers) OnTransition(from, to Phase) {
	for _, o := range obs {
		o.OnTransition(from, to)
	}
}

func (obs Observers) OnPhaseChanged(phase Phase, durationMinutes int) {
	for _, o := range obs {
		o.OnPhaseChanged(phase, durationMinutes)
	}
}

func (obs Observers) OnTick(minutes, seconds int) {
	for _, o := range obs {
		o.OnTick(minutes, seconds)
	}
}

func (obs Observers) OnSessionCompleted(totalToday int) {
	for _, o := range obs {
		o.OnSessionCompleted(totalToday)
	}
}

func (obs Observers) OnStatisticsUpdated(today, week, total stats.Totals, chart []stats.ChartDay) {
	for _, o := range obs {
		o.OnStatisticsUpdated(today, week, total, chart)
	}
}

func (obs Observers) OnAnnounce(message string) {
	for _, o := range obs {
		o.OnAnnounce(message)
	}
}

// NopObserver ignores every event. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) OnTransition(Phase, Phase) {}
func (NopObserver) OnPhaseChanged(Phase, int) {}
func (NopObserver) OnTick(int, int) {}
func (NopObserver) OnSessionCompleted(int) {}
func (NopObserver) OnStatisticsUpdated(_, _, _ stats.Totals, _ []stats.ChartDay) {}
func (NopObserver) OnAnnounce(string) {}

type Notifier interface {
	Notify(title, body string)
}

type Sound int

const (
	PhaseStart Sound = iota
	BreakStart
)

func (s Sound) String() string {
	if s == BreakStart {
		return "break-start"
	}
	return "phase-start"
}

type SoundPlayer interface {
	Play(kind Sound)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) {}

type nopSound struct{}

func (nopSound) Play(Sound) {}
