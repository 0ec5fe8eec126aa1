// Package metrics exposes timer activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sadopc/smokebreak/internal/stats"
	"github.com/sadopc/smokebreak/internal/timer"
)

// Observer records timer events into its own registry.
type Observer struct {
	timer.NopObserver

	registry *prometheus.Registry

	phaseTransitions  *prometheus.CounterVec
	sessionsCompleted prometheus.Counter
	remainingSeconds  prometheus.Gauge
	currentPhase      *prometheus.GaugeVec
	sessions          *prometheus.GaugeVec
	focusMinutes      *prometheus.GaugeVec
}

func NewObserver() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		phaseTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smokebreak_phase_transitions_total",
				Help: "Phase transitions by the phase entered",
			},
			[]string{"phase"},
		),
		sessionsCompleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "smokebreak_sessions_completed_total",
				Help: "Focus sessions completed by this process",
			},
		),
		remainingSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "smokebreak_remaining_seconds",
				Help: "Seconds left in the current phase",
			},
		),
		currentPhase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "smokebreak_current_phase",
				Help: "1 for the active phase, 0 otherwise",
			},
			[]string{"phase"},
		),
		sessions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "smokebreak_sessions",
				Help: "Recorded focus sessions by period",
			},
			[]string{"period"},
		),
		focusMinutes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "smokebreak_focus_minutes",
				Help: "Recorded focus minutes by period",
			},
			[]string{"period"},
		),
	}

	o.registry.MustRegister(
		o.phaseTransitions,
		o.sessionsCompleted,
		o.remainingSeconds,
		o.currentPhase,
		o.sessions,
		o.focusMinutes,
	)
	return o
}

func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

func (o *Observer) OnTransition(from, to timer.Phase) {
	o.phaseTransitions.WithLabelValues(label(to)).Inc()
	if from == timer.Focus {
		o.sessionsCompleted.Inc()
	}
}

func (o *Observer) OnPhaseChanged(phase timer.Phase, durationMinutes int) {
	for _, p := range []timer.Phase{timer.Focus, timer.ShortBreak, timer.LongBreak} {
		v := 0.0
		if p == phase {
			v = 1
		}
		o.currentPhase.WithLabelValues(label(p)).Set(v)
	}
	o.remainingSeconds.Set(float64(durationMinutes * 60))
}

func (o *Observer) OnTick(minutes, seconds int) {
	o.remainingSeconds.Set(float64(minutes*60 + seconds))
}

func (o *Observer) OnStatisticsUpdated(today, week, total stats.Totals, _ []stats.ChartDay) {
	for period, t := range map[string]stats.Totals{"today": today, "week": week, "total": total} {
		o.sessions.WithLabelValues(period).Set(float64(t.Count))
		o.focusMinutes.WithLabelValues(period).Set(float64(t.FocusMinutes))
	}
}

func label(p timer.Phase) string {
	switch p {
	case timer.ShortBreak:
		return "short_break"
	case timer.LongBreak:
		return "long_break"
	default:
		return "focus"
	}
}
