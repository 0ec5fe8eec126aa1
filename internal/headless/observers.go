package headless

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/sadopc/smokebreak/internal/stats"
	"github.com/sadopc/smokebreak/internal/timer"
)

// LogObserver reports timer events through the logger.
type LogObserver struct {
	log zerolog.Logger
}

func NewLogObserver(logger zerolog.Logger) *LogObserver {
	return &LogObserver{log: logger.With().Str("component", "headless").Logger()}
}

func (o *LogObserver) OnTransition(from, to timer.Phase) {
	o.log.Debug().Stringer("from", from).Stringer("to", to).Msg("Transition")
}

func (o *LogObserver) OnPhaseChanged(phase timer.Phase, durationMinutes int) {
	o.log.Info().Stringer("phase", phase).Int("minutes", durationMinutes).Msg(phase.Title())
}

// OnTick logs once per minute.
func (o *LogObserver) OnTick(minutes, seconds int) {
	if seconds == 0 {
		o.log.Debug().Int("minutes_left", minutes).Msg("Tick")
	}
}

func (o *LogObserver) OnSessionCompleted(totalToday int) {
	o.log.Info().Int("today", totalToday).Msg("Sessions today")
}

func (o *LogObserver) OnStatisticsUpdated(today, week, total stats.Totals, _ []stats.ChartDay) {
	o.log.Debug().
		Int("today", today.Count).
		Int("week", week.Count).
		Int("total", total.Count).
		Int("total_minutes", total.FocusMinutes).
		Msg("Statistics updated")
}

func (o *LogObserver) OnAnnounce(message string) {
	o.log.Info().Msg(message)
}

// Bell rings the terminal bell for every sound.
type Bell struct {
	w io.Writer
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Play(timer.Sound) {
	_, _ = io.WriteString(b.w, "\a")
}

// LogNotifier delivers notifications as warn-level log lines so they stand
// out from routine output.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: logger.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) Notify(title, body string) {
	n.log.Warn().Str("title", title).Msg(body)
}
