package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// scheduler implements timer.Scheduler on top of tea.Tick. Every Start opens
// a new generation; a tickMsg from an older generation is dropped, so Stop
// takes effect even though an issued tea.Tick cannot be cancelled.
type scheduler struct {
	gen     uint64
	period  time.Duration
	running bool
	issue   bool
}

func newScheduler() *scheduler {
	return &scheduler{period: time.Second}
}

func (s *scheduler) Start(period time.Duration) {
	s.gen++
	s.period = period
	s.running = true
	s.issue = true
}

func (s *scheduler) Stop() {
	s.gen++
	s.running = false
	s.issue = false
}

func (s *scheduler) live(gen uint64) bool {
	return s.running && gen == s.gen
}

// next schedules the following tick of the current generation.
func (s *scheduler) next() tea.Cmd {
	gen := s.gen
	return tea.Tick(s.period, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// pending returns the first tick of a freshly started generation, once.
func (s *scheduler) pending() tea.Cmd {
	if !s.issue {
		return nil
	}
	s.issue = false
	return s.next()
}
