package timer

import (
	"fmt"
	"time"

	"github.com/sadopc/smokebreak/internal/settings"
)

type Phase int

const (
	Focus Phase = iota
	ShortBreak
	LongBreak
)

var phaseNames = map[Phase]string{
	Focus:      "Focus",
	ShortBreak: "Short Break",
	LongBreak:  "Long Break",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func (p Phase) IsBreak() bool {
	return p == ShortBreak || p == LongBreak
}

// Title is the heading shown for the phase. Both breaks are cigarette time.
func (p Phase) Title() string {
	if p.IsBreak() {
		return "Cigarette Time"
	}
	return "Focus"
}

// Minutes returns the configured length of phase p.
func Minutes(s settings.Settings, p Phase) int {
	switch p {
	case ShortBreak:
		return s.ShortBreakDuration
	case LongBreak:
		return s.LongBreakDuration
	default:
		return s.FocusDuration
	}
}

// State is a snapshot of the live run. It is never persisted.
type State struct {
	Phase                  Phase
	Minutes                int
	Seconds                int
	Running                bool
	SessionsUntilLongBreak int
	CompletedSessionsToday int
}

func (s State) Remaining() time.Duration {
	return time.Duration(s.Minutes)*time.Minute + time.Duration(s.Seconds)*time.Second
}

// Clock renders the countdown as MM:SS.
func (s State) Clock() string {
	return fmt.Sprintf("%02d:%02d", s.Minutes, s.Seconds)
}
