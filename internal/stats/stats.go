// Package stats keeps the persisted log of completed focus sessions and
// derives daily, weekly and total figures and the day streak from it.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sadopc/smokebreak/internal/store"
)

// DateLayout is the calendar-day format used for log entries.
const DateLayout = "2006-01-02"

// Sessions recorded by the legacy counter were always 25 minutes long.
const legacyFocusMinutes = 25

// Entry aggregates one calendar day. Days without sessions have no entry.
type Entry struct {
	Date         string `json:"date"`
	FocusMinutes int    `json:"focusMinutes"`
	Count        int    `json:"count"`
}

// Statistics is the persisted record.
type Statistics struct {
	Sessions       []Entry `json:"sessions"`
	LastActiveDate string  `json:"lastActiveDate,omitempty"`
	CurrentStreak  int     `json:"currentStreak"`
}

// Totals is a sum over a set of entries.
type Totals struct {
	Count        int `json:"count"`
	FocusMinutes int `json:"focusMinutes"`
}

// ChartDay is one bar of the seven-day chart.
type ChartDay struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Option func(*Engine)

// WithClock overrides the wall clock used to decide what "today" is.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l.With().Str("component", "stats").Logger() }
}

// Engine owns the Statistics for the process and persists every mutation.
type Engine struct {
	kv    store.KV
	clock Clock
	log   zerolog.Logger

	data       Statistics
	checkedDay string
}

func New(kv store.KV, opts ...Option) *Engine {
	e := &Engine{
		kv:    kv,
		clock: SystemClock{},
		log:   zerolog.Nop(),
		data:  empty(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func empty() Statistics {
	return Statistics{Sessions: []Entry{}}
}

func day(t time.Time) string {
	return t.Format(DateLayout)
}

// Load reads the persisted statistics, falling back to empty defaults when
// they are missing or corrupt. A legacy session counter is migrated when no
// statistics exist yet. Load then checks whether the streak has lapsed.
func (e *Engine) Load(ctx context.Context) {
	e.data = empty()

	data, err := e.kv.Read(ctx, store.KeyStatistics)
	switch {
	case errors.Is(err, store.ErrNotFound):
		e.migrateLegacy(ctx)
	case err != nil:
		e.log.Warn().Err(err).Msg("Failed to read statistics, starting empty")
	default:
		var s Statistics
		if err := json.Unmarshal(data, &s); err != nil {
			e.log.Warn().Err(err).Msg("Corrupt statistics, starting empty")
		} else {
			e.data = normalize(s)
		}
	}

	now := e.clock.Now()
	e.checkedDay = day(now)
	if e.updateStreak(now) {
		e.save(ctx)
	}
}

// normalize enforces one entry per valid date and non-negative counters.
func normalize(s Statistics) Statistics {
	out := Statistics{
		Sessions:       make([]Entry, 0, len(s.Sessions)),
		LastActiveDate: s.LastActiveDate,
		CurrentStreak:  max(s.CurrentStreak, 0),
	}
	if _, err := time.Parse(DateLayout, out.LastActiveDate); err != nil {
		out.LastActiveDate = ""
	}

	index := make(map[string]int, len(s.Sessions))
	for _, en := range s.Sessions {
		if _, err := time.Parse(DateLayout, en.Date); err != nil {
			continue
		}
		en.Count = max(en.Count, 0)
		en.FocusMinutes = max(en.FocusMinutes, 0)
		if i, ok := index[en.Date]; ok {
			out.Sessions[i].Count += en.Count
			out.Sessions[i].FocusMinutes += en.FocusMinutes
			continue
		}
		index[en.Date] = len(out.Sessions)
		out.Sessions = append(out.Sessions, en)
	}
	return out
}

func (e *Engine) migrateLegacy(ctx context.Context) {
	raw, err := e.kv.Read(ctx, store.KeyLegacySessions)
	if err != nil {
		return
	}
	defer func() {
		if err := e.kv.Remove(ctx, store.KeyLegacySessions); err != nil {
			e.log.Warn().Err(err).Msg("Failed to remove legacy session counter")
		}
	}()

	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || n <= 0 {
		return
	}

	today := day(e.clock.Now())
	e.data = Statistics{
		Sessions:       []Entry{{Date: today, FocusMinutes: n * legacyFocusMinutes, Count: n}},
		LastActiveDate: today,
		CurrentStreak:  1,
	}
	e.log.Info().Int("sessions", n).Msg("Migrated legacy session counter")
	e.save(ctx)
}

func (e *Engine) find(date string) int {
	for i, en := range e.data.Sessions {
		if en.Date == date {
			return i
		}
	}
	return -1
}

// RecordSession adds one completed focus session of focusMinutes to today's
// entry, updates the streak and persists. The in-memory statistics are
// updated even when the returned persistence error is non-nil.
func (e *Engine) RecordSession(ctx context.Context, focusMinutes int) error {
	now := e.clock.Now()
	today := day(now)

	i := e.find(today)
	if i < 0 {
		e.data.Sessions = append(e.data.Sessions, Entry{Date: today})
		i = len(e.data.Sessions) - 1
	}
	e.data.Sessions[i].Count++
	e.data.Sessions[i].FocusMinutes += focusMinutes

	e.updateStreak(now)
	e.checkedDay = today
	return e.save(ctx)
}

// updateStreak applies the streak rule for the day of now and reports
// whether anything changed.
func (e *Engine) updateStreak(now time.Time) bool {
	today := day(now)
	yesterday := day(now.AddDate(0, 0, -1))

	if i := e.find(today); i >= 0 && e.data.Sessions[i].Count > 0 {
		switch e.data.LastActiveDate {
		case today:
			return false
		case "", yesterday:
			e.data.CurrentStreak++
		default:
			e.data.CurrentStreak = 1
		}
		e.data.LastActiveDate = today
		return true
	}

	last := e.data.LastActiveDate
	if last != "" && last != yesterday && last != today && e.data.CurrentStreak != 0 {
		e.data.CurrentStreak = 0
		return true
	}
	return false
}

// RollOver runs the lapse check once per calendar day. It reports whether a
// new day began since the last check.
func (e *Engine) RollOver(ctx context.Context) bool {
	now := e.clock.Now()
	today := day(now)
	if today == e.checkedDay {
		return false
	}
	e.checkedDay = today
	if e.updateStreak(now) {
		e.save(ctx)
	}
	return true
}

// Clear resets the statistics to empty defaults and persists them.
func (e *Engine) Clear(ctx context.Context) error {
	e.data = empty()
	return e.save(ctx)
}

func (e *Engine) save(ctx context.Context) error {
	data, err := json.Marshal(e.data)
	if err != nil {
		return fmt.Errorf("marshal statistics: %w", err)
	}
	if err := e.kv.Write(ctx, store.KeyStatistics, data); err != nil {
		e.log.Warn().Err(err).Msg("Failed to persist statistics, keeping them in memory")
		return err
	}
	return nil
}

func (e *Engine) Today() Totals {
	if i := e.find(day(e.clock.Now())); i >= 0 {
		en := e.data.Sessions[i]
		return Totals{Count: en.Count, FocusMinutes: en.FocusMinutes}
	}
	return Totals{}
}

// Week sums the calendar week starting on Monday.
func (e *Engine) Week() Totals {
	now := e.clock.Now()
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := day(now.AddDate(0, 0, -(weekday - 1)))

	var t Totals
	for _, en := range e.data.Sessions {
		if en.Date >= start {
			t.Count += en.Count
			t.FocusMinutes += en.FocusMinutes
		}
	}
	return t
}

func (e *Engine) Total() Totals {
	var t Totals
	for _, en := range e.data.Sessions {
		t.Count += en.Count
		t.FocusMinutes += en.FocusMinutes
	}
	return t
}

// WeekChart returns the last seven days ending today, oldest first.
func (e *Engine) WeekChart() []ChartDay {
	now := e.clock.Now()
	days := make([]ChartDay, 0, 7)
	for offset := 6; offset >= 0; offset-- {
		d := now.AddDate(0, 0, -offset)
		cd := ChartDay{Date: day(d), Label: d.Format("Mon")}
		if i := e.find(cd.Date); i >= 0 {
			cd.Count = e.data.Sessions[i].Count
		}
		days = append(days, cd)
	}
	return days
}

func (e *Engine) Streak() int {
	return e.data.CurrentStreak
}

// Snapshot returns a copy of the statistics suitable for export.
func (e *Engine) Snapshot() Statistics {
	s := e.data
	s.Sessions = append([]Entry{}, e.data.Sessions...)
	return s
}
