// Package settings holds the user's timer configuration: defaults,
// forward-compatible loading from the durable store, and clamped updates.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sadopc/smokebreak/internal/store"
)

// Persisted field names. Patch keys use the same names.
const (
	FieldFocusDuration        = "focusDuration"
	FieldShortBreakDuration   = "shortBreakDuration"
	FieldLongBreakDuration    = "longBreakDuration"
	FieldLongBreakInterval    = "longBreakInterval"
	FieldSoundEnabled         = "soundEnabled"
	FieldAutoStart            = "autoStart"
	FieldNotificationsEnabled = "notificationsEnabled"
	FieldSmokeEnabled         = "smokeEnabled"
)

// Settings is the effective timer configuration. Durations are minutes.
type Settings struct {
	FocusDuration        int  `json:"focusDuration"`
	ShortBreakDuration   int  `json:"shortBreakDuration"`
	LongBreakDuration    int  `json:"longBreakDuration"`
	LongBreakInterval    int  `json:"longBreakInterval"`
	SoundEnabled         bool `json:"soundEnabled"`
	AutoStart            bool `json:"autoStart"`
	NotificationsEnabled bool `json:"notificationsEnabled"`
	SmokeEnabled         bool `json:"smokeEnabled"`
}

func Defaults() Settings {
	return Settings{
		FocusDuration:        25,
		ShortBreakDuration:   5,
		LongBreakDuration:    15,
		LongBreakInterval:    4,
		SoundEnabled:         true,
		AutoStart:            true,
		NotificationsEnabled: false,
		SmokeEnabled:         true,
	}
}

// Patch maps field names to raw user input, e.g. {"focusDuration": "50"}.
type Patch map[string]string

// Model owns the current Settings for the process.
type Model struct {
	kv      store.KV
	log     zerolog.Logger
	current Settings
	subs    []func(Settings)
}

func NewModel(kv store.KV, logger zerolog.Logger) *Model {
	return &Model{
		kv:      kv,
		log:     logger.With().Str("component", "settings").Logger(),
		current: Defaults(),
	}
}

// Current returns a copy of the effective settings.
func (m *Model) Current() Settings {
	return m.current
}

// Subscribe registers fn to be called after every successful change.
func (m *Model) Subscribe(fn func(Settings)) {
	m.subs = append(m.subs, fn)
}

// Load reads persisted settings and merges them onto the defaults field by
// field. Missing, unknown or invalid fields keep their default. Load never
// fails; storage problems are logged.
func (m *Model) Load(ctx context.Context) Settings {
	m.current = Defaults()

	data, err := m.kv.Read(ctx, store.KeySettings)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.Warn().Err(err).Msg("Failed to read settings, using defaults")
		}
		return m.current
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		m.log.Warn().Err(err).Msg("Corrupt settings, using defaults")
		return m.current
	}

	m.current = merge(Defaults(), fields, m.log)
	return m.current
}

func merge(base Settings, fields map[string]json.RawMessage, log zerolog.Logger) Settings {
	ints := map[string]*int{
		FieldFocusDuration:      &base.FocusDuration,
		FieldShortBreakDuration: &base.ShortBreakDuration,
		FieldLongBreakDuration:  &base.LongBreakDuration,
		FieldLongBreakInterval:  &base.LongBreakInterval,
	}
	bools := map[string]*bool{
		FieldSoundEnabled:         &base.SoundEnabled,
		FieldAutoStart:            &base.AutoStart,
		FieldNotificationsEnabled: &base.NotificationsEnabled,
		FieldSmokeEnabled:         &base.SmokeEnabled,
	}

	for name, raw := range fields {
		if dst, ok := ints[name]; ok {
			var n int
			if err := json.Unmarshal(raw, &n); err != nil || n < 1 {
				log.Debug().Str("field", name).RawJSON("value", raw).Msg("Ignoring invalid persisted value")
				continue
			}
			*dst = n
			continue
		}
		if dst, ok := bools[name]; ok {
			var b bool
			if err := json.Unmarshal(raw, &b); err != nil {
				log.Debug().Str("field", name).RawJSON("value", raw).Msg("Ignoring invalid persisted value")
				continue
			}
			*dst = b
		}
	}
	return base
}

// Save validates s against the current settings (invalid numeric fields keep
// their current value), persists the full object and notifies subscribers.
// The in-memory settings change even when persisting fails.
func (m *Model) Save(ctx context.Context, s Settings) error {
	m.current = clamp(s, m.current)
	err := m.persist(ctx)
	m.notify()
	return err
}

// Update applies a field-level change from raw user input. Non-numeric or
// non-positive numbers are rejected and the last valid value is kept.
// The returned Settings are always the effective configuration; a non-nil
// error only reports that persisting failed.
func (m *Model) Update(ctx context.Context, p Patch) (Settings, error) {
	next := m.current
	for name, raw := range p {
		if err := apply(&next, name, raw); err != nil {
			m.log.Debug().Err(err).Str("field", name).Str("input", raw).Msg("Rejected setting")
		}
	}

	m.current = next
	err := m.persist(ctx)
	m.notify()
	return m.current, err
}

// Check reports every field of p that Update would reject, or nil.
func (p Patch) Check() error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(p)) {
		scratch := Defaults()
		if err := apply(&scratch, name, p[name]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func apply(s *Settings, name, raw string) error {
	raw = strings.TrimSpace(raw)
	switch name {
	case FieldFocusDuration:
		return setPositive(&s.FocusDuration, raw)
	case FieldShortBreakDuration:
		return setPositive(&s.ShortBreakDuration, raw)
	case FieldLongBreakDuration:
		return setPositive(&s.LongBreakDuration, raw)
	case FieldLongBreakInterval:
		return setPositive(&s.LongBreakInterval, raw)
	case FieldSoundEnabled:
		return setBool(&s.SoundEnabled, raw)
	case FieldAutoStart:
		return setBool(&s.AutoStart, raw)
	case FieldNotificationsEnabled:
		return setBool(&s.NotificationsEnabled, raw)
	case FieldSmokeEnabled:
		return setBool(&s.SmokeEnabled, raw)
	}
	return fmt.Errorf("unknown setting %q", name)
}

func setPositive(dst *int, raw string) error {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("not a whole number: %w", err)
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, raw string) error {
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("not a boolean: %w", err)
	}
	*dst = b
	return nil
}

// clamp replaces every invalid numeric field of s with the value from last.
func clamp(s, last Settings) Settings {
	if s.FocusDuration < 1 {
		s.FocusDuration = last.FocusDuration
	}
	if s.ShortBreakDuration < 1 {
		s.ShortBreakDuration = last.ShortBreakDuration
	}
	if s.LongBreakDuration < 1 {
		s.LongBreakDuration = last.LongBreakDuration
	}
	if s.LongBreakInterval < 1 {
		s.LongBreakInterval = last.LongBreakInterval
	}
	return s
}

func (m *Model) persist(ctx context.Context) error {
	data, err := json.Marshal(m.current)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := m.kv.Write(ctx, store.KeySettings, data); err != nil {
		m.log.Warn().Err(err).Msg("Failed to persist settings, keeping them in memory")
		return err
	}
	return nil
}

func (m *Model) notify() {
	for _, fn := range m.subs {
		fn(m.current)
	}
}
