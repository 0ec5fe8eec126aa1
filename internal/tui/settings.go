package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/smokebreak/internal/settings"
)

type settingsModel struct {
	model  *settings.Model
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	focus         *string
	shortBreak    *string
	longBreak     *string
	interval      *string
	sound         *bool
	autoStart     *bool
	notifications *bool
	smoke         *bool
}

func newSettingsModel(m *settings.Model) settingsModel {
	f, sb, lb, iv := "", "", "", ""
	var snd, as, nt, sm bool
	return settingsModel{
		model:         m,
		focus:         &f,
		shortBreak:    &sb,
		longBreak:     &lb,
		interval:      &iv,
		sound:         &snd,
		autoStart:     &as,
		notifications: &nt,
		smoke:         &sm,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(ctx context.Context, msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(ctx, msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Enter) {
		return s.showForm()
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	cur := s.model.Current()
	*s.focus = strconv.Itoa(cur.FocusDuration)
	*s.shortBreak = strconv.Itoa(cur.ShortBreakDuration)
	*s.longBreak = strconv.Itoa(cur.LongBreakDuration)
	*s.interval = strconv.Itoa(cur.LongBreakInterval)
	*s.sound = cur.SoundEnabled
	*s.autoStart = cur.AutoStart
	*s.notifications = cur.NotificationsEnabled
	*s.smoke = cur.SmokeEnabled

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Focus (min)").Value(s.focus).Validate(validatePositive),
			huh.NewInput().Title("Short break (min)").Value(s.shortBreak).Validate(validatePositive),
			huh.NewInput().Title("Long break (min)").Value(s.longBreak).Validate(validatePositive),
			huh.NewInput().Title("Sessions before long break").Value(s.interval).Validate(validatePositive),
		).Title("Timer"),
		huh.NewGroup(
			huh.NewConfirm().Title("Sound").Value(s.sound),
			huh.NewConfirm().Title("Auto-start next phase").Value(s.autoStart),
			huh.NewConfirm().Title("Notifications").Value(s.notifications),
			huh.NewConfirm().Title("Smoke effect").Value(s.smoke),
		).Title("Feedback"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(ctx context.Context, msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.save(ctx)
	}

	return s, cmd
}

// patch converts the form values into a settings update.
func (s settingsModel) patch() settings.Patch {
	return settings.Patch{
		settings.FieldFocusDuration:        *s.focus,
		settings.FieldShortBreakDuration:   *s.shortBreak,
		settings.FieldLongBreakDuration:    *s.longBreak,
		settings.FieldLongBreakInterval:    *s.interval,
		settings.FieldSoundEnabled:         strconv.FormatBool(*s.sound),
		settings.FieldAutoStart:            strconv.FormatBool(*s.autoStart),
		settings.FieldNotificationsEnabled: strconv.FormatBool(*s.notifications),
		settings.FieldSmokeEnabled:         strconv.FormatBool(*s.smoke),
	}
}

func (s settingsModel) save(ctx context.Context) tea.Cmd {
	_, err := s.model.Update(ctx, s.patch())
	return func() tea.Msg {
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Settings not saved: %v", err), isError: true}
		}
		return statusMsg{text: "Settings saved"}
	}
}

func validatePositive(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return errors.New("enter a whole number of at least 1")
	}
	return nil
}

func (s settingsModel) view() string {
	w := max(s.width-4, 20)
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	cur := s.model.Current()
	items := []struct {
		label string
		value string
	}{
		{"Focus", fmt.Sprintf("%d min", cur.FocusDuration)},
		{"Short break", fmt.Sprintf("%d min", cur.ShortBreakDuration)},
		{"Long break", fmt.Sprintf("%d min", cur.LongBreakDuration)},
		{"Long break every", fmt.Sprintf("%d sessions", cur.LongBreakInterval)},
		{"Sound", onOff(cur.SoundEnabled)},
		{"Auto-start", onOff(cur.AutoStart)},
		{"Notifications", onOff(cur.NotificationsEnabled)},
		{"Smoke effect", onOff(cur.SmokeEnabled)},
	}

	rows := []string{title, ""}
	for _, it := range items {
		label := lipgloss.NewStyle().Width(24).Render(it.label)
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(it.value)))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
