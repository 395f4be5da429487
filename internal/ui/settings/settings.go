// Package settings provides the settings form: the three highlighting
// delays and the highlight and compile models.
package settings

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/stupidea/internal/config"
	"github.com/zjrosen/stupidea/internal/gateway"
	"github.com/zjrosen/stupidea/internal/keys"
	"github.com/zjrosen/stupidea/internal/ui/overlay"
	"github.com/zjrosen/stupidea/internal/ui/styles"
)

// SavedMsg carries validated settings.
type SavedMsg struct {
	Settings config.Settings
}

// CancelMsg is sent when the form is dismissed without saving.
type CancelMsg struct{}

type field int

const (
	fieldShort field = iota
	fieldLong
	fieldRate
	fieldHighlightModel
	fieldCompileModel
	fieldCount
)

var (
	labelStyle        = lipgloss.NewStyle().Foreground(styles.TextDescriptionColor).Width(22)
	focusedLabelStyle = lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Bold(true).Width(22)
	hintStyle         = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	boxStyle          = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(styles.OverlayBorderColor).
				Padding(0, 2)
)

// Model is the settings form state.
type Model struct {
	keys    keys.SettingsKeyMap
	inputs  [3]textinput.Model
	models  []string
	hlModel int
	ccModel int
	focus   field
	err     string
	width   int
	height  int
}

// New creates a form filled from s.
func New(s config.Settings) Model {
	m := Model{
		keys:   keys.DefaultSettingsKeyMap(),
		models: modelChoices(s),
	}
	for i, d := range []time.Duration{s.ShortDelay, s.LongDelay, s.RateLimitDelay} {
		in := textinput.New()
		in.CharLimit = 7
		in.Width = 8
		in.SetValue(strconv.FormatInt(d.Milliseconds(), 10))
		m.inputs[i] = in
	}
	m.hlModel = slices.Index(m.models, s.HighlightModel)
	m.ccModel = slices.Index(m.models, s.CompileModel)
	m.inputs[0].Focus()
	return m
}

// modelChoices lists the known models, plus any configured model not among
// them so it survives a save.
func modelChoices(s config.Settings) []string {
	models := gateway.Models()
	for _, name := range []string{s.HighlightModel, s.CompileModel} {
		if name != "" && !slices.Contains(models, name) {
			models = append(models, name)
		}
	}
	return models
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize updates the screen size.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// Err returns the last validation error.
func (m Model) Err() string {
	return m.err
}

// Update handles form input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.focus < fieldHighlightModel {
			var cmd tea.Cmd
			m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Cancel):
		return m, func() tea.Msg { return CancelMsg{} }
	case key.Matches(keyMsg, m.keys.Save):
		return m.submit()
	case key.Matches(keyMsg, m.keys.Next):
		return m.setFocus((m.focus + 1) % fieldCount), nil
	case key.Matches(keyMsg, m.keys.Prev):
		return m.setFocus((m.focus + fieldCount - 1) % fieldCount), nil
	}

	switch m.focus {
	case fieldHighlightModel:
		m.hlModel = m.cycle(m.hlModel, keyMsg)
		return m, nil
	case fieldCompileModel:
		m.ccModel = m.cycle(m.ccModel, keyMsg)
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) cycle(idx int, msg tea.KeyMsg) int {
	n := len(m.models)
	switch {
	case key.Matches(msg, m.keys.Right):
		return (idx + 1 + n) % n
	case key.Matches(msg, m.keys.Left):
		if idx < 0 {
			return n - 1
		}
		return (idx - 1 + n) % n
	}
	return idx
}

func (m Model) setFocus(f field) Model {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.focus = f
	if f < fieldHighlightModel {
		m.inputs[f].Focus()
	}
	return m
}

// Settings returns the settings currently entered, without validating them.
func (m Model) Settings() (config.Settings, error) {
	var delays [3]time.Duration
	names := [3]string{"short delay", "long delay", "rate limit delay"}
	for i, in := range m.inputs {
		v := strings.TrimSpace(in.Value())
		ms, err := strconv.Atoi(v)
		if err != nil {
			return config.Settings{}, fmt.Errorf("%s must be a number of milliseconds", names[i])
		}
		delays[i] = time.Duration(ms) * time.Millisecond
	}
	return config.Settings{
		ShortDelay:     delays[0],
		LongDelay:      delays[1],
		RateLimitDelay: delays[2],
		HighlightModel: m.model(m.hlModel),
		CompileModel:   m.model(m.ccModel),
	}, nil
}

func (m Model) model(idx int) string {
	if idx < 0 || idx >= len(m.models) {
		return ""
	}
	return m.models[idx]
}

func (m Model) submit() (Model, tea.Cmd) {
	s, err := m.Settings()
	if err == nil {
		err = s.Validate()
	}
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.err = ""
	return m, func() tea.Msg { return SavedMsg{Settings: s} }
}

// View renders the form box.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(styles.TitleStyle.Render("Settings"))
	sb.WriteString("\n\n")

	rows := []struct {
		f     field
		label string
		value string
	}{
		{fieldShort, "Short delay (ms)", m.inputs[0].View() + hintStyle.Render(minHint(config.MinShortDelay))},
		{fieldLong, "Long delay (ms)", m.inputs[1].View() + hintStyle.Render(minHint(config.MinLongDelay))},
		{fieldRate, "Rate limit delay (ms)", m.inputs[2].View() + hintStyle.Render(minHint(config.MinRateLimitDelay))},
		{fieldHighlightModel, "Highlight model", m.choice(m.hlModel, m.focus == fieldHighlightModel)},
		{fieldCompileModel, "Compile model", m.choice(m.ccModel, m.focus == fieldCompileModel)},
	}
	for _, r := range rows {
		style := labelStyle
		if r.f == m.focus {
			style = focusedLabelStyle
		}
		sb.WriteString(style.Render(r.label))
		sb.WriteString(r.value)
		sb.WriteString("\n")
	}

	if m.err != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.ErrorStyle.Render(m.err))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render("tab next • ←/→ change model • enter save • esc cancel"))

	return boxStyle.Render(sb.String())
}

func minHint(d time.Duration) string {
	return fmt.Sprintf("  min %d", d.Milliseconds())
}

func (m Model) choice(idx int, focused bool) string {
	name := m.model(idx)
	if name == "" {
		name = "(none)"
	}
	if focused {
		return styles.TitleStyle.Render("‹ " + name + " ›")
	}
	return "  " + name
}

// Overlay renders the form centred over bg.
func (m Model) Overlay(bg string) string {
	return overlay.Place(m.width, m.height, overlay.Center, m.View(), bg)
}
