package app

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/stupidea/internal/config"
	"github.com/zjrosen/stupidea/internal/keys"
	"github.com/zjrosen/stupidea/internal/ui/styles"
)

var configErrorBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(styles.StatusErrorColor).
	Padding(1, 3)

// ConfigErrorModel is the blocking screen shown instead of the editor when
// the configuration cannot start the app. Only quit keys work.
type ConfigErrorModel struct {
	err    error
	env    string
	quit   key.Binding
	width  int
	height int
}

// NewConfigError creates the screen for err. env names the variable that
// holds the API key.
func NewConfigError(err error, env string) ConfigErrorModel {
	quit := keys.DefaultKeyMap().Quit
	quit.SetKeys(append(quit.Keys(), "q", "esc")...)
	return ConfigErrorModel{err: err, env: env, quit: quit}
}

// Init implements tea.Model.
func (m ConfigErrorModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ConfigErrorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if key.Matches(msg, m.quit) {
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m ConfigErrorModel) View() string {
	var body string
	if errors.Is(m.err, config.ErrMissingAPIKey) {
		body = fmt.Sprintf("The %s environment variable is not set.\n\n"+
			"Export your Gemini API key and start stupidea again:\n\n"+
			"  export %s=...", m.env, m.env)
	} else {
		body = m.err.Error()
	}

	box := configErrorBox.Render(
		styles.ErrorStyle.Bold(true).Render("Configuration Error") + "\n\n" +
			body + "\n\n" +
			styles.MutedStyle.Render("Press q to quit"),
	)
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
