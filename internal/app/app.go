// Package app contains the root application model.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/stupidea/internal/config"
	"github.com/zjrosen/stupidea/internal/highlight"
	"github.com/zjrosen/stupidea/internal/keys"
	"github.com/zjrosen/stupidea/internal/log"
	"github.com/zjrosen/stupidea/internal/pubsub"
	"github.com/zjrosen/stupidea/internal/run"
	"github.com/zjrosen/stupidea/internal/ui/editor"
	"github.com/zjrosen/stupidea/internal/ui/help"
	"github.com/zjrosen/stupidea/internal/ui/logpane"
	"github.com/zjrosen/stupidea/internal/ui/settings"
	"github.com/zjrosen/stupidea/internal/ui/terminal"
	"github.com/zjrosen/stupidea/internal/ui/toaster"
	"github.com/zjrosen/stupidea/internal/watcher"
)

const (
	zoneRun         = "btn-run"
	zoneRehighlight = "btn-rehighlight"
	zoneSettings    = "btn-settings"
)

var zonesOnce sync.Once

// Options wires the application's collaborators.
type Options struct {
	Config     config.Config
	ConfigPath string // settings are saved here
	FilePath   string // the edited file
	Text       string // initial buffer

	Classifier highlight.Classifier
	Compiler   run.Compiler
	Executor   run.Executor
	Recorder   run.Recorder // optional
	Tracer     trace.Tracer // optional, spans around runs

	Watcher *watcher.Watcher // optional, already started
	Debug   bool

	// HighlightOptions are passed to the highlighter, e.g. a test clock.
	HighlightOptions []highlight.Option
}

type focus int

const (
	focusEditor focus = iota
	focusTerminal
)

type savedFileMsg struct {
	text string
	err  error
}

// Model is the root application state.
type Model struct {
	keys       keys.KeyMap
	cfg        config.Config
	configPath string
	filePath   string
	savedText  string

	editor      editor.Model
	terminal    *terminal.Model
	highlighter *highlight.Highlighter
	runner      *run.Controller

	spinner  spinner.Model
	spinning bool
	toaster  toaster.Model
	help     help.Model
	showHelp bool
	settings settings.Model
	editing  bool // settings form open
	logs     logpane.Model
	focus    focus

	debug         bool
	ctx           context.Context
	cancel        context.CancelFunc
	watcher       *watcher.Watcher
	watchListener *pubsub.Listener[watcher.Change]
	logListener   *pubsub.Listener[string]

	width  int
	height int
}

// New creates the application model.
func New(opts Options) Model {
	zonesOnce.Do(zone.NewGlobal)

	ctx, cancel := context.WithCancel(context.Background())
	cfg := opts.Config
	term := terminal.New()

	runOpts := []run.Option{run.WithEcho(cfg.Compile.EchoScript)}
	if opts.Recorder != nil {
		runOpts = append(runOpts, run.WithRecorder(opts.Recorder))
	}
	if opts.Tracer != nil {
		runOpts = append(runOpts, run.WithTracer(opts.Tracer))
	}

	m := Model{
		keys:        keys.DefaultKeyMap(),
		cfg:         cfg,
		configPath:  opts.ConfigPath,
		filePath:    opts.FilePath,
		savedText:   opts.Text,
		editor:      editor.New(opts.Text),
		terminal:    term,
		highlighter: highlight.New(opts.Classifier, cfg.Settings().Highlighter(), opts.Text, opts.HighlightOptions...),
		runner:      run.New(opts.Compiler, opts.Executor, term, runOpts...),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		toaster:     toaster.New(),
		help:        help.New(keys.DefaultKeyMap(), cfg.UI.MarkdownStyle),
		logs:        logpane.New(),
		debug:       opts.Debug,
		ctx:         ctx,
		cancel:      cancel,
		watcher:     opts.Watcher,
	}
	m.editor.SetSource(m.highlighter)
	if opts.Watcher != nil {
		m.watchListener = pubsub.NewListener(ctx, opts.Watcher.Broker())
	}
	if opts.Debug {
		m.logListener = log.NewListener(ctx)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.highlighter.Init(), listen(m.watchListener), listen(m.logListener))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	if !m.spinning && m.busy() {
		m.spinning = true
		cmd = tea.Batch(cmd, m.spinner.Tick)
	}
	return m, cmd
}

func (m Model) busy() bool {
	return m.runner.Busy() || m.highlighter.Busy()
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case editor.ChangedMsg:
		return m, m.highlighter.SetText(msg.Text)

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case settings.SavedMsg:
		return m.applySettings(msg.Settings)

	case settings.CancelMsg:
		m.editing = false
		return m, nil

	case logpane.CloseMsg:
		return m, nil

	case toaster.DismissMsg:
		m.toaster = m.toaster.Update(msg)
		return m, nil

	case savedFileMsg:
		if msg.err != nil {
			log.ErrorErr(log.CatUI, "saving file failed", msg.err, "path", m.filePath)
			cmd := m.toast("Save failed: "+msg.err.Error(), toaster.StyleError)
			return m, cmd
		}
		m.savedText = msg.text
		if m.watcher != nil {
			m.watcher.Sync(msg.text)
		}
		cmd := m.toast("Saved "+filepath.Base(m.filePath), toaster.StyleSuccess)
		return m, cmd

	case run.RecordedMsg:
		if msg.Err != nil {
			cmd := m.toast("Run not recorded: "+msg.Err.Error(), toaster.StyleWarn)
			return m, cmd
		}
		return m, nil

	case pubsub.Event[watcher.Change]:
		return m.handleFileEvent(msg)

	case log.Entry:
		m.logs.Add(msg.Payload)
		return m, listen(m.logListener)
	}

	// Remaining messages are highlighter timers and responses, run
	// progress, or cursor blinks for the settings form.
	cmds := []tea.Cmd{m.highlighter.Update(msg), m.runner.Update(msg)}
	if m.editing {
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch {
	case m.logs.Visible():
		var cmd tea.Cmd
		m.logs, cmd = m.logs.Update(msg)
		return m, cmd
	case m.editing:
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Update(msg)
		return m, cmd
	case m.showHelp:
		if key.Matches(msg, m.keys.Escape, m.keys.Help) {
			m.showHelp = false
			return m, nil
		}
		var cmd tea.Cmd
		m.help, cmd = m.help.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Run):
		return m, m.runner.Start(m.editor.Text(), m.cfg.Compile.Model)
	case key.Matches(msg, m.keys.Stop):
		return m, m.runner.Stop()
	case key.Matches(msg, m.keys.Rehighlight):
		log.Info(log.CatUI, "full re-highlight requested")
		return m, m.highlighter.ForceFull()
	case key.Matches(msg, m.keys.Settings):
		return m.openSettings()
	case key.Matches(msg, m.keys.Save):
		return m, m.saveFile()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.help = m.help.Top()
		return m, nil
	case key.Matches(msg, m.keys.ToggleLog):
		if m.debug {
			m.logs.Toggle()
		}
		return m, nil
	case key.Matches(msg, m.keys.FocusSwitch):
		m.switchFocus()
		return m, nil
	}

	if m.focus == focusTerminal {
		return m, m.terminal.Update(msg)
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft && !m.editing && !m.showHelp {
		switch {
		case inZone(zoneRun, msg):
			if m.runner.Busy() {
				return m, m.runner.Stop()
			}
			return m, m.runner.Start(m.editor.Text(), m.cfg.Compile.Model)
		case inZone(zoneRehighlight, msg):
			return m, m.highlighter.ForceFull()
		case inZone(zoneSettings, msg):
			return m.openSettings()
		}
	}
	return m, m.terminal.Update(msg)
}

func inZone(id string, msg tea.MouseMsg) bool {
	z := zone.Get(id)
	return z != nil && z.InBounds(msg)
}

func (m *Model) switchFocus() {
	if m.focus == focusEditor {
		m.focus = focusTerminal
		m.editor.Blur()
		m.terminal.Focus()
		return
	}
	m.focus = focusEditor
	m.terminal.Blur()
	m.editor.Focus()
}

func (m Model) openSettings() (Model, tea.Cmd) {
	m.settings = settings.New(m.cfg.Settings()).SetSize(m.width, m.height)
	m.editing = true
	return m, m.settings.Init()
}

// applySettings takes effect immediately; a failed write only loses
// persistence.
func (m Model) applySettings(s config.Settings) (Model, tea.Cmd) {
	m.editing = false
	m.cfg.ApplySettings(s)
	cmd := m.highlighter.SetSettings(s.Highlighter())

	if m.configPath == "" {
		return m, cmd
	}
	if err := config.SaveSettings(m.configPath, s); err != nil {
		log.ErrorErr(log.CatConfig, "saving settings failed", err, "path", m.configPath)
		toast := m.toast("Settings not saved: "+err.Error(), toaster.StyleError)
		return m, tea.Batch(cmd, toast)
	}
	log.Info(log.CatConfig, "settings saved", "path", m.configPath)
	toast := m.toast("Settings saved", toaster.StyleSuccess)
	return m, tea.Batch(cmd, toast)
}

func (m Model) saveFile() tea.Cmd {
	path, text := m.filePath, m.editor.Text()
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil { //nolint:gosec // G306: user source file
			return savedFileMsg{err: fmt.Errorf("writing %s: %w", path, err)}
		}
		return savedFileMsg{text: text}
	}
}

func (m Model) handleFileEvent(ev pubsub.Event[watcher.Change]) (Model, tea.Cmd) {
	next := listen(m.watchListener)
	switch ev.Type {
	case pubsub.RemovedEvent:
		toast := m.toast(filepath.Base(ev.Payload.Path)+" was removed", toaster.StyleWarn)
		return m, tea.Batch(next, toast)
	case pubsub.ChangedEvent:
		if ev.Payload.Text == m.editor.Text() {
			return m, next
		}
		log.Info(log.CatWatcher, "reloading", "change", ev.Payload.Summary())
		m.editor.SetText(ev.Payload.Text)
		m.savedText = ev.Payload.Text
		toast := m.toast("Reloaded "+ev.Payload.Summary(), toaster.StyleInfo)
		return m, tea.Batch(next, m.highlighter.SetText(ev.Payload.Text), toast)
	}
	return m, next
}

func listen[T any](l *pubsub.Listener[T]) tea.Cmd {
	if l == nil {
		return nil
	}
	return l.Listen()
}

func (m *Model) toast(text string, style toaster.Style) tea.Cmd {
	var cmd tea.Cmd
	m.toaster, cmd = m.toaster.Show(text, style, toaster.DefaultDuration)
	return cmd
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	m.cancel()
	m.highlighter.Dispose()
	m.runner.Stop()
	if m.watcher != nil {
		return m.watcher.Stop()
	}
	return nil
}
