package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/stupidea/internal/config"
	"github.com/zjrosen/stupidea/internal/highlight"
	"github.com/zjrosen/stupidea/internal/pubsub"
	"github.com/zjrosen/stupidea/internal/run"
	"github.com/zjrosen/stupidea/internal/sandbox"
	"github.com/zjrosen/stupidea/internal/watcher"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// frozenClock never fires, so only explicit passes reach the classifier.
type frozenClock struct{}

func (frozenClock) After(time.Duration, tea.Msg) tea.Cmd { return nil }

type whiteClassifier struct {
	mu    sync.Mutex
	calls int
}

func (c *whiteClassifier) Classify(_ context.Context, _ string, lines [][]string) ([][]highlight.Color, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	out := make([][]highlight.Color, len(lines))
	for i, tokens := range lines {
		out[i] = make([]highlight.Color, len(tokens))
		for j := range tokens {
			out[i][j] = highlight.White
		}
	}
	return out, nil
}

type stubCompiler struct {
	script string
	err    error
}

func (c stubCompiler) Compile(context.Context, string, string) (string, error) {
	return c.script, c.err
}

type fixture struct {
	cls  *whiteClassifier
	opts Options
}

func newFixture(t *testing.T, text string) *fixture {
	t.Helper()
	cls := &whiteClassifier{}
	return &fixture{
		cls: cls,
		opts: Options{
			Config:           config.Defaults(),
			Text:             text,
			Classifier:       cls,
			Compiler:         stubCompiler{script: `console.log("hello from stupid");`},
			Executor:         sandbox.New(),
			HighlightOptions: []highlight.Option{highlight.WithClock(frozenClock{})},
		},
	}
}

func (f *fixture) model() Model {
	m := New(f.opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

// exec runs cmd, giving up on commands that wait on timers or channels.
func exec(cmd tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(200 * time.Millisecond):
		return nil, false
	}
}

// drive feeds cmd and everything it produces back through Update.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 500, "command loop did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg, ok := exec(next)
		if !ok {
			continue
		}
		switch msg := msg.(type) {
		case nil, spinner.TickMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			updated, c := m.Update(msg)
			m = updated.(Model)
			queue = append(queue, c)
		}
	}
	return m
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		updated, cmd := m.Update(msg)
		m = drive(t, updated.(Model), cmd)
	}
	return m
}

func ctrl(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func typed(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestApp_ViewShowsPanesAndButtons(t *testing.T) {
	m := newFixture(t, "print(1)").model()

	view := m.View()
	require.Contains(t, view, "StupiD IDEA")
	require.Contains(t, view, "Run")
	require.Contains(t, view, "Re-highlight")
	require.Contains(t, view, "Settings")
	require.Contains(t, view, "Terminal")
	require.Contains(t, view, "print(1)")
	require.Contains(t, view, run.MsgWelcome)
}

func TestApp_ViewEmptyBeforeSize(t *testing.T) {
	m := New(newFixture(t, "").opts)
	require.Empty(t, m.View())
}

func TestApp_InitClassifiesBuffer(t *testing.T) {
	f := newFixture(t, "let a = 1\nprint(a)")
	m := f.model()
	require.Len(t, m.highlighter.Dirty(), 2)

	m = drive(t, m, m.Init())

	require.Equal(t, 1, f.cls.calls)
	require.Empty(t, m.highlighter.Dirty())
}

func TestApp_TypingMarksLineDirty(t *testing.T) {
	m := newFixture(t, "abc").model()
	m = drive(t, m, m.Init())

	m = send(t, m, typed("x"))

	require.Equal(t, "xabc", m.editor.Text())
	require.Equal(t, []int{0}, m.highlighter.Dirty())
	require.Contains(t, m.View(), "[+]")
}

func TestApp_RunWritesTerminal(t *testing.T) {
	m := newFixture(t, "print(1)").model()

	m = send(t, m, ctrl(tea.KeyCtrlR))

	require.Equal(t, []string{
		run.MsgWelcome,
		run.MsgCompiling,
		run.MsgCompiled,
		"hello from stupid",
		run.MsgFinished,
	}, m.terminal.Lines())
	require.False(t, m.runner.Busy())
}

func TestApp_CompileFailureShown(t *testing.T) {
	f := newFixture(t, "print(1)")
	f.opts.Compiler = stubCompiler{err: errors.New("quota exceeded")}
	m := f.model()

	m = send(t, m, ctrl(tea.KeyCtrlR))

	require.Contains(t, m.terminal.Lines(), run.MsgFailed+"quota exceeded")
}

func TestApp_StopWhileCompiling(t *testing.T) {
	m := newFixture(t, "print(1)").model()

	updated, _ := m.Update(ctrl(tea.KeyCtrlR))
	m = updated.(Model)
	require.True(t, m.runner.Busy())
	require.Contains(t, m.View(), "Compiling...")
	require.Contains(t, m.View(), "Stop")

	m = send(t, m, ctrl(tea.KeyCtrlX))

	require.False(t, m.runner.Busy())
	require.Contains(t, m.terminal.Lines(), run.MsgStopped)
}

func TestApp_SettingsSaveWritesConfig(t *testing.T) {
	f := newFixture(t, "print(1)")
	f.opts.ConfigPath = filepath.Join(t.TempDir(), "config.yaml")
	m := f.model()

	m = send(t, m, ctrl(tea.KeyCtrlO))
	require.True(t, m.editing)

	m = send(t, m,
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyBackspace},
		typed("450"),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	require.False(t, m.editing)
	require.Equal(t, 450*time.Millisecond, m.cfg.Highlight.ShortDelay)
	require.Equal(t, 450*time.Millisecond, m.highlighter.Settings().ShortDelay)
	data, err := os.ReadFile(f.opts.ConfigPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "short_delay: 450ms")
	require.Contains(t, m.View(), "Settings saved")
}

func TestApp_SettingsCancel(t *testing.T) {
	m := newFixture(t, "").model()

	m = send(t, m, ctrl(tea.KeyCtrlO), ctrl(tea.KeyEsc))

	require.False(t, m.editing)
}

func TestApp_SaveFile(t *testing.T) {
	f := newFixture(t, "abc")
	f.opts.FilePath = filepath.Join(t.TempDir(), "main.stupid")
	m := f.model()

	m = send(t, m, typed("x"), ctrl(tea.KeyCtrlS))

	data, err := os.ReadFile(f.opts.FilePath)
	require.NoError(t, err)
	require.Equal(t, "xabc", string(data))
	view := m.View()
	require.Contains(t, view, "main.stupid")
	require.NotContains(t, view, "[+]")
	require.Contains(t, view, "Saved main.stupid")
}

func TestApp_SaveWithoutFileIsNoop(t *testing.T) {
	m := newFixture(t, "abc").model()

	updated, cmd := m.Update(ctrl(tea.KeyCtrlS))

	require.Nil(t, cmd)
	require.Equal(t, "abc", updated.(Model).savedText)
}

func TestApp_ExternalChangeReloads(t *testing.T) {
	m := newFixture(t, "one").model()

	m = send(t, m, pubsub.Event[watcher.Change]{
		Type:    pubsub.ChangedEvent,
		Payload: watcher.Change{Path: "/tmp/main.stupid", Text: "one\ntwo", Added: 1},
	})

	require.Equal(t, "one\ntwo", m.editor.Text())
	require.Equal(t, []string{"one", "two"}, m.highlighter.Lines())
	require.NotContains(t, m.View(), "[+]")
}

func TestApp_ExternalRemovalWarns(t *testing.T) {
	m := newFixture(t, "one").model()

	m = send(t, m, pubsub.Event[watcher.Change]{
		Type:    pubsub.RemovedEvent,
		Payload: watcher.Change{Path: "/tmp/main.stupid"},
	})

	require.Equal(t, "one", m.editor.Text())
	require.Contains(t, m.View(), "main.stupid was removed")
}

func TestApp_HelpToggle(t *testing.T) {
	m := newFixture(t, "").model()

	m = send(t, m, ctrl(tea.KeyF1))
	require.True(t, m.showHelp)
	require.Contains(t, ansi.Strip(m.View()), "esc or f1 to close", "the footer fits on screen")

	m = send(t, m, typed("z"), ctrl(tea.KeyDown))
	require.True(t, m.showHelp, "other keys are swallowed")
	require.Empty(t, m.editor.Text())
	require.Contains(t, ansi.Strip(m.View()), "esc or f1 to close")

	m = send(t, m, ctrl(tea.KeyEsc))
	require.False(t, m.showHelp)
}

func TestApp_FocusSwitch(t *testing.T) {
	m := newFixture(t, "abc").model()

	m = send(t, m, ctrl(tea.KeyTab), typed("q"))

	require.Equal(t, focusTerminal, m.focus)
	require.Equal(t, "abc", m.editor.Text(), "keys go to the terminal")

	m = send(t, m, ctrl(tea.KeyTab))
	require.Equal(t, focusEditor, m.focus)
}

func TestApp_LogPaneOnlyInDebug(t *testing.T) {
	m := newFixture(t, "").model()
	m = send(t, m, ctrl(tea.KeyCtrlG))
	require.False(t, m.logs.Visible())

	f := newFixture(t, "")
	f.opts.Debug = true
	m = f.model()
	m = send(t, m, ctrl(tea.KeyCtrlG))
	require.True(t, m.logs.Visible())
}

func TestApp_QuitKeys(t *testing.T) {
	m := newFixture(t, "").model()
	for _, k := range []tea.KeyType{tea.KeyCtrlC, tea.KeyCtrlQ} {
		_, cmd := m.Update(ctrl(k))
		require.NotNil(t, cmd)
		require.Equal(t, tea.Quit(), cmd())
	}
}

func TestApp_CloseStopsEverything(t *testing.T) {
	m := newFixture(t, "print(1)").model()
	updated, _ := m.Update(ctrl(tea.KeyCtrlR))
	m = updated.(Model)

	require.NoError(t, m.Close())
	require.False(t, m.runner.Busy())
	require.Nil(t, m.highlighter.SetText("changed"))
}

func TestConfigError_NamesVariable(t *testing.T) {
	err := fmt.Errorf("%w: set GEMINI_API_KEY", config.ErrMissingAPIKey)
	m := NewConfigError(err, "GEMINI_API_KEY")

	view := m.View()
	require.Contains(t, view, "Configuration Error")
	require.Contains(t, view, "export GEMINI_API_KEY=")
}

func TestConfigError_OtherErrorsShownVerbatim(t *testing.T) {
	m := NewConfigError(errors.New("highlight: short delay below 100ms"), "GEMINI_API_KEY")
	require.Contains(t, m.View(), "short delay below 100ms")
}

func TestConfigError_OnlyQuitKeysWork(t *testing.T) {
	m := NewConfigError(config.ErrMissingAPIKey, "GEMINI_API_KEY")

	_, cmd := m.Update(typed("a"))
	require.Nil(t, cmd)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)

	for _, k := range []tea.KeyMsg{typed("q"), ctrl(tea.KeyEsc), ctrl(tea.KeyCtrlC)} {
		_, cmd = m.Update(k)
		require.NotNil(t, cmd)
		require.Equal(t, tea.Quit(), cmd())
	}
}

func TestApp_Teatest(t *testing.T) {
	m := New(newFixture(t, "print(\"一键三连\")").opts)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("StupiD IDEA")) && bytes.Contains(b, []byte("Terminal"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(ctrl(tea.KeyCtrlQ))
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
}

func TestConfigError_Teatest(t *testing.T) {
	m := NewConfigError(config.ErrMissingAPIKey, "GEMINI_API_KEY")
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 20))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Configuration Error")) && bytes.Contains(b, []byte("GEMINI_API_KEY"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(typed("q"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
}
