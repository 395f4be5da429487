package run

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/stupidea/internal/history"
	"github.com/zjrosen/stupidea/internal/sandbox"
)

type lines struct {
	got     []string
	scripts []string
}

func (l *lines) Append(s ...string)         { l.got = append(l.got, s...) }
func (l *lines) AppendScript(script string) { l.scripts = append(l.scripts, script) }

type fakeCompiler struct {
	mu     sync.Mutex
	calls  int
	script string
	err    error
}

func (f *fakeCompiler) Compile(_ context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.script, f.err
}

type memRecorder struct {
	runs []history.Run
}

func (m *memRecorder) Record(_ context.Context, r history.Run) (history.Run, error) {
	r.ID = "id"
	m.runs = append(m.runs, r)
	return r, nil
}

func TestController_FullCycle(t *testing.T) {
	out := &lines{}
	rec := &memRecorder{}
	comp := &fakeCompiler{script: `console.log("下次一定");`}
	c := New(comp, sandbox.New(), out, WithRecorder(rec), WithEcho(true))

	c.Drive(c.Start(`print("一键三连")`, "gemini-2.5-flash"))

	require.Equal(t, []string{
		MsgCompiling,
		MsgCompiled,
		"下次一定",
		MsgFinished,
	}, out.got)
	require.Equal(t, []string{`console.log("下次一定");`}, out.scripts)
	require.Equal(t, Idle, c.State())
	require.Equal(t, history.StatusOK, c.LastStatus())

	require.Len(t, rec.runs, 1)
	require.Equal(t, `print("一键三连")`, rec.runs[0].Source)
	require.Equal(t, []string{"下次一定"}, rec.runs[0].Output)
	require.Equal(t, "gemini-2.5-flash", rec.runs[0].Model)
}

func TestController_StartIsSingleFlight(t *testing.T) {
	out := &lines{}
	comp := &fakeCompiler{script: "1"}
	c := New(comp, sandbox.New(), out)

	first := c.Start("a", "m")
	second := c.Start("a", "m")
	require.NotNil(t, first)
	require.Nil(t, second)
	require.Equal(t, Compiling, c.State())

	c.Drive(first)
	require.Equal(t, 1, comp.calls)
	require.Equal(t, []string{MsgCompiling, MsgCompiled, MsgFinished}, out.got)
}

func TestController_CompileFailure(t *testing.T) {
	out := &lines{}
	rec := &memRecorder{}
	c := New(&fakeCompiler{err: errors.New("quota exceeded")}, sandbox.New(), out, WithRecorder(rec))

	c.Drive(c.Start("x", "m"))

	require.Equal(t, []string{MsgCompiling, ">>> Compilation Failed: quota exceeded"}, out.got)
	require.Equal(t, Idle, c.State())
	require.Equal(t, history.StatusCompileFailed, rec.runs[0].Status)
	require.Equal(t, "quota exceeded", rec.runs[0].Error)
}

func TestController_RuntimeError(t *testing.T) {
	out := &lines{}
	rec := &memRecorder{}
	c := New(&fakeCompiler{script: `console.log("a"); null.x;`}, sandbox.New(), out, WithRecorder(rec))

	c.Drive(c.Start("x", "m"))

	require.Len(t, out.got, 5)
	require.Equal(t, "a", out.got[2])
	require.Contains(t, out.got[3], sandbox.RuntimePrefix)
	require.Equal(t, MsgFinished, out.got[4])
	require.Equal(t, history.StatusRuntimeError, rec.runs[0].Status)
	require.Equal(t, out.got[3], rec.runs[0].Error)
}

func TestController_StopDropsLateCompile(t *testing.T) {
	out := &lines{}
	rec := &memRecorder{}
	c := New(&fakeCompiler{script: `console.log(1)`}, sandbox.New(), out, WithRecorder(rec))

	compile := c.Start("x", "m")
	stopCmd := c.Stop()
	require.Equal(t, Idle, c.State())
	require.IsType(t, RecordedMsg{}, stopCmd())

	late := compile()
	require.Nil(t, c.Update(late), "result of a stopped run is dropped")
	require.Equal(t, []string{MsgCompiling, MsgStopped}, out.got)
	require.Equal(t, history.StatusStopped, rec.runs[0].Status)

	require.NotNil(t, c.Start("x", "m"), "a new run may start after stop")
}

func TestController_StopWhileRunningCancelsScript(t *testing.T) {
	out := &lines{}
	c := New(&fakeCompiler{script: `for (;;) {}`}, sandbox.New(), out)

	compiled := c.Start("x", "m")()
	exec := c.Update(compiled)
	require.Equal(t, Running, c.State())

	done := make(chan tea.Msg)
	go func() { done <- exec() }()
	c.Stop()

	require.Nil(t, c.Update(<-done))
	require.Equal(t, []string{MsgCompiling, MsgCompiled, MsgStopped}, out.got)
}

func TestController_StopWhenIdle(t *testing.T) {
	out := &lines{}
	c := New(&fakeCompiler{}, sandbox.New(), out)
	require.Nil(t, c.Stop())
	require.Empty(t, out.got)
}

func TestController_IgnoresForeignMessages(t *testing.T) {
	c := New(&fakeCompiler{}, sandbox.New(), &lines{})
	require.Nil(t, c.Update(tea.KeyMsg{}))
}
