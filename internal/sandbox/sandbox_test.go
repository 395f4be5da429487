package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRun_CapturesConsoleInOrder(t *testing.T) {
	res := New().Run(context.Background(), `
console.log("下次一定");
console.info("a", 1, true);
console.warn("careful");
console.error("bad", 2);
console.debug(null, undefined);
`)

	require.NoError(t, res.Err)
	require.Equal(t, []string{
		"下次一定",
		"a 1 true",
		"WARN: careful",
		"ERROR: bad 2",
		"null undefined",
	}, res.Lines)
}

func TestRun_ObjectsAreStringified(t *testing.T) {
	res := New().Run(context.Background(), `
console.log({a: 1, b: [1, "x"]});
console.log([1, 2, 3]);
console.log(function f() {}.name);
`)

	require.NoError(t, res.Err)
	require.Equal(t, []string{`{"a":1,"b":[1,"x"]}`, "[1,2,3]", "f"}, res.Lines)
}

func TestRun_UncaughtErrorStopsExecution(t *testing.T) {
	res := New().Run(context.Background(), `
console.log("before");
throw new Error("Kaboom");
console.log("after");
`)

	require.Error(t, res.Err)
	require.Equal(t, []string{"before", "RUNTIME ERROR: Kaboom"}, res.Lines)
}

func TestRun_ThrownNonError(t *testing.T) {
	res := New().Run(context.Background(), `throw "just a string";`)
	require.Equal(t, []string{"RUNTIME ERROR: just a string"}, res.Lines)
}

func TestRun_ReferenceError(t *testing.T) {
	res := New().Run(context.Background(), `consle.log(1)`)
	require.Len(t, res.Lines, 1)
	require.Equal(t, "RUNTIME ERROR: consle is not defined", res.Lines[0])
}

func TestRun_SyntaxError(t *testing.T) {
	res := New().Run(context.Background(), `functin add(a, b) { retn a + b }`)
	require.Error(t, res.Err)
	require.Len(t, res.Lines, 1)
	require.True(t, strings.HasPrefix(res.Lines[0], RuntimePrefix))
}

func TestRun_TopLevelReturn(t *testing.T) {
	res := New().Run(context.Background(), `console.log(1); return; console.log(2);`)
	require.NoError(t, res.Err)
	require.Equal(t, []string{"1"}, res.Lines)
}

func TestRun_RunsAreIsolated(t *testing.T) {
	sb := New()
	sb.Run(context.Background(), `var leaked = 42; console.log = null;`)

	res := sb.Run(context.Background(), `console.log(typeof leaked);`)
	require.NoError(t, res.Err)
	require.Equal(t, []string{"undefined"}, res.Lines)
}

func TestRun_TimeoutInterruptsInfiniteLoop(t *testing.T) {
	res := New(WithTimeout(50*time.Millisecond)).Run(context.Background(), `
console.log("spinning");
while (true) {}
`)

	require.ErrorIs(t, res.Err, ErrInterrupted)
	require.Len(t, res.Lines, 2)
	require.Equal(t, "spinning", res.Lines[0])
	require.Contains(t, res.Lines[1], "timed out after 50ms")
}

func TestRun_CancelInterrupts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res := New().Run(ctx, `for (;;) {}`)
	require.ErrorIs(t, res.Err, ErrInterrupted)
	require.ErrorIs(t, res.Err, context.Canceled)
}
