package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/stupidea/internal/config"
	"github.com/zjrosen/stupidea/internal/history"
	"github.com/zjrosen/stupidea/internal/log"
	"github.com/zjrosen/stupidea/internal/run"
	"github.com/zjrosen/stupidea/internal/ui/terminal"
)

// errCompileFailed makes the process exit non-zero after the failure was
// printed.
var errCompileFailed = errors.New("compilation failed")

var runEcho bool

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Compile and run a StupiD file without the editor",
	Long: `Compile a StupiD file with the configured model and run the result in
the sandbox. Terminal lines are printed to stdout.

Examples:
  stupidea run main.stupid
  stupidea run --echo main.stupid`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runHeadless,
}

func init() {
	runCmd.Flags().BoolVar(&runEcho, "echo", false, "print the compiled JavaScript before running it")
	rootCmd.AddCommand(runCmd)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	cleanup := log.InitWriter(io.Discard)
	if debugEnabled() {
		cleanup()
		cleanup = log.InitWriter(os.Stderr)
	}
	defer cleanup()

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	apiKey, err := cfg.APIKey()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0]) //nolint:gosec // G304: user selected source file
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := newServices(ctx, cfg, apiKey)
	if err != nil {
		return err
	}
	defer svc.Close()

	var rec run.Recorder
	if svc.history != nil {
		rec = svc.history
	}
	status := execute(cmd.OutOrStdout(), svc.compiler, svc.sandbox, rec, cfg.Compile.Model, string(data), runEcho || cfg.Compile.EchoScript)
	if status == history.StatusCompileFailed {
		return errCompileFailed
	}
	return nil
}

// execute drives one run to completion, writing terminal lines to w.
func execute(w io.Writer, compiler run.Compiler, executor run.Executor, rec run.Recorder, model, source string, echo bool) history.Status {
	opts := []run.Option{run.WithEcho(echo)}
	if rec != nil {
		opts = append(opts, run.WithRecorder(rec))
	}
	c := run.New(compiler, executor, stdout{w}, opts...)
	c.Drive(c.Start(source, model))
	return c.LastStatus()
}

// stdout writes terminal lines unstyled.
type stdout struct {
	w io.Writer
}

func (s stdout) Append(lines ...string) {
	for _, line := range lines {
		_, _ = fmt.Fprintln(s.w, line)
	}
}

func (s stdout) AppendScript(script string) {
	_, _ = fmt.Fprintln(s.w, terminal.HighlightScript(script))
}
