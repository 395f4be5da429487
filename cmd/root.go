package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/stupidea/internal/app"
	"github.com/zjrosen/stupidea/internal/config"
	"github.com/zjrosen/stupidea/internal/log"
	"github.com/zjrosen/stupidea/internal/ui/editor"
	"github.com/zjrosen/stupidea/internal/watcher"
)

func init() {
	// Query the terminal background before any program starts so the OSC 11
	// reply does not race with Bubble Tea's input reader.
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".stupidea/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	cfgUsed   string
	cfg       config.Config
	cfgErr    error
	debugFlag bool
	noWatch   bool
)

var rootCmd = &cobra.Command{
	Use:   "stupidea [file]",
	Short: "A terminal editor for StupiD, highlighted and compiled by an LLM",
	Long: `StupiD IDEA is a terminal editor for the StupiD language. A language
model colours every token as you type and compiles the program to
JavaScript, which runs in an embedded sandbox.

The API key is read from GEMINI_API_KEY (or API_KEY).`,
	Version:      version,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./.stupidea/config.yaml or ~/.config/stupidea/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log and enable the log pane (ctrl+g)")
	rootCmd.Flags().BoolVar(&noWatch, "no-watch", false,
		"do not reload the file when it changes on disk")
}

func initConfig() {
	cfg, cfgUsed, cfgErr = loadConfig(viper.GetViper(), cfgFile)
}

// loadConfig reads the configuration into v. Lookup order: explicit,
// ./.stupidea/config.yaml, ~/.config/stupidea/config.yaml. When nothing is
// found the default template is written to ./.stupidea/config.yaml.
func loadConfig(v *viper.Viper, explicit string) (config.Config, string, error) {
	setDefaults(v, config.Defaults())

	switch {
	case explicit != "":
		v.SetConfigFile(explicit)
	case fileExists(localConfigPath):
		v.SetConfigFile(localConfigPath)
	default:
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "stupidea"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return config.Config{}, "", fmt.Errorf("reading config: %w", err)
		}
		// If the write fails, continue with defaults and no config file.
		if writeErr := config.WriteDefaultConfig(localConfigPath); writeErr == nil {
			v.SetConfigFile(localConfigPath)
			_ = v.ReadInConfig()
		}
	}

	var c config.Config
	if err := v.Unmarshal(&c); err != nil {
		return config.Config{}, "", fmt.Errorf("decoding config: %w", err)
	}

	used := v.ConfigFileUsed()
	if used == "" {
		used = localConfigPath
	}
	return c, used, nil
}

func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("api_key_env", d.APIKeyEnv)
	v.SetDefault("file", d.File)
	v.SetDefault("watch", d.Watch)
	v.SetDefault("highlight.short_delay", d.Highlight.ShortDelay)
	v.SetDefault("highlight.long_delay", d.Highlight.LongDelay)
	v.SetDefault("highlight.rate_limit_delay", d.Highlight.RateLimitDelay)
	v.SetDefault("highlight.model", d.Highlight.Model)
	v.SetDefault("highlight.cache.enabled", d.Highlight.Cache.Enabled)
	v.SetDefault("highlight.cache.ttl", d.Highlight.Cache.TTL)
	v.SetDefault("compile.model", d.Compile.Model)
	v.SetDefault("compile.timeout", d.Compile.Timeout)
	v.SetDefault("compile.cache.enabled", d.Compile.Cache.Enabled)
	v.SetDefault("compile.cache.ttl", d.Compile.Cache.TTL)
	v.SetDefault("compile.echo_script", d.Compile.EchoScript)
	v.SetDefault("sandbox.timeout", d.Sandbox.Timeout)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("ui.markdown_style", d.UI.MarkdownStyle)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// initLogging enables the debug log when --debug or STUPIDEA_DEBUG is set.
// STUPIDEA_LOG overrides the log path.
func initLogging() (func(), error) {
	if !debugEnabled() {
		return func() {}, nil
	}
	logPath := os.Getenv("STUPIDEA_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.Init(logPath)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "stupidea starting", "version", version, "config", cfgUsed, "log", logPath)
	return cleanup, nil
}

func debugEnabled() bool {
	return debugFlag || os.Getenv("STUPIDEA_DEBUG") != ""
}

// readSource loads path, falling back to the sample program when the file
// does not exist yet.
func readSource(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user selected source file
	if errors.Is(err, os.ErrNotExist) {
		return editor.Sample, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func sourcePath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if cfg.File != "" {
		return cfg.File
	}
	return config.DefaultFile
}

func runApp(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	cleanup, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	apiKey, err := cfg.APIKey()
	if err != nil {
		log.ErrorErr(log.CatConfig, "no API key", err, "env", cfg.KeyEnv())
		return runConfigError(err, cfg.KeyEnv())
	}

	path := sourcePath(args)
	text, err := readSource(path)
	if err != nil {
		return err
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

	var w *watcher.Watcher
	if cfg.Watch && !noWatch {
		w = startWatcher(path, text)
	}

	opts := app.Options{
		Config:     cfg,
		ConfigPath: cfgUsed,
		FilePath:   path,
		Text:       text,
		Classifier: svc.classifier,
		Compiler:   svc.compiler,
		Executor:   svc.sandbox,
		Watcher:    w,
		Debug:      debugEnabled(),
	}
	if svc.history != nil {
		opts.Recorder = svc.history
	}
	model := app.New(opts)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()

	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func startWatcher(path, text string) *watcher.Watcher {
	w, err := watcher.New(watcher.DefaultConfig(path), text)
	if err != nil {
		log.Warn(log.CatWatcher, "file watching disabled", "error", err)
		return nil
	}
	if err := w.Start(); err != nil {
		log.Warn(log.CatWatcher, "file watching disabled", "error", err)
		_ = w.Stop()
		return nil
	}
	return w
}

// runConfigError shows the blocking configuration error screen.
func runConfigError(cause error, env string) error {
	p := tea.NewProgram(app.NewConfigError(cause, env), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return cause
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
