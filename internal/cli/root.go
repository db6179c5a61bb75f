package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fmueller/mlx-transcribe/internal/config"
	"github.com/fmueller/mlx-transcribe/internal/logging"
	"github.com/fmueller/mlx-transcribe/internal/mlx"
	"github.com/fmueller/mlx-transcribe/internal/openai"
	"github.com/fmueller/mlx-transcribe/internal/platform"
	"github.com/fmueller/mlx-transcribe/internal/transcribe"
	"github.com/fmueller/mlx-transcribe/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type appState struct {
	audio    string
	model    string
	language string

	backend    string
	python     string
	serverURL  string
	configFile string
	envFile    string

	verbose    bool
	jsonLogs   bool
	noProgress bool

	cfg    config.Config
	logger *zap.Logger
	errOut io.Writer

	loadConfigFn  func(opts config.Options) (config.Config, error)
	openBackendFn func(ctx context.Context) (transcribe.Backend, error)
}

func NewRootCmd() *cobra.Command {
	app := &appState{}
	app.loadConfigFn = config.Load
	app.openBackendFn = app.openBackend
	return newRootCmd(app)
}

func newRootCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mlx-transcribe --audio <path> --model <id> [--language <code>]",
		Short:         "Transcribe an audio file with mlx-whisper and print the transcript as JSON",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			app.errOut = cmd.ErrOrStderr()
			app.logger = logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs, Output: app.errOut})
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd)
		},
	}

	cmd.SetVersionTemplate("mlx-transcribe v{{.Version}}\n")

	bindRequestFlags(cmd, app)
	bindBackendFlags(cmd, app)
	bindLoggingFlags(cmd, app)

	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindRequestFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.audio, "audio", "", "Path to the audio file")
	cmd.Flags().StringVar(&app.model, "model", "", "Model id: local path or Hugging Face repo, e.g. mlx-community/whisper-small-mlx")
	cmd.Flags().StringVar(&app.language, "language", "", "Language code (en, zh, fr, ...); omit or use auto to detect")
	_ = cmd.MarkFlagRequired("audio")
	_ = cmd.MarkFlagRequired("model")
}

func bindBackendFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.backend, "backend", "", "Transcription backend: mlx|openai (default mlx)")
	cmd.Flags().StringVar(&app.python, "python", "", "Python interpreter with mlx-whisper installed (default python3)")
	cmd.Flags().StringVar(&app.serverURL, "server-url", "", "Base URL of an OpenAI-compatible transcription server, e.g. http://localhost:10240/v1")
	cmd.Flags().StringVar(&app.configFile, "config", "", "Config file (default <user config dir>/mlx-transcribe/config.yml)")
	cmd.Flags().StringVar(&app.envFile, "env-file", "", "Env file with MLX_TRANSCRIBE_* settings (default ./.env)")
}

func bindLoggingFlags(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "log-json", app.jsonLogs, "Write logs to stderr as JSON")
	cmd.PersistentFlags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable the progress spinner")
}

// loadConfig merges file and environment settings with explicitly set flags.
func (a *appState) loadConfig(cmd *cobra.Command) error {
	loadFn := a.loadConfigFn
	if loadFn == nil {
		loadFn = config.Load
	}

	cfg, err := loadFn(config.Options{ConfigFile: a.configFile, EnvFile: a.envFile})
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = strings.ToLower(strings.TrimSpace(a.backend))
	}
	if flags.Changed("python") {
		cfg.Python = a.python
	}
	if flags.Changed("server-url") {
		cfg.Server.URL = a.serverURL
	}

	if err := transcribe.ValidateStruct(cfg); err != nil {
		return &UsageError{Err: err}
	}

	a.cfg = cfg
	return nil
}

func (a *appState) openBackend(ctx context.Context) (transcribe.Backend, error) {
	switch a.cfg.Backend {
	case mlx.Name:
		if !platform.AppleSilicon() {
			a.log().Warn("mlx-whisper runs on Apple silicon only; expect the backend check to fail")
		}
		backend, err := mlx.New(ctx, mlx.Config{Python: a.cfg.Python, Logger: a.log()})
		if err != nil {
			return nil, err
		}
		return backend, nil
	case openai.Name:
		backend, err := openai.New(openai.Config{
			BaseURL: a.cfg.Server.URL,
			APIKey:  a.cfg.Server.APIKey,
			Timeout: a.cfg.Server.Timeout,
			Logger:  a.log(),
		})
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", a.cfg.Backend)
	}
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	f, ok := a.errWriter().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *appState) errWriter() io.Writer {
	if a.errOut == nil {
		return os.Stderr
	}
	return a.errOut
}
