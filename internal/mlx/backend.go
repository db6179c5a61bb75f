// Package mlx runs transcriptions through the mlx-whisper Python package.
package mlx

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/fmueller/mlx-transcribe/internal/transcribe"
	"go.uber.org/zap"
)

const (
	Name          = "mlx"
	DefaultPython = "python3"

	// InstallHint is the operator-facing message for a missing mlx-whisper.
	InstallHint = "mlx-whisper is not installed. Install with: python3 -m pip install mlx-whisper"
)

//go:embed assets/transcribe.py
var helperScript string

type Config struct {
	Python string
	Logger *zap.Logger
}

type Backend struct {
	Python string
	Logger *zap.Logger
}

// New resolves the interpreter and checks that it can import mlx_whisper.
// Every failure comes back as a *transcribe.ConfigError carrying InstallHint.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	python := strings.TrimSpace(cfg.Python)
	if python == "" {
		python = DefaultPython
	}

	resolved, err := exec.LookPath(python)
	if err != nil {
		return nil, unavailable(fmt.Errorf("python interpreter %q: %w", python, err))
	}

	if err := Probe(ctx, resolved); err != nil {
		return nil, unavailable(err)
	}

	logger.Debug("mlx-whisper available", zap.String("python", resolved))
	return &Backend{Python: resolved, Logger: logger}, nil
}

// Probe imports mlx_whisper in the given interpreter.
func Probe(ctx context.Context, python string) error {
	cmd := exec.CommandContext(ctx, python, "-c", "import mlx_whisper")
	var stderr bytes.Buffer
	cmd.Stdout = &bytes.Buffer{}
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if detail := lastLine(stderr.String()); detail != "" {
			return fmt.Errorf("import mlx_whisper: %w (%s)", err, detail)
		}
		return fmt.Errorf("import mlx_whisper: %w", err)
	}
	return nil
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Transcribe(ctx context.Context, audioPath string, opts transcribe.Options) (transcribe.Response, error) {
	if strings.TrimSpace(audioPath) == "" {
		return transcribe.Response{}, errors.New("audio path is required")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return transcribe.Response{}, errors.New("model is required")
	}

	params, err := buildParams(opts)
	if err != nil {
		return transcribe.Response{}, err
	}

	logger := b.log()
	cmd := exec.CommandContext(ctx, b.Python, "-c", helperScript, audioPath, string(params))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("running mlx-whisper", zap.String("python", b.Python), zap.String("audio", audioPath), zap.ByteString("params", params))
	if err := cmd.Run(); err != nil {
		errText := strings.TrimSpace(stderr.String())
		if isMissingModuleError(errText) {
			return transcribe.Response{}, unavailable(errors.New(lastLine(errText)))
		}
		return transcribe.Response{}, fmt.Errorf("mlx-whisper transcribe failed: %w (%s)", err, errText)
	}

	if extra := strings.TrimSpace(stderr.String()); extra != "" {
		logger.Debug("mlx-whisper stderr", zap.String("output", extra))
	}

	resp, err := transcribe.DecodeResponse(stdout.Bytes())
	if err != nil {
		return transcribe.Response{}, err
	}
	if !resp.Mapping {
		logger.Warn("mlx-whisper returned a non-mapping result; using empty text", zap.String("audio", audioPath))
	}
	return resp, nil
}

type transcribeParams struct {
	PathOrHFRepo string `json:"path_or_hf_repo"`
	Language     string `json:"language,omitempty"`
}

func buildParams(opts transcribe.Options) ([]byte, error) {
	encoded, err := json.Marshal(transcribeParams{
		PathOrHFRepo: opts.Model,
		Language:     transcribe.NormalizeLanguage(opts.Language),
	})
	if err != nil {
		return nil, fmt.Errorf("encode mlx-whisper params: %w", err)
	}
	return encoded, nil
}

func (b *Backend) log() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

func unavailable(err error) error {
	return &transcribe.ConfigError{Backend: Name, Hint: InstallHint, Err: err}
}

func isMissingModuleError(stderr string) bool {
	value := strings.ToLower(stderr)
	return strings.Contains(value, "no module named 'mlx_whisper'") ||
		strings.Contains(value, "no module named mlx_whisper")
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
