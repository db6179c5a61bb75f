// Package openai transcribes through any server exposing the OpenAI
// /audio/transcriptions endpoint (mlx-omni-server, LM Studio, whisper.cpp server).
package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmueller/mlx-transcribe/internal/transcribe"
	"go.uber.org/zap"
)

const (
	Name           = "openai"
	DefaultTimeout = 10 * time.Minute

	maxErrorBody = 512
)

type Config struct {
	BaseURL    string        `json:"server-url" validate:"required,url"`
	APIKey     string        `json:"-" validate:"-"`
	Timeout    time.Duration `json:"-" validate:"-"`
	HTTPClient *http.Client  `json:"-" validate:"-"`
	Logger     *zap.Logger   `json:"-" validate:"-"`
}

type Backend struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// New checks the server configuration. It does not contact the server.
func New(cfg Config) (*Backend, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if err := transcribe.ValidateStruct(cfg); err != nil {
		return nil, &transcribe.ConfigError{
			Backend: Name,
			Hint:    "no transcription server configured; set --server-url or MLX_TRANSCRIBE_SERVER_URL",
			Err:     err,
		}
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Backend{
		baseURL: cfg.BaseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  cfg.HTTPClient,
		logger:  cfg.Logger,
	}, nil
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Transcribe(ctx context.Context, audioPath string, opts transcribe.Options) (transcribe.Response, error) {
	body, contentType, err := buildForm(audioPath, opts)
	if err != nil {
		return transcribe.Response{}, err
	}

	endpoint := b.baseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return transcribe.Response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	b.logger.Debug("posting audio", zap.String("endpoint", endpoint), zap.String("audio", audioPath), zap.String("model", opts.Model))
	resp, err := b.client.Do(req)
	if err != nil {
		return transcribe.Response{}, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return transcribe.Response{}, fmt.Errorf("read transcription response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return transcribe.Response{}, fmt.Errorf("transcription server returned %d: %s", resp.StatusCode, transcribe.Truncate(strings.TrimSpace(string(payload)), maxErrorBody))
	}

	decoded, err := transcribe.DecodeResponse(payload)
	if err != nil {
		return transcribe.Response{}, err
	}
	if !decoded.Mapping {
		b.logger.Warn("transcription server returned a non-object body; using empty text", zap.String("endpoint", endpoint))
	}
	return decoded, nil
}

func buildForm(audioPath string, opts transcribe.Options) (io.Reader, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("model", opts.Model); err != nil {
		return nil, "", fmt.Errorf("write model field: %w", err)
	}
	if language := transcribe.NormalizeLanguage(opts.Language); language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return nil, "", fmt.Errorf("write language field: %w", err)
		}
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return nil, "", fmt.Errorf("write response_format field: %w", err)
	}

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy audio into form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}
