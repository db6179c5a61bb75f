package cli

import (
	"time"

	"github.com/fmueller/mlx-transcribe/internal/transcribe"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *appState) run(cmd *cobra.Command) error {
	req, err := transcribe.NewRequest(a.audio, a.model, a.language)
	if err != nil {
		return &UsageError{Err: err}
	}

	if err := a.loadConfig(cmd); err != nil {
		return err
	}

	openFn := a.openBackendFn
	if openFn == nil {
		openFn = a.openBackend
	}

	ctx := cmd.Context()
	backend, err := openFn(ctx)
	if err != nil {
		return err
	}

	opts := req.Options()
	a.log().Info("transcribing...",
		zap.String("backend", backend.Name()),
		zap.String("audio", req.AudioPath),
		zap.String("model", opts.Model),
		zap.String("language", languageLabel(opts.Language)),
	)
	stopSpinner := startSpinner(a.errWriter(), a.progressEnabled(), "Transcribing")
	started := time.Now()

	result, err := transcribe.Run(ctx, backend, req)
	stopSpinner()
	if err != nil {
		a.log().Warn("transcription failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return err
	}
	a.log().Info("transcription finished", zap.Duration("elapsed", time.Since(started)), zap.Int("length", len(result.Text)))

	return writeResult(cmd.OutOrStdout(), result)
}

func languageLabel(language string) string {
	if language == "" {
		return "auto"
	}
	return language
}
