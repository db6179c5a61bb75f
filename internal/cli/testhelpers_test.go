package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/fmueller/mlx-transcribe/internal/config"
	"github.com/fmueller/mlx-transcribe/internal/transcribe"
)

type stubCall struct {
	audioPath string
	opts      transcribe.Options
}

type stubBackend struct {
	resp  transcribe.Response
	err   error
	calls []stubCall
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Transcribe(_ context.Context, audioPath string, opts transcribe.Options) (transcribe.Response, error) {
	s.calls = append(s.calls, stubCall{audioPath: audioPath, opts: opts})
	return s.resp, s.err
}

func textResponse(text string) transcribe.Response {
	return transcribe.Response{Text: &text, Mapping: true}
}

// testApp wires a stub backend behind the real command tree. opened counts
// backend constructions so tests can assert nothing was started.
type testApp struct {
	*appState
	backend *stubBackend
	openErr error
	opened  int
}

func newTestApp(backend *stubBackend) *testApp {
	ta := &testApp{backend: backend}
	ta.appState = &appState{
		loadConfigFn: func(config.Options) (config.Config, error) {
			return config.Config{Backend: "mlx", Python: "python3", Server: config.Server{Timeout: config.DefaultTimeout}}, nil
		},
	}
	ta.openBackendFn = func(context.Context) (transcribe.Backend, error) {
		ta.opened++
		if ta.openErr != nil {
			return nil, ta.openErr
		}
		return ta.backend, nil
	}
	return ta
}

func runCommand(t *testing.T, app *appState, args []string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := newRootCmd(app)
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}
