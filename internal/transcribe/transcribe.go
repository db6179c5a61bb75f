// Package transcribe holds the request/result types shared by every speech
// backend and the single call that turns a Request into a Result.
package transcribe

import (
	"context"
	"errors"
	"fmt"
)

const autoLanguage = "auto"

// Request is one transcription job as given on the command line.
type Request struct {
	AudioPath string `json:"audio" validate:"required,notblank"`
	Model     string `json:"model" validate:"required,notblank"`
	Language  string `json:"language,omitempty"`
}

// Options is the parameter set handed to a backend. An empty Language means
// the backend detects the language itself and must not send a language hint.
type Options struct {
	Model    string
	Language string
}

// Response is what a backend returned. Text is nil when the backend payload
// carried no text field. Mapping reports whether the payload was a key-value
// object at all.
type Response struct {
	Text    *string
	Mapping bool
}

// Result is the transcript written to stdout.
type Result struct {
	Text string `json:"text"`
}

type Backend interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string, opts Options) (Response, error)
}

func NewRequest(audioPath, model, language string) (Request, error) {
	req := Request{AudioPath: audioPath, Model: model, Language: language}
	if err := ValidateStruct(req); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (r Request) Options() Options {
	return Options{
		Model:    r.Model,
		Language: NormalizeLanguage(r.Language),
	}
}

// NormalizeLanguage maps the absent hint and the literal "auto" to the empty
// string. Any other value, "Auto" included, is passed through unchanged.
func NormalizeLanguage(language string) string {
	if language == autoLanguage {
		return ""
	}
	return language
}

// TextOrEmpty returns the transcript text, or "" when the backend gave none.
func (r Response) TextOrEmpty() string {
	if r.Text == nil {
		return ""
	}
	return *r.Text
}

// Run performs exactly one backend call for req.
func Run(ctx context.Context, backend Backend, req Request) (Result, error) {
	if backend == nil {
		return Result{}, errors.New("no transcription backend configured")
	}
	if err := ValidateStruct(req); err != nil {
		return Result{}, err
	}

	resp, err := backend.Transcribe(ctx, req.AudioPath, req.Options())
	if err != nil {
		return Result{}, fmt.Errorf("%s transcribe %s: %w", backend.Name(), req.AudioPath, err)
	}

	return Result{Text: resp.TextOrEmpty()}, nil
}
