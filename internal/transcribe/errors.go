package transcribe

import (
	"errors"
	"fmt"
)

var ErrBackendUnavailable = errors.New("transcription backend unavailable")

// ConfigError reports a backend that cannot run in this environment. Hint is
// the operator-facing instruction for fixing it.
type ConfigError struct {
	Backend string
	Hint    string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return e.Hint
	}
	return fmt.Sprintf("%s (%v)", e.Hint, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBackendUnavailable}
	}
	return []error{ErrBackendUnavailable, e.Err}
}
