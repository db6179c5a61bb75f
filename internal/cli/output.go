package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fmueller/mlx-transcribe/internal/transcribe"
)

// writeResult prints result as a single JSON object using the ": " key
// separator and no trailing newline.
func writeResult(w io.Writer, result transcribe.Result) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result.Text); err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	if _, err := fmt.Fprintf(w, `{"text": %s}`, bytes.TrimRight(buf.Bytes(), "\n")); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
