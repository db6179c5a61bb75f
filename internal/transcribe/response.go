package transcribe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// DecodeResponse reads a backend's raw JSON payload. An object yields its
// "text" field: strings are taken verbatim, any other JSON value is kept as
// its JSON text. Valid JSON that is not an object decodes to a Response with
// Mapping unset and a nil Text.
func DecodeResponse(raw []byte) (Response, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Response{}, nil
	}

	if !json.Valid(trimmed) {
		return Response{}, fmt.Errorf("decode backend response: invalid JSON %q", Truncate(string(trimmed), 120))
	}

	if trimmed[0] != '{' {
		return Response{}, nil
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return Response{}, fmt.Errorf("decode backend response: %w", err)
	}

	rawText, ok := payload["text"]
	if !ok {
		return Response{Mapping: true}, nil
	}

	text := string(bytes.TrimSpace(rawText))
	var s string
	if err := json.Unmarshal(rawText, &s); err == nil {
		text = s
	}
	return Response{Text: &text, Mapping: true}, nil
}

// Truncate shortens value to at most max bytes plus "...", cutting at a rune
// boundary.
func Truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut] + "..."
}
