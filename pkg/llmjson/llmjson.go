// Package llmjson pulls JSON payloads out of free-form model answers.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoPayload is returned when the text carries no JSON object or array.
var ErrNoPayload = errors.New("no json payload in response")

// StripFences removes markdown code-fence markers (```json ... ```) around a response.
func StripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	cleaned = strings.TrimPrefix(cleaned, "```")
	if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 {
		// drop the language tag line, e.g. "json"
		if tag := strings.TrimSpace(cleaned[:nl]); !strings.ContainsAny(tag, "{[") {
			cleaned = cleaned[nl+1:]
		}
	}
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// Extract returns the first complete JSON object or array found in text. Anything after it is ignored,
// and a brace in leading prose that does not open valid JSON is skipped.
func Extract(text string) (string, error) {
	cleaned := StripFences(text)

	var firstErr error
	for offset := 0; offset < len(cleaned); {
		i := strings.IndexAny(cleaned[offset:], "{[")
		if i < 0 {
			break
		}
		start := offset + i

		var raw json.RawMessage
		err := json.NewDecoder(strings.NewReader(cleaned[start:])).Decode(&raw)
		if err == nil {
			return string(raw), nil
		}
		if firstErr == nil {
			firstErr = err
		}
		offset = start + 1
	}

	if firstErr != nil {
		return "", fmt.Errorf("decode payload: %w", firstErr)
	}
	return "", ErrNoPayload
}

// Decode extracts the JSON payload from text and unmarshals it into v.
func Decode(text string, v any) error {
	payload, err := Extract(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
