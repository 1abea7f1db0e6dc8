package util

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when no candidate JSON span is found in the text
var ErrNoJSON = errors.New("no JSON value found in text")

// ExtractObject locates the outermost {...} span in text and unmarshals it
// into out. Model output is frequently wrapped in prose or code fences; the
// bracket search skips anything outside the object itself.
func ExtractObject(text string, out any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return ErrNoJSON
	}
	return json.Unmarshal([]byte(text[start:end+1]), out)
}

// ExtractStringArray locates the outermost [...] span in text and parses it
// as a JSON array of strings.
func ExtractStringArray(text string) ([]string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, ErrNoJSON
	}

	var items []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &items); err != nil {
		return nil, err
	}
	return items, nil
}
