package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON means every extraction attempt failed to locate a JSON object in
// the model's reply.
var ErrNoJSON = errors.New("no valid JSON found in model response")

// MissingFieldsError reports a parsed object that lacks required top-level
// fields. Fields holds exactly the missing names, in canonical order.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

var (
	analysisTagRe = regexp.MustCompile(`(?s)<analysis>(.*?)</analysis>`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// The model is not guaranteed to emit pure JSON: it wraps the object in prose,
// markdown fences, or the <analysis> tags the prompt asks for. Each candidate
// function is a pure text transform; they are tried in order and the first one
// whose output decodes as a JSON object wins.
var candidates = []func(string) string{
	func(s string) string { return s },
	normalizeWhitespace,
	taggedContent,
}

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func taggedContent(s string) string {
	m := analysisTagRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ParseResult recovers a typed Result from the model's free-text reply.
func ParseResult(raw string) (*Result, error) {
	var fields map[string]json.RawMessage
	var matched string
	for _, candidate := range candidates {
		text := candidate(raw)
		if text == "" {
			continue
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal([]byte(text), &probe); err == nil {
			fields = probe
			matched = text
			break
		}
	}
	if matched == "" {
		return nil, ErrNoJSON
	}

	var missing []string
	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	var result Result
	if err := json.Unmarshal([]byte(matched), &result); err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}
	return &result, nil
}
