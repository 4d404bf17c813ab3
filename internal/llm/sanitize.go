package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/feichai0017/ticket-extractor/internal/models"
)

// fenceRe matches an opening code fence with an optional language tag, or a
// closing fence at the very end.
var fenceRe = regexp.MustCompile("^```[A-Za-z0-9_+-]*\\s*|\\s*```$")

// Sanitize recovers a JSON object or array from a model answer. It tries the
// answer as-is, then with surrounding code fences removed. Otherwise the text
// comes back as PlainText: the stripped text if a fence was removed, the raw
// answer untouched if not.
func Sanitize(raw string) models.Result {
	trimmed := strings.TrimSpace(raw)
	if isCollection(trimmed) {
		return structured(trimmed)
	}

	stripped := fenceRe.ReplaceAllString(trimmed, "")
	if stripped == trimmed {
		return models.Result{Kind: models.PlainText, Text: raw}
	}

	if candidate := strings.TrimSpace(stripped); isCollection(candidate) {
		return structured(candidate)
	}
	return models.Result{Kind: models.PlainText, Text: stripped}
}

func structured(s string) models.Result {
	return models.Result{Kind: models.Structured, JSON: json.RawMessage(s)}
}

func isCollection(s string) bool {
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return false
	}
	return json.Valid([]byte(s))
}
