package models

import (
	"encoding/json"
)

// ResultKind tags the variant carried by a Result.
type ResultKind string

const (
	Structured ResultKind = "structured"
	PlainText  ResultKind = "plain_text"
)

// Result is what the pipeline hands back to a caller. Structured results keep
// the model's JSON bytes verbatim so key order survives.
type Result struct {
	Kind     ResultKind       `json:"kind"`
	JSON     json.RawMessage  `json:"json,omitempty"`
	Text     string           `json:"text,omitempty"`
	Method   ExtractionMethod `json:"method,omitempty"`
	Model    string           `json:"model,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
}

// IsStructured reports whether the result carries parsed JSON.
func (r *Result) IsStructured() bool {
	return r != nil && r.Kind == Structured
}

// Decode unmarshals a structured result into v.
func (r *Result) Decode(v interface{}) error {
	if !r.IsStructured() {
		return ErrNotStructured
	}
	return json.Unmarshal(r.JSON, v)
}
