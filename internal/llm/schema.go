package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/feichai0017/ticket-extractor/internal/models"
)

const (
	datePattern = `^\d{4}-\d{2}-\d{2}$`
	timePattern = `^([01]\d|2[0-3]):[0-5]\d$`
)

// TicketSchema describes a well-formed extraction. Extra keys are allowed.
func TicketSchema() map[string]any {
	return map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": ticketProperties(true),
	}
}

func ticketProperties(withSegments bool) map[string]any {
	nullableString := func(pattern string) map[string]any {
		p := map[string]any{"type": []string{"string", "null"}}
		if pattern != "" {
			p["pattern"] = pattern
		}
		return p
	}

	props := make(map[string]any, len(models.TicketFields)+1)
	for _, f := range models.TicketFields {
		switch f {
		case "departure_date", "arrival_date":
			props[f] = nullableString(datePattern)
		case "departure_time", "arrival_time":
			props[f] = nullableString(timePattern)
		case "seat_number", "baggage_allowance":
			props[f] = map[string]any{"type": []string{"string", "number", "null"}}
		default:
			props[f] = nullableString("")
		}
	}
	if withSegments {
		props[models.SegmentsField] = map[string]any{
			"type": []string{"array", "null"},
			"items": map[string]any{
				"type":       "object",
				"properties": ticketProperties(false),
			},
		}
	}
	return props
}

// Validator checks structured results against the ticket schema.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	return NewValidatorWithSchema(TicketSchema())
}

func NewValidatorWithSchema(schemaMap map[string]any) (*Validator, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate returns one message per violation; nil means the data conforms.
// A top-level array is checked element by element.
func (v *Validator) Validate(data []byte) []string {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("unmarshal data: %v", err)}
	}

	if items, ok := doc.([]any); ok {
		var out []string
		for i, item := range items {
			for _, msg := range v.validate(item) {
				out = append(out, fmt.Sprintf("[%d]%s", i, msg))
			}
		}
		return out
	}
	return v.validate(doc)
}

func (v *Validator) validate(doc any) []string {
	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, e := range ve.BasicOutput().Errors {
		if e.InstanceLocation == "" || e.Error == "" {
			continue
		}
		msg := fmt.Sprintf("%s: %s", e.InstanceLocation, e.Error)
		if _, dup := seen[msg]; dup {
			continue
		}
		seen[msg] = struct{}{}
		out = append(out, msg)
	}
	if len(out) == 0 {
		out = append(out, ve.Error())
	}
	sort.Strings(out)
	return out
}
