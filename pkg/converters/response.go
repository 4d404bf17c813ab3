package converters

import (
	"bytes"
	"encoding/json"

	"github.com/feichai0017/ticket-extractor/internal/models"
)

const (
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeText = "text/plain; charset=utf-8"
)

// Response is a transport-neutral rendering of a pipeline result.
type Response struct {
	ContentType string
	Body        []byte
	Warnings    []string
}

// FromResult maps structured results to their JSON bytes as returned by the
// model and plain text results to the text itself.
func FromResult(r *models.Result) Response {
	if r.IsStructured() {
		return Response{ContentType: ContentTypeJSON, Body: []byte(r.JSON), Warnings: r.Warnings}
	}
	return Response{ContentType: ContentTypeText, Body: []byte(r.Text), Warnings: r.Warnings}
}

// Pretty indents structured results for terminals. Key order is preserved.
func Pretty(r *models.Result) string {
	if !r.IsStructured() {
		return r.Text
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.JSON, "", "  "); err != nil {
		return string(r.JSON)
	}
	return buf.String()
}
