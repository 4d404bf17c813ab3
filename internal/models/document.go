package models

import (
	"os"
)

// FileType is the routing class of an uploaded file.
type FileType string

const (
	RasterImage FileType = "image"
	PdfDocument FileType = "pdf"
	Unsupported FileType = "unsupported"
)

// ExtractionMethod records which extractor produced a piece of text.
type ExtractionMethod string

const (
	MethodPDFText  ExtractionMethod = "pdf_text"
	MethodOCR      ExtractionMethod = "ocr"
	MethodTextract ExtractionMethod = "textract"
)

// Extraction is the outcome of one extractor run. Empty Text means nothing
// was recovered; Err is set when the extractor itself failed.
type Extraction struct {
	Text   string
	Method ExtractionMethod
	Err    error
}

// Empty reports whether the extraction produced no usable text.
func (e Extraction) Empty() bool {
	return e.Text == ""
}

// Failed reports whether the extractor hit an error.
func (e Extraction) Failed() bool {
	return e.Err != nil
}

// NormalizedDocument is a temporary single-page PDF produced from an image.
// It must be closed by the call that created it.
type NormalizedDocument struct {
	Path string
}

// Close removes the backing file. Safe to call more than once.
func (d *NormalizedDocument) Close() error {
	if d == nil || d.Path == "" {
		return nil
	}
	err := os.Remove(d.Path)
	if os.IsNotExist(err) {
		err = nil
	}
	d.Path = ""
	return err
}

// ExtractionRequest is the input to prompt construction.
type ExtractionRequest struct {
	Text  string
	Model string
}
