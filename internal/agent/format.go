package agent

import (
	"path/filepath"
	"strings"

	"github.com/feichai0017/ticket-extractor/internal/models"
)

var extToType = map[string]models.FileType{
	".jpg":  models.RasterImage,
	".jpeg": models.RasterImage,
	".png":  models.RasterImage,
	".bmp":  models.RasterImage,
	".tiff": models.RasterImage,
	".tif":  models.RasterImage,
	".pdf":  models.PdfDocument,
}

// Extension returns the lower-cased extension of filename, including the dot.
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Classify maps a filename to its routing class by extension, ignoring case.
// Anything outside the allow-list is Unsupported.
func Classify(filename string) models.FileType {
	if t, ok := extToType[Extension(filename)]; ok {
		return t
	}
	return models.Unsupported
}
