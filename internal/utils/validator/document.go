package validator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

const (
	CodeNoFileSelected  = "NO_FILE_SELECTED"
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeInvalidMimeType = "INVALID_MIME_TYPE"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeEmptyFile       = "EMPTY_FILE"
)

// DefaultMaxFileSize is the upload cap.
const DefaultMaxFileSize int64 = 16 * 1024 * 1024

// DocumentValidator checks uploads before they are staged.
type DocumentValidator struct {
	logger logger.Logger
	config *ValidatorConfig
}

type ValidatorConfig struct {
	MaxFileSize  int64
	AllowedTypes map[string][]string // extension -> accepted sniffed MIME types
}

type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	FileInfo FileInfo          `json:"fileInfo"`
}

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type FileInfo struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	Hash      string `json:"hash"`
}

// DefaultAllowedTypes lists the upload formats accepted by the HTTP API.
func DefaultAllowedTypes() map[string][]string {
	return map[string][]string{
		".jpg":  {"image/jpeg"},
		".jpeg": {"image/jpeg"},
		".png":  {"image/png"},
		".pdf":  {"application/pdf"},
	}
}

func NewDocumentValidator(log logger.Logger, config *ValidatorConfig) *DocumentValidator {
	if config == nil {
		config = &ValidatorConfig{}
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = DefaultMaxFileSize
	}
	if len(config.AllowedTypes) == 0 {
		config.AllowedTypes = DefaultAllowedTypes()
	}

	return &DocumentValidator{
		logger: log.Named("validator"),
		config: config,
	}
}

// ValidateFile checks name, size and content of an uploaded part. Content
// checks are skipped once a cheaper check has failed.
func (v *DocumentValidator) ValidateFile(file *multipart.FileHeader) (*ValidationResult, error) {
	result := &ValidationResult{
		IsValid: true,
		FileInfo: FileInfo{
			Filename:  file.Filename,
			Size:      file.Size,
			Extension: strings.ToLower(filepath.Ext(file.Filename)),
		},
	}

	if errs := v.performBasicValidation(result.FileInfo); len(errs) > 0 {
		result.IsValid = false
		result.Errors = errs
		return result, nil
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	mimeType, err := detectMimeType(f)
	if err != nil {
		return nil, fmt.Errorf("failed to detect mime type: %w", err)
	}
	result.FileInfo.MimeType = mimeType

	if errs := v.validateMimeType(result.FileInfo); len(errs) > 0 {
		result.IsValid = false
		result.Errors = append(result.Errors, errs...)
	}

	hash, err := calculateHash(f)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}
	result.FileInfo.Hash = hash

	if !result.IsValid {
		v.logger.Info("Upload rejected",
			logger.String("filename", file.Filename),
			logger.String("mimeType", mimeType),
		)
	}
	return result, nil
}

func (v *DocumentValidator) performBasicValidation(info FileInfo) []ValidationError {
	if info.Filename == "" {
		return []ValidationError{{
			Code:    CodeNoFileSelected,
			Message: "No file selected",
			Field:   "file",
		}}
	}

	if _, ok := v.config.AllowedTypes[info.Extension]; !ok {
		return []ValidationError{{
			Code:    CodeInvalidFileType,
			Message: "File type not supported",
			Field:   "extension",
		}}
	}

	if info.Size > v.config.MaxFileSize {
		return []ValidationError{{
			Code:    CodeFileTooLarge,
			Message: fmt.Sprintf("File size exceeds maximum limit of %d bytes", v.config.MaxFileSize),
			Field:   "size",
		}}
	}

	if info.Size == 0 {
		return []ValidationError{{
			Code:    CodeEmptyFile,
			Message: "Uploaded file is empty",
			Field:   "size",
		}}
	}

	return nil
}

func (v *DocumentValidator) validateMimeType(info FileInfo) []ValidationError {
	for _, mime := range v.config.AllowedTypes[info.Extension] {
		if mime == info.MimeType {
			return nil
		}
	}
	return []ValidationError{{
		Code:    CodeInvalidMimeType,
		Message: fmt.Sprintf("Invalid MIME type %s for extension %s", info.MimeType, info.Extension),
		Field:   "mimeType",
	}}
}

func detectMimeType(file multipart.File) (string, error) {
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buffer[:n]), nil
}

func calculateHash(file multipart.File) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
