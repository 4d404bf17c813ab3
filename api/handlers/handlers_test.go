package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/ticket-extractor/internal/models"
	"github.com/feichai0017/ticket-extractor/internal/utils/validator"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
	"github.com/feichai0017/ticket-extractor/pkg/storage/local"
)

var pdfContent = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")

type fakeService struct {
	result *models.Result
	err    error
	paths  []string
	models []string
	seen   bool
}

func (f *fakeService) Process(_ context.Context, path, model string) (*models.Result, error) {
	f.paths = append(f.paths, path)
	f.models = append(f.models, model)
	_, err := os.Stat(path)
	f.seen = err == nil
	return f.result, f.err
}

type server struct {
	engine  *gin.Engine
	service *fakeService
	dir     string
}

func newServer(t *testing.T, cfg *HandlerConfig) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	log := logger.NewTestLogger()
	store, err := local.New(dir, log)
	require.NoError(t, err)

	svc := &fakeService{result: &models.Result{Kind: models.Structured, JSON: json.RawMessage(`{"airline": "Air France"}`)}}
	if cfg == nil {
		cfg = &HandlerConfig{}
	}
	uploads := validator.NewDocumentValidator(log, &validator.ValidatorConfig{MaxFileSize: cfg.MaxUploadBytes})
	h := NewHandlers(svc, store, uploads, log, cfg)

	r := gin.New()
	r.GET("/api/health", h.Health.Check)
	r.POST("/api/extract", h.Extract.Extract)
	return &server{engine: r, service: svc, dir: dir}
}

func upload(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if filename != "-" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (s *server) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestExtractReturnsModelJSON(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(upload(t, "Billet.pdf", pdfContent, map[string]string{"model": "openai/gpt-4o-mini"}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `{"airline": "Air France"}`, rec.Body.String())
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.Empty(t, rec.Header().Get(HeaderSchemaWarnings))
	require.Equal(t, []string{"openai/gpt-4o-mini"}, s.service.models)
	require.True(t, s.service.seen, "upload must be staged while processing")
	require.Equal(t, ".pdf", filepath.Ext(s.service.paths[0]))

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	require.Empty(t, entries, "staged upload must be deleted")
}

func TestExtractPlainTextAndWarnings(t *testing.T) {
	s := newServer(t, nil)
	s.service.result = &models.Result{
		Kind:     models.PlainText,
		Text:     "Sorry, no ticket here.",
		Warnings: []string{"a", "b"},
	}

	rec := s.do(upload(t, "Billet.pdf", pdfContent, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Sorry, no ticket here.", rec.Body.String())
	require.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	require.Equal(t, "2", rec.Header().Get(HeaderSchemaWarnings))
	require.Equal(t, []string{""}, s.service.models)
}

func TestExtractRejectsBadUploads(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		content  []byte
		status   int
		message  string
	}{
		{"no file part", "-", nil, http.StatusBadRequest, "No file part in the request"},
		{"empty filename", "", pdfContent, http.StatusBadRequest, "No file selected"},
		{"unsupported type", "notes.txt", []byte("hello"), http.StatusBadRequest, "File type not supported"},
		{"empty file", "Billet.pdf", []byte{}, http.StatusBadRequest, "Uploaded file is empty"},
		{"mime mismatch", "ticket.png", pdfContent, http.StatusBadRequest, "Invalid MIME type application/pdf for extension .png"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newServer(t, nil)

			rec := s.do(upload(t, tc.filename, tc.content, nil))

			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.message, decodeError(t, rec).Error)
			require.Empty(t, s.service.paths)
		})
	}
}

func TestExtractRejectsOversizedUpload(t *testing.T) {
	s := newServer(t, &HandlerConfig{MaxUploadBytes: 16})

	rec := s.do(upload(t, "Billet.pdf", pdfContent, nil))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Contains(t, decodeError(t, rec).Error, "exceeds maximum limit")
	require.Empty(t, s.service.paths)
}

func TestExtractMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"unsupported", models.UnsupportedFormat(".gif"), http.StatusBadRequest, "unsupported file format: .gif"},
		{"no text", models.NewAppError("no_text", "No text was extracted from the file", models.ErrNoTextExtracted), http.StatusUnprocessableEntity, "No text was extracted from the file"},
		{"provider", pkgerrors.WithStack(fmt.Errorf("%w: status 502", models.ErrProvider)), http.StatusInternalServerError, "model provider failure: status 502"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newServer(t, &HandlerConfig{ExposeTraceback: true})
			s.service.err = tc.err

			rec := s.do(upload(t, "Billet.pdf", pdfContent, nil))

			require.Equal(t, tc.status, rec.Code)
			resp := decodeError(t, rec)
			require.Equal(t, tc.message, resp.Error)
			if tc.status == http.StatusInternalServerError {
				require.Contains(t, resp.Traceback, "handlers_test.go")
			} else {
				require.Empty(t, resp.Traceback)
			}
		})
	}
}

func TestExtractHidesTracebackWhenDisabled(t *testing.T) {
	s := newServer(t, &HandlerConfig{ExposeTraceback: false})
	s.service.err = pkgerrors.New("boom")

	rec := s.do(upload(t, "Billet.pdf", pdfContent, nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	require.Equal(t, "boom", resp.Error)
	require.Empty(t, resp.Traceback)
}
