package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/feichai0017/ticket-extractor/internal/models"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

func init() {
	// pdfcpu would otherwise create a config directory under the user's home
	api.DisableConfigDir()
}

// Options controls artifact placement and encoding.
type Options struct {
	TempDir     string
	JPEGQuality int
}

// Normalizer converts raster images into single-page PDFs.
type Normalizer struct {
	logger logger.Logger
	opts   *Options
}

func NewNormalizer(log logger.Logger, opts *Options) *Normalizer {
	if opts == nil {
		opts = &Options{
			TempDir:     os.TempDir(),
			JPEGQuality: 95,
		}
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 95
	}

	return &Normalizer{
		logger: log.Named("normalizer"),
		opts:   opts,
	}
}

// Normalize decodes the image at path, drops its alpha channel and writes it
// as a one-page PDF into a uniquely named temp file. Any failure is logged and
// reported as ok == false; no partial file is left behind.
func (n *Normalizer) Normalize(ctx context.Context, path string) (*models.NormalizedDocument, bool) {
	log := logger.FromContext(ctx, n.logger).With(logger.String("path", path))

	if err := ctx.Err(); err != nil {
		log.Warn("Normalization cancelled", logger.Error(err))
		return nil, false
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		log.Warn("Failed to decode image", logger.Error(err))
		return nil, false
	}

	var encoded bytes.Buffer
	if err := imaging.Encode(&encoded, Flatten(img), imaging.JPEG, imaging.JPEGQuality(n.opts.JPEGQuality)); err != nil {
		log.Warn("Failed to encode image", logger.Error(err))
		return nil, false
	}

	out, err := os.CreateTemp(n.opts.TempDir, "ticket-*.pdf")
	if err != nil {
		log.Warn("Failed to create temp pdf", logger.Error(err))
		return nil, false
	}
	doc := &models.NormalizedDocument{Path: out.Name()}

	if err := writePDF(out, &encoded); err != nil {
		out.Close()
		doc.Close()
		log.Warn("Failed to convert image to PDF", logger.Error(err))
		return nil, false
	}
	if err := out.Close(); err != nil {
		doc.Close()
		log.Warn("Failed to close temp pdf", logger.Error(err))
		return nil, false
	}

	log.Debug("Image converted to PDF", logger.String("artifact", doc.Path))
	return doc, true
}

func writePDF(w io.Writer, jpeg io.Reader) error {
	conf := model.NewDefaultConfiguration()
	if err := api.ImportImages(nil, w, []io.Reader{jpeg}, pdfcpu.DefaultImportConfig(), conf); err != nil {
		return fmt.Errorf("failed to import image: %w", err)
	}
	return nil
}

// Flatten returns an NRGBA copy of img with every pixel fully opaque. The
// color channels are kept as-is; alpha is discarded rather than composited.
func Flatten(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
