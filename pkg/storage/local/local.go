package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type Client struct {
	dir    string
	logger logger.Logger
}

// New creates dir if needed and returns a client rooted there.
func New(dir string, log logger.Logger) (*Client, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Client{dir: dir, logger: log.Named("storage")}, nil
}

// SecureFilename reduces name to a safe base name. The extension is kept.
func SecureFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "upload"
	}
	if ext := filepath.Ext(name); ext != "" && !strings.HasSuffix(base, ext) {
		base += unsafeChars.ReplaceAllString(ext, "")
	}
	return base
}

func (c *Client) Store(ctx context.Context, reader io.Reader, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString() + "_" + SecureFilename(filename)
	path := filepath.Join(c.dir, id)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(f, reader)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	c.logger.Debug("Stored upload", logger.String("id", id), logger.Int64("bytes", n))
	return id, nil
}

func (c *Client) Path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid file id: %q", id)
	}
	return filepath.Join(c.dir, id), nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	path, err := c.Path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (c *Client) CleanupBefore(ctx context.Context, threshold time.Time) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to list storage directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(threshold) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("Failed to remove stale upload", logger.String("name", e.Name()), logger.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		c.logger.Info("Removed stale uploads", logger.Int("count", removed))
	}
	return nil
}
