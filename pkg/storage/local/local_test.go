package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

func TestSecureFilename(t *testing.T) {
	cases := map[string]string{
		"Billet.pdf":           "Billet.pdf",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\scan.PNG`: "scan.PNG",
		"mon billet (1).jpg":   "mon_billet_1_.jpg",
		"...":                  "upload",
		"":                     "upload",
		"été.jpeg":             "t_.jpeg",
	}
	for in, want := range cases {
		require.Equal(t, want, SecureFilename(in), in)
	}
}

func TestStorePathDelete(t *testing.T) {
	ctx := context.Background()
	c, err := New(filepath.Join(t.TempDir(), "uploads"), logger.NewTestLogger())
	require.NoError(t, err)

	id, err := c.Store(ctx, strings.NewReader("%PDF-1.4"), "../Billet.pdf")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(id, "_Billet.pdf"))

	path, err := c.Path(id)
	require.NoError(t, err)
	require.Equal(t, ".pdf", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, c.Delete(ctx, id))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
	require.NoError(t, c.Delete(ctx, id))
}

func TestStoreUniqueNames(t *testing.T) {
	ctx := context.Background()
	c, err := New(t.TempDir(), logger.NewNop())
	require.NoError(t, err)

	a, err := c.Store(ctx, strings.NewReader("a"), "ticket.png")
	require.NoError(t, err)
	b, err := c.Store(ctx, strings.NewReader("b"), "ticket.png")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestPathRejectsTraversal(t *testing.T) {
	c, err := New(t.TempDir(), logger.NewNop())
	require.NoError(t, err)

	for _, id := range []string{"", "../x", "a/b", ".hidden"} {
		_, err := c.Path(id)
		require.Error(t, err, id)
	}
}

func TestCleanupBefore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := New(dir, logger.NewTestLogger())
	require.NoError(t, err)

	old, err := c.Store(ctx, strings.NewReader("old"), "old.jpg")
	require.NoError(t, err)
	fresh, err := c.Store(ctx, strings.NewReader("fresh"), "fresh.jpg")
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, old), past, past))

	require.NoError(t, c.CleanupBefore(ctx, time.Now().Add(-24*time.Hour)))

	_, err = os.Stat(filepath.Join(dir, old))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, fresh))
	require.NoError(t, err)
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New("", logger.NewNop())
	require.Error(t, err)
}
