package disk

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-registry-api/internal/application/ports"
)

func TestStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")

	s, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	require.NoError(t, s.Save(ctx, "a.png", strings.NewReader("png-bytes"), 9, "image/png"))

	rc, err := s.Open(ctx, "a.png")
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")

	require.NoError(t, s.Delete(ctx, "a.png"))
	assert.ErrorIs(t, s.Delete(ctx, "a.png"), ports.ErrFileNotFound)

	_, err = s.Open(ctx, "a.png")
	assert.ErrorIs(t, err, ports.ErrFileNotFound)
}

func TestStorage_RejectsPaths(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", ".", "..", "../a.png", "x/a.png"} {
		assert.Error(t, s.Save(ctx, name, strings.NewReader("x"), 1, ""), name)
		_, err = s.Open(ctx, name)
		assert.Error(t, err, name)
		assert.Error(t, s.Delete(ctx, name), name)
	}
}
