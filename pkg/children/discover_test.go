package children

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverFindsFilesUnderRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.bin"), []byte{0x00, 0x01}, 0o644))

	candidates, err := Discover(dir)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestDiscoverMissingRootReturnsEmpty(t *testing.T) {
	candidates, err := Discover(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestDiscoverSniffsMimeType(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"), []byte("<html><body>hi</body></html>"), 0o644))

	candidates, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Contains(t, candidates[0].MimeType, "text/html")
}
