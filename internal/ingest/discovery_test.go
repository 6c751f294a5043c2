package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverFiles_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("# a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("%PDF"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte("nope"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "d.markdown"), []byte("# d"), 0644))

	files, err := DiscoverFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("notes.md"))
	assert.True(t, IsSupported("notes.MARKDOWN"))
	assert.True(t, IsSupported("scan.pdf"))
	assert.False(t, IsSupported("image.png"))
}
