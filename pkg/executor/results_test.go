package executor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/thorium/pkg/types"
)

func TestResultsReadsDeclaredFiles(t *testing.T) {
	root := t.TempDir()
	paths := newPaths(root)
	paths.ResultsDir = root
	require.NoError(t, os.WriteFile(filepath.Join(root, "report.txt"), []byte("ok"), 0o644))

	image := &types.Image{OutputCollection: types.OutputCollection{ResultFiles: []string{"report.txt"}}}
	raw, err := Results(image, paths)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), raw.Files["report.txt"])
	assert.Nil(t, raw.Document)
}

func TestResultsParsesResultJSONAsDocument(t *testing.T) {
	root := t.TempDir()
	paths := newPaths(root)
	paths.ResultsDir = root
	require.NoError(t, os.WriteFile(filepath.Join(root, "result.json"), []byte(`{"verdict":"malicious"}`), 0o644))

	image := &types.Image{OutputCollection: types.OutputCollection{ResultFiles: []string{"result.json"}}}
	raw, err := Results(image, paths)
	require.NoError(t, err)
	require.NotNil(t, raw.Document)
	assert.Equal(t, "malicious", raw.Document["verdict"])
}

func TestResultsSkipsMissingDeclaredFile(t *testing.T) {
	root := t.TempDir()
	paths := newPaths(root)
	paths.ResultsDir = root

	image := &types.Image{OutputCollection: types.OutputCollection{ResultFiles: []string{"never-written.txt"}}}
	raw, err := Results(image, paths)
	require.NoError(t, err)
	assert.Empty(t, raw.Files)
}
