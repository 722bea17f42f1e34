package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/thorium/pkg/types"
)

type fakeSampleFetcher struct{ calls []string }

func (f *fakeSampleFetcher) FetchSample(_ context.Context, sha256, destDir string) (string, error) {
	f.calls = append(f.calls, sha256)
	path := filepath.Join(destDir, sha256)
	return path, os.WriteFile(path, []byte("sample"), 0o644)
}

func TestSetupCreatesEveryDependencyDirAndStagesDeclaredOnes(t *testing.T) {
	root := t.TempDir()
	samples := &fakeSampleFetcher{}

	job := &types.RawJob{ID: "job-1", Samples: []string{"aaa", "bbb"}}
	image := &types.Image{Dependencies: []types.Dependency{
		{Kind: types.DependencySamples, Slot: "{samples}", PassStrategy: types.PassPaths},
	}}

	paths, err := Setup(context.Background(), Deps{Samples: samples}, job, image, root)
	require.NoError(t, err)

	assert.Len(t, samples.calls, 2)
	assert.Len(t, paths.FilesFor(types.DependencySamples), 2)
	assert.DirExists(t, paths.DirFor(types.DependencyEphemeral))
	assert.DirExists(t, paths.DirFor(types.DependencyChildren))
}

func TestSetupFailsWhenDeclaredDependencyHasNoFetcher(t *testing.T) {
	root := t.TempDir()
	job := &types.RawJob{Samples: []string{"aaa"}}
	image := &types.Image{Dependencies: []types.Dependency{
		{Kind: types.DependencySamples, Slot: "{samples}"},
	}}

	_, err := Setup(context.Background(), Deps{}, job, image, root)
	require.Error(t, err)
}

func TestSetupStagesEphemeralBuffersAsFiles(t *testing.T) {
	root := t.TempDir()
	job := &types.RawJob{Ephemeral: map[string][]byte{"note.txt": []byte("hi")}}
	image := &types.Image{Dependencies: []types.Dependency{{Kind: types.DependencyEphemeral}}}

	paths, err := Setup(context.Background(), Deps{}, job, image, root)
	require.NoError(t, err)
	require.Len(t, paths.FilesFor(types.DependencyEphemeral), 1)

	data, err := os.ReadFile(paths.FilesFor(types.DependencyEphemeral)[0])
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))
}

func TestCleanupRemovesJobRoot(t *testing.T) {
	root := t.TempDir()
	paths, err := Setup(context.Background(), Deps{}, &types.RawJob{}, &types.Image{}, root)
	require.NoError(t, err)

	require.NoError(t, Cleanup(paths))
	assert.NoDirExists(t, root)
}

func TestCleanupOnNilPathsIsNoop(t *testing.T) {
	assert.NoError(t, Cleanup(nil))
}
