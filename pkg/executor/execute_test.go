package executor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/thorium/pkg/types"
)

func TestBuildArgvExpandsPathsStrategy(t *testing.T) {
	paths := newPaths(t.TempDir())
	paths.files[types.DependencySamples] = []string{"/tmp/a.bin", "/tmp/b.bin"}

	deps := []types.Dependency{{Kind: types.DependencySamples, Slot: "{samples}", PassStrategy: types.PassPaths}}
	argv := buildArgv([]string{"run", "{samples}", "--verbose"}, deps, paths)

	assert.Equal(t, []string{"run", "/tmp/a.bin", "/tmp/b.bin", "--verbose"}, argv)
}

func TestBuildArgvNamesStrategyUsesBasenames(t *testing.T) {
	paths := newPaths(t.TempDir())
	paths.files[types.DependencySamples] = []string{"/tmp/dir/a.bin"}

	deps := []types.Dependency{{Kind: types.DependencySamples, Slot: "{samples}", PassStrategy: types.PassNames}}
	argv := buildArgv([]string{"run", "{samples}"}, deps, paths)

	assert.Equal(t, []string{"run", "a.bin"}, argv)
}

func TestBuildArgvDirectoryStrategyUsesDependencyRoot(t *testing.T) {
	paths := newPaths(t.TempDir())
	paths.dirs[types.DependencySamples] = "/tmp/samples"

	deps := []types.Dependency{{Kind: types.DependencySamples, Slot: "{samples}", PassStrategy: types.PassDirectory}}
	argv := buildArgv([]string{"run", "{samples}"}, deps, paths)

	assert.Equal(t, []string{"run", "/tmp/samples"}, argv)
}

func TestBuildArgvDisabledStrategyOmitsSlot(t *testing.T) {
	paths := newPaths(t.TempDir())
	deps := []types.Dependency{{Kind: types.DependencySamples, Slot: "{samples}", PassStrategy: types.PassDisabled}}
	argv := buildArgv([]string{"run", "{samples}", "--flag"}, deps, paths)

	assert.Equal(t, []string{"run", "--flag"}, argv)
}

func TestBuildArgvLeavesUnrecognizedTokensAlone(t *testing.T) {
	argv := buildArgv([]string{"run", "--flag", "value"}, nil, newPaths(""))
	assert.Equal(t, []string{"run", "--flag", "value"}, argv)
}

type fakeBackend struct {
	spec RunSpec
}

func (f *fakeBackend) Run(_ context.Context, spec RunSpec) (RunResult, error) {
	f.spec = spec
	return RunResult{ExitCode: 0}, nil
}

func TestExecutePrependsWindowsShellWhenWindows(t *testing.T) {
	root := t.TempDir()
	paths := newPaths(root)
	backend := &fakeBackend{}

	job := &types.RawJob{ID: "job-1"}
	image := &types.Image{Command: []string{"tool.exe"}}

	_, err := Execute(context.Background(), backend, job, image, paths, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"cmd.exe", "/C", "tool.exe"}, backend.spec.Argv)
	assert.Equal(t, filepath.Join(root, "job.log"), backend.spec.LogPath)
}

func TestExecuteLeavesNonWindowsArgvUnprefixed(t *testing.T) {
	backend := &fakeBackend{}
	job := &types.RawJob{ID: "job-2"}
	image := &types.Image{Command: []string{"tool"}}

	_, err := Execute(context.Background(), backend, job, image, newPaths(t.TempDir()), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"tool"}, backend.spec.Argv)
}
