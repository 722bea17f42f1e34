package children

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/thorium/pkg/types"
)

type capturingSubmitter struct {
	reqs []types.SampleRequest
}

func (s *capturingSubmitter) Submit(_ context.Context, req types.SampleRequest) error {
	s.reqs = append(s.reqs, req)
	return nil
}

func TestRunSubmitsDiscoveredChildrenAcrossCategories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, unpackedDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, unpackedDir, "child.bin"), []byte("x"), 0o644))

	submitter := &capturingSubmitter{}
	jctx := JobContext{
		Image:        &types.Image{OutputCollection: types.OutputCollection{Groups: nil}},
		SampleGroups: []string{"corn"},
		ToolName:     "unpacker",
	}

	err := Run(context.Background(), submitter, zerolog.Nop(), root, jctx)
	require.NoError(t, err)
	require.Len(t, submitter.reqs, 1)
	assert.Equal(t, types.OriginUnpacked, submitter.reqs[0].Origin.Kind)
	assert.Equal(t, "unpacker", submitter.reqs[0].Origin.ToolName)
	assert.Equal(t, []string{"corn"}, submitter.reqs[0].Groups)
}

func TestRunAppliesImageFiltersBeforeSubmitting(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, unpackedDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, unpackedDir, "keep.exe"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, unpackedDir, "skip.txt"), []byte("x"), 0o644))

	submitter := &capturingSubmitter{}
	jctx := JobContext{
		Image: &types.Image{
			ChildFilters: &types.ChildFilterSet{FileExtension: []string{`\.exe$`}},
		},
	}

	err := Run(context.Background(), submitter, zerolog.Nop(), root, jctx)
	require.NoError(t, err)
	require.Len(t, submitter.reqs, 1)
	assert.Contains(t, submitter.reqs[0].Path, "keep.exe")
}

func TestRunNoChildrenRootIsNoop(t *testing.T) {
	submitter := &capturingSubmitter{}
	err := Run(context.Background(), submitter, zerolog.Nop(), "", JobContext{Image: &types.Image{}})
	require.NoError(t, err)
	assert.Empty(t, submitter.reqs)
}
