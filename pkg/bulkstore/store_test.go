package bulkstore

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/thorium/pkg/types"
)

func newTestStore(t *testing.T, partitionSize int) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bulk.db")
	s, err := Open(path, partitionSize)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGetSample(t *testing.T) {
	s := newTestStore(t, 10000)
	sample := &types.Sample{SHA256: "abc123", Group: []string{"research"}, Name: "evil.exe", CreatedAt: time.Now()}
	require.NoError(t, s.PutSample(sample))

	got, err := s.GetSample("research", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "evil.exe", got.Name)
}

func TestSampleVisibleAcrossMultipleGroups(t *testing.T) {
	s := newTestStore(t, 10000)
	sample := &types.Sample{SHA256: "abc123", Group: []string{"research", "ir-team"}, Name: "evil.exe"}
	require.NoError(t, s.PutSample(sample))

	_, err := s.GetSample("research", "abc123")
	require.NoError(t, err)
	_, err = s.GetSample("ir-team", "abc123")
	require.NoError(t, err)
	_, err = s.GetSample("other-group", "abc123")
	assert.Error(t, err)
}

func TestPartitionRollsOverAtPartitionSize(t *testing.T) {
	s := newTestStore(t, 2)
	for i := 0; i < 5; i++ {
		sample := &types.Sample{SHA256: fmt.Sprintf("hash-%d", i), Group: []string{"g"}}
		require.NoError(t, s.PutSample(sample))
	}
	samples, next, err := s.ListSamples("g", "", 10)
	require.NoError(t, err)
	assert.Len(t, samples, 5)
	assert.Empty(t, next)
}

func TestListSamplesPages(t *testing.T) {
	s := newTestStore(t, 10000)
	for i := 0; i < 5; i++ {
		sample := &types.Sample{SHA256: fmt.Sprintf("hash-%d", i), Group: []string{"g"}}
		require.NoError(t, s.PutSample(sample))
	}

	page1, next1, err := s.ListSamples("g", "", 2)
	require.NoError(t, err)
	assert.Len(t, page1, 2)
	require.NotEmpty(t, next1)

	page2, _, err := s.ListSamples("g", next1, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 2)
	assert.NotEqual(t, page1[0].SHA256, page2[0].SHA256)
}
