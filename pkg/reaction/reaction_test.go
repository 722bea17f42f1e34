package reaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/thorium/pkg/types"
)

func testPipeline() *types.Pipeline {
	return &types.Pipeline{
		Name:  "malware-triage",
		Group: "corn",
		Order: [][]string{
			{"unpacker", "strings-scan"},
			{"yara-scan"},
		},
		SLA: time.Hour,
	}
}

// seedImages registers one Image per name, all under the same scaler
// backend, so Create can resolve each stage-0 image's Scaler.
func seedImages(t *testing.T, svc *Service, group string, names ...string) {
	t.Helper()
	store := svc.cluster.Store()
	for _, name := range names {
		require.NoError(t, store.CreateImage(&types.Image{Name: name, Group: group, Scaler: types.ScalerBareMetal}))
	}
}

func TestCreateSeedsFirstStageJobs(t *testing.T) {
	svc := newTestService(t)
	pipeline := testPipeline()
	seedImages(t, svc, "corn", "unpacker", "strings-scan", "yara-scan")

	r, err := svc.Create(pipeline, "corn", "analyst", []string{"sample-1"}, nil, nil, "", 0)
	require.NoError(t, err)
	assert.Equal(t, types.ReactionCreated, r.Status)
	assert.Equal(t, 2, r.StageCount)
	assert.Equal(t, 0, r.CurrentStage)

	jobs, err := svc.cluster.Store().ListJobs()
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	for _, job := range jobs {
		assert.Equal(t, r.ID, job.ReactionID)
		assert.Equal(t, "0", job.Stage)
		assert.Equal(t, types.JobCreated, job.Status)
		assert.Equal(t, types.ScalerBareMetal, job.Scaler)
	}
}

func TestCreateRejectsEmptyPipeline(t *testing.T) {
	svc := newTestService(t)
	pipeline := &types.Pipeline{Name: "empty", Group: "corn"}

	_, err := svc.Create(pipeline, "corn", "analyst", nil, nil, nil, "", 0)
	assert.Error(t, err)
}
