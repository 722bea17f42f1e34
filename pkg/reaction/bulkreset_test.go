package reaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/thorium/pkg/types"
)

func TestBulkResetReturnsRunningJobToCreated(t *testing.T) {
	svc := newTestService(t)
	store := svc.cluster.Store()

	job := &types.RawJob{
		ID: "running-job", Group: "corn", Pipeline: "triage", Stage: "0", Image: "unpacker",
		Scaler:     types.ScalerBareMetal,
		ReactionID: "r1", Status: types.JobRunning, Worker: "worker-1",
		StartedAt: time.Now(), Deadline: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.CreateJob(job))
	require.NoError(t, store.AddToRunningStream(string(job.Scaler), job.ID, job.StartedAt.UnixNano()))

	result, err := svc.BulkReset([]string{job.ID}, "unpacker")
	require.NoError(t, err)
	assert.Equal(t, []string{job.ID}, result.Reset)
	assert.Empty(t, result.DeletedOrphans)
	assert.Empty(t, result.Skipped)

	updated, err := store.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobCreated, updated.Status)
	assert.Empty(t, updated.Worker)
}

func TestBulkResetSkipsTerminalJobs(t *testing.T) {
	svc := newTestService(t)
	store := svc.cluster.Store()

	job := &types.RawJob{ID: "done-job", Group: "corn", Pipeline: "triage", Stage: "0", ReactionID: "r1", Status: types.JobCompleted}
	require.NoError(t, store.CreateJob(job))

	result, err := svc.BulkReset([]string{job.ID}, "unpacker")
	require.NoError(t, err)
	assert.Equal(t, []string{job.ID}, result.Skipped)
	assert.Empty(t, result.Reset)
}

func TestBulkResetLogsOrphanWithNoDataRow(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.BulkReset([]string{"ghost-job"}, "unpacker")
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost-job"}, result.DeletedOrphans)
	assert.Empty(t, result.Reset)
}
