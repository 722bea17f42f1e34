package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/thorium/pkg/types"
)

func TestProceedAdvancesReactionAfterFinalJobInStage(t *testing.T) {
	svc := newTestService(t)
	pipeline := testPipeline()
	seedImages(t, svc, "corn", "unpacker", "strings-scan", "yara-scan")
	require.NoError(t, svc.cluster.Store().CreatePipeline(pipeline))

	r, err := svc.Create(pipeline, "corn", "analyst", []string{"sample-1"}, nil, nil, "", 0)
	require.NoError(t, err)

	claimed, err := svc.Claim("corn", pipeline.Name, "0", "worker-1", 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	shouldProceed, err := svc.Proceed(claimed[0].ID)
	require.NoError(t, err)
	assert.False(t, shouldProceed, "reaction should not advance until every stage-0 job completes")

	shouldProceed, err = svc.Proceed(claimed[1].ID)
	require.NoError(t, err)
	assert.True(t, shouldProceed)

	updated, err := svc.cluster.Store().GetReaction(r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentStage)
	assert.Equal(t, types.ReactionRunning, updated.Status)
}

func TestProceedCompletesReactionAfterFinalStage(t *testing.T) {
	svc := newTestService(t)
	pipeline := &types.Pipeline{Name: "single-stage", Group: "corn", Order: [][]string{{"yara-scan"}}}
	seedImages(t, svc, "corn", "yara-scan")

	r, err := svc.Create(pipeline, "corn", "analyst", []string{"sample-1"}, nil, nil, "", 0)
	require.NoError(t, err)

	claimed, err := svc.Claim("corn", pipeline.Name, "0", "worker-1", 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	shouldProceed, err := svc.Proceed(claimed[0].ID)
	require.NoError(t, err)
	assert.True(t, shouldProceed)

	updated, err := svc.cluster.Store().GetReaction(r.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ReactionCompleted, updated.Status)
}

func TestProceedOnSleepingGeneratorAlwaysProceeds(t *testing.T) {
	svc := newTestService(t)
	store := svc.cluster.Store()

	job := &types.RawJob{
		ID:                 "gen-job",
		Group:              "corn",
		Pipeline:           "malware-triage",
		Stage:              "0",
		Image:              "unpacker",
		ReactionID:         "gen-reaction",
		Status:             types.JobSleeping,
		Generator:          true,
		CurrentStageLength: 1,
	}
	reaction := &types.Reaction{
		ID:           "gen-reaction",
		Group:        "corn",
		Pipeline:     "malware-triage",
		Status:       types.ReactionSleeping,
		StageCount:   1,
		CurrentStage: 0,
	}
	require.NoError(t, store.CreateReaction(reaction))
	require.NoError(t, store.CreateJob(job))

	shouldProceed, err := svc.Proceed(job.ID)
	require.NoError(t, err)
	assert.True(t, shouldProceed)

	updated, err := store.GetReaction(reaction.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ReactionCreated, updated.Status, "a generator job waking up loops the reaction back to Created")
}

func TestProceedRejectsJobNotInFlight(t *testing.T) {
	svc := newTestService(t)
	store := svc.cluster.Store()

	job := &types.RawJob{ID: "done-job", Status: types.JobCompleted, ReactionID: "r1"}
	require.NoError(t, store.CreateJob(job))

	_, err := svc.Proceed(job.ID)
	assert.Error(t, err)
}
