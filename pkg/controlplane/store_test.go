package controlplane

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/thorium/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "control-plane.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetJob(t *testing.T) {
	s := newTestStore(t)
	job := &types.RawJob{
		ID: "job-1", Group: "research", Pipeline: "triage", Stage: "unpack",
		Status: types.JobCreated, Deadline: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.CreateJob(job))

	got, err := s.GetJob("job-1")
	require.NoError(t, err)
	assert.Equal(t, job.Pipeline, got.Pipeline)
}

func TestGetJobNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetJob("missing")
	assert.Error(t, err)
}

func TestPopLowestDeadlineOrdersByDeadline(t *testing.T) {
	s := newTestStore(t)
	later := &types.RawJob{ID: "later", Group: "g", Pipeline: "p", Stage: "s", Status: types.JobCreated, Deadline: time.Now().Add(2 * time.Hour)}
	sooner := &types.RawJob{ID: "sooner", Group: "g", Pipeline: "p", Stage: "s", Status: types.JobCreated, Deadline: time.Now().Add(time.Hour)}
	require.NoError(t, s.CreateJob(later))
	require.NoError(t, s.CreateJob(sooner))

	id, found, err := s.PopLowestDeadline("g", "p", "s", types.JobCreated)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "sooner", id)

	id, found, err = s.PopLowestDeadline("g", "p", "s", types.JobCreated)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "later", id)

	_, found, err = s.PopLowestDeadline("g", "p", "s", types.JobCreated)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateJobMovesQueueMembership(t *testing.T) {
	s := newTestStore(t)
	job := &types.RawJob{ID: "job-1", Group: "g", Pipeline: "p", Stage: "s", Status: types.JobCreated, Deadline: time.Now().Add(time.Hour)}
	require.NoError(t, s.CreateJob(job))

	job.Status = types.JobRunning
	require.NoError(t, s.UpdateJob(job, types.JobCreated))

	_, found, err := s.PopLowestDeadline("g", "p", "s", types.JobCreated)
	require.NoError(t, err)
	assert.False(t, found, "job should have left the created queue")

	id, found, err := s.PopLowestDeadline("g", "p", "s", types.JobRunning)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "job-1", id)
}

func TestTokenIndexRoundTrip(t *testing.T) {
	s := newTestStore(t)
	u := &types.User{Username: "alice", TokenHash: "hash-1"}
	require.NoError(t, s.CreateUser(u))

	got, err := s.GetUserByToken("hash-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	u.TokenHash = "hash-2"
	require.NoError(t, s.UpdateUser(u, "hash-1"))

	_, err = s.GetUserByToken("hash-1")
	assert.Error(t, err, "old token hash must be invalidated")

	got, err = s.GetUserByToken("hash-2")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}
