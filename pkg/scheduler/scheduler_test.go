package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/raft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/thorium/pkg/config"
	"github.com/cuemby/thorium/pkg/controlplane"
	"github.com/cuemby/thorium/pkg/reaction"
	"github.com/cuemby/thorium/pkg/types"
)

// newTestCluster wires a single-node raft cluster over an in-memory
// transport and a tempdir bbolt store, the same harness pkg/reaction
// uses, so Apply-routed mutations (create_worker, delete_worker,
// update_settings) exercise the real FSM path.
func newTestCluster(t *testing.T) *controlplane.Cluster {
	t.Helper()

	store, err := controlplane.Open(filepath.Join(t.TempDir(), "control.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fsm := controlplane.NewFSM(store)

	cfg := raft.DefaultConfig()
	cfg.LocalID = raft.ServerID("test-node")
	cfg.HeartbeatTimeout = 50 * time.Millisecond
	cfg.ElectionTimeout = 50 * time.Millisecond
	cfg.LeaderLeaseTimeout = 50 * time.Millisecond
	cfg.CommitTimeout = 5 * time.Millisecond

	_, transport := raft.NewInmemTransport(raft.ServerAddress("test-node"))
	snapshots := raft.NewInmemSnapshotStore()
	logStore := raft.NewInmemStore()
	stableStore := raft.NewInmemStore()

	r, err := raft.NewRaft(cfg, fsm, logStore, stableStore, snapshots, transport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Shutdown().Error() })

	future := r.BootstrapCluster(raft.Configuration{
		Servers: []raft.Server{{ID: cfg.LocalID, Address: transport.LocalAddr()}},
	})
	require.NoError(t, future.Error())

	cluster := controlplane.NewCluster(r, store)
	require.Eventually(t, cluster.IsLeader, 2*time.Second, 10*time.Millisecond, "raft never elected a leader")
	return cluster
}

func testScalerConfig() *config.Config {
	return &config.Config{
		Scalers: map[string]config.ScalerConfig{
			"k8s": {Cluster: "prod"},
		},
	}
}

func seedNode(t *testing.T, store *controlplane.Store, name string) {
	t.Helper()
	require.NoError(t, store.CreateNode(&types.Node{
		Name:      name,
		Cluster:   "prod",
		Heartbeat: time.Now(),
		CreatedAt: time.Now(),
	}))
}

func seedImage(t *testing.T, store *controlplane.Store, group, name string, spawnLimit int) {
	t.Helper()
	require.NoError(t, store.CreateImage(&types.Image{
		Name:       name,
		Group:      group,
		Scaler:     types.ScalerK8s,
		SpawnLimit: spawnLimit,
		CreatedAt:  time.Now(),
	}))
}

func seedJob(t *testing.T, store *controlplane.Store, id, group, creator string, deadline time.Time) {
	t.Helper()
	require.NoError(t, store.CreateJob(&types.RawJob{
		ID:        id,
		Group:     group,
		Pipeline:  "pipe",
		Stage:     "0",
		Image:     "scanner",
		Scaler:    types.ScalerK8s,
		Creator:   creator,
		Status:    types.JobCreated,
		Deadline:  deadline,
		CreatedAt: time.Now(),
	}))
}

// fakeDriver records every Spawn/Delete call instead of talking to a
// real backend.
type fakeDriver struct {
	mu      sync.Mutex
	spawned []SpawnRequest
	deleted []string
}

func (d *fakeDriver) Spawn(_ context.Context, req SpawnRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spawned = append(d.spawned, req)
	return nil
}

func (d *fakeDriver) Delete(_ context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, name)
	return nil
}

func TestBuildSnapshotBucketsCreatedJobsByUserAndRequisition(t *testing.T) {
	cluster := newTestCluster(t)
	store := cluster.Store()
	seedImage(t, store, "corn", "scanner", 5)
	seedNode(t, store, "node-1")
	seedJob(t, store, "job-1", "corn", "alice", time.Now().Add(time.Hour))
	seedJob(t, store, "job-2", "corn", "alice", time.Now().Add(2*time.Hour))
	seedJob(t, store, "job-3", "corn", "bob", time.Now().Add(30*time.Minute))

	snap, err := buildSnapshot(store, testScalerConfig())
	require.NoError(t, err)

	req := requisition{Group: "corn", Pipeline: "pipe", Stage: "0", Image: "scanner"}
	assert.Equal(t, 2, snap.createdByUser["alice"][req])
	assert.Equal(t, 1, snap.createdByUser["bob"][req])
	assert.Equal(t, 3, snap.totalCreatedByReq[req])
	assert.Len(t, snap.nodesByScaler[types.ScalerK8s], 1)
}

func TestBuildSnapshotExcludesNodesWithStaleHeartbeat(t *testing.T) {
	cluster := newTestCluster(t)
	store := cluster.Store()
	require.NoError(t, store.PutSystemSettings(&types.SystemSettings{
		FairsharePool:     10,
		HeartbeatInterval: time.Second,
	}))
	require.NoError(t, store.CreateNode(&types.Node{
		Name:      "stale-node",
		Cluster:   "prod",
		Heartbeat: time.Now().Add(-time.Hour),
		CreatedAt: time.Now(),
	}))

	snap, err := buildSnapshot(store, testScalerConfig())
	require.NoError(t, err)
	assert.Empty(t, snap.nodesByScaler[types.ScalerK8s])
}

func TestSortedUsersByRunningCountFavorsLeastServedFirst(t *testing.T) {
	cluster := newTestCluster(t)
	store := cluster.Store()
	seedImage(t, store, "corn", "scanner", 10)
	seedNode(t, store, "node-1")
	seedJob(t, store, "job-1", "corn", "alice", time.Now().Add(time.Hour))
	seedJob(t, store, "job-2", "corn", "bob", time.Now().Add(time.Hour))

	snap, err := buildSnapshot(store, testScalerConfig())
	require.NoError(t, err)
	snap.runningByUser["alice"] = 5 // alice already has load; bob should sort first

	users := sortedUsersByRunningCount(snap)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0])
	assert.Equal(t, "alice", users[1])
}

func TestRunFairshareSpendsExactlyTheBudget(t *testing.T) {
	cluster := newTestCluster(t)
	store := cluster.Store()
	seedImage(t, store, "corn", "scanner", 10)
	seedNode(t, store, "node-1")
	seedJob(t, store, "job-1", "corn", "alice", time.Now().Add(time.Hour))
	seedJob(t, store, "job-2", "corn", "bob", time.Now().Add(time.Hour))

	snap, err := buildSnapshot(store, testScalerConfig())
	require.NoError(t, err)

	plan := newAllocationPlan()
	spent := runFairshare(snap, plan, 1)
	assert.Equal(t, 1, spent)
	assert.Len(t, plan.spawns, 1)
}

func TestRunFairshareRespectsSpawnLimit(t *testing.T) {
	cluster := newTestCluster(t)
	store := cluster.Store()
	seedImage(t, store, "corn", "scanner", 1)
	seedNode(t, store, "node-1")
	seedNode(t, store, "node-2")
	seedJob(t, store, "job-1", "corn", "alice", time.Now().Add(time.Hour))
	seedJob(t, store, "job-2", "corn", "alice", time.Now().Add(time.Hour))

	snap, err := buildSnapshot(store, testScalerConfig())
	require.NoError(t, err)

	plan := newAllocationPlan()
	spent := runFairshare(snap, plan, 10)
	assert.Equal(t, 1, spent, "spawn_limit of 1 caps this requisition even though 10 budget and 2 jobs are available")
}

func TestRunFairshareSkipsBannedImage(t *testing.T) {
	cluster := newTestCluster(t)
	store := cluster.Store()
	require.NoError(t, store.CreateImage(&types.Image{
		Name:      "scanner",
		Group:     "corn",
		Scaler:    types.ScalerK8s,
		Banned:    true,
		CreatedAt: time.Now(),
	}))
	seedNode(t, store, "node-1")
	seedJob(t, store, "job-1", "corn", "alice", time.Now().Add(time.Hour))

	snap, err := buildSnapshot(store, testScalerConfig())
	require.NoError(t, err)

	plan := newAllocationPlan()
	spent := runFairshare(snap, plan, 10)
	assert.Equal(t, 0, spent)
}

func TestRunDeadlineOrdersByEarliestDeadlineAcrossUsers(t *testing.T) {
	cluster := newTestCluster(t)
	store := cluster.Store()
	seedImage(t, store, "corn", "scanner", 10)
	seedNode(t, store, "node-1")
	// alice's job is due soonest even though bob submitted first.
	seedJob(t, store, "job-bob", "corn", "bob", time.Now().Add(10*time.Hour))
	seedJob(t, store, "job-alice", "corn", "alice", time.Now().Add(time.Minute))

	snap, err := buildSnapshot(store, testScalerConfig())
	require.NoError(t, err)

	plan := newAllocationPlan()
	spent := runDeadline(snap, plan, 1)
	require.Equal(t, 1, spent)
	require.Len(t, plan.spawns, 1)
}

func TestRunConsistencyScanBansImageOutsideWhitelist(t *testing.T) {
	cluster := newTestCluster(t)
	store := cluster.Store()
	require.NoError(t, store.CreateImage(&types.Image{
		Name:        "scanner",
		Group:       "corn",
		Scaler:      types.ScalerK8s,
		SecurityTag: "untrusted",
		CreatedAt:   time.Now(),
	}))
	require.NoError(t, store.CreatePipeline(&types.Pipeline{
		Name:      "pipe",
		Group:     "corn",
		Order:     [][]string{{"scanner"}},
		CreatedAt: time.Now(),
	}))
	settings := &types.SystemSettings{HostPathWhitelist: []string{"trusted"}}

	require.NoError(t, runConsistencyScan(store, settings))

	img, err := store.GetImage("corn", "scanner")
	require.NoError(t, err)
	assert.True(t, img.Banned)

	pipeline, err := store.GetPipeline("corn", "pipe")
	require.NoError(t, err)
	assert.True(t, pipeline.Banned, "pipeline referencing a banned image should be banned too")
}

func TestRunConsistencyScanAllowsWhitelistedTag(t *testing.T) {
	cluster := newTestCluster(t)
	store := cluster.Store()
	require.NoError(t, store.CreateImage(&types.Image{
		Name:        "scanner",
		Group:       "corn",
		Scaler:      types.ScalerK8s,
		SecurityTag: "trusted",
		Banned:      true, // stale ban from a previous whitelist
		CreatedAt:   time.Now(),
	}))
	settings := &types.SystemSettings{HostPathWhitelist: []string{"trusted"}}

	require.NoError(t, runConsistencyScan(store, settings))

	img, err := store.GetImage("corn", "scanner")
	require.NoError(t, err)
	assert.False(t, img.Banned)
}

func TestApplyPlanSpawnsWorkerAndRecordsIt(t *testing.T) {
	cluster := newTestCluster(t)
	store := cluster.Store()
	seedImage(t, store, "corn", "scanner", 5)
	node := &types.Node{Name: "node-1", Cluster: "prod", Heartbeat: time.Now(), CreatedAt: time.Now()}
	require.NoError(t, store.CreateNode(node))

	plan := newAllocationPlan()
	req := requisition{Group: "corn", Pipeline: "pipe", Stage: "0", Image: "scanner"}
	plan.add(req, node)

	driver := &fakeDriver{}
	errs := applyPlan(context.Background(), cluster, driver, plan)
	require.Empty(t, errs)
	require.Len(t, driver.spawned, 1)
	assert.Equal(t, types.ScalerK8s, driver.spawned[0].Scaler)

	workers, err := store.ListWorkers()
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, types.WorkerSpawned, workers[0].Status)
}

func TestReapDeadWorkersResetsJobAndDeletesWorker(t *testing.T) {
	cluster := newTestCluster(t)
	store := cluster.Store()
	seedJob(t, store, "job-1", "corn", "alice", time.Now().Add(time.Hour))
	job, err := store.GetJob("job-1")
	require.NoError(t, err)
	job.Status = types.JobRunning
	job.Worker = "dead-worker"
	require.NoError(t, cluster.Apply("update_job", struct {
		Job       types.RawJob    `json:"job"`
		OldStatus types.JobStatus `json:"old_status"`
	}{*job, types.JobCreated}))

	worker := &types.Worker{
		Name:        "dead-worker",
		Group:       "corn",
		Scaler:      types.ScalerK8s,
		CurrentJob:  "job-1",
		Status:      types.WorkerRunning,
		LastCheckin: time.Now().Add(-time.Hour),
		CreatedAt:   time.Now(),
	}
	require.NoError(t, cluster.Apply("create_worker", worker))

	driver := &fakeDriver{}
	reactions := reaction.NewService(cluster)
	settings := &types.SystemSettings{HeartbeatInterval: time.Minute}

	errs := reapDeadWorkers(context.Background(), cluster, driver, reactions, []*types.Worker{worker}, settings)
	require.Empty(t, errs)
	assert.Equal(t, []string{"dead-worker"}, driver.deleted)

	_, err = store.GetWorker("dead-worker")
	assert.Error(t, err, "worker row should be gone after reaping")

	resetJob, err := store.GetJob("job-1")
	require.NoError(t, err)
	assert.Equal(t, types.JobCreated, resetJob.Status)
	assert.Empty(t, resetJob.Worker)
}
