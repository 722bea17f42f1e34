package reaction

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/raft"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/thorium/pkg/controlplane"
)

// newTestService wires a single-node raft cluster over an in-memory
// transport and a tempdir bbolt store, matching the real control
// plane's wiring minus the network hop, so these tests exercise the
// actual Apply/FSM path rather than mocking it away.
func newTestService(t *testing.T) *Service {
	t.Helper()

	store, err := controlplane.Open(filepath.Join(t.TempDir(), "control.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fsm := controlplane.NewFSM(store)

	config := raft.DefaultConfig()
	config.LocalID = raft.ServerID("test-node")
	config.HeartbeatTimeout = 50 * time.Millisecond
	config.ElectionTimeout = 50 * time.Millisecond
	config.LeaderLeaseTimeout = 50 * time.Millisecond
	config.CommitTimeout = 5 * time.Millisecond

	_, transport := raft.NewInmemTransport(raft.ServerAddress("test-node"))
	snapshots := raft.NewInmemSnapshotStore()
	logStore := raft.NewInmemStore()
	stableStore := raft.NewInmemStore()

	r, err := raft.NewRaft(config, fsm, logStore, stableStore, snapshots, transport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Shutdown().Error() })

	future := r.BootstrapCluster(raft.Configuration{
		Servers: []raft.Server{{ID: config.LocalID, Address: transport.LocalAddr()}},
	})
	require.NoError(t, future.Error())

	cluster := controlplane.NewCluster(r, store)
	require.Eventually(t, cluster.IsLeader, 2*time.Second, 10*time.Millisecond, "raft never elected a leader")

	return NewService(cluster)
}
