package controlplane

import (
	"encoding/json"
	"time"

	"github.com/hashicorp/raft"

	"github.com/cuemby/thorium/pkg/apierror"
)

// Cluster is the raft-replicated handle every higher-level component
// (pkg/reaction, pkg/scheduler, pkg/auth callers) goes through to
// mutate control-plane state. Reads bypass raft entirely and go
// straight to Store, the same split cmd/warren's Manager makes
// between its direct getters and its Apply-routed mutations.
type Cluster struct {
	raft  *raft.Raft
	store *Store
}

// NewCluster wires a raft instance (already configured with an FSM
// built from store) to that same store for direct reads.
func NewCluster(r *raft.Raft, store *Store) *Cluster {
	return &Cluster{raft: r, store: store}
}

// Store exposes the read path directly; no consensus round trip is
// needed to serve a query against already-committed state.
func (c *Cluster) Store() *Store {
	return c.store
}

// Apply marshals (op, data) as a Command, submits it to raft, and
// surfaces either the submission error or any error the FSM itself
// returned while applying it.
func (c *Cluster) Apply(op string, data interface{}) error {
	if c.raft == nil {
		return apierror.New(apierror.KindUnavailable, "raft not initialized")
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return apierror.Wrap(err, apierror.KindInternal, "marshal command payload")
	}
	cmd := Command{Op: op, Data: payload}
	raw, err := json.Marshal(cmd)
	if err != nil {
		return apierror.Wrap(err, apierror.KindInternal, "marshal command")
	}

	future := c.raft.Apply(raw, 5*time.Second)
	if err := future.Error(); err != nil {
		return apierror.Wrap(err, apierror.KindUnavailable, "apply command")
	}
	if resp := future.Response(); resp != nil {
		if err, ok := resp.(error); ok && err != nil {
			return err
		}
	}
	return nil
}

// AppliedIndex returns the last raft log index applied to the FSM, 0
// if this node has no raft instance (e.g. a detached read replica in
// tests). Used by metrics collection to expose replication lag.
func (c *Cluster) AppliedIndex() uint64 {
	if c.raft == nil {
		return 0
	}
	return c.raft.AppliedIndex()
}

// IsLeader reports whether this node currently holds raft leadership;
// mutating operations should be rejected with KindUnavailable
// everywhere else, matching the teacher's ensureLeader guard.
func (c *Cluster) IsLeader() bool {
	if c.raft == nil {
		return false
	}
	return c.raft.State() == raft.Leader
}
