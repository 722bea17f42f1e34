package controlplane

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/raft"

	"github.com/cuemby/thorium/pkg/types"
)

// FSM implements raft.FSM over a Store. Every mutation of job,
// reaction, worker, node, user, or group state in Thorium is a single
// Command applied through raft, which is how the "atomic group of
// commands, all or nothing" requirement on reaction transitions is
// actually enforced: the whole Command either commits to the raft log
// and applies, or it never touches Store at all.
type FSM struct {
	mu    sync.Mutex
	store *Store
}

// NewFSM wraps store for use as a raft.FSM.
func NewFSM(store *Store) *FSM {
	return &FSM{store: store}
}

// Command is one state transition submitted through raft.Apply. Op
// names the operation verb (see the switch in Apply); Data carries
// its JSON-encoded argument.
type Command struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"data"`
}

// Apply is invoked by raft once a Command is committed to the log.
func (f *FSM) Apply(log *raft.Log) interface{} {
	var cmd Command
	if err := json.Unmarshal(log.Data, &cmd); err != nil {
		return fmt.Errorf("unmarshal command: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch cmd.Op {
	case "create_reaction":
		var r types.Reaction
		if err := json.Unmarshal(cmd.Data, &r); err != nil {
			return err
		}
		return f.store.CreateReaction(&r)

	case "update_reaction":
		var args struct {
			Reaction  types.Reaction       `json:"reaction"`
			OldStatus types.ReactionStatus `json:"old_status"`
		}
		if err := json.Unmarshal(cmd.Data, &args); err != nil {
			return err
		}
		return f.store.UpdateReaction(&args.Reaction, args.OldStatus)

	case "delete_reaction":
		var r types.Reaction
		if err := json.Unmarshal(cmd.Data, &r); err != nil {
			return err
		}
		return f.store.DeleteReaction(&r)

	case "create_job":
		var job types.RawJob
		if err := json.Unmarshal(cmd.Data, &job); err != nil {
			return err
		}
		return f.store.CreateJob(&job)

	case "update_job":
		var args struct {
			Job       types.RawJob  `json:"job"`
			OldStatus types.JobStatus `json:"old_status"`
		}
		if err := json.Unmarshal(cmd.Data, &args); err != nil {
			return err
		}
		return f.store.UpdateJob(&args.Job, args.OldStatus)

	case "delete_job":
		var jobID string
		if err := json.Unmarshal(cmd.Data, &jobID); err != nil {
			return err
		}
		return f.store.DeleteJob(jobID)

	case "create_worker":
		var w types.Worker
		if err := json.Unmarshal(cmd.Data, &w); err != nil {
			return err
		}
		return f.store.CreateWorker(&w)

	case "update_worker":
		var w types.Worker
		if err := json.Unmarshal(cmd.Data, &w); err != nil {
			return err
		}
		return f.store.UpdateWorker(&w)

	case "delete_worker":
		var name string
		if err := json.Unmarshal(cmd.Data, &name); err != nil {
			return err
		}
		return f.store.DeleteWorker(name)

	case "create_node":
		var n types.Node
		if err := json.Unmarshal(cmd.Data, &n); err != nil {
			return err
		}
		return f.store.CreateNode(&n)

	case "update_node":
		var n types.Node
		if err := json.Unmarshal(cmd.Data, &n); err != nil {
			return err
		}
		return f.store.UpdateNode(&n)

	case "delete_node":
		var name string
		if err := json.Unmarshal(cmd.Data, &name); err != nil {
			return err
		}
		return f.store.DeleteNode(name)

	case "create_user":
		var u types.User
		if err := json.Unmarshal(cmd.Data, &u); err != nil {
			return err
		}
		return f.store.CreateUser(&u)

	case "update_user":
		var args struct {
			User         types.User `json:"user"`
			OldTokenHash string     `json:"old_token_hash"`
		}
		if err := json.Unmarshal(cmd.Data, &args); err != nil {
			return err
		}
		return f.store.UpdateUser(&args.User, args.OldTokenHash)

	case "delete_user":
		var username string
		if err := json.Unmarshal(cmd.Data, &username); err != nil {
			return err
		}
		return f.store.DeleteUser(username)

	case "create_group":
		var g types.Group
		if err := json.Unmarshal(cmd.Data, &g); err != nil {
			return err
		}
		return f.store.CreateGroup(&g)

	case "update_group":
		var g types.Group
		if err := json.Unmarshal(cmd.Data, &g); err != nil {
			return err
		}
		return f.store.UpdateGroup(&g)

	case "delete_group":
		var name string
		if err := json.Unmarshal(cmd.Data, &name); err != nil {
			return err
		}
		return f.store.DeleteGroup(name)

	case "create_image":
		var img types.Image
		if err := json.Unmarshal(cmd.Data, &img); err != nil {
			return err
		}
		return f.store.CreateImage(&img)

	case "update_image":
		var img types.Image
		if err := json.Unmarshal(cmd.Data, &img); err != nil {
			return err
		}
		return f.store.UpdateImage(&img)

	case "update_settings":
		var settings types.SystemSettings
		if err := json.Unmarshal(cmd.Data, &settings); err != nil {
			return err
		}
		return f.store.PutSystemSettings(&settings)

	case "create_pipeline":
		var p types.Pipeline
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			return err
		}
		return f.store.CreatePipeline(&p)

	case "update_pipeline":
		var p types.Pipeline
		if err := json.Unmarshal(cmd.Data, &p); err != nil {
			return err
		}
		return f.store.UpdatePipeline(&p)

	default:
		return fmt.Errorf("unknown command: %s", cmd.Op)
	}
}

// Snapshot captures the entire Store for raft log compaction.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	jobs, err := f.store.ListJobs()
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	workers, err := f.store.ListWorkers()
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	nodes, err := f.store.ListNodes()
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	groups, err := f.store.ListGroups()
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	return &Snapshot{Jobs: jobs, Workers: workers, Nodes: nodes, Groups: groups}, nil
}

// Restore rebuilds Store from a previously captured Snapshot.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	var snap Snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, job := range snap.Jobs {
		if err := f.store.CreateJob(job); err != nil {
			return fmt.Errorf("restore job %s: %w", job.ID, err)
		}
	}
	for _, w := range snap.Workers {
		if err := f.store.CreateWorker(w); err != nil {
			return fmt.Errorf("restore worker %s: %w", w.Name, err)
		}
	}
	for _, n := range snap.Nodes {
		if err := f.store.CreateNode(n); err != nil {
			return fmt.Errorf("restore node %s: %w", n.Name, err)
		}
	}
	for _, g := range snap.Groups {
		if err := f.store.CreateGroup(g); err != nil {
			return fmt.Errorf("restore group %s: %w", g.Name, err)
		}
	}
	return nil
}

// Snapshot is the serialized point-in-time copy of Store's state.
type Snapshot struct {
	Jobs    []*types.RawJob
	Workers []*types.Worker
	Nodes   []*types.Node
	Groups  []*types.Group
}

// Persist writes the snapshot to sink.
func (s *Snapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		if err := json.NewEncoder(sink).Encode(s); err != nil {
			return err
		}
		return sink.Close()
	}()
	if err != nil {
		sink.Cancel()
	}
	return err
}

// Release is a no-op; Snapshot holds no external resources.
func (s *Snapshot) Release() {}
