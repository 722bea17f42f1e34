package scheduler

import (
	"time"

	"github.com/cuemby/thorium/pkg/config"
	"github.com/cuemby/thorium/pkg/controlplane"
	"github.com/cuemby/thorium/pkg/types"
)

// requisition identifies one (group, pipeline, stage, image) unit of
// schedulable demand. A pipeline stage can run several images in
// parallel; each gets its own requisition since each image carries
// its own scaler and spawn_limit.
type requisition struct {
	Group, Pipeline, Stage, Image string
}

// snapshot is the point-in-time read the first step of a scheduling
// cycle takes before any allocation decision: outstanding demand
// bucketed by requester and requisition, current running-job counts
// (for the ascending-by-load ordering both passes use), the
// schedulable node pool per scaler, the live worker table, the
// images referenced by any job seen, and the cluster's spawn budgets.
type snapshot struct {
	settings *types.SystemSettings

	createdByUser map[string]map[requisition]int
	runningByUser map[string]int
	runningByReq  map[requisition]int

	nodesByScaler map[types.ScalerKind][]*types.Node
	workers       []*types.Worker
	images        map[requisition]*types.Image

	totalCreatedByReq   map[requisition]int
	earliestDeadlineReq map[requisition]time.Time
}

// buildSnapshot performs the scheduler's Snapshot step: reads every
// Created/Running job, the node and worker tables, and SystemSettings,
// all from already-committed state (no raft round trip; scheduling
// decisions don't need to be linearizable with the jobs they read).
func buildSnapshot(store *controlplane.Store, cfg *config.Config) (*snapshot, error) {
	settings, err := store.GetSystemSettings()
	if err != nil {
		return nil, err
	}
	jobs, err := store.ListJobs()
	if err != nil {
		return nil, err
	}
	nodes, err := store.ListNodes()
	if err != nil {
		return nil, err
	}
	workers, err := store.ListWorkers()
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		settings:      settings,
		createdByUser: make(map[string]map[requisition]int),
		runningByUser: make(map[string]int),
		runningByReq:  make(map[requisition]int),
		nodesByScaler: make(map[types.ScalerKind][]*types.Node),
		workers:       workers,
		images:        make(map[requisition]*types.Image),

		totalCreatedByReq:   make(map[requisition]int),
		earliestDeadlineReq: make(map[requisition]time.Time),
	}

	for _, job := range jobs {
		req := requisition{Group: job.Group, Pipeline: job.Pipeline, Stage: job.Stage, Image: job.Image}
		switch job.Status {
		case types.JobCreated:
			if snap.createdByUser[job.Creator] == nil {
				snap.createdByUser[job.Creator] = make(map[requisition]int)
			}
			snap.createdByUser[job.Creator][req]++
			snap.totalCreatedByReq[req]++
			if existing, ok := snap.earliestDeadlineReq[req]; !ok || job.Deadline.Before(existing) {
				snap.earliestDeadlineReq[req] = job.Deadline
			}
			if err := snap.cacheImage(store, req); err != nil {
				return nil, err
			}
		case types.JobRunning:
			snap.runningByUser[job.Creator]++
			snap.runningByReq[req]++
		}
	}

	for scalerName, scfg := range cfg.Scalers {
		scaler := types.ScalerKind(scalerName)
		for _, node := range nodes {
			if node.Cluster != scfg.Cluster {
				continue
			}
			if settings.HeartbeatInterval > 0 && time.Since(node.Heartbeat) > settings.HeartbeatInterval {
				continue // node's own heartbeat is stale; don't schedule onto it
			}
			snap.nodesByScaler[scaler] = append(snap.nodesByScaler[scaler], node)
		}
	}

	return snap, nil
}

func (s *snapshot) cacheImage(store *controlplane.Store, req requisition) error {
	if _, ok := s.images[req]; ok {
		return nil
	}
	img, err := store.GetImage(req.Group, req.Image)
	if err != nil {
		return err
	}
	s.images[req] = img
	return nil
}

// pickNode returns the least-loaded node for scaler, tracking load
// against plan so a single cycle spreads new workers across the pool
// instead of piling them on the first candidate; nil if the scaler has
// no schedulable nodes left.
func (snap *snapshot) pickNode(scaler types.ScalerKind, plan *allocationPlan) *types.Node {
	nodes := snap.nodesByScaler[scaler]
	if len(nodes) == 0 {
		return nil
	}
	var best *types.Node
	bestLoad := -1
	for _, node := range nodes {
		load := plan.nodeLoad[node.Name]
		if bestLoad == -1 || load < bestLoad {
			bestLoad = load
			best = node
		}
	}
	return best
}
