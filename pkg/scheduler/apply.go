package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/thorium/pkg/controlplane"
	"github.com/cuemby/thorium/pkg/metrics"
	"github.com/cuemby/thorium/pkg/reaction"
	"github.com/cuemby/thorium/pkg/types"
)

// applyPlan turns plan's accumulated spawns into worker rows: each
// gets a fresh name, a driver.Spawn call, and a create_worker command.
// A driver failure is logged by the caller and the spawn is simply
// skipped for this cycle; the next cycle's snapshot will see the
// demand is still outstanding and retry it.
func applyPlan(ctx context.Context, cluster *controlplane.Cluster, driver WorkerDriver, plan *allocationPlan) []error {
	var errs []error
	for _, s := range plan.spawns {
		img := imageForPlan(cluster, s)
		scaler := types.ScalerKind("")
		if img != nil {
			scaler = img.Scaler
		}

		name := uuid.NewString()
		req := SpawnRequest{
			Name:     name,
			Group:    s.req.Group,
			Pipeline: s.req.Pipeline,
			Stage:    s.req.Stage,
			Image:    s.req.Image,
			Scaler:   scaler,
			Node:     s.node.Name,
		}
		if err := driver.Spawn(ctx, req); err != nil {
			errs = append(errs, err)
			continue
		}

		worker := &types.Worker{
			Name:        name,
			Group:       s.req.Group,
			Scaler:      scaler,
			Node:        s.node.Name,
			Status:      types.WorkerSpawned,
			LastCheckin: time.Now(),
			CreatedAt:   time.Now(),
		}
		if err := cluster.Apply("create_worker", worker); err != nil {
			errs = append(errs, err)
			continue
		}
		metrics.WorkersSpawnedTotal.WithLabelValues(string(scaler)).Inc()
	}
	return errs
}

func imageForPlan(cluster *controlplane.Cluster, s plannedSpawn) *types.Image {
	img, err := cluster.Store().GetImage(s.req.Group, s.req.Image)
	if err != nil {
		return nil
	}
	return img
}

// reapDeadWorkers tears down every worker whose heartbeat has exceeded
// settings.HeartbeatInterval, recovering its in-flight job through
// bulk reset before deleting the worker row, so the job is retried by
// a future spawn instead of lost.
func reapDeadWorkers(ctx context.Context, cluster *controlplane.Cluster, driver WorkerDriver, reactions *reaction.Service, workers []*types.Worker, settings *types.SystemSettings) []error {
	var errs []error
	if settings.HeartbeatInterval <= 0 {
		return errs
	}

	for _, w := range workers {
		if time.Since(w.LastCheckin) <= settings.HeartbeatInterval {
			continue
		}

		if w.CurrentJob != "" {
			if _, err := reactions.BulkReset([]string{w.CurrentJob}, string(w.Scaler)); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		if err := driver.Delete(ctx, w.Name); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := cluster.Apply("delete_worker", w.Name); err != nil {
			errs = append(errs, err)
			continue
		}
		metrics.WorkersDeletedTotal.WithLabelValues(string(w.Scaler), "heartbeat_timeout").Inc()
	}
	return errs
}
