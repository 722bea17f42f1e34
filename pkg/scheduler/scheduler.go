// Package scheduler implements Thorium's job-to-worker allocation
// loop: a fairshare pass for equitable distribution across users, a
// deadline pass that spends the reserved pool on the earliest
// SLA regardless of owner, and a consistency scan that keeps image and
// pipeline bans in sync with the host-path whitelist. The scheduler
// never marks a job Running itself; it only spawns or deletes worker
// processes sized to outstanding demand. A spawned worker claims its
// own job through pkg/reaction once it starts.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/thorium/pkg/config"
	"github.com/cuemby/thorium/pkg/controlplane"
	"github.com/cuemby/thorium/pkg/metrics"
	"github.com/cuemby/thorium/pkg/reaction"
)

// cycleInterval is how often a full snapshot-allocate-apply cycle
// runs.
const cycleInterval = 5 * time.Second

// Scheduler owns the allocation loop for one control-plane process.
// Only the raft leader's loop actually does anything; a follower's
// Scheduler ticks but every cycle is a no-op, so the loop can run
// unconditionally on every node and leadership changes need no extra
// wiring here.
type Scheduler struct {
	cluster   *controlplane.Cluster
	cfg       *config.Config
	driver    WorkerDriver
	reactions *reaction.Service
	logger    zerolog.Logger

	stopCh chan struct{}
}

// New wraps cluster, cfg, and driver for one scheduling loop. reactions
// performs the bulk-reset recovery a dead worker's job needs.
func New(cluster *controlplane.Cluster, cfg *config.Config, driver WorkerDriver, reactions *reaction.Service) *Scheduler {
	return &Scheduler{
		cluster:   cluster,
		cfg:       cfg,
		driver:    driver,
		reactions: reactions,
		logger:    zerolog.Nop(),
		stopCh:    make(chan struct{}),
	}
}

// WithLogger overrides the scheduler's logger.
func (s *Scheduler) WithLogger(logger zerolog.Logger) *Scheduler {
	s.logger = logger
	return s
}

// Start runs the allocation loop on a fixed tick until Stop is called.
func (s *Scheduler) Start() {
	go func() {
		ticker := time.NewTicker(cycleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runCycle()
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop ends the allocation loop.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

// runCycle performs one full Snapshot -> reap -> fairshare ->
// deadline -> consistency scan -> apply pass, skipping everything but
// the tick itself if this node isn't the raft leader.
func (s *Scheduler) runCycle() {
	if !s.cluster.IsLeader() {
		return
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SchedulingCycleDuration)

	store := s.cluster.Store()
	snap, err := buildSnapshot(store, s.cfg)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build scheduling snapshot")
		return
	}

	ctx := context.Background()
	for _, err := range reapDeadWorkers(ctx, s.cluster, s.driver, s.reactions, snap.workers, snap.settings) {
		s.logger.Error().Err(err).Msg("failed to reap dead worker")
	}

	plan := newAllocationPlan()
	fairSpent := runFairshare(snap, plan, snap.settings.FairsharePool)
	deadlineSpent := runDeadline(snap, plan, snap.settings.ReservedPool)

	metrics.FairsharePoolRemaining.Set(float64(snap.settings.FairsharePool - fairSpent))
	metrics.DeadlinePoolRemaining.Set(float64(snap.settings.ReservedPool - deadlineSpent))

	if err := runConsistencyScan(store, snap.settings); err != nil {
		s.logger.Error().Err(err).Msg("failed to run consistency scan")
	}

	for _, err := range applyPlan(ctx, s.cluster, s.driver, plan) {
		s.logger.Error().Err(err).Msg("failed to apply scheduling decision")
	}
}
