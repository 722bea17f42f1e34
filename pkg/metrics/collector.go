package metrics

import (
	"time"

	"github.com/cuemby/thorium/pkg/controlplane"
	"github.com/cuemby/thorium/pkg/types"
)

// Collector periodically polls the control-plane store for gauge-style
// metrics that have no natural "increment on event" call site: status
// distributions and raft replication state. Counter/histogram metrics
// are not collected here: pkg/scheduler updates its own at their call
// sites, and no other package in this module updates any of them.
type Collector struct {
	cluster *controlplane.Cluster
	stopCh  chan struct{}
}

// NewCollector wraps cluster for periodic gauge collection.
func NewCollector(cluster *controlplane.Cluster) *Collector {
	return &Collector{
		cluster: cluster,
		stopCh:  make(chan struct{}),
	}
}

// Start begins collecting metrics on a 15 second tick, collecting once
// immediately so gauges aren't empty until the first tick fires.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectJobMetrics()
	c.collectReactionMetrics()
	c.collectWorkerMetrics()
	c.collectRaftMetrics()
}

func (c *Collector) collectJobMetrics() {
	jobs, err := c.cluster.Store().ListJobs()
	if err != nil {
		return
	}

	counts := make(map[types.JobStatus]int)
	for _, job := range jobs {
		counts[job.Status]++
	}
	for _, status := range []types.JobStatus{
		types.JobCreated, types.JobRunning, types.JobSleeping,
		types.JobCompleted, types.JobFailed,
	} {
		JobsByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

func (c *Collector) collectReactionMetrics() {
	reactions, err := c.cluster.Store().ListReactions()
	if err != nil {
		return
	}

	counts := make(map[types.ReactionStatus]int)
	for _, r := range reactions {
		counts[r.Status]++
	}
	for _, status := range []types.ReactionStatus{
		types.ReactionCreated, types.ReactionStarted, types.ReactionRunning,
		types.ReactionSleeping, types.ReactionCompleted, types.ReactionFailed,
	} {
		ReactionsByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

func (c *Collector) collectWorkerMetrics() {
	workers, err := c.cluster.Store().ListWorkers()
	if err != nil {
		return
	}

	counts := make(map[types.WorkerStatus]int)
	for _, w := range workers {
		counts[w.Status]++
	}
	for status, count := range counts {
		WorkersByStatus.WithLabelValues(string(status)).Set(float64(count))
	}
}

func (c *Collector) collectRaftMetrics() {
	if c.cluster.IsLeader() {
		RaftLeader.Set(1)
	} else {
		RaftLeader.Set(0)
	}
	RaftAppliedIndex.Set(float64(c.cluster.AppliedIndex()))
}
