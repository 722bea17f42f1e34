/*
Package metrics defines and registers every Prometheus metric Thorium
exposes, and exposes them over HTTP for scraping.

# Metrics Catalog

Job/Reaction Metrics:

thorium_jobs_claimed_total{scaler}, thorium_jobs_completed_total{scaler},
thorium_jobs_failed_total{scaler}: Counters for job transitions by
scaler. They are registered, but no package in this module increments
them.

thorium_job_runtime_seconds{image}: Histogram of job execution time by
image. No package in this module observes it.

thorium_jobs_by_status{status}, thorium_reactions_by_status{status},
thorium_workers_by_status{status}: Gauges polled from the control-plane
store by Collector every 15s.

thorium_reactions_created_total, thorium_reactions_completed_total,
thorium_reactions_failed_total: Counters; no package in this module
increments them.

Scheduler Metrics:

thorium_scheduling_cycle_duration_seconds: Histogram of one full
snapshot+fairshare+deadline+consistency pass.

thorium_workers_spawned_total{scaler}, thorium_workers_deleted_total{scaler,reason}:
Counters incremented by the scheduler's apply phase.

thorium_fairshare_pool_remaining: Gauge set at the end of each
fairshare pass, the unspent portion of that cycle's fairshare budget.

Child Pipeline Metrics:

thorium_child_submissions_total{origin,outcome}: Counter of child
artifact submission attempts, by provenance kind and success/error/skip.

thorium_child_submission_duration_seconds: Histogram of per-artifact
submission latency.

No package in this module updates either child pipeline metric.

Executor Metrics:

thorium_executor_stage_duration_seconds{scaler,stage}: Histogram of
time spent in each harness stage (setup, execute, results, tags,
children, cleanup). No package in this module observes it.

Raft Metrics:

thorium_raft_is_leader, thorium_raft_applied_index,
thorium_raft_apply_duration_seconds: Gauges/histogram tracking this
node's raft role and replication progress. Collector sets the two
gauges; no package in this module observes the histogram.

# Usage

	timer := metrics.NewTimer()
	job, err := svc.Claim(group, pipeline, stage, worker, limit)
	timer.ObserveDurationVec(metrics.ExecutorStageDuration, string(job.Scaler), "claim")

	metrics.JobsClaimedTotal.WithLabelValues(string(job.Scaler)).Inc()

	http.Handle("/metrics", metrics.Handler())

Collector polls gauge-style metrics that have no natural increment
call site:

	collector := metrics.NewCollector(cluster)
	collector.Start()
	defer collector.Stop()
*/
package metrics
