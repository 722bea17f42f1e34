package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Reaction/job metrics
	JobsClaimedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thorium_jobs_claimed_total",
			Help: "Total number of jobs claimed by scaler",
		},
		[]string{"scaler"},
	)

	JobsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thorium_jobs_completed_total",
			Help: "Total number of jobs completed by scaler",
		},
		[]string{"scaler"},
	)

	JobsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thorium_jobs_failed_total",
			Help: "Total number of jobs failed by scaler",
		},
		[]string{"scaler"},
	)

	JobRuntimeSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thorium_job_runtime_seconds",
			Help:    "Job execution runtime in seconds, by image",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"image"},
	)

	ReactionsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "thorium_reactions_created_total",
			Help: "Total number of reactions created",
		},
	)

	ReactionsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "thorium_reactions_completed_total",
			Help: "Total number of reactions completed",
		},
	)

	ReactionsFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "thorium_reactions_failed_total",
			Help: "Total number of reactions failed",
		},
	)

	JobsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "thorium_jobs_by_status",
			Help: "Current job count by status, polled from the control-plane store",
		},
		[]string{"status"},
	)

	ReactionsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "thorium_reactions_by_status",
			Help: "Current reaction count by status, polled from the control-plane store",
		},
		[]string{"status"},
	)

	WorkersByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "thorium_workers_by_status",
			Help: "Current worker count by status, polled from the control-plane store",
		},
		[]string{"status"},
	)

	// Scheduler metrics
	SchedulingCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thorium_scheduling_cycle_duration_seconds",
			Help:    "Time taken for one scheduler pass (fairshare + deadline + consistency)",
			Buckets: prometheus.DefBuckets,
		},
	)

	WorkersSpawnedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thorium_workers_spawned_total",
			Help: "Total number of workers spawned by scaler",
		},
		[]string{"scaler"},
	)

	WorkersDeletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thorium_workers_deleted_total",
			Help: "Total number of workers deleted by scaler and reason",
		},
		[]string{"scaler", "reason"},
	)

	FairsharePoolRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "thorium_fairshare_pool_remaining",
			Help: "Unspent portion of the cluster-wide fairshare spawn budget after the current cycle",
		},
	)

	DeadlinePoolRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "thorium_deadline_pool_remaining",
			Help: "Unspent portion of the cluster-wide deadline spawn budget after the current cycle",
		},
	)

	// Child artifact pipeline metrics
	ChildSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thorium_child_submissions_total",
			Help: "Total number of child artifact submissions by origin kind and outcome",
		},
		[]string{"origin", "outcome"},
	)

	ChildSubmissionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thorium_child_submission_duration_seconds",
			Help:    "Time taken to submit one child artifact",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Agent executor metrics
	ExecutorStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thorium_executor_stage_duration_seconds",
			Help:    "Time taken for one executor harness stage, by scaler and stage name",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scaler", "stage"},
	)

	// Raft metrics
	RaftLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "thorium_raft_is_leader",
			Help: "Whether this node is the Raft leader (1 = leader, 0 = follower)",
		},
	)

	RaftAppliedIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "thorium_raft_applied_index",
			Help: "Last applied Raft log index",
		},
	)

	RaftApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thorium_raft_apply_duration_seconds",
			Help:    "Time taken to apply a Raft log entry in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		JobsClaimedTotal,
		JobsCompletedTotal,
		JobsFailedTotal,
		JobRuntimeSeconds,
		ReactionsCreatedTotal,
		ReactionsCompletedTotal,
		ReactionsFailedTotal,
		SchedulingCycleDuration,
		WorkersSpawnedTotal,
		WorkersDeletedTotal,
		FairsharePoolRemaining,
		DeadlinePoolRemaining,
		ChildSubmissionsTotal,
		ChildSubmissionDuration,
		ExecutorStageDuration,
		RaftLeader,
		RaftAppliedIndex,
		RaftApplyDuration,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
