package reaction

import (
	"time"

	"github.com/cuemby/thorium/pkg/apierror"
	"github.com/cuemby/thorium/pkg/types"
)

// Fail marks a running job as failed and cascades the failure up
// through its reaction and every ancestor reaction above it (a
// sub-reaction's failure fails its parent, and so on to the root),
// since a failed stage can never be fanned back in to a passing
// reaction.
func (s *Service) Fail(jobID, reason string) error {
	store := s.cluster.Store()
	job, err := store.GetJob(jobID)
	if err != nil {
		return err
	}
	if job.Status != types.JobRunning {
		return apierror.NewConflict("job is not running")
	}

	now := time.Now()
	oldStatus := job.Status
	job.Status = types.JobFailed
	job.FinishedAt = now

	if err := s.cluster.Apply("update_job", struct {
		Job       types.RawJob    `json:"job"`
		OldStatus types.JobStatus `json:"old_status"`
	}{*job, oldStatus}); err != nil {
		return err
	}

	store.RemoveFromRunningStreamByCachedKey(string(job.Scaler), job.ID, job.StartedAt.UnixNano())
	store.RemoveFromDeadlineStream(string(job.Scaler), job.ID, job.Deadline.UnixNano())

	r, err := store.GetReaction(job.ReactionID)
	if err != nil {
		return err
	}
	return s.cascadeFailure(r, reason)
}

// cascadeFailure marks r and every reaction above it in the parent
// chain as Failed, stopping once it reaches a reaction that is
// already Failed (the cascade has already been applied above that
// point).
func (s *Service) cascadeFailure(r *types.Reaction, reason string) error {
	store := s.cluster.Store()
	for r != nil {
		if r.Status == types.ReactionFailed {
			return nil
		}
		oldStatus := r.Status
		r.Status = types.ReactionFailed
		r.UpdatedAt = time.Now()
		r.StageLogs = append(r.StageLogs, types.StageLogLine{
			Index: uint64(len(r.StageLogs)), Line: reason, Timestamp: r.UpdatedAt,
		})
		if err := s.cluster.Apply("update_reaction", struct {
			Reaction  types.Reaction       `json:"reaction"`
			OldStatus types.ReactionStatus `json:"old_status"`
		}{*r, oldStatus}); err != nil {
			return err
		}
		if r.Parent == "" {
			return nil
		}
		parent, err := store.GetReaction(r.Parent)
		if err != nil {
			return err
		}
		r = parent
	}
	return nil
}
