package reaction

import (
	"time"

	"github.com/cuemby/thorium/pkg/apierror"
	"github.com/cuemby/thorium/pkg/types"
)

// Proceed advances jobID by one increment of stage progress. A job in
// Running status has its progress counter incremented and compared
// against the stage's expected length in the same transition that
// decides whether the reaction as a whole should advance; a job in
// Sleeping status (a generator waking back up) always signals the
// reaction should proceed. Any other status is a conflict: proceed
// only makes sense for a job actually in flight.
func (s *Service) Proceed(jobID string) (shouldProceed bool, err error) {
	store := s.cluster.Store()
	job, err := store.GetJob(jobID)
	if err != nil {
		return false, err
	}
	if job.Status != types.JobRunning && job.Status != types.JobSleeping {
		return false, apierror.NewConflict("job is not running or sleeping")
	}

	now := time.Now()
	oldStatus := job.Status

	switch job.Status {
	case types.JobRunning:
		// Stage progress counts every completed job of this reaction's
		// current stage, this one included.
		jobs, err := store.ListJobs()
		if err != nil {
			return false, err
		}
		job.CurrentStageProgress = 1
		for _, other := range jobs {
			if other.ID != job.ID && other.ReactionID == job.ReactionID && other.Stage == job.Stage && other.Status == types.JobCompleted {
				job.CurrentStageProgress++
			}
		}
		shouldProceed = job.CurrentStageProgress >= job.CurrentStageLength
	case types.JobSleeping:
		shouldProceed = true
	}

	job.Status = types.JobCompleted
	job.FinishedAt = now

	if err := s.cluster.Apply("update_job", struct {
		Job       types.RawJob    `json:"job"`
		OldStatus types.JobStatus `json:"old_status"`
	}{*job, oldStatus}); err != nil {
		return false, err
	}

	// Removal is best-effort: a sleeping job was already pulled from
	// the running stream when it went to sleep, so these are no-ops
	// in that case rather than errors.
	store.RemoveFromRunningStreamByCachedKey(string(job.Scaler), job.ID, job.StartedAt.UnixNano())
	store.RemoveFromDeadlineStream(string(job.Scaler), job.ID, job.Deadline.UnixNano())

	if !shouldProceed {
		return false, nil
	}

	r, err := store.GetReaction(job.ReactionID)
	if err != nil {
		return true, err
	}
	if err := s.advanceReaction(r, job); err != nil {
		return true, err
	}
	return true, nil
}

// advanceReaction moves a reaction to its next state once one of its
// jobs signals the current stage is done. A generator job loops the
// reaction back to Created so it can be reclaimed for another tick
// instead of moving to the next stage.
func (s *Service) advanceReaction(r *types.Reaction, job *types.RawJob) error {
	now := time.Now()
	oldStatus := r.Status

	if job.Generator {
		r.Status = types.ReactionCreated
		r.UpdatedAt = now
		return s.cluster.Apply("update_reaction", struct {
			Reaction  types.Reaction       `json:"reaction"`
			OldStatus types.ReactionStatus `json:"old_status"`
		}{*r, oldStatus})
	}

	r.CurrentStage++
	r.Status = types.ReactionRunning
	r.UpdatedAt = now
	if err := s.cluster.Apply("update_reaction", struct {
		Reaction  types.Reaction       `json:"reaction"`
		OldStatus types.ReactionStatus `json:"old_status"`
	}{*r, oldStatus}); err != nil {
		return err
	}

	if r.CurrentStage < r.StageCount {
		pipeline, err := s.cluster.Store().GetPipeline(r.Group, r.Pipeline)
		if err != nil {
			return err
		}
		return s.createStageJobs(r, pipeline, r.CurrentStage)
	}

	if err := s.completeIfNoMoreStages(r); err != nil {
		return err
	}
	return s.fanInParent(r)
}

// completeIfNoMoreStages marks r Completed once CurrentStage has
// advanced past the pipeline's StageCount (recorded on the reaction
// at creation time).
func (s *Service) completeIfNoMoreStages(r *types.Reaction) error {
	if r.CurrentStage < r.StageCount {
		return nil
	}
	oldStatus := r.Status
	r.Status = types.ReactionCompleted
	r.UpdatedAt = time.Now()
	return s.cluster.Apply("update_reaction", struct {
		Reaction  types.Reaction       `json:"reaction"`
		OldStatus types.ReactionStatus `json:"old_status"`
	}{*r, oldStatus})
}

// fanInParent checks whether r's completion means its parent
// reaction's sub-reaction fan-in is now satisfied, marking the
// parent Completed if every sibling sub-reaction has finished.
func (s *Service) fanInParent(r *types.Reaction) error {
	if r.Parent == "" || r.Status != types.ReactionCompleted {
		return nil
	}
	store := s.cluster.Store()
	siblings, err := store.ListSubReactions(r.Parent)
	if err != nil {
		return err
	}
	for _, sibling := range siblings {
		if sibling.Status != types.ReactionCompleted && sibling.Status != types.ReactionFailed {
			return nil // at least one sub-reaction is still in flight
		}
	}
	parent, err := store.GetReaction(r.Parent)
	if err != nil {
		return err
	}
	if parent.Status == types.ReactionCompleted || parent.Status == types.ReactionFailed {
		return nil
	}
	oldStatus := parent.Status
	parent.Status = types.ReactionCompleted
	parent.UpdatedAt = time.Now()
	return s.cluster.Apply("update_reaction", struct {
		Reaction  types.Reaction       `json:"reaction"`
		OldStatus types.ReactionStatus `json:"old_status"`
	}{*parent, oldStatus})
}
