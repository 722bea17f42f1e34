package reaction

import (
	"time"

	"github.com/cuemby/thorium/pkg/apierror"
	"github.com/cuemby/thorium/pkg/types"
)

// checkpointArg is the kwargs key a generator job's checkpoint state
// is stashed under; Sleep overwrites it in place rather than
// appending, since each checkpoint fully supersedes the last one.
const checkpointArg = "--checkpoint"

// Sleep puts a running generator job to sleep with checkpoint
// recorded for its next wake. Only a Running job may sleep; any other
// status is a conflict.
func (s *Service) Sleep(jobID, checkpoint string) error {
	store := s.cluster.Store()
	job, err := store.GetJob(jobID)
	if err != nil {
		return err
	}
	if job.Status != types.JobRunning {
		return apierror.NewConflict("job is not running")
	}

	oldStatus := job.Status
	job.Status = types.JobSleeping
	if job.Args == nil {
		job.Args = map[string][]string{}
	}
	job.Args[checkpointArg] = []string{checkpoint}

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
	if job.Generator && r.Status != types.ReactionSleeping {
		oldReactionStatus := r.Status
		r.Status = types.ReactionSleeping
		r.UpdatedAt = time.Now()
		return s.cluster.Apply("update_reaction", struct {
			Reaction  types.Reaction       `json:"reaction"`
			OldStatus types.ReactionStatus `json:"old_status"`
		}{*r, oldReactionStatus})
	}
	return nil
}
