package reaction

import (
	"time"

	"github.com/cuemby/thorium/pkg/apierror"
	"github.com/cuemby/thorium/pkg/types"
)

// maxDanglingRetries bounds how many dangling/missing-reaction pops a
// single Claim call will absorb before giving up, so a badly corrupted
// queue cannot spin a worker's claim loop forever.
const maxDanglingRetries = 1000

// Claim pops up to limit jobs from the Created queue identified by
// (group, pipeline, stage) for worker. A popped entry whose job row is
// missing (already pruned) or whose reaction has disappeared is
// treated as dangling: it is cleaned up and the loop tries the next
// queue entry without that attempt counting against limit.
func (s *Service) Claim(group, pipeline, stage, worker string, limit int) ([]*types.RawJob, error) {
	store := s.cluster.Store()
	var claimed []*types.RawJob

	for len(claimed) < limit {
		retries := 0
		var job *types.RawJob
		for {
			id, found, err := store.PopLowestDeadline(group, pipeline, stage, types.JobCreated)
			if err != nil {
				return claimed, err
			}
			if !found {
				return claimed, nil // queue is empty; return whatever we have
			}

			candidate, err := store.GetJob(id)
			if err != nil {
				// Dangling: queue pointed at a job row that's already gone.
				s.logger.Warn().Str("job_id", id).Msg("pruned dangling queue entry")
				retries++
				if retries > maxDanglingRetries {
					return claimed, apierror.New(apierror.KindInternal, "too many dangling queue entries")
				}
				continue
			}

			r, err := store.GetReaction(candidate.ReactionID)
			if err != nil {
				// Missing reaction: prune the orphaned job and move on.
				store.DeleteJob(candidate.ID)
				s.logger.Warn().Str("job_id", candidate.ID).Str("reaction_id", candidate.ReactionID).
					Msg("pruned job with missing reaction")
				retries++
				if retries > maxDanglingRetries {
					return claimed, apierror.New(apierror.KindInternal, "too many dangling queue entries")
				}
				continue
			}

			job = candidate
			if err := s.claimOne(job, r, worker); err != nil {
				return claimed, err
			}
			break
		}
		claimed = append(claimed, job)
	}
	return claimed, nil
}

// claimOne performs the single atomic transition a successful claim
// makes: job moves Created -> Running, worker is recorded as its
// owner, it joins the scaler's running stream, and if this is the
// reaction's first claimed job, the reaction itself moves Created ->
// Started.
func (s *Service) claimOne(job *types.RawJob, r *types.Reaction, worker string) error {
	now := time.Now()
	oldStatus := job.Status
	job.Status = types.JobRunning
	job.Worker = worker
	job.StartedAt = now

	if err := s.cluster.Apply("update_job", struct {
		Job       types.RawJob    `json:"job"`
		OldStatus types.JobStatus `json:"old_status"`
	}{*job, oldStatus}); err != nil {
		return err
	}

	if err := s.cluster.Store().AddToRunningStream(string(job.Scaler), job.ID, now.UnixNano()); err != nil {
		return err
	}

	if r.Status == types.ReactionCreated {
		oldReactionStatus := r.Status
		r.Status = types.ReactionStarted
		r.UpdatedAt = now
		if err := s.cluster.Apply("update_reaction", struct {
			Reaction  types.Reaction       `json:"reaction"`
			OldStatus types.ReactionStatus `json:"old_status"`
		}{*r, oldReactionStatus}); err != nil {
			return err
		}
	}
	return nil
}
