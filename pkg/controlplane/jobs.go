package controlplane

import (
	"bytes"
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/thorium/pkg/types"
)

// CreateJob persists job and seeds its initial status-queue and
// deadline-stream membership in one transaction.
func (s *Store) CreateJob(job *types.RawJob) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := jsonPut(tx, bucketJobs, job.ID, job); err != nil {
			return err
		}
		if err := addToStatusQueue(tx, job, job.Status); err != nil {
			return err
		}
		return addToDeadlineStream(tx, string(job.Scaler), job.ID, job.Deadline)
	})
}

// GetJob fetches a job by id.
func (s *Store) GetJob(id string) (*types.RawJob, error) {
	var job types.RawJob
	err := s.db.View(func(tx *bolt.Tx) error {
		return jsonGet(tx, bucketJobs, id, &job)
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// DeleteJob removes a job's row; it does not touch queue or stream
// membership, which callers must remove explicitly since the caller
// usually already knows which queues the job was in.
func (s *Store) DeleteJob(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketJobs).Delete([]byte(id))
	})
}

// UpdateJob transitions a job's stored status queue membership (if
// oldStatus differs from job.Status) and persists the new job row,
// all within one transaction.
func (s *Store) UpdateJob(job *types.RawJob, oldStatus types.JobStatus) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if oldStatus != job.Status {
			if err := removeFromStatusQueue(tx, job, oldStatus); err != nil {
				return err
			}
			if err := addToStatusQueue(tx, job, job.Status); err != nil {
				return err
			}
		}
		return jsonPut(tx, bucketJobs, job.ID, job)
	})
}

func addToStatusQueue(tx *bolt.Tx, job *types.RawJob, status types.JobStatus) error {
	qb, err := tx.Bucket(bucketStatusQueue).CreateBucketIfNotExists(queueKey(job.Group, job.Pipeline, job.Stage, "", status))
	if err != nil {
		return err
	}
	return qb.Put(deadlineMember(job.Deadline, job.ID), []byte(job.ID))
}

func removeFromStatusQueue(tx *bolt.Tx, job *types.RawJob, status types.JobStatus) error {
	qb := tx.Bucket(bucketStatusQueue).Bucket(queueKey(job.Group, job.Pipeline, job.Stage, "", status))
	if qb == nil {
		return nil
	}
	return qb.Delete(deadlineMember(job.Deadline, job.ID))
}

// PopLowestDeadline claims the lowest-deadline entry from the named
// status queue, returning its job id. It does not remove the job's
// row, only its queue membership, matching the original design: the
// caller is responsible for loading the job and deciding whether to
// prune it (e.g. if its data row is already gone) or advance it.
func (s *Store) PopLowestDeadline(group, pipeline, stage string, status types.JobStatus) (string, bool, error) {
	var id string
	var found bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		qb := tx.Bucket(bucketStatusQueue).Bucket(queueKey(group, pipeline, stage, "", status))
		if qb == nil {
			return nil
		}
		c := qb.Cursor()
		k, v := c.First()
		if k == nil {
			return nil
		}
		id = string(v)
		found = true
		return qb.Delete(k)
	})
	return id, found, err
}

func addToDeadlineStream(tx *bolt.Tx, scaler, jobID string, deadline time.Time) error {
	sb, err := tx.Bucket(bucketDeadline).CreateBucketIfNotExists([]byte(scaler))
	if err != nil {
		return err
	}
	return sb.Put(deadlineMember(deadline, jobID), []byte(jobID))
}

// AddToDeadlineStream is the public entry point for re-inserting a
// job into a scaler's deadline stream, used by bulk reset once a job
// has been put back in Created status.
func (s *Store) AddToDeadlineStream(scaler, jobID string, deadline time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return addToDeadlineStream(tx, scaler, jobID, deadline)
	})
}

// RemoveFromDeadlineStream removes jobID's entry from scaler's
// deadline stream given the deadline it was inserted under.
func (s *Store) RemoveFromDeadlineStream(scaler, jobID string, deadlineNano int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		sb := tx.Bucket(bucketDeadline).Bucket([]byte(scaler))
		if sb == nil {
			return nil
		}
		return sb.Delete(deadlineMemberNano(deadlineNano, jobID))
	})
}

// AddToRunningStream records a claimed job in scaler's running
// stream, keyed by claim time so it can be paged in claim order.
func (s *Store) AddToRunningStream(scaler, jobID string, claimedAtNano int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		sb, err := tx.Bucket(bucketRunning).CreateBucketIfNotExists([]byte(scaler))
		if err != nil {
			return err
		}
		return sb.Put(deadlineMemberNano(claimedAtNano, jobID), []byte(jobID))
	})
}

// RemoveFromRunningStreamByCachedKey removes a running-stream entry
// when the caller already knows the exact claim timestamp it was
// inserted under (the fast path).
func (s *Store) RemoveFromRunningStreamByCachedKey(scaler, jobID string, claimedAtNano int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		sb := tx.Bucket(bucketRunning).Bucket([]byte(scaler))
		if sb == nil {
			return nil
		}
		return sb.Delete(deadlineMemberNano(claimedAtNano, jobID))
	})
}

// FindInRunningStream performs the original design's fallback path:
// an expensive linear scan of up to maxScan entries of scaler's
// running stream looking for jobID, used only when the cached claim
// timestamp needed for the fast-path delete has been lost.
func (s *Store) FindInRunningStream(scaler, jobID string, maxScan int) (found bool, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		sb := tx.Bucket(bucketRunning).Bucket([]byte(scaler))
		if sb == nil {
			return nil
		}
		c := sb.Cursor()
		scanned := 0
		for k, v := c.First(); k != nil && scanned < maxScan; k, v = c.Next() {
			scanned++
			if bytes.Equal(v, []byte(jobID)) {
				found = true
				return sb.Delete(k)
			}
		}
		return nil
	})
	return found, err
}

func deadlineMemberNano(nano int64, id string) []byte {
	return deadlineMember(time.Unix(0, nano), id)
}

// ListJobs returns every job in the store, used by snapshotting and
// bulk_reset's scan for ids missing their data row.
func (s *Store) ListJobs() ([]*types.RawJob, error) {
	var jobs []*types.RawJob
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketJobs).ForEach(func(k, v []byte) error {
			var job types.RawJob
			if json.Unmarshal(v, &job) != nil {
				return nil // skip malformed rows rather than fail the whole scan
			}
			jobs = append(jobs, &job)
			return nil
		})
	})
	return jobs, err
}

// JobExists reports whether id has a data row, without decoding it.
func (s *Store) JobExists(id string) (bool, error) {
	var exists bool
	err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(bucketJobs).Get([]byte(id)) != nil
		return nil
	})
	return exists, err
}
