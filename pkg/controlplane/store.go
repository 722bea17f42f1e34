// Package controlplane is Thorium's raft-replicated control-plane
// store: reactions, jobs, workers, nodes, users, and groups, plus the
// deadline-ordered status queues and per-scaler streams the
// scheduler and reaction state machine read and write. It is the
// bbolt-backed analogue of a Redis hash-plus-sorted-set-plus-stream
// deployment, with raft giving every mutation the same "committed
// group of changes" guarantee a Redis MULTI/EXEC pipeline gave the
// original system.
package controlplane

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/thorium/pkg/apierror"
	"github.com/cuemby/thorium/pkg/types"
)

var (
	bucketJobs        = []byte("jobs")
	bucketReactions   = []byte("reactions")
	bucketWorkers     = []byte("workers")
	bucketNodes       = []byte("nodes")
	bucketUsers       = []byte("users")
	bucketGroups      = []byte("groups")
	bucketStatusQueue = []byte("status_queues") // nested: queue-key -> (deadline|id) -> id
	bucketDeadline    = []byte("deadline_streams") // nested: scaler -> (deadline|id) -> id
	bucketRunning     = []byte("running_streams")  // nested: scaler -> (claimedAt|id) -> id
	bucketTokenIndex  = []byte("token_index")      // token hash -> username
	bucketImages      = []byte("images")
	bucketPipelines   = []byte("pipelines")
	bucketSettings    = []byte("settings")
)

var allBuckets = [][]byte{
	bucketJobs, bucketReactions, bucketWorkers, bucketNodes,
	bucketUsers, bucketGroups, bucketStatusQueue, bucketDeadline,
	bucketRunning, bucketTokenIndex, bucketImages, bucketPipelines,
	bucketSettings,
}

// Store is the bbolt-backed control-plane state. It is safe for
// concurrent use; callers that need multi-step atomicity (the
// reaction state machine) do so by applying one Command through the
// raft FSM built on top of Store, not by taking Store's lock directly.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the bbolt file at path and
// ensures every top-level bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, apierror.Wrap(err, apierror.KindInternal, "open control-plane store")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, apierror.Wrap(err, apierror.KindInternal, "initialize control-plane buckets")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt file.
func (s *Store) Close() error {
	return s.db.Close()
}

// queueKey builds the composite key identifying one status queue,
// matching the original system's "group:pipeline:stage:user:status"
// address scheme.
func queueKey(group, pipeline, stage, user string, status types.JobStatus) []byte {
	return []byte(fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%s", group, pipeline, stage, user, status))
}

// deadlineMember encodes a (deadline, id) pair as a byte-ordered key
// so bbolt's natural key ordering gives us a sorted-set-by-deadline.
func deadlineMember(deadline time.Time, id string) []byte {
	var buf bytes.Buffer
	var nano [8]byte
	binary.BigEndian.PutUint64(nano[:], uint64(deadline.UnixNano()))
	buf.Write(nano[:])
	buf.WriteByte(0)
	buf.WriteString(id)
	return buf.Bytes()
}

func splitDeadlineMember(key []byte) (time.Time, string) {
	if len(key) < 9 {
		return time.Time{}, ""
	}
	nano := int64(binary.BigEndian.Uint64(key[:8]))
	return time.Unix(0, nano), string(key[9:])
}

// jsonPut marshals v and stores it under key in bucket name.
func jsonPut(tx *bolt.Tx, bucket []byte, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Bucket(bucket).Put([]byte(key), data)
}

func jsonGet(tx *bolt.Tx, bucket []byte, key string, v interface{}) error {
	data := tx.Bucket(bucket).Get([]byte(key))
	if data == nil {
		return apierror.NewNotFound(fmt.Sprintf("%s/%s", bucket, key))
	}
	return json.Unmarshal(data, v)
}

func jsonGetBytes(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
