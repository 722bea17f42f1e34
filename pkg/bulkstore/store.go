// Package bulkstore is Thorium's wide-column emulation layer: samples,
// repos, results, tags, and comments, partitioned per group the way a
// clustered wide-column store partitions by partition key, with the
// record id as the clustering key within a partition. It is built on
// the same bbolt engine as pkg/controlplane — no Cassandra/Scylla
// driver appears anywhere in the corpus this module was grounded on,
// and bbolt already gives per-partition ordered iteration for free.
package bulkstore

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/thorium/pkg/apierror"
)

var (
	bucketData  = []byte("data")  // nested: kind/group/partition -> id -> json
	bucketIndex = []byte("index") // nested: kind/group -> id -> partition (decimal string)
	bucketMeta  = []byte("meta")  // kind/group -> current partition and per-partition row counts (decimal strings)
)

// Store is the bbolt-backed bulk/wide-column plane.
type Store struct {
	db            *bolt.DB
	partitionSize int
}

// Open opens (creating if necessary) the bbolt file at path, rolling
// to a new partition every partitionSize records per (kind, group).
func Open(path string, partitionSize int) (*Store, error) {
	if partitionSize <= 0 {
		partitionSize = 10000
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, apierror.Wrap(err, apierror.KindInternal, "open bulk store")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketData, bucketIndex, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, apierror.Wrap(err, apierror.KindInternal, "initialize bulk store buckets")
	}
	return &Store{db: db, partitionSize: partitionSize}, nil
}

// Close closes the underlying bbolt file.
func (s *Store) Close() error {
	return s.db.Close()
}

func partitionKeyFor(kind, group string) []byte {
	return []byte(kind + "\x00" + group)
}

// put writes v under (kind, group, id), assigning it to the group's
// current partition (rolling to a new one if the current partition is
// full) and recording that assignment in the index.
func (s *Store) put(kind, group, id string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.Bucket(bucketMeta).CreateBucketIfNotExists(partitionKeyFor(kind, group))
		if err != nil {
			return err
		}
		idx, err := tx.Bucket(bucketIndex).CreateBucketIfNotExists(partitionKeyFor(kind, group))
		if err != nil {
			return err
		}

		partition := currentPartition(meta)
		count := partitionCount(meta, partition)
		if count >= s.partitionSize {
			partition++
			count = 0
			if err := meta.Put([]byte("current"), encodeInt(partition)); err != nil {
				return err
			}
		}

		dataBucket, err := tx.Bucket(bucketData).CreateBucketIfNotExists(partitionKeyFor(kind, group))
		if err != nil {
			return err
		}
		partBucket, err := dataBucket.CreateBucketIfNotExists(encodeInt(partition))
		if err != nil {
			return err
		}
		if partBucket.Get([]byte(id)) == nil {
			if err := meta.Put(countKey(partition), encodeInt(count+1)); err != nil {
				return err
			}
		}
		if err := partBucket.Put([]byte(id), data); err != nil {
			return err
		}
		return idx.Put([]byte(id), encodeInt(partition))
	})
}

// get reads (kind, group, id) by first resolving its partition via
// the index, then decoding v out of the data bucket.
func (s *Store) get(kind, group, id string, v interface{}) error {
	return s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bucketIndex).Bucket(partitionKeyFor(kind, group))
		if idx == nil {
			return apierror.NewNotFound(fmt.Sprintf("%s/%s/%s", kind, group, id))
		}
		raw := idx.Get([]byte(id))
		if raw == nil {
			return apierror.NewNotFound(fmt.Sprintf("%s/%s/%s", kind, group, id))
		}
		dataBucket := tx.Bucket(bucketData).Bucket(partitionKeyFor(kind, group))
		if dataBucket == nil {
			return apierror.NewNotFound(fmt.Sprintf("%s/%s/%s", kind, group, id))
		}
		partBucket := dataBucket.Bucket(raw)
		if partBucket == nil {
			return apierror.NewNotFound(fmt.Sprintf("%s/%s/%s", kind, group, id))
		}
		data := partBucket.Get([]byte(id))
		if data == nil {
			return apierror.NewNotFound(fmt.Sprintf("%s/%s/%s", kind, group, id))
		}
		return json.Unmarshal(data, v)
	})
}

// listPage returns up to limit records for (kind, group) starting
// after cursor (exclusive), scanning partitions in order, paired with
// the cursor to resume from for the next page (empty when exhausted).
func (s *Store) listPage(kind, group string, cursor string, limit int, decode func([]byte) error) (next string, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		dataBucket := tx.Bucket(bucketData).Bucket(partitionKeyFor(kind, group))
		if dataBucket == nil {
			return nil
		}
		remaining := limit
		more := false
		pc := dataBucket.Cursor()
		for partName, partVal := pc.First(); partName != nil && !more; partName, partVal = pc.Next() {
			if partVal != nil {
				continue // not a sub-bucket
			}
			part := dataBucket.Bucket(partName)
			c := part.Cursor()
			var k, v []byte
			if cursor == "" {
				k, v = c.First()
			} else {
				k, v = c.Seek([]byte(cursor))
				if k != nil && string(k) == cursor {
					k, v = c.Next()
				}
			}
			for ; k != nil; k, v = c.Next() {
				if remaining <= 0 {
					more = true
					break
				}
				if err := decode(v); err != nil {
					return err
				}
				next = string(k)
				remaining--
			}
		}
		if !more {
			next = ""
		}
		return nil
	})
	return next, err
}

func currentPartition(meta *bolt.Bucket) int {
	v := meta.Get([]byte("current"))
	if v == nil {
		return 0
	}
	return decodeInt(v)
}

func partitionCount(meta *bolt.Bucket, partition int) int {
	v := meta.Get(countKey(partition))
	if v == nil {
		return 0
	}
	return decodeInt(v)
}

func countKey(partition int) []byte {
	return []byte(fmt.Sprintf("count/%d", partition))
}

func encodeInt(n int) []byte {
	return []byte(fmt.Sprintf("%010d", n))
}

func decodeInt(b []byte) int {
	var n int
	fmt.Sscanf(string(b), "%d", &n)
	return n
}
