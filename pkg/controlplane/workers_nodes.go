package controlplane

import (
	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/thorium/pkg/types"
)

func (s *Store) CreateWorker(w *types.Worker) error {
	return s.db.Update(func(tx *bolt.Tx) error { return jsonPut(tx, bucketWorkers, w.Name, w) })
}

func (s *Store) GetWorker(name string) (*types.Worker, error) {
	var w types.Worker
	if err := s.db.View(func(tx *bolt.Tx) error { return jsonGet(tx, bucketWorkers, name, &w) }); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) UpdateWorker(w *types.Worker) error {
	return s.db.Update(func(tx *bolt.Tx) error { return jsonPut(tx, bucketWorkers, w.Name, w) })
}

func (s *Store) DeleteWorker(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error { return tx.Bucket(bucketWorkers).Delete([]byte(name)) })
}

func (s *Store) ListWorkers() ([]*types.Worker, error) {
	var out []*types.Worker
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWorkers).ForEach(func(k, v []byte) error {
			var w types.Worker
			if jsonGetBytes(v, &w) != nil {
				return nil
			}
			out = append(out, &w)
			return nil
		})
	})
	return out, err
}

func (s *Store) CreateNode(n *types.Node) error {
	return s.db.Update(func(tx *bolt.Tx) error { return jsonPut(tx, bucketNodes, n.Name, n) })
}

func (s *Store) GetNode(name string) (*types.Node, error) {
	var n types.Node
	if err := s.db.View(func(tx *bolt.Tx) error { return jsonGet(tx, bucketNodes, name, &n) }); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Store) UpdateNode(n *types.Node) error {
	return s.db.Update(func(tx *bolt.Tx) error { return jsonPut(tx, bucketNodes, n.Name, n) })
}

func (s *Store) DeleteNode(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error { return tx.Bucket(bucketNodes).Delete([]byte(name)) })
}

// ListNodes returns every node, used by the scheduler's snapshot to
// build each scaler's schedulable node pool.
func (s *Store) ListNodes() ([]*types.Node, error) {
	var out []*types.Node
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNodes).ForEach(func(k, v []byte) error {
			var n types.Node
			if jsonGetBytes(v, &n) != nil {
				return nil
			}
			out = append(out, &n)
			return nil
		})
	})
	return out, err
}
