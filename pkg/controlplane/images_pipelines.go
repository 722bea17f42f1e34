package controlplane

import (
	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/thorium/pkg/types"
)

func imageKey(group, name string) string { return group + "/" + name }

func (s *Store) CreateImage(img *types.Image) error {
	return s.db.Update(func(tx *bolt.Tx) error { return jsonPut(tx, bucketImages, imageKey(img.Group, img.Name), img) })
}

func (s *Store) GetImage(group, name string) (*types.Image, error) {
	var img types.Image
	if err := s.db.View(func(tx *bolt.Tx) error { return jsonGet(tx, bucketImages, imageKey(group, name), &img) }); err != nil {
		return nil, err
	}
	return &img, nil
}

func (s *Store) UpdateImage(img *types.Image) error {
	return s.db.Update(func(tx *bolt.Tx) error { return jsonPut(tx, bucketImages, imageKey(img.Group, img.Name), img) })
}

func (s *Store) DeleteImage(group, name string) error {
	return s.db.Update(func(tx *bolt.Tx) error { return tx.Bucket(bucketImages).Delete([]byte(imageKey(group, name))) })
}

// ListImages returns every image in the store, used by the
// scheduler's consistency scan to recompute host-path bans.
func (s *Store) ListImages() ([]*types.Image, error) {
	var out []*types.Image
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketImages).ForEach(func(k, v []byte) error {
			var img types.Image
			if jsonGetBytes(v, &img) != nil {
				return nil
			}
			out = append(out, &img)
			return nil
		})
	})
	return out, err
}

func pipelineKey(group, name string) string { return group + "/" + name }

func (s *Store) CreatePipeline(p *types.Pipeline) error {
	return s.db.Update(func(tx *bolt.Tx) error { return jsonPut(tx, bucketPipelines, pipelineKey(p.Group, p.Name), p) })
}

func (s *Store) GetPipeline(group, name string) (*types.Pipeline, error) {
	var p types.Pipeline
	if err := s.db.View(func(tx *bolt.Tx) error { return jsonGet(tx, bucketPipelines, pipelineKey(group, name), &p) }); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdatePipeline(p *types.Pipeline) error {
	return s.db.Update(func(tx *bolt.Tx) error { return jsonPut(tx, bucketPipelines, pipelineKey(p.Group, p.Name), p) })
}

func (s *Store) DeletePipeline(group, name string) error {
	return s.db.Update(func(tx *bolt.Tx) error { return tx.Bucket(bucketPipelines).Delete([]byte(pipelineKey(group, name))) })
}

func (s *Store) ListPipelines() ([]*types.Pipeline, error) {
	var out []*types.Pipeline
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPipelines).ForEach(func(k, v []byte) error {
			var p types.Pipeline
			if jsonGetBytes(v, &p) != nil {
				return nil
			}
			out = append(out, &p)
			return nil
		})
	})
	return out, err
}
