package controlplane

import (
	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/thorium/pkg/types"
)

// CreateReaction persists reaction and adds it to its group/pipeline
// sorted set under its Created status.
func (s *Store) CreateReaction(r *types.Reaction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := jsonPut(tx, bucketReactions, r.ID, r); err != nil {
			return err
		}
		return addReactionToSet(tx, r, r.Status)
	})
}

// GetReaction fetches a reaction by id.
func (s *Store) GetReaction(id string) (*types.Reaction, error) {
	var r types.Reaction
	err := s.db.View(func(tx *bolt.Tx) error {
		return jsonGet(tx, bucketReactions, id, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateReaction persists r, moving its status-set membership from
// oldStatus to r.Status if they differ.
func (s *Store) UpdateReaction(r *types.Reaction, oldStatus types.ReactionStatus) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if oldStatus != r.Status {
			if err := removeReactionFromSet(tx, r, oldStatus); err != nil {
				return err
			}
			if err := addReactionToSet(tx, r, r.Status); err != nil {
				return err
			}
		}
		return jsonPut(tx, bucketReactions, r.ID, r)
	})
}

// DeleteReaction removes a reaction's row and its status-set entry.
func (s *Store) DeleteReaction(r *types.Reaction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := removeReactionFromSet(tx, r, r.Status); err != nil {
			return err
		}
		return tx.Bucket(bucketReactions).Delete([]byte(r.ID))
	})
}

func reactionSetKey(group, pipeline string, status types.ReactionStatus) []byte {
	return []byte(group + "\x00" + pipeline + "\x00" + string(status))
}

func addReactionToSet(tx *bolt.Tx, r *types.Reaction, status types.ReactionStatus) error {
	sb, err := tx.Bucket(bucketStatusQueue).CreateBucketIfNotExists(reactionSetKey(r.Group, r.Pipeline, status))
	if err != nil {
		return err
	}
	return sb.Put(deadlineMember(r.CreatedAt, r.ID), []byte(r.ID))
}

func removeReactionFromSet(tx *bolt.Tx, r *types.Reaction, status types.ReactionStatus) error {
	sb := tx.Bucket(bucketStatusQueue).Bucket(reactionSetKey(r.Group, r.Pipeline, status))
	if sb == nil {
		return nil
	}
	return sb.Delete(deadlineMember(r.CreatedAt, r.ID))
}

// ListReactions returns every reaction in the store, for status-count
// polling; it does not go through any sorted set.
func (s *Store) ListReactions() ([]*types.Reaction, error) {
	var all []*types.Reaction
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketReactions).ForEach(func(k, v []byte) error {
			var r types.Reaction
			if jsonGetBytes(v, &r) != nil {
				return nil
			}
			all = append(all, &r)
			return nil
		})
	})
	return all, err
}

// ListSubReactions returns every reaction whose Parent is parentID,
// used by sub-reaction fan-in to decide when all children have
// finished.
func (s *Store) ListSubReactions(parentID string) ([]*types.Reaction, error) {
	var all []*types.Reaction
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketReactions).ForEach(func(k, v []byte) error {
			var r types.Reaction
			if jsonGetBytes(v, &r) != nil {
				return nil
			}
			if r.Parent == parentID {
				all = append(all, &r)
			}
			return nil
		})
	})
	return all, err
}
