package controlplane

import (
	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/thorium/pkg/apierror"
	"github.com/cuemby/thorium/pkg/types"
)

func (s *Store) CreateUser(u *types.User) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := jsonPut(tx, bucketUsers, u.Username, u); err != nil {
			return err
		}
		if u.TokenHash != "" {
			return tx.Bucket(bucketTokenIndex).Put([]byte(u.TokenHash), []byte(u.Username))
		}
		return nil
	})
}

func (s *Store) GetUser(username string) (*types.User, error) {
	var u types.User
	if err := s.db.View(func(tx *bolt.Tx) error { return jsonGet(tx, bucketUsers, username, &u) }); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser persists u, refreshing the token index if the token hash
// changed (regenerating a token must invalidate the old lookup entry).
func (s *Store) UpdateUser(u *types.User, oldTokenHash string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if oldTokenHash != "" && oldTokenHash != u.TokenHash {
			if err := tx.Bucket(bucketTokenIndex).Delete([]byte(oldTokenHash)); err != nil {
				return err
			}
		}
		if u.TokenHash != "" {
			if err := tx.Bucket(bucketTokenIndex).Put([]byte(u.TokenHash), []byte(u.Username)); err != nil {
				return err
			}
		}
		return jsonPut(tx, bucketUsers, u.Username, u)
	})
}

func (s *Store) DeleteUser(username string) error {
	return s.db.Update(func(tx *bolt.Tx) error { return tx.Bucket(bucketUsers).Delete([]byte(username)) })
}

// GetUserByToken reverse-looks-up a user from a bearer token's hash,
// the only lookup path needed on the hot authentication request path.
func (s *Store) GetUserByToken(tokenHash string) (*types.User, error) {
	var username string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketTokenIndex).Get([]byte(tokenHash))
		if v == nil {
			return apierror.NewAuth("unknown token")
		}
		username = string(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetUser(username)
}

func (s *Store) CreateGroup(g *types.Group) error {
	return s.db.Update(func(tx *bolt.Tx) error { return jsonPut(tx, bucketGroups, g.Name, g) })
}

func (s *Store) GetGroup(name string) (*types.Group, error) {
	var g types.Group
	if err := s.db.View(func(tx *bolt.Tx) error { return jsonGet(tx, bucketGroups, name, &g) }); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) UpdateGroup(g *types.Group) error {
	return s.db.Update(func(tx *bolt.Tx) error { return jsonPut(tx, bucketGroups, g.Name, g) })
}

func (s *Store) DeleteGroup(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error { return tx.Bucket(bucketGroups).Delete([]byte(name)) })
}

func (s *Store) ListGroups() ([]*types.Group, error) {
	var out []*types.Group
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGroups).ForEach(func(k, v []byte) error {
			var g types.Group
			if jsonGetBytes(v, &g) != nil {
				return nil
			}
			out = append(out, &g)
			return nil
		})
	})
	return out, err
}
