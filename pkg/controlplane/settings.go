package controlplane

import (
	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/thorium/pkg/apierror"
	"github.com/cuemby/thorium/pkg/types"
)

// settingsKey is the single row SystemSettings lives under; there is
// exactly one settings document cluster-wide.
const settingsKey = "settings"

// GetSystemSettings returns the cluster's scheduling settings,
// defaulting to types.DefaultSystemSettings if none have been written
// yet (a fresh cluster has no settings row).
func (s *Store) GetSystemSettings() (*types.SystemSettings, error) {
	var settings types.SystemSettings
	err := s.db.View(func(tx *bolt.Tx) error {
		return jsonGet(tx, bucketSettings, settingsKey, &settings)
	})
	if err != nil {
		if apierror.Is(err, apierror.KindNotFound) {
			defaults := types.DefaultSystemSettings()
			return &defaults, nil
		}
		return nil, err
	}
	return &settings, nil
}

// PutSystemSettings persists settings as the cluster's current
// settings document.
func (s *Store) PutSystemSettings(settings *types.SystemSettings) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return jsonPut(tx, bucketSettings, settingsKey, settings)
	})
}
