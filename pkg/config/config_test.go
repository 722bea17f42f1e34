package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thorium.yaml")
	contents := `
secret: "test-pepper"
token_expiry_days: 7
control_plane:
  data_dir: /tmp/cp
scalers:
  k8s:
    cluster: "prod-east"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-pepper", cfg.Secret)
	assert.Equal(t, 7, cfg.TokenExpiryDays)
	assert.Equal(t, "/tmp/cp", cfg.ControlPlane.DataDir)
	assert.Equal(t, "/var/lib/thorium/bulk-store", cfg.BulkStore.DataDir)
	assert.Equal(t, "prod-east", cfg.Scalers["k8s"].Cluster)
	assert.Equal(t, 10000, cfg.PartitionSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
