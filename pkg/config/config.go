// Package config loads Thorium's process configuration once at
// startup and hands it down as an immutable pointer, the same
// load-once-and-share posture cmd/warren/main.go used.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full process configuration for both the control-plane
// server and thorctl.
type Config struct {
	// Secret is the cluster-wide pepper mixed into every password hash.
	Secret string `yaml:"secret"`

	// TokenExpiryDays is how long an issued bearer token remains valid.
	TokenExpiryDays int `yaml:"token_expiry_days"`

	// Directory configures delegated authentication. Nil means every
	// user authenticates locally.
	Directory *DirectoryConfig `yaml:"directory"`

	// ControlPlane is where the raft-backed KV store keeps its data.
	ControlPlane StoreConfig `yaml:"control_plane"`

	// BulkStore is where samples/repos/results/tags/comments live.
	BulkStore StoreConfig `yaml:"bulk_store"`

	// Scalers maps each scaler backend to the cluster it schedules
	// against (addresses, credentials are backend-specific and left
	// to each pkg/executor driver to interpret).
	Scalers map[string]ScalerConfig `yaml:"scalers"`

	// ObjectStore names the bucket samples and repo archives are
	// uploaded to; the client itself is out of scope.
	ObjectStore ObjectStoreConfig `yaml:"object_store"`

	// PartitionSize is how many rows the bulk store keeps per
	// partition before rolling to a new one.
	PartitionSize int `yaml:"partition_size"`

	// EarliestTimestamp rejects any record whose CreatedAt predates
	// it, guarding against clock-skew corruption on ingest.
	EarliestTimestamp time.Time `yaml:"earliest_timestamp"`

	// EmailVerification, if set, is the service used to send
	// verification links; nil disables the requirement entirely.
	EmailVerification *EmailVerificationConfig `yaml:"email_verification"`
}

// DirectoryConfig configures LDAP-delegated authentication.
type DirectoryConfig struct {
	Addr       string `yaml:"addr"`
	BindDN     string `yaml:"bind_dn"`
	BaseDN     string `yaml:"base_dn"`
	UserFilter string `yaml:"user_filter"`
}

// StoreConfig points at one bbolt-backed store's data file.
type StoreConfig struct {
	DataDir string `yaml:"data_dir"`
}

// ScalerConfig is the per-backend cluster endpoint a scheduler's
// worker-spawn driver talks to.
type ScalerConfig struct {
	Cluster string `yaml:"cluster"`
}

// ObjectStoreConfig names the bucket sample bytes live in.
type ObjectStoreConfig struct {
	Bucket string `yaml:"bucket"`
}

// EmailVerificationConfig is the outbound mail service used to verify
// new user addresses.
type EmailVerificationConfig struct {
	SMTPAddr string `yaml:"smtp_addr"`
	From     string `yaml:"from"`
}

// Load reads and parses a YAML config file, applying defaults for any
// field the file leaves unset.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with every field set to its zero-risk
// default; callers overlay a file or flags on top of it.
func Default() *Config {
	return &Config{
		TokenExpiryDays: 30,
		PartitionSize:   10000,
		ControlPlane:    StoreConfig{DataDir: "/var/lib/thorium/control-plane"},
		BulkStore:       StoreConfig{DataDir: "/var/lib/thorium/bulk-store"},
		Scalers:         map[string]ScalerConfig{},
	}
}
