//go:build darwin

// Package kvm implements the agent executor Backend for the kvm
// scaler kind: each job runs inside a Lima-managed virtual machine
// rather than a container, for tools that need a full kernel (driver
// analysis, kernel exploits, anything that can't be namespaced). Lima
// itself is macOS-only, matching the base's own embedded Lima
// manager.
package kvm

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/lima-vm/lima/pkg/instance"
	"github.com/lima-vm/lima/pkg/limayaml"
	"github.com/lima-vm/lima/pkg/store"
	"github.com/rs/zerolog"

	"github.com/cuemby/thorium/pkg/executor"
)

// DefaultInstanceName is the Lima instance a Backend starts and runs
// every kvm-scaled job against when no cluster override names one.
const DefaultInstanceName = "thorium-agent"

// ReadyTimeout bounds how long Backend.Ensure waits for a newly
// started instance to report itself running.
const ReadyTimeout = 60 * time.Second

// Backend runs jobs inside one long-lived Lima VM, dispatching each
// job as a command executed over "limactl shell". It implements
// pkg/executor.Backend.
type Backend struct {
	instanceName string
	logger       zerolog.Logger
}

// New returns a Backend bound to instanceName (DefaultInstanceName
// when empty); call Ensure once before the first Run to create and
// start the VM.
func New(instanceName string, logger zerolog.Logger) *Backend {
	if instanceName == "" {
		instanceName = DefaultInstanceName
	}
	return &Backend{instanceName: instanceName, logger: logger}
}

// Ensure creates the backing Lima instance if it does not already
// exist and starts it if it is not already running.
func (b *Backend) Ensure(ctx context.Context) error {
	inst, err := store.Inspect(b.instanceName)
	if err != nil {
		b.logger.Info().Str("instance", b.instanceName).Msg("creating lima instance")
		config := b.baseConfig()
		yamlBytes, err := limayaml.Marshal(&config, false)
		if err != nil {
			return fmt.Errorf("marshal lima config: %w", err)
		}
		if _, err := instance.Create(ctx, b.instanceName, yamlBytes, false); err != nil {
			return fmt.Errorf("create lima instance %s: %w", b.instanceName, err)
		}
		inst, err = store.Inspect(b.instanceName)
		if err != nil {
			return fmt.Errorf("inspect newly created lima instance %s: %w", b.instanceName, err)
		}
	}

	if inst.Status == store.StatusRunning {
		return nil
	}

	b.logger.Info().Str("instance", b.instanceName).Msg("starting lima instance")
	if err := instance.Start(ctx, inst, "", false); err != nil {
		return fmt.Errorf("start lima instance %s: %w", b.instanceName, err)
	}
	return b.waitReady(ctx)
}

func (b *Backend) waitReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ReadyTimeout)
	defer cancel()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for lima instance %s to become ready", b.instanceName)
		case <-ticker.C:
			inst, err := store.Inspect(b.instanceName)
			if err != nil {
				continue
			}
			if inst.Status == store.StatusRunning {
				return nil
			}
		}
	}
}

func (b *Backend) baseConfig() limayaml.LimaYAML {
	arch := limayaml.X8664
	cpus := 4
	memory := "4GiB"
	disk := "40GiB"

	return limayaml.LimaYAML{
		Arch:   &arch,
		CPUs:   &cpus,
		Memory: &memory,
		Disk:   &disk,
		Images: []limayaml.Image{
			{File: limayaml.File{
				Location: "https://cloud-images.ubuntu.com/releases/22.04/release/ubuntu-22.04-server-cloudimg-amd64.img",
				Arch:     limayaml.X8664,
			}},
		},
		Message: "thorium agent VM ready",
	}
}

// Run copies nothing to the guest beyond spec.WorkDir (expected to
// already be on a mount shared with the VM) and runs spec.Argv over
// "limactl shell", with combined output redirected to spec.LogPath.
func (b *Backend) Run(ctx context.Context, spec executor.RunSpec) (executor.RunResult, error) {
	logFile, err := os.Create(spec.LogPath)
	if err != nil {
		return executor.RunResult{}, fmt.Errorf("create log file %s: %w", spec.LogPath, err)
	}
	defer logFile.Close()

	args := append([]string{"shell", b.instanceName, "--workdir", spec.WorkDir, "--"}, spec.Argv...)
	cmd := exec.CommandContext(ctx, "limactl", args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return executor.RunResult{ExitCode: exitErr.ExitCode()}, nil
		}
		return executor.RunResult{}, fmt.Errorf("run job %s in lima instance %s: %w", spec.Name, b.instanceName, err)
	}
	return executor.RunResult{ExitCode: 0}, nil
}
