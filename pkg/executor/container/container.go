// Package container implements the agent executor Backend for the
// k8s, bare_metal, and windows scaler kinds: one job is one
// containerd task, pulled from the image's OCI reference and run to
// completion with its combined output redirected to a log file.
package container

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/rs/zerolog"

	"github.com/cuemby/thorium/pkg/executor"
)

// DefaultNamespace is the containerd namespace every thorium job
// container runs in, isolated from any other tenant of the same
// daemon.
const DefaultNamespace = "thorium"

// DefaultSocketPath is where the containerd daemon's API socket
// lives when a scaler config names no cluster override.
const DefaultSocketPath = "/run/containerd/containerd.sock"

// StopTimeout bounds how long Backend waits for a SIGTERM'd task to
// exit before escalating to SIGKILL.
const StopTimeout = 10 * time.Second

// guestWorkDir is where a job's staged dependency directories are
// bind-mounted inside the container, so Argv slots built from host
// paths resolve the same way Command expects them to on any scaler.
const guestWorkDir = "/thorium/work"

// Backend runs jobs as containerd tasks. It implements
// pkg/executor.Backend.
type Backend struct {
	client    *containerd.Client
	namespace string
	logger    zerolog.Logger
}

// New connects to a containerd daemon at socketPath (DefaultSocketPath
// when empty) and scopes every container it creates to namespace
// (DefaultNamespace when empty).
func New(socketPath, namespace string, logger zerolog.Logger) (*Backend, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	client, err := containerd.New(socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to containerd at %s: %w", socketPath, err)
	}

	return &Backend{client: client, namespace: namespace, logger: logger}, nil
}

// Close releases the underlying containerd client connection.
func (b *Backend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// Run pulls spec.ImageRef, creates a container with spec.Argv as its
// process args and spec.Env as its environment, starts it, and blocks
// until the task exits or ctx is canceled. Output is written to
// spec.LogPath; the container and its snapshot are always deleted
// before Run returns.
func (b *Backend) Run(ctx context.Context, spec executor.RunSpec) (executor.RunResult, error) {
	ctx = namespaces.WithNamespace(ctx, b.namespace)

	image, err := b.client.Pull(ctx, spec.ImageRef, containerd.WithPullUnpack)
	if err != nil {
		return executor.RunResult{}, fmt.Errorf("pull image %s: %w", spec.ImageRef, err)
	}

	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}

	opts := []oci.SpecOpts{
		oci.WithImageConfig(image),
		oci.WithProcessArgs(spec.Argv...),
		oci.WithEnv(env),
	}
	if spec.Resources.CPUMillis > 0 {
		shares := uint64(spec.Resources.CPUMillis)
		quota := int64(spec.Resources.CPUMillis) * 100
		opts = append(opts, oci.WithCPUShares(shares), oci.WithCPUCFS(quota, 100000))
	}
	if spec.Resources.MemoryBytes > 0 {
		opts = append(opts, oci.WithMemoryLimit(uint64(spec.Resources.MemoryBytes)))
	}
	opts = append(opts, oci.WithMounts([]specs.Mount{
		{Source: spec.WorkDir, Destination: guestWorkDir, Type: "bind", Options: []string{"rbind"}},
	}))

	containerID := "thorium-" + spec.Name
	cont, err := b.client.NewContainer(
		ctx,
		containerID,
		containerd.WithImage(image),
		containerd.WithNewSnapshot(containerID+"-snapshot", image),
		containerd.WithNewSpec(opts...),
	)
	if err != nil {
		return executor.RunResult{}, fmt.Errorf("create container for job %s: %w", spec.Name, err)
	}
	defer b.delete(ctx, cont)

	logFile, err := os.Create(spec.LogPath)
	if err != nil {
		return executor.RunResult{}, fmt.Errorf("create log file %s: %w", spec.LogPath, err)
	}
	defer logFile.Close()

	task, err := cont.NewTask(ctx, cio.NewCreator(cio.WithStreams(nil, logFile, logFile)))
	if err != nil {
		return executor.RunResult{}, fmt.Errorf("create task for job %s: %w", spec.Name, err)
	}

	statusC, err := task.Wait(ctx)
	if err != nil {
		return executor.RunResult{}, fmt.Errorf("wait on task for job %s: %w", spec.Name, err)
	}

	if err := task.Start(ctx); err != nil {
		return executor.RunResult{}, fmt.Errorf("start task for job %s: %w", spec.Name, err)
	}

	select {
	case status := <-statusC:
		code, _, err := status.Result()
		b.cleanupTask(ctx, task)
		if err != nil {
			return executor.RunResult{}, fmt.Errorf("task exit status for job %s: %w", spec.Name, err)
		}
		return executor.RunResult{ExitCode: int(code)}, nil
	case <-ctx.Done():
		b.stopTask(ctx, task)
		return executor.RunResult{}, ctx.Err()
	}
}

func (b *Backend) stopTask(ctx context.Context, task containerd.Task) {
	stopCtx, cancel := context.WithTimeout(context.Background(), StopTimeout)
	defer cancel()

	if err := task.Kill(stopCtx, syscall.SIGTERM); err != nil {
		b.logger.Warn().Err(err).Msg("SIGTERM delivery failed, forcing SIGKILL")
	}
	<-stopCtx.Done()
	_ = task.Kill(context.Background(), syscall.SIGKILL)
	b.cleanupTask(context.Background(), task)
}

func (b *Backend) cleanupTask(ctx context.Context, task containerd.Task) {
	if _, err := task.Delete(ctx); err != nil {
		b.logger.Warn().Err(err).Msg("failed to delete exited task")
	}
}

func (b *Backend) delete(ctx context.Context, cont containerd.Container) {
	if err := cont.Delete(ctx, containerd.WithSnapshotCleanup); err != nil {
		b.logger.Warn().Err(err).Str("container", cont.ID()).Msg("failed to delete container")
	}
}
