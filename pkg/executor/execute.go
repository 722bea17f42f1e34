package executor

import (
	"context"
	"path/filepath"

	"github.com/cuemby/thorium/pkg/types"
)

// RunSpec is what a Backend needs to spawn one job: a fully resolved
// argument vector, environment, a working directory, and where to
// send the child's combined stdout/stderr.
type RunSpec struct {
	Name      string
	ImageRef  string
	Argv      []string
	Env       map[string]string
	WorkDir   string
	LogPath   string
	Resources types.ResourceRequirements
}

// RunResult is a completed run's outcome.
type RunResult struct {
	ExitCode int
}

// Backend spawns one job in a scaler-specific unit of isolation
// (container, VM) and blocks until it exits or ctx is canceled.
// pkg/executor/container and pkg/executor/kvm each provide one.
type Backend interface {
	Run(ctx context.Context, spec RunSpec) (RunResult, error)
}

// Execute resolves an image's templated command against the
// dependencies Setup staged and hands the result to backend. A
// Windows-scaler job is wrapped in "cmd.exe /C" the way a native
// Windows shell invocation requires.
func Execute(ctx context.Context, backend Backend, job *types.RawJob, image *types.Image, paths *Paths, windows bool) (RunResult, error) {
	argv := buildArgv(image.Command, image.Dependencies, paths)
	if windows {
		argv = append([]string{"cmd.exe", "/C"}, argv...)
	}

	return backend.Run(ctx, RunSpec{
		Name:      job.ID,
		ImageRef:  imageRef(image),
		Argv:      argv,
		Env:       image.Env,
		WorkDir:   paths.Root,
		LogPath:   filepath.Join(paths.Root, "job.log"),
		Resources: image.Resources,
	})
}

// imageRef is the OCI reference an image's container/VM backend pulls
// before running its Command against it.
func imageRef(image *types.Image) string {
	if image.Version == "" {
		return image.Name
	}
	return image.Name + ":" + image.Version
}

// buildArgv expands each command token that names a dependency's
// templated slot according to that dependency's PassStrategy. Tokens
// that name no slot pass through unchanged.
func buildArgv(command []string, deps []types.Dependency, paths *Paths) []string {
	slots := make(map[string]types.Dependency, len(deps))
	for _, dep := range deps {
		if dep.Slot != "" {
			slots[dep.Slot] = dep
		}
	}

	argv := make([]string, 0, len(command))
	for _, tok := range command {
		dep, ok := slots[tok]
		if !ok {
			argv = append(argv, tok)
			continue
		}

		switch dep.PassStrategy {
		case types.PassDisabled:
			// omit the slot entirely
		case types.PassDirectory:
			argv = append(argv, paths.DirFor(dep.Kind))
		case types.PassNames:
			for _, p := range paths.FilesFor(dep.Kind) {
				argv = append(argv, filepath.Base(p))
			}
		default: // types.PassPaths
			argv = append(argv, paths.FilesFor(dep.Kind)...)
		}
	}
	return argv
}
