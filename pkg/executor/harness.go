package executor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cuemby/thorium/pkg/children"
	"github.com/cuemby/thorium/pkg/types"
)

// JobSpec is everything Harness.Run needs about the job and the
// reaction context it belongs to, beyond what Setup's dependency
// fetchers already resolve for themselves.
type JobSpec struct {
	Job          *types.RawJob
	Image        *types.Image
	SampleGroups []string
	RepoGroups   []string
	Source       children.SourceProvenance
	ToolName     string
	Tags         map[string][]string
	Windows      bool
}

// Outcome records how far the six-stage harness got and, if it
// stopped early, why.
type Outcome struct {
	Stage   string
	Results *types.RawResults
	Tags    map[string][]string
	Err     error
}

// Harness runs the Setup -> Execute -> Results -> Tags -> Children ->
// Cleanup state machine for one job against one Backend. No stage
// ever runs after an earlier one has failed except Cleanup, which
// always runs so a failed job never leaks its working directory.
type Harness struct {
	Deps      Deps
	Backend   Backend
	Submitter children.Submitter
	Logger    zerolog.Logger
}

// Run executes every stage in order against root, a directory unique
// to this job that the caller owns and Cleanup will remove.
func (h *Harness) Run(ctx context.Context, spec JobSpec, root string) Outcome {
	paths, err := Setup(ctx, h.Deps, spec.Job, spec.Image, root)
	if err != nil {
		if cerr := Cleanup(newPaths(root)); cerr != nil {
			h.Logger.Error().Err(cerr).Str("job_id", spec.Job.ID).Msg("cleanup failed")
		}
		return Outcome{Stage: "setup", Err: err}
	}
	defer func() {
		if cerr := Cleanup(paths); cerr != nil {
			h.Logger.Error().Err(cerr).Str("job_id", spec.Job.ID).Msg("cleanup failed")
		}
	}()

	if _, err := Execute(ctx, h.Backend, spec.Job, spec.Image, paths, spec.Windows); err != nil {
		return Outcome{Stage: "execute", Err: err}
	}

	results, err := Results(spec.Image, paths)
	if err != nil {
		return Outcome{Stage: "results", Err: err}
	}

	tags := Tags(spec.Image, results)

	if err := h.runChildren(ctx, spec, paths); err != nil {
		return Outcome{Stage: "children", Results: results, Tags: tags, Err: err}
	}

	return Outcome{Stage: "cleanup", Results: results, Tags: tags}
}

func (h *Harness) runChildren(ctx context.Context, spec JobSpec, paths *Paths) error {
	jctx := children.JobContext{
		Image:        spec.Image,
		SampleGroups: spec.SampleGroups,
		RepoGroups:   spec.RepoGroups,
		Tags:         spec.Tags,
		TriggerDepth: spec.Job.TriggerDepth,
		Source:       spec.Source,
		ToolName:     spec.ToolName,
	}
	return children.Run(ctx, h.Submitter, h.Logger, paths.ChildrenDir, jctx)
}
