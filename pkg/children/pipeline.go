package children

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/cuemby/thorium/pkg/types"
)

const (
	sourceDir         = "source"
	unpackedDir       = "unpacked"
	carvedUnknownDir  = "carved/unknown"
	carvedPcapDir     = "carved/pcap"
	pcapSidecarName   = "thorium_pcap_metadata.json"
)

// JobContext carries everything the pipeline needs about the job that
// just finished besides the files on disk: the image that ran, the
// groups and tags to attach, and the provenance facts that are the
// same for every child in one category.
type JobContext struct {
	Image        *types.Image
	SampleGroups []string
	RepoGroups   []string
	Tags         map[string][]string
	TriggerDepth int
	Source       SourceProvenance
	ToolName     string
}

// Run discovers, filters, attaches provenance to, and submits every
// child artifact under childrenRoot, one category at a time. An empty
// childrenRoot does nothing. The compiled
// regex cache is scoped to this one call.
func Run(ctx context.Context, submitter Submitter, logger zerolog.Logger, childrenRoot string, jctx JobContext) error {
	if childrenRoot == "" {
		return nil
	}

	groups := SelectGroups(jctx.SampleGroups, jctx.RepoGroups, jctx.Image.OutputCollection.Groups)
	cache := newFilterCache()

	if err := runCategory(ctx, submitter, cache, filepath.Join(childrenRoot, sourceDir), jctx, groups, func(c Candidate) types.OriginRequest {
		return BuildSourceOrigin(jctx.Source, c.FileExtension)
	}); err != nil {
		return err
	}

	if err := runCategory(ctx, submitter, cache, filepath.Join(childrenRoot, unpackedDir), jctx, groups, func(c Candidate) types.OriginRequest {
		return BuildUnpackedOrigin("", jctx.ToolName)
	}); err != nil {
		return err
	}

	if err := runCategory(ctx, submitter, cache, filepath.Join(childrenRoot, carvedUnknownDir), jctx, groups, func(c Candidate) types.OriginRequest {
		return BuildCarvedUnknownOrigin("", jctx.ToolName)
	}); err != nil {
		return err
	}

	pcapRoot := filepath.Join(childrenRoot, carvedPcapDir)
	sidecar := loadPcapSidecar(filepath.Join(pcapRoot, pcapSidecarName))
	if err := runCategory(ctx, submitter, cache, pcapRoot, jctx, groups, func(c Candidate) types.OriginRequest {
		return BuildCarvedPcapOrigin("", jctx.ToolName, c.FileName, sidecar, logger)
	}); err != nil {
		return err
	}

	return nil
}

// runCategory discovers, filters, and submits every child under one
// category root.
func runCategory(ctx context.Context, submitter Submitter, cache *filterCache, root string, jctx JobContext, groups []string, origin func(Candidate) types.OriginRequest) error {
	candidates, err := Discover(root)
	if err != nil {
		return err
	}

	var reqs []types.SampleRequest
	for _, c := range candidates {
		submit, err := shouldSubmit(cache, c, jctx.Image.ChildFilters)
		if err != nil {
			return err
		}
		if !submit {
			continue
		}
		reqs = append(reqs, types.SampleRequest{
			Path:         c.Path,
			Groups:       groups,
			Origin:       origin(c),
			TriggerDepth: jctx.TriggerDepth,
			Tags:         jctx.Tags,
		})
	}

	if len(reqs) == 0 {
		return nil
	}
	return SubmitBatch(ctx, submitter, reqs)
}
