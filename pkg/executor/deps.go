package executor

import "context"

// SampleFetcher downloads one sample by sha256 into destDir and
// returns its local path.
type SampleFetcher interface {
	FetchSample(ctx context.Context, sha256, destDir string) (string, error)
}

// RepoFetcher checks out one repo at commitish (empty means default
// branch) into destDir and returns its local path.
type RepoFetcher interface {
	FetchRepo(ctx context.Context, repoURL, commitish, destDir string) (string, error)
}

// ResultsFetcher downloads a prior stage's stored result files for a
// reaction into destDir, returning their local paths. Used when an
// image declares a "results" dependency on an earlier stage's output.
type ResultsFetcher interface {
	FetchResults(ctx context.Context, reactionID, destDir string) ([]string, error)
}

// TagsFetcher returns a reaction's accumulated tags so they can be
// staged as a "tags" dependency.
type TagsFetcher interface {
	FetchTags(ctx context.Context, reactionID string) (map[string][]string, error)
}

// ParentEphemeralFetcher returns the ephemeral buffers a job's parent
// job produced, for images that declare a "parent_ephemeral"
// dependency.
type ParentEphemeralFetcher interface {
	FetchParentEphemeral(ctx context.Context, reactionID string) (map[string][]byte, error)
}

// Deps bundles every external dependency the Setup stage may need to
// satisfy an image's declared Dependencies. A nil field is only an
// error if some image actually declares that dependency kind.
type Deps struct {
	Samples         SampleFetcher
	Repos           RepoFetcher
	Results         ResultsFetcher
	Tags            TagsFetcher
	ParentEphemeral ParentEphemeralFetcher
}
