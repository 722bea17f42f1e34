package executor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cuemby/thorium/pkg/apierror"
	"github.com/cuemby/thorium/pkg/types"
)

// Paths is every directory and downloaded file Setup staged for one
// job, keyed by dependency kind so Execute can template argv slots
// against it and Cleanup can purge it as a unit.
type Paths struct {
	Root string

	dirs  map[types.DependencyKind]string
	files map[types.DependencyKind][]string

	ResultsDir  string
	ChildrenDir string
}

func newPaths(root string) *Paths {
	return &Paths{
		Root:  root,
		dirs:  make(map[types.DependencyKind]string),
		files: make(map[types.DependencyKind][]string),
	}
}

// DirFor returns the staged directory for a dependency kind, or ""
// if nothing was staged for it.
func (p *Paths) DirFor(kind types.DependencyKind) string {
	return p.dirs[kind]
}

// FilesFor returns the staged local file paths for a dependency
// kind, in the order they were downloaded.
func (p *Paths) FilesFor(kind types.DependencyKind) []string {
	return p.files[kind]
}

// Setup creates the dependency-root directories an image needs under
// root and downloads every declared Dependency into them. Each
// directory is created even when the image declares no dependency of
// that kind, since Execute/Results/Tags/Children always scan a fixed
// layout.
func Setup(ctx context.Context, deps Deps, job *types.RawJob, image *types.Image, root string) (*Paths, error) {
	paths := newPaths(root)

	for _, kind := range []types.DependencyKind{
		types.DependencySamples,
		types.DependencyEphemeral,
		types.DependencyParentEphemeral,
		types.DependencyRepos,
		types.DependencyResults,
		types.DependencyTags,
		types.DependencyChildren,
	} {
		dir := filepath.Join(root, string(kind))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apierror.Wrapf(err, apierror.KindInternal, "create %s dependency dir", kind)
		}
		paths.dirs[kind] = dir
	}
	paths.ResultsDir = filepath.Join(root, "result-files")
	if err := os.MkdirAll(paths.ResultsDir, 0o755); err != nil {
		return nil, apierror.Wrapf(err, apierror.KindInternal, "create results dir")
	}
	paths.ChildrenDir = paths.dirs[types.DependencyChildren]

	declared := make(map[types.DependencyKind]bool, len(image.Dependencies))
	for _, dep := range image.Dependencies {
		declared[dep.Kind] = true
	}

	var err error
	if declared[types.DependencySamples] {
		err = stageSamples(ctx, deps, job, paths)
	}
	if err == nil && declared[types.DependencyEphemeral] {
		err = stageEphemeral(job.Ephemeral, paths)
	}
	if err == nil && declared[types.DependencyParentEphemeral] {
		err = stageParentEphemeral(ctx, deps, job, paths)
	}
	if err == nil && declared[types.DependencyRepos] {
		err = stageRepos(ctx, deps, job, paths)
	}
	if err == nil && declared[types.DependencyResults] {
		err = stageResults(ctx, deps, job, paths)
	}
	if err == nil && declared[types.DependencyTags] {
		err = stageTags(ctx, deps, job, paths)
	}
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func stageSamples(ctx context.Context, deps Deps, job *types.RawJob, paths *Paths) error {
	if deps.Samples == nil {
		return apierror.New(apierror.KindInternal, "image declares a samples dependency but no SampleFetcher is configured")
	}
	dir := paths.dirs[types.DependencySamples]
	for _, sha := range job.Samples {
		path, err := deps.Samples.FetchSample(ctx, sha, dir)
		if err != nil {
			return apierror.Wrapf(err, apierror.KindUnavailable, "fetch sample %s", sha)
		}
		paths.files[types.DependencySamples] = append(paths.files[types.DependencySamples], path)
	}
	return nil
}

func stageEphemeral(buffers map[string][]byte, paths *Paths) error {
	dir := paths.dirs[types.DependencyEphemeral]
	for name, data := range buffers {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return apierror.Wrapf(err, apierror.KindInternal, "write ephemeral buffer %s", name)
		}
		paths.files[types.DependencyEphemeral] = append(paths.files[types.DependencyEphemeral], path)
	}
	return nil
}

func stageParentEphemeral(ctx context.Context, deps Deps, job *types.RawJob, paths *Paths) error {
	if deps.ParentEphemeral == nil {
		return apierror.New(apierror.KindInternal, "image declares a parent_ephemeral dependency but no ParentEphemeralFetcher is configured")
	}
	buffers, err := deps.ParentEphemeral.FetchParentEphemeral(ctx, job.ReactionID)
	if err != nil {
		return apierror.Wrapf(err, apierror.KindUnavailable, "fetch parent ephemeral buffers")
	}
	dir := paths.dirs[types.DependencyParentEphemeral]
	for name, data := range buffers {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return apierror.Wrapf(err, apierror.KindInternal, "write parent ephemeral buffer %s", name)
		}
		paths.files[types.DependencyParentEphemeral] = append(paths.files[types.DependencyParentEphemeral], path)
	}
	return nil
}

func stageRepos(ctx context.Context, deps Deps, job *types.RawJob, paths *Paths) error {
	if deps.Repos == nil {
		return apierror.New(apierror.KindInternal, "image declares a repos dependency but no RepoFetcher is configured")
	}
	dir := paths.dirs[types.DependencyRepos]
	for _, url := range job.Repos {
		path, err := deps.Repos.FetchRepo(ctx, url, "", dir)
		if err != nil {
			return apierror.Wrapf(err, apierror.KindUnavailable, "fetch repo %s", url)
		}
		paths.files[types.DependencyRepos] = append(paths.files[types.DependencyRepos], path)
	}
	return nil
}

func stageResults(ctx context.Context, deps Deps, job *types.RawJob, paths *Paths) error {
	if deps.Results == nil {
		return apierror.New(apierror.KindInternal, "image declares a results dependency but no ResultsFetcher is configured")
	}
	dir := paths.dirs[types.DependencyResults]
	files, err := deps.Results.FetchResults(ctx, job.ReactionID, dir)
	if err != nil {
		return apierror.Wrapf(err, apierror.KindUnavailable, "fetch prior results")
	}
	paths.files[types.DependencyResults] = files
	return nil
}

func stageTags(ctx context.Context, deps Deps, job *types.RawJob, paths *Paths) error {
	if deps.Tags == nil {
		return apierror.New(apierror.KindInternal, "image declares a tags dependency but no TagsFetcher is configured")
	}
	tags, err := deps.Tags.FetchTags(ctx, job.ReactionID)
	if err != nil {
		return apierror.Wrapf(err, apierror.KindUnavailable, "fetch reaction tags")
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return apierror.Wrapf(err, apierror.KindInternal, "marshal reaction tags")
	}
	path := filepath.Join(paths.dirs[types.DependencyTags], "tags.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apierror.Wrapf(err, apierror.KindInternal, "write reaction tags")
	}
	paths.files[types.DependencyTags] = []string{path}
	return nil
}

// Cleanup removes every directory Setup created for this job.
func Cleanup(paths *Paths) error {
	if paths == nil {
		return nil
	}
	if err := os.RemoveAll(paths.Root); err != nil {
		return apierror.Wrapf(err, apierror.KindInternal, "remove job root %s", paths.Root)
	}
	return nil
}
