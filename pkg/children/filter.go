package children

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/cuemby/thorium/pkg/types"
)

// Candidate is one file discovered under an image's output roots,
// with the metadata the filter and provenance stages need.
type Candidate struct {
	Path          string
	MimeType      string
	FileName      string
	FileExtension string
}

// filterCache compiles and memoizes the regex patterns a job's
// filters reference, keyed by the raw pattern string, so evaluating
// the same pattern against many children within one job only pays the
// compile cost once. Scoped to one job's lifetime; callers construct
// a fresh one per job.
type filterCache struct {
	mu       sync.Mutex
	compiled map[string]*regexp.Regexp
	failed   map[string]error
}

// newFilterCache returns an empty cache.
func newFilterCache() *filterCache {
	return &filterCache{
		compiled: make(map[string]*regexp.Regexp),
		failed:   make(map[string]error),
	}
}

// compile lazily compiles pattern, memoizing both success and failure
// so a pattern that fails to compile is reported the same way on
// every subsequent lookup instead of being retried.
func (c *filterCache) compile(pattern string) (*regexp.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if re, ok := c.compiled[pattern]; ok {
		return re, nil
	}
	if err, ok := c.failed[pattern]; ok {
		return nil, err
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		err = fmt.Errorf("compile child filter pattern %q: %w", pattern, err)
		c.failed[pattern] = err
		return nil, err
	}
	c.compiled[pattern] = re
	return re, nil
}

// matchesAny reports whether candidate matches any pattern in any of
// the three rule sets, consulting cache for every pattern so a set
// with a bad pattern fails the whole evaluation (and therefore the
// job, per the caller's contract) rather than silently skipping it.
func matchesAny(cache *filterCache, candidate Candidate, filters *types.ChildFilterSet) (bool, error) {
	for _, pattern := range filters.Mime {
		re, err := cache.compile(pattern)
		if err != nil {
			return false, err
		}
		if re.MatchString(candidate.MimeType) {
			return true, nil
		}
	}
	for _, pattern := range filters.FileName {
		re, err := cache.compile(pattern)
		if err != nil {
			return false, err
		}
		if re.MatchString(candidate.FileName) {
			return true, nil
		}
	}
	for _, pattern := range filters.FileExtension {
		re, err := cache.compile(pattern)
		if err != nil {
			return false, err
		}
		if re.MatchString(candidate.FileExtension) {
			return true, nil
		}
	}
	return false, nil
}

// shouldSubmit implements the filter law: with submit_non_matches
// true, only children matching no rule are submitted; otherwise only
// children matching at least one rule are submitted. A nil filters
// set (the image declared none) submits everything.
func shouldSubmit(cache *filterCache, candidate Candidate, filters *types.ChildFilterSet) (bool, error) {
	if filters == nil {
		return true, nil
	}
	matched, err := matchesAny(cache, candidate, filters)
	if err != nil {
		return false, err
	}
	if filters.SubmitNonMatches {
		return !matched, nil
	}
	return matched, nil
}
