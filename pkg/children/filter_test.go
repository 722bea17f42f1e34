package children

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/thorium/pkg/types"
)

func TestShouldSubmitNilFiltersSubmitsEverything(t *testing.T) {
	cache := newFilterCache()
	ok, err := shouldSubmit(cache, Candidate{FileName: "anything.bin"}, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestShouldSubmitMatchAnyModeSubmitsOnlyMatches(t *testing.T) {
	cache := newFilterCache()
	filters := &types.ChildFilterSet{FileExtension: []string{`\.exe$`}}

	match, err := shouldSubmit(cache, Candidate{FileName: "a.exe", FileExtension: ".exe"}, filters)
	require.NoError(t, err)
	assert.True(t, match)

	noMatch, err := shouldSubmit(cache, Candidate{FileName: "a.txt", FileExtension: ".txt"}, filters)
	require.NoError(t, err)
	assert.False(t, noMatch)
}

func TestShouldSubmitNonMatchesModeInvertsMatch(t *testing.T) {
	cache := newFilterCache()
	filters := &types.ChildFilterSet{FileExtension: []string{`\.exe$`}, SubmitNonMatches: true}

	matched, err := shouldSubmit(cache, Candidate{FileName: "a.exe", FileExtension: ".exe"}, filters)
	require.NoError(t, err)
	assert.False(t, matched, "a matching file must not be submitted in submit_non_matches mode")

	unmatched, err := shouldSubmit(cache, Candidate{FileName: "a.txt", FileExtension: ".txt"}, filters)
	require.NoError(t, err)
	assert.True(t, unmatched)
}

func TestShouldSubmitChecksAllThreeRuleSets(t *testing.T) {
	cache := newFilterCache()
	filters := &types.ChildFilterSet{Mime: []string{`^application/zip$`}}

	ok, err := shouldSubmit(cache, Candidate{MimeType: "application/zip", FileExtension: ".bin"}, filters)
	require.NoError(t, err)
	assert.True(t, ok, "a mime-rule match should submit even though the extension never matched")
}

func TestCompilePatternFailureIsMemoizedAndPropagated(t *testing.T) {
	cache := newFilterCache()
	filters := &types.ChildFilterSet{FileName: []string{"("}} // invalid regex

	_, err := shouldSubmit(cache, Candidate{FileName: "a"}, filters)
	require.Error(t, err)

	_, err2 := shouldSubmit(cache, Candidate{FileName: "b"}, filters)
	require.Error(t, err2)
	assert.Equal(t, err.Error(), err2.Error(), "a failed pattern should fail identically on every lookup")
}

func TestFilterCacheReusesCompiledPattern(t *testing.T) {
	cache := newFilterCache()
	filters := &types.ChildFilterSet{FileName: []string{`^sample`}}

	_, err := shouldSubmit(cache, Candidate{FileName: "sample1"}, filters)
	require.NoError(t, err)
	_, err = shouldSubmit(cache, Candidate{FileName: "sample2"}, filters)
	require.NoError(t, err)

	assert.Len(t, cache.compiled, 1)
}
