package children

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectGroupsUnionsParentsWhenImageDeclaresNone(t *testing.T) {
	got := SelectGroups([]string{"corn", "malware"}, []string{"corn", "research"}, nil)
	sort.Strings(got)
	assert.Equal(t, []string{"corn", "malware", "research"}, got)
}

func TestSelectGroupsIntersectsWithImageGroups(t *testing.T) {
	got := SelectGroups([]string{"corn", "malware"}, []string{"research"}, []string{"malware", "research", "unrelated"})
	sort.Strings(got)
	assert.Equal(t, []string{"malware", "research"}, got)
}

func TestSelectGroupsEmptyWhenNoOverlap(t *testing.T) {
	got := SelectGroups([]string{"corn"}, nil, []string{"malware"})
	assert.Empty(t, got)
}
