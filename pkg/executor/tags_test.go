package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/thorium/pkg/types"
)

func TestTagsEqualsLogicMatchesExactValue(t *testing.T) {
	image := &types.Image{OutputCollection: types.OutputCollection{AutoTag: map[string]types.AutoTagRule{
		"verdict": {Logic: types.AutoTagEquals, Field: "verdict", Value: "malicious"},
	}}}
	results := &types.RawResults{Document: map[string]interface{}{"verdict": "malicious"}}

	tags := Tags(image, results)
	assert.Equal(t, []string{"malicious"}, tags["verdict"])
}

func TestTagsEqualsLogicSkipsMismatch(t *testing.T) {
	image := &types.Image{OutputCollection: types.OutputCollection{AutoTag: map[string]types.AutoTagRule{
		"verdict": {Logic: types.AutoTagEquals, Field: "verdict", Value: "malicious"},
	}}}
	results := &types.RawResults{Document: map[string]interface{}{"verdict": "benign"}}

	tags := Tags(image, results)
	assert.Empty(t, tags["verdict"])
}

func TestTagsExistsLogicIgnoresValue(t *testing.T) {
	image := &types.Image{OutputCollection: types.OutputCollection{AutoTag: map[string]types.AutoTagRule{
		"has_family": {Logic: types.AutoTagExists, Field: "family", Value: "yes"},
	}}}
	results := &types.RawResults{Document: map[string]interface{}{"family": "emotet"}}

	tags := Tags(image, results)
	assert.Equal(t, []string{"yes"}, tags["has_family"])
}

func TestTagsExistsLogicRequiresFieldPresent(t *testing.T) {
	image := &types.Image{OutputCollection: types.OutputCollection{AutoTag: map[string]types.AutoTagRule{
		"has_family": {Logic: types.AutoTagExists, Field: "family", Value: "yes"},
	}}}
	results := &types.RawResults{Document: map[string]interface{}{}}

	tags := Tags(image, results)
	assert.Empty(t, tags["has_family"])
}

func TestTagsContainsLogicMatchesSubstring(t *testing.T) {
	image := &types.Image{OutputCollection: types.OutputCollection{AutoTag: map[string]types.AutoTagRule{
		"packed": {Logic: types.AutoTagContains, Field: "notes", Value: "upx"},
	}}}
	results := &types.RawResults{Document: map[string]interface{}{"notes": "packed with upx 3.96"}}

	tags := Tags(image, results)
	assert.Equal(t, []string{"upx"}, tags["packed"])
}

func TestTagsNilDocumentReturnsEmptyMap(t *testing.T) {
	image := &types.Image{OutputCollection: types.OutputCollection{AutoTag: map[string]types.AutoTagRule{
		"x": {Logic: types.AutoTagExists, Field: "f", Value: "v"},
	}}}
	tags := Tags(image, &types.RawResults{})
	assert.Empty(t, tags)
}
