package executor

import (
	"fmt"
	"strings"

	"github.com/cuemby/thorium/pkg/types"
)

// Tags derives auto-tags from a completed job's results document per
// the image's OutputCollection.AutoTag rules. A rule whose Field is
// absent from the document never matches, even under the "exists"
// logic — existence is evaluated against the document, not the rule.
func Tags(image *types.Image, results *types.RawResults) map[string][]string {
	out := make(map[string][]string)
	if results == nil || results.Document == nil {
		return out
	}

	for key, rule := range image.OutputCollection.AutoTag {
		value, present := results.Document[rule.Field]
		switch rule.Logic {
		case types.AutoTagExists:
			if present {
				out[key] = append(out[key], rule.Value)
			}
		case types.AutoTagEquals:
			if present && toString(value) == rule.Value {
				out[key] = append(out[key], rule.Value)
			}
		case types.AutoTagContains:
			if present && strings.Contains(toString(value), rule.Value) {
				out[key] = append(out[key], rule.Value)
			}
		}
	}
	return out
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
