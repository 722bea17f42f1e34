package executor

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cuemby/thorium/pkg/apierror"
	"github.com/cuemby/thorium/pkg/types"
)

// Results scans an image's declared result file set off disk and
// packages it into a RawResults. A file named result.json or
// results.json (the only two names recognized) is additionally
// parsed as the results document the Tags stage evaluates rules
// against; any other declared file is carried as an opaque blob.
func Results(image *types.Image, paths *Paths) (*types.RawResults, error) {
	raw := &types.RawResults{
		Files: make(map[string][]byte),
	}

	names := image.OutputCollection.ResultFiles
	if len(names) == 0 {
		return raw, nil
	}

	for _, name := range names {
		path := filepath.Join(paths.ResultsDir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, apierror.Wrapf(err, apierror.KindInternal, "read result file %s", name)
		}
		raw.Files[name] = data

		if name == "result.json" || name == "results.json" {
			var doc map[string]interface{}
			if err := json.Unmarshal(data, &doc); err != nil {
				return nil, apierror.Wrapf(err, apierror.KindBadRequest, "parse %s as results document", name)
			}
			raw.Document = doc
		}
	}

	return raw, nil
}
