package scheduler

import (
	"github.com/cuemby/thorium/pkg/controlplane"
	"github.com/cuemby/thorium/pkg/types"
)

// runConsistencyScan recomputes image bans from the host-path
// whitelist and then propagates those bans up to any pipeline that
// references a banned image, persisting only the rows that actually
// changed. It runs every cycle rather than only on a settings change
// notification since nothing here is expensive enough to warrant a
// separate trigger path, and running it unconditionally means a ban
// introduced by hand-editing an image row is picked up too.
func runConsistencyScan(store *controlplane.Store, settings *types.SystemSettings) error {
	images, err := store.ListImages()
	if err != nil {
		return err
	}

	bannedImages := make(map[string]bool) // "group/name"
	for _, img := range images {
		want := imageShouldBeBanned(img, settings)
		if want == img.Banned {
			if want {
				bannedImages[img.Group+"/"+img.Name] = true
			}
			continue
		}
		img.Banned = want
		if err := store.UpdateImage(img); err != nil {
			return err
		}
		if want {
			bannedImages[img.Group+"/"+img.Name] = true
		}
	}

	pipelines, err := store.ListPipelines()
	if err != nil {
		return err
	}
	for _, p := range pipelines {
		want := pipelineShouldBeBanned(p, bannedImages)
		if want == p.Banned {
			continue
		}
		p.Banned = want
		if err := store.UpdatePipeline(p); err != nil {
			return err
		}
	}
	return nil
}

// imageShouldBeBanned reports whether img's security tag falls
// outside the cluster's host-path whitelist. An image with no
// security tag never touches a host path and is never banned on this
// basis; AllowUnrestrictedHostPaths disables the check cluster-wide.
func imageShouldBeBanned(img *types.Image, settings *types.SystemSettings) bool {
	if settings.AllowUnrestrictedHostPaths || img.SecurityTag == "" {
		return false
	}
	for _, allowed := range settings.HostPathWhitelist {
		if allowed == img.SecurityTag {
			return false
		}
	}
	return true
}

// pipelineShouldBeBanned reports whether any image referenced by any
// stage of p is banned.
func pipelineShouldBeBanned(p *types.Pipeline, bannedImages map[string]bool) bool {
	for _, stage := range p.Order {
		for _, imageName := range stage {
			if bannedImages[p.Group+"/"+imageName] {
				return true
			}
		}
	}
	return false
}
