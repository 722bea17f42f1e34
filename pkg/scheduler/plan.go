package scheduler

import (
	"sort"

	"github.com/cuemby/thorium/pkg/types"
)

// plannedSpawn is one worker the allocation passes have decided to
// bring up, not yet applied to the cluster.
type plannedSpawn struct {
	req  requisition
	node *types.Node
}

// allocationPlan accumulates the spawns decided by the fairshare and
// deadline passes before applyPlan turns them into raft commands and
// driver calls. spawnedByReq caps both passes at each requisition's
// image spawn_limit; nodeLoad lets pickNode spread spawns evenly
// within one cycle.
type allocationPlan struct {
	spawns      []plannedSpawn
	spawnedByReq map[requisition]int
	nodeLoad    map[string]int
}

func newAllocationPlan() *allocationPlan {
	return &allocationPlan{
		spawnedByReq: make(map[requisition]int),
		nodeLoad:     make(map[string]int),
	}
}

func (p *allocationPlan) add(req requisition, node *types.Node) {
	p.spawns = append(p.spawns, plannedSpawn{req: req, node: node})
	p.spawnedByReq[req]++
	p.nodeLoad[node.Name]++
}

// sortedUsersByRunningCount returns users with outstanding demand,
// ascending by currently-running-job count, the "least served first"
// ordering both the fairshare and glossary's equitable-distribution
// goal call for.
func sortedUsersByRunningCount(snap *snapshot) []string {
	users := make([]string, 0, len(snap.createdByUser))
	for u := range snap.createdByUser {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if snap.runningByUser[users[i]] != snap.runningByUser[users[j]] {
			return snap.runningByUser[users[i]] < snap.runningByUser[users[j]]
		}
		return users[i] < users[j] // stable tie-break
	})
	return users
}

// sortedReqsByRunningCount orders one user's requisitions ascending by
// running count, favoring the least-served stage per spec §4.5 step 2.
func sortedReqsByRunningCount(snap *snapshot, demand map[requisition]int) []requisition {
	reqs := make([]requisition, 0, len(demand))
	for r := range demand {
		reqs = append(reqs, r)
	}
	sort.Slice(reqs, func(i, j int) bool {
		if snap.runningByReq[reqs[i]] != snap.runningByReq[reqs[j]] {
			return snap.runningByReq[reqs[i]] < snap.runningByReq[reqs[j]]
		}
		return reqs[i].Image < reqs[j].Image // stable tie-break
	})
	return reqs
}

// spawnLimit returns req's image's configured cap, defaulting to an
// unbounded-in-practice limit if the image never set one.
func spawnLimit(snap *snapshot, req requisition) int {
	img := snap.images[req]
	if img == nil || img.SpawnLimit <= 0 {
		return 1 << 30
	}
	return img.SpawnLimit
}

// banned reports whether req's image is banned outright or missing
// from the snapshot; node availability is checked by spawnOne.
func banned(snap *snapshot, req requisition) bool {
	img := snap.images[req]
	return img == nil || img.Banned
}
