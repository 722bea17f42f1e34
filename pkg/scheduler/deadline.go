package scheduler

import (
	"sort"
)

// runDeadline spends up to budget spawns on whatever requisition has
// the earliest job deadline overall, ignoring which user owns it; this
// is the pass that keeps an SLA-bound reaction from starving behind a
// large, evenly-spread tenant under the fairshare pass alone. A
// requisition already at its spawn_limit (including spawns the
// fairshare pass already made this cycle) is skipped.
func runDeadline(snap *snapshot, plan *allocationPlan, budget int) (spent int) {
	if budget <= 0 {
		return 0
	}

	reqs := make([]requisition, 0, len(snap.totalCreatedByReq))
	for req := range snap.totalCreatedByReq {
		reqs = append(reqs, req)
	}
	sort.Slice(reqs, func(i, j int) bool {
		di, dj := snap.earliestDeadlineReq[reqs[i]], snap.earliestDeadlineReq[reqs[j]]
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return reqs[i].Image < reqs[j].Image
	})

	for _, req := range reqs {
		if spent >= budget {
			break
		}
		if banned(snap, req) {
			continue
		}
		for spent < budget &&
			plan.spawnedByReq[req] < spawnLimit(snap, req) &&
			plan.spawnedByReq[req] < snap.totalCreatedByReq[req] {

			if !spawnOne(snap, plan, req, reqScaler(snap, req)) {
				break // scaler's node pool is exhausted, move to the next requisition
			}
			spent++
		}
	}
	return spent
}
