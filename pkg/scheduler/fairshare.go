package scheduler

import (
	"github.com/cuemby/thorium/pkg/types"
)

// runFairshare spends up to budget spawns: users ordered ascending by
// running-job count get first pick, then each user's own requisitions
// are ordered ascending by running count, so the least-served user and
// stage combination in the cluster is filled first. A requisition is
// skipped once its image's spawn_limit or its scaler's node pool is
// exhausted; the unspent remainder is reported back for the metrics
// gauge.
func runFairshare(snap *snapshot, plan *allocationPlan, budget int) (spent int) {
	if budget <= 0 {
		return 0
	}

	for spent < budget {
		progressed := false
		for _, user := range sortedUsersByRunningCount(snap) {
			if spent >= budget {
				break
			}
			req, ok := nextFairshareReq(snap, plan, user)
			if !ok {
				continue
			}
			if spawnOne(snap, plan, req, reqScaler(snap, req)) {
				spent++
				progressed = true
			}
		}
		if !progressed {
			break // no user has any spawnable demand left this round
		}
	}
	return spent
}

// nextFairshareReq picks user's least-served requisition that still
// has room under its spawn_limit and isn't banned.
func nextFairshareReq(snap *snapshot, plan *allocationPlan, user string) (requisition, bool) {
	for _, req := range sortedReqsByRunningCount(snap, snap.createdByUser[user]) {
		if banned(snap, req) {
			continue
		}
		if plan.spawnedByReq[req] >= spawnLimit(snap, req) {
			continue
		}
		if plan.spawnedByReq[req] >= snap.createdByUser[user][req] {
			continue // already planned a spawn for every outstanding job here
		}
		return req, true
	}
	return requisition{}, false
}

func reqScaler(snap *snapshot, req requisition) types.ScalerKind {
	if img := snap.images[req]; img != nil {
		return img.Scaler
	}
	return ""
}

// spawnOne picks a node for scaler and, if one is available, adds a
// planned spawn for req. Returns false (no-op) if the scaler has no
// schedulable node left, which leaves budget unspent rather than
// stalling the whole pass.
func spawnOne(snap *snapshot, plan *allocationPlan, req requisition, scaler types.ScalerKind) bool {
	node := snap.pickNode(scaler, plan)
	if node == nil {
		return false
	}
	plan.add(req, node)
	return true
}
