// Scheduling cycle, every 5 seconds on the raft leader only:
//
//  1. Snapshot: read every Created/Running job, the node and worker
//     tables, and SystemSettings from already-applied state.
//  2. Reap: delete any worker whose heartbeat has gone stale, bulk
//     resetting its in-flight job first.
//  3. Fairshare pass: spend FairsharePool spawns across users ordered
//     by running-job count, then across each user's requisitions the
//     same way.
//  4. Deadline pass: spend ReservedPool spawns on whatever requisition
//     has the earliest job deadline overall.
//  5. Consistency scan: recompute image bans from the host-path
//     whitelist and propagate them to any pipeline that references a
//     banned image.
//  6. Apply: spawn a worker per planned allocation through the
//     WorkerDriver backend, then record it with a create_worker
//     command.
package scheduler
