package scheduler

import (
	"context"

	"github.com/cuemby/thorium/pkg/types"
)

// SpawnRequest describes one worker the scheduler has decided to
// bring up: which scaler backend owns it, which node it lands on, and
// which (group, pipeline, stage) requisition it was spawned to serve.
type SpawnRequest struct {
	Name     string
	Group    string
	Pipeline string
	Stage    string
	Image    string
	Scaler   types.ScalerKind
	Node     string
}

// WorkerDriver is the abstract backend the scheduler's apply phase
// talks to in order to actually bring a worker process up or tear it
// down. This module ships no implementation of it; New takes one from
// its caller, and the scheduler itself
// never talks to a concrete container runtime or hypervisor, matching
// spec's framing of the scheduler-to-agent transport as an abstract
// backend rather than a fixed RPC mechanism.
type WorkerDriver interface {
	// Spawn brings up the worker named req.Name. It must be idempotent:
	// calling it twice with the same name is not an error.
	Spawn(ctx context.Context, req SpawnRequest) error

	// Delete tears down the worker named name. Deleting an
	// already-gone worker is not an error.
	Delete(ctx context.Context, name string) error
}
