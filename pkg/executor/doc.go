// Package executor implements the agent-side harness shared by every
// scaler backend: Setup, Execute, Results, Tags, Children, Cleanup. A
// concrete backend (pkg/executor/container, pkg/executor/kvm) only
// supplies the Backend implementation that actually spawns and waits
// on one unit of isolation; everything else — dependency staging,
// argv templating, result packaging, auto-tagging, and child
// submission — lives here so the six stages behave identically no
// matter which backend runs the job.
package executor
