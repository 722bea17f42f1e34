/*
Package types defines the core data structures shared across Thorium.

It has no behavior of its own: every other package imports types for
its domain model (User, Group, Image, Pipeline, Reaction, RawJob,
Worker, Node, Sample, Repo, Commitish, Comment, Tag, Result,
NetworkPolicy) and layers storage, scheduling, and execution logic on
top of plain structs here.

Enums follow the typed-string-constant pattern used everywhere else in
this module:

	type JobStatus string
	const (
		JobCreated JobStatus = "created"
		JobRunning JobStatus = "running"
	)

Optional relationships use zero values rather than pointers where the
zero value is unambiguous (Reaction.Parent == "" means a root
reaction; Sample.CreatedAt is always set). Mutation is the caller's
responsibility; pkg/controlplane and pkg/bulkstore own the only copies
that require synchronization.
*/
package types
