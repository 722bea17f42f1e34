package types

import (
	"net"
	"time"
)

// User is a principal that can own groups, submit reactions, and own
// API tokens. Authentication mode is per-user: either a locally hashed
// password or delegation to the directory service.
type User struct {
	Username     string
	Email        string
	Role         Role
	Groups       map[string]GroupRole // group name -> role within that group
	LocalAuth    bool                 // true: password hash stored locally, false: directory-service bind
	PasswordHash string               // argon2id hash, empty when LocalAuth is false
	PasswordSalt []byte
	TokenHash    string // sha256 of the current bearer token, empty if never issued
	TokenExpires time.Time
	VerifiedAt   time.Time // zero value means email not yet verified
	CreatedAt    time.Time
}

// Role is the cluster-wide privilege level of a User.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleAnalyst   Role = "analyst"
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
)

// GroupRole is a User's privilege level within one Group, which may be
// lower than their cluster-wide Role but never higher.
type GroupRole string

const (
	GroupRoleOwner GroupRole = "owner"
	GroupRoleUser  GroupRole = "user"
	GroupRoleMonitor GroupRole = "monitor"
)

// Group is a tenancy boundary: images, pipelines, reactions, and
// samples are all owned by exactly one group, and cross-group access
// requires an explicit member entry.
type Group struct {
	Name        string
	Description string
	Members     map[string]GroupRole // username -> role
	CreatedAt   time.Time
}

// Image names an agent-executable unit: a scaler backend, the command
// line used to invoke it, and the resource footprint the scheduler
// reserves for it.
type Image struct {
	Name             string
	Group            string
	Version          string
	Scaler           ScalerKind
	Command          []string
	Dependencies     []Dependency
	Resources        ResourceRequirements
	Env              map[string]string
	Timeout          time.Duration
	SpawnLimit       int    // max workers the scheduler may spawn for this image in one cycle
	SecurityTag      string // opaque tag checked against SystemSettings.HostPathWhitelist
	OutputCollection OutputCollection
	ChildFilters     *ChildFilterSet // nil: every discovered child is submitted
	Banned           bool
	CreatedAt        time.Time
}

// Dependency is one input or output an image's command line references
// by templated slot name; the executor harness resolves it to local
// paths before building the argv.
type Dependency struct {
	Kind         DependencyKind
	Slot         string // templated argument placeholder this dependency fills
	PassStrategy DependencyPassStrategy
}

// DependencyKind names what a Dependency resolves to.
type DependencyKind string

const (
	DependencySamples         DependencyKind = "samples"
	DependencyEphemeral       DependencyKind = "ephemeral"
	DependencyParentEphemeral DependencyKind = "parent_ephemeral"
	DependencyRepos           DependencyKind = "repos"
	DependencyResults         DependencyKind = "results"
	DependencyTags            DependencyKind = "tags"
	DependencyChildren        DependencyKind = "children"
)

// DependencyPassStrategy is how a Dependency's resolved local paths are
// substituted into a templated argument slot.
type DependencyPassStrategy string

const (
	PassPaths     DependencyPassStrategy = "paths"     // one argument per path
	PassNames     DependencyPassStrategy = "names"     // one argument per base filename
	PassDirectory DependencyPassStrategy = "directory" // single argument, the containing directory
	PassDisabled  DependencyPassStrategy = "disabled"  // dependency is downloaded but never templated in
)

// OutputCollection describes where an image writes the artifacts the
// harness collects after the command exits.
type OutputCollection struct {
	Children    string // root directory child artifacts are written under
	Groups      []string
	ResultFiles []string // exact file paths, relative to the results root
	AutoTag     map[string]AutoTagRule
	Tags        bool // whether to download the reaction's accumulated tags as a dependency
}

// AutoTagRule derives one tag from a job's raw results document.
type AutoTagRule struct {
	Logic AutoTagLogic
	Field string // dot-separated path into the results document
	Value string // compared value; unused for AutoTagExists
}

// AutoTagLogic is how an AutoTagRule evaluates a results document field.
type AutoTagLogic string

const (
	AutoTagEquals   AutoTagLogic = "equals"
	AutoTagExists   AutoTagLogic = "exists"
	AutoTagContains AutoTagLogic = "contains"
)

// ChildFilterSet is an image's child-submission filter: three
// independently matched regex sets plus the submit_non_matches
// inversion flag.
type ChildFilterSet struct {
	Mime             []string
	FileName         []string
	FileExtension    []string
	SubmitNonMatches bool
}

// RawResults is the bundle the harness packages after a job's command
// exits: the declared result files' bytes, plus the parsed JSON
// document (if any result file parses as JSON) auto-tagging runs
// against.
type RawResults struct {
	Files    map[string][]byte
	Document map[string]interface{}
}

// SampleRequest is what the child pipeline submits for one discovered
// child artifact.
type SampleRequest struct {
	Path         string
	Groups       []string
	Origin       OriginRequest
	TriggerDepth int
	Tags         map[string][]string
}

// ScalerKind is the backend an agent executor runs under.
type ScalerKind string

const (
	ScalerK8s       ScalerKind = "k8s"
	ScalerBareMetal ScalerKind = "bare_metal"
	ScalerWindows   ScalerKind = "windows"
	ScalerExternal  ScalerKind = "external"
	ScalerKvm       ScalerKind = "kvm"
)

// ResourceRequirements bounds what one running job of an Image may
// consume.
type ResourceRequirements struct {
	CPUMillis   int64
	MemoryBytes int64
	DiskBytes   int64
}

// Pipeline orders a set of Images into stages; a Reaction is one
// instantiation of a Pipeline against a set of samples.
type Pipeline struct {
	Name        string
	Group       string
	Description string
	Order       [][]string // stage index -> image names runnable in that stage
	SLA         time.Duration
	Triggers    []string // image/tag triggers that auto-create reactions
	Banned      bool
	CreatedAt   time.Time
}

// Reaction is one run of a Pipeline. Reactions form a tree: a parent
// reaction's jobs may spawn child reactions (sub-reactions), and a
// generator job may put its own reaction back to Sleeping until more
// input arrives.
type Reaction struct {
	ID            string
	Group         string
	Pipeline      string
	Creator       string
	Status        ReactionStatus
	CurrentStage  int
	StageCount    int
	Samples       []string
	Repos         []string
	Tags          map[string][]string
	Args          map[string][]string
	Parent        string // reaction ID, empty for a root reaction
	TriggerDepth  int
	SLA           time.Duration
	Deadline      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	StageLogs     []StageLogLine
}

// ReactionStatus is the lifecycle state of a Reaction.
type ReactionStatus string

const (
	ReactionCreated   ReactionStatus = "created"
	ReactionStarted   ReactionStatus = "started"
	ReactionRunning   ReactionStatus = "running"
	ReactionSleeping  ReactionStatus = "sleeping"
	ReactionCompleted ReactionStatus = "completed"
	ReactionFailed    ReactionStatus = "failed"
)

// StageLogLine is one progress or error message emitted by a stage of
// a Reaction, in append order.
type StageLogLine struct {
	Index     uint64
	Stage     string
	Line      string
	Code      int
	Timestamp time.Time
}

// RawJob is one unit of scheduled work: one Image running against one
// Reaction's current stage. Jobs are the unit the scheduler claims,
// runs, and completes or fails.
type RawJob struct {
	ID                    string
	Group                 string
	Pipeline              string
	Stage                 string
	Image                 string
	Scaler                ScalerKind // backend the job's image runs under; keys its deadline/running streams
	Creator               string     // reaction's creator, carried onto each job for fairshare accounting
	ReactionID            string
	Status                JobStatus
	Worker                string
	Args                  map[string][]string
	Samples               []string
	Ephemeral             map[string][]byte
	Repos                 []string
	Generator             bool
	TriggerDepth          int
	CurrentStageProgress  int
	CurrentStageLength    int
	Deadline              time.Time
	CreatedAt             time.Time
	StartedAt             time.Time
	FinishedAt            time.Time
}

// JobStatus is the lifecycle state of a RawJob.
type JobStatus string

const (
	JobCreated   JobStatus = "created"
	JobRunning   JobStatus = "running"
	JobSleeping  JobStatus = "sleeping"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Worker is one agent executor process, identified by the node it
// runs on and the scaler backend it serves.
type Worker struct {
	Name        string
	Group       string
	Scaler      ScalerKind
	Node        string
	CurrentJob  string
	Status      WorkerStatus
	LastCheckin time.Time
	CreatedAt   time.Time
}

// WorkerStatus is the liveness state of a Worker.
type WorkerStatus string

const (
	WorkerSpawned WorkerStatus = "spawned"
	WorkerRunning WorkerStatus = "running"
	WorkerStopped WorkerStatus = "stopped"
)

// Node is one host available to a scaler, with its whitelisted host
// paths and banned images; the consistency scan does not read or
// change either list.
type Node struct {
	Name           string
	Cluster        string
	Address        net.IP
	Resources      ResourceRequirements
	Allocated      ResourceRequirements
	HostPaths      []string // whitelisted bind-mount source paths
	BannedImages   []string
	Heartbeat      time.Time
	CreatedAt      time.Time
}

// Sample is an uploaded artifact under analysis. Bytes live in object
// storage; Sample only carries metadata and provenance.
type Sample struct {
	SHA256      string
	Group       []string
	Name        string
	Description string
	MimeType    string
	Size        int64
	Origin      OriginRequest
	Tags        map[string][]string
	Submitter   string
	CreatedAt   time.Time
}

// OriginRequest records why a Sample exists: a direct user upload or
// one of the automated provenance kinds the child pipeline produces.
// Only the fields relevant to Kind are meaningful; the rest are zero
// value.
type OriginRequest struct {
	Kind           OriginKind
	ParentSHA256   string // unpacked, carved_pcap, carved_unknown
	ReactionID     string
	ToolName       string // unpacked, carved_pcap, carved_unknown
	PcapBlockIndex int

	// source
	RepoURL           string
	OriginalCommitish string
	CheckedOutCommit  string
	BuildFlags        []string
	BuildSystem       string
	IsSupportingFile  bool

	// carved_pcap, looked up from the tool's sidecar metadata file;
	// left zero and logged, not errored, when the sidecar has no entry
	// for the child's filename.
	SrcIP    string
	DestIP   string
	SrcPort  *int
	DestPort *int
	Proto    string
	URL      string
}

// OriginKind enumerates the ways a Sample enters the system.
type OriginKind string

const (
	OriginSource         OriginKind = "source"
	OriginUnpacked       OriginKind = "unpacked"
	OriginCarvedPcap     OriginKind = "carved_pcap"
	OriginCarvedUnknown  OriginKind = "carved_unknown"
)

// Repo is a version-controlled code repository tracked the same way
// a Sample is, keyed by URL rather than hash.
type Repo struct {
	URL         string
	Group       []string
	Description string
	Tags        map[string][]string
	Submitter   string
	CreatedAt   time.Time
}

// Commitish is one resolved commit, branch head, or tag of a Repo.
type Commitish struct {
	RepoURL string
	Kind    string // "commit", "branch", "tag"
	Value   string
	Hash    string
}

// Comment is freeform, group-scoped annotation attached to a Sample
// or Repo.
type Comment struct {
	ID        string
	Target    string // sample SHA256 or repo URL
	Group     string
	Author    string
	Body      string
	CreatedAt time.Time
}

// Tag is a key/value label attached to a Sample, Repo, or Reaction,
// optionally with an expiry.
type Tag struct {
	Target  string
	Group   string
	Key     string
	Value   string
	Expires time.Time
}

// Result is one tool's structured output against a Sample or Repo,
// scoped to the group that produced it.
type Result struct {
	ID         string
	Target     string
	Group      string
	Tool       string
	ReactionID string
	Data       []byte // tool-defined encoding, usually JSON
	CreatedAt  time.Time
}

// NetworkPolicy bounds what network access an Image's jobs are
// permitted, enforced by the scaler backend at worker-spawn time.
type NetworkPolicy struct {
	Name        string
	Group       string
	AllowedCIDRs []string
	DenyAll      bool
	CreatedAt    time.Time
}

// SystemSettings holds the cluster-wide scheduling knobs: the two
// spawn budgets the scheduler allocates from each cycle, and the
// heartbeat interval beyond which a worker is considered dead and its
// job reclaimed. HostPathWhitelist and AllowUnrestrictedHostPaths feed
// the consistency scan's image-ban reconciliation.
type SystemSettings struct {
	FairsharePool              int
	ReservedPool               int
	HeartbeatInterval          time.Duration
	HostPathWhitelist          []string
	AllowUnrestrictedHostPaths bool
}

// DefaultSystemSettings returns the settings a fresh cluster starts
// with: a modest fairshare pool, no reserved pool, and a 30-second
// heartbeat window.
func DefaultSystemSettings() SystemSettings {
	return SystemSettings{
		FairsharePool:     100,
		ReservedPool:      0,
		HeartbeatInterval: 30 * time.Second,
	}
}
