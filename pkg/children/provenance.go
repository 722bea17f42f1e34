package children

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog"

	"github.com/cuemby/thorium/pkg/types"
)

// PcapEntry is one child's sidecar metadata row: the flow the child
// was carved from.
type PcapEntry struct {
	SrcIP    string `json:"src_ip"`
	DestIP   string `json:"dest_ip"`
	SrcPort  *int   `json:"src_port"`
	DestPort *int   `json:"dest_port"`
	Proto    string `json:"proto"`
	URL      string `json:"url"`
}

// loadPcapSidecar reads the tool's thorium_pcap_metadata.json, keyed
// by child filename. A missing or unparseable sidecar yields an empty
// map rather than an error: carved-pcap provenance degrades to all
// optional fields unset, which is exactly what an empty lookup
// produces.
func loadPcapSidecar(path string) map[string]PcapEntry {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var sidecar map[string]PcapEntry
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil
	}
	return sidecar
}

// SourceProvenance describes one source-category child's repo origin.
type SourceProvenance struct {
	RepoURL           string
	OriginalCommitish string
	CheckedOutCommit  string
	BuildFlags        []string
	BuildSystem       string
}

// sourceExtensions marks a source child as a supporting file by
// extension alone; the executor's own build outputs are never
// classified this way.
var sourceExtensions = map[string]bool{".so": true}

// BuildSourceOrigin constructs the OriginRequest for a file copied
// from a checked-out repository.
func BuildSourceOrigin(p SourceProvenance, fileExtension string) types.OriginRequest {
	return types.OriginRequest{
		Kind:              types.OriginSource,
		RepoURL:           p.RepoURL,
		OriginalCommitish: p.OriginalCommitish,
		CheckedOutCommit:  p.CheckedOutCommit,
		BuildFlags:        p.BuildFlags,
		BuildSystem:       p.BuildSystem,
		IsSupportingFile:  sourceExtensions[fileExtension],
	}
}

// BuildUnpackedOrigin constructs the OriginRequest for a file an
// unpacking tool extracted from parentSHA256.
func BuildUnpackedOrigin(parentSHA256, toolName string) types.OriginRequest {
	return types.OriginRequest{
		Kind:         types.OriginUnpacked,
		ParentSHA256: parentSHA256,
		ToolName:     toolName,
	}
}

// BuildCarvedUnknownOrigin constructs the OriginRequest for a carved
// file whose protocol/container couldn't be identified.
func BuildCarvedUnknownOrigin(parentSHA256, toolName string) types.OriginRequest {
	return types.OriginRequest{
		Kind:         types.OriginCarvedUnknown,
		ParentSHA256: parentSHA256,
		ToolName:     toolName,
	}
}

// BuildCarvedPcapOrigin constructs the OriginRequest for a file carved
// out of network capture, looking fileName up in sidecar. A filename
// absent from sidecar (including a nil sidecar) logs and proceeds with
// every optional field unset.
func BuildCarvedPcapOrigin(parentSHA256, toolName, fileName string, sidecar map[string]PcapEntry, logger zerolog.Logger) types.OriginRequest {
	origin := types.OriginRequest{
		Kind:         types.OriginCarvedPcap,
		ParentSHA256: parentSHA256,
		ToolName:     toolName,
	}
	entry, ok := sidecar[fileName]
	if !ok {
		logger.Warn().Str("file", fileName).Msg("no pcap sidecar entry for carved child; submitting with no flow metadata")
		return origin
	}
	origin.SrcIP = entry.SrcIP
	origin.DestIP = entry.DestIP
	origin.SrcPort = entry.SrcPort
	origin.DestPort = entry.DestPort
	origin.Proto = entry.Proto
	origin.URL = entry.URL
	return origin
}
