package children

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/thorium/pkg/types"
)

func TestBuildSourceOriginMarksSupportingFileByExtension(t *testing.T) {
	origin := BuildSourceOrigin(SourceProvenance{RepoURL: "https://example.com/r.git"}, ".so")
	assert.True(t, origin.IsSupportingFile)
	assert.Equal(t, types.OriginSource, origin.Kind)

	notSupporting := BuildSourceOrigin(SourceProvenance{}, ".c")
	assert.False(t, notSupporting.IsSupportingFile)
}

func TestBuildCarvedPcapOriginUsesSidecarEntry(t *testing.T) {
	port := 443
	sidecar := map[string]PcapEntry{
		"flow1.bin": {SrcIP: "10.0.0.1", DestIP: "10.0.0.2", DestPort: &port, Proto: "tcp"},
	}
	origin := BuildCarvedPcapOrigin("deadbeef", "pcap-tool", "flow1.bin", sidecar, zerolog.Nop())
	assert.Equal(t, "10.0.0.1", origin.SrcIP)
	assert.Equal(t, 443, *origin.DestPort)
}

func TestBuildCarvedPcapOriginMissingEntryLeavesFieldsZero(t *testing.T) {
	origin := BuildCarvedPcapOrigin("deadbeef", "pcap-tool", "unknown.bin", nil, zerolog.Nop())
	assert.Empty(t, origin.SrcIP)
	assert.Nil(t, origin.DestPort)
	assert.Equal(t, "deadbeef", origin.ParentSHA256)
}

func TestLoadPcapSidecarParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, pcapSidecarName)
	port := 80
	data, err := json.Marshal(map[string]PcapEntry{"a.bin": {SrcIP: "1.1.1.1", SrcPort: &port}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	sidecar := loadPcapSidecar(path)
	require.Len(t, sidecar, 1)
	assert.Equal(t, "1.1.1.1", sidecar["a.bin"].SrcIP)
}

func TestLoadPcapSidecarMissingFileReturnsNil(t *testing.T) {
	sidecar := loadPcapSidecar(filepath.Join(t.TempDir(), "missing.json"))
	assert.Nil(t, sidecar)
}
