//go:build !windows

package collector

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nhdewitt/sysprobe/internal/protocol"
)

// ReadCPUInfo reads <procRoot>/cpuinfo and converts every block
// independently.
func ReadCPUInfo(procRoot string) ([]CPUInfoResult, error) {
	path := filepath.Join(procRoot, "cpuinfo")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	blocks, err := ParseCPUInfoFrom(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return BuildCPUInfo(blocks), nil
}

// ReadCPUTopology reads <procRoot>/cpuinfo and fails if any block is
// invalid.
func ReadCPUTopology(procRoot string) (protocol.CPUTopology, error) {
	results, err := ReadCPUInfo(procRoot)
	if err != nil {
		return protocol.CPUTopology{}, err
	}
	return TopologyFrom(results)
}
