//go:build windows

package collector

import "github.com/nhdewitt/sysprobe/internal/protocol"

// ReadCPUInfo is not available on Windows, which has no descriptor file.
func ReadCPUInfo(_ string) ([]CPUInfoResult, error) {
	return nil, ErrUnsupportedOnPlatform
}

func ReadCPUTopology(_ string) (protocol.CPUTopology, error) {
	return protocol.CPUTopology{}, ErrUnsupportedOnPlatform
}
