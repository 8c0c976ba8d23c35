//go:build !linux && !windows

package collector

import "github.com/nhdewitt/sysprobe/internal/protocol"

// NetDevSource has no /proc/net/dev to read outside Linux.
type NetDevSource struct {
	ProcRoot string
}

func (NetDevSource) ReadAll() (map[string]protocol.NetIOCounters, error) {
	return nil, ErrUnsupportedOnPlatform
}

func (NetDevSource) ReadInterface(_ string) (map[string]protocol.NetIOCounters, error) {
	return nil, ErrUnsupportedOnPlatform
}

func ReadInterfaceInfo(_, _ string) InterfaceInfo {
	return InterfaceInfo{}
}
