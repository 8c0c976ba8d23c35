//go:build linux

package collector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nhdewitt/sysprobe/internal/protocol"
)

// netDevFields is the number of counters on each /proc/net/dev line.
const netDevFields = 16

// NetDevSource reads counters from <ProcRoot>/net/dev.
type NetDevSource struct {
	ProcRoot string
}

func (s NetDevSource) path() string {
	return filepath.Join(s.ProcRoot, "net", "dev")
}

// ReadAll returns the raw counters of every interface.
func (s NetDevSource) ReadAll() (map[string]protocol.NetIOCounters, error) {
	path := s.path()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseNetDevFrom(f, path)
}

// ReadInterface returns the raw counters of one interface only.
func (s NetDevSource) ReadInterface(name string) (map[string]protocol.NetIOCounters, error) {
	all, err := s.ReadAll()
	if err != nil {
		return nil, err
	}
	c, ok := all[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInterface, name)
	}
	return map[string]protocol.NetIOCounters{name: c}, nil
}

// parseNetDevFrom parses /proc/net/dev text. The first two lines are
// column headers. A malformed interface line fails the whole read.
func parseNetDevFrom(r io.Reader, source string) (map[string]protocol.NetIOCounters, error) {
	result := make(map[string]protocol.NetIOCounters)
	scanner := bufio.NewScanner(r)

	for lineNo := 0; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		if lineNo < 2 || strings.TrimSpace(line) == "" {
			continue
		}

		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			return nil, &ParseError{Path: source, Contents: line, Err: fmt.Errorf("line %d: missing interface separator", lineNo+1)}
		}

		iface := strings.TrimSpace(name)
		values := strings.Fields(rest)
		if len(values) < netDevFields {
			return nil, &ParseError{Path: source, Contents: line, Err: fmt.Errorf("want %d fields, got %d", netDevFields, len(values))}
		}

		var err error
		parse := makeUintParser(values, source+":"+iface, &err)

		// 0: bytes_in, 1: packets_in, 2: errs_in, 3: drops_in
		// 8: bytes_out, 9: packets_out, 10: errs_out, 11: drops_out
		c := protocol.NetIOCounters{
			BytesRecv:   parse(0),
			PacketsRecv: parse(1),
			ErrIn:       parse(2),
			DropIn:      parse(3),
			BytesSent:   parse(8),
			PacketsSent: parse(9),
			ErrOut:      parse(10),
			DropOut:     parse(11),
		}
		if err != nil {
			return nil, err
		}

		result[iface] = c
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return result, nil
}

// ReadInterfaceInfo reads MAC, MTU and link speed from
// <sysRoot>/class/net/<iface>/. Missing files leave fields zero.
func ReadInterfaceInfo(sysRoot, iface string) InterfaceInfo {
	dir := filepath.Join(sysRoot, "class", "net", iface)
	return InterfaceInfo{
		MAC:   strings.ToUpper(readSysfsString(filepath.Join(dir, "address"))),
		MTU:   uint32(readSysfsUint(filepath.Join(dir, "mtu"), 32)),
		Speed: readSysfsUint(filepath.Join(dir, "speed"), 64) * 1_000_000,
	}
}

func readSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readSysfsUint returns 0 for missing or non-numeric files. Link speed
// reads as -1 on a down interface, which also yields 0.
func readSysfsUint(path string, bitSize int) uint64 {
	v, err := strconv.ParseUint(readSysfsString(path), 10, bitSize)
	if err != nil {
		return 0
	}
	return v
}
