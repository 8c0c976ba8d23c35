package collector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nhdewitt/sysprobe/internal/protocol"
)

// CPUInfoResult is the outcome of converting one descriptor block.
type CPUInfoResult struct {
	Info protocol.CPUInfo
	Err  error
}

// ParseCPUInfoFrom splits /proc/cpuinfo style text into one key/value map
// per block. Blocks are separated by blank lines; within a block the last
// occurrence of a key wins. Lines without a colon are ignored.
func ParseCPUInfoFrom(r io.Reader) ([]map[string]string, error) {
	var blocks []map[string]string
	current := make(map[string]string)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = make(map[string]string)
			}
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		current[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if len(current) > 0 {
		blocks = append(blocks, current)
	}

	return blocks, scanner.Err()
}

// BuildCPUInfo converts every block independently. A bad block yields a
// result with Err set and never affects its neighbours.
func BuildCPUInfo(blocks []map[string]string) []CPUInfoResult {
	results := make([]CPUInfoResult, 0, len(blocks))
	for _, block := range blocks {
		info, err := NewCPUInfo(block)
		results = append(results, CPUInfoResult{Info: info, Err: err})
	}
	return results
}

// TopologyFrom builds a topology from results, failing on the first bad
// block.
func TopologyFrom(results []CPUInfoResult) (protocol.CPUTopology, error) {
	cpus := make([]protocol.CPUInfo, 0, len(results))
	for i, r := range results {
		if r.Err != nil {
			return protocol.CPUTopology{}, &BlockError{Index: i, Err: r.Err}
		}
		cpus = append(cpus, r.Info)
	}
	return protocol.NewCPUTopology(cpus), nil
}

// ParseCPUTopologyFrom parses and validates descriptor text in one step.
func ParseCPUTopologyFrom(r io.Reader) (protocol.CPUTopology, error) {
	blocks, err := ParseCPUInfoFrom(r)
	if err != nil {
		return protocol.CPUTopology{}, err
	}
	return TopologyFrom(BuildCPUInfo(blocks))
}

// NewCPUInfo converts one descriptor block into a CPUInfo. A missing
// required key returns a *MissingFieldError; a value of the wrong shape
// returns a *ParseError.
func NewCPUInfo(block map[string]string) (protocol.CPUInfo, error) {
	f := &cpuFields{block: block}

	info := protocol.CPUInfo{
		Processor:      f.uint("processor"),
		VendorID:       f.str("vendor_id"),
		Family:         f.uint("cpu family"),
		Model:          f.uint("model"),
		ModelName:      f.str("model name"),
		Stepping:       f.uint("stepping"),
		Microcode:      f.str("microcode"),
		MHz:            f.float("cpu MHz"),
		CacheSizeKB:    f.cacheSize("cache size"),
		PhysicalID:     f.uint("physical id"),
		Siblings:       f.uint("siblings"),
		CoreID:         f.uint("core id"),
		Cores:          f.uint("cpu cores"),
		APICID:         f.uint("apicid"),
		InitialAPICID:  f.uint("initial apicid"),
		FPU:            f.yesNo("fpu"),
		FPUException:   f.yesNo("fpu_exception"),
		CPUIDLevel:     f.uint("cpuid level"),
		WP:             f.yesNo("wp"),
		Flags:          f.list("flags"),
		VMXFlags:       f.optionalList("vmx flags"),
		Bugs:           f.optionalList("bugs"),
		BogoMIPS:       f.float("bogomips"),
		CLFlushSize:    f.uint("clflush size"),
		CacheAlignment: f.uint("cache_alignment"),
	}
	info.PhysicalBits, info.VirtualBits = f.addressSizes("address sizes")
	if pm, ok := block["power management"]; ok {
		info.PowerManagement = &pm
	}

	if f.err != nil {
		return protocol.CPUInfo{}, f.err
	}
	if info.Flags == nil {
		info.Flags = []string{}
	}
	return info, nil
}

// cpuFields looks up and converts block values, keeping the first error.
// Once an error is recorded every later lookup is a no-op.
type cpuFields struct {
	block map[string]string
	err   error
}

func (f *cpuFields) raw(key string) (string, bool) {
	if f.err != nil {
		return "", false
	}
	v, ok := f.block[key]
	if !ok {
		f.err = &MissingFieldError{Key: key}
		return "", false
	}
	return v, true
}

func (f *cpuFields) fail(key, contents string, err error) {
	f.err = &ParseError{Path: key, Contents: contents, Err: err}
}

func (f *cpuFields) str(key string) string {
	v, _ := f.raw(key)
	return v
}

func (f *cpuFields) uint(key string) int {
	v, ok := f.raw(key)
	if !ok {
		return 0
	}
	n, err := parseCount(v)
	if err != nil {
		f.fail(key, v, err)
		return 0
	}
	return n
}

func (f *cpuFields) float(key string) float64 {
	v, ok := f.raw(key)
	if !ok {
		return 0
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		f.fail(key, v, err)
		return 0
	}
	return n
}

func (f *cpuFields) yesNo(key string) bool {
	v, ok := f.raw(key)
	if !ok {
		return false
	}
	switch v {
	case "yes":
		return true
	case "no":
		return false
	}
	f.fail(key, v, errors.New(`want "yes" or "no"`))
	return false
}

func (f *cpuFields) list(key string) []string {
	if f.err != nil {
		return nil
	}
	return strings.Fields(f.block[key])
}

func (f *cpuFields) optionalList(key string) []string {
	if f.err != nil {
		return nil
	}
	v, ok := f.block[key]
	if !ok {
		return nil
	}
	fields := strings.Fields(v)
	if fields == nil {
		fields = []string{}
	}
	return fields
}

// cacheSize reads "<N> KB", using only the leading numeric token.
func (f *cpuFields) cacheSize(key string) int {
	v, ok := f.raw(key)
	if !ok {
		return 0
	}
	fields := strings.Fields(v)
	if len(fields) == 0 {
		f.fail(key, v, errors.New("empty value"))
		return 0
	}
	n, err := parseCount(fields[0])
	if err != nil {
		f.fail(key, v, err)
		return 0
	}
	return n
}

// addressSizes reads "<N> bits physical, <M> bits virtual".
func (f *cpuFields) addressSizes(key string) (physical, virtual int) {
	v, ok := f.raw(key)
	if !ok {
		return 0, 0
	}

	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		f.fail(key, v, fmt.Errorf("want 2 comma-separated parts, got %d", len(parts)))
		return 0, 0
	}

	physical, err := parseBits(parts[0], " bits physical")
	if err != nil {
		f.fail(key, v, err)
		return 0, 0
	}
	virtual, err = parseBits(parts[1], " bits virtual")
	if err != nil {
		f.fail(key, v, err)
		return 0, 0
	}
	return physical, virtual
}

func parseBits(part, suffix string) (int, error) {
	num, ok := strings.CutSuffix(strings.TrimSpace(part), suffix)
	if !ok {
		return 0, fmt.Errorf("missing %q suffix", strings.TrimSpace(suffix))
	}
	return parseCount(num)
}

// parseCount parses an unsigned decimal that fits in an int.
func parseCount(s string) (int, error) {
	n, err := strconv.ParseUint(s, 10, strconv.IntSize-1)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
