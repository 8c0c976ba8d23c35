package protocol

import "slices"

// CPUInfo is one logical processor as described by /proc/cpuinfo.
type CPUInfo struct {
	Processor       int      `json:"processor" yaml:"processor"`
	VendorID        string   `json:"vendor_id" yaml:"vendor_id"`
	Family          int      `json:"cpu_family" yaml:"cpu_family"`
	Model           int      `json:"model" yaml:"model"`
	ModelName       string   `json:"model_name" yaml:"model_name"`
	Stepping        int      `json:"stepping" yaml:"stepping"`
	Microcode       string   `json:"microcode" yaml:"microcode"`
	MHz             float64  `json:"cpu_mhz" yaml:"cpu_mhz"`
	CacheSizeKB     int      `json:"cache_size_kb" yaml:"cache_size_kb"`
	PhysicalID      int      `json:"physical_id" yaml:"physical_id"`
	Siblings        int      `json:"siblings" yaml:"siblings"`
	CoreID          int      `json:"core_id" yaml:"core_id"`
	Cores           int      `json:"cpu_cores" yaml:"cpu_cores"`
	APICID          int      `json:"apicid" yaml:"apicid"`
	InitialAPICID   int      `json:"initial_apicid" yaml:"initial_apicid"`
	FPU             bool     `json:"fpu" yaml:"fpu"`
	FPUException    bool     `json:"fpu_exception" yaml:"fpu_exception"`
	CPUIDLevel      int      `json:"cpuid_level" yaml:"cpuid_level"`
	WP              bool     `json:"wp" yaml:"wp"`
	Flags           []string `json:"flags" yaml:"flags"`
	VMXFlags        []string `json:"vmx_flags,omitempty" yaml:"vmx_flags,omitempty"` // nil when absent
	Bugs            []string `json:"bugs,omitempty" yaml:"bugs,omitempty"`           // nil when absent
	BogoMIPS        float64  `json:"bogomips" yaml:"bogomips"`
	CLFlushSize     int      `json:"clflush_size" yaml:"clflush_size"`
	CacheAlignment  int      `json:"cache_alignment" yaml:"cache_alignment"`
	PhysicalBits    int      `json:"address_bits_physical" yaml:"address_bits_physical"`
	VirtualBits     int      `json:"address_bits_virtual" yaml:"address_bits_virtual"`
	PowerManagement *string  `json:"power_management,omitempty" yaml:"power_management,omitempty"`
}

// HasFlag reports whether the processor advertises the given capability flag.
func (c CPUInfo) HasFlag(flag string) bool {
	return slices.Contains(c.Flags, flag)
}

// CPUTopology maps logical processor index to its CPUInfo.
//
// Records with equal PhysicalID and equal CoreID are hyper-thread siblings of
// one physical core. Records on different sockets never share a core even
// when their core ids collide.
type CPUTopology struct {
	cpus map[int]CPUInfo
	ids  []int // ascending
}

// NewCPUTopology indexes cpus by processor. A later record with the same
// processor index replaces an earlier one.
func NewCPUTopology(cpus []CPUInfo) CPUTopology {
	t := CPUTopology{cpus: make(map[int]CPUInfo, len(cpus))}
	for _, c := range cpus {
		t.cpus[c.Processor] = c
	}

	t.ids = make([]int, 0, len(t.cpus))
	for id := range t.cpus {
		t.ids = append(t.ids, id)
	}
	slices.Sort(t.ids)

	return t
}

// Processors returns the records ordered by processor index.
func (t CPUTopology) Processors() []CPUInfo {
	out := make([]CPUInfo, 0, len(t.ids))
	for _, id := range t.ids {
		out = append(out, t.cpus[id])
	}
	return out
}

// Processor returns the record for a logical processor index.
func (t CPUTopology) Processor(id int) (CPUInfo, bool) {
	c, ok := t.cpus[id]
	return c, ok
}

// PhysicalCount returns the number of distinct physical sockets.
func (t CPUTopology) PhysicalCount() int {
	seen := make(map[int]struct{})
	for _, c := range t.cpus {
		seen[c.PhysicalID] = struct{}{}
	}
	return len(seen)
}

// TotalPhysicalCores returns the number of distinct core ids across the
// whole machine. Core ids are only unique within a socket, so this
// under-counts on multi-socket hosts that reuse local numbering; use
// SocketCoreCount for those.
func (t CPUTopology) TotalPhysicalCores() int {
	seen := make(map[int]struct{})
	for _, c := range t.cpus {
		seen[c.CoreID] = struct{}{}
	}
	return len(seen)
}

// SocketCoreCount returns the number of distinct (physical id, core id)
// pairs.
func (t CPUTopology) SocketCoreCount() int {
	type coreKey struct {
		physicalID int
		coreID     int
	}
	seen := make(map[coreKey]struct{})
	for _, c := range t.cpus {
		seen[coreKey{c.PhysicalID, c.CoreID}] = struct{}{}
	}
	return len(seen)
}

// TotalLogicalCores returns the number of logical processors.
func (t CPUTopology) TotalLogicalCores() int {
	return len(t.cpus)
}

// ProcessorForCore returns the lowest processor index whose core id matches.
func (t CPUTopology) ProcessorForCore(coreID int) (int, bool) {
	for _, id := range t.ids {
		if t.cpus[id].CoreID == coreID {
			return id, true
		}
	}
	return 0, false
}

// GroupByCoreID groups processor indices by core id. Each list is ascending.
func (t CPUTopology) GroupByCoreID() map[int][]int {
	groups := make(map[int][]int)
	for _, id := range t.ids {
		core := t.cpus[id].CoreID
		groups[core] = append(groups[core], id)
	}
	return groups
}

// Frequencies returns the current MHz of every logical processor.
func (t CPUTopology) Frequencies() map[int]float64 {
	freq := make(map[int]float64, len(t.cpus))
	for id, c := range t.cpus {
		freq[id] = c.MHz
	}
	return freq
}
