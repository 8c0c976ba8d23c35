package protocol

import (
	"reflect"
	"testing"
)

func cpu(processor, physical, core int, mhz float64) CPUInfo {
	return CPUInfo{Processor: processor, PhysicalID: physical, CoreID: core, MHz: mhz}
}

func TestCPUTopology_DualSocket(t *testing.T) {
	// Two sockets reusing local core ids 0 and 1, two threads each.
	topo := NewCPUTopology([]CPUInfo{
		cpu(0, 0, 0, 2000), cpu(1, 0, 1, 2000), cpu(2, 1, 0, 2100), cpu(3, 1, 1, 2100),
		cpu(4, 0, 0, 2000), cpu(5, 0, 1, 2000), cpu(6, 1, 0, 2100), cpu(7, 1, 1, 2100),
	})

	if got := topo.PhysicalCount(); got != 2 {
		t.Errorf("PhysicalCount() = %d, want 2", got)
	}
	if got := topo.TotalPhysicalCores(); got != 2 {
		t.Errorf("TotalPhysicalCores() = %d, want 2 distinct core ids", got)
	}
	if got := topo.SocketCoreCount(); got != 4 {
		t.Errorf("SocketCoreCount() = %d, want 4", got)
	}
	if got := topo.TotalLogicalCores(); got != 8 {
		t.Errorf("TotalLogicalCores() = %d, want 8", got)
	}

	want := map[int][]int{0: {0, 2, 4, 6}, 1: {1, 3, 5, 7}}
	if got := topo.GroupByCoreID(); !reflect.DeepEqual(got, want) {
		t.Errorf("GroupByCoreID() = %v, want %v", got, want)
	}

	if id, ok := topo.ProcessorForCore(1); !ok || id != 1 {
		t.Errorf("ProcessorForCore(1) = %d, %v; want 1", id, ok)
	}
	if _, ok := topo.ProcessorForCore(9); ok {
		t.Error("ProcessorForCore(9) found a processor")
	}

	if f := topo.Frequencies(); len(f) != 8 || f[2] != 2100 {
		t.Errorf("Frequencies() = %v", f)
	}
}

func TestCPUTopology_LastRecordWins(t *testing.T) {
	topo := NewCPUTopology([]CPUInfo{cpu(3, 0, 0, 1000), cpu(1, 0, 1, 1000), cpu(3, 0, 2, 3000)})

	if got := topo.TotalLogicalCores(); got != 2 {
		t.Errorf("TotalLogicalCores() = %d, want 2", got)
	}
	c, ok := topo.Processor(3)
	if !ok || c.CoreID != 2 || c.MHz != 3000 {
		t.Errorf("Processor(3) = %+v, want the later record", c)
	}

	procs := topo.Processors()
	if len(procs) != 2 || procs[0].Processor != 1 || procs[1].Processor != 3 {
		t.Errorf("Processors() not ordered by index: %+v", procs)
	}
}

func TestCPUTopology_Empty(t *testing.T) {
	topo := NewCPUTopology(nil)
	if topo.PhysicalCount() != 0 || topo.TotalLogicalCores() != 0 || len(topo.GroupByCoreID()) != 0 {
		t.Error("empty topology reports processors")
	}
	if _, ok := topo.Processor(0); ok {
		t.Error("Processor(0) found in empty topology")
	}
}

func TestCPUTopology_Summary(t *testing.T) {
	topo := NewCPUTopology([]CPUInfo{cpu(0, 0, 0, 1800), cpu(1, 0, 0, 1900)})
	s := topo.Summary()

	if s.Sockets != 1 || s.PhysicalCores != 1 || s.SocketCores != 1 || s.LogicalCores != 2 {
		t.Errorf("Summary() = %+v", s)
	}
	if !reflect.DeepEqual(s.Siblings, map[int][]int{0: {0, 1}}) {
		t.Errorf("Siblings = %v", s.Siblings)
	}
}

func TestCPUInfo_HasFlag(t *testing.T) {
	c := CPUInfo{Flags: []string{"fpu", "sse2", "avx2"}}
	if !c.HasFlag("avx2") || c.HasFlag("avx") {
		t.Error("HasFlag() mismatch")
	}
}

func TestTemperatureSensor_Name(t *testing.T) {
	label := "Tctl"
	empty := ""
	tests := []struct {
		s    TemperatureSensor
		want string
	}{
		{TemperatureSensor{Unit: "k10temp", Label: &label}, "Tctl"},
		{TemperatureSensor{Unit: "k10temp", Label: &empty}, "k10temp"},
		{TemperatureSensor{Unit: "acpitz"}, "acpitz"},
	}
	for _, tt := range tests {
		if got := tt.s.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}
