//go:build linux

package collector

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/nhdewitt/sysprobe/internal/protocol"
)

const procStat = `cpu  1000 0 500 8000 500 0 0 0 0 0
cpu0 500 0 250 4000 250 0 0 0 0 0
cpu1 500 0 250 4000 250 0 0 0 0 0
cpu2 short
intr 123456 0 0
ctxt 987654
`

func TestParseProcStatFrom(t *testing.T) {
	times, err := parseProcStatFrom(strings.NewReader(procStat))
	if err != nil {
		t.Fatalf("parseProcStatFrom() error = %v", err)
	}
	if len(times) != 3 {
		t.Fatalf("got %d cpu lines, want 3 (short line skipped)", len(times))
	}
	if times[0].Name != "cpu" || times[2].Name != "cpu1" {
		t.Errorf("names = %s..%s", times[0].Name, times[2].Name)
	}
	if times[0].User != ticksToDuration(1000) || times[0].Idle != ticksToDuration(8000) {
		t.Errorf("cpu = %+v", times[0])
	}
	if iow, err := times[0].IOWait(); err != nil || iow != ticksToDuration(500) {
		t.Errorf("IOWait() = %v, %v", iow, err)
	}
}

func TestParseCPULine_Invalid(t *testing.T) {
	for _, line := range []string{
		"cpu 1 2 3",
		"cpu a 0 500 8000 500 0 0 0 0 0",
	} {
		if _, err := parseCPULine(line); err == nil {
			t.Errorf("parseCPULine(%q) error = nil", line)
		}
	}
}

func TestMakeCPUUsageCollector(t *testing.T) {
	proc := t.TempDir()
	writeSyntheticFile(t, proc, "stat", procStat)
	collect := MakeCPUUsageCollector(proc)

	metrics, err := collect(context.Background())
	if err != nil || len(metrics) != 0 {
		t.Fatalf("baseline collect = %v, %v; want nothing", metrics, err)
	}

	writeSyntheticFile(t, proc, "stat", `cpu  1300 0 600 8500 600 0 0 0 0 0
cpu0 650 0 300 4250 300 0 0 0 0 0
cpu1 650 0 300 4250 300 0 0 0 0 0
`)
	metrics, err = collect(context.Background())
	if err != nil {
		t.Fatalf("collect() error = %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("got %d metrics, want 1", len(metrics))
	}

	m := metrics[0].(protocol.CPUUsageMetric)
	// 1000 ticks elapsed: 400 busy, 100 iowait.
	if math.Abs(m.Usage-40) > 1e-6 || math.Abs(m.IOWait-10) > 1e-6 {
		t.Errorf("usage = %+v, want 40%% busy and 10%% iowait", m)
	}
	if len(m.CoreUsage) != 2 {
		t.Errorf("CoreUsage = %v, want 2 cores", m.CoreUsage)
	}
}

func TestMakeCPUUsageCollector_MissingFile(t *testing.T) {
	if _, err := MakeCPUUsageCollector(t.TempDir())(context.Background()); err == nil {
		t.Error("collect() error = nil for missing stat file")
	}
}
