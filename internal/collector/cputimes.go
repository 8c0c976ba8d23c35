package collector

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nhdewitt/sysprobe/internal/protocol"
)

// CPUTimes is the cumulative time one CPU line has spent in each mode.
// Name is "cpu" for the aggregate and "cpuN" for a single core.
//
// User, Nice, System and Idle are reported everywhere; the remaining modes
// are Linux accounting and their accessors return ErrUnsupportedOnPlatform
// when the reader could not supply them.
type CPUTimes struct {
	Name   string
	User   time.Duration
	Nice   time.Duration
	System time.Duration
	Idle   time.Duration

	ext *linuxCPUTimes
}

type linuxCPUTimes struct {
	ioWait  time.Duration
	irq     time.Duration
	softIRQ time.Duration
	steal   time.Duration
}

func (t CPUTimes) IOWait() (time.Duration, error) {
	if t.ext == nil {
		return 0, ErrUnsupportedOnPlatform
	}
	return t.ext.ioWait, nil
}

func (t CPUTimes) IRQ() (time.Duration, error) {
	if t.ext == nil {
		return 0, ErrUnsupportedOnPlatform
	}
	return t.ext.irq, nil
}

func (t CPUTimes) SoftIRQ() (time.Duration, error) {
	if t.ext == nil {
		return 0, ErrUnsupportedOnPlatform
	}
	return t.ext.softIRQ, nil
}

func (t CPUTimes) Steal() (time.Duration, error) {
	if t.ext == nil {
		return 0, ErrUnsupportedOnPlatform
	}
	return t.ext.steal, nil
}

// Total is the sum of all modes. Guest time is already part of User and
// Nice, so it is not added again.
func (t CPUTimes) Total() time.Duration {
	total := t.User + t.Nice + t.System + t.Idle
	if t.ext != nil {
		total += t.ext.ioWait + t.ext.irq + t.ext.softIRQ + t.ext.steal
	}
	return total
}

// idle includes iowait where it is known.
func (t CPUTimes) idle() time.Duration {
	if t.ext != nil {
		return t.Idle + t.ext.ioWait
	}
	return t.Idle
}

// CPUUsage computes busy percentages between two readings. It fails if a
// CPU line disappeared or any counter went backwards, which happens when a
// core goes offline between samples.
func CPUUsage(prev, cur []CPUTimes) (protocol.CPUUsageMetric, error) {
	before := make(map[string]CPUTimes, len(prev))
	for _, t := range prev {
		before[t.Name] = t
	}

	var m protocol.CPUUsageMetric
	type core struct {
		n     int
		usage float64
	}
	var cores []core

	for _, c := range cur {
		p, ok := before[c.Name]
		if !ok {
			return protocol.CPUUsageMetric{}, fmt.Errorf("cpu line %s missing from previous sample", c.Name)
		}
		if c.Total() < p.Total() || c.idle() < p.idle() {
			return protocol.CPUUsageMetric{}, fmt.Errorf("cpu line %s went backwards", c.Name)
		}

		total := c.Total() - p.Total()
		busy := total - (c.idle() - p.idle())
		usage := percent(busy, total)

		if c.Name == "cpu" {
			m.Usage = usage
			if c.ext != nil && p.ext != nil {
				m.IOWait = percent(c.ext.ioWait-p.ext.ioWait, total)
			}
			continue
		}

		n, err := strconv.Atoi(strings.TrimPrefix(c.Name, "cpu"))
		if err != nil {
			continue
		}
		cores = append(cores, core{n, usage})
	}

	slices.SortFunc(cores, func(a, b core) int { return cmp.Compare(a.n, b.n) })
	m.CoreUsage = make([]float64, 0, len(cores))
	for _, c := range cores {
		m.CoreUsage = append(m.CoreUsage, c.usage)
	}
	return m, nil
}

// MakeCPUUsageCollector returns a CollectFunc reporting usage since its
// previous call. The first call only records a baseline and emits nothing.
func MakeCPUUsageCollector(procRoot string) CollectFunc {
	var prev []CPUTimes

	return func(ctx context.Context) ([]protocol.Metric, error) {
		cur, err := ReadCPUTimes(procRoot)
		if err != nil {
			return nil, err
		}

		if prev == nil {
			prev = cur
			return nil, nil
		}

		m, err := CPUUsage(prev, cur)
		prev = cur
		if err != nil {
			return nil, err
		}
		return []protocol.Metric{m}, nil
	}
}
