package main

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"

	"github.com/nhdewitt/sysprobe/internal/collector"
	"github.com/nhdewitt/sysprobe/internal/platform"
	"github.com/nhdewitt/sysprobe/internal/protocol"
)

type commandFunc func(ctx context.Context, a *app) error

var commands = map[string]commandFunc{
	"cpu":     runCPU,
	"sensors": runSensors,
	"net":     runNet,
	"host":    runHost,
}

func runCPU(ctx context.Context, a *app) error {
	if !a.opts.usage {
		return a.emit(ctx, a.cpuInfoCollector())
	}

	collect := collector.MakeCPUUsageCollector(a.cfg.Paths.ProcRoot)
	if a.opts.watch {
		return a.emit(ctx, collect)
	}

	// A single usage figure needs a baseline one interval earlier.
	if _, err := collect(ctx); err != nil {
		return err
	}
	select {
	case <-time.After(a.opts.interval):
	case <-ctx.Done():
		return ctx.Err()
	}
	return a.emit(ctx, collect)
}

// cpuInfoCollector summarises the processors whose descriptor blocks
// parsed, logging the ones that did not.
func (a *app) cpuInfoCollector() collector.CollectFunc {
	procRoot := a.cfg.Paths.ProcRoot

	return func(ctx context.Context) ([]protocol.Metric, error) {
		results, err := collector.ReadCPUInfo(procRoot)
		if err != nil {
			return nil, err
		}

		cpus := make([]protocol.CPUInfo, 0, len(results))
		for i, r := range results {
			if r.Err != nil {
				a.logger.Warn("skipping cpuinfo block", "block", i, "error", r.Err)
				continue
			}
			cpus = append(cpus, r.Info)
		}

		topology := protocol.NewCPUTopology(cpus)
		metrics := []protocol.Metric{topology.Summary()}
		if a.opts.all {
			for _, info := range topology.Processors() {
				metrics = append(metrics, info)
			}
		}
		return metrics, nil
	}
}

func runSensors(ctx context.Context, a *app) error {
	return a.emit(ctx, collector.MakeTemperatureCollector(a.cfg.Paths.SysRoot, a.logger))
}

func runNet(ctx context.Context, a *app) error {
	source := collector.NetDevSource{ProcRoot: a.cfg.Paths.ProcRoot}
	nc := collector.NewNetIOCollector(source, a.logger)

	switch {
	case a.opts.iface != "":
		return a.emit(ctx, a.singleInterfaceCollector(nc, a.opts.iface))
	case a.opts.total:
		return a.emit(ctx, totalCollector(nc))
	}

	ignore := a.cfg.Collection.IgnoreInterfacePrefixes
	if a.opts.all {
		ignore = nil
	}
	return a.emit(ctx, collector.MakeNetworkCollector(nc, a.cfg.Paths.SysRoot, ignore))
}

func (a *app) singleInterfaceCollector(nc *collector.NetIOCollector, name string) collector.CollectFunc {
	sysRoot := a.cfg.Paths.SysRoot
	var prev *protocol.NetIOCounters

	return func(ctx context.Context) ([]protocol.Metric, error) {
		counters, err := nc.Interface(name)
		if err != nil {
			return nil, err
		}

		info := collector.ReadInterfaceInfo(sysRoot, name)
		m := protocol.NetworkMetric{
			Interface: name,
			MAC:       info.MAC,
			MTU:       info.MTU,
			Speed:     info.Speed,
			Counters:  counters,
		}
		if prev != nil {
			d := counters.Sub(*prev)
			m.Delta = &d
		}
		prev = &counters
		return []protocol.Metric{m}, nil
	}
}

func totalCollector(nc *collector.NetIOCollector) collector.CollectFunc {
	var prev *protocol.NetIOCounters

	return func(ctx context.Context) ([]protocol.Metric, error) {
		total, err := nc.Total()
		if err != nil {
			return nil, err
		}

		m := protocol.NetworkMetric{Interface: "total", Counters: total}
		if prev != nil {
			d := total.Sub(*prev)
			m.Delta = &d
		}
		prev = &total
		return []protocol.Metric{m}, nil
	}
}

func runHost(ctx context.Context, a *app) error {
	return a.emit(ctx, a.hostCollector())
}

// hostCollector combines local platform detection with host identity and
// load average from gopsutil. The gopsutil parts are best effort.
func (a *app) hostCollector() collector.CollectFunc {
	procRoot := a.cfg.Paths.ProcRoot

	return func(ctx context.Context) ([]protocol.Metric, error) {
		p := platform.Detect(procRoot)
		m := protocol.HostMetric{
			Hostname: a.hostname,
			OS:       p.OS.String(),
			Kernel:   p.Kernel,
			Arch:     p.Arch,
			RootFS:   p.RootFS.String(),
			NumCPU:   p.NumCPU,
		}

		if info, err := host.InfoWithContext(ctx); err != nil {
			a.logger.Warn("host info unavailable", "error", err)
		} else {
			m.Platform = info.Platform
			m.PlatformVer = info.PlatformVersion
			m.UptimeSeconds = info.Uptime
			if m.Kernel == "" {
				m.Kernel = info.KernelVersion
			}
			if m.Hostname == "" {
				m.Hostname = info.Hostname
			}
		}

		if avg, err := load.AvgWithContext(ctx); err != nil {
			a.logger.Debug("load average unavailable", "error", err)
		} else {
			m.LoadAvg1, m.LoadAvg5, m.LoadAvg15 = avg.Load1, avg.Load5, avg.Load15
		}

		return []protocol.Metric{m}, nil
	}
}

// emit prints one collection, or with --watch streams collections through
// a Collector until the count is reached or ctx is cancelled.
func (a *app) emit(ctx context.Context, collect collector.CollectFunc) error {
	if !a.opts.watch {
		metrics, err := collect(ctx)
		if err != nil {
			return err
		}
		for _, m := range metrics {
			if err := a.printer.Print(protocol.NewEnvelope(a.hostname, m)); err != nil {
				return err
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make(chan protocol.Envelope, 64)
	c := collector.New(a.hostname, out, a.logger)
	go func() {
		defer close(out)
		c.Run(ctx, a.opts.interval, a.opts.count, collect)
	}()

	for env := range out {
		if err := a.printer.Print(env); err != nil {
			return err
		}
	}
	return nil
}
