package collector

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/nhdewitt/sysprobe/internal/protocol"
)

// counterMax32 is the largest value of a 32-bit kernel counter.
const counterMax32 = math.MaxUint32

// CounterSource reads raw cumulative counters keyed by interface name.
type CounterSource interface {
	ReadAll() (map[string]protocol.NetIOCounters, error)
	ReadInterface(name string) (map[string]protocol.NetIOCounters, error)
}

// counterSnapshot pairs the last raw reading with the corrected values
// emitted for it. The two are only ever replaced together.
type counterSnapshot struct {
	raw       map[string]protocol.NetIOCounters
	corrected map[string]protocol.NetIOCounters
}

// NetIOCollector corrects network counters for 32-bit wraparound across
// repeated polls. The first poll is returned unchanged and becomes the
// baseline. A NetIOCollector is not safe for concurrent use; give each
// poller its own instance or guard it with a lock.
type NetIOCollector struct {
	source CounterSource
	logger *slog.Logger
	last   *counterSnapshot // nil until the first successful poll
}

// NewNetIOCollector returns a collector reading from source. A nil logger
// discards wraparound diagnostics.
func NewNetIOCollector(source CounterSource, logger *slog.Logger) *NetIOCollector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &NetIOCollector{source: source, logger: logger}
}

// Initialized reports whether a baseline has been recorded.
func (c *NetIOCollector) Initialized() bool {
	return c.last != nil
}

// PerInterface returns corrected counters for every interface. A read
// failure fails the whole poll and leaves the state untouched.
func (c *NetIOCollector) PerInterface() (map[string]protocol.NetIOCounters, error) {
	raw, err := c.source.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading network counters: %w", err)
	}
	return c.correct(raw), nil
}

// Total returns the sum of the corrected counters across all interfaces.
func (c *NetIOCollector) Total() (protocol.NetIOCounters, error) {
	m, err := c.PerInterface()
	if err != nil {
		return protocol.NetIOCounters{}, err
	}
	return protocol.SumCounters(m), nil
}

// Interface reads only the named interface and corrects it against the
// same state PerInterface uses. Alternating the two on one collector
// makes interfaces absent from the previous poll pass through uncorrected.
func (c *NetIOCollector) Interface(name string) (protocol.NetIOCounters, error) {
	raw, err := c.source.ReadInterface(name)
	if err != nil {
		return protocol.NetIOCounters{}, fmt.Errorf("reading network counters for %s: %w", name, err)
	}
	return protocol.SumCounters(c.correct(raw)), nil
}

func (c *NetIOCollector) correct(raw map[string]protocol.NetIOCounters) map[string]protocol.NetIOCounters {
	corrected := raw
	if c.last != nil {
		corrected = c.fixCounterOverflow(c.last.raw, raw, c.last.corrected)
	}
	c.last = &counterSnapshot{raw: raw, corrected: corrected}

	return maps.Clone(corrected)
}

// fixCounterOverflow corrects every interface in current that also appears
// in both prev and corrected; the rest pass through unchanged.
func (c *NetIOCollector) fixCounterOverflow(prev, current, corrected map[string]protocol.NetIOCounters) map[string]protocol.NetIOCounters {
	out := make(map[string]protocol.NetIOCounters, len(current))

	for iface, cur := range current {
		p, okPrev := prev[iface]
		corr, okCorr := corrected[iface]
		if !okPrev || !okCorr {
			out[iface] = cur
			continue
		}

		fixed, wrapped := nowrapCounters(p, cur, corr)
		if len(wrapped) > 0 {
			c.logger.Debug("counter wraparound corrected", "interface", iface, "fields", wrapped)
		}
		out[iface] = fixed
	}

	return out
}

// nowrapCounters applies nowrap to each of the eight fields and reports
// the names of the fields that wrapped.
func nowrapCounters(prev, cur, corrected protocol.NetIOCounters) (protocol.NetIOCounters, []string) {
	var wrapped []string
	fix := func(name string, p, c, corr uint64) uint64 {
		v, w := nowrap(p, c, corr)
		if w {
			wrapped = append(wrapped, name)
		}
		return v
	}

	return protocol.NetIOCounters{
		BytesSent:   fix("bytes_sent", prev.BytesSent, cur.BytesSent, corrected.BytesSent),
		BytesRecv:   fix("bytes_recv", prev.BytesRecv, cur.BytesRecv, corrected.BytesRecv),
		PacketsSent: fix("packets_sent", prev.PacketsSent, cur.PacketsSent, corrected.PacketsSent),
		PacketsRecv: fix("packets_recv", prev.PacketsRecv, cur.PacketsRecv, corrected.PacketsRecv),
		ErrIn:       fix("err_in", prev.ErrIn, cur.ErrIn, corrected.ErrIn),
		ErrOut:      fix("err_out", prev.ErrOut, cur.ErrOut, corrected.ErrOut),
		DropIn:      fix("drop_in", prev.DropIn, cur.DropIn, corrected.DropIn),
		DropOut:     fix("drop_out", prev.DropOut, cur.DropOut, corrected.DropOut),
	}, wrapped
}

// nowrap advances corrected by the distance from prev to cur, assuming a
// 32-bit counter wrapped when cur < prev. A 64-bit counter that resets from
// above counterMax32 underflows here, so corrected goes backwards.
func nowrap(prev, cur, corrected uint64) (uint64, bool) {
	if cur >= prev {
		return corrected + (cur - prev), false
	}
	return corrected + cur + (counterMax32 - prev), true
}

// MakeNetworkCollector returns a CollectFunc emitting one NetworkMetric per
// interface, sorted by name. From the second call on each metric carries
// the delta since the previous call. Interfaces matching an ignore prefix
// are left out of the output but still tracked by c.
func MakeNetworkCollector(c *NetIOCollector, sysRoot string, ignore []string) CollectFunc {
	var prev map[string]protocol.NetIOCounters

	return func(ctx context.Context) ([]protocol.Metric, error) {
		current, err := c.PerInterface()
		if err != nil {
			return nil, err
		}

		shown := FilterInterfaces(current, ignore)
		names := slices.Sorted(maps.Keys(shown))

		results := make([]protocol.Metric, 0, len(names))
		for _, iface := range names {
			info := ReadInterfaceInfo(sysRoot, iface)
			m := protocol.NetworkMetric{
				Interface: iface,
				MAC:       info.MAC,
				MTU:       info.MTU,
				Speed:     info.Speed,
				Counters:  shown[iface],
			}
			if p, ok := prev[iface]; ok {
				d := shown[iface].Sub(p)
				m.Delta = &d
			}
			results = append(results, m)
		}

		prev = current
		return results, nil
	}
}

// FilterInterfaces returns the entries of m whose names match none of the
// ignore prefixes.
func FilterInterfaces(m map[string]protocol.NetIOCounters, ignore []string) map[string]protocol.NetIOCounters {
	out := make(map[string]protocol.NetIOCounters, len(m))
	for iface, c := range m {
		if !shouldIgnoreInterface(iface, ignore) {
			out[iface] = c
		}
	}
	return out
}

func shouldIgnoreInterface(name string, ignore []string) bool {
	for _, prefix := range ignore {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// InterfaceInfo is best-effort link metadata for one interface.
type InterfaceInfo struct {
	MAC   string
	MTU   uint32
	Speed uint64 // bits per second
}
