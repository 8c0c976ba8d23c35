package protocol

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Metric is implemented by all record types
type Metric interface {
	MetricType() string
}

// Envelope wraps any metric with metadata for output
type Envelope struct {
	ID        string    `json:"id" yaml:"id"`
	Type      string    `json:"type" yaml:"type"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Hostname  string    `json:"hostname" yaml:"hostname"`
	Data      Metric    `json:"data" yaml:"data"`
}

// NewEnvelope stamps m with a fresh ID and the current time.
func NewEnvelope(hostname string, m Metric) Envelope {
	e := Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Hostname:  hostname,
		Data:      m,
	}
	if m != nil {
		e.Type = m.MetricType()
	}
	return e
}

// MarshalJSON ensures proper serialization with the concrete type
func (e Envelope) MarshalJSON() ([]byte, error) {
	type Alias Envelope
	return json.Marshal(&struct {
		Alias
		Data any `json:"data"`
	}{
		Alias: Alias(e),
		Data:  e.Data,
	})
}

func (CPUInfo) MetricType() string           { return "cpu_info" }
func (CPUTopologyMetric) MetricType() string { return "cpu_topology" }
func (CPUUsageMetric) MetricType() string    { return "cpu_usage" }
func (TemperatureSensor) MetricType() string { return "temperature" }
func (NetworkMetric) MetricType() string     { return "network" }
func (HostMetric) MetricType() string        { return "host" }

// CPUTopologyMetric is the summary view of a CPUTopology.
type CPUTopologyMetric struct {
	Sockets       int             `json:"sockets" yaml:"sockets"`
	PhysicalCores int             `json:"physical_cores" yaml:"physical_cores"`
	SocketCores   int             `json:"socket_cores" yaml:"socket_cores"`
	LogicalCores  int             `json:"logical_cores" yaml:"logical_cores"`
	Siblings      map[int][]int   `json:"siblings" yaml:"siblings"`
	FrequencyMHz  map[int]float64 `json:"frequency_mhz" yaml:"frequency_mhz"`
}

// Summary builds the metric view of t.
func (t CPUTopology) Summary() CPUTopologyMetric {
	return CPUTopologyMetric{
		Sockets:       t.PhysicalCount(),
		PhysicalCores: t.TotalPhysicalCores(),
		SocketCores:   t.SocketCoreCount(),
		LogicalCores:  t.TotalLogicalCores(),
		Siblings:      t.GroupByCoreID(),
		FrequencyMHz:  t.Frequencies(),
	}
}

type CPUUsageMetric struct {
	Usage     float64   `json:"usage" yaml:"usage"`
	CoreUsage []float64 `json:"cores" yaml:"cores"`
	IOWait    float64   `json:"iowait,omitempty" yaml:"iowait,omitempty"`
}

// NetworkMetric carries one interface's corrected counters. Delta is set
// when the caller has a previous reading to subtract.
type NetworkMetric struct {
	Interface string         `json:"interface" yaml:"interface"`
	MAC       string         `json:"mac_address,omitempty" yaml:"mac_address,omitempty"`
	MTU       uint32         `json:"mtu,omitempty" yaml:"mtu,omitempty"`
	Speed     uint64         `json:"speed,omitempty" yaml:"speed,omitempty"`
	Counters  NetIOCounters  `json:"counters" yaml:"counters"`
	Delta     *NetIOCounters `json:"delta,omitempty" yaml:"delta,omitempty"`
}

// HostMetric is filled by external collaborators (host identity, load).
type HostMetric struct {
	Hostname      string  `json:"hostname" yaml:"hostname"`
	OS            string  `json:"os" yaml:"os"`
	Platform      string  `json:"platform" yaml:"platform"`
	PlatformVer   string  `json:"platform_version" yaml:"platform_version"`
	Kernel        string  `json:"kernel" yaml:"kernel"`
	Arch          string  `json:"arch" yaml:"arch"`
	RootFS        string  `json:"root_fs,omitempty" yaml:"root_fs,omitempty"`
	NumCPU        int     `json:"num_cpu" yaml:"num_cpu"`
	UptimeSeconds uint64  `json:"uptime_seconds" yaml:"uptime_seconds"`
	LoadAvg1      float64 `json:"load_1m" yaml:"load_1m"`
	LoadAvg5      float64 `json:"load_5m" yaml:"load_5m"`
	LoadAvg15     float64 `json:"load_15m" yaml:"load_15m"`
}
