package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/nhdewitt/sysprobe/internal/protocol"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// resolveFormat validates an explicit format or picks text for terminals
// and json for everything else.
func resolveFormat(format string, w io.Writer) (string, error) {
	switch strings.ToLower(format) {
	case "text", "json", "yaml":
		return strings.ToLower(format), nil
	case "":
		if isTerminal(w) {
			return "text", nil
		}
		return "json", nil
	}
	return "", fmt.Errorf("--format must be text, json or yaml, got %q", format)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type printer struct {
	w      io.Writer
	format string
}

func (p *printer) Print(env protocol.Envelope) error {
	switch p.format {
	case "json":
		return json.NewEncoder(p.w).Encode(env)
	case "yaml":
		data, err := yaml.Marshal(env)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = fmt.Fprintf(p.w, "---\n%s", data)
		return err
	default:
		_, err := io.WriteString(p.w, renderText(env.Data))
		return err
	}
}

func renderText(m protocol.Metric) string {
	var b strings.Builder

	switch v := m.(type) {
	case protocol.CPUTopologyMetric:
		b.WriteString(titleStyle.Render("CPU topology") + "\n")
		field(&b, "sockets", strconv.Itoa(v.Sockets))
		field(&b, "physical cores", strconv.Itoa(v.PhysicalCores))
		field(&b, "socket cores", strconv.Itoa(v.SocketCores))
		field(&b, "logical cores", strconv.Itoa(v.LogicalCores))
		for _, core := range slices.Sorted(maps.Keys(v.Siblings)) {
			field(&b, fmt.Sprintf("core %d", core), joinInts(v.Siblings[core]))
		}
		for _, cpu := range slices.Sorted(maps.Keys(v.FrequencyMHz)) {
			field(&b, fmt.Sprintf("cpu%d", cpu), fmt.Sprintf("%.0f MHz", v.FrequencyMHz[cpu]))
		}

	case protocol.CPUInfo:
		b.WriteString(titleStyle.Render(fmt.Sprintf("cpu%d", v.Processor)) + " " + v.ModelName + "\n")
		field(&b, "vendor", v.VendorID)
		field(&b, "socket/core", fmt.Sprintf("%d/%d", v.PhysicalID, v.CoreID))
		field(&b, "clock", fmt.Sprintf("%.0f MHz", v.MHz))
		field(&b, "cache", humanize.IBytes(uint64(v.CacheSizeKB)*1024))
		field(&b, "address bits", fmt.Sprintf("%d physical, %d virtual", v.PhysicalBits, v.VirtualBits))
		if len(v.Bugs) > 0 {
			field(&b, "bugs", warnStyle.Render(strings.Join(v.Bugs, " ")))
		}

	case protocol.CPUUsageMetric:
		b.WriteString(titleStyle.Render("CPU usage") + " " + fmt.Sprintf("%.1f%%", v.Usage))
		if v.IOWait > 0 {
			b.WriteString(subtleStyle.Render(fmt.Sprintf(" iowait %.1f%%", v.IOWait)))
		}
		b.WriteString("\n")
		for i, u := range v.CoreUsage {
			field(&b, fmt.Sprintf("cpu%d", i), fmt.Sprintf("%5.1f%%", u))
		}

	case protocol.TemperatureSensor:
		b.WriteString(labelStyle.Render(v.Name()) + " " + celsius(v.Current))
		var limits []string
		if v.High != nil {
			limits = append(limits, "high "+celsius(*v.High))
		}
		if v.Critical != nil {
			limits = append(limits, "crit "+celsius(*v.Critical))
		}
		if v.Low != nil {
			limits = append(limits, "low "+celsius(*v.Low))
		}
		if len(limits) > 0 {
			b.WriteString(subtleStyle.Render(" (" + strings.Join(limits, ", ") + ")"))
		}
		if v.SensorID != nil {
			b.WriteString(subtleStyle.Render(" [" + *v.SensorID + "]"))
		}
		b.WriteString("\n")

	case protocol.NetworkMetric:
		b.WriteString(titleStyle.Render(v.Interface))
		if v.MAC != "" {
			b.WriteString(" " + subtleStyle.Render(v.MAC))
		}
		if v.MTU > 0 {
			b.WriteString(subtleStyle.Render(fmt.Sprintf(" mtu %d", v.MTU)))
		}
		if v.Speed > 0 {
			b.WriteString(subtleStyle.Render(" " + humanize.SI(float64(v.Speed), "bit/s")))
		}
		b.WriteString("\n")
		writeCounters(&b, v.Counters)
		if v.Delta != nil {
			field(&b, "delta", fmt.Sprintf("rx %s tx %s", humanize.Bytes(v.Delta.BytesRecv), humanize.Bytes(v.Delta.BytesSent)))
		}

	case protocol.HostMetric:
		b.WriteString(titleStyle.Render(v.Hostname) + "\n")
		field(&b, "os", strings.TrimSpace(v.OS+" "+v.Platform+" "+v.PlatformVer))
		field(&b, "kernel", v.Kernel)
		field(&b, "arch", v.Arch)
		field(&b, "cpus", strconv.Itoa(v.NumCPU))
		if v.RootFS != "" {
			field(&b, "root fs", v.RootFS)
		}
		field(&b, "uptime", (time.Duration(v.UptimeSeconds) * time.Second).String())
		field(&b, "load", fmt.Sprintf("%.2f %.2f %.2f", v.LoadAvg1, v.LoadAvg5, v.LoadAvg15))

	default:
		fmt.Fprintf(&b, "%+v\n", m)
	}

	return b.String()
}

func writeCounters(b *strings.Builder, c protocol.NetIOCounters) {
	field(b, "rx", fmt.Sprintf("%s in %s packets", humanize.Bytes(c.BytesRecv), humanize.Comma(int64(c.PacketsRecv))))
	field(b, "tx", fmt.Sprintf("%s in %s packets", humanize.Bytes(c.BytesSent), humanize.Comma(int64(c.PacketsSent))))
	if c.ErrIn+c.ErrOut+c.DropIn+c.DropOut > 0 {
		field(b, "errors", warnStyle.Render(fmt.Sprintf("in %d out %d, dropped in %d out %d", c.ErrIn, c.ErrOut, c.DropIn, c.DropOut)))
	}
}

func field(b *strings.Builder, label, value string) {
	b.WriteString("  " + labelStyle.Render(label+":") + " " + value + "\n")
}

func celsius(v float64) string {
	return fmt.Sprintf("%.1f°C", v)
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
