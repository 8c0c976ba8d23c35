//go:build windows

package collector

import (
	"fmt"
	"strings"

	"github.com/nhdewitt/sysprobe/internal/protocol"
	"github.com/yusufpapurcu/wmi"
)

// MSAcpi_ThermalZoneTemperature maps to the WMI class.
type MSAcpi_ThermalZoneTemperature struct {
	CurrentTemperature uint32
	CriticalTripPoint  uint32
	InstanceName       string
}

// ReadTemperatures queries ACPI thermal zones through WMI. The sysRoot
// argument is ignored.
func ReadTemperatures(_ string) ([]SensorResult, error) {
	var dst []MSAcpi_ThermalZoneTemperature

	q := wmi.CreateQuery(&dst, "")
	if err := wmi.QueryNamespace(q, &dst, `root\wmi`); err != nil {
		return nil, fmt.Errorf("querying thermal zones: %w", err)
	}

	results := make([]SensorResult, 0, len(dst))
	for _, v := range dst {
		results = append(results, SensorResult{Sensor: thermalZoneFromWMI(v)})
	}
	return results, nil
}

func thermalZoneFromWMI(v MSAcpi_ThermalZoneTemperature) protocol.TemperatureSensor {
	// Decikelvin -> Celsius
	celsius := decikelvinToCelsius(v.CurrentTemperature)

	var crit *float64
	if v.CriticalTripPoint > 0 {
		crit = normalizeMax(celsius, decikelvinToCelsius(v.CriticalTripPoint))
	}

	name := v.InstanceName
	if lastIdx := strings.LastIndex(name, `\`); lastIdx != -1 {
		name = name[lastIdx+1:]
	}

	return protocol.TemperatureSensor{
		Unit:     name,
		Current:  celsius,
		Critical: crit,
	}
}

func decikelvinToCelsius(v uint32) float64 {
	return (float64(v) - 2732.0) / 10.0
}
