//go:build linux

package collector

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/nhdewitt/sysprobe/internal/protocol"
)

// ReadTemperatures discovers temperature sensors under sysRoot. The hwmon
// tree is tried first; thermal zones are used only when hwmon has no
// temp*_input files at all. Each sensor succeeds or fails on its own; the
// error is reserved for discovery itself failing.
func ReadTemperatures(sysRoot string) ([]SensorResult, error) {
	inputs, err := hwmonInputs(sysRoot)
	if err != nil {
		return nil, fmt.Errorf("listing hwmon inputs: %w", err)
	}
	if len(inputs) > 0 {
		return hwmonSensors(inputs), nil
	}

	zones, err := filepath.Glob(filepath.Join(sysRoot, "class", "thermal", "thermal_zone*"))
	if err != nil {
		return nil, fmt.Errorf("listing thermal zones: %w", err)
	}
	return thermalZoneSensors(zones), nil
}

func hwmonSensors(inputs []string) []SensorResult {
	results := make([]SensorResult, 0, len(inputs))
	for _, input := range inputs {
		s, err := readHwmonSensor(input)
		results = append(results, SensorResult{Sensor: s, Err: err})
	}
	return results
}

// hwmonInputs lists temp*_input channel files. CentOS keeps them one level
// down in a device/ directory.
func hwmonInputs(sysRoot string) ([]string, error) {
	base := filepath.Join(sysRoot, "class", "hwmon")

	inputs, err := filepath.Glob(filepath.Join(base, "hwmon*", "temp*_input"))
	if err != nil {
		return nil, err
	}
	if len(inputs) > 0 {
		return inputs, nil
	}
	return filepath.Glob(filepath.Join(base, "hwmon*", "device", "temp*_input"))
}

// readHwmonSensor builds a sensor from a temp<N>_input file and its
// temp<N>_{label,max,crit,min} siblings.
func readHwmonSensor(input string) (protocol.TemperatureSensor, error) {
	dir := filepath.Dir(input)
	prefix := strings.TrimSuffix(filepath.Base(input), "input")
	group := filepath.Base(dir)

	unit, err := readLine(filepath.Join(dir, "name"))
	if err != nil {
		return protocol.TemperatureSensor{}, err
	}

	label, err := readOptional(filepath.Join(dir, prefix+"label"), readLine)
	if err != nil {
		return protocol.TemperatureSensor{}, err
	}
	high, err := readOptional(filepath.Join(dir, prefix+"max"), readTemperature)
	if err != nil {
		return protocol.TemperatureSensor{}, err
	}
	crit, err := readOptional(filepath.Join(dir, prefix+"crit"), readTemperature)
	if err != nil {
		return protocol.TemperatureSensor{}, err
	}
	low, err := readOptional(filepath.Join(dir, prefix+"min"), readTemperature)
	if err != nil {
		return protocol.TemperatureSensor{}, err
	}

	current, err := readTemperature(input)
	if err != nil {
		return protocol.TemperatureSensor{}, err
	}

	return protocol.TemperatureSensor{
		Unit:     unit,
		Label:    label,
		Current:  current,
		High:     high,
		Critical: crit,
		Low:      low,
		SensorID: &group,
	}, nil
}

func thermalZoneSensors(zones []string) []SensorResult {
	results := make([]SensorResult, 0, len(zones))
	for _, zone := range zones {
		s, err := readThermalZone(zone)
		results = append(results, SensorResult{Sensor: s, Err: err})
	}
	return results
}

// readThermalZone builds a sensor from a thermal_zone<N> directory. The
// first "high" and first "critical" trip points, in trip point order,
// become High and Critical.
func readThermalZone(dir string) (protocol.TemperatureSensor, error) {
	current, err := readTemperature(filepath.Join(dir, "temp"))
	if err != nil {
		return protocol.TemperatureSensor{}, err
	}

	unit, err := readLine(filepath.Join(dir, "type"))
	if err != nil {
		return protocol.TemperatureSensor{}, err
	}

	trips, err := tripPoints(dir)
	if err != nil {
		return protocol.TemperatureSensor{}, err
	}

	var high, crit *float64
	for _, tp := range trips {
		kind, err := readLine(tp.typePath)
		if err != nil {
			return protocol.TemperatureSensor{}, err
		}

		var dst **float64
		switch strings.TrimSpace(kind) {
		case "critical":
			dst = &crit
		case "high":
			dst = &high
		default:
			continue
		}
		if *dst != nil {
			continue
		}

		v, err := readTemperature(tp.tempPath)
		if err != nil {
			return protocol.TemperatureSensor{}, err
		}
		*dst = &v
	}

	return protocol.TemperatureSensor{
		Unit:     unit,
		Current:  current,
		High:     high,
		Critical: crit,
	}, nil
}

type tripPoint struct {
	index    int
	typePath string
	tempPath string
}

// tripPoints lists trip_point_<N>_type files ordered by N. Entries whose
// N is not numeric sort last, by name.
func tripPoints(dir string) ([]tripPoint, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "trip_point_*_type"))
	if err != nil {
		return nil, err
	}

	trips := make([]tripPoint, 0, len(matches))
	for _, m := range matches {
		prefix := strings.TrimSuffix(filepath.Base(m), "type")
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(prefix, "trip_point_"), "_"))
		if err != nil {
			idx = -1
		}
		trips = append(trips, tripPoint{
			index:    idx,
			typePath: m,
			tempPath: filepath.Join(dir, prefix+"temp"),
		})
	}

	slices.SortStableFunc(trips, func(a, b tripPoint) int {
		switch {
		case a.index < 0 && b.index < 0:
			return cmp.Compare(a.typePath, b.typePath)
		case a.index < 0:
			return 1
		case b.index < 0:
			return -1
		}
		return cmp.Compare(a.index, b.index)
	})
	return trips, nil
}

// readOptional calls read only when path exists.
func readOptional[T any](path string, read func(string) (T, error)) (*T, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	v, err := read(path)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// readLine returns the file contents without the trailing newline.
func readLine(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// readTemperature reads a millidegree Celsius file and returns degrees.
func readTemperature(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := parseMillidegrees(string(data))
	if err != nil {
		return 0, &ParseError{Path: path, Contents: string(data), Err: err}
	}
	return v, nil
}
