package collector

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nhdewitt/sysprobe/internal/protocol"
)

// SensorResult is the outcome of building one temperature sensor.
// Exactly one of Sensor or Err is meaningful.
type SensorResult struct {
	Sensor protocol.TemperatureSensor
	Err    error
}

// Sensors returns the successfully built sensors in discovery order.
func Sensors(results []SensorResult) []protocol.TemperatureSensor {
	var out []protocol.TemperatureSensor
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Sensor)
		}
	}
	return out
}

// MakeTemperatureCollector returns a CollectFunc that emits every sensor
// that could be read and logs the ones that could not. Only a discovery
// failure is returned as an error.
func MakeTemperatureCollector(sysRoot string, logger *slog.Logger) CollectFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context) ([]protocol.Metric, error) {
		results, err := ReadTemperatures(sysRoot)
		if err != nil {
			return nil, err
		}

		var metrics []protocol.Metric
		for _, r := range results {
			if r.Err != nil {
				logger.Warn("temperature sensor unreadable", "error", r.Err)
				continue
			}
			metrics = append(metrics, r.Sensor)
		}
		return metrics, nil
	}
}

// normalizeMax discards trip points that are unset, below the current
// reading, or implausibly high.
func normalizeMax(temp, max float64) *float64 {
	if max <= 0 || max >= 200 || max < temp {
		return nil
	}
	return &max
}

// parseMillidegrees converts sysfs millidegree Celsius text to degrees.
func parseMillidegrees(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, io.ErrUnexpectedEOF
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	// millidegrees -> degrees
	return val / 1000.0, nil
}
