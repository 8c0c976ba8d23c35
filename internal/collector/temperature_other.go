//go:build !linux && !windows

package collector

// ReadTemperatures has neither sysfs nor WMI to read from here.
func ReadTemperatures(_ string) ([]SensorResult, error) {
	return nil, ErrUnsupportedOnPlatform
}
