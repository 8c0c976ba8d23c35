//go:build !linux

package collector

// ReadCPUTimes needs /proc/stat, which only Linux provides.
func ReadCPUTimes(_ string) ([]CPUTimes, error) {
	return nil, ErrUnsupportedOnPlatform
}
