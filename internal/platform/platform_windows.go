//go:build windows

package platform

import "runtime"

func Detect(_ string) Info {
	return Info{
		OS:     OSWindows,
		Arch:   runtime.GOARCH,
		NumCPU: runtime.NumCPU(),
		RootFS: FSNtfs,
	}
}
