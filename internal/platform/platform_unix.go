//go:build !windows

package platform

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tklauser/go-sysconf"
	"golang.org/x/sys/unix"
)

// Detect probes the running system. procRoot is normally "/proc"; it is
// only used to find the root filesystem type.
func Detect(procRoot string) Info {
	info := Info{
		OS:     ParseOS(runtime.GOOS),
		Arch:   runtime.GOARCH,
		NumCPU: runtime.NumCPU(),
	}

	if n, err := sysconf.Sysconf(sysconf.SC_NPROCESSORS_ONLN); err == nil && n > 0 {
		info.NumCPU = int(n)
	}

	var uname unix.Utsname
	if err := unix.Uname(&uname); err == nil {
		info.OS = ParseOS(unix.ByteSliceToString(uname.Sysname[:]))
		info.Kernel = unix.ByteSliceToString(uname.Release[:])
		info.Machine = unix.ByteSliceToString(uname.Machine[:])
	}

	if f, err := os.Open(filepath.Join(procRoot, "self", "mounts")); err == nil {
		info.RootFS = rootFileSystemFrom(f)
		f.Close()
	}

	return info
}

// rootFileSystemFrom returns the type of the last filesystem mounted on
// "/" in /proc/mounts format. Later mounts shadow earlier ones, so rootfs
// placeholders lose to the real root.
func rootFileSystemFrom(r io.Reader) FileSystem {
	var fsType string
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		if fields[1] == "/" {
			fsType = fields[2]
		}
	}

	if fsType == "" {
		return ""
	}
	return ParseFileSystem(fsType)
}
