package platform

import "strings"

// OS identifies an operating system. Known systems use the constants
// below; anything else keeps the name it was parsed from.
type OS string

const (
	OSLinux     OS = "linux"
	OSWindows   OS = "windows"
	OSMacOS     OS = "macos"
	OSFreeBSD   OS = "freebsd"
	OSNetBSD    OS = "netbsd"
	OSOpenBSD   OS = "openbsd"
	OSDragonfly OS = "dragonfly"
	OSAndroid   OS = "android"
	OSIOS       OS = "ios"
	OSSolaris   OS = "solaris"
	OSIllumos   OS = "illumos"
	OSAIX       OS = "aix"
)

var knownOS = map[string]OS{
	"linux":     OSLinux,
	"windows":   OSWindows,
	"macos":     OSMacOS,
	"darwin":    OSMacOS,
	"freebsd":   OSFreeBSD,
	"netbsd":    OSNetBSD,
	"openbsd":   OSOpenBSD,
	"dragonfly": OSDragonfly,
	"android":   OSAndroid,
	"ios":       OSIOS,
	"solaris":   OSSolaris,
	"sunos":     OSSolaris,
	"illumos":   OSIllumos,
	"aix":       OSAIX,
}

// ParseOS maps a name such as runtime.GOOS or a uname sysname onto an OS,
// ignoring case. Unrecognised names are returned unchanged.
func ParseOS(s string) OS {
	if os, ok := knownOS[strings.ToLower(strings.TrimSpace(s))]; ok {
		return os
	}
	return OS(s)
}

// Known reports whether o is one of the OS constants.
func (o OS) Known() bool {
	_, ok := knownOS[string(o)]
	return ok
}

func (o OS) String() string { return string(o) }

// FileSystem identifies a filesystem type. Physical filesystems have
// constants; virtual ones (tmpfs, proc, network mounts) keep their name.
type FileSystem string

const (
	FSExt2    FileSystem = "ext2"
	FSExt3    FileSystem = "ext3"
	FSExt4    FileSystem = "ext4"
	FSVFat    FileSystem = "vfat"
	FSExFat   FileSystem = "exfat"
	FSF2fs    FileSystem = "f2fs"
	FSNtfs    FileSystem = "ntfs"
	FSZfs     FileSystem = "zfs"
	FSHfs     FileSystem = "hfs"
	FSHfsPlus FileSystem = "hfs+"
	FSJfs     FileSystem = "jfs"
	FSReiser3 FileSystem = "reiserfs"
	FSReiser4 FileSystem = "reiser4"
	FSBtrfs   FileSystem = "btrfs"
	FSMinix   FileSystem = "minix"
	FSNilfs   FileSystem = "nilfs"
	FSXfs     FileSystem = "xfs"
	FSApfs    FileSystem = "apfs"
	FSFuseBlk FileSystem = "fuseblk"
)

var knownFS = map[string]FileSystem{
	"ext2":     FSExt2,
	"ext3":     FSExt3,
	"ext4":     FSExt4,
	"vfat":     FSVFat,
	"exfat":    FSExFat,
	"f2fs":     FSF2fs,
	"ntfs":     FSNtfs,
	"zfs":      FSZfs,
	"hfs":      FSHfs,
	"hfsplus":  FSHfsPlus,
	"hfs+":     FSHfsPlus,
	"jfs":      FSJfs,
	"reiserfs": FSReiser3,
	"reiser4":  FSReiser4,
	"btrfs":    FSBtrfs,
	"minix":    FSMinix,
	"nilfs":    FSNilfs,
	"nilfs2":   FSNilfs,
	"xfs":      FSXfs,
	"apfs":     FSApfs,
	"fuseblk":  FSFuseBlk,
}

// ParseFileSystem maps a filesystem type name onto a FileSystem, ignoring
// case. Unrecognised names are returned unchanged.
func ParseFileSystem(s string) FileSystem {
	if fs, ok := knownFS[strings.ToLower(strings.TrimSpace(s))]; ok {
		return fs
	}
	return FileSystem(s)
}

// IsPhysical reports whether f is one of the FileSystem constants.
func (f FileSystem) IsPhysical() bool {
	_, ok := knownFS[string(f)]
	return ok
}

// IsVirtual is the negation of IsPhysical.
func (f FileSystem) IsVirtual() bool { return !f.IsPhysical() }

func (f FileSystem) String() string { return string(f) }

// Info describes the running platform.
type Info struct {
	OS      OS
	Kernel  string
	Arch    string
	NumCPU  int
	RootFS  FileSystem
	Machine string // uname machine, empty where unavailable
}
