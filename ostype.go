package fspath

import "runtime"

// OSType identifies the operating system family a path belongs to.
// It decides native separators, root grammar and case sensitivity.
type OSType int

const (
	// OSTypeOther is any OS this package has no specific rules for.
	OSTypeOther OSType = iota
	// OSTypeLinux indicates a Linux system.
	OSTypeLinux
	// OSTypeWindows indicates a Windows system.
	OSTypeWindows
	// OSTypeMac indicates a macOS system.
	OSTypeMac
	// OSTypeOtherUnix indicates a non-Linux, non-macOS Unix (BSDs, Solaris, ...).
	OSTypeOtherUnix
)

// String returns a string representation of the OSType.
func (t OSType) String() string {
	switch t {
	case OSTypeLinux:
		return "linux"
	case OSTypeWindows:
		return "windows"
	case OSTypeMac:
		return "darwin"
	case OSTypeOtherUnix:
		return "unix"
	default:
		return "other"
	}
}

// ParseOSType maps a GOOS-style name back to an OSType.
func ParseOSType(name string) OSType {
	switch name {
	case "linux", "android":
		return OSTypeLinux
	case "windows":
		return OSTypeWindows
	case "darwin", "mac", "macos", "ios":
		return OSTypeMac
	case "unix", "freebsd", "netbsd", "openbsd", "dragonfly", "solaris", "illumos", "aix":
		return OSTypeOtherUnix
	default:
		return OSTypeOther
	}
}

// HostOS returns the OS type of the running process.
func HostOS() OSType {
	return ParseOSType(runtime.GOOS)
}

// PathSeparator returns the native directory separator.
func (t OSType) PathSeparator() byte {
	if t == OSTypeWindows {
		return '\\'
	}
	return '/'
}

// PathListSeparator returns the separator used in PATH-like variables.
func (t OSType) PathListSeparator() string {
	if t == OSTypeWindows {
		return ";"
	}
	return ":"
}

// ExecutableSuffix returns the suffix executables carry on this OS.
func (t OSType) ExecutableSuffix() string {
	if t == OSTypeWindows {
		return ".exe"
	}
	return ""
}

// CaseSensitivity describes how file names are compared.
type CaseSensitivity int

const (
	// CaseSensitive compares names byte for byte.
	CaseSensitive CaseSensitivity = iota
	// CaseInsensitive compares case-folded names.
	CaseInsensitive
)

// FileNameCaseSensitivity returns the file name policy of the OS family.
// Windows and macOS are treated as case-insensitive.
func (t OSType) FileNameCaseSensitivity() CaseSensitivity {
	if t == OSTypeWindows || t == OSTypeMac {
		return CaseInsensitive
	}
	return CaseSensitive
}
