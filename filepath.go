package fspath

import (
	"strings"
)

// FilePath is a handle to an object in a local or device file system.
//
// A FilePath is an immutable value made of four parts:
//
//   - scheme: empty for the local file system, otherwise the name of the
//     device access method (e.g. "docker", "ssh", "s3").
//   - host: the device instance under that scheme (container id, host name, bucket).
//   - root: the absolute prefix ("", "/", "C:/", "//server/share/", ":" or ":/").
//   - path: the remainder, always using forward slashes.
//
// The zero value is the empty path. FilePath values are cheap to copy and
// safe to share between goroutines; they never cache file system state.
type FilePath struct {
	scheme string
	host   string
	root   string
	path   string
}

// FromParts builds a FilePath from its device identity and a root+path string.
// The root is split off rootAndPath with the rules of the host OS.
// A scheme containing '/' is a programmer error.
func FromParts(scheme, host, rootAndPath string) FilePath {
	assertf(!strings.Contains(scheme, "/"), "scheme must not contain '/'", "scheme", scheme)
	root, rest := splitRootAndPath(rootAndPath, HostOS())
	return FilePath{scheme: scheme, host: host, root: root, path: rest}
}

// Scheme returns the device access method, empty for local paths.
func (p FilePath) Scheme() string { return p.scheme }

// Host returns the device instance, empty for local paths.
func (p FilePath) Host() string { return p.host }

// Root returns the absolute prefix of the path, empty for relative paths.
func (p FilePath) Root() string { return p.root }

// Path returns the part of the path after the root.
func (p FilePath) Path() string { return p.path }

// RootAndPath returns root and path concatenated, without device identity.
func (p FilePath) RootAndPath() string {
	if p.root == "" {
		return p.path
	}
	return p.root + p.path
}

// IsEmpty reports whether the path has no device identity and no path text.
func (p FilePath) IsEmpty() bool {
	return p.scheme == "" && p.host == "" && p.root == "" && p.path == ""
}

// NeedsDevice reports whether operations on p must go through a device.
func (p FilePath) NeedsDevice() bool {
	return p.scheme != ""
}

// IsLocal is the inverse of NeedsDevice.
func (p FilePath) IsLocal() bool {
	return p.scheme == ""
}

// IsAbsolutePath reports whether the path has a root.
func (p FilePath) IsAbsolutePath() bool {
	return p.root != ""
}

// IsRelativePath reports whether the path has no root.
func (p FilePath) IsRelativePath() bool {
	return p.root == ""
}

// IsRootPath reports whether the path is a file system root (nothing to strip).
func (p FilePath) IsRootPath() bool {
	return p.root != "" && p.path == ""
}

// IsSameDevice reports whether p and other live on the same device.
func (p FilePath) IsSameDevice(other FilePath) bool {
	return p.scheme == other.scheme && p.host == other.host
}

// WithNewPath keeps the device identity of p and replaces root and path.
func (p FilePath) WithNewPath(rootAndPath string) FilePath {
	root, rest := splitRootAndPath(rootAndPath, HostOS())
	return FilePath{scheme: p.scheme, host: p.host, root: root, path: rest}
}

// OnDevice projects p onto the device of deviceTemplate, keeping root and path.
// A path already on that device is returned unchanged.
func (p FilePath) OnDevice(deviceTemplate FilePath) FilePath {
	if p.IsSameDevice(deviceTemplate) {
		return p
	}
	assertf(p.IsLocal() || deviceTemplate.IsLocal(),
		"moving a path between two remote devices is not supported",
		"path", p.String(), "template", deviceTemplate.String())
	return FilePath{scheme: deviceTemplate.scheme, host: deviceTemplate.host, root: p.root, path: p.path}
}

// withRootAndPath returns a copy of p with the given root and path parts.
func (p FilePath) withRootAndPath(root, rest string) FilePath {
	return FilePath{scheme: p.scheme, host: p.host, root: root, path: rest}
}
