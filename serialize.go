package fspath

import (
	"net/url"
	"strings"
)

// String returns the internal string form of p.
//
// Local paths are returned as root+path. Device paths use the encoded form
// RootPath() + DeviceMarker + "/scheme/host" followed by root+path, with
// "/./" marking a device-relative path. The result parses back to p.
func (p FilePath) String() string {
	if p.IsLocal() {
		return p.RootAndPath()
	}
	var b strings.Builder
	b.WriteString(RootPath())
	b.WriteString(DeviceMarker)
	b.WriteByte('/')
	b.WriteString(p.scheme)
	b.WriteByte('/')
	b.WriteString(encodeHost(p.host))
	p.writeDeviceRootAndPath(&b)
	return b.String()
}

// writeDeviceRootAndPath appends the part after the host of a device path.
func (p FilePath) writeDeviceRootAndPath(b *strings.Builder) {
	switch {
	case p.root == "":
		b.WriteString("/./")
	case !strings.HasPrefix(p.root, "/"):
		b.WriteByte('/')
	}
	b.WriteString(p.RootAndPath())
}

// NativePath returns root+path without device identity, using the separators
// of the host OS. It is meant for local paths; for device paths use
// MapToDevicePath, which renders the path the way the device's OS expects,
// or NativePathFor when the device OS is already known.
func (p FilePath) NativePath() string {
	return p.NativePathFor(HostOS())
}

// NativePathFor returns root+path with the separators of osType. This is the
// form to hand to a process running on the device p belongs to.
func (p FilePath) NativePathFor(osType OSType) string {
	s := p.RootAndPath()
	if osType == OSTypeWindows {
		s = strings.ReplaceAll(s, "/", `\`)
	}
	return s
}

// ToUserOutput returns the form shown to users: "scheme://host/path" for
// device paths and the native form for local paths.
func (p FilePath) ToUserOutput() string {
	if p.IsLocal() {
		return p.NativePath()
	}
	var b strings.Builder
	b.WriteString(p.scheme)
	b.WriteString("://")
	b.WriteString(encodeHost(p.host))
	p.writeDeviceRootAndPath(&b)
	return b.String()
}

// DisplayName returns the native string followed by args and, for device
// paths, " on <device display name>". The device name comes from the
// default registry.
func (p FilePath) DisplayName(args ...string) string {
	return Default().displayName(p, args...)
}

// ToURL maps scheme, host and root+path onto a URL. A device-relative path
// keeps its "/./" marker so FromURL restores it as relative.
func (p FilePath) ToURL() *url.URL {
	path := p.RootAndPath()
	if p.scheme != "" && p.root == "" && p.path != "" {
		path = "/./" + p.path
	}
	return &url.URL{Scheme: p.scheme, Host: p.host, Path: path}
}

// FromURL is the inverse of ToURL. The "file" scheme maps to a local path.
func FromURL(u *url.URL) FilePath {
	if u == nil {
		return FilePath{}
	}
	scheme, host := u.Scheme, u.Host
	if scheme == "file" {
		scheme, host = "", ""
	}
	osType := HostOS()
	if scheme != "" {
		osType = OSTypeOther
	}
	var root, rest string
	if strings.HasPrefix(u.Path, "/") {
		root, rest = splitDevicePath(u.Path, osType)
	} else {
		root, rest = splitRootAndPath(u.Path, osType)
	}
	if scheme != "" && root == "" && rest == "" {
		root = "/"
	}
	return FilePath{scheme: scheme, host: host, root: root, path: rest}
}

// MarshalText implements encoding.TextMarshaler using the internal string form.
func (p FilePath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *FilePath) UnmarshalText(text []byte) error {
	*p = FromString(string(text))
	return nil
}
