package fspath

import (
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// DeviceMarker is the reserved path segment under RootPath that carries
// scheme and host in the encoded form of device paths:
//
//	/__devices__/<scheme>/<percent-encoded host>/<root and path>
const DeviceMarker = "__devices__"

// RootPath returns the root of the host file system, always with a trailing
// slash ("/" on Unix, the system drive such as "C:/" on Windows).
func RootPath() string {
	if HostOS() != OSTypeWindows {
		return "/"
	}
	drive := os.Getenv("SystemDrive")
	if len(drive) != 2 || drive[1] != ':' {
		drive = "C:"
	}
	return drive + "/"
}

// FromString parses text with the rules of the host OS. See Parse.
func FromString(text string) FilePath {
	return Parse(text, HostOS())
}

// Parse turns text into a FilePath. It never fails: unrecognized input ends
// up as an opaque relative path. Recognized forms, in order:
//
//  1. the encoded device form, RootPath() + DeviceMarker + "/scheme/host/...",
//  2. the pseudo-URL form, "scheme://host/...",
//  3. a plain root/path split following osType.
func Parse(text string, osType OSType) FilePath {
	if p, ok := parseEncodedDevice(text, osType); ok {
		return p
	}
	if p, ok := parsePseudoURL(text, osType); ok {
		return p
	}
	root, rest := splitRootAndPath(text, osType)
	return FilePath{root: root, path: rest}
}

// FromUserInput parses text typed by a user. Both slash directions are
// accepted, a leading "~" expands to the user's home directory and the
// result is dot-cleaned.
func FromUserInput(text string) FilePath {
	text = strings.ReplaceAll(text, `\`, "/")
	if text == "~" || strings.HasPrefix(text, "~/") {
		if home, err := homedir.Dir(); err == nil {
			tail := strings.TrimPrefix(strings.TrimPrefix(text, "~"), "/")
			return FromString(home).PathAppended(tail).CleanPath()
		}
	}
	return FromString(text).CleanPath()
}

func parseEncodedDevice(text string, osType OSType) (FilePath, bool) {
	prefix := RootPath() + DeviceMarker + "/"
	if len(text) < len(prefix) || !strings.EqualFold(text[:len(prefix)], prefix) {
		return FilePath{}, false
	}
	rest := text[len(prefix):]

	schemeEnd := strings.IndexByte(rest, '/')
	if schemeEnd <= 0 {
		// Truncated: keep the whole text as an opaque local path.
		return FilePath{path: text}, true
	}
	scheme := rest[:schemeEnd]
	rest = rest[schemeEnd+1:]

	hostEnd := strings.IndexByte(rest, '/')
	if hostEnd < 0 {
		return FilePath{scheme: scheme, host: decodeHost(rest), root: "/"}, true
	}
	root, remainder := splitDevicePath(rest[hostEnd:], osType)
	return FilePath{scheme: scheme, host: decodeHost(rest[:hostEnd]), root: root, path: remainder}, true
}

func parsePseudoURL(text string, osType OSType) (FilePath, bool) {
	schemeEnd := strings.Index(text, "://")
	if schemeEnd < 2 {
		// A single letter before "://" is a drive, not a scheme.
		return FilePath{}, false
	}
	if firstSlash := strings.IndexByte(text, '/'); firstSlash < schemeEnd {
		return FilePath{}, false
	}
	scheme := text[:schemeEnd]
	rest := text[schemeEnd+3:]

	hostEnd := strings.IndexByte(rest, '/')
	if hostEnd < 0 {
		return FilePath{scheme: scheme, host: decodeHost(rest), root: "/"}, true
	}
	root, remainder := splitDevicePath(rest[hostEnd:], osType)
	return FilePath{scheme: scheme, host: decodeHost(rest[:hostEnd]), root: root, path: remainder}, true
}

// splitDevicePath splits the part following the host. It always starts with
// '/'; on Windows devices a drive letter may follow that slash.
func splitDevicePath(text string, osType OSType) (string, string) {
	if osType == OSTypeWindows && len(text) > 1 {
		if _, _, ok := splitDrive(text[1:]); ok {
			return splitRootAndPath(text[1:], osType)
		}
	}
	return splitRootAndPath(text, osType)
}

// splitRootAndPath separates the absolute prefix from the rest of text.
func splitRootAndPath(text string, osType OSType) (root, rest string) {
	if osType == OSTypeWindows {
		text = strings.ReplaceAll(text, `\`, "/")
	}
	if strings.HasPrefix(text, "/./") {
		return "", text[3:]
	}
	if osType == OSTypeWindows {
		if root, rest, ok := splitUNC(text); ok {
			return root, rest
		}
		if root, rest, ok := splitDrive(text); ok {
			return root, rest
		}
	}
	switch {
	case strings.HasPrefix(text, "/"):
		return "/", text[1:]
	case strings.HasPrefix(text, ":/"):
		return ":/", text[2:]
	case strings.HasPrefix(text, ":"):
		return ":", text[1:]
	default:
		return "", text
	}
}

// splitUNC matches "//server/share[/rest]".
func splitUNC(text string) (root, rest string, ok bool) {
	if !strings.HasPrefix(text, "//") {
		return "", "", false
	}
	remainder := text[2:]
	serverEnd := strings.IndexByte(remainder, '/')
	if serverEnd <= 0 {
		return "", "", false
	}
	share := remainder[serverEnd+1:]
	shareEnd := strings.IndexByte(share, '/')
	switch {
	case shareEnd == 0 || share == "":
		return "", "", false
	case shareEnd < 0:
		return text + "/", "", true
	default:
		n := 2 + serverEnd + 1 + shareEnd + 1
		return text[:n], text[n:], true
	}
}

// splitDrive matches "X:" and "X:/rest".
func splitDrive(text string) (root, rest string, ok bool) {
	if len(text) < 2 || text[1] != ':' || !isASCIILetter(text[0]) {
		return "", "", false
	}
	if len(text) == 2 {
		return text + "/", "", true
	}
	if text[2] != '/' {
		return "", "", false
	}
	return text[:3], text[3:], true
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

var (
	hostDecoder = strings.NewReplacer("%2f", "/", "%2F", "/", "%25", "%")
	hostEncoder = strings.NewReplacer("%", "%25", "/", "%2f")
)

func decodeHost(host string) string {
	return hostDecoder.Replace(host)
}

func encodeHost(host string) string {
	return hostEncoder.Replace(host)
}
