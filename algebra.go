package fspath

import (
	"context"
	"os"
	"path"
	"strings"
)

// uiQMLSuffix is treated as a single, indivisible suffix.
const uiQMLSuffix = ".ui.qml"

// FileName returns the last '/'-separated segment of the path.
func (p FilePath) FileName() string {
	return p.path[strings.LastIndexByte(p.path, '/')+1:]
}

// BaseName returns the file name up to, not including, the first '.'.
func (p FilePath) BaseName() string {
	name := p.FileName()
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// CompleteBaseName returns the file name up to, not including, the last '.'.
func (p FilePath) CompleteBaseName() string {
	name := p.FileName()
	if strings.HasSuffix(name, uiQMLSuffix) {
		return name[:len(name)-len(uiQMLSuffix)]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// Suffix returns the file name part after the last '.'.
func (p FilePath) Suffix() string {
	name := p.FileName()
	if strings.HasSuffix(name, uiQMLSuffix) {
		return uiQMLSuffix[1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// CompleteSuffix returns the file name part after the first '.'.
func (p FilePath) CompleteSuffix() string {
	name := p.FileName()
	if strings.HasSuffix(name, uiQMLSuffix) {
		return uiQMLSuffix[1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// StringAppended appends s to the path text as-is, without a separator.
func (p FilePath) StringAppended(s string) FilePath {
	return p.withRootAndPath(p.root, p.path+s)
}

// StartsWith reports whether root+path starts with s.
func (p FilePath) StartsWith(s string) bool {
	return strings.HasPrefix(p.RootAndPath(), s)
}

// EndsWith reports whether root+path ends with s.
func (p FilePath) EndsWith(s string) bool {
	return strings.HasSuffix(p.RootAndPath(), s)
}

// PathAppended parses tail and joins its root+path onto p with exactly one
// '/' between them. The device identity of tail is ignored. An empty tail
// returns p; an empty p returns the parsed tail.
func (p FilePath) PathAppended(tail string) FilePath {
	if tail == "" {
		return p
	}
	other := FromString(tail)
	if p.IsEmpty() {
		return other
	}
	return p.appended(other.RootAndPath())
}

func (p FilePath) appended(tail string) FilePath {
	return p.withRootAndPath(p.root, joinPath(p.path, tail))
}

// joinPath joins left and right with exactly one '/'.
func joinPath(left, right string) string {
	right = strings.TrimPrefix(right, "/")
	if left == "" || strings.HasSuffix(left, "/") {
		return left + right
	}
	return left + "/" + right
}

// ResolvePath returns tail if it is absolute, otherwise tail appended to p.
func (p FilePath) ResolvePath(tail FilePath) FilePath {
	if tail.IsAbsolutePath() {
		return tail
	}
	if tail.path == "" {
		return p
	}
	if p.IsEmpty() {
		return tail
	}
	return p.appended(tail.path)
}

// ResolvePathString dot-cleans tail and resolves it against p.
func (p FilePath) ResolvePathString(tail string) FilePath {
	return p.ResolvePath(FromString(tail).CleanPath())
}

// CleanPath removes "." segments, collapses ".." against preceding segments
// and repeated separators in the path part. The root is left untouched.
// A relative path that cleans to nothing becomes ".".
func (p FilePath) CleanPath() FilePath {
	return p.withRootAndPath(p.root, cleanSegments(p.path, p.root != ""))
}

func cleanSegments(s string, absolute bool) string {
	if s == "" {
		return ""
	}
	if absolute {
		// ".." cannot climb above the root.
		return path.Clean("/" + s)[1:]
	}
	return path.Clean(s)
}

// ParentDir returns the directory containing p. It returns the empty path
// for the empty path and for roots, and whenever stripping the last segment
// would not change anything.
func (p FilePath) ParentDir() FilePath {
	if p.root == "" && p.path == "" {
		return FilePath{}
	}
	if p.IsRootPath() {
		return FilePath{}
	}
	parent := p.withRootAndPath(p.root, cleanSegments(p.path+"/..", p.root != ""))
	if parent.path == p.path {
		return FilePath{}
	}
	return parent
}

// AbsoluteFilePath returns p if it is absolute. Local relative paths are
// resolved against the process working directory and cleaned; relative
// device paths are returned unchanged since the device working directory is
// not known.
func (p FilePath) AbsoluteFilePath() FilePath {
	if p.IsAbsolutePath() || p.NeedsDevice() {
		return p
	}
	cwd, err := os.Getwd()
	if err != nil {
		return p
	}
	return FromString(cwd).ResolvePath(p).CleanPath()
}

// AbsolutePath returns the absolute directory containing p.
func (p FilePath) AbsolutePath() FilePath {
	if p.IsAbsolutePath() {
		return p.ParentDir()
	}
	return p.AbsoluteFilePath().ParentDir()
}

// CalcRelativePath returns the path of fromAbsoluteDir relative to
// toAbsoluteDir. Both are '/'-separated absolute paths. The result is "."
// when they are the same and empty when either input is empty.
//
//	CalcRelativePath("/foo/b/ar", "/foo/c") == "../b/ar"
func CalcRelativePath(fromAbsoluteDir, toAbsoluteDir string) string {
	if fromAbsoluteDir == "" || toAbsoluteDir == "" {
		return ""
	}
	from := strings.Split(fromAbsoluteDir, "/")
	to := strings.Split(toAbsoluteDir, "/")

	i := 0
	for i < len(from) && i < len(to) && from[i] == to[i] {
		i++
	}

	var parts []string
	for _, seg := range to[i:] {
		if seg != "" {
			parts = append(parts, "..")
		}
	}
	for _, seg := range from[i:] {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

// RelativePath returns p relative to anchor. Both are classified as file or
// directory on their device; the empty path is returned if either does not
// exist or they live on different devices.
func (p FilePath) RelativePath(ctx context.Context, anchor FilePath) FilePath {
	if !assertf(p.IsSameDevice(anchor), "relative path across devices",
		"path", p.String(), "anchor", anchor.String()) {
		return FilePath{}
	}

	var absPath FilePath
	var fileName string
	switch {
	case p.IsFile(ctx):
		absPath = p.AbsolutePath()
		fileName = p.FileName()
	case p.IsDir(ctx):
		absPath = p.AbsoluteFilePath()
	default:
		return FilePath{}
	}

	var absAnchor FilePath
	switch {
	case anchor.IsFile(ctx):
		absAnchor = anchor.AbsolutePath()
	case anchor.IsDir(ctx):
		absAnchor = anchor.AbsoluteFilePath()
	default:
		return FilePath{}
	}

	rel := CalcRelativePath(absPath.RootAndPath(), absAnchor.RootAndPath())
	if fileName != "" {
		if rel == "." {
			rel = ""
		}
		rel = joinPath(rel, fileName)
	}
	return FilePath{path: rel}
}

// IsChildOf reports whether p lies strictly below parent on the same device.
// "/tmp/dir" is a child of "/tmp", "/tmp/dirx" is not a child of "/tmp/dir".
func (p FilePath) IsChildOf(parent FilePath) bool {
	if parent.IsEmpty() || !p.IsSameDevice(parent) {
		return false
	}
	cs := p.CaseSensitivity()
	if !equalStrings(p.root, parent.root, cs) {
		return false
	}
	self, base := p.RootAndPath(), parent.RootAndPath()
	if len(self) <= len(base) || !equalStrings(self[:len(base)], base, cs) {
		return false
	}
	if strings.HasSuffix(base, "/") {
		return true
	}
	return self[len(base)] == '/'
}

// RelativeChildPath returns p relative to parent, keeping p's device
// identity, or the empty path if p is not a child of parent.
func (p FilePath) RelativeChildPath(parent FilePath) FilePath {
	if !p.IsChildOf(parent) {
		return FilePath{}
	}
	rest := p.RootAndPath()[len(parent.RootAndPath()):]
	return FilePath{scheme: p.scheme, host: p.host, path: strings.TrimPrefix(rest, "/")}
}
