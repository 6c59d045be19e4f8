// Package keys maps slash-separated paths to S3 object keys.
package keys

import (
	"path"
	"strings"
)

// Normalize cleans p and trims leading and trailing slashes. Backslashes are
// treated as separators. Returns "" for the bucket root.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.Trim(path.Clean("/"+p), "/")
	return p
}

// Join joins a normalized prefix with name to create a full object key.
func Join(prefix, name string) string {
	name = Normalize(name)
	switch {
	case name == "":
		return prefix
	case prefix == "":
		return name
	default:
		return prefix + "/" + name
	}
}

// Dir returns key as a listing prefix ending in "/". The bucket root stays "".
func Dir(key string) string {
	if key == "" || strings.HasSuffix(key, "/") {
		return key
	}
	return key + "/"
}

// Child returns the immediate child name of an object key listed under
// prefix and whether it denotes a directory.
func Child(prefix, key string) (string, bool) {
	rel := strings.TrimPrefix(key, prefix)
	if name, ok := strings.CutSuffix(rel, "/"); ok {
		return name, true
	}
	return rel, false
}
