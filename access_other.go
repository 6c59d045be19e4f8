//go:build !unix

package fspath

import (
	"os"
	"strings"
)

const (
	accessRead uint32 = 1 << iota
	accessWrite
	accessExecute
)

// canAccess approximates access(2) with the mode bits reported by Stat.
// Executability follows the ".exe" suffix on Windows.
func canAccess(name string, mode uint32) bool {
	info, err := os.Stat(name)
	if err != nil {
		return false
	}
	perm := info.Mode().Perm()
	if mode&accessRead != 0 && perm&0o444 == 0 {
		return false
	}
	if mode&accessWrite != 0 && perm&0o222 == 0 {
		return false
	}
	if mode&accessExecute != 0 && !info.IsDir() {
		suffix := HostOS().ExecutableSuffix()
		if suffix != "" {
			return strings.HasSuffix(strings.ToLower(name), suffix)
		}
		return perm&0o111 != 0
	}
	return true
}
