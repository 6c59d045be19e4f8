package fspath

import (
	"fmt"
	"log/slog"
)

// assertf reports a programmer error. Release builds log it and carry on with
// the caller's safe default; builds tagged fspathdebug panic instead.
func assertf(cond bool, msg string, args ...any) bool {
	if cond {
		return true
	}
	slog.Default().Error("fspath: assertion failed: "+msg, args...)
	if debugAssertions {
		panic(fmt.Sprintf("fspath: %s %v", msg, args))
	}
	return false
}
