//go:build fspathdebug

package fspath

const debugAssertions = true
