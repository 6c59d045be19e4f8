//go:build unix

package fspath

import "golang.org/x/sys/unix"

const (
	accessRead    = unix.R_OK
	accessWrite   = unix.W_OK
	accessExecute = unix.X_OK
)

func canAccess(name string, mode uint32) bool {
	return unix.Access(name, mode) == nil
}
