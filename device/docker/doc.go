// Package docker provides an fspath.Device for files inside running
// containers, reached through "docker exec".
//
// The host of a path is the container name or ID. A user may precede it:
//
//	docker://web/etc/nginx/nginx.conf
//	docker://postgres@db/var/lib/postgresql/data/PG_VERSION
//
// Every operation is a small POSIX command (stat, find, cat, mkdir, mv, rm)
// run in the container, so images need a shell and coreutils or busybox.
// Errors are classified from the command's diagnostics, so a missing file
// reports errors.CodeNotFound as it does on the local device.
//
// Config.Binary selects another CLI with the same exec syntax, such as
// podman. Config.Executor replaces process execution, which tests use to
// run the commands locally.
package docker
