// Package fspath provides FilePath, a value type naming a file on the local
// machine or on a remote device such as a container, an SSH host, an
// object store bucket or a git revision.
//
// A FilePath is made of a scheme and host, which identify the device, and a
// root and path, which locate the object on it. Local paths have an empty
// scheme and host. Path values are immutable and never touch the file system
// by themselves; the pure operations (parsing, serializing, joining,
// comparing) work the same for every device.
//
// # String forms
//
// Three textual forms are recognized by FromString:
//
//	/home/user/file.txt                          local
//	docker://container/etc/hosts                 pseudo-URL (user facing)
//	/__devices__/docker/container/etc/hosts      encoded (what String returns)
//
// String always produces the encoded form for device paths, so that paths
// round-trip through code that only understands plain strings.
//
// # Devices
//
// File system operations dispatch on the scheme through a Registry. The
// local device is always present; other devices are registered at startup:
//
//	if err := fspath.Init(s3dev, sshdev); err != nil {
//	    return err
//	}
//	defer fspath.Shutdown()
//
//	p := fspath.FromString("s3://bucket/reports/q3.csv")
//	data, err := p.ReadContents(ctx)
//
// A different registry can be attached to a context with WithRegistry.
// Operations on a device path whose scheme is not registered fail with
// ErrNoDevice; building with the fspathdebug tag turns that into a panic.
//
// Device implementations live in the device/ subpackages. New devices embed
// UnsupportedDevice and override what they support; the fstest package
// checks them against the behavior of the local device.
package fspath
