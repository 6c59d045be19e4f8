// Package billyfs provides an fspath.Device backed by go-billy file systems.
//
// Each host of the device's scheme is an independent billy.Filesystem, so
// "mem://build/out.txt" and "mem://cache/out.txt" never collide. NewMemory
// creates empty memfs hosts on first use, which is convenient for tests
// and scratch space. NewLocal maps hosts to directories on disk with osfs,
// chrooted so that paths cannot escape their host directory.
//
// Usage:
//
//	dev := billyfs.NewMemory("mem")
//	if err := fspath.Init(dev); err != nil {
//	    return err
//	}
//	defer fspath.Shutdown()
//
//	p := fspath.FromString("mem://scratch/notes.txt")
//	_, err := p.WriteContents(ctx, []byte("hello"))
//
// # go-git Integration
//
// Unwrap returns the billy.Filesystem behind a host so it can be passed to
// go-git APIs that require one.
//
// # Thread Safety
//
// Device is safe for concurrent use. Whether concurrent writes to the same
// file are safe depends on the underlying billy.Filesystem.
package billyfs
