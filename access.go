package fspath

import (
	"context"
	"io/fs"
	"time"

	"github.com/jmgilman/go/fspath/errors"
)

// device returns the device p dispatches to for operations under ctx.
func (p FilePath) device(ctx context.Context) Device {
	return RegistryFrom(ctx).DeviceFor(p)
}

// OSType returns the OS family of the device p lives on.
func (p FilePath) OSType(ctx context.Context) OSType {
	if p.IsLocal() {
		return HostOS()
	}
	return p.device(ctx).OSType(ctx, p)
}

// Exists reports whether p names an existing file system object.
// The empty path never exists.
func (p FilePath) Exists(ctx context.Context) bool {
	return !p.IsEmpty() && p.device(ctx).Exists(ctx, p)
}

func (p FilePath) IsFile(ctx context.Context) bool {
	return !p.IsEmpty() && p.device(ctx).IsFile(ctx, p)
}

func (p FilePath) IsDir(ctx context.Context) bool {
	return !p.IsEmpty() && p.device(ctx).IsDir(ctx, p)
}

func (p FilePath) IsReadableFile(ctx context.Context) bool {
	return !p.IsEmpty() && p.device(ctx).IsReadableFile(ctx, p)
}

func (p FilePath) IsReadableDir(ctx context.Context) bool {
	return !p.IsEmpty() && p.device(ctx).IsReadableDir(ctx, p)
}

func (p FilePath) IsWritableFile(ctx context.Context) bool {
	return !p.IsEmpty() && p.device(ctx).IsWritableFile(ctx, p)
}

func (p FilePath) IsWritableDir(ctx context.Context) bool {
	return !p.IsEmpty() && p.device(ctx).IsWritableDir(ctx, p)
}

func (p FilePath) IsExecutableFile(ctx context.Context) bool {
	return !p.IsEmpty() && p.device(ctx).IsExecutableFile(ctx, p)
}

// CreateDir creates p and any missing parent directories.
func (p FilePath) CreateDir(ctx context.Context) error {
	return p.device(ctx).CreateDir(ctx, p)
}

// EnsureWritableDir makes sure p is a writable directory, creating it if needed.
func (p FilePath) EnsureWritableDir(ctx context.Context) error {
	return p.device(ctx).EnsureWritableDir(ctx, p)
}

// EnsureExistingFile creates p as an empty file if it does not exist yet.
func (p FilePath) EnsureExistingFile(ctx context.Context) error {
	return p.device(ctx).EnsureExistingFile(ctx, p)
}

// RenameFile moves p to target. Moves across devices copy the contents and
// remove the source afterwards.
func (p FilePath) RenameFile(ctx context.Context, target FilePath) error {
	if p.IsSameDevice(target) {
		return p.device(ctx).RenameFile(ctx, p, target)
	}
	if err := p.CopyFile(ctx, target); err != nil {
		return err
	}
	return p.RemoveFile(ctx)
}

// RemoveFile removes the single file (or empty directory) p.
func (p FilePath) RemoveFile(ctx context.Context) error {
	return p.device(ctx).RemoveFile(ctx, p)
}

// RemoveRecursively removes p and everything below it. Local removal of the
// file system root or the home directory fails with ErrUnsafeRemoval.
func (p FilePath) RemoveRecursively(ctx context.Context) error {
	return p.device(ctx).RemoveRecursively(ctx, p)
}

func (p FilePath) Permissions(ctx context.Context) (fs.FileMode, error) {
	return p.device(ctx).Permissions(ctx, p)
}

func (p FilePath) SetPermissions(ctx context.Context, mode fs.FileMode) error {
	return p.device(ctx).SetPermissions(ctx, p, mode)
}

func (p FilePath) LastModified(ctx context.Context) (time.Time, error) {
	return p.device(ctx).LastModified(ctx, p)
}

func (p FilePath) FileSize(ctx context.Context) (int64, error) {
	return p.device(ctx).FileSize(ctx, p)
}

// FreeSpace returns the bytes available on the volume holding p.
func (p FilePath) FreeSpace(ctx context.Context) (int64, error) {
	return p.device(ctx).FreeSpace(ctx, p)
}

// MapToDevicePath returns p spelled the way programs on its device expect.
func (p FilePath) MapToDevicePath(ctx context.Context) string {
	return p.device(ctx).MapToDevicePath(p)
}

// Environment returns the environment of the device p lives on.
func (p FilePath) Environment(ctx context.Context) (Environment, error) {
	return p.device(ctx).Environment(ctx, p)
}

// SearchInPath looks for an executable called name in dirs and then in the
// PATH of p's device. Devices that do not implement the lookup fall back to
// probing candidates with IsExecutableFile.
func (p FilePath) SearchInPath(ctx context.Context, name string, dirs ...FilePath) (FilePath, error) {
	d := p.device(ctx)
	found, err := d.SearchInPath(ctx, p, name, dirs)
	if !errors.Is(err, ErrNotSupported) {
		return found, err
	}

	env, err := d.Environment(ctx, p)
	if err != nil {
		env = NewEnvironment(d.OSType(ctx, p), nil)
	}
	found = SearchInDirectories(ctx, p, name, env, dirs)
	if found.IsEmpty() {
		return FilePath{}, errors.WithContext(errors.Newf(errors.CodeNotFound, "executable %q not found", name), "device", p.Scheme())
	}
	return found, nil
}
