package fspath

import (
	"context"
	stderrors "errors"
	"io/fs"
	"time"

	"github.com/jmgilman/go/fspath/errors"
)

var (
	// ErrNotSupported is returned by devices for operations they do not implement.
	// It matches errors.ErrUnsupported from the standard library.
	ErrNotSupported = errors.Wrap(stderrors.ErrUnsupported, errors.CodeNotSupported, "operation not supported by device")

	// ErrNoDevice is returned for device paths whose scheme has no registered device.
	ErrNoDevice = errors.New(errors.CodeNoDevice, "no device registered for scheme")

	// ErrUnsafeRemoval is returned when recursive removal of the file system
	// root or the user's home directory is refused.
	ErrUnsafeRemoval = errors.New(errors.CodeUnsafeOperation, "refusing to remove directory recursively")
)

// Device is the contract a file system backend implements so that paths
// with its scheme can be queried and modified.
//
// Every method receives the full FilePath (scheme and host included) and
// returns what the equivalent local operation would return. Devices that
// cannot perform an operation return ErrNotSupported, or false for
// predicates; embedding UnsupportedDevice provides those defaults.
//
// Implementations must be safe for concurrent use.
type Device interface {
	// Scheme returns the scheme this device serves; empty for the local device.
	Scheme() string

	// DisplayName returns a human-readable name for the device p lives on.
	DisplayName(p FilePath) string

	// OSType returns the OS family of the device p lives on.
	OSType(ctx context.Context, p FilePath) OSType

	Exists(ctx context.Context, p FilePath) bool
	IsFile(ctx context.Context, p FilePath) bool
	IsDir(ctx context.Context, p FilePath) bool
	IsReadableFile(ctx context.Context, p FilePath) bool
	IsReadableDir(ctx context.Context, p FilePath) bool
	IsWritableFile(ctx context.Context, p FilePath) bool
	IsWritableDir(ctx context.Context, p FilePath) bool
	IsExecutableFile(ctx context.Context, p FilePath) bool

	// CreateDir creates p and any missing parents.
	CreateDir(ctx context.Context, p FilePath) error

	// EnsureWritableDir succeeds if p is a writable directory, creating it if needed.
	EnsureWritableDir(ctx context.Context, p FilePath) error

	// EnsureExistingFile creates p as an empty file unless it already exists.
	EnsureExistingFile(ctx context.Context, p FilePath) error

	// IterateDirectory calls fn for each entry below p accepted by filter,
	// until fn returns IterationStop.
	IterateDirectory(ctx context.Context, p FilePath, fn IterateFunc, filter FileFilter) error

	// ReadContents reads up to limit bytes (all if limit < 0) starting at offset.
	ReadContents(ctx context.Context, p FilePath, limit, offset int64) ([]byte, error)

	// WriteContents truncates or creates p and writes data, returning the byte count.
	WriteContents(ctx context.Context, p FilePath, data []byte) (int64, error)

	// CopyFile copies src to dst; both are on this device.
	CopyFile(ctx context.Context, src, dst FilePath) error

	// RenameFile moves src to dst; both are on this device.
	RenameFile(ctx context.Context, src, dst FilePath) error

	// RemoveFile removes a single file or empty directory.
	RemoveFile(ctx context.Context, p FilePath) error

	// RemoveRecursively removes p and everything below it. The device owns
	// the safety policy for its own paths.
	RemoveRecursively(ctx context.Context, p FilePath) error

	Permissions(ctx context.Context, p FilePath) (fs.FileMode, error)
	SetPermissions(ctx context.Context, p FilePath, mode fs.FileMode) error
	LastModified(ctx context.Context, p FilePath) (time.Time, error)
	FileSize(ctx context.Context, p FilePath) (int64, error)

	// FreeSpace returns the bytes available to the caller on the volume holding p.
	FreeSpace(ctx context.Context, p FilePath) (int64, error)

	// SymlinkTarget returns the immediate target of the link p, or the empty
	// path with a nil error when p is not a symbolic link.
	SymlinkTarget(ctx context.Context, p FilePath) (FilePath, error)

	// MapToDevicePath returns p as a program running on the device would spell it.
	MapToDevicePath(p FilePath) string

	// SearchInPath looks for an executable called name in dirs and then in
	// the device PATH. p identifies the device.
	SearchInPath(ctx context.Context, p FilePath, name string, dirs []FilePath) (FilePath, error)

	// Environment returns a snapshot of the device environment.
	Environment(ctx context.Context, p FilePath) (Environment, error)
}

// AsyncDevice is implemented by devices that schedule content transfers
// themselves. Each returned future completes exactly once. Devices without
// it get futures backed by a goroutine running the synchronous method.
type AsyncDevice interface {
	ReadContentsAsync(ctx context.Context, p FilePath, limit, offset int64) *Future[[]byte]
	WriteContentsAsync(ctx context.Context, p FilePath, data []byte) *Future[int64]
	CopyFileAsync(ctx context.Context, src, dst FilePath) *Future[FilePath]
}

// UnsupportedDevice implements every Device method except Scheme with a
// "not supported" result. Embed it to implement a subset of the contract.
//
// Err overrides the returned error; nil means ErrNotSupported.
type UnsupportedDevice struct {
	Err error
}

func (u UnsupportedDevice) err() error {
	if u.Err != nil {
		return u.Err
	}
	return ErrNotSupported
}

func (UnsupportedDevice) DisplayName(p FilePath) string {
	return p.Scheme() + ":" + p.Host()
}

func (UnsupportedDevice) OSType(context.Context, FilePath) OSType { return OSTypeOther }

func (UnsupportedDevice) Exists(context.Context, FilePath) bool           { return false }
func (UnsupportedDevice) IsFile(context.Context, FilePath) bool           { return false }
func (UnsupportedDevice) IsDir(context.Context, FilePath) bool            { return false }
func (UnsupportedDevice) IsReadableFile(context.Context, FilePath) bool   { return false }
func (UnsupportedDevice) IsReadableDir(context.Context, FilePath) bool    { return false }
func (UnsupportedDevice) IsWritableFile(context.Context, FilePath) bool   { return false }
func (UnsupportedDevice) IsWritableDir(context.Context, FilePath) bool    { return false }
func (UnsupportedDevice) IsExecutableFile(context.Context, FilePath) bool { return false }

func (u UnsupportedDevice) CreateDir(context.Context, FilePath) error          { return u.err() }
func (u UnsupportedDevice) EnsureWritableDir(context.Context, FilePath) error  { return u.err() }
func (u UnsupportedDevice) EnsureExistingFile(context.Context, FilePath) error { return u.err() }

func (u UnsupportedDevice) IterateDirectory(context.Context, FilePath, IterateFunc, FileFilter) error {
	return u.err()
}

func (u UnsupportedDevice) ReadContents(context.Context, FilePath, int64, int64) ([]byte, error) {
	return nil, u.err()
}

func (u UnsupportedDevice) WriteContents(context.Context, FilePath, []byte) (int64, error) {
	return 0, u.err()
}

func (u UnsupportedDevice) CopyFile(context.Context, FilePath, FilePath) error   { return u.err() }
func (u UnsupportedDevice) RenameFile(context.Context, FilePath, FilePath) error { return u.err() }
func (u UnsupportedDevice) RemoveFile(context.Context, FilePath) error           { return u.err() }
func (u UnsupportedDevice) RemoveRecursively(context.Context, FilePath) error    { return u.err() }

func (u UnsupportedDevice) Permissions(context.Context, FilePath) (fs.FileMode, error) {
	return 0, u.err()
}

func (u UnsupportedDevice) SetPermissions(context.Context, FilePath, fs.FileMode) error {
	return u.err()
}

func (u UnsupportedDevice) LastModified(context.Context, FilePath) (time.Time, error) {
	return time.Time{}, u.err()
}

func (u UnsupportedDevice) FileSize(context.Context, FilePath) (int64, error)  { return 0, u.err() }
func (u UnsupportedDevice) FreeSpace(context.Context, FilePath) (int64, error) { return 0, u.err() }

func (u UnsupportedDevice) SymlinkTarget(context.Context, FilePath) (FilePath, error) {
	return FilePath{}, u.err()
}

func (UnsupportedDevice) MapToDevicePath(p FilePath) string { return p.RootAndPath() }

func (u UnsupportedDevice) SearchInPath(context.Context, FilePath, string, []FilePath) (FilePath, error) {
	return FilePath{}, u.err()
}

func (u UnsupportedDevice) Environment(context.Context, FilePath) (Environment, error) {
	return Environment{}, u.err()
}
