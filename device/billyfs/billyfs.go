package billyfs

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
)

// Device serves paths of one scheme from go-billy file systems, one per host.
type Device struct {
	fspath.UnsupportedDevice

	scheme  string
	factory func(host string) (billy.Filesystem, error)
	logger  *slog.Logger

	mu    sync.Mutex
	hosts map[string]billy.Filesystem
}

var _ fspath.Device = (*Device)(nil)

// Option configures a Device.
type Option func(*Device)

// WithFilesystem serves host from bfs.
func WithFilesystem(host string, bfs billy.Filesystem) Option {
	return func(d *Device) {
		d.hosts[host] = bfs
	}
}

// WithFactory creates file systems on first use for hosts that were not
// configured with WithFilesystem.
func WithFactory(factory func(host string) (billy.Filesystem, error)) Option {
	return func(d *Device) {
		d.factory = factory
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Device) {
		d.logger = logger
	}
}

// New creates a device for scheme. Without WithFactory, only hosts added
// with WithFilesystem resolve.
func New(scheme string, opts ...Option) *Device {
	d := &Device{
		scheme: scheme,
		logger: slog.New(slog.DiscardHandler),
		hosts:  make(map[string]billy.Filesystem),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewMemory creates a device whose hosts are independent in-memory file
// systems, created empty on first use.
func NewMemory(scheme string, opts ...Option) *Device {
	factory := WithFactory(func(string) (billy.Filesystem, error) {
		return memfs.New(), nil
	})
	return New(scheme, append([]Option{factory}, opts...)...)
}

// NewLocal creates a device whose hosts are subdirectories of baseDir on
// the local disk. Paths cannot escape their host directory.
func NewLocal(scheme, baseDir string, opts ...Option) *Device {
	factory := WithFactory(func(host string) (billy.Filesystem, error) {
		dir := filepath.Join(baseDir, host)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.FromFS(err, "failed to create host directory")
		}
		return osfs.New(dir), nil
	})
	return New(scheme, append([]Option{factory}, opts...)...)
}

// Scheme implements fspath.Device.
func (d *Device) Scheme() string { return d.scheme }

// Unwrap returns the billy.Filesystem serving host, for go-git integration.
func (d *Device) Unwrap(host string) (billy.Filesystem, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if bfs, ok := d.hosts[host]; ok {
		return bfs, nil
	}
	if d.factory == nil {
		return nil, errors.WithContext(errors.New(errors.CodeNotFound, "unknown host"), "host", host)
	}
	bfs, err := d.factory(host)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("created billy filesystem", "scheme", d.scheme, "host", host)
	d.hosts[host] = bfs
	return bfs, nil
}

func (d *Device) resolve(p fspath.FilePath) (billy.Filesystem, string, error) {
	bfs, err := d.Unwrap(p.Host())
	if err != nil {
		return nil, "", err
	}
	return bfs, name(p), nil
}

// name maps p to a billy path; billy roots every host at "/".
func name(p fspath.FilePath) string {
	return path.Clean("/" + p.Path())
}

func wrapErr(err error, op string, p fspath.FilePath) error {
	if err == nil {
		return nil
	}
	return errors.WithContext(errors.FromFS(err, op+" failed"), "path", p.String())
}

func (d *Device) stat(p fspath.FilePath) (fs.FileInfo, error) {
	bfs, n, err := d.resolve(p)
	if err != nil {
		return nil, err
	}
	return bfs.Stat(n)
}

// OSType implements fspath.Device. Billy paths follow Unix conventions.
func (d *Device) OSType(context.Context, fspath.FilePath) fspath.OSType {
	return fspath.OSTypeOtherUnix
}

func (d *Device) Exists(_ context.Context, p fspath.FilePath) bool {
	_, err := d.stat(p)
	return err == nil
}

func (d *Device) IsFile(_ context.Context, p fspath.FilePath) bool {
	info, err := d.stat(p)
	return err == nil && info.Mode().IsRegular()
}

func (d *Device) IsDir(_ context.Context, p fspath.FilePath) bool {
	info, err := d.stat(p)
	return err == nil && info.IsDir()
}

func (d *Device) IsReadableFile(ctx context.Context, p fspath.FilePath) bool {
	return d.IsFile(ctx, p)
}

func (d *Device) IsReadableDir(ctx context.Context, p fspath.FilePath) bool {
	return d.IsDir(ctx, p)
}

func (d *Device) IsWritableFile(_ context.Context, p fspath.FilePath) bool {
	info, err := d.stat(p)
	return err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o200 != 0
}

func (d *Device) IsWritableDir(_ context.Context, p fspath.FilePath) bool {
	info, err := d.stat(p)
	return err == nil && info.IsDir() && info.Mode().Perm()&0o200 != 0
}

func (d *Device) IsExecutableFile(_ context.Context, p fspath.FilePath) bool {
	info, err := d.stat(p)
	return err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

func (d *Device) CreateDir(_ context.Context, p fspath.FilePath) error {
	bfs, n, err := d.resolve(p)
	if err != nil {
		return err
	}
	return wrapErr(bfs.MkdirAll(n, 0o755), "create directory", p)
}

func (d *Device) EnsureWritableDir(ctx context.Context, p fspath.FilePath) error {
	if d.IsWritableDir(ctx, p) {
		return nil
	}
	return d.CreateDir(ctx, p)
}

func (d *Device) EnsureExistingFile(_ context.Context, p fspath.FilePath) error {
	bfs, n, err := d.resolve(p)
	if err != nil {
		return err
	}
	f, err := bfs.OpenFile(n, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return wrapErr(err, "create file", p)
	}
	return wrapErr(f.Close(), "create file", p)
}

func (d *Device) IterateDirectory(ctx context.Context, p fspath.FilePath, fn fspath.IterateFunc, filter fspath.FileFilter) error {
	bfs, _, err := d.resolve(p)
	if err != nil {
		return err
	}
	matcher, err := fspath.NewEntryMatcher(filter)
	if err != nil {
		return err
	}
	_, err = walk(ctx, bfs, p, fn, matcher, filter.Flags)
	return err
}

// walk reports whether iteration was stopped by fn.
func walk(ctx context.Context, bfs billy.Filesystem, dir fspath.FilePath, fn fspath.IterateFunc, m *fspath.EntryMatcher, flags fspath.IteratorFlags) (bool, error) {
	infos, err := bfs.ReadDir(name(dir))
	if err != nil {
		return false, wrapErr(err, "read directory", dir)
	}
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return false, errors.FromFS(err, "directory iteration canceled")
		}
		child := dir.PathAppended(info.Name())
		if flags&fspath.IterateFollowSymlinks != 0 && info.Mode()&fs.ModeSymlink != 0 {
			target, err := bfs.Stat(name(child))
			if err != nil {
				continue
			}
			info = target
		}

		if m.Match(info.Name(), info.IsDir()) && fn(child, info) == fspath.IterationStop {
			return true, nil
		}
		if flags&fspath.IterateSubdirectories != 0 && info.IsDir() && m.Descend(info.Name()) {
			stopped, err := walk(ctx, bfs, child, fn, m, flags)
			if err != nil || stopped {
				return stopped, err
			}
		}
	}
	return false, nil
}

func (d *Device) ReadContents(_ context.Context, p fspath.FilePath, limit, offset int64) ([]byte, error) {
	bfs, n, err := d.resolve(p)
	if err != nil {
		return nil, err
	}
	f, err := bfs.Open(n)
	if err != nil {
		return nil, wrapErr(err, "open file", p)
	}
	defer func() { _ = f.Close() }()

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return nil, wrapErr(err, "seek", p)
		}
	}
	var r io.Reader = f
	if limit >= 0 {
		r = io.LimitReader(f, limit)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, wrapErr(err, "read file", p)
	}
	return data, nil
}

func (d *Device) WriteContents(_ context.Context, p fspath.FilePath, data []byte) (int64, error) {
	bfs, n, err := d.resolve(p)
	if err != nil {
		return 0, err
	}
	f, err := bfs.OpenFile(n, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return 0, wrapErr(err, "open file for writing", p)
	}
	written, err := f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return int64(written), wrapErr(err, "write file", p)
}

func (d *Device) CopyFile(_ context.Context, src, dst fspath.FilePath) error {
	srcFS, srcName, err := d.resolve(src)
	if err != nil {
		return err
	}
	dstFS, dstName, err := d.resolve(dst)
	if err != nil {
		return err
	}

	in, err := srcFS.Open(srcName)
	if err != nil {
		return wrapErr(err, "open source", src)
	}
	defer func() { _ = in.Close() }()

	out, err := dstFS.OpenFile(dstName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return wrapErr(err, "open target", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return wrapErr(err, "copy", dst)
	}
	return wrapErr(out.Close(), "copy", dst)
}

// RenameFile implements fspath.Device. Renames between hosts copy and remove.
func (d *Device) RenameFile(ctx context.Context, src, dst fspath.FilePath) error {
	if src.Host() != dst.Host() {
		if err := d.CopyFile(ctx, src, dst); err != nil {
			return err
		}
		return d.RemoveFile(ctx, src)
	}
	bfs, n, err := d.resolve(src)
	if err != nil {
		return err
	}
	return wrapErr(bfs.Rename(n, name(dst)), "rename", src)
}

func (d *Device) RemoveFile(_ context.Context, p fspath.FilePath) error {
	bfs, n, err := d.resolve(p)
	if err != nil {
		return err
	}
	return wrapErr(bfs.Remove(n), "remove", p)
}

// RemoveRecursively implements fspath.Device. The host root cannot be removed.
func (d *Device) RemoveRecursively(_ context.Context, p fspath.FilePath) error {
	bfs, n, err := d.resolve(p)
	if err != nil {
		return err
	}
	if n == "/" {
		return errors.WithContext(errors.Wrap(fspath.ErrUnsafeRemoval, errors.CodeUnsafeOperation,
			"refusing to remove root directory"), "path", p.String())
	}
	return wrapErr(util.RemoveAll(bfs, n), "remove", p)
}

func (d *Device) Permissions(_ context.Context, p fspath.FilePath) (fs.FileMode, error) {
	info, err := d.stat(p)
	if err != nil {
		return 0, wrapErr(err, "stat", p)
	}
	return info.Mode().Perm(), nil
}

// SetPermissions implements fspath.Device for file systems that support billy.Change.
func (d *Device) SetPermissions(_ context.Context, p fspath.FilePath, mode fs.FileMode) error {
	bfs, n, err := d.resolve(p)
	if err != nil {
		return err
	}
	ch, ok := bfs.(billy.Change)
	if !ok {
		return errors.WithContext(fspath.ErrNotSupported, "path", p.String())
	}
	return wrapErr(ch.Chmod(n, mode), "chmod", p)
}

func (d *Device) LastModified(_ context.Context, p fspath.FilePath) (time.Time, error) {
	info, err := d.stat(p)
	if err != nil {
		return time.Time{}, wrapErr(err, "stat", p)
	}
	return info.ModTime(), nil
}

func (d *Device) FileSize(_ context.Context, p fspath.FilePath) (int64, error) {
	info, err := d.stat(p)
	if err != nil {
		return 0, wrapErr(err, "stat", p)
	}
	return info.Size(), nil
}

// SymlinkTarget implements fspath.Device. Relative targets resolve against
// the link's directory on the same host.
func (d *Device) SymlinkTarget(_ context.Context, p fspath.FilePath) (fspath.FilePath, error) {
	bfs, n, err := d.resolve(p)
	if err != nil {
		return fspath.FilePath{}, err
	}
	info, err := bfs.Lstat(n)
	if err != nil {
		return fspath.FilePath{}, wrapErr(err, "stat", p)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return fspath.FilePath{}, nil
	}
	target, err := bfs.Readlink(n)
	if err != nil {
		return fspath.FilePath{}, wrapErr(err, "read link", p)
	}
	if !path.IsAbs(target) {
		target = path.Join(path.Dir(n), target)
	}
	return p.WithNewPath(path.Clean(target)), nil
}

// Symlink creates link as a symbolic link to target on link's host.
func (d *Device) Symlink(link fspath.FilePath, target string) error {
	bfs, n, err := d.resolve(link)
	if err != nil {
		return err
	}
	return wrapErr(bfs.Symlink(target, n), "symlink", link)
}

func (d *Device) DisplayName(p fspath.FilePath) string {
	return d.scheme + ":" + p.Host()
}

func (d *Device) MapToDevicePath(p fspath.FilePath) string { return name(p) }

// Environment implements fspath.Device with an empty environment so that
// executable lookups only consult explicit directories.
func (d *Device) Environment(ctx context.Context, p fspath.FilePath) (fspath.Environment, error) {
	return fspath.NewEnvironment(d.OSType(ctx, p), nil), nil
}

// Close drops every host file system.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.hosts)
	return nil
}
