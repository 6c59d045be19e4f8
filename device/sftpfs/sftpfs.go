package sftpfs

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/sftp"
	"golang.org/x/sync/errgroup"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
)

// Device serves paths on remote SFTP servers. The host of a path names the
// server as "[user@]host[:port]"; one SSH connection is pooled per host.
type Device struct {
	fspath.UnsupportedDevice

	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	conns map[string]*conn
}

var _ fspath.Device = (*Device)(nil)

// Option configures a Device.
type Option func(*Device)

// WithClient serves host over an existing SFTP client instead of dialing.
// Remote commands (environment, OS detection) are unavailable for such hosts.
func WithClient(host string, client *sftp.Client) Option {
	return func(d *Device) {
		d.conns[host] = &conn{sftp: client}
	}
}

// New creates an SFTP device.
func New(cfg Config, opts ...Option) (*Device, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	d := &Device{
		cfg:    cfg,
		logger: cfg.Logger,
		conns:  make(map[string]*conn),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Scheme implements fspath.Device.
func (d *Device) Scheme() string { return d.cfg.Scheme }

// name maps p to an absolute remote path.
func name(p fspath.FilePath) string {
	return path.Clean("/" + p.Path())
}

func (d *Device) client(ctx context.Context, p fspath.FilePath) (*sftp.Client, string, error) {
	c, err := d.connect(ctx, p.Host())
	if err != nil {
		return nil, "", err
	}
	return c.sftp, name(p), nil
}

func wrapErr(err error, op string, p fspath.FilePath) error {
	if err == nil {
		return nil
	}
	var status *sftp.StatusError
	if stderrors.As(err, &status) && status.FxCode() == sftp.ErrSSHFxOpUnsupported {
		return errors.WithContext(errors.Wrap(fspath.ErrNotSupported, errors.CodeNotSupported, op+" failed"), "path", p.String())
	}
	return errors.WithContext(errors.FromFS(err, op+" failed"), "path", p.String())
}

func (d *Device) stat(ctx context.Context, p fspath.FilePath) (fs.FileInfo, error) {
	c, n, err := d.client(ctx, p)
	if err != nil {
		return nil, err
	}
	return c.Stat(n)
}

// OSType implements fspath.Device using "uname -s" on the server. Hosts
// without a shell report OSTypeOtherUnix.
func (d *Device) OSType(ctx context.Context, p fspath.FilePath) fspath.OSType {
	c, err := d.connect(ctx, p.Host())
	if err != nil {
		return fspath.OSTypeOtherUnix
	}
	c.probe()
	return c.osType
}

func (d *Device) Exists(ctx context.Context, p fspath.FilePath) bool {
	_, err := d.stat(ctx, p)
	return err == nil
}

func (d *Device) IsFile(ctx context.Context, p fspath.FilePath) bool {
	info, err := d.stat(ctx, p)
	return err == nil && info.Mode().IsRegular()
}

func (d *Device) IsDir(ctx context.Context, p fspath.FilePath) bool {
	info, err := d.stat(ctx, p)
	return err == nil && info.IsDir()
}

// Access predicates check the owner permission bits; SFTP does not expose
// the caller's effective access.

func (d *Device) IsReadableFile(ctx context.Context, p fspath.FilePath) bool {
	info, err := d.stat(ctx, p)
	return err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o400 != 0
}

func (d *Device) IsReadableDir(ctx context.Context, p fspath.FilePath) bool {
	info, err := d.stat(ctx, p)
	return err == nil && info.IsDir() && info.Mode().Perm()&0o400 != 0
}

func (d *Device) IsWritableFile(ctx context.Context, p fspath.FilePath) bool {
	info, err := d.stat(ctx, p)
	return err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o200 != 0
}

func (d *Device) IsWritableDir(ctx context.Context, p fspath.FilePath) bool {
	info, err := d.stat(ctx, p)
	return err == nil && info.IsDir() && info.Mode().Perm()&0o200 != 0
}

func (d *Device) IsExecutableFile(ctx context.Context, p fspath.FilePath) bool {
	info, err := d.stat(ctx, p)
	return err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

func (d *Device) CreateDir(ctx context.Context, p fspath.FilePath) error {
	c, n, err := d.client(ctx, p)
	if err != nil {
		return err
	}
	return wrapErr(c.MkdirAll(n), "create directory", p)
}

func (d *Device) EnsureWritableDir(ctx context.Context, p fspath.FilePath) error {
	if d.IsWritableDir(ctx, p) {
		return nil
	}
	return d.CreateDir(ctx, p)
}

func (d *Device) EnsureExistingFile(ctx context.Context, p fspath.FilePath) error {
	c, n, err := d.client(ctx, p)
	if err != nil {
		return err
	}
	f, err := c.OpenFile(n, os.O_RDWR|os.O_CREATE)
	if err != nil {
		return wrapErr(err, "create file", p)
	}
	return wrapErr(f.Close(), "create file", p)
}

func (d *Device) IterateDirectory(ctx context.Context, p fspath.FilePath, fn fspath.IterateFunc, filter fspath.FileFilter) error {
	c, _, err := d.client(ctx, p)
	if err != nil {
		return err
	}
	matcher, err := fspath.NewEntryMatcher(filter)
	if err != nil {
		return err
	}
	_, err = walk(ctx, c, p, fn, matcher, filter.Flags)
	return err
}

// walk reports whether iteration was stopped by fn.
func walk(ctx context.Context, c *sftp.Client, dir fspath.FilePath, fn fspath.IterateFunc, m *fspath.EntryMatcher, flags fspath.IteratorFlags) (bool, error) {
	infos, err := c.ReadDir(name(dir))
	if err != nil {
		return false, wrapErr(err, "read directory", dir)
	}
	slices.SortFunc(infos, func(a, b fs.FileInfo) int { return strings.Compare(a.Name(), b.Name()) })

	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return false, errors.FromFS(err, "directory iteration canceled")
		}
		if isTempName(info.Name()) {
			continue
		}
		child := dir.PathAppended(info.Name())
		if flags&fspath.IterateFollowSymlinks != 0 && info.Mode()&fs.ModeSymlink != 0 {
			target, err := c.Stat(name(child))
			if err != nil {
				continue
			}
			info = target
		}

		if m.Match(info.Name(), info.IsDir()) && fn(child, info) == fspath.IterationStop {
			return true, nil
		}
		if flags&fspath.IterateSubdirectories != 0 && info.IsDir() && m.Descend(info.Name()) {
			stopped, err := walk(ctx, c, child, fn, m, flags)
			if err != nil || stopped {
				return stopped, err
			}
		}
	}
	return false, nil
}

func (d *Device) ReadContents(ctx context.Context, p fspath.FilePath, limit, offset int64) ([]byte, error) {
	c, n, err := d.client(ctx, p)
	if err != nil {
		return nil, err
	}
	f, err := c.Open(n)
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

// WriteContents implements fspath.Device. Data is written to a temporary
// sibling which then replaces p, so readers never observe a partial file.
func (d *Device) WriteContents(ctx context.Context, p fspath.FilePath, data []byte) (int64, error) {
	c, n, err := d.client(ctx, p)
	if err != nil {
		return 0, err
	}
	return d.writeAtomic(c, n, bytes.NewReader(data), p)
}

const tempPrefix = ".fspath-"

func isTempName(base string) bool {
	return strings.HasPrefix(base, tempPrefix) && strings.HasSuffix(base, ".tmp")
}

func (d *Device) writeAtomic(c *sftp.Client, n string, r io.Reader, p fspath.FilePath) (int64, error) {
	tmp := path.Join(path.Dir(n), tempPrefix+uuid.NewString()+".tmp")
	f, err := c.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return 0, wrapErr(err, "open file for writing", p)
	}

	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = replace(c, tmp, n)
	}
	if err != nil {
		if rerr := c.Remove(tmp); rerr != nil && !stderrors.Is(rerr, fs.ErrNotExist) {
			d.logger.Warn("failed to remove temporary file", "path", tmp, "error", rerr)
		}
		return 0, wrapErr(err, "write file", p)
	}
	return written, nil
}

// replace renames src over dst, falling back to remove and rename on
// servers without the posix-rename extension.
func replace(c *sftp.Client, src, dst string) error {
	err := c.PosixRename(src, dst)
	if err == nil {
		return nil
	}
	if rerr := c.Remove(dst); rerr != nil && !stderrors.Is(rerr, fs.ErrNotExist) {
		return err
	}
	return c.Rename(src, dst)
}

func (d *Device) CopyFile(ctx context.Context, src, dst fspath.FilePath) error {
	srcClient, srcName, err := d.client(ctx, src)
	if err != nil {
		return err
	}
	dstClient, dstName, err := d.client(ctx, dst)
	if err != nil {
		return err
	}

	in, err := srcClient.Open(srcName)
	if err != nil {
		return wrapErr(err, "open source", src)
	}
	defer func() { _ = in.Close() }()

	_, err = d.writeAtomic(dstClient, dstName, in, dst)
	return err
}

// RenameFile implements fspath.Device. Renames between hosts copy and remove.
func (d *Device) RenameFile(ctx context.Context, src, dst fspath.FilePath) error {
	if src.Host() != dst.Host() {
		if err := d.CopyFile(ctx, src, dst); err != nil {
			return err
		}
		return d.RemoveFile(ctx, src)
	}
	c, n, err := d.client(ctx, src)
	if err != nil {
		return err
	}
	return wrapErr(replace(c, n, name(dst)), "rename", src)
}

func (d *Device) RemoveFile(ctx context.Context, p fspath.FilePath) error {
	c, n, err := d.client(ctx, p)
	if err != nil {
		return err
	}
	return wrapErr(c.Remove(n), "remove", p)
}

// RemoveRecursively implements fspath.Device. The server root and the login
// directory cannot be removed.
func (d *Device) RemoveRecursively(ctx context.Context, p fspath.FilePath) error {
	cn, err := d.connect(ctx, p.Host())
	if err != nil {
		return err
	}
	n := name(p)
	cn.probe()
	if n == "/" || n == cn.home {
		return errors.WithContext(errors.Wrap(fspath.ErrUnsafeRemoval, errors.CodeUnsafeOperation,
			"refusing to remove root or home directory"), "path", p.String())
	}
	return wrapErr(d.removeAll(ctx, cn.sftp, n), "remove", p)
}

// removeAll deletes n and everything below it. Files in a directory are
// removed concurrently; subdirectories are descended one at a time.
func (d *Device) removeAll(ctx context.Context, c *sftp.Client, n string) error {
	info, err := c.Lstat(n)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return c.Remove(n)
	}

	entries, err := c.ReadDir(n)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.MaxConcurrency)
	for _, entry := range entries {
		child := path.Join(n, entry.Name())
		if entry.IsDir() {
			if err := d.removeAll(gctx, c, child); err != nil {
				_ = g.Wait()
				return err
			}
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := c.Remove(child); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.RemoveDirectory(n)
}

func (d *Device) Permissions(ctx context.Context, p fspath.FilePath) (fs.FileMode, error) {
	info, err := d.stat(ctx, p)
	if err != nil {
		return 0, wrapErr(err, "stat", p)
	}
	return info.Mode().Perm(), nil
}

func (d *Device) SetPermissions(ctx context.Context, p fspath.FilePath, mode fs.FileMode) error {
	c, n, err := d.client(ctx, p)
	if err != nil {
		return err
	}
	return wrapErr(c.Chmod(n, mode), "chmod", p)
}

func (d *Device) LastModified(ctx context.Context, p fspath.FilePath) (time.Time, error) {
	info, err := d.stat(ctx, p)
	if err != nil {
		return time.Time{}, wrapErr(err, "stat", p)
	}
	return info.ModTime(), nil
}

func (d *Device) FileSize(ctx context.Context, p fspath.FilePath) (int64, error) {
	info, err := d.stat(ctx, p)
	if err != nil {
		return 0, wrapErr(err, "stat", p)
	}
	return info.Size(), nil
}

// FreeSpace implements fspath.Device through the statvfs@openssh.com extension.
func (d *Device) FreeSpace(ctx context.Context, p fspath.FilePath) (int64, error) {
	c, n, err := d.client(ctx, p)
	if err != nil {
		return 0, err
	}
	if _, ok := c.HasExtension("statvfs@openssh.com"); !ok {
		return 0, errors.WithContext(fspath.ErrNotSupported, "path", p.String())
	}
	st, err := c.StatVFS(n)
	if err != nil {
		return 0, wrapErr(err, "statvfs", p)
	}
	return int64(st.Frsize * st.Bavail), nil
}

// SymlinkTarget implements fspath.Device. Relative targets resolve against
// the link's directory on the same host.
func (d *Device) SymlinkTarget(ctx context.Context, p fspath.FilePath) (fspath.FilePath, error) {
	c, n, err := d.client(ctx, p)
	if err != nil {
		return fspath.FilePath{}, err
	}
	info, err := c.Lstat(n)
	if err != nil {
		return fspath.FilePath{}, wrapErr(err, "stat", p)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return fspath.FilePath{}, nil
	}
	target, err := c.ReadLink(n)
	if err != nil {
		return fspath.FilePath{}, wrapErr(err, "read link", p)
	}
	if !path.IsAbs(target) {
		target = path.Join(path.Dir(n), target)
	}
	return p.WithNewPath(path.Clean(target)), nil
}

// Symlink creates link as a symbolic link to target on link's host.
func (d *Device) Symlink(ctx context.Context, link fspath.FilePath, target string) error {
	c, n, err := d.client(ctx, link)
	if err != nil {
		return err
	}
	return wrapErr(c.Symlink(target, n), "symlink", link)
}

func (d *Device) DisplayName(p fspath.FilePath) string {
	return d.cfg.Scheme + ":" + p.Host()
}

func (d *Device) MapToDevicePath(p fspath.FilePath) string { return name(p) }

// Environment implements fspath.Device by running "env" on the server.
func (d *Device) Environment(ctx context.Context, p fspath.FilePath) (fspath.Environment, error) {
	c, err := d.connect(ctx, p.Host())
	if err != nil {
		return fspath.Environment{}, err
	}
	out, err := c.run("env")
	if err != nil {
		return fspath.Environment{}, err
	}
	c.probe()
	return fspath.ParseEnvironment(c.osType, strings.Split(strings.TrimRight(string(out), "\n"), "\n")), nil
}
