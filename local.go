package fspath

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/jmgilman/go/fspath/errors"
)

// LocalDevice serves local paths through the os package.
type LocalDevice struct{}

var _ Device = (*LocalDevice)(nil)

// NewLocalDevice returns the device for the local file system.
func NewLocalDevice() *LocalDevice {
	return &LocalDevice{}
}

func pathError(err error, op string, p FilePath) error {
	if err == nil {
		return nil
	}
	return errors.WithContext(errors.FromFS(err, op+" failed"), "path", p.String())
}

func (*LocalDevice) Scheme() string { return "" }

func (*LocalDevice) DisplayName(FilePath) string { return "" }

func (*LocalDevice) OSType(context.Context, FilePath) OSType { return HostOS() }

func (*LocalDevice) stat(p FilePath) (fs.FileInfo, bool) {
	if p.IsEmpty() {
		return nil, false
	}
	info, err := os.Stat(p.NativePath())
	return info, err == nil
}

func (d *LocalDevice) Exists(_ context.Context, p FilePath) bool {
	_, ok := d.stat(p)
	return ok
}

func (d *LocalDevice) IsFile(_ context.Context, p FilePath) bool {
	info, ok := d.stat(p)
	return ok && info.Mode().IsRegular()
}

func (d *LocalDevice) IsDir(_ context.Context, p FilePath) bool {
	info, ok := d.stat(p)
	return ok && info.IsDir()
}

func (d *LocalDevice) IsReadableFile(ctx context.Context, p FilePath) bool {
	return d.IsFile(ctx, p) && canAccess(p.NativePath(), accessRead)
}

func (d *LocalDevice) IsReadableDir(ctx context.Context, p FilePath) bool {
	return d.IsDir(ctx, p) && canAccess(p.NativePath(), accessRead|accessExecute)
}

func (d *LocalDevice) IsWritableFile(ctx context.Context, p FilePath) bool {
	return d.IsFile(ctx, p) && canAccess(p.NativePath(), accessWrite)
}

func (d *LocalDevice) IsWritableDir(ctx context.Context, p FilePath) bool {
	return d.IsDir(ctx, p) && canAccess(p.NativePath(), accessWrite)
}

func (d *LocalDevice) IsExecutableFile(ctx context.Context, p FilePath) bool {
	return d.IsFile(ctx, p) && canAccess(p.NativePath(), accessExecute)
}

func (*LocalDevice) CreateDir(_ context.Context, p FilePath) error {
	return pathError(os.MkdirAll(p.NativePath(), 0o755), "create directory", p)
}

func (d *LocalDevice) EnsureWritableDir(ctx context.Context, p FilePath) error {
	if d.IsWritableDir(ctx, p) {
		return nil
	}
	return d.CreateDir(ctx, p)
}

func (*LocalDevice) EnsureExistingFile(_ context.Context, p FilePath) error {
	f, err := os.OpenFile(p.NativePath(), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return pathError(err, "create file", p)
	}
	return pathError(f.Close(), "create file", p)
}

func (*LocalDevice) IterateDirectory(ctx context.Context, p FilePath, fn IterateFunc, filter FileFilter) error {
	matcher, err := NewEntryMatcher(filter)
	if err != nil {
		return err
	}
	_, err = walkLocal(ctx, p, fn, matcher, filter.Flags)
	return err
}

// walkLocal reports whether iteration was stopped by fn.
func walkLocal(ctx context.Context, dir FilePath, fn IterateFunc, m *EntryMatcher, flags IteratorFlags) (bool, error) {
	entries, err := os.ReadDir(dir.NativePath())
	if err != nil {
		return false, pathError(err, "read directory", dir)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return false, errors.FromFS(err, "directory iteration canceled")
		}
		child := dir.appended(entry.Name())

		var info fs.FileInfo
		if flags&IterateFollowSymlinks != 0 {
			info, err = os.Stat(child.NativePath())
		} else {
			info, err = entry.Info()
		}
		if err != nil {
			// Entries can vanish between ReadDir and Stat, and links can dangle.
			continue
		}

		if m.Match(entry.Name(), info.IsDir()) && fn(child, info) == IterationStop {
			return true, nil
		}
		if flags&IterateSubdirectories != 0 && info.IsDir() && m.Descend(entry.Name()) {
			stopped, err := walkLocal(ctx, child, fn, m, flags)
			if err != nil || stopped {
				return stopped, err
			}
		}
	}
	return false, nil
}

func (*LocalDevice) ReadContents(_ context.Context, p FilePath, limit, offset int64) ([]byte, error) {
	f, err := os.Open(p.NativePath())
	if err != nil {
		return nil, pathError(err, "open file", p)
	}
	defer f.Close()

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return nil, pathError(err, "seek", p)
		}
	}

	var r io.Reader = f
	if limit >= 0 {
		r = io.LimitReader(f, limit)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, pathError(err, "read file", p)
	}
	return data, nil
}

func (*LocalDevice) WriteContents(_ context.Context, p FilePath, data []byte) (int64, error) {
	f, err := os.OpenFile(p.NativePath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return 0, pathError(err, "open file for writing", p)
	}
	n, err := f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return int64(n), pathError(err, "write file", p)
	}
	return int64(n), nil
}

func (*LocalDevice) CopyFile(_ context.Context, src, dst FilePath) error {
	in, err := os.Open(src.NativePath())
	if err != nil {
		return pathError(err, "open source", src)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return pathError(err, "stat source", src)
	}
	out, err := os.OpenFile(dst.NativePath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return pathError(err, "open target", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return pathError(err, "copy", dst)
	}
	return pathError(out.Close(), "copy", dst)
}

func (*LocalDevice) RenameFile(_ context.Context, src, dst FilePath) error {
	return pathError(os.Rename(src.NativePath(), dst.NativePath()), "rename", src)
}

func (*LocalDevice) RemoveFile(_ context.Context, p FilePath) error {
	return pathError(os.Remove(p.NativePath()), "remove", p)
}

// RemoveRecursively refuses to remove the file system root and the user's
// home directory. Read-only entries are made writable before removal. A
// path that does not exist is not an error.
func (*LocalDevice) RemoveRecursively(ctx context.Context, p FilePath) error {
	if p.IsEmpty() {
		return errors.New(errors.CodeInvalidInput, "cannot remove the empty path")
	}
	abs := p.AbsoluteFilePath().CleanPath()
	if abs.IsRootPath() {
		return errors.WithContext(errors.Wrap(ErrUnsafeRemoval, errors.CodeUnsafeOperation,
			"refusing to remove root directory"), "path", abs.String())
	}
	if home, err := homedir.Dir(); err == nil && FromString(filepath.ToSlash(home)).CleanPath().Equal(abs) {
		return errors.WithContext(errors.Wrap(ErrUnsafeRemoval, errors.CodeUnsafeOperation,
			"refusing to remove your home directory"), "path", abs.String())
	}
	return removeAllLocal(ctx, abs)
}

func removeAllLocal(ctx context.Context, p FilePath) error {
	if err := ctx.Err(); err != nil {
		return errors.FromFS(err, "removal canceled")
	}
	name := p.NativePath()
	info, err := os.Lstat(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return pathError(err, "stat", p)
	}

	if info.Mode()&fs.ModeSymlink == 0 {
		_ = os.Chmod(name, info.Mode().Perm()|0o200)
	}
	if info.IsDir() {
		entries, err := os.ReadDir(name)
		if err != nil {
			return pathError(err, "read directory", p)
		}
		for _, entry := range entries {
			if err := removeAllLocal(ctx, p.appended(entry.Name())); err != nil {
				return err
			}
		}
	}
	return pathError(os.Remove(name), "remove", p)
}

func (*LocalDevice) Permissions(_ context.Context, p FilePath) (fs.FileMode, error) {
	info, err := os.Stat(p.NativePath())
	if err != nil {
		return 0, pathError(err, "stat", p)
	}
	return info.Mode().Perm(), nil
}

func (*LocalDevice) SetPermissions(_ context.Context, p FilePath, mode fs.FileMode) error {
	return pathError(os.Chmod(p.NativePath(), mode), "chmod", p)
}

func (*LocalDevice) LastModified(_ context.Context, p FilePath) (time.Time, error) {
	info, err := os.Stat(p.NativePath())
	if err != nil {
		return time.Time{}, pathError(err, "stat", p)
	}
	return info.ModTime(), nil
}

func (*LocalDevice) FileSize(_ context.Context, p FilePath) (int64, error) {
	info, err := os.Stat(p.NativePath())
	if err != nil {
		return 0, pathError(err, "stat", p)
	}
	return info.Size(), nil
}

func (*LocalDevice) FreeSpace(_ context.Context, p FilePath) (int64, error) {
	n, err := freeSpace(p.NativePath())
	return n, pathError(err, "query free space", p)
}

// SymlinkTarget returns the absolute, cleaned target of the link p.
func (*LocalDevice) SymlinkTarget(_ context.Context, p FilePath) (FilePath, error) {
	info, err := os.Lstat(p.NativePath())
	if err != nil {
		return FilePath{}, pathError(err, "stat", p)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return FilePath{}, nil
	}
	target, err := os.Readlink(p.NativePath())
	if err != nil {
		return FilePath{}, pathError(err, "read link", p)
	}
	t := FromString(filepath.ToSlash(target))
	if t.IsRelativePath() {
		t = p.AbsoluteFilePath().ParentDir().ResolvePath(t)
	}
	return t.CleanPath(), nil
}

func (*LocalDevice) MapToDevicePath(p FilePath) string { return p.NativePath() }

func (*LocalDevice) SearchInPath(ctx context.Context, p FilePath, name string, dirs []FilePath) (FilePath, error) {
	found := SearchInDirectories(ctx, p, name, SystemEnvironment(), dirs)
	if found.IsEmpty() {
		return FilePath{}, errors.WithContext(errors.Newf(errors.CodeNotFound, "executable %q not found", name), "name", name)
	}
	return found, nil
}

func (*LocalDevice) Environment(context.Context, FilePath) (Environment, error) {
	return SystemEnvironment(), nil
}
