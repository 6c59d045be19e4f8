package gitfs

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
)

// DefaultRevision is used when a path host does not name a revision.
const DefaultRevision = "HEAD"

// ErrReadOnly is returned by every modifying operation.
var ErrReadOnly = errors.Wrap(fspath.ErrNotSupported, errors.CodePermission, "git revisions are read-only")

// Device serves the trees of committed revisions, read-only. The host of a
// path is "[revision@]repository", e.g. "git://v1.2.0@app/go.mod".
type Device struct {
	fspath.UnsupportedDevice

	scheme string
	opener func(name string) (*gogit.Repository, error)
	logger *slog.Logger

	mu    sync.Mutex
	repos map[string]*gogit.Repository
}

var _ fspath.Device = (*Device)(nil)

// Option configures a Device.
type Option func(*Device)

// WithRepository serves repo under name.
func WithRepository(name string, repo *gogit.Repository) Option {
	return func(d *Device) {
		d.repos[name] = repo
	}
}

// WithOpener opens repositories on first use for names that were not
// configured with WithRepository.
func WithOpener(opener func(name string) (*gogit.Repository, error)) Option {
	return func(d *Device) {
		d.opener = opener
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Device) {
		d.logger = logger
	}
}

// New creates a device for scheme.
func New(scheme string, opts ...Option) *Device {
	d := &Device{
		UnsupportedDevice: fspath.UnsupportedDevice{Err: ErrReadOnly},
		scheme:            scheme,
		logger:            slog.New(slog.DiscardHandler),
		repos:             make(map[string]*gogit.Repository),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewLocal creates a device whose repositories are the directories below
// baseDir, so "git://main@tools/Makefile" reads baseDir/tools at main.
func NewLocal(scheme, baseDir string, opts ...Option) *Device {
	opener := WithOpener(func(name string) (*gogit.Repository, error) {
		return gogit.PlainOpen(filepath.Join(baseDir, filepath.FromSlash(name)))
	})
	return New(scheme, append([]Option{opener}, opts...)...)
}

// Scheme implements fspath.Device.
func (d *Device) Scheme() string { return d.scheme }

// splitHost separates the revision from the repository name.
func splitHost(host string) (rev, repo string) {
	if at := strings.LastIndexByte(host, '@'); at >= 0 {
		return host[:at], host[at+1:]
	}
	return DefaultRevision, host
}

// Repository returns the repository called name.
func (d *Device) Repository(name string) (*gogit.Repository, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if repo, ok := d.repos[name]; ok {
		return repo, nil
	}
	if d.opener == nil {
		return nil, errors.WithContext(errors.New(errors.CodeNotFound, "unknown repository"), "repository", name)
	}
	repo, err := d.opener(name)
	if err != nil {
		code := errors.CodeIO
		if stderrors.Is(err, gogit.ErrRepositoryNotExists) {
			code = errors.CodeNotFound
		}
		return nil, errors.WithContext(errors.Wrap(err, code, "failed to open repository"), "repository", name)
	}
	d.logger.Debug("opened git repository", "scheme", d.scheme, "repository", name)
	d.repos[name] = repo
	return repo, nil
}

// snapshot is the tree of one resolved revision.
type snapshot struct {
	repo   *gogit.Repository
	commit *object.Commit
	tree   *object.Tree
}

func (d *Device) snapshot(ctx context.Context, p fspath.FilePath) (*snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.FromFS(err, "git lookup canceled")
	}
	rev, name := splitHost(p.Host())
	repo, err := d.Repository(name)
	if err != nil {
		return nil, err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, errors.WithContext(errors.Wrap(err, errors.CodeNotFound, "failed to resolve revision"), "revision", rev)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, errors.WithContext(errors.Wrap(err, errors.CodeIO, "failed to read commit"), "revision", rev)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, errors.WithContext(errors.Wrap(err, errors.CodeIO, "failed to read tree"), "revision", rev)
	}
	return &snapshot{repo: repo, commit: commit, tree: tree}, nil
}

// name maps p to a tree path; the root is "".
func name(p fspath.FilePath) string {
	return strings.TrimPrefix(path.Clean("/"+p.Path()), "/")
}

func notFound(err error, p fspath.FilePath) error {
	return errors.WithContext(errors.Wrap(fmt.Errorf("%w: %w", fs.ErrNotExist, err), errors.CodeNotFound, "no such entry in revision"), "path", p.String())
}

// entryInfo implements fs.FileInfo for tree entries.
type entryInfo struct {
	name    string
	mode    fs.FileMode
	size    int64
	modTime time.Time
}

func (fi *entryInfo) Name() string       { return fi.name }
func (fi *entryInfo) Size() int64        { return fi.size }
func (fi *entryInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *entryInfo) ModTime() time.Time { return fi.modTime }
func (fi *entryInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *entryInfo) Sys() any           { return nil }

// osMode converts a git mode. Submodules have no content in this tree.
func osMode(m filemode.FileMode) fs.FileMode {
	if m == filemode.Submodule {
		return fs.ModeIrregular
	}
	mode, err := m.ToOSFileMode()
	if err != nil {
		return fs.ModeIrregular
	}
	if mode.IsDir() {
		return fs.ModeDir | 0o755
	}
	return mode
}

func (s *snapshot) info(e object.TreeEntry) *entryInfo {
	fi := &entryInfo{name: e.Name, mode: osMode(e.Mode), modTime: s.commit.Committer.When}
	if e.Mode.IsFile() {
		if blob, err := s.repo.BlobObject(e.Hash); err == nil {
			fi.size = blob.Size
		}
	}
	return fi
}

// lstat describes the entry at n without following symlinks.
func (s *snapshot) lstat(n string) (*entryInfo, error) {
	if n == "" {
		return &entryInfo{name: "/", mode: fs.ModeDir | 0o755, modTime: s.commit.Committer.When}, nil
	}
	e, err := s.tree.FindEntry(n)
	if err != nil {
		return nil, err
	}
	return s.info(*e), nil
}

// resolve follows symlinks inside the tree.
func (s *snapshot) resolve(n string) (string, *entryInfo, error) {
	for range fspath.MaxSymlinkHops {
		info, err := s.lstat(n)
		if err != nil {
			return "", nil, err
		}
		if info.mode&fs.ModeSymlink == 0 {
			return n, info, nil
		}
		target, err := s.readLink(n)
		if err != nil {
			return "", nil, err
		}
		n = target
	}
	return "", nil, errors.New(errors.CodeInvalidInput, "too many levels of symbolic links")
}

// readLink returns the tree path a symlink points to.
func (s *snapshot) readLink(n string) (string, error) {
	f, err := s.tree.File(n)
	if err != nil {
		return "", err
	}
	target, err := f.Contents()
	if err != nil {
		return "", err
	}
	if !path.IsAbs(target) {
		target = path.Join(path.Dir("/"+n), target)
	}
	return strings.TrimPrefix(path.Clean(target), "/"), nil
}

func (d *Device) stat(ctx context.Context, p fspath.FilePath) (*snapshot, string, *entryInfo, error) {
	s, err := d.snapshot(ctx, p)
	if err != nil {
		return nil, "", nil, err
	}
	n, info, err := s.resolve(name(p))
	if err != nil {
		return nil, "", nil, notFound(err, p)
	}
	return s, n, info, nil
}

// OSType implements fspath.Device. Tree paths use forward slashes.
func (d *Device) OSType(context.Context, fspath.FilePath) fspath.OSType {
	return fspath.OSTypeOtherUnix
}

func (d *Device) Exists(ctx context.Context, p fspath.FilePath) bool {
	_, _, _, err := d.stat(ctx, p)
	return err == nil
}

func (d *Device) IsFile(ctx context.Context, p fspath.FilePath) bool {
	_, _, info, err := d.stat(ctx, p)
	return err == nil && info.mode.IsRegular()
}

func (d *Device) IsDir(ctx context.Context, p fspath.FilePath) bool {
	_, _, info, err := d.stat(ctx, p)
	return err == nil && info.IsDir()
}

func (d *Device) IsReadableFile(ctx context.Context, p fspath.FilePath) bool {
	return d.IsFile(ctx, p)
}

func (d *Device) IsReadableDir(ctx context.Context, p fspath.FilePath) bool {
	return d.IsDir(ctx, p)
}

func (d *Device) IsExecutableFile(ctx context.Context, p fspath.FilePath) bool {
	_, _, info, err := d.stat(ctx, p)
	return err == nil && info.mode.IsRegular() && info.mode&0o111 != 0
}

func (d *Device) IterateDirectory(ctx context.Context, p fspath.FilePath, fn fspath.IterateFunc, filter fspath.FileFilter) error {
	s, n, info, err := d.stat(ctx, p)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.WithContext(errors.New(errors.CodeInvalidInput, "not a directory"), "path", p.String())
	}
	matcher, err := fspath.NewEntryMatcher(filter)
	if err != nil {
		return err
	}
	_, err = d.walk(ctx, s, n, p, fn, matcher, filter.Flags)
	return err
}

func (s *snapshot) dir(n string) (*object.Tree, error) {
	if n == "" {
		return s.tree, nil
	}
	return s.tree.Tree(n)
}

// walk reports whether iteration was stopped by fn.
func (d *Device) walk(ctx context.Context, s *snapshot, n string, dir fspath.FilePath, fn fspath.IterateFunc, m *fspath.EntryMatcher, flags fspath.IteratorFlags) (bool, error) {
	t, err := s.dir(n)
	if err != nil {
		return false, notFound(err, dir)
	}
	entries := slices.Clone(t.Entries)
	slices.SortFunc(entries, func(a, b object.TreeEntry) int { return strings.Compare(a.Name, b.Name) })

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return false, errors.FromFS(err, "directory iteration canceled")
		}
		childName := path.Join(n, e.Name)
		child := dir.PathAppended(e.Name)
		info := s.info(e)
		if flags&fspath.IterateFollowSymlinks != 0 && info.mode&fs.ModeSymlink != 0 {
			resolved, target, err := s.resolve(childName)
			if err != nil {
				continue
			}
			childName = resolved
			info = &entryInfo{name: e.Name, mode: target.mode, size: target.size, modTime: target.modTime}
		}

		if m.Match(info.name, info.IsDir()) && fn(child, info) == fspath.IterationStop {
			return true, nil
		}
		if flags&fspath.IterateSubdirectories != 0 && info.IsDir() && m.Descend(info.name) {
			stopped, err := d.walk(ctx, s, childName, child, fn, m, flags)
			if err != nil || stopped {
				return stopped, err
			}
		}
	}
	return false, nil
}

func (d *Device) ReadContents(ctx context.Context, p fspath.FilePath, limit, offset int64) ([]byte, error) {
	s, n, info, err := d.stat(ctx, p)
	if err != nil {
		return nil, err
	}
	if !info.mode.IsRegular() {
		return nil, errors.WithContext(errors.New(errors.CodeInvalidInput, "not a regular file"), "path", p.String())
	}
	f, err := s.tree.File(n)
	if err != nil {
		return nil, notFound(err, p)
	}
	r, err := f.Reader()
	if err != nil {
		return nil, errors.WithContext(errors.Wrap(err, errors.CodeIO, "failed to open blob"), "path", p.String())
	}
	defer func() { _ = r.Close() }()

	if offset > 0 {
		if _, err := io.CopyN(io.Discard, r, offset); err != nil && err != io.EOF {
			return nil, errors.WithContext(errors.Wrap(err, errors.CodeIO, "failed to read blob"), "path", p.String())
		}
	}
	var src io.Reader = r
	if limit >= 0 {
		src = io.LimitReader(r, limit)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.WithContext(errors.Wrap(err, errors.CodeIO, "failed to read blob"), "path", p.String())
	}
	return data, nil
}

func (d *Device) Permissions(ctx context.Context, p fspath.FilePath) (fs.FileMode, error) {
	_, _, info, err := d.stat(ctx, p)
	if err != nil {
		return 0, err
	}
	return info.mode.Perm(), nil
}

// LastModified implements fspath.Device with the commit time of the revision.
func (d *Device) LastModified(ctx context.Context, p fspath.FilePath) (time.Time, error) {
	_, _, info, err := d.stat(ctx, p)
	if err != nil {
		return time.Time{}, err
	}
	return info.modTime, nil
}

func (d *Device) FileSize(ctx context.Context, p fspath.FilePath) (int64, error) {
	_, _, info, err := d.stat(ctx, p)
	if err != nil {
		return 0, err
	}
	return info.size, nil
}

// FreeSpace implements fspath.Device. Revisions never have room.
func (d *Device) FreeSpace(context.Context, fspath.FilePath) (int64, error) {
	return 0, nil
}

// SymlinkTarget implements fspath.Device. Targets stay on the same
// repository and revision.
func (d *Device) SymlinkTarget(ctx context.Context, p fspath.FilePath) (fspath.FilePath, error) {
	s, err := d.snapshot(ctx, p)
	if err != nil {
		return fspath.FilePath{}, err
	}
	n := name(p)
	info, err := s.lstat(n)
	if err != nil {
		return fspath.FilePath{}, notFound(err, p)
	}
	if info.mode&fs.ModeSymlink == 0 {
		return fspath.FilePath{}, nil
	}
	target, err := s.readLink(n)
	if err != nil {
		return fspath.FilePath{}, notFound(err, p)
	}
	return p.WithNewPath("/" + target), nil
}

func (d *Device) DisplayName(p fspath.FilePath) string {
	rev, repo := splitHost(p.Host())
	return fmt.Sprintf("%s:%s@%s", d.scheme, repo, rev)
}

func (d *Device) MapToDevicePath(p fspath.FilePath) string { return name(p) }

// Environment implements fspath.Device with an empty environment.
func (d *Device) Environment(ctx context.Context, p fspath.FilePath) (fspath.Environment, error) {
	return fspath.NewEnvironment(d.OSType(ctx, p), nil), nil
}

// Close forgets every opened repository.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.repos)
	return nil
}
