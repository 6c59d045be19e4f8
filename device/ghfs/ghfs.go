package ghfs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/go-github/v67/github"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
)

// Device serves repository contents through the GitHub API. The host of a
// path is "[ref@]owner" and the first path element names the repository, as
// in "github://v1.0.0@jmgilman/go/README.md".
type Device struct {
	fspath.UnsupportedDevice

	scheme string
	prefix string
	client *github.Client
	logger *slog.Logger
}

var _ fspath.Device = (*Device)(nil)

// New creates a device from cfg.
func New(cfg Config) (*Device, error) {
	client, err := cfg.client()
	if err != nil {
		return nil, err
	}
	d := &Device{
		scheme: cfg.Scheme,
		prefix: cfg.CommitPrefix,
		client: client,
		logger: cfg.Logger,
	}
	if d.scheme == "" {
		d.scheme = DefaultScheme
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	return d, nil
}

// Scheme implements fspath.Device.
func (d *Device) Scheme() string { return d.scheme }

// location addresses an entry of a repository. An empty repo is the owner
// itself; an empty path is the repository root.
type location struct {
	ref   string
	owner string
	repo  string
	path  string
}

func (l location) String() string {
	return strings.TrimSuffix(l.owner+"/"+l.repo+"/"+l.path, "/")
}

func (l location) getOptions() *github.RepositoryContentGetOptions {
	return &github.RepositoryContentGetOptions{Ref: l.ref}
}

func locate(p fspath.FilePath) (location, error) {
	var l location
	l.owner = p.Host()
	if at := strings.LastIndexByte(l.owner, '@'); at >= 0 {
		l.ref, l.owner = l.owner[:at], l.owner[at+1:]
	}
	if l.owner == "" {
		return l, errors.WithContext(errors.New(errors.CodeInvalidInput, "path has no repository owner"), "path", p.String())
	}
	clean := strings.TrimPrefix(path.Clean("/"+p.Path()), "/")
	l.repo, l.path, _ = strings.Cut(clean, "/")
	return l, nil
}

// contentInfo implements fs.FileInfo for repository contents.
type contentInfo struct {
	name string
	mode fs.FileMode
	size int64
}

func (fi *contentInfo) Name() string       { return fi.name }
func (fi *contentInfo) Size() int64        { return fi.size }
func (fi *contentInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *contentInfo) ModTime() time.Time { return time.Time{} }
func (fi *contentInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *contentInfo) Sys() any           { return nil }

func infoOf(c *github.RepositoryContent) *contentInfo {
	fi := &contentInfo{name: c.GetName(), size: int64(c.GetSize())}
	switch c.GetType() {
	case "dir":
		fi.mode = fs.ModeDir | 0o755
	case "symlink":
		fi.mode = fs.ModeSymlink | 0o777
	case "submodule":
		fi.mode = fs.ModeIrregular
	default:
		fi.mode = 0o644
	}
	return fi
}

func dirInfo(name string) *contentInfo {
	return &contentInfo{name: name, mode: fs.ModeDir | 0o755}
}

// get fetches l. Exactly one of file and dir is set on success.
func (d *Device) get(ctx context.Context, l location) (file *github.RepositoryContent, dir []*github.RepositoryContent, err error) {
	file, dir, resp, err := d.client.Repositories.GetContents(ctx, l.owner, l.repo, l.path, l.getOptions())
	if err != nil {
		return nil, nil, wrapError(err, resp, "failed to get contents", l.String())
	}
	if file == nil && dir == nil {
		dir = []*github.RepositoryContent{}
	}
	return file, dir, nil
}

func (d *Device) stat(ctx context.Context, p fspath.FilePath) (location, *contentInfo, *github.RepositoryContent, error) {
	l, err := locate(p)
	if err != nil {
		return l, nil, nil, err
	}
	if l.repo == "" {
		return l, dirInfo(l.owner), nil, nil
	}
	file, _, err := d.get(ctx, l)
	if err != nil {
		return l, nil, nil, err
	}
	if file == nil {
		return l, dirInfo(path.Base("/" + l.repo + "/" + l.path)), nil, nil
	}
	return l, infoOf(file), file, nil
}

// OSType implements fspath.Device. Repository paths use forward slashes.
func (d *Device) OSType(context.Context, fspath.FilePath) fspath.OSType {
	return fspath.OSTypeOtherUnix
}

func (d *Device) Exists(ctx context.Context, p fspath.FilePath) bool {
	_, _, _, err := d.stat(ctx, p)
	return err == nil
}

func (d *Device) IsFile(ctx context.Context, p fspath.FilePath) bool {
	_, info, _, err := d.stat(ctx, p)
	return err == nil && info.mode.IsRegular()
}

func (d *Device) IsDir(ctx context.Context, p fspath.FilePath) bool {
	_, info, _, err := d.stat(ctx, p)
	return err == nil && info.IsDir()
}

func (d *Device) IsReadableFile(ctx context.Context, p fspath.FilePath) bool {
	return d.IsFile(ctx, p)
}

func (d *Device) IsReadableDir(ctx context.Context, p fspath.FilePath) bool {
	return d.IsDir(ctx, p)
}

// IsWritableFile implements fspath.Device. Whether the token may push is
// only known once a write is attempted.
func (d *Device) IsWritableFile(ctx context.Context, p fspath.FilePath) bool {
	return d.IsFile(ctx, p)
}

func (d *Device) IsWritableDir(ctx context.Context, p fspath.FilePath) bool {
	l, err := locate(p)
	return err == nil && l.repo != "" && d.IsDir(ctx, p)
}

// IsExecutableFile implements fspath.Device. The contents API does not
// expose file modes.
func (d *Device) IsExecutableFile(context.Context, fspath.FilePath) bool {
	return false
}

// EnsureWritableDir implements fspath.Device. Git has no empty directories,
// so a directory exists as soon as a file is written below it.
func (d *Device) EnsureWritableDir(ctx context.Context, p fspath.FilePath) error {
	l, err := locate(p)
	if err != nil {
		return err
	}
	if l.repo == "" {
		return errors.WithContext(errors.New(errors.CodeInvalidInput, "owner root is not writable"), "path", p.String())
	}
	_, info, _, err := d.stat(ctx, p)
	if err != nil {
		if errors.GetCode(err) == errors.CodeNotFound && l.path != "" {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return errors.WithContext(errors.New(errors.CodeInvalidInput, "not a directory"), "path", p.String())
	}
	return nil
}

func (d *Device) EnsureExistingFile(ctx context.Context, p fspath.FilePath) error {
	_, info, _, err := d.stat(ctx, p)
	if err == nil {
		if info.IsDir() {
			return errors.WithContext(errors.New(errors.CodeInvalidInput, "is a directory"), "path", p.String())
		}
		return nil
	}
	if errors.GetCode(err) != errors.CodeNotFound {
		return err
	}
	_, err = d.WriteContents(ctx, p, []byte{})
	return err
}

func (d *Device) IterateDirectory(ctx context.Context, p fspath.FilePath, fn fspath.IterateFunc, filter fspath.FileFilter) error {
	l, err := locate(p)
	if err != nil {
		return err
	}
	matcher, err := fspath.NewEntryMatcher(filter)
	if err != nil {
		return err
	}
	if l.repo == "" {
		return d.iterateRepositories(ctx, l, p, fn, matcher, filter.Flags)
	}
	_, err = d.walk(ctx, l, p, fn, matcher, filter.Flags)
	return err
}

// iterateRepositories lists the repositories of an owner as directories.
func (d *Device) iterateRepositories(ctx context.Context, l location, p fspath.FilePath, fn fspath.IterateFunc, m *fspath.EntryMatcher, flags fspath.IteratorFlags) error {
	opts := &github.RepositoryListByUserOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		repos, resp, err := d.client.Repositories.ListByUser(ctx, l.owner, opts)
		if err != nil {
			return wrapError(err, resp, "failed to list repositories", l.owner)
		}
		for _, repo := range repos {
			child := p.WithNewPath("/" + repo.GetName())
			info := dirInfo(repo.GetName())
			if m.Match(info.name, true) && fn(child, info) == fspath.IterationStop {
				return nil
			}
			if flags&fspath.IterateSubdirectories != 0 && m.Descend(info.name) {
				sub := l
				sub.repo = repo.GetName()
				stopped, err := d.walk(ctx, sub, child, fn, m, flags)
				if err != nil || stopped {
					return err
				}
			}
		}
		if resp.NextPage == 0 {
			return nil
		}
		opts.Page = resp.NextPage
	}
}

// walk reports whether iteration was stopped by fn.
func (d *Device) walk(ctx context.Context, l location, dir fspath.FilePath, fn fspath.IterateFunc, m *fspath.EntryMatcher, flags fspath.IteratorFlags) (bool, error) {
	file, entries, err := d.get(ctx, l)
	if err != nil {
		return false, err
	}
	if file != nil {
		return false, errors.WithContext(errors.New(errors.CodeInvalidInput, "not a directory"), "path", dir.String())
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return false, errors.FromFS(err, "directory iteration canceled")
		}
		child := dir.PathAppended(e.GetName())
		info := infoOf(e)
		if flags&fspath.IterateFollowSymlinks != 0 && info.mode&fs.ModeSymlink != 0 {
			if _, target, _, err := d.stat(ctx, child); err == nil {
				info = &contentInfo{name: info.name, mode: target.mode, size: target.size}
			}
		}

		if m.Match(info.name, info.IsDir()) && fn(child, info) == fspath.IterationStop {
			return true, nil
		}
		if flags&fspath.IterateSubdirectories != 0 && info.IsDir() && m.Descend(info.name) {
			sub := l
			sub.path = strings.TrimPrefix(l.path+"/"+e.GetName(), "/")
			stopped, err := d.walk(ctx, sub, child, fn, m, flags)
			if err != nil || stopped {
				return stopped, err
			}
		}
	}
	return false, nil
}

// fileContents returns the decoded contents of a file entry. Files too large
// to be inlined by the API are downloaded.
func (d *Device) fileContents(ctx context.Context, l location, file *github.RepositoryContent) ([]byte, error) {
	if file.GetEncoding() != "none" {
		content, err := file.GetContent()
		if err != nil {
			return nil, errors.WithContext(errors.Wrap(err, errors.CodeInternal, "failed to decode contents"), "path", l.String())
		}
		return []byte(content), nil
	}

	d.logger.Debug("downloading large file", "scheme", d.scheme, "path", l.String(), "size", file.GetSize())
	r, resp, err := d.client.Repositories.DownloadContents(ctx, l.owner, l.repo, l.path, l.getOptions())
	if err != nil {
		return nil, wrapError(err, resp, "failed to download contents", l.String())
	}
	defer func() { _ = r.Close() }()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithContext(errors.Wrap(err, errors.CodeNetwork, "failed to download contents"), "path", l.String())
	}
	return data, nil
}

func (d *Device) ReadContents(ctx context.Context, p fspath.FilePath, limit, offset int64) ([]byte, error) {
	l, info, file, err := d.stat(ctx, p)
	if err != nil {
		return nil, err
	}
	if file == nil || !info.mode.IsRegular() {
		return nil, errors.WithContext(errors.New(errors.CodeInvalidInput, "not a regular file"), "path", p.String())
	}
	data, err := d.fileContents(ctx, l, file)
	if err != nil {
		return nil, err
	}
	offset = min(max(offset, 0), int64(len(data)))
	data = data[offset:]
	if limit >= 0 && limit < int64(len(data)) {
		data = data[:limit]
	}
	return data, nil
}

func (d *Device) commitMessage(verb string, l location) *string {
	msg := fmt.Sprintf("%s %s", verb, l.path)
	if d.prefix != "" {
		msg = d.prefix + " " + msg
	}
	return github.String(msg)
}

// WriteContents implements fspath.Device by committing data to the ref of p,
// or to the default branch when p names no ref.
func (d *Device) WriteContents(ctx context.Context, p fspath.FilePath, data []byte) (int64, error) {
	l, _, file, err := d.stat(ctx, p)
	switch {
	case err != nil && errors.GetCode(err) != errors.CodeNotFound:
		return 0, err
	case err == nil && file == nil:
		return 0, errors.WithContext(errors.New(errors.CodeInvalidInput, "is a directory"), "path", p.String())
	case l.repo == "" || l.path == "":
		return 0, errors.WithContext(errors.New(errors.CodeInvalidInput, "path names no file"), "path", p.String())
	}

	if data == nil {
		data = []byte{}
	}
	opts := &github.RepositoryContentFileOptions{
		Content: data,
		Branch:  branch(l),
	}
	var resp *github.Response
	if file != nil {
		opts.Message = d.commitMessage("Update", l)
		opts.SHA = github.String(file.GetSHA())
		_, resp, err = d.client.Repositories.UpdateFile(ctx, l.owner, l.repo, l.path, opts)
	} else {
		opts.Message = d.commitMessage("Create", l)
		_, resp, err = d.client.Repositories.CreateFile(ctx, l.owner, l.repo, l.path, opts)
	}
	if err != nil {
		return 0, wrapError(err, resp, "failed to write contents", l.String())
	}
	d.logger.Debug("committed file", "scheme", d.scheme, "path", l.String(), "size", len(data))
	return int64(len(data)), nil
}

func branch(l location) *string {
	if l.ref == "" {
		return nil
	}
	return github.String(l.ref)
}

func (d *Device) CopyFile(ctx context.Context, src, dst fspath.FilePath) error {
	data, err := d.ReadContents(ctx, src, -1, 0)
	if err != nil {
		return err
	}
	_, err = d.WriteContents(ctx, dst, data)
	return err
}

// RenameFile implements fspath.Device as a copy followed by a removal, which
// takes two commits.
func (d *Device) RenameFile(ctx context.Context, src, dst fspath.FilePath) error {
	if src == dst {
		return nil
	}
	if err := d.CopyFile(ctx, src, dst); err != nil {
		return err
	}
	return d.RemoveFile(ctx, src)
}

func (d *Device) RemoveFile(ctx context.Context, p fspath.FilePath) error {
	l, _, file, err := d.stat(ctx, p)
	if err != nil {
		return err
	}
	if file == nil {
		return errors.WithContext(errors.New(errors.CodeInvalidInput, "directory not empty"), "path", p.String())
	}
	return d.remove(ctx, l, file.GetSHA())
}

func (d *Device) remove(ctx context.Context, l location, sha string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: d.commitMessage("Delete", l),
		SHA:     github.String(sha),
		Branch:  branch(l),
	}
	_, resp, err := d.client.Repositories.DeleteFile(ctx, l.owner, l.repo, l.path, opts)
	if err != nil {
		return wrapError(err, resp, "failed to delete file", l.String())
	}
	return nil
}

// RemoveRecursively implements fspath.Device with one commit per file.
// Repository roots are refused.
func (d *Device) RemoveRecursively(ctx context.Context, p fspath.FilePath) error {
	l, err := locate(p)
	if err != nil {
		return err
	}
	if l.path == "" {
		return errors.WithContext(errors.Wrap(fspath.ErrUnsafeRemoval, errors.CodeUnsafeOperation,
			"refusing to remove repository root"), "path", p.String())
	}
	file, entries, err := d.get(ctx, l)
	if err != nil {
		if errors.GetCode(err) == errors.CodeNotFound {
			return nil
		}
		return err
	}
	if file != nil {
		return d.remove(ctx, l, file.GetSHA())
	}
	for _, e := range entries {
		if e.GetType() == "dir" {
			if err := d.RemoveRecursively(ctx, p.PathAppended(e.GetName())); err != nil {
				return err
			}
			continue
		}
		sub := l
		sub.path = e.GetPath()
		if err := d.remove(ctx, sub, e.GetSHA()); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) Permissions(ctx context.Context, p fspath.FilePath) (fs.FileMode, error) {
	_, info, _, err := d.stat(ctx, p)
	if err != nil {
		return 0, err
	}
	return info.mode.Perm(), nil
}

// LastModified implements fspath.Device with the committer date of the last
// commit touching p.
func (d *Device) LastModified(ctx context.Context, p fspath.FilePath) (time.Time, error) {
	l, err := locate(p)
	if err != nil {
		return time.Time{}, err
	}
	if l.repo == "" {
		return time.Time{}, errors.WithContext(errors.New(errors.CodeInvalidInput, "owner has no commits"), "path", p.String())
	}
	opts := &github.CommitsListOptions{
		SHA:         l.ref,
		Path:        l.path,
		ListOptions: github.ListOptions{PerPage: 1},
	}
	commits, resp, err := d.client.Repositories.ListCommits(ctx, l.owner, l.repo, opts)
	if err != nil {
		return time.Time{}, wrapError(err, resp, "failed to list commits", l.String())
	}
	if len(commits) == 0 {
		return time.Time{}, errors.WithContext(errors.Wrap(fs.ErrNotExist, errors.CodeNotFound, "no commit touches path"), "path", l.String())
	}
	return commits[0].GetCommit().GetCommitter().GetDate().Time, nil
}

func (d *Device) FileSize(ctx context.Context, p fspath.FilePath) (int64, error) {
	_, info, _, err := d.stat(ctx, p)
	if err != nil {
		return 0, err
	}
	return info.size, nil
}

// SymlinkTarget implements fspath.Device. Links the API resolves itself are
// reported as the files they point to.
func (d *Device) SymlinkTarget(ctx context.Context, p fspath.FilePath) (fspath.FilePath, error) {
	l, info, file, err := d.stat(ctx, p)
	if err != nil {
		return fspath.FilePath{}, err
	}
	if info.mode&fs.ModeSymlink == 0 {
		return fspath.FilePath{}, nil
	}
	target := file.GetTarget()
	if path.IsAbs(target) {
		target = path.Join("/"+l.repo, target)
	} else {
		target = path.Join(p.ParentDir().Path(), target)
	}
	return p.WithNewPath(target), nil
}

func (d *Device) DisplayName(p fspath.FilePath) string {
	l, err := locate(p)
	if err != nil {
		return d.scheme + ":"
	}
	name := l.owner + "/" + l.repo
	if l.ref != "" {
		name += "@" + l.ref
	}
	return d.scheme + ":" + name
}

func (d *Device) MapToDevicePath(p fspath.FilePath) string {
	l, err := locate(p)
	if err != nil {
		return ""
	}
	return l.path
}

// Environment implements fspath.Device with an empty environment.
func (d *Device) Environment(ctx context.Context, p fspath.FilePath) (fspath.Environment, error) {
	return fspath.NewEnvironment(d.OSType(ctx, p), nil), nil
}
