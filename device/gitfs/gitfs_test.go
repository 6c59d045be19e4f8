package gitfs

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
)

var testAuthor = &object.Signature{
	Name:  "Test User",
	Email: "test@example.com",
	When:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
}

// newTestRepo commits files to an in-memory repository and tags the
// commit "v1". A second commit changes README.md.
func newTestRepo(t *testing.T) *gogit.Repository {
	t.Helper()

	wfs := memfs.New()
	repo, err := gogit.Init(memory.NewStorage(), wfs)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, util.WriteFile(wfs, "README.md", []byte("version one"), 0o644))
	require.NoError(t, util.WriteFile(wfs, "src/main.go", []byte("package main\n"), 0o644))
	require.NoError(t, util.WriteFile(wfs, "src/.hidden", []byte("h"), 0o644))
	require.NoError(t, util.WriteFile(wfs, "bin/run.sh", []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, wfs.Symlink("../README.md", "src/readme"))
	_, err = wt.Add(".")
	require.NoError(t, err)
	first, err := wt.Commit("first", &gogit.CommitOptions{All: true, Author: testAuthor})
	require.NoError(t, err)
	_, err = repo.CreateTag("v1", first, nil)
	require.NoError(t, err)

	require.NoError(t, util.WriteFile(wfs, "README.md", []byte("version two"), 0o644))
	_, err = wt.Commit("second", &gogit.CommitOptions{All: true, Author: testAuthor})
	require.NoError(t, err)
	return repo
}

func setup(t *testing.T) (context.Context, *Device) {
	t.Helper()
	dev := New("git", WithRepository("app", newTestRepo(t)))
	r := fspath.NewRegistry()
	require.NoError(t, r.Register(dev))
	return fspath.WithRegistry(context.Background(), r), dev
}

func TestDevice_ReadContents(t *testing.T) {
	ctx, _ := setup(t)

	tests := []struct {
		name string
		path string
		opts []fspath.ReadOption
		want string
	}{
		{name: "head", path: "git://app/README.md", want: "version two"},
		{name: "tag", path: "git://v1@app/README.md", want: "version one"},
		{name: "nested", path: "git://app/src/main.go", want: "package main\n"},
		{name: "range", path: "git://app/README.md", opts: []fspath.ReadOption{fspath.WithOffset(8), fspath.WithLimit(3)}, want: "two"},
		{name: "offset past end", path: "git://app/README.md", opts: []fspath.ReadOption{fspath.WithOffset(100)}, want: ""},
		{name: "through symlink", path: "git://v1@app/src/readme", want: "version one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := fspath.FromString(tt.path).ReadContents(ctx, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestDevice_NotFound(t *testing.T) {
	ctx, _ := setup(t)

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: "git://app/nope.txt"},
		{name: "missing repository", path: "git://other/README.md"},
		{name: "missing revision", path: "git://v9@app/README.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fspath.FromString(tt.path)
			assert.False(t, p.Exists(ctx))
			_, err := p.ReadContents(ctx)
			require.Error(t, err)
			assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
		})
	}
}

func TestDevice_Predicates(t *testing.T) {
	ctx, _ := setup(t)

	root := fspath.FromString("git://app/")
	assert.True(t, root.IsDir(ctx))
	assert.True(t, root.PathAppended("src").IsDir(ctx))
	assert.True(t, root.PathAppended("README.md").IsFile(ctx))
	assert.True(t, root.PathAppended("README.md").IsReadableFile(ctx))
	assert.False(t, root.PathAppended("README.md").IsWritableFile(ctx))
	assert.False(t, root.PathAppended("src").IsWritableDir(ctx))
	assert.True(t, root.PathAppended("bin/run.sh").IsExecutableFile(ctx))
	assert.False(t, root.PathAppended("src/main.go").IsExecutableFile(ctx))
}

func TestDevice_Metadata(t *testing.T) {
	ctx, _ := setup(t)

	p := fspath.FromString("git://v1@app/README.md")
	size, err := p.FileSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len("version one")), size)

	modified, err := p.LastModified(ctx)
	require.NoError(t, err)
	assert.True(t, testAuthor.When.Equal(modified))

	perm, err := fspath.FromString("git://app/bin/run.sh").Permissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o755), perm)
}

func TestDevice_DirEntries(t *testing.T) {
	ctx, _ := setup(t)
	root := fspath.FromString("git://app/")

	tests := []struct {
		name   string
		filter fspath.FileFilter
		want   []string
	}{
		{
			name:   "top level",
			filter: fspath.FileFilter{},
			want:   []string{"/README.md", "/bin", "/src"},
		},
		{
			name:   "recursive files",
			filter: fspath.FileFilter{Types: fspath.FilterFiles, Flags: fspath.IterateSubdirectories},
			want:   []string{"/README.md", "/bin/run.sh", "/src/main.go", "/src/readme"},
		},
		{
			name:   "hidden",
			filter: fspath.FileFilter{Types: fspath.FilterFiles | fspath.FilterHidden, Flags: fspath.IterateSubdirectories},
			want:   []string{"/README.md", "/bin/run.sh", "/src/.hidden", "/src/main.go", "/src/readme"},
		},
		{
			name:   "directories",
			filter: fspath.FileFilter{Types: fspath.FilterDirs, Flags: fspath.IterateSubdirectories},
			want:   []string{"/bin", "/src"},
		},
		{
			name:   "follow symlinks",
			filter: fspath.FileFilter{NameFilters: []string{"readme"}, Types: fspath.FilterFiles, Flags: fspath.IterateSubdirectories | fspath.IterateFollowSymlinks},
			want:   []string{"/src/readme"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := root.DirEntries(ctx, tt.filter, 0)
			require.NoError(t, err)
			var got []string
			for _, e := range entries {
				got = append(got, e.Path())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDevice_SymlinkTarget(t *testing.T) {
	ctx, _ := setup(t)

	target, err := fspath.FromString("git://v1@app/src/readme").SymlinkTarget(ctx)
	require.NoError(t, err)
	assert.Equal(t, fspath.FromString("git://v1@app/README.md"), target)

	target, err = fspath.FromString("git://app/src/main.go").SymlinkTarget(ctx)
	require.NoError(t, err)
	assert.True(t, target.IsEmpty())
}

func TestDevice_ReadOnly(t *testing.T) {
	ctx, _ := setup(t)
	p := fspath.FromString("git://app/README.md")

	_, err := p.WriteContents(ctx, []byte("x"))
	require.ErrorIs(t, err, fspath.ErrNotSupported)
	assert.Equal(t, errors.CodePermission, errors.GetCode(err))

	require.ErrorIs(t, p.RemoveFile(ctx), fspath.ErrNotSupported)
	require.ErrorIs(t, fspath.FromString("git://app/new").CreateDir(ctx), fspath.ErrNotSupported)
}

func TestDevice_CopyToAnotherDevice(t *testing.T) {
	_, dev := setup(t)

	local := fspath.NewLocalDevice()
	r := fspath.NewRegistry(fspath.WithLocalDevice(local))
	require.NoError(t, r.Register(dev))
	ctx := fspath.WithRegistry(context.Background(), r)

	dst := fspath.FromString(t.TempDir()).PathAppended("README.md")
	require.NoError(t, fspath.FromString("git://v1@app/README.md").CopyFile(ctx, dst))
	data, err := dst.ReadContents(ctx)
	require.NoError(t, err)
	assert.Equal(t, "version one", string(data))
}

func TestNewLocal(t *testing.T) {
	base := t.TempDir()
	repo, err := gogit.PlainInit(base+"/tools", false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, util.WriteFile(wt.Filesystem, "Makefile", []byte("all:\n"), 0o644))
	_, err = wt.Add("Makefile")
	require.NoError(t, err)
	_, err = wt.Commit("init", &gogit.CommitOptions{Author: testAuthor})
	require.NoError(t, err)

	dev := NewLocal("git", base)
	r := fspath.NewRegistry()
	require.NoError(t, r.Register(dev))
	ctx := fspath.WithRegistry(context.Background(), r)

	data, err := fspath.FromString("git://tools/Makefile").ReadContents(ctx)
	require.NoError(t, err)
	assert.Equal(t, "all:\n", string(data))

	_, err = dev.Repository("missing")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestSplitHost(t *testing.T) {
	tests := []struct {
		host, rev, repo string
	}{
		{host: "app", rev: "HEAD", repo: "app"},
		{host: "v1@app", rev: "v1", repo: "app"},
		{host: "HEAD~1@app", rev: "HEAD~1", repo: "app"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			rev, repo := splitHost(tt.host)
			assert.Equal(t, tt.rev, rev)
			assert.Equal(t, tt.repo, repo)
		})
	}
}

func TestDevice_DisplayName(t *testing.T) {
	dev := New("git")
	assert.Equal(t, "git:app@v1", dev.DisplayName(fspath.FromString("git://v1@app/x")))
	assert.Equal(t, "README.md", dev.MapToDevicePath(fspath.FromString("git://app/README.md")))
}
