package fspath

import (
	"context"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/fspath/errors"
)

func TestEntryMatcher(t *testing.T) {
	tests := []struct {
		name   string
		filter FileFilter
		entry  string
		isDir  bool
		want   bool
	}{
		{"default accepts files", FileFilter{}, "a.go", false, true},
		{"default accepts dirs", FileFilter{}, "pkg", true, true},
		{"dot entries never match", FileFilter{Types: FilterAllEntries | FilterHidden}, "..", true, false},
		{"hidden excluded", FileFilter{}, ".git", true, false},
		{"hidden included", FileFilter{Types: FilterAllEntries | FilterHidden}, ".git", true, true},
		{"files only", FileFilter{Types: FilterFiles}, "pkg", true, false},
		{"dirs only", FileFilter{Types: FilterDirs}, "a.go", false, false},
		{"glob match", FileFilter{NameFilters: []string{"*.go"}}, "main.go", false, true},
		{"glob miss", FileFilter{NameFilters: []string{"*.go"}}, "main.rs", false, false},
		{"glob case folded", FileFilter{NameFilters: []string{"*.GO"}}, "main.go", false, true},
		{"glob case sensitive", FileFilter{NameFilters: []string{"*.GO"}, Types: FilterFiles | FilterCaseSensitive}, "main.go", false, false},
		{"any of several globs", FileFilter{NameFilters: []string{"*.c", "*.h"}}, "x.h", false, true},
		{"dirs filtered by name", FileFilter{NameFilters: []string{"*.go"}}, "pkg", true, false},
		{"all dirs bypass names", FileFilter{NameFilters: []string{"*.go"}, Types: FilterAllEntries | FilterAllDirs}, "pkg", true, true},
		{"character class", FileFilter{NameFilters: []string{"[a-c]?.txt"}}, "b1.txt", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewEntryMatcher(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Match(tt.entry, tt.isDir))
		})
	}
}

func TestEntryMatcher_Descend(t *testing.T) {
	m, err := NewEntryMatcher(FileFilter{NameFilters: []string{"*.go"}})
	require.NoError(t, err)
	assert.True(t, m.Descend("pkg"))
	assert.False(t, m.Descend(".git"))
	assert.False(t, m.Descend(".."))

	m, err = NewEntryMatcher(FileFilter{Types: FilterFiles | FilterHidden})
	require.NoError(t, err)
	assert.True(t, m.Descend(".git"))
	assert.False(t, m.Descend("."))
}

func TestEntryMatcher_InvalidPattern(t *testing.T) {
	_, err := NewEntryMatcher(FileFilter{NameFilters: []string{"[a-"}})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

// populate creates:
//
//	b.txt  a.go  .hidden  sub/  sub/c.go  sub/deep/  sub/deep/d.txt
func populate(t *testing.T) FilePath {
	t.Helper()
	ctx := context.Background()
	dir := tempDir(t)
	require.NoError(t, dir.PathAppended("sub/deep").CreateDir(ctx))
	for _, name := range []string{"b.txt", "a.go", ".hidden", "sub/c.go", "sub/deep/d.txt"} {
		_, err := dir.PathAppended(name).WriteContents(ctx, []byte(name))
		require.NoError(t, err)
	}
	return dir
}

func names(paths []FilePath) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.FileName()
	}
	return out
}

func TestDirEntries(t *testing.T) {
	ctx := context.Background()
	dir := populate(t)

	t.Run("by name", func(t *testing.T) {
		entries, err := dir.DirEntries(ctx, FileFilter{}, SortByName)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.go", "b.txt", "sub"}, names(entries))
	})

	t.Run("reversed", func(t *testing.T) {
		entries, err := dir.DirEntries(ctx, FileFilter{}, SortByName|SortReversed)
		require.NoError(t, err)
		assert.Equal(t, []string{"sub", "b.txt", "a.go"}, names(entries))
	})

	t.Run("dirs first", func(t *testing.T) {
		entries, err := dir.DirEntries(ctx, FileFilter{}, SortByName|SortDirsFirst)
		require.NoError(t, err)
		assert.Equal(t, []string{"sub", "a.go", "b.txt"}, names(entries))
	})

	t.Run("hidden", func(t *testing.T) {
		entries, err := dir.DirEntries(ctx, FileFilter{Types: FilterFiles | FilterHidden}, SortByName)
		require.NoError(t, err)
		assert.Equal(t, []string{".hidden", "a.go", "b.txt"}, names(entries))
	})

	t.Run("recursive with name filter", func(t *testing.T) {
		entries, err := dir.DirEntries(ctx, FileFilter{
			NameFilters: []string{"*.go"},
			Flags:       IterateSubdirectories,
		}, SortByName)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.go", "c.go"}, names(entries))
		for _, e := range entries {
			assert.True(t, e.IsChildOf(dir))
		}
	})

	t.Run("recursive skips hidden dirs", func(t *testing.T) {
		root := tempDir(t)
		require.NoError(t, root.PathAppended(".git/objects").CreateDir(ctx))
		for _, name := range []string{"main.go", ".git/config", ".git/objects/pack"} {
			_, err := root.PathAppended(name).WriteContents(ctx, []byte(name))
			require.NoError(t, err)
		}

		entries, err := root.DirEntries(ctx, FileFilter{Flags: IterateSubdirectories}, SortByName)
		require.NoError(t, err)
		assert.Equal(t, []string{"main.go"}, names(entries))

		entries, err = root.DirEntries(ctx, FileFilter{
			Types: FilterFiles | FilterHidden,
			Flags: IterateSubdirectories,
		}, SortByName)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"main.go", "config", "pack"}, names(entries))
	})

	t.Run("by time", func(t *testing.T) {
		old := time.Now().Add(-time.Hour)
		require.NoError(t, os.Chtimes(dir.PathAppended("b.txt").NativePath(), old, old))
		entries, err := dir.DirEntries(ctx, FileFilter{Types: FilterFiles}, SortByTime)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.go", "b.txt"}, names(entries))
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := dir.PathAppended("nope").DirEntries(ctx, FileFilter{}, 0)
		assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	})
}

func TestIterateDirectory_Stop(t *testing.T) {
	ctx := context.Background()
	dir := populate(t)

	calls := 0
	err := dir.IterateDirectory(ctx, func(FilePath, fs.FileInfo) IterationControl {
		calls++
		return IterationStop
	}, FileFilter{Flags: IterateSubdirectories})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestIterateDirectory_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := populate(t).IterateDirectory(ctx, func(FilePath, fs.FileInfo) IterationControl {
		return IterationContinue
	}, FileFilter{})
	assert.Equal(t, errors.CodeCanceled, errors.GetCode(err))
}
