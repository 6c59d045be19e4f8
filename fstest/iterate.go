package fstest

import (
	"context"
	"io/fs"
	"slices"
	"testing"

	"github.com/jmgilman/go/fspath"
)

// TestIterate tests directory iteration, filtering and sorting.
func TestIterate(t *testing.T, ctx context.Context, root fspath.FilePath) {
	TestIterateWithConfig(t, ctx, root, POSIXTestConfig())
}

// TestIterateWithConfig tests directory iteration with behavior configuration.
func TestIterateWithConfig(t *testing.T, ctx context.Context, root fspath.FilePath, config DeviceTestConfig) {
	dir := root.PathAppended("iter")
	mustMkdir(t, ctx, dir, config)
	mustMkdir(t, ctx, dir.PathAppended("sub"), config)
	for _, name := range []string{"b.txt", "a.go", "sub/c.go"} {
		mustWrite(t, ctx, dir.PathAppended(name), name)
	}

	runSubtest(t, "Iterate", "Files", config, func(t *testing.T) {
		entries, err := dir.DirEntries(ctx, fspath.FileFilter{Types: fspath.FilterFiles}, fspath.SortByName)
		if err != nil {
			t.Fatalf("DirEntries(%q): got error %v, want nil", dir.ToUserOutput(), err)
		}
		assertNames(t, dir, entries, []string{"a.go", "b.txt"})
	})

	runSubtest(t, "Iterate", "FilesAndDirs", config, func(t *testing.T) {
		entries, err := dir.DirEntries(ctx, fspath.FileFilter{}, fspath.SortByName|fspath.SortDirsFirst)
		if err != nil {
			t.Fatalf("DirEntries(%q): got error %v, want nil", dir.ToUserOutput(), err)
		}
		assertNames(t, dir, entries, []string{"sub", "a.go", "b.txt"})
	})

	runSubtest(t, "Iterate", "NameFilterRecursive", config, func(t *testing.T) {
		entries, err := dir.DirEntries(ctx, fspath.FileFilter{
			NameFilters: []string{"*.go"},
			Flags:       fspath.IterateSubdirectories,
		}, fspath.SortByName)
		if err != nil {
			t.Fatalf("DirEntries(%q): got error %v, want nil", dir.ToUserOutput(), err)
		}
		assertNames(t, dir, entries, []string{"a.go", "c.go"})
	})

	runSubtest(t, "Iterate", "Stop", config, func(t *testing.T) {
		calls := 0
		err := dir.IterateDirectory(ctx, func(fspath.FilePath, fs.FileInfo) fspath.IterationControl {
			calls++
			return fspath.IterationStop
		}, fspath.FileFilter{Flags: fspath.IterateSubdirectories})
		if err != nil {
			t.Fatalf("IterateDirectory(%q): got error %v, want nil", dir.ToUserOutput(), err)
		}
		if calls != 1 {
			t.Errorf("IterateDirectory(%q): callback ran %d times after stop, want 1", dir.ToUserOutput(), calls)
		}
	})

	runSubtest(t, "Iterate", "EntryInfo", config, func(t *testing.T) {
		err := dir.IterateDirectory(ctx, func(p fspath.FilePath, info fs.FileInfo) fspath.IterationControl {
			if info == nil {
				t.Errorf("IterateDirectory: nil info for %q", p.ToUserOutput())
				return fspath.IterationContinue
			}
			if info.Name() != p.FileName() {
				t.Errorf("IterateDirectory: info name %q does not match %q", info.Name(), p.FileName())
			}
			if p.FileName() == "a.go" && info.Size() != int64(len("a.go")) {
				t.Errorf("IterateDirectory: size of a.go = %d, want %d", info.Size(), len("a.go"))
			}
			return fspath.IterationContinue
		}, fspath.FileFilter{Types: fspath.FilterFiles})
		if err != nil {
			t.Fatalf("IterateDirectory(%q): got error %v, want nil", dir.ToUserOutput(), err)
		}
	})

	runSubtest(t, "Iterate", "RecursiveSkipsHiddenDirs", config, func(t *testing.T) {
		hidden := root.PathAppended("iterhidden")
		mustMkdir(t, ctx, hidden, config)
		mustMkdir(t, ctx, hidden.PathAppended(".git"), config)
		mustWrite(t, ctx, hidden.PathAppended("main.go"), "main.go")
		mustWrite(t, ctx, hidden.PathAppended(".git/config"), "config")

		entries, err := hidden.DirEntries(ctx, fspath.FileFilter{
			Types: fspath.FilterFiles,
			Flags: fspath.IterateSubdirectories,
		}, fspath.SortByName)
		if err != nil {
			t.Fatalf("DirEntries(%q): got error %v, want nil", hidden.ToUserOutput(), err)
		}
		assertNames(t, hidden, entries, []string{"main.go"})

		entries, err = hidden.DirEntries(ctx, fspath.FileFilter{
			Types: fspath.FilterFiles | fspath.FilterHidden,
			Flags: fspath.IterateSubdirectories,
		}, fspath.SortByName)
		if err != nil {
			t.Fatalf("DirEntries(%q): got error %v, want nil", hidden.ToUserOutput(), err)
		}
		assertNames(t, hidden, entries, []string{"config", "main.go"})
	})
}

func assertNames(t *testing.T, dir fspath.FilePath, entries []fspath.FilePath, want []string) {
	t.Helper()
	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.FileName()
		if !e.IsSameDevice(dir) {
			t.Errorf("entry %q is not on the device of %q", e.ToUserOutput(), dir.ToUserOutput())
		}
	}
	if !slices.Equal(got, want) {
		t.Errorf("DirEntries(%q): got %v, want %v", dir.ToUserOutput(), got, want)
	}
}
