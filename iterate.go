package fspath

import (
	"context"
	"io/fs"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/jmgilman/go/fspath/errors"
)

// IterationControl tells IterateDirectory whether to continue.
type IterationControl int

const (
	IterationContinue IterationControl = iota
	IterationStop
)

// IterateFunc is called for each accepted directory entry. info describes
// the entry itself, or its target when symlinks are followed.
type IterateFunc func(entry FilePath, info fs.FileInfo) IterationControl

// FilterType selects which kinds of entries are reported.
type FilterType int

const (
	FilterFiles FilterType = 1 << iota
	FilterDirs
	// FilterHidden includes entries whose name starts with '.'.
	FilterHidden
	// FilterAllDirs reports directories even when they do not match the name filters.
	FilterAllDirs
	// FilterCaseSensitive matches name filters case-sensitively.
	FilterCaseSensitive

	FilterAllEntries = FilterFiles | FilterDirs
)

// IteratorFlags controls how the directory tree is walked.
type IteratorFlags int

const (
	// IterateSubdirectories descends into subdirectories.
	IterateSubdirectories IteratorFlags = 1 << iota
	// IterateFollowSymlinks reports and descends into link targets.
	IterateFollowSymlinks
)

// FileFilter selects directory entries. NameFilters are glob patterns
// ("*.go", "[a-c]?.txt") matched against entry names; an empty list
// accepts every name. Zero Types means FilterAllEntries.
type FileFilter struct {
	NameFilters []string
	Types       FilterType
	Flags       IteratorFlags
}

// SortFlags orders the result of DirEntries. Zero keeps device order.
type SortFlags int

const (
	SortByName SortFlags = 1 << iota
	// SortByTime puts the most recently modified entries first.
	SortByTime
	SortReversed
	SortIgnoreCase
	SortDirsFirst
)

// EntryMatcher applies a compiled FileFilter to single entries. Device
// implementations use it so that filters behave the same everywhere.
type EntryMatcher struct {
	globs []glob.Glob
	types FilterType
}

// NewEntryMatcher compiles the name filters of filter.
func NewEntryMatcher(filter FileFilter) (*EntryMatcher, error) {
	m := &EntryMatcher{types: filter.Types}
	if m.types&FilterAllEntries == 0 {
		m.types |= FilterAllEntries
	}
	for _, pattern := range filter.NameFilters {
		if m.types&FilterCaseSensitive == 0 {
			pattern = strings.ToLower(pattern)
		}
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeInvalidInput, "invalid name filter %q", pattern)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether an entry called name with the given kind is accepted.
func (m *EntryMatcher) Match(name string, isDir bool) bool {
	if name == "." || name == ".." {
		return false
	}
	if strings.HasPrefix(name, ".") && m.types&FilterHidden == 0 {
		return false
	}
	if isDir && m.types&FilterDirs == 0 {
		return false
	}
	if !isDir && m.types&FilterFiles == 0 {
		return false
	}
	if isDir && m.types&FilterAllDirs != 0 {
		return true
	}
	return m.matchName(name)
}

// Descend reports whether a recursive walk enters the directory called name.
// Hidden directories are skipped unless FilterHidden is set.
func (m *EntryMatcher) Descend(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return !strings.HasPrefix(name, ".") || m.types&FilterHidden != 0
}

func (m *EntryMatcher) matchName(name string) bool {
	if len(m.globs) == 0 {
		return true
	}
	if m.types&FilterCaseSensitive == 0 {
		name = strings.ToLower(name)
	}
	for _, g := range m.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// IterateDirectory calls fn for every entry of directory p accepted by
// filter, stopping early when fn returns IterationStop.
func (p FilePath) IterateDirectory(ctx context.Context, fn IterateFunc, filter FileFilter) error {
	return RegistryFrom(ctx).DeviceFor(p).IterateDirectory(ctx, p, fn, filter)
}

type dirEntry struct {
	path FilePath
	info fs.FileInfo
}

// DirEntries returns the entries of directory p accepted by filter, ordered
// by sort.
func (p FilePath) DirEntries(ctx context.Context, filter FileFilter, sort SortFlags) ([]FilePath, error) {
	var entries []dirEntry
	err := p.IterateDirectory(ctx, func(entry FilePath, info fs.FileInfo) IterationControl {
		entries = append(entries, dirEntry{path: entry, info: info})
		return IterationContinue
	}, filter)
	if err != nil {
		return nil, err
	}

	sortEntries(entries, sort)

	result := make([]FilePath, len(entries))
	for i, e := range entries {
		result[i] = e.path
	}
	return result, nil
}

func sortEntries(entries []dirEntry, flags SortFlags) {
	if flags&(SortByName|SortByTime|SortDirsFirst) == 0 {
		if flags&SortReversed != 0 {
			slices.Reverse(entries)
		}
		return
	}

	name := func(e dirEntry) string {
		if flags&SortIgnoreCase != 0 {
			return foldCase(e.path.FileName())
		}
		return e.path.FileName()
	}

	slices.SortStableFunc(entries, func(a, b dirEntry) int {
		if flags&SortDirsFirst != 0 {
			ad, bd := isDirInfo(a.info), isDirInfo(b.info)
			if ad != bd {
				if ad {
					return -1
				}
				return 1
			}
		}
		c := 0
		if flags&SortByTime != 0 && a.info != nil && b.info != nil {
			c = b.info.ModTime().Compare(a.info.ModTime())
		}
		if c == 0 {
			c = strings.Compare(name(a), name(b))
		}
		if flags&SortReversed != 0 {
			c = -c
		}
		return c
	})
}

func isDirInfo(info fs.FileInfo) bool {
	return info != nil && info.IsDir()
}
