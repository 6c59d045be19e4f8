package docker

import (
	"io/fs"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/jmgilman/go/fspath/errors"
)

// statFormat is passed to stat -c. The name comes first so that names
// containing the separator can still be parsed from the right.
const statFormat = "%n|%F|%s|%a|%Y"

// fileInfo implements fs.FileInfo for one line of stat output.
type fileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.size }
func (fi *fileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *fileInfo) ModTime() time.Time { return fi.modTime }
func (fi *fileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *fileInfo) Sys() any           { return nil }

var _ fs.FileInfo = (*fileInfo)(nil)

// parseStat parses a line produced with statFormat.
func parseStat(line string) (*fileInfo, error) {
	fields := strings.Split(line, "|")
	if len(fields) < 5 {
		return nil, errors.WithContext(errors.New(errors.CodeInternal, "unexpected stat output"), "line", line)
	}
	n := len(fields)
	name := strings.Join(fields[:n-4], "|")
	kind, size, perm, mtime := fields[n-4], fields[n-3], fields[n-2], fields[n-1]

	fi := &fileInfo{name: path.Base(name)}
	var err error
	if fi.size, err = strconv.ParseInt(size, 10, 64); err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "invalid size %q in stat output", size)
	}
	bits, err := strconv.ParseUint(perm, 8, 32)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "invalid mode %q in stat output", perm)
	}
	epoch, err := strconv.ParseInt(mtime, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "invalid mtime %q in stat output", mtime)
	}
	fi.modTime = time.Unix(epoch, 0)
	fi.mode = fs.FileMode(bits).Perm() | typeBits(kind)
	return fi, nil
}

func typeBits(kind string) fs.FileMode {
	kind = strings.ToLower(kind)
	switch {
	case strings.Contains(kind, "directory"):
		return fs.ModeDir
	case strings.Contains(kind, "symbolic link"):
		return fs.ModeSymlink
	case strings.Contains(kind, "regular"):
		return 0
	case strings.Contains(kind, "fifo"):
		return fs.ModeNamedPipe
	case strings.Contains(kind, "socket"):
		return fs.ModeSocket
	case strings.Contains(kind, "character"):
		return fs.ModeDevice | fs.ModeCharDevice
	case strings.Contains(kind, "block"):
		return fs.ModeDevice
	default:
		return fs.ModeIrregular
	}
}

// parseStatLines parses find/stat output, one entry per line.
func parseStatLines(out string) ([]*fileInfo, error) {
	var infos []*fileInfo
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fi, err := parseStat(line)
		if err != nil {
			return nil, err
		}
		infos = append(infos, fi)
	}
	return infos, nil
}

// shellQuote quotes s for POSIX sh.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
