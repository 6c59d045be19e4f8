package s3

import (
	"io/fs"
	"time"
)

// objectInfo implements fs.FileInfo for objects and virtual directories.
type objectInfo struct {
	name    string
	size    int64
	modTime time.Time
	dir     bool
}

func (fi *objectInfo) Name() string       { return fi.name }
func (fi *objectInfo) Size() int64        { return fi.size }
func (fi *objectInfo) ModTime() time.Time { return fi.modTime }
func (fi *objectInfo) IsDir() bool        { return fi.dir }
func (fi *objectInfo) Sys() any           { return nil }

func (fi *objectInfo) Mode() fs.FileMode {
	if fi.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

var _ fs.FileInfo = (*objectInfo)(nil)
