package s3

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/device/s3/internal/keys"
	"github.com/jmgilman/go/fspath/errors"
)

// Device serves "s3://bucket/key" paths from an S3-compatible object store.
//
// Directories are virtual: a directory exists while at least one object
// key has it as a prefix. CreateDir is therefore a no-op and removing a
// missing object succeeds.
type Device struct {
	fspath.UnsupportedDevice

	client      *minio.Client
	scheme      string
	prefix      string
	partSize    uint64
	concurrency int
	transfers   *semaphore.Weighted
	logger      *slog.Logger
}

var (
	_ fspath.Device      = (*Device)(nil)
	_ fspath.AsyncDevice = (*Device)(nil)
)

// New creates an S3 device.
// Returns an error if the configuration is invalid or the client cannot be created.
func New(cfg Config) (*Device, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "invalid s3 configuration")
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to create s3 client")
		}
	}

	d := &Device{
		client:      client,
		scheme:      cfg.Scheme,
		prefix:      keys.Normalize(cfg.Prefix),
		partSize:    cfg.PartSize,
		concurrency: cfg.MaxConcurrency,
		logger:      cfg.Logger,
	}
	if d.scheme == "" {
		d.scheme = DefaultScheme
	}
	if d.partSize == 0 {
		d.partSize = defaultPartSize
	}
	if d.concurrency == 0 {
		d.concurrency = defaultConcurrency
	}
	d.transfers = semaphore.NewWeighted(int64(d.concurrency))
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	return d, nil
}

// Scheme implements fspath.Device.
func (d *Device) Scheme() string { return d.scheme }

// key returns the object key of p inside its bucket.
func (d *Device) key(p fspath.FilePath) string {
	return keys.Join(d.prefix, p.Path())
}

// OSType implements fspath.Device. Object keys use '/' and are case-sensitive.
func (d *Device) OSType(context.Context, fspath.FilePath) fspath.OSType {
	return fspath.OSTypeOther
}

func (d *Device) statObject(ctx context.Context, p fspath.FilePath) (minio.ObjectInfo, error) {
	key := d.key(p)
	if key == "" {
		return minio.ObjectInfo{}, errors.WithContext(errors.New(errors.CodeInvalidInput, "bucket root is not an object"), "path", p.String())
	}
	info, err := d.client.StatObject(ctx, p.Host(), key, minio.StatObjectOptions{})
	return info, translate(err, "stat", p)
}

// hasChildren reports whether any object key starts with the directory prefix of p.
func (d *Device) hasChildren(ctx context.Context, p fspath.FilePath) bool {
	key := d.key(p)
	if key == "" {
		ok, err := d.client.BucketExists(ctx, p.Host())
		return err == nil && ok
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for object := range d.client.ListObjects(ctx, p.Host(), minio.ListObjectsOptions{
		Prefix:  keys.Dir(key),
		MaxKeys: 1,
	}) {
		return object.Err == nil
	}
	return false
}

func (d *Device) Exists(ctx context.Context, p fspath.FilePath) bool {
	return d.IsFile(ctx, p) || d.IsDir(ctx, p)
}

func (d *Device) IsFile(ctx context.Context, p fspath.FilePath) bool {
	_, err := d.statObject(ctx, p)
	return err == nil
}

func (d *Device) IsDir(ctx context.Context, p fspath.FilePath) bool {
	return d.hasChildren(ctx, p)
}

func (d *Device) IsReadableFile(ctx context.Context, p fspath.FilePath) bool { return d.IsFile(ctx, p) }
func (d *Device) IsReadableDir(ctx context.Context, p fspath.FilePath) bool  { return d.IsDir(ctx, p) }
func (d *Device) IsWritableFile(ctx context.Context, p fspath.FilePath) bool { return d.IsFile(ctx, p) }

// IsWritableDir implements fspath.Device. Any key prefix in an existing
// bucket can receive objects.
func (d *Device) IsWritableDir(ctx context.Context, p fspath.FilePath) bool {
	ok, err := d.client.BucketExists(ctx, p.Host())
	return err == nil && ok && !d.IsFile(ctx, p)
}

// CreateDir implements fspath.Device. Directories are virtual, so only the
// bucket is checked.
func (d *Device) CreateDir(ctx context.Context, p fspath.FilePath) error {
	ok, err := d.client.BucketExists(ctx, p.Host())
	if err != nil {
		return translate(err, "create directory", p)
	}
	if !ok {
		return errors.WithContext(errors.New(errors.CodeNotFound, "bucket does not exist"), "path", p.String())
	}
	return nil
}

func (d *Device) EnsureWritableDir(ctx context.Context, p fspath.FilePath) error {
	return d.CreateDir(ctx, p)
}

func (d *Device) EnsureExistingFile(ctx context.Context, p fspath.FilePath) error {
	if d.IsFile(ctx, p) {
		return nil
	}
	_, err := d.WriteContents(ctx, p, nil)
	return err
}

func (d *Device) IterateDirectory(ctx context.Context, p fspath.FilePath, fn fspath.IterateFunc, filter fspath.FileFilter) error {
	matcher, err := fspath.NewEntryMatcher(filter)
	if err != nil {
		return err
	}
	_, err = d.walk(ctx, p, fn, matcher, filter.Flags&fspath.IterateSubdirectories != 0)
	return err
}

// walk lists the immediate children of dir and reports whether fn stopped
// iteration. Listing is cancelled as soon as it stops.
func (d *Device) walk(ctx context.Context, dir fspath.FilePath, fn fspath.IterateFunc, m *fspath.EntryMatcher, recursive bool) (bool, error) {
	prefix := keys.Dir(d.key(dir))

	var subdirs []fspath.FilePath
	stopped, err := func() (bool, error) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		for object := range d.client.ListObjects(ctx, dir.Host(), minio.ListObjectsOptions{Prefix: prefix}) {
			if object.Err != nil {
				return false, translate(object.Err, "read directory", dir)
			}
			name, isDir := keys.Child(prefix, object.Key)
			if name == "" {
				continue
			}
			child := dir.PathAppended(name)
			info := &objectInfo{name: name, size: object.Size, modTime: object.LastModified, dir: isDir}
			if m.Match(name, isDir) && fn(child, info) == fspath.IterationStop {
				return true, nil
			}
			if isDir && recursive && m.Descend(name) {
				subdirs = append(subdirs, child)
			}
		}
		return false, nil
	}()
	if err != nil || stopped {
		return stopped, err
	}

	for _, sub := range subdirs {
		stopped, err := d.walk(ctx, sub, fn, m, recursive)
		if err != nil || stopped {
			return stopped, err
		}
	}
	return false, nil
}

func (d *Device) ReadContents(ctx context.Context, p fspath.FilePath, limit, offset int64) ([]byte, error) {
	info, err := d.statObject(ctx, p)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	end := info.Size
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	if offset >= end {
		return []byte{}, nil
	}

	opts := minio.GetObjectOptions{}
	if offset > 0 || end < info.Size {
		if err := opts.SetRange(offset, end-1); err != nil {
			return nil, errors.WithContext(errors.Wrap(err, errors.CodeInvalidInput, "invalid read range"), "path", p.String())
		}
	}
	obj, err := d.client.GetObject(ctx, p.Host(), d.key(p), opts)
	if err != nil {
		return nil, translate(err, "read file", p)
	}
	defer func() { _ = obj.Close() }()

	buf := make([]byte, end-offset)
	if _, err := io.ReadFull(obj, buf); err != nil {
		return nil, translate(err, "read file", p)
	}
	return buf, nil
}

func (d *Device) WriteContents(ctx context.Context, p fspath.FilePath, data []byte) (int64, error) {
	key := d.key(p)
	if key == "" {
		return 0, errors.WithContext(errors.New(errors.CodeInvalidInput, "cannot write to the bucket root"), "path", p.String())
	}
	info, err := d.client.PutObject(ctx, p.Host(), key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		PartSize: d.partSize,
	})
	if err != nil {
		return 0, translate(err, "write file", p)
	}
	d.logger.Debug("wrote object", "bucket", p.Host(), "key", key, "size", info.Size)
	return info.Size, nil
}

// CopyFile implements fspath.Device with a server-side copy. The buckets
// of src and dst may differ.
func (d *Device) CopyFile(ctx context.Context, src, dst fspath.FilePath) error {
	_, err := d.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: dst.Host(), Object: d.key(dst)},
		minio.CopySrcOptions{Bucket: src.Host(), Object: d.key(src)},
	)
	return translate(err, "copy", src)
}

// RenameFile implements fspath.Device as copy and delete. Renaming a
// virtual directory copies its objects in parallel first.
//
// The operation is not atomic: a failure while deleting leaves objects at
// both locations.
func (d *Device) RenameFile(ctx context.Context, src, dst fspath.FilePath) error {
	if d.IsFile(ctx, src) {
		if err := d.CopyFile(ctx, src, dst); err != nil {
			return err
		}
		return translate(d.client.RemoveObject(ctx, src.Host(), d.key(src), minio.RemoveObjectOptions{}), "rename", src)
	}

	copied, err := d.parallelCopy(ctx, src, dst)
	if err != nil {
		return err
	}
	if len(copied) == 0 {
		return errors.WithContext(errors.New(errors.CodeNotFound, "rename source does not exist"), "path", src.String())
	}
	return d.removeKeys(ctx, src, func(ctx context.Context, ch chan<- minio.ObjectInfo) error {
		for _, key := range copied {
			if err := send(ctx, ch, minio.ObjectInfo{Key: key}); err != nil {
				return err
			}
		}
		return nil
	})
}

// parallelCopy copies every object below src to the same relative key
// below dst with bounded concurrency. It returns the copied source keys.
func (d *Device) parallelCopy(ctx context.Context, src, dst fspath.FilePath) ([]string, error) {
	srcPrefix, dstPrefix := keys.Dir(d.key(src)), keys.Dir(d.key(dst))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	var mu sync.Mutex
	var copied []string

	for object := range d.client.ListObjects(gctx, src.Host(), minio.ListObjectsOptions{
		Prefix:    srcPrefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			_ = g.Wait()
			return copied, translate(object.Err, "rename", src)
		}
		srcKey := object.Key
		g.Go(func() error {
			dstKey := dstPrefix + srcKey[len(srcPrefix):]
			_, err := d.client.CopyObject(gctx,
				minio.CopyDestOptions{Bucket: dst.Host(), Object: dstKey},
				minio.CopySrcOptions{Bucket: src.Host(), Object: srcKey},
			)
			if err != nil {
				return translate(err, "rename", src)
			}
			mu.Lock()
			copied = append(copied, srcKey)
			mu.Unlock()
			return nil
		})
	}
	return copied, g.Wait()
}

// send delivers object on ch unless ctx is done first.
func send(ctx context.Context, ch chan<- minio.ObjectInfo, object minio.ObjectInfo) error {
	select {
	case ch <- object:
		return nil
	case <-ctx.Done():
		return errors.FromFS(ctx.Err(), "removal canceled")
	}
}

// removeKeys deletes the objects produced by list in batches. list runs
// concurrently with the deletion and must not close ch.
func (d *Device) removeKeys(ctx context.Context, p fspath.FilePath, list func(ctx context.Context, ch chan<- minio.ObjectInfo) error) error {
	objects := make(chan minio.ObjectInfo, 100)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(objects)
		return list(gctx, objects)
	})

	var firstErr error
	for result := range d.client.RemoveObjects(gctx, p.Host(), objects, minio.RemoveObjectsOptions{}) {
		if result.Err != nil && firstErr == nil {
			firstErr = translate(result.Err, "remove", p)
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return firstErr
}

// RemoveFile implements fspath.Device. Removing a missing object succeeds.
func (d *Device) RemoveFile(ctx context.Context, p fspath.FilePath) error {
	key := d.key(p)
	if key == "" {
		return errors.WithContext(errors.New(errors.CodeInvalidInput, "cannot remove the bucket root"), "path", p.String())
	}
	return translate(d.client.RemoveObject(ctx, p.Host(), key, minio.RemoveObjectOptions{}), "remove", p)
}

// RemoveRecursively implements fspath.Device. It refuses to empty a
// whole bucket.
func (d *Device) RemoveRecursively(ctx context.Context, p fspath.FilePath) error {
	key := d.key(p)
	if key == "" {
		return errors.WithContext(errors.Wrap(fspath.ErrUnsafeRemoval, errors.CodeUnsafeOperation,
			"refusing to remove root directory"), "path", p.String())
	}

	if err := d.RemoveFile(ctx, p); err != nil {
		return err
	}
	prefix := keys.Dir(key)
	return d.removeKeys(ctx, p, func(ctx context.Context, ch chan<- minio.ObjectInfo) error {
		for object := range d.client.ListObjects(ctx, p.Host(), minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}) {
			if object.Err != nil {
				return translate(object.Err, "remove", p)
			}
			if err := send(ctx, ch, object); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *Device) LastModified(ctx context.Context, p fspath.FilePath) (time.Time, error) {
	info, err := d.statObject(ctx, p)
	if err != nil {
		return time.Time{}, err
	}
	return info.LastModified, nil
}

func (d *Device) FileSize(ctx context.Context, p fspath.FilePath) (int64, error) {
	info, err := d.statObject(ctx, p)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// SymlinkTarget implements fspath.Device. Object stores have no links.
func (d *Device) SymlinkTarget(context.Context, fspath.FilePath) (fspath.FilePath, error) {
	return fspath.FilePath{}, nil
}

// MapToDevicePath implements fspath.Device with the canonical S3 URI.
func (d *Device) MapToDevicePath(p fspath.FilePath) string {
	return "s3://" + p.Host() + "/" + d.key(p)
}

func (d *Device) DisplayName(p fspath.FilePath) string {
	return d.scheme + ":" + p.Host()
}
