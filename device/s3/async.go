package s3

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
)

// schedule runs fn on a goroutine once a transfer slot is free. At most
// MaxConcurrency asynchronous transfers run at a time per device.
func schedule[T any](ctx context.Context, sem *semaphore.Weighted, fn func() (T, error)) *fspath.Future[T] {
	f, resolve := fspath.NewFuture[T]()
	go func() {
		if err := sem.Acquire(ctx, 1); err != nil {
			var zero T
			resolve(zero, errors.FromFS(err, "transfer canceled"))
			return
		}
		defer sem.Release(1)
		resolve(fn())
	}()
	return f
}

// ReadContentsAsync implements fspath.AsyncDevice.
func (d *Device) ReadContentsAsync(ctx context.Context, p fspath.FilePath, limit, offset int64) *fspath.Future[[]byte] {
	return schedule(ctx, d.transfers, func() ([]byte, error) {
		return d.ReadContents(ctx, p, limit, offset)
	})
}

// WriteContentsAsync implements fspath.AsyncDevice.
func (d *Device) WriteContentsAsync(ctx context.Context, p fspath.FilePath, data []byte) *fspath.Future[int64] {
	return schedule(ctx, d.transfers, func() (int64, error) {
		return d.WriteContents(ctx, p, data)
	})
}

// CopyFileAsync implements fspath.AsyncDevice.
func (d *Device) CopyFileAsync(ctx context.Context, src, dst fspath.FilePath) *fspath.Future[fspath.FilePath] {
	return schedule(ctx, d.transfers, func() (fspath.FilePath, error) {
		if err := d.CopyFile(ctx, src, dst); err != nil {
			return fspath.FilePath{}, err
		}
		return dst, nil
	})
}
