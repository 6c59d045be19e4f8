package fspath

import (
	"context"
)

type readOptions struct {
	limit  int64
	offset int64
}

// ReadOption configures ReadContents.
type ReadOption func(*readOptions)

// WithLimit reads at most n bytes. Negative means no limit.
func WithLimit(n int64) ReadOption {
	return func(o *readOptions) {
		o.limit = n
	}
}

// WithOffset starts reading at byte off.
func WithOffset(off int64) ReadOption {
	return func(o *readOptions) {
		o.offset = off
	}
}

func newReadOptions(opts []ReadOption) readOptions {
	o := readOptions{limit: -1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ReadContents returns the contents of p. A missing or unreadable file
// yields nil data and an error.
func (p FilePath) ReadContents(ctx context.Context, opts ...ReadOption) ([]byte, error) {
	o := newReadOptions(opts)
	return p.device(ctx).ReadContents(ctx, p, o.limit, o.offset)
}

// WriteContents replaces the contents of p with data and returns the number
// of bytes written.
func (p FilePath) WriteContents(ctx context.Context, data []byte) (int64, error) {
	return p.device(ctx).WriteContents(ctx, p, data)
}

// CopyFile copies p to target. Copies within a device use the device's own
// copy; copies between devices read p fully and write the data to target.
func (p FilePath) CopyFile(ctx context.Context, target FilePath) error {
	if p.IsSameDevice(target) {
		return p.device(ctx).CopyFile(ctx, p, target)
	}
	data, err := p.ReadContents(ctx)
	if err != nil {
		return err
	}
	_, err = target.WriteContents(ctx, data)
	return err
}

// ReadContentsAsync is the asynchronous form of ReadContents. For local
// paths the work is done before it returns.
func (p FilePath) ReadContentsAsync(ctx context.Context, opts ...ReadOption) *Future[[]byte] {
	o := newReadOptions(opts)
	d := p.device(ctx)
	if p.IsLocal() {
		data, err := d.ReadContents(ctx, p, o.limit, o.offset)
		return Resolved(data, err)
	}
	if ad, ok := d.(AsyncDevice); ok {
		return ad.ReadContentsAsync(ctx, p, o.limit, o.offset)
	}
	return Go(func() ([]byte, error) {
		return d.ReadContents(ctx, p, o.limit, o.offset)
	})
}

// WriteContentsAsync is the asynchronous form of WriteContents.
func (p FilePath) WriteContentsAsync(ctx context.Context, data []byte) *Future[int64] {
	d := p.device(ctx)
	if p.IsLocal() {
		n, err := d.WriteContents(ctx, p, data)
		return Resolved(n, err)
	}
	if ad, ok := d.(AsyncDevice); ok {
		return ad.WriteContentsAsync(ctx, p, data)
	}
	return Go(func() (int64, error) {
		return d.WriteContents(ctx, p, data)
	})
}

// CopyFileAsync is the asynchronous form of CopyFile. The future yields
// target on success. Copies between devices chain an asynchronous read of
// p with an asynchronous write to target.
func (p FilePath) CopyFileAsync(ctx context.Context, target FilePath) *Future[FilePath] {
	if !p.IsSameDevice(target) {
		f, resolve := NewFuture[FilePath]()
		p.ReadContentsAsync(ctx).Then(func(data []byte, err error) {
			if err != nil {
				resolve(FilePath{}, err)
				return
			}
			target.WriteContentsAsync(ctx, data).Then(func(_ int64, err error) {
				if err != nil {
					resolve(FilePath{}, err)
					return
				}
				resolve(target, nil)
			})
		})
		return f
	}

	d := p.device(ctx)
	if p.IsLocal() {
		if err := d.CopyFile(ctx, p, target); err != nil {
			return Resolved(FilePath{}, err)
		}
		return Resolved(target, nil)
	}
	if ad, ok := d.(AsyncDevice); ok {
		return ad.CopyFileAsync(ctx, p, target)
	}
	return Go(func() (FilePath, error) {
		if err := d.CopyFile(ctx, p, target); err != nil {
			return FilePath{}, err
		}
		return target, nil
	})
}
