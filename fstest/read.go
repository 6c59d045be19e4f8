package fstest

import (
	"context"
	"testing"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
)

// TestRead tests content reads and existence predicates.
func TestRead(t *testing.T, ctx context.Context, root fspath.FilePath) {
	TestReadWithConfig(t, ctx, root, POSIXTestConfig())
}

// TestReadWithConfig tests content reads with behavior configuration.
func TestReadWithConfig(t *testing.T, ctx context.Context, root fspath.FilePath, config DeviceTestConfig) {
	dir := root.PathAppended("readdir")
	file := dir.PathAppended("file.txt")
	content := "0123456789"

	mustMkdir(t, ctx, dir, config)
	mustWrite(t, ctx, file, content)

	runSubtest(t, "Read", "Full", config, func(t *testing.T) {
		data, err := file.ReadContents(ctx)
		if err != nil {
			t.Fatalf("ReadContents(%q): got error %v, want nil", file.ToUserOutput(), err)
		}
		if string(data) != content {
			t.Errorf("ReadContents(%q): got %q, want %q", file.ToUserOutput(), data, content)
		}
	})

	runSubtest(t, "Read", "LimitAndOffset", config, func(t *testing.T) {
		tests := []struct {
			opts []fspath.ReadOption
			want string
		}{
			{[]fspath.ReadOption{fspath.WithLimit(3)}, "012"},
			{[]fspath.ReadOption{fspath.WithOffset(7)}, "789"},
			{[]fspath.ReadOption{fspath.WithOffset(2), fspath.WithLimit(4)}, "2345"},
		}
		for _, tt := range tests {
			data, err := file.ReadContents(ctx, tt.opts...)
			if err != nil {
				t.Errorf("ReadContents(%q): got error %v, want nil", file.ToUserOutput(), err)
				continue
			}
			if string(data) != tt.want {
				t.Errorf("ReadContents(%q): got %q, want %q", file.ToUserOutput(), data, tt.want)
			}
		}
	})

	runSubtest(t, "Read", "Predicates", config, func(t *testing.T) {
		if !file.Exists(ctx) {
			t.Errorf("Exists(%q) = false, want true", file.ToUserOutput())
		}
		if !file.IsFile(ctx) {
			t.Errorf("IsFile(%q) = false, want true", file.ToUserOutput())
		}
		if file.IsDir(ctx) {
			t.Errorf("IsDir(%q) = true, want false", file.ToUserOutput())
		}
		if !file.IsReadableFile(ctx) {
			t.Errorf("IsReadableFile(%q) = false, want true", file.ToUserOutput())
		}
		if !dir.IsDir(ctx) {
			t.Errorf("IsDir(%q) = false, want true", dir.ToUserOutput())
		}
	})

	runSubtest(t, "Read", "NotExist", config, func(t *testing.T) {
		missing := dir.PathAppended("missing.txt")
		if missing.Exists(ctx) {
			t.Errorf("Exists(%q) = true, want false", missing.ToUserOutput())
		}
		data, err := missing.ReadContents(ctx)
		if err == nil {
			t.Fatalf("ReadContents(%q): got nil error, want not found", missing.ToUserOutput())
		}
		if code := errors.GetCode(err); code != errors.CodeNotFound {
			t.Errorf("ReadContents(%q): got code %s, want %s", missing.ToUserOutput(), code, errors.CodeNotFound)
		}
		if len(data) != 0 {
			t.Errorf("ReadContents(%q): got %d bytes for a missing file", missing.ToUserOutput(), len(data))
		}
	})
}
