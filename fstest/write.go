package fstest

import (
	"context"
	"testing"

	"github.com/jmgilman/go/fspath"
)

// TestWrite tests content writes and creation operations.
func TestWrite(t *testing.T, ctx context.Context, root fspath.FilePath) {
	TestWriteWithConfig(t, ctx, root, POSIXTestConfig())
}

// TestWriteWithConfig tests content writes with behavior configuration.
func TestWriteWithConfig(t *testing.T, ctx context.Context, root fspath.FilePath, config DeviceTestConfig) {
	mustMkdir(t, ctx, root, config)

	runSubtest(t, "Write", "ByteCount", config, func(t *testing.T) {
		p := root.PathAppended("count.bin")
		data := []byte{0, 1, 2, 0xff, '\n', 0}
		n, err := p.WriteContents(ctx, data)
		if err != nil {
			t.Fatalf("WriteContents(%q): got error %v, want nil", p.ToUserOutput(), err)
		}
		if n != int64(len(data)) {
			t.Errorf("WriteContents(%q): wrote %d bytes, want %d", p.ToUserOutput(), n, len(data))
		}
		got, err := p.ReadContents(ctx)
		if err != nil {
			t.Fatalf("ReadContents(%q): got error %v", p.ToUserOutput(), err)
		}
		if string(got) != string(data) {
			t.Errorf("ReadContents(%q): got %v, want %v", p.ToUserOutput(), got, data)
		}
	})

	runSubtest(t, "Write", "Truncates", config, func(t *testing.T) {
		p := root.PathAppended("truncate.txt")
		mustWrite(t, ctx, p, "a much longer first version")
		mustWrite(t, ctx, p, "short")
		got, err := p.ReadContents(ctx)
		if err != nil {
			t.Fatalf("ReadContents(%q): got error %v", p.ToUserOutput(), err)
		}
		if string(got) != "short" {
			t.Errorf("ReadContents(%q): got %q, want %q", p.ToUserOutput(), got, "short")
		}
	})

	runSubtest(t, "Write", "EnsureExistingFile", config, func(t *testing.T) {
		p := root.PathAppended("ensure.txt")
		if err := p.EnsureExistingFile(ctx); err != nil {
			t.Fatalf("EnsureExistingFile(%q): got error %v, want nil", p.ToUserOutput(), err)
		}
		if !p.IsFile(ctx) {
			t.Errorf("IsFile(%q) = false after EnsureExistingFile", p.ToUserOutput())
		}

		mustWrite(t, ctx, p, "keep")
		if err := p.EnsureExistingFile(ctx); err != nil {
			t.Fatalf("EnsureExistingFile(%q) on existing file: got error %v", p.ToUserOutput(), err)
		}
		got, _ := p.ReadContents(ctx)
		if string(got) != "keep" {
			t.Errorf("EnsureExistingFile(%q) changed contents to %q", p.ToUserOutput(), got)
		}
	})

	runSubtest(t, "Write", "CreateDir", config, func(t *testing.T) {
		if config.VirtualDirectories {
			t.Skip("Skipping directory creation test - device has virtual directories")
		}
		p := root.PathAppended("a/b/c")
		if err := p.CreateDir(ctx); err != nil {
			t.Fatalf("CreateDir(%q): got error %v, want nil", p.ToUserOutput(), err)
		}
		if !p.IsDir(ctx) {
			t.Errorf("IsDir(%q) = false after CreateDir", p.ToUserOutput())
		}
		if err := p.EnsureWritableDir(ctx); err != nil {
			t.Errorf("EnsureWritableDir(%q): got error %v, want nil", p.ToUserOutput(), err)
		}
	})

	runSubtest(t, "Write", "MissingParent", config, func(t *testing.T) {
		p := root.PathAppended("no/such/parent.txt")
		_, err := p.WriteContents(ctx, []byte("x"))
		if config.ImplicitParentDirs {
			if err != nil {
				t.Errorf("WriteContents(%q): got error %v, want nil (implicit parents)", p.ToUserOutput(), err)
			}
			return
		}
		if err == nil {
			t.Errorf("WriteContents(%q): got nil error, want failure for missing parent", p.ToUserOutput())
		}
	})
}
