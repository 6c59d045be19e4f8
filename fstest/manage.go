package fstest

import (
	"context"
	"testing"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
)

// TestManage tests copy, rename and removal.
func TestManage(t *testing.T, ctx context.Context, root fspath.FilePath) {
	TestManageWithConfig(t, ctx, root, POSIXTestConfig())
}

// TestManageWithConfig tests copy, rename and removal with behavior configuration.
func TestManageWithConfig(t *testing.T, ctx context.Context, root fspath.FilePath, config DeviceTestConfig) {
	mustMkdir(t, ctx, root, config)

	runSubtest(t, "Manage", "CopyFile", config, func(t *testing.T) {
		src, dst := root.PathAppended("copy-src.txt"), root.PathAppended("copy-dst.txt")
		mustWrite(t, ctx, src, "copied")
		if err := src.CopyFile(ctx, dst); err != nil {
			t.Fatalf("CopyFile(%q, %q): got error %v, want nil", src.ToUserOutput(), dst.ToUserOutput(), err)
		}
		got, err := dst.ReadContents(ctx)
		if err != nil || string(got) != "copied" {
			t.Errorf("ReadContents(%q): got %q, %v, want %q", dst.ToUserOutput(), got, err, "copied")
		}
		if !src.Exists(ctx) {
			t.Errorf("CopyFile removed the source %q", src.ToUserOutput())
		}
	})

	runSubtest(t, "Manage", "RenameFile", config, func(t *testing.T) {
		src, dst := root.PathAppended("rename-src.txt"), root.PathAppended("rename-dst.txt")
		mustWrite(t, ctx, src, "moved")
		if err := src.RenameFile(ctx, dst); err != nil {
			t.Fatalf("RenameFile(%q, %q): got error %v, want nil", src.ToUserOutput(), dst.ToUserOutput(), err)
		}
		if src.Exists(ctx) {
			t.Errorf("Exists(%q) = true after rename", src.ToUserOutput())
		}
		got, err := dst.ReadContents(ctx)
		if err != nil || string(got) != "moved" {
			t.Errorf("ReadContents(%q): got %q, %v, want %q", dst.ToUserOutput(), got, err, "moved")
		}
	})

	runSubtest(t, "Manage", "RemoveFile", config, func(t *testing.T) {
		p := root.PathAppended("remove.txt")
		mustWrite(t, ctx, p, "x")
		if err := p.RemoveFile(ctx); err != nil {
			t.Fatalf("RemoveFile(%q): got error %v, want nil", p.ToUserOutput(), err)
		}
		if p.Exists(ctx) {
			t.Errorf("Exists(%q) = true after RemoveFile", p.ToUserOutput())
		}
	})

	runSubtest(t, "Manage", "RemoveNotExist", config, func(t *testing.T) {
		p := root.PathAppended("never-existed.txt")
		err := p.RemoveFile(ctx)
		if config.IdempotentDelete {
			if err != nil {
				t.Errorf("RemoveFile(%q): got error %v, want nil (idempotent delete)", p.ToUserOutput(), err)
			}
			return
		}
		if code := errors.GetCode(err); code != errors.CodeNotFound {
			t.Errorf("RemoveFile(%q): got code %s, want %s", p.ToUserOutput(), code, errors.CodeNotFound)
		}
	})

	runSubtest(t, "Manage", "RemoveRecursively", config, func(t *testing.T) {
		tree := root.PathAppended("tree")
		mustMkdir(t, ctx, tree.PathAppended("sub/deeper"), config)
		for _, name := range []string{"top.txt", "sub/mid.txt", "sub/deeper/leaf.txt"} {
			mustWrite(t, ctx, tree.PathAppended(name), name)
		}
		if err := tree.RemoveRecursively(ctx); err != nil {
			t.Fatalf("RemoveRecursively(%q): got error %v, want nil", tree.ToUserOutput(), err)
		}
		for _, name := range []string{"top.txt", "sub/mid.txt", "sub/deeper/leaf.txt"} {
			if p := tree.PathAppended(name); p.Exists(ctx) {
				t.Errorf("Exists(%q) = true after RemoveRecursively", p.ToUserOutput())
			}
		}
	})

	runSubtest(t, "Manage", "AsyncCopy", config, func(t *testing.T) {
		src, dst := root.PathAppended("async-src.txt"), root.PathAppended("async-dst.txt")
		mustWrite(t, ctx, src, "async")
		got, err := src.CopyFileAsync(ctx, dst).Wait(ctx)
		if err != nil {
			t.Fatalf("CopyFileAsync(%q): got error %v, want nil", src.ToUserOutput(), err)
		}
		if !got.Equal(dst) {
			t.Errorf("CopyFileAsync(%q): got %q, want %q", src.ToUserOutput(), got.ToUserOutput(), dst.ToUserOutput())
		}
		data, err := dst.ReadContentsAsync(ctx).Wait(ctx)
		if err != nil || string(data) != "async" {
			t.Errorf("ReadContentsAsync(%q): got %q, %v, want %q", dst.ToUserOutput(), data, err, "async")
		}
	})
}
