package fstest

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/jmgilman/go/fspath"
)

// TestMetadata tests size, modification time, permissions and link queries.
func TestMetadata(t *testing.T, ctx context.Context, root fspath.FilePath) {
	TestMetadataWithConfig(t, ctx, root, POSIXTestConfig())
}

// TestMetadataWithConfig tests metadata queries with behavior configuration.
func TestMetadataWithConfig(t *testing.T, ctx context.Context, root fspath.FilePath, config DeviceTestConfig) {
	mustMkdir(t, ctx, root, config)
	file := root.PathAppended("meta.txt")
	before := time.Now().Add(-time.Hour)
	mustWrite(t, ctx, file, "12345")

	runSubtest(t, "Metadata", "FileSize", config, func(t *testing.T) {
		size, err := file.FileSize(ctx)
		if err != nil {
			t.Fatalf("FileSize(%q): got error %v, want nil", file.ToUserOutput(), err)
		}
		if size != 5 {
			t.Errorf("FileSize(%q) = %d, want 5", file.ToUserOutput(), size)
		}
	})

	runSubtest(t, "Metadata", "LastModified", config, func(t *testing.T) {
		mod, err := file.LastModified(ctx)
		if err != nil {
			t.Fatalf("LastModified(%q): got error %v, want nil", file.ToUserOutput(), err)
		}
		if mod.Before(before) {
			t.Errorf("LastModified(%q) = %v, want after %v", file.ToUserOutput(), mod, before)
		}
	})

	runSubtest(t, "Metadata", "Permissions", config, func(t *testing.T) {
		if !config.Permissions {
			t.Skip("Skipping permissions test - device has no permission bits")
		}
		if err := file.SetPermissions(ctx, 0o600); err != nil {
			t.Fatalf("SetPermissions(%q): got error %v, want nil", file.ToUserOutput(), err)
		}
		mode, err := file.Permissions(ctx)
		if err != nil {
			t.Fatalf("Permissions(%q): got error %v, want nil", file.ToUserOutput(), err)
		}
		if mode.Perm() != fs.FileMode(0o600) {
			t.Errorf("Permissions(%q) = %v, want %v", file.ToUserOutput(), mode.Perm(), fs.FileMode(0o600))
		}
	})

	runSubtest(t, "Metadata", "SymlinkTargetOfRegularFile", config, func(t *testing.T) {
		target, err := file.SymlinkTarget(ctx)
		if err != nil {
			t.Fatalf("SymlinkTarget(%q): got error %v, want nil", file.ToUserOutput(), err)
		}
		if !target.IsEmpty() {
			t.Errorf("SymlinkTarget(%q) = %q, want empty", file.ToUserOutput(), target.ToUserOutput())
		}
		if got := file.ResolveSymlinks(ctx); !got.Equal(file) {
			t.Errorf("ResolveSymlinks(%q) = %q, want unchanged", file.ToUserOutput(), got.ToUserOutput())
		}
	})

	runSubtest(t, "Metadata", "MissingFile", config, func(t *testing.T) {
		missing := root.PathAppended("missing.txt")
		if _, err := missing.FileSize(ctx); err == nil {
			t.Errorf("FileSize(%q): got nil error for a missing file", missing.ToUserOutput())
		}
	})
}
