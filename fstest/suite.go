// Package fstest provides a conformance test suite for fspath.Device
// implementations.
//
// Device packages run the suite against their backend to verify that paths
// on the device behave like local paths: the same predicates, the same
// content semantics and the same error codes. Backends with documented
// differences (object stores have no real directories, for example) describe
// them with DeviceTestConfig.
//
// Example usage:
//
//	func TestConformance(t *testing.T) {
//	    dev := mydevice.New(...)
//	    fstest.TestSuite(t, dev, func(t *testing.T) fspath.FilePath {
//	        return fspath.FromString("mydev://host/").PathAppended(t.Name())
//	    })
//	}
package fstest

import (
	"context"
	"slices"
	"testing"

	"github.com/jmgilman/go/fspath"
)

// DeviceTestConfig describes behavior that legitimately differs between devices.
type DeviceTestConfig struct {
	// VirtualDirectories indicates directories exist only as prefixes of
	// files (S3). Empty directories cannot be observed.
	VirtualDirectories bool

	// IdempotentDelete indicates removing a missing file succeeds.
	IdempotentDelete bool

	// ImplicitParentDirs indicates files can be written below directories
	// that were never created.
	ImplicitParentDirs bool

	// Permissions indicates Permissions and SetPermissions are supported.
	Permissions bool

	// SkipTests lists test names to skip, e.g. "Manage/RenameFile".
	SkipTests []string
}

// POSIXTestConfig returns the configuration for POSIX-like devices.
func POSIXTestConfig() DeviceTestConfig {
	return DeviceTestConfig{Permissions: true}
}

// S3TestConfig returns the configuration for object store devices.
func S3TestConfig() DeviceTestConfig {
	return DeviceTestConfig{
		VirtualDirectories: true,
		IdempotentDelete:   true,
		ImplicitParentDirs: true,
	}
}

// NewRootFunc returns a fresh, empty directory on the device under test.
// It is called once per test group.
type NewRootFunc func(t *testing.T) fspath.FilePath

// Context returns a context whose path operations dispatch to dev.
func Context(dev fspath.Device) context.Context {
	var r *fspath.Registry
	if dev.Scheme() == "" {
		r = fspath.NewRegistry(fspath.WithLocalDevice(dev))
	} else {
		r = fspath.NewRegistry()
		if err := r.Register(dev); err != nil {
			panic(err)
		}
	}
	return fspath.WithRegistry(context.Background(), r)
}

// TestSuite runs all conformance tests with POSIXTestConfig.
func TestSuite(t *testing.T, dev fspath.Device, newRoot NewRootFunc) {
	TestSuiteWithConfig(t, dev, newRoot, POSIXTestConfig())
}

// TestSuiteWithConfig runs all conformance tests with the given configuration.
func TestSuiteWithConfig(t *testing.T, dev fspath.Device, newRoot NewRootFunc, config DeviceTestConfig) {
	ctx := Context(dev)

	groups := []struct {
		name string
		run  func(*testing.T, context.Context, fspath.FilePath, DeviceTestConfig)
	}{
		{"Read", TestReadWithConfig},
		{"Write", TestWriteWithConfig},
		{"Manage", TestManageWithConfig},
		{"Iterate", TestIterateWithConfig},
		{"Metadata", TestMetadataWithConfig},
	}

	for _, g := range groups {
		t.Run(g.name, func(t *testing.T) {
			if slices.Contains(config.SkipTests, g.name) {
				t.Skip("Skipped by device configuration")
			}
			g.run(t, ctx, newRoot(t), config)
		})
	}
}

// runSubtest runs fn as a subtest unless config skips group/name.
func runSubtest(t *testing.T, group, name string, config DeviceTestConfig, fn func(t *testing.T)) {
	t.Run(name, func(t *testing.T) {
		if slices.Contains(config.SkipTests, group+"/"+name) {
			t.Skip("Skipped by device configuration")
		}
		fn(t)
	})
}

// mustWrite writes data to p or fails the test.
func mustWrite(t *testing.T, ctx context.Context, p fspath.FilePath, data string) {
	t.Helper()
	if _, err := p.WriteContents(ctx, []byte(data)); err != nil {
		t.Fatalf("WriteContents(%q): setup failed: %v", p.ToUserOutput(), err)
	}
}

// mustMkdir creates p unless the device has virtual directories.
func mustMkdir(t *testing.T, ctx context.Context, p fspath.FilePath, config DeviceTestConfig) {
	t.Helper()
	if config.VirtualDirectories {
		return
	}
	if err := p.CreateDir(ctx); err != nil {
		t.Fatalf("CreateDir(%q): setup failed: %v", p.ToUserOutput(), err)
	}
}
