package fspath

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	if HostOS() == OSTypeWindows {
		t.Skip("encoded form prefix depends on the system drive")
	}

	tests := []struct {
		name string
		path FilePath
		want string
	}{
		{"empty", FilePath{}, ""},
		{"local absolute", FilePath{root: "/", path: "usr/bin"}, "/usr/bin"},
		{"local relative", FilePath{path: "a/b"}, "a/b"},
		{"device absolute", FilePath{scheme: "docker", host: "c1", root: "/", path: "etc"}, "/__devices__/docker/c1/etc"},
		{"device relative", FilePath{scheme: "docker", host: "c1", path: "etc"}, "/__devices__/docker/c1/./etc"},
		{"device windows root", FilePath{scheme: "ssh", host: "w", root: "C:/", path: "x"}, "/__devices__/ssh/w/C:/x"},
		{"host with slash", FilePath{scheme: "ssh", host: "a/b%c", root: "/"}, "/__devices__/ssh/a%2fb%25c/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.path.String())
		})
	}
}

func TestToUserOutput(t *testing.T) {
	assert.Equal(t, "docker://c1/etc/hosts", FromString("docker://c1/etc/hosts").ToUserOutput())
	assert.Equal(t, "docker://c1/./etc", FromString("docker://c1/./etc").ToUserOutput())

	p := FromString("ssh://a%2fb/x")
	assert.Equal(t, p, FromString(p.ToUserOutput()), "user output parses back")
}

func TestNativePathFor(t *testing.T) {
	p := Parse("C:/Users/me", OSTypeWindows)
	assert.Equal(t, `C:\Users\me`, p.NativePathFor(OSTypeWindows))
	assert.Equal(t, "C:/Users/me", p.NativePathFor(OSTypeLinux))

	dev := FromString("docker://c1/etc/hosts")
	assert.Equal(t, "/etc/hosts", dev.NativePathFor(OSTypeLinux))
}

func TestURL(t *testing.T) {
	t.Run("device", func(t *testing.T) {
		p := FromString("s3://bucket/reports/q3.csv")
		u := p.ToURL()
		assert.Equal(t, "s3", u.Scheme)
		assert.Equal(t, "bucket", u.Host)
		assert.Equal(t, "/reports/q3.csv", u.Path)
		assert.Equal(t, p, FromURL(u))
	})

	t.Run("file scheme is local", func(t *testing.T) {
		u, err := url.Parse("file:///tmp/a.txt")
		require.NoError(t, err)
		p := FromURL(u)
		assert.True(t, p.IsLocal())
		assert.Equal(t, "/tmp/a.txt", p.RootAndPath())
	})

	t.Run("device relative", func(t *testing.T) {
		p := FilePath{scheme: "docker", host: "h", path: "tmp/x"}
		require.Equal(t, p, FromString("docker://h/./tmp/x"))
		u := p.ToURL()
		assert.Equal(t, "/./tmp/x", u.Path)
		assert.Equal(t, p, FromURL(u))

		parsed, err := url.Parse(u.String())
		require.NoError(t, err)
		assert.Equal(t, p, FromURL(parsed))
	})

	t.Run("device without path", func(t *testing.T) {
		u := &url.URL{Scheme: "ssh", Host: "h"}
		assert.Equal(t, FilePath{scheme: "ssh", host: "h", root: "/"}, FromURL(u))
	})

	t.Run("nil", func(t *testing.T) {
		assert.True(t, FromURL(nil).IsEmpty())
	})
}

func TestVariant(t *testing.T) {
	p := FromString("docker://c1/var/log")

	v := p.ToVariant()
	assert.Equal(t, VariantString, v.Kind)
	assert.Equal(t, p.String(), v.Text)
	assert.Equal(t, p, FromVariant(v))

	uv := p.ToURLVariant()
	assert.Equal(t, VariantURL, uv.Kind)
	require.NotNil(t, uv.URL)
	assert.Equal(t, p, FromVariant(uv))
}

func TestTextMarshaling(t *testing.T) {
	type settings struct {
		Build FilePath `json:"build"`
	}

	in := settings{Build: FromString("docker://c1/work/build")}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out settings
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.Build, out.Build)
}

func TestDisplayName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newMemDevice("mem")))
	prev := SetDefault(r)
	t.Cleanup(func() { SetDefault(prev) })

	assert.Equal(t, "/tmp/x on mem:box", FromString("mem://box/tmp/x").DisplayName())
	assert.Equal(t, "/tmp/x --verbose on mem:box", FromString("mem://box/tmp/x").DisplayName("--verbose"))
	assert.Equal(t, FromString("/tmp/x").NativePath(), FromString("/tmp/x").DisplayName())
}

// winDevice renders paths with Windows separators.
type winDevice struct{ UnsupportedDevice }

func (winDevice) Scheme() string { return "win" }

func (winDevice) OSType(context.Context, FilePath) OSType { return OSTypeWindows }

func (winDevice) MapToDevicePath(p FilePath) string { return p.NativePathFor(OSTypeWindows) }

func TestDisplayNameUsesDeviceSeparators(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(winDevice{}))
	prev := SetDefault(r)
	t.Cleanup(func() { SetDefault(prev) })

	p := FromString("win://box/tmp/x")
	assert.Equal(t, `\tmp\x on win:box`, p.DisplayName())
	assert.Equal(t, `\tmp\x /q on win:box`, p.DisplayName("/q"))
	assert.NotContains(t, FromString("win://box/a/b/c").DisplayName(), "a/b")
}
