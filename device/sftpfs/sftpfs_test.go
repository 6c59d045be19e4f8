package sftpfs

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
	"github.com/jmgilman/go/fspath/fstest"
)

// newPipeClient connects a client to an in-memory SFTP server.
func newPipeClient(t *testing.T) *sftp.Client {
	t.Helper()
	clientRead, serverWrite := io.Pipe()
	serverRead, clientWrite := io.Pipe()

	server := sftp.NewRequestServer(struct {
		io.Reader
		io.WriteCloser
	}{serverRead, serverWrite}, sftp.InMemHandler())
	go func() { _ = server.Serve() }()

	client, err := sftp.NewClientPipe(clientRead, clientWrite)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return client
}

// newTestDevice serves host "mem" from an in-memory server.
func newTestDevice(t *testing.T) (*Device, context.Context) {
	t.Helper()
	dev, err := New(Config{}, WithClient("mem", newPipeClient(t)))
	require.NoError(t, err)

	r := fspath.NewRegistry()
	require.NoError(t, r.Register(dev))
	t.Cleanup(func() { _ = r.Close() })
	return dev, fspath.WithRegistry(context.Background(), r)
}

// TestDevice_Conformance runs the device suite against the in-memory server,
// which ignores mode changes and rejects unlink of missing files.
func TestDevice_Conformance(t *testing.T) {
	dev, _ := newTestDevice(t)
	fstest.TestSuiteWithConfig(t, dev, func(t *testing.T) fspath.FilePath {
		return fspath.FromString("sftp://mem/").PathAppended(t.Name())
	}, fstest.DeviceTestConfig{})
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"defaults", Config{}, true},
		{"port too large", Config{Port: 70000}, false},
		{"negative concurrency", Config{MaxConcurrency: -1}, false},
		{"negative timeout", Config{Timeout: -time.Second}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	dev, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultScheme, dev.Scheme())
	assert.Equal(t, defaultPort, dev.cfg.Port)
	assert.Equal(t, defaultTimeout, dev.cfg.Timeout)
	assert.Equal(t, "~/.ssh/known_hosts", dev.cfg.KnownHostsPath)

	insecure, err := New(Config{Scheme: "ssh", InsecureIgnoreHostKey: true})
	require.NoError(t, err)
	assert.Equal(t, "ssh", insecure.Scheme())
	assert.Empty(t, insecure.cfg.KnownHostsPath)
}

func TestParseHost(t *testing.T) {
	cfg := &Config{User: "deploy", Port: 22}

	tests := []struct {
		host string
		want endpoint
	}{
		{"example.com", endpoint{user: "deploy", addr: "example.com:22"}},
		{"root@example.com", endpoint{user: "root", addr: "example.com:22"}},
		{"root@example.com:2222", endpoint{user: "root", addr: "example.com:2222"}},
		{"[::1]:2222", endpoint{user: "deploy", addr: "[::1]:2222"}},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			got, err := parseHost(tt.host, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseHost("", cfg)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = parseHost("example.com", &Config{Port: 22})
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func TestClientConfig_RequiresAuth(t *testing.T) {
	_, err := clientConfig(&Config{InsecureIgnoreHostKey: true}, "root")
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))

	sc, err := clientConfig(&Config{InsecureIgnoreHostKey: true, Password: "secret"}, "root")
	require.NoError(t, err)
	assert.Equal(t, "root", sc.User)
	assert.Len(t, sc.Auth, 1)

	_, err = clientConfig(&Config{InsecureIgnoreHostKey: true, PrivateKey: "not a key"}, "root")
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func TestDevice_WriteLeavesNoTemporaryFiles(t *testing.T) {
	_, ctx := newTestDevice(t)
	dir := fspath.FromString("sftp://mem/atomic")
	require.NoError(t, dir.CreateDir(ctx))

	p := dir.PathAppended("data.txt")
	for _, content := range []string{"first version", "second"} {
		_, err := p.WriteContents(ctx, []byte(content))
		require.NoError(t, err)
	}

	got, err := p.ReadContents(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := dir.DirEntries(ctx, fspath.FileFilter{Types: fspath.FilterAllEntries | fspath.FilterHidden}, fspath.SortByName)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "data.txt", entries[0].FileName())
}

func TestDevice_RemoveRecursively(t *testing.T) {
	_, ctx := newTestDevice(t)
	root := fspath.FromString("sftp://mem/tree")
	for _, f := range []string{"a.txt", "sub/b.txt", "sub/deep/c.txt"} {
		p := root.PathAppended(f)
		require.NoError(t, p.ParentDir().CreateDir(ctx))
		_, err := p.WriteContents(ctx, []byte(f))
		require.NoError(t, err)
	}

	require.NoError(t, root.RemoveRecursively(ctx))
	assert.False(t, root.Exists(ctx))

	// Removing a missing tree succeeds.
	assert.NoError(t, root.RemoveRecursively(ctx))
}

func TestDevice_RemoveRecursivelyRefusesRoot(t *testing.T) {
	_, ctx := newTestDevice(t)
	err := fspath.FromString("sftp://mem/").RemoveRecursively(ctx)
	assert.ErrorIs(t, err, fspath.ErrUnsafeRemoval)
}

func TestDevice_SymlinkTarget(t *testing.T) {
	dev, ctx := newTestDevice(t)
	target := fspath.FromString("sftp://mem/links/target.txt")
	require.NoError(t, target.ParentDir().CreateDir(ctx))
	_, err := target.WriteContents(ctx, []byte("x"))
	require.NoError(t, err)

	link := fspath.FromString("sftp://mem/links/link")
	require.NoError(t, dev.Symlink(ctx, link, "/links/target.txt"))

	got, err := link.SymlinkTarget(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sftp://mem/links/target.txt", got.ToUserOutput())
}

func TestDevice_RenameReplacesTarget(t *testing.T) {
	_, ctx := newTestDevice(t)
	src := fspath.FromString("sftp://mem/src.txt")
	dst := fspath.FromString("sftp://mem/dst.txt")
	for p, data := range map[fspath.FilePath]string{src: "new", dst: "old"} {
		_, err := p.WriteContents(ctx, []byte(data))
		require.NoError(t, err)
	}

	require.NoError(t, src.RenameFile(ctx, dst))
	got, err := dst.ReadContents(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
	assert.False(t, src.Exists(ctx))
}

func TestDevice_RemoteCommandsNeedSSH(t *testing.T) {
	dev, ctx := newTestDevice(t)
	p := fspath.FromString("sftp://mem/")

	_, err := dev.Environment(ctx, p)
	assert.ErrorIs(t, err, fspath.ErrNotSupported)
	assert.Equal(t, fspath.OSTypeOtherUnix, dev.OSType(ctx, p))
}

func TestDevice_Names(t *testing.T) {
	dev, err := New(Config{})
	require.NoError(t, err)

	p := fspath.FromString("sftp://root@example.com:2222/srv/data")
	assert.Equal(t, "sftp:root@example.com:2222", dev.DisplayName(p))
	assert.Equal(t, "/srv/data", dev.MapToDevicePath(p))
}
