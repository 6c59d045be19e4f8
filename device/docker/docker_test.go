package docker

import (
	"context"
	"io"
	"io/fs"
	"runtime"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
	"github.com/jmgilman/go/fspath/exec"
	"github.com/jmgilman/go/fspath/fstest"
)

// callLog is shared between clones of a hostExecutor.
type callLog struct {
	mu    sync.Mutex
	calls [][]string
}

func (l *callLog) add(args []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, slices.Clone(args))
}

func (l *callLog) last() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.calls) == 0 {
		return nil
	}
	return l.calls[len(l.calls)-1]
}

// hostExecutor plays the container: it strips the "docker exec" prefix and
// runs the remaining command on the test machine.
type hostExecutor struct {
	inner exec.Executor
	log   *callLog
}

func newHostExecutor() *hostExecutor {
	return &hostExecutor{inner: exec.New(), log: &callLog{}}
}

func (h *hostExecutor) WithEnv(env map[string]string) exec.Executor {
	h.inner = h.inner.WithEnv(env)
	return h
}

func (h *hostExecutor) WithDir(dir string) exec.Executor {
	h.inner = h.inner.WithDir(dir)
	return h
}

func (h *hostExecutor) WithStdin(r io.Reader) exec.Executor {
	h.inner = h.inner.WithStdin(r)
	return h
}

func (h *hostExecutor) WithTimeout(timeout time.Duration) exec.Executor {
	h.inner = h.inner.WithTimeout(timeout)
	return h
}

func (h *hostExecutor) WithInheritEnv() exec.Executor {
	h.inner = h.inner.WithInheritEnv()
	return h
}

func (h *hostExecutor) Clone() exec.Executor {
	return &hostExecutor{inner: h.inner.Clone(), log: h.log}
}

func (h *hostExecutor) Run(ctx context.Context, args ...string) (*exec.Result, error) {
	h.log.add(args)
	i := 2 // "docker", "exec"
	for i < len(args) {
		switch args[i] {
		case "-i":
			i++
		case "--user":
			i += 2
		default:
			return h.inner.Run(ctx, args[i+1:]...)
		}
	}
	return nil, &exec.ExecError{Command: args, ExitCode: -1}
}

// TestDevice_Conformance runs the device suite with the test machine
// standing in for the container.
func TestDevice_Conformance(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("requires a Linux userland")
	}
	dev, err := New(Config{Executor: newHostExecutor()})
	require.NoError(t, err)

	fstest.TestSuiteWithConfig(t, dev, func(t *testing.T) fspath.FilePath {
		return fspath.FromString("docker://box" + t.TempDir())
	}, fstest.POSIXTestConfig())
}

func TestDevice_CommandLine(t *testing.T) {
	host := newHostExecutor()
	dev, err := New(Config{Executor: host, User: "app"})
	require.NoError(t, err)
	ctx := context.Background()

	p := fspath.FromString("docker://web/etc/hostname")
	_, _ = dev.ReadContents(ctx, p, -1, 0)
	assert.Equal(t, []string{"docker", "exec", "--user", "app", "web", "cat", "/etc/hostname"}, host.log.last())

	p = fspath.FromString("docker://root@web/tmp/out.txt")
	_, _ = dev.WriteContents(ctx, p, []byte("x"))
	assert.Equal(t, []string{"docker", "exec", "-i", "--user", "root", "web", "sh", "-c", "cat > '/tmp/out.txt'"}, host.log.last())

	podman, err := New(Config{Executor: host, Binary: "podman", Scheme: "podman"})
	require.NoError(t, err)
	_ = podman.CreateDir(ctx, fspath.FromString("podman://db/var/data"))
	assert.Equal(t, []string{"podman", "exec", "db", "mkdir", "-p", "/var/data"}, host.log.last())
}

func TestDevice_NoContainer(t *testing.T) {
	dev, err := New(Config{Executor: newHostExecutor()})
	require.NoError(t, err)

	_, err = dev.ReadContents(context.Background(), fspath.FromString("docker://app@/etc/hostname"), -1, 0)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestDevice_RemoveRecursivelyRefusesRoot(t *testing.T) {
	dev, err := New(Config{Executor: newHostExecutor()})
	require.NoError(t, err)

	err = dev.RemoveRecursively(context.Background(), fspath.FromString("docker://web/"))
	assert.ErrorIs(t, err, fspath.ErrUnsafeRemoval)
}

func TestParseStat(t *testing.T) {
	tests := []struct {
		line string
		name string
		size int64
		mode fs.FileMode
	}{
		{"/etc/hostname|regular file|13|644|1700000000", "hostname", 13, 0o644},
		{"/tmp/empty|regular empty file|0|600|1700000000", "empty", 0, 0o600},
		{"/var/lib|directory|4096|755|1700000000", "lib", 4096, fs.ModeDir | 0o755},
		{"/bin/sh|symbolic link|4|777|1700000000", "sh", 4, fs.ModeSymlink | 0o777},
		{"/data/a|b.txt|regular file|1|644|1700000000", "a|b.txt", 1, 0o644},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fi, err := parseStat(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.name, fi.Name())
			assert.Equal(t, tt.size, fi.Size())
			assert.Equal(t, tt.mode, fi.Mode())
			assert.Equal(t, time.Unix(1700000000, 0), fi.ModTime())
		})
	}

	_, err := parseStat("garbage")
	assert.Equal(t, errors.CodeInternal, errors.GetCode(err))
	_, err = parseStat("/x|regular file|big|644|0")
	assert.Error(t, err)
}

func TestParseDF(t *testing.T) {
	out := "Filesystem     1024-blocks      Used Available Capacity Mounted on\n" +
		"overlay          61255492  21367460  36746708      37% /\n"
	got, err := parseDF(out)
	require.NoError(t, err)
	assert.Equal(t, int64(36746708*1024), got)

	_, err = parseDF("Filesystem\n")
	assert.Error(t, err)
}

func TestTranslate(t *testing.T) {
	p := fspath.FromString("docker://web/x")
	tests := []struct {
		stderr string
		exit   int
		want   errors.ErrorCode
	}{
		{"cat: /x: No such file or directory", 1, errors.CodeNotFound},
		{"sh: 1: cannot open /x: No such file", 2, errors.CodeNotFound},
		{"Error response from daemon: No such container: web", 1, errors.CodeNotFound},
		{"Error response from daemon: container abc is not running", 1, errors.CodeUnavailable},
		{"rm: cannot remove '/x': Permission denied", 1, errors.CodePermission},
		{"cat: /x: Is a directory", 1, errors.CodeInvalidInput},
		{"", -1, errors.CodeUnavailable},
		{"something odd", 3, errors.CodeExecutionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.stderr, func(t *testing.T) {
			err := translate(context.Background(), &exec.ExecError{Stderr: tt.stderr, ExitCode: tt.exit}, "read", p)
			assert.Equal(t, tt.want, errors.GetCode(err))
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := translate(ctx, &exec.ExecError{ExitCode: -1}, "read", p)
	assert.Equal(t, errors.CodeCanceled, errors.GetCode(err))

	assert.NoError(t, translate(context.Background(), nil, "read", p))
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "''", shellQuote(""))
	assert.Equal(t, "'/tmp/a b'", shellQuote("/tmp/a b"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}
