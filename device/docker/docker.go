package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
	"github.com/jmgilman/go/fspath/exec"
)

const (
	// DefaultScheme is the scheme a device serves when Config.Scheme is empty.
	DefaultScheme = "docker"

	defaultBinary = "docker"
)

// Config holds docker device configuration.
type Config struct {
	// Scheme is the scheme served by the device (default "docker").
	Scheme string `yaml:"scheme" json:"scheme"`

	// Binary is the docker compatible CLI to run (default "docker").
	// Podman and nerdctl accept the same exec syntax.
	Binary string `yaml:"binary" json:"binary"`

	// User runs commands as this user when the host does not name one.
	User string `yaml:"user" json:"user"`

	// Timeout bounds each command. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Executor runs the CLI. Nil uses exec.New.
	Executor exec.Executor `yaml:"-" json:"-"`

	// Logger receives debug diagnostics. Nil discards them.
	Logger *slog.Logger `yaml:"-" json:"-"`
}

// Device serves paths inside running containers. The host of a path is the
// container name or ID, optionally prefixed with a user:
// "docker://postgres@db/var/lib/postgresql/data".
type Device struct {
	fspath.UnsupportedDevice

	cfg      Config
	executor exec.Executor
	logger   *slog.Logger
}

var _ fspath.Device = (*Device)(nil)

// New creates a docker device.
func New(cfg Config) (*Device, error) {
	if cfg.Timeout < 0 {
		return nil, errors.New(errors.CodeInvalidConfig, "timeout must not be negative")
	}
	if cfg.Scheme == "" {
		cfg.Scheme = DefaultScheme
	}
	if cfg.Binary == "" {
		cfg.Binary = defaultBinary
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	executor := cfg.Executor
	if executor == nil {
		executor = exec.New(exec.WithTimeout(cfg.Timeout), exec.WithLogger(cfg.Logger))
	}
	return &Device{cfg: cfg, executor: executor, logger: cfg.Logger}, nil
}

// Scheme implements fspath.Device.
func (d *Device) Scheme() string { return d.cfg.Scheme }

// container splits a path host into user and container.
func (d *Device) container(p fspath.FilePath) (user, name string, err error) {
	user, name = d.cfg.User, p.Host()
	if at := strings.LastIndexByte(name, '@'); at >= 0 {
		user, name = name[:at], name[at+1:]
	}
	if name == "" {
		return "", "", errors.WithContext(errors.New(errors.CodeInvalidInput, "docker path has no container"), "path", p.String())
	}
	return user, name, nil
}

// run executes cmd inside the container of p.
func (d *Device) run(ctx context.Context, p fspath.FilePath, stdin io.Reader, cmd ...string) (*exec.Result, error) {
	user, container, err := d.container(p)
	if err != nil {
		return nil, err
	}
	args := []string{"exec"}
	if stdin != nil {
		args = append(args, "-i")
	}
	if user != "" {
		args = append(args, "--user", user)
	}
	args = append(args, container)

	var e exec.Executor = exec.NewWrapper(d.executor.Clone(), d.cfg.Binary, args...)
	if stdin != nil {
		e = e.WithStdin(stdin)
	}
	d.logger.Debug("docker exec", "container", container, "cmd", cmd[0])
	return e.Run(ctx, cmd...)
}

// sh runs script with sh -c inside the container of p.
func (d *Device) sh(ctx context.Context, p fspath.FilePath, script string) (*exec.Result, error) {
	return d.run(ctx, p, nil, "sh", "-c", script)
}

// test reports whether the shell condition holds, e.g. "-f %[1]s -a -r %[1]s".
func (d *Device) test(ctx context.Context, p fspath.FilePath, format string) bool {
	_, err := d.sh(ctx, p, "test "+fmt.Sprintf(format, shellQuote(name(p))))
	return err == nil
}

// name maps p to an absolute path in the container.
func name(p fspath.FilePath) string {
	return path.Clean("/" + p.Path())
}

func (d *Device) stat(ctx context.Context, p fspath.FilePath, follow bool) (*fileInfo, error) {
	cmd := []string{"stat", "-c", statFormat, name(p)}
	if follow {
		cmd = slices.Insert(cmd, 1, "-L")
	}
	res, err := d.run(ctx, p, nil, cmd...)
	if err != nil {
		return nil, translate(ctx, err, "stat", p)
	}
	return parseStat(strings.TrimRight(res.StdoutString(), "\r\n"))
}

// OSType implements fspath.Device. Containers run Linux userlands.
func (d *Device) OSType(context.Context, fspath.FilePath) fspath.OSType {
	return fspath.OSTypeLinux
}

func (d *Device) Exists(ctx context.Context, p fspath.FilePath) bool {
	return d.test(ctx, p, "-e %s")
}

func (d *Device) IsFile(ctx context.Context, p fspath.FilePath) bool {
	return d.test(ctx, p, "-f %s")
}

func (d *Device) IsDir(ctx context.Context, p fspath.FilePath) bool {
	return d.test(ctx, p, "-d %s")
}

func (d *Device) IsReadableFile(ctx context.Context, p fspath.FilePath) bool {
	return d.test(ctx, p, "-f %[1]s -a -r %[1]s")
}

func (d *Device) IsReadableDir(ctx context.Context, p fspath.FilePath) bool {
	return d.test(ctx, p, "-d %[1]s -a -r %[1]s")
}

func (d *Device) IsWritableFile(ctx context.Context, p fspath.FilePath) bool {
	return d.test(ctx, p, "-f %[1]s -a -w %[1]s")
}

func (d *Device) IsWritableDir(ctx context.Context, p fspath.FilePath) bool {
	return d.test(ctx, p, "-d %[1]s -a -w %[1]s")
}

func (d *Device) IsExecutableFile(ctx context.Context, p fspath.FilePath) bool {
	return d.test(ctx, p, "-f %[1]s -a -x %[1]s")
}

func (d *Device) CreateDir(ctx context.Context, p fspath.FilePath) error {
	_, err := d.run(ctx, p, nil, "mkdir", "-p", name(p))
	return translate(ctx, err, "create directory", p)
}

func (d *Device) EnsureWritableDir(ctx context.Context, p fspath.FilePath) error {
	if d.IsWritableDir(ctx, p) {
		return nil
	}
	return d.CreateDir(ctx, p)
}

func (d *Device) EnsureExistingFile(ctx context.Context, p fspath.FilePath) error {
	q := shellQuote(name(p))
	_, err := d.sh(ctx, p, fmt.Sprintf("test -e %[1]s || : > %[1]s", q))
	return translate(ctx, err, "create file", p)
}

// IterateDirectory implements fspath.Device with one find per directory.
func (d *Device) IterateDirectory(ctx context.Context, p fspath.FilePath, fn fspath.IterateFunc, filter fspath.FileFilter) error {
	matcher, err := fspath.NewEntryMatcher(filter)
	if err != nil {
		return err
	}
	_, err = d.walk(ctx, p, fn, matcher, filter.Flags)
	return err
}

func (d *Device) list(ctx context.Context, dir fspath.FilePath, follow bool) ([]*fileInfo, error) {
	cmd := []string{"find"}
	if follow {
		cmd = append(cmd, "-L")
	}
	cmd = append(cmd, name(dir), "-mindepth", "1", "-maxdepth", "1", "-exec", "stat", "-c", statFormat, "{}", "+")
	res, err := d.run(ctx, dir, nil, cmd...)
	if err != nil {
		return nil, translate(ctx, err, "read directory", dir)
	}
	infos, err := parseStatLines(res.StdoutString())
	if err != nil {
		return nil, err
	}
	slices.SortFunc(infos, func(a, b *fileInfo) int { return strings.Compare(a.name, b.name) })
	return infos, nil
}

// walk reports whether iteration was stopped by fn.
func (d *Device) walk(ctx context.Context, dir fspath.FilePath, fn fspath.IterateFunc, m *fspath.EntryMatcher, flags fspath.IteratorFlags) (bool, error) {
	infos, err := d.list(ctx, dir, flags&fspath.IterateFollowSymlinks != 0)
	if err != nil {
		return false, err
	}
	for _, info := range infos {
		child := dir.PathAppended(info.name)
		if m.Match(info.name, info.IsDir()) && fn(child, info) == fspath.IterationStop {
			return true, nil
		}
		if flags&fspath.IterateSubdirectories != 0 && info.IsDir() && m.Descend(info.name) {
			stopped, err := d.walk(ctx, child, fn, m, flags)
			if err != nil || stopped {
				return stopped, err
			}
		}
	}
	return false, nil
}

// ReadContents implements fspath.Device. Ranges are cut inside the container
// with tail and head so only the requested bytes cross the exec stream.
func (d *Device) ReadContents(ctx context.Context, p fspath.FilePath, limit, offset int64) ([]byte, error) {
	var res *exec.Result
	var err error
	if offset <= 0 && limit < 0 {
		res, err = d.run(ctx, p, nil, "cat", name(p))
	} else {
		script := fmt.Sprintf("exec < %s || exit 1; tail -c +%d", shellQuote(name(p)), max(offset, 0)+1)
		if limit >= 0 {
			script += fmt.Sprintf(" | head -c %d", limit)
		}
		res, err = d.sh(ctx, p, script)
	}
	if err != nil {
		return nil, translate(ctx, err, "read file", p)
	}
	return res.Stdout, nil
}

func (d *Device) WriteContents(ctx context.Context, p fspath.FilePath, data []byte) (int64, error) {
	script := "cat > " + shellQuote(name(p))
	if _, err := d.run(ctx, p, bytes.NewReader(data), "sh", "-c", script); err != nil {
		return 0, translate(ctx, err, "write file", p)
	}
	return int64(len(data)), nil
}

// sameContainer reports whether a and b address the same container as the
// same user, so a single command can act on both.
func (d *Device) sameContainer(a, b fspath.FilePath) bool {
	ua, ca, errA := d.container(a)
	ub, cb, errB := d.container(b)
	return errA == nil && errB == nil && ua == ub && ca == cb
}

// CopyFile implements fspath.Device. Copies between containers pass the data
// through this process.
func (d *Device) CopyFile(ctx context.Context, src, dst fspath.FilePath) error {
	if d.sameContainer(src, dst) {
		_, err := d.run(ctx, src, nil, "cp", "-f", name(src), name(dst))
		return translate(ctx, err, "copy", src)
	}
	data, err := d.ReadContents(ctx, src, -1, 0)
	if err != nil {
		return err
	}
	_, err = d.WriteContents(ctx, dst, data)
	return err
}

// RenameFile implements fspath.Device. Renames between containers copy and remove.
func (d *Device) RenameFile(ctx context.Context, src, dst fspath.FilePath) error {
	if !d.sameContainer(src, dst) {
		if err := d.CopyFile(ctx, src, dst); err != nil {
			return err
		}
		return d.RemoveFile(ctx, src)
	}
	_, err := d.run(ctx, src, nil, "mv", "-f", name(src), name(dst))
	return translate(ctx, err, "rename", src)
}

func (d *Device) RemoveFile(ctx context.Context, p fspath.FilePath) error {
	_, err := d.run(ctx, p, nil, "rm", "--", name(p))
	return translate(ctx, err, "remove", p)
}

// RemoveRecursively implements fspath.Device. The container root cannot be removed.
func (d *Device) RemoveRecursively(ctx context.Context, p fspath.FilePath) error {
	if name(p) == "/" {
		return errors.WithContext(errors.Wrap(fspath.ErrUnsafeRemoval, errors.CodeUnsafeOperation,
			"refusing to remove root directory"), "path", p.String())
	}
	_, err := d.run(ctx, p, nil, "rm", "-rf", "--", name(p))
	return translate(ctx, err, "remove", p)
}

func (d *Device) Permissions(ctx context.Context, p fspath.FilePath) (fs.FileMode, error) {
	info, err := d.stat(ctx, p, true)
	if err != nil {
		return 0, err
	}
	return info.mode.Perm(), nil
}

func (d *Device) SetPermissions(ctx context.Context, p fspath.FilePath, mode fs.FileMode) error {
	_, err := d.run(ctx, p, nil, "chmod", strconv.FormatUint(uint64(mode.Perm()), 8), name(p))
	return translate(ctx, err, "chmod", p)
}

func (d *Device) LastModified(ctx context.Context, p fspath.FilePath) (time.Time, error) {
	info, err := d.stat(ctx, p, true)
	if err != nil {
		return time.Time{}, err
	}
	return info.modTime, nil
}

func (d *Device) FileSize(ctx context.Context, p fspath.FilePath) (int64, error) {
	info, err := d.stat(ctx, p, true)
	if err != nil {
		return 0, err
	}
	return info.size, nil
}

// FreeSpace implements fspath.Device with POSIX df output.
func (d *Device) FreeSpace(ctx context.Context, p fspath.FilePath) (int64, error) {
	res, err := d.run(ctx, p, nil, "df", "-Pk", name(p))
	if err != nil {
		return 0, translate(ctx, err, "free space", p)
	}
	return parseDF(res.StdoutString())
}

// parseDF returns the available bytes from "df -Pk" output.
func parseDF(out string) (int64, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return 0, errors.New(errors.CodeInternal, "unexpected df output")
	}
	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) < 4 {
		return 0, errors.WithContext(errors.New(errors.CodeInternal, "unexpected df output"), "line", lines[len(lines)-1])
	}
	kb, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, errors.CodeInternal, "invalid available blocks %q", fields[3])
	}
	return kb * 1024, nil
}

// SymlinkTarget implements fspath.Device. Relative targets resolve against
// the link's directory in the same container.
func (d *Device) SymlinkTarget(ctx context.Context, p fspath.FilePath) (fspath.FilePath, error) {
	info, err := d.stat(ctx, p, false)
	if err != nil {
		return fspath.FilePath{}, err
	}
	if info.mode&fs.ModeSymlink == 0 {
		return fspath.FilePath{}, nil
	}
	res, err := d.run(ctx, p, nil, "readlink", name(p))
	if err != nil {
		return fspath.FilePath{}, translate(ctx, err, "read link", p)
	}
	target := strings.TrimRight(res.StdoutString(), "\r\n")
	if !path.IsAbs(target) {
		target = path.Join(path.Dir(name(p)), target)
	}
	return p.WithNewPath(path.Clean(target)), nil
}

func (d *Device) DisplayName(p fspath.FilePath) string {
	return d.cfg.Scheme + ":" + p.Host()
}

func (d *Device) MapToDevicePath(p fspath.FilePath) string { return name(p) }

// Environment implements fspath.Device with the container's exec environment.
func (d *Device) Environment(ctx context.Context, p fspath.FilePath) (fspath.Environment, error) {
	res, err := d.run(ctx, p, nil, "env")
	if err != nil {
		return fspath.Environment{}, translate(ctx, err, "environment", p)
	}
	lines := strings.Split(strings.TrimRight(res.StdoutString(), "\n"), "\n")
	return fspath.ParseEnvironment(fspath.OSTypeLinux, lines), nil
}
