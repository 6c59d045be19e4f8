package config

import (
	"io"
	"log/slog"
	"time"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/device/billyfs"
	"github.com/jmgilman/go/fspath/device/docker"
	"github.com/jmgilman/go/fspath/device/ghfs"
	"github.com/jmgilman/go/fspath/device/gitfs"
	"github.com/jmgilman/go/fspath/device/s3"
	"github.com/jmgilman/go/fspath/device/sftpfs"
	"github.com/jmgilman/go/fspath/errors"
	"github.com/jmgilman/go/fspath/exec"
)

type buildOptions struct {
	logger   *slog.Logger
	executor exec.Executor
}

// BuildOption configures Build and Install.
type BuildOption func(*buildOptions)

// WithLogger passes logger to every device.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// WithExecutor runs docker devices through executor.
func WithExecutor(executor exec.Executor) BuildOption {
	return func(o *buildOptions) {
		o.executor = executor
	}
}

// Build creates the devices described by f, in order. On failure the
// devices created so far are closed.
func (f *File) Build(opts ...BuildOption) ([]fspath.Device, error) {
	o := buildOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	devices := make([]fspath.Device, 0, len(f.Devices))
	for _, spec := range f.Devices {
		d, err := spec.build(&o)
		if err != nil {
			closeAll(devices)
			return nil, errors.WithContext(err, "scheme", spec.Scheme)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// Install builds the devices of f and registers them with r. Nothing is
// registered when any device fails to build or register.
func (f *File) Install(r *fspath.Registry, opts ...BuildOption) error {
	devices, err := f.Build(opts...)
	if err != nil {
		return err
	}
	for i, d := range devices {
		if err := r.Register(d); err != nil {
			for _, registered := range devices[:i] {
				r.Unregister(registered.Scheme())
			}
			closeAll(devices)
			return err
		}
	}
	return nil
}

func closeAll(devices []fspath.Device) {
	for _, d := range devices {
		if c, ok := d.(io.Closer); ok {
			_ = c.Close()
		}
	}
}

func (s *DeviceSpec) build(o *buildOptions) (fspath.Device, error) {
	logger := o.logger.With("scheme", s.Scheme)

	switch s.Type {
	case TypeMemory:
		return billyfs.NewMemory(s.Scheme, billyfs.WithLogger(logger)), nil

	case TypeDisk:
		return billyfs.NewLocal(s.Scheme, s.BaseDir, billyfs.WithLogger(logger)), nil

	case TypeGit:
		return gitfs.NewLocal(s.Scheme, s.BaseDir, gitfs.WithLogger(logger)), nil

	case TypeGitHub:
		spec := s.GitHub
		if spec == nil {
			spec = &GitHubSpec{}
		}
		return ghfs.New(ghfs.Config{
			Scheme:       s.Scheme,
			Token:        spec.Token,
			BaseURL:      spec.BaseURL,
			CommitPrefix: spec.CommitPrefix,
			Logger:       logger,
		})

	case TypeS3:
		spec := s.S3
		if spec == nil {
			spec = &S3Spec{}
		}
		return s3.New(s3.Config{
			Scheme:         s.Scheme,
			Endpoint:       spec.Endpoint,
			AccessKey:      spec.AccessKey,
			SecretKey:      spec.SecretKey,
			UseSSL:         spec.UseSSL,
			Region:         spec.Region,
			Prefix:         spec.Prefix,
			PartSize:       spec.PartSize,
			MaxConcurrency: spec.MaxConcurrency,
			Logger:         logger,
		})

	case TypeSFTP:
		spec := s.SFTP
		if spec == nil {
			spec = &SFTPSpec{}
		}
		timeout, err := parseDuration(spec.Timeout)
		if err != nil {
			return nil, err
		}
		return sftpfs.New(sftpfs.Config{
			Scheme:                s.Scheme,
			User:                  spec.User,
			Password:              spec.Password,
			PrivateKey:            spec.PrivateKey,
			PrivateKeyPath:        spec.PrivateKeyPath,
			Passphrase:            spec.Passphrase,
			Port:                  spec.Port,
			Timeout:               timeout,
			KnownHostsPath:        spec.KnownHostsPath,
			InsecureIgnoreHostKey: spec.InsecureIgnoreHostKey,
			MaxConcurrency:        spec.MaxConcurrency,
			Logger:                logger,
		})

	case TypeDocker:
		spec := s.Docker
		if spec == nil {
			spec = &DockerSpec{}
		}
		timeout, err := parseDuration(spec.Timeout)
		if err != nil {
			return nil, err
		}
		return docker.New(docker.Config{
			Scheme:   s.Scheme,
			Binary:   spec.Binary,
			User:     spec.User,
			Timeout:  timeout,
			Executor: o.executor,
			Logger:   logger,
		})
	}
	return nil, errors.WithContext(errors.New(errors.CodeInvalidConfig, "unknown device type"), "type", s.Type)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, errors.CodeInvalidConfig, "invalid duration %q", s)
	}
	return d, nil
}
