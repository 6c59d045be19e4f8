package exec

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Executor runs command lines. Device backends that shell out (for example
// "docker exec") depend on this interface so tests can substitute a fake.
//
// The With* methods configure the next Run only; settings given to New apply
// to every run. Executors are not safe for concurrent configuration, so
// callers running commands in parallel Clone first.
type Executor interface {
	// WithEnv adds environment variables for the next run.
	WithEnv(env map[string]string) Executor

	// WithDir sets the working directory for the next run.
	WithDir(dir string) Executor

	// WithStdin connects r to the standard input of the next run.
	WithStdin(r io.Reader) Executor

	// WithTimeout bounds the next run. Zero means no timeout.
	WithTimeout(timeout time.Duration) Executor

	// WithInheritEnv passes the parent process environment to the next run.
	WithInheritEnv() Executor

	// Run executes args[0] with the remaining arguments. A non-zero exit
	// returns both the Result and an *ExecError.
	Run(ctx context.Context, args ...string) (*Result, error)

	// Clone returns an independent copy with the same configuration.
	Clone() Executor
}

// Result holds the captured output of a command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// StdoutString returns stdout as a string.
func (r *Result) StdoutString() string { return string(r.Stdout) }

// StderrString returns stderr as a string.
func (r *Result) StderrString() string { return string(r.Stderr) }

// Option configures a Command at creation time.
type Option func(*Command)

// WithEnv returns an Option that sets environment variables for every run.
func WithEnv(env map[string]string) Option {
	return func(c *Command) {
		for k, v := range env {
			c.config.globalEnv[k] = v
		}
	}
}

// WithDir returns an Option that sets the default working directory.
func WithDir(dir string) Option {
	return func(c *Command) {
		c.config.globalDir = dir
	}
}

// WithInheritEnv returns an Option that inherits the parent environment on every run.
func WithInheritEnv() Option {
	return func(c *Command) {
		c.config.globalInheritEnv = true
	}
}

// WithTimeout returns an Option that bounds every run.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Command) {
		c.config.globalTimeout = timeout
	}
}

// WithLogger returns an Option that logs each run at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Command) {
		c.logger = logger
	}
}
